package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/nanophoto/nanophoto/internal/models"
)

// ErrNotFound is returned when no analysis exists under the requested id.
var ErrNotFound = errors.New("analysis not found")

// ErrDuplicateID is returned when a record with the same analysis id already
// exists. Ids are generated, so this indicates a caller bug.
var ErrDuplicateID = errors.New("analysis id already exists")

// AnalysisStore persists analysis records. Create is the commit point of an
// analysis: nothing before it is durable.
type AnalysisStore interface {
	// Create persists exactly one record.
	Create(ctx context.Context, analysis *models.Analysis) error

	// Get returns the full record by its analysis id.
	Get(ctx context.Context, analysisID string) (*models.Analysis, error)

	// ListByUser returns summary projections for one owner, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.AnalysisSummary, error)
}

// MemoryStore keeps analyses in process memory. It backs tests and
// single-user setups without a database.
type MemoryStore struct {
	analyses map[string]*models.Analysis
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		analyses: make(map[string]*models.Analysis),
	}
}

func (s *MemoryStore) Create(ctx context.Context, analysis *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.analyses[analysis.AnalysisID]; exists {
		return ErrDuplicateID
	}
	cp := *analysis
	s.analyses[analysis.AnalysisID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, analysisID string) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, exists := s.analyses[analysisID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *analysis
	return &cp, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]models.AnalysisSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.AnalysisSummary, 0)
	for _, analysis := range s.analyses {
		if analysis.UserID == userID {
			summaries = append(summaries, analysis.Summary())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
