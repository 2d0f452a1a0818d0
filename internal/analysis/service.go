package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nanophoto/nanophoto/internal/imageutil"
	"github.com/nanophoto/nanophoto/internal/judgement"
	"github.com/nanophoto/nanophoto/internal/models"
	"github.com/nanophoto/nanophoto/internal/sketch"
	"github.com/nanophoto/nanophoto/internal/storage"
)

// ErrInvalidInput marks a malformed analysis request.
var ErrInvalidInput = errors.New("invalid analysis request")

// RejectionError is returned when the model refuses to critique the image.
// No record is persisted for a rejected image.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("image rejected: %s", e.Reason)
}

// Judge is the critique boundary the service depends on.
type Judge interface {
	Judge(ctx context.Context, image []byte, mode string, constraints []judgement.Constraint) (judgement.Result, error)
}

// Request is one analysis submission.
type Request struct {
	UserID      string
	Image       string // data URL or bare base64
	Mode        string
	Constraints []string
}

// Service runs the full pipeline from submitted image to stored record.
type Service struct {
	judge    Judge
	sketcher sketch.Sketcher
	store    storage.AnalysisStore
}

// NewService wires the service's collaborators.
func NewService(judge Judge, sketcher sketch.Sketcher, store storage.AnalysisStore) *Service {
	return &Service{judge: judge, sketcher: sketcher, store: store}
}

// NewRecord assembles a persistable record with a fresh id. Sketches must be
// index-aligned with the judgement's actionable issues.
func NewRecord(userID, image, mode string, constraints []string, j *judgement.Judgement, sketches []string) *models.Analysis {
	return &models.Analysis{
		AnalysisID:  uuid.NewString(),
		UserID:      userID,
		Image:       image,
		Mode:        mode,
		Constraints: append([]string{}, constraints...),
		Judgement:   *j,
		Sketches:    sketches,
		CreatedAt:   time.Now().UTC(),
	}
}

// Analyze judges one image and persists the resulting record. It returns the
// generated analysis id. A model rejection surfaces as *RejectionError and
// persists nothing; the store call is the only commit point.
func (s *Service) Analyze(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Image) == "" {
		return "", fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Mode) == "" {
		return "", fmt.Errorf("%w: mode is required", ErrInvalidInput)
	}
	constraints, err := judgement.ParseConstraints(req.Constraints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	data, mime, err := imageutil.DecodeDataURL(req.Image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	mime = imageutil.PickMIME("", mime, data)

	slog.Info("Judging image", "user", req.UserID, "mode", req.Mode, "constraints", req.Constraints)
	result, err := s.judge.Judge(ctx, data, req.Mode, constraints)
	if err != nil {
		return "", fmt.Errorf("judgement failed: %w", err)
	}
	if reason, rejected := result.Rejection(); rejected {
		return "", &RejectionError{Reason: reason}
	}
	j, ok := result.Judgement()
	if !ok {
		return "", judgement.ErrSchema
	}

	slog.Info("Generating sketches", "count", len(j.ActionableIssues))
	artifacts := sketch.GenerateAll(ctx, s.sketcher, data, j.ActionableIssues)
	sketches := make([]string, len(artifacts))
	for i, artifact := range artifacts {
		if artifact == nil {
			// Placeholder keeps the record index-aligned with the issues.
			continue
		}
		sketches[i] = imageutil.DataURL(imageutil.SniffMIME(artifact), artifact)
	}

	record := NewRecord(req.UserID, imageutil.DataURL(mime, data), req.Mode, req.Constraints, j, sketches)
	if err := s.store.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save analysis: %w", err)
	}
	slog.Info("Analysis saved", "analysis_id", record.AnalysisID, "issues", len(j.ActionableIssues))
	return record.AnalysisID, nil
}

// Get fetches one full record by id.
func (s *Service) Get(ctx context.Context, analysisID string) (*models.Analysis, error) {
	return s.store.Get(ctx, analysisID)
}

// List returns one user's analysis history, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.AnalysisSummary, error) {
	return s.store.ListByUser(ctx, userID)
}
