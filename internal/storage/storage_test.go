package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nanophoto/nanophoto/internal/judgement"
	"github.com/nanophoto/nanophoto/internal/models"
)

func record(id, userID string, createdAt time.Time) *models.Analysis {
	return &models.Analysis{
		AnalysisID:  id,
		UserID:      userID,
		Image:       "data:image/jpeg;base64,/9j/",
		Mode:        "Portraits",
		Constraints: []string{"lighting"},
		Judgement: judgement.Judgement{
			ImageTitle: "photo of a dog in a forest",
			Verdict:    "good light, loose framing",
		},
		Sketches:  []string{""},
		CreatedAt: createdAt,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := record("a1", "user-1", time.Now())
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AnalysisID != "a1" || got.UserID != "user-1" || got.Mode != "Portraits" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Judgement.ImageTitle != "photo of a dog in a forest" {
		t.Errorf("judgement not preserved: %+v", got.Judgement)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, record("a1", "user-1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, record("a1", "user-2", time.Now())); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Create error = %v, want ErrDuplicateID", err)
	}
}

func TestMemoryStoreListByUserNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := record(fmt.Sprintf("a%d", i), "user-1", base.Add(time.Duration(i)*time.Hour))
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Create(ctx, record("other", "user-2", base)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	summaries, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("summaries = %d, want 3", len(summaries))
	}
	want := []string{"a2", "a1", "a0"}
	for i, s := range summaries {
		if s.AnalysisID != want[i] {
			t.Errorf("summaries[%d] = %s, want %s", i, s.AnalysisID, want[i])
		}
		if s.ImageTitle == "" || s.Verdict == "" {
			t.Errorf("summary %d misses judgement projection: %+v", i, s)
		}
	}
}

func TestMemoryStoreListByUserEmpty(t *testing.T) {
	store := NewMemoryStore()
	summaries, err := store.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("summaries = %d, want 0", len(summaries))
	}
}

func TestConcurrentCreatesWithGeneratedIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Create(ctx, record(uuid.NewString(), "user-1", time.Now()))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Create %d: %v", i, err)
		}
	}
	summaries, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != n {
		t.Errorf("summaries = %d, want %d", len(summaries), n)
	}
}
