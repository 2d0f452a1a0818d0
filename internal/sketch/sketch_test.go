package sketch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nanophoto/nanophoto/internal/judgement"
)

type fakeSketcher struct {
	mu      sync.Mutex
	calls   int
	failIdx map[int]bool
}

func (f *fakeSketcher) Sketch(ctx context.Context, image []byte, issue judgement.Issue) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	// Issues carry their index in the guidance so results can be checked
	// for alignment.
	var idx int
	fmt.Sscanf(issue.VisualGuidance, "fix %d", &idx)
	if f.failIdx[idx] {
		return nil, errors.New("model unavailable")
	}
	return []byte(fmt.Sprintf("sketch-%d", idx)), nil
}

func issues(n int) []judgement.Issue {
	out := make([]judgement.Issue, n)
	for i := range out {
		out[i] = judgement.Issue{
			Issue:          fmt.Sprintf("issue %d", i),
			Location:       judgement.Location{Type: judgement.LocationArea, Area: "center"},
			VisualGuidance: fmt.Sprintf("fix %d", i),
		}
	}
	return out
}

func TestGenerateAllIndexAligned(t *testing.T) {
	s := &fakeSketcher{}
	results := GenerateAll(context.Background(), s, []byte("img"), issues(5))

	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	for i, r := range results {
		want := fmt.Sprintf("sketch-%d", i)
		if string(r) != want {
			t.Errorf("results[%d] = %q, want %q", i, r, want)
		}
	}
	if s.calls != 5 {
		t.Errorf("calls = %d, want 5", s.calls)
	}
}

func TestGenerateAllPartialFailure(t *testing.T) {
	s := &fakeSketcher{failIdx: map[int]bool{1: true, 3: true}}
	results := GenerateAll(context.Background(), s, []byte("img"), issues(4))

	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	for i, r := range results {
		if s.failIdx[i] {
			if r != nil {
				t.Errorf("results[%d] = %q, want nil placeholder", i, r)
			}
			continue
		}
		if string(r) != fmt.Sprintf("sketch-%d", i) {
			t.Errorf("results[%d] = %q", i, r)
		}
	}
}

func TestGenerateAllNoIssues(t *testing.T) {
	s := &fakeSketcher{}
	results := GenerateAll(context.Background(), s, []byte("img"), nil)
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
	if s.calls != 0 {
		t.Errorf("calls = %d, want 0", s.calls)
	}
}
