package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nanophoto/nanophoto/internal/judgement"
	"github.com/nanophoto/nanophoto/internal/storage"
)

type fakeJudge struct {
	result judgement.Result
	err    error

	gotImage       []byte
	gotMode        string
	gotConstraints []judgement.Constraint
}

func (f *fakeJudge) Judge(ctx context.Context, image []byte, mode string, constraints []judgement.Constraint) (judgement.Result, error) {
	f.gotImage = image
	f.gotMode = mode
	f.gotConstraints = constraints
	if f.err != nil {
		return judgement.Result{}, f.err
	}
	return f.result, nil
}

type fakeSketcher struct {
	fail map[string]bool
}

func (f *fakeSketcher) Sketch(ctx context.Context, image []byte, issue judgement.Issue) ([]byte, error) {
	if f.fail[issue.VisualGuidance] {
		return nil, errors.New("sketch model unavailable")
	}
	return []byte(fmt.Sprintf("sketch-%s", issue.VisualGuidance)), nil
}

func goodJudgement(issues int) *judgement.Judgement {
	j := &judgement.Judgement{
		ImageTitle:        "Harbor at Dusk",
		VisualDescription: strings.Repeat("calm water and warm light ", 20),
		Verdict:           "A strong frame held back by a tilted horizon.",
	}
	for i := 0; i < issues; i++ {
		j.ActionableIssues = append(j.ActionableIssues, judgement.Issue{
			Issue:          fmt.Sprintf("issue %d", i),
			Location:       judgement.Location{Type: judgement.LocationFraming, Framing: "tilt the camera left"},
			VisualGuidance: fmt.Sprintf("guide %d", i),
		})
	}
	return j
}

func testImage() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 'p', 'i', 'x'})
}

func TestAnalyzePersistsRecord(t *testing.T) {
	store := storage.NewMemoryStore()
	judge := &fakeJudge{result: judgement.Accepted(goodJudgement(2))}
	svc := NewService(judge, &fakeSketcher{}, store)

	id, err := svc.Analyze(context.Background(), Request{
		UserID:      "user-1",
		Image:       testImage(),
		Mode:        "Landscapes",
		Constraints: []string{"lighting"},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if id == "" {
		t.Fatal("Analyze() returned empty id")
	}
	if judge.gotMode != "Landscapes" {
		t.Errorf("judge saw mode %q, want Landscapes", judge.gotMode)
	}
	if len(judge.gotConstraints) != 1 || judge.gotConstraints[0] != judgement.ConstraintLighting {
		t.Errorf("judge saw constraints %v", judge.gotConstraints)
	}

	rec, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.UserID != "user-1" || rec.Mode != "Landscapes" {
		t.Errorf("stored record = %+v", rec)
	}
	if !strings.HasPrefix(rec.Image, "data:image/jpeg;base64,") {
		t.Errorf("stored image = %q, want jpeg data URL", rec.Image[:32])
	}
	if len(rec.Sketches) != len(rec.Judgement.ActionableIssues) {
		t.Fatalf("sketches = %d, issues = %d", len(rec.Sketches), len(rec.Judgement.ActionableIssues))
	}
	for i, s := range rec.Sketches {
		if !strings.HasPrefix(s, "data:") {
			t.Errorf("sketch %d = %q, want data URL", i, s)
		}
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestAnalyzeSketchFailureLeavesPlaceholder(t *testing.T) {
	store := storage.NewMemoryStore()
	judge := &fakeJudge{result: judgement.Accepted(goodJudgement(3))}
	svc := NewService(judge, &fakeSketcher{fail: map[string]bool{"guide 1": true}}, store)

	id, err := svc.Analyze(context.Background(), Request{UserID: "u", Image: testImage(), Mode: "Other"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	rec, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.Sketches) != 3 {
		t.Fatalf("sketches = %d, want 3", len(rec.Sketches))
	}
	empty := 0
	for _, s := range rec.Sketches {
		if s == "" {
			empty++
		}
	}
	if empty != 1 {
		t.Errorf("empty sketches = %d, want exactly 1", empty)
	}
}

func TestAnalyzeRejectionPersistsNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	judge := &fakeJudge{result: judgement.Rejected("not a photograph")}
	svc := NewService(judge, &fakeSketcher{}, store)

	_, err := svc.Analyze(context.Background(), Request{UserID: "u", Image: testImage(), Mode: "Other"})
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("Analyze() error = %v, want *RejectionError", err)
	}
	if rej.Reason != "not a photograph" {
		t.Errorf("reason = %q", rej.Reason)
	}
	list, err := svc.List(context.Background(), "u")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("persisted %d records after rejection", len(list))
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc := NewService(&fakeJudge{}, &fakeSketcher{}, storage.NewMemoryStore())
	tests := []struct {
		name string
		req  Request
	}{
		{"missing image", Request{UserID: "u", Mode: "Other"}},
		{"missing mode", Request{UserID: "u", Image: testImage()}},
		{"bad constraint", Request{UserID: "u", Image: testImage(), Mode: "Other", Constraints: []string{"weather"}}},
		{"bad base64", Request{UserID: "u", Image: "data:image/jpeg;base64,!!!", Mode: "Other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Analyze() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAnalyzeJudgeError(t *testing.T) {
	svc := NewService(&fakeJudge{err: errors.New("deadline exceeded")}, &fakeSketcher{}, storage.NewMemoryStore())
	_, err := svc.Analyze(context.Background(), Request{UserID: "u", Image: testImage(), Mode: "Other"})
	if err == nil || errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Analyze() error = %v, want judgement failure", err)
	}
}
