package judgement

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validJudgement() *Judgement {
	score := Score{Score: LabelGood, Reason: "solid"}
	return &Judgement{
		ImageTitle:        "photo of a person in a park",
		VisualDescription: strings.Repeat("a detailed description ", 30),
		Scores: Scores{
			Composition: CompositionScores{score, score, score},
			Lighting:    LightingScores{score, score, score},
			Color:       ColorScores{score, score, score},
			Technique:   TechniqueScores{score, score, score},
			Creativity:  CreativityScores{score, score, score},
		},
		ActionableIssues: []Issue{
			{
				Issue:          "subject is off balance",
				Location:       Location{Type: LocationArea, Area: "left third"},
				VisualGuidance: "move the subject toward the center line",
			},
			{
				Issue:          "frame is underexposed",
				Location:       Location{Type: LocationSettings, Settings: "exposure setting"},
				VisualGuidance: "increase the exposure by 0.7 stops",
			},
		},
		Verdict: "a decent capture with fixable framing",
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validJudgement().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Judgement)
	}{
		{"missing title", func(j *Judgement) { j.ImageTitle = "" }},
		{"missing description", func(j *Judgement) { j.VisualDescription = "  " }},
		{"missing verdict", func(j *Judgement) { j.Verdict = "" }},
		{"invalid score label", func(j *Judgement) { j.Scores.Lighting.Exposure.Score = "amazing" }},
		{"empty issue", func(j *Judgement) { j.ActionableIssues[0].Issue = "" }},
		{"empty guidance", func(j *Judgement) { j.ActionableIssues[1].VisualGuidance = "" }},
		{"unknown location type", func(j *Judgement) { j.ActionableIssues[0].Location.Type = "vibe" }},
		{"location without descriptor", func(j *Judgement) { j.ActionableIssues[0].Location.Area = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := validJudgement()
			tt.mutate(j)
			err := j.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrSchema) {
				t.Errorf("error %v is not ErrSchema", err)
			}
		})
	}
}

func TestScoreLabelRanks(t *testing.T) {
	ordered := []ScoreLabel{LabelMajorIssue, LabelBad, LabelDecent, LabelGood, LabelGreat, LabelExcellent}
	for i, l := range ordered {
		if !l.Valid() {
			t.Errorf("%q should be valid", l)
		}
		if l.Rank() != i {
			t.Errorf("%q rank = %d, want %d", l, l.Rank(), i)
		}
	}
	if ScoreLabel("perfect").Valid() {
		t.Error("unknown label should be invalid")
	}
}

func TestLocationDetail(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{Type: LocationArea, Area: "under the nose"}, "under the nose"},
		{Location{Type: LocationSettings, Settings: "exposure setting"}, "exposure setting"},
		{Location{Type: LocationFraming, Framing: "bottom of the frame"}, "bottom of the frame"},
		{Location{Type: "other", Area: "x"}, ""},
	}
	for _, tt := range tests {
		if got := tt.loc.Detail(); got != tt.want {
			t.Errorf("Detail(%+v) = %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestParseResultRejection(t *testing.T) {
	res, err := ParseResult([]byte(`{"error": "all black"}`))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	reason, ok := res.Rejection()
	if !ok || reason != "all black" {
		t.Errorf("Rejection() = (%q, %v), want (all black, true)", reason, ok)
	}
	if _, ok := res.Judgement(); ok {
		t.Error("rejection result must not carry a judgement")
	}
}

func TestParseResultJudgement(t *testing.T) {
	raw, err := json.Marshal(validJudgement())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	j, ok := res.Judgement()
	if !ok {
		t.Fatal("expected the judgement arm")
	}
	if len(j.ActionableIssues) != 2 {
		t.Errorf("issues = %d, want 2", len(j.ActionableIssues))
	}
	if _, rejected := res.Rejection(); rejected {
		t.Error("judgement result must not carry a rejection")
	}
}

func TestParseResultSchemaViolation(t *testing.T) {
	inputs := []string{
		`not json at all`,
		`{"imageTitle": "x"}`,
		`{"unrelated": true}`,
	}
	for _, in := range inputs {
		if _, err := ParseResult([]byte(in)); !errors.Is(err, ErrSchema) {
			t.Errorf("ParseResult(%q) error = %v, want ErrSchema", in, err)
		}
	}
}

func TestParseConstraints(t *testing.T) {
	got, err := ParseConstraints([]string{"background", "lighting"})
	if err != nil {
		t.Fatalf("ParseConstraints: %v", err)
	}
	if len(got) != 2 || got[0] != ConstraintBackground || got[1] != ConstraintLighting {
		t.Errorf("ParseConstraints = %v", got)
	}

	if _, err := ParseConstraints([]string{"weather"}); err == nil {
		t.Error("expected error for unknown constraint")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
