package report

import (
	"strings"
	"testing"

	"github.com/nanophoto/nanophoto/internal/judgement"
	"gopkg.in/yaml.v3"
)

func sampleJudgement() *judgement.Judgement {
	j := &judgement.Judgement{
		ImageTitle:        "Pier in Fog",
		VisualDescription: "A long wooden pier fades into grey fog.",
		Verdict:           "Atmospheric but underexposed.",
		ActionableIssues: []judgement.Issue{
			{
				Issue:          "pier is centered and static",
				Location:       judgement.Location{Type: judgement.LocationFraming, Framing: "step two paces left"},
				VisualGuidance: "draw an arrow pointing left",
			},
			{
				Issue:          "highlights are clipped",
				Location:       judgement.Location{Type: judgement.LocationSettings, Settings: "lower exposure compensation by one stop"},
				VisualGuidance: "circle the sky",
			},
		},
	}
	j.Scores.Composition.Placement = judgement.Score{Score: judgement.LabelDecent, Reason: "subject dead center"}
	j.Scores.Lighting.Exposure = judgement.Score{Score: judgement.LabelBad, Reason: "sky is blown out"}
	return j
}

func TestBuildOrdersCategories(t *testing.T) {
	rep := Build(Config{Model: "gemini-2.5-pro", Mode: "Landscapes"}, sampleJudgement(), nil)

	if len(rep.Scores) != 5 {
		t.Fatalf("categories = %d, want 5", len(rep.Scores))
	}
	wantOrder := []string{"composition", "lighting", "color", "technique", "creativity"}
	for i, want := range wantOrder {
		if _, ok := rep.Scores[i][want]; !ok {
			t.Errorf("category %d missing %q: %v", i, want, rep.Scores[i])
		}
	}
	comp := rep.Scores[0]["composition"]
	if comp["placement"].Score != "decent" || comp["placement"].Reason != "subject dead center" {
		t.Errorf("placement = %+v", comp["placement"])
	}
	if rep.Config.Timestamp == "" {
		t.Error("timestamp not defaulted")
	}
}

func TestBuildAlignsSketchPaths(t *testing.T) {
	rep := Build(Config{Model: "m", Mode: "Other"}, sampleJudgement(), []string{"sketch-0.jpg", ""})
	if len(rep.ActionableIssues) != 2 {
		t.Fatalf("issues = %d", len(rep.ActionableIssues))
	}
	if rep.ActionableIssues[0].Sketch != "sketch-0.jpg" {
		t.Errorf("issue 0 sketch = %q", rep.ActionableIssues[0].Sketch)
	}
	if rep.ActionableIssues[1].Sketch != "" {
		t.Errorf("issue 1 sketch = %q", rep.ActionableIssues[1].Sketch)
	}
	if rep.ActionableIssues[1].Location != "lower exposure compensation by one stop" {
		t.Errorf("issue 1 location = %q", rep.ActionableIssues[1].Location)
	}
}

func TestWriteProducesValidYAML(t *testing.T) {
	rep := Build(Config{Model: "gemini-2.5-pro", Mode: "Street", Constraints: []string{"lighting"}}, sampleJudgement(), nil)
	var sb strings.Builder
	if err := Write(&sb, rep); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := sb.String()
	var round Report
	if err := yaml.Unmarshal([]byte(out), &round); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if round.ImageTitle != "Pier in Fog" || round.Verdict != "Atmospheric but underexposed." {
		t.Errorf("round trip = %+v", round)
	}
	if !strings.Contains(out, "mode: Street") {
		t.Errorf("missing mode in output:\n%s", out)
	}
}
