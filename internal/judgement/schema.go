package judgement

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSchema marks model output that does not match the judgement contract.
// Schema violations are hard failures of the request, never retried silently.
var ErrSchema = errors.New("model output does not match the judgement schema")

// ScoreLabel is one of the six ordered critique labels.
type ScoreLabel string

const (
	LabelMajorIssue ScoreLabel = "major issue"
	LabelBad        ScoreLabel = "bad"
	LabelDecent     ScoreLabel = "decent"
	LabelGood       ScoreLabel = "good"
	LabelGreat      ScoreLabel = "great"
	LabelExcellent  ScoreLabel = "excellent"
)

var labelRanks = map[ScoreLabel]int{
	LabelMajorIssue: 0,
	LabelBad:        1,
	LabelDecent:     2,
	LabelGood:       3,
	LabelGreat:      4,
	LabelExcellent:  5,
}

// Valid reports whether the label is part of the enum.
func (l ScoreLabel) Valid() bool {
	_, ok := labelRanks[l]
	return ok
}

// Rank returns the label's position in the ordered scale, 0 being the worst.
func (l ScoreLabel) Rank() int {
	return labelRanks[l]
}

// Score is one sub-metric verdict.
type Score struct {
	Score  ScoreLabel `json:"score" bson:"score"`
	Reason string     `json:"reason" bson:"reason"`
}

// CompositionScores covers how elements are placed and relate to each other.
type CompositionScores struct {
	Placement           Score `json:"placement" bson:"placement"`
	BalanceAndWeight    Score `json:"balanceAndWeight" bson:"balanceAndWeight"`
	DepthAndPerspective Score `json:"depthAndPerspective" bson:"depthAndPerspective"`
}

// LightingScores covers how light creates the mood and atmosphere.
type LightingScores struct {
	Exposure            Score `json:"exposure" bson:"exposure"`
	DirectionAndQuality Score `json:"directionAndQuality" bson:"directionAndQuality"`
	ContrastAndShadows  Score `json:"contrastAndShadows" bson:"contrastAndShadows"`
}

// ColorScores covers the color palette of the image.
type ColorScores struct {
	WhiteBalance      Score `json:"whiteBalance" bson:"whiteBalance"`
	ColorHarmony      Score `json:"colorHarmony" bson:"colorHarmony"`
	MoodAndAtmosphere Score `json:"moodAndAtmosphere" bson:"moodAndAtmosphere"`
}

// TechniqueScores covers the technical execution.
type TechniqueScores struct {
	SharpnessAndFocus  Score `json:"sharpnessAndFocus" bson:"sharpnessAndFocus"`
	NoiseAndGrain      Score `json:"noiseAndGrain" bson:"noiseAndGrain"`
	WarpingAndBlurring Score `json:"warpingAndBlurring" bson:"warpingAndBlurring"`
}

// CreativityScores covers what the image does and why it should exist.
type CreativityScores struct {
	Originality     Score `json:"originality" bson:"originality"`
	Storytelling    Score `json:"storytelling" bson:"storytelling"`
	EmotionalImpact Score `json:"emotionalImpact" bson:"emotionalImpact"`
}

// Scores holds the five fixed critique categories, three sub-metrics each.
type Scores struct {
	Composition CompositionScores `json:"composition" bson:"composition"`
	Lighting    LightingScores    `json:"lighting" bson:"lighting"`
	Color       ColorScores       `json:"color" bson:"color"`
	Technique   TechniqueScores   `json:"technique" bson:"technique"`
	Creativity  CreativityScores  `json:"creativity" bson:"creativity"`
}

// Metric is one named sub-metric with its score, used for ordered traversal.
type Metric struct {
	Name  string
	Score Score
}

// Category is one critique category with its sub-metrics in schema order.
type Category struct {
	Name    string
	Metrics []Metric
}

// Ordered returns every category and sub-metric in the fixed schema order.
func (s Scores) Ordered() []Category {
	return []Category{
		{Name: "composition", Metrics: []Metric{
			{Name: "placement", Score: s.Composition.Placement},
			{Name: "balanceAndWeight", Score: s.Composition.BalanceAndWeight},
			{Name: "depthAndPerspective", Score: s.Composition.DepthAndPerspective},
		}},
		{Name: "lighting", Metrics: []Metric{
			{Name: "exposure", Score: s.Lighting.Exposure},
			{Name: "directionAndQuality", Score: s.Lighting.DirectionAndQuality},
			{Name: "contrastAndShadows", Score: s.Lighting.ContrastAndShadows},
		}},
		{Name: "color", Metrics: []Metric{
			{Name: "whiteBalance", Score: s.Color.WhiteBalance},
			{Name: "colorHarmony", Score: s.Color.ColorHarmony},
			{Name: "moodAndAtmosphere", Score: s.Color.MoodAndAtmosphere},
		}},
		{Name: "technique", Metrics: []Metric{
			{Name: "sharpnessAndFocus", Score: s.Technique.SharpnessAndFocus},
			{Name: "noiseAndGrain", Score: s.Technique.NoiseAndGrain},
			{Name: "warpingAndBlurring", Score: s.Technique.WarpingAndBlurring},
		}},
		{Name: "creativity", Metrics: []Metric{
			{Name: "originality", Score: s.Creativity.Originality},
			{Name: "storytelling", Score: s.Creativity.Storytelling},
			{Name: "emotionalImpact", Score: s.Creativity.EmotionalImpact},
		}},
	}
}

// LocationType tags where in the capture an issue lives.
type LocationType string

const (
	LocationArea     LocationType = "area"
	LocationSettings LocationType = "settings"
	LocationFraming  LocationType = "framing"
)

// Location is a tagged variant: exactly the field matching Type is set.
type Location struct {
	Type     LocationType `json:"type" bson:"type"`
	Area     string       `json:"area,omitempty" bson:"area,omitempty"`
	Settings string       `json:"settings,omitempty" bson:"settings,omitempty"`
	Framing  string       `json:"framing,omitempty" bson:"framing,omitempty"`
}

// Detail returns the descriptor matching the location's type.
func (l Location) Detail() string {
	switch l.Type {
	case LocationArea:
		return l.Area
	case LocationSettings:
		return l.Settings
	case LocationFraming:
		return l.Framing
	default:
		return ""
	}
}

func (l Location) validate() error {
	switch l.Type {
	case LocationArea, LocationSettings, LocationFraming:
	default:
		return fmt.Errorf("unknown location type %q", l.Type)
	}
	if strings.TrimSpace(l.Detail()) == "" {
		return fmt.Errorf("location of type %q has no descriptor", l.Type)
	}
	return nil
}

// Issue is one critique finding paired with an in-capture fix.
type Issue struct {
	Issue          string   `json:"issue" bson:"issue"`
	Location       Location `json:"location" bson:"location"`
	VisualGuidance string   `json:"visual_guidance" bson:"visual_guidance"`
}

// Judgement is a full structured critique.
type Judgement struct {
	ImageTitle        string  `json:"imageTitle" bson:"imageTitle"`
	VisualDescription string  `json:"visualDescription" bson:"visualDescription"`
	Scores            Scores  `json:"scores" bson:"scores"`
	ActionableIssues  []Issue `json:"actionableIssues" bson:"actionableIssues"`
	Verdict           string  `json:"verdict" bson:"verdict"`
}

// Validate checks the full critique shape: non-empty prose fields, all
// fifteen sub-metrics labeled from the enum, and well-formed issues.
func (j *Judgement) Validate() error {
	if strings.TrimSpace(j.ImageTitle) == "" {
		return fmt.Errorf("%w: missing imageTitle", ErrSchema)
	}
	if strings.TrimSpace(j.VisualDescription) == "" {
		return fmt.Errorf("%w: missing visualDescription", ErrSchema)
	}
	if strings.TrimSpace(j.Verdict) == "" {
		return fmt.Errorf("%w: missing verdict", ErrSchema)
	}
	for _, cat := range j.Scores.Ordered() {
		for _, m := range cat.Metrics {
			if !m.Score.Score.Valid() {
				return fmt.Errorf("%w: %s.%s has invalid score %q", ErrSchema, cat.Name, m.Name, m.Score.Score)
			}
		}
	}
	for i, issue := range j.ActionableIssues {
		if strings.TrimSpace(issue.Issue) == "" {
			return fmt.Errorf("%w: issue %d is empty", ErrSchema, i)
		}
		if strings.TrimSpace(issue.VisualGuidance) == "" {
			return fmt.Errorf("%w: issue %d has no visual guidance", ErrSchema, i)
		}
		if err := issue.Location.validate(); err != nil {
			return fmt.Errorf("%w: issue %d: %v", ErrSchema, i, err)
		}
	}
	return nil
}

// Result is the outcome of a judgement request: either a critique or a
// rejection reason, never both.
type Result struct {
	judgement *Judgement
	rejection string
}

// Accepted wraps a validated critique.
func Accepted(j *Judgement) Result { return Result{judgement: j} }

// Rejected wraps the model's reason for refusing the image.
func Rejected(reason string) Result { return Result{rejection: reason} }

// Judgement returns the critique arm, if present.
func (r Result) Judgement() (*Judgement, bool) {
	return r.judgement, r.judgement != nil
}

// Rejection returns the rejection arm, if present.
func (r Result) Rejection() (string, bool) {
	return r.rejection, r.judgement == nil && r.rejection != ""
}

// ParseResult decodes raw model output into a Result. A payload carrying an
// "error" field is the rejection arm; anything else must validate as a full
// Judgement or the whole request fails with ErrSchema.
func ParseResult(raw []byte) (Result, error) {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if strings.TrimSpace(probe.Error) != "" {
		return Rejected(probe.Error), nil
	}

	var j Judgement
	if err := json.Unmarshal(raw, &j); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := j.Validate(); err != nil {
		return Result{}, err
	}
	return Accepted(&j), nil
}
