package models

import (
	"time"

	"github.com/nanophoto/nanophoto/internal/judgement"
)

// Analysis is one persisted critique: the judged image, the structured
// judgement, and one sketch per actionable issue. Records are written once
// and never mutated.
type Analysis struct {
	AnalysisID  string              `json:"analysisId" bson:"analysisId"`
	UserID      string              `json:"userId" bson:"userId"`
	Image       string              `json:"image" bson:"image"`
	Mode        string              `json:"mode" bson:"mode"`
	Constraints []string            `json:"constraints" bson:"constraints"`
	Judgement   judgement.Judgement `json:"judgement" bson:"judgement"`
	Sketches    []string            `json:"sketches" bson:"sketches"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
}

// AnalysisSummary is the listing projection of an Analysis.
type AnalysisSummary struct {
	AnalysisID string    `json:"analysisId" bson:"analysisId"`
	Image      string    `json:"image" bson:"image"`
	ImageTitle string    `json:"imageTitle" bson:"imageTitle"`
	Verdict    string    `json:"verdict" bson:"verdict"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Summary projects the record for history listings.
func (a *Analysis) Summary() AnalysisSummary {
	return AnalysisSummary{
		AnalysisID: a.AnalysisID,
		Image:      a.Image,
		ImageTitle: a.Judgement.ImageTitle,
		Verdict:    a.Judgement.Verdict,
		CreatedAt:  a.CreatedAt,
	}
}
