// Package export writes a user's analysis history to a Parquet archive.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nanophoto/nanophoto/internal/models"
	"github.com/parquet-go/parquet-go"
)

// HistoryRow is one analysis flattened into an archive row. Image payloads
// stay out of the archive, only the critique itself is exported.
type HistoryRow struct {
	AnalysisID  string `parquet:"analysis_id"`
	UserID      string `parquet:"user_id"`
	Mode        string `parquet:"mode"`
	Constraints string `parquet:"constraints"`
	ImageTitle  string `parquet:"image_title"`
	Verdict     string `parquet:"verdict"`
	IssueCount  int32  `parquet:"issue_count"`
	SketchCount int32  `parquet:"sketch_count"`
	CreatedAt   int64  `parquet:"created_at_ms"`

	CompositionPlacement           string `parquet:"composition_placement"`
	CompositionBalanceAndWeight    string `parquet:"composition_balance_and_weight"`
	CompositionDepthAndPerspective string `parquet:"composition_depth_and_perspective"`
	LightingExposure               string `parquet:"lighting_exposure"`
	LightingDirectionAndQuality    string `parquet:"lighting_direction_and_quality"`
	LightingContrastAndShadows     string `parquet:"lighting_contrast_and_shadows"`
	ColorWhiteBalance              string `parquet:"color_white_balance"`
	ColorColorHarmony              string `parquet:"color_color_harmony"`
	ColorMoodAndAtmosphere         string `parquet:"color_mood_and_atmosphere"`
	TechniqueSharpnessAndFocus     string `parquet:"technique_sharpness_and_focus"`
	TechniqueNoiseAndGrain         string `parquet:"technique_noise_and_grain"`
	TechniqueWarpingAndBlurring    string `parquet:"technique_warping_and_blurring"`
	CreativityOriginality          string `parquet:"creativity_originality"`
	CreativityStorytelling         string `parquet:"creativity_storytelling"`
	CreativityEmotionalImpact      string `parquet:"creativity_emotional_impact"`
}

// Row flattens one record into an archive row.
func Row(a *models.Analysis) HistoryRow {
	sketches := 0
	for _, s := range a.Sketches {
		if s != "" {
			sketches++
		}
	}
	s := a.Judgement.Scores
	return HistoryRow{
		AnalysisID:  a.AnalysisID,
		UserID:      a.UserID,
		Mode:        a.Mode,
		Constraints: strings.Join(a.Constraints, ","),
		ImageTitle:  a.Judgement.ImageTitle,
		Verdict:     a.Judgement.Verdict,
		IssueCount:  int32(len(a.Judgement.ActionableIssues)),
		SketchCount: int32(sketches),
		CreatedAt:   a.CreatedAt.UnixMilli(),

		CompositionPlacement:           string(s.Composition.Placement.Score),
		CompositionBalanceAndWeight:    string(s.Composition.BalanceAndWeight.Score),
		CompositionDepthAndPerspective: string(s.Composition.DepthAndPerspective.Score),
		LightingExposure:               string(s.Lighting.Exposure.Score),
		LightingDirectionAndQuality:    string(s.Lighting.DirectionAndQuality.Score),
		LightingContrastAndShadows:     string(s.Lighting.ContrastAndShadows.Score),
		ColorWhiteBalance:              string(s.Color.WhiteBalance.Score),
		ColorColorHarmony:              string(s.Color.ColorHarmony.Score),
		ColorMoodAndAtmosphere:         string(s.Color.MoodAndAtmosphere.Score),
		TechniqueSharpnessAndFocus:     string(s.Technique.SharpnessAndFocus.Score),
		TechniqueNoiseAndGrain:         string(s.Technique.NoiseAndGrain.Score),
		TechniqueWarpingAndBlurring:    string(s.Technique.WarpingAndBlurring.Score),
		CreativityOriginality:          string(s.Creativity.Originality.Score),
		CreativityStorytelling:         string(s.Creativity.Storytelling.Score),
		CreativityEmotionalImpact:      string(s.Creativity.EmotionalImpact.Score),
	}
}

// WriteHistory writes the records to path as a Parquet file.
func WriteHistory(path string, records []*models.Analysis) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[HistoryRow](file)
	rows := make([]HistoryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row(rec))
	}
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write archive rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	slog.Info("History exported", "path", path, "rows", len(rows))
	return nil
}

// ReadHistory loads every row from a Parquet archive.
func ReadHistory(path string) ([]HistoryRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[HistoryRow](pf)
	defer reader.Close()

	rows := make([]HistoryRow, 0, reader.NumRows())
	buf := make([]HistoryRow, 64)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if err != nil {
			break
		}
	}
	return rows, nil
}
