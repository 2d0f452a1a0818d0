package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/nanophoto/nanophoto/internal/analysis"
	"github.com/nanophoto/nanophoto/internal/aspect"
	"github.com/nanophoto/nanophoto/internal/capture"
	"github.com/nanophoto/nanophoto/internal/imageutil"
	"github.com/nanophoto/nanophoto/internal/judgement"
	"github.com/nanophoto/nanophoto/internal/report"
	"github.com/nanophoto/nanophoto/internal/sketch"
	"github.com/spf13/cobra"
)

func newJudgeCmd() *cobra.Command {
	var mode string
	var constraints []string
	var aspectRatio string
	var mirror bool
	var sketchDir string
	var output string
	var judgeModel string
	var sketchModel string
	var save bool
	var user string

	cmd := &cobra.Command{
		Use:   "judge <image>",
		Short: "Critique a photo from the command line",
		Long: `Judges a single photo file and prints the critique as YAML.

With --aspect the photo first runs through the capture pipeline: it is
center-cropped to the requested ratio and rendered onto the standard
canvas, the same treatment a live camera frame gets before judging.`,
		Example: `  # Critique a photo
  nanophoto judge shot.jpg --mode Landscapes

  # Crop to square first and keep the sketch overlays
  nanophoto judge shot.jpg --aspect 1:1 --sketch-dir sketches`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			if aspectRatio != "" {
				if data, err = renderStill(cmd, data, aspectRatio, mirror); err != nil {
					return err
				}
			}

			judge, err := judgement.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), judgeModel)
			if err != nil {
				return err
			}
			defer judge.Close()

			parsed, err := judgement.ParseConstraints(constraints)
			if err != nil {
				return err
			}
			result, err := judge.Judge(ctx, data, mode, parsed)
			if err != nil {
				return fmt.Errorf("judgement failed: %w", err)
			}
			if reason, rejected := result.Rejection(); rejected {
				return fmt.Errorf("image rejected: %s", reason)
			}
			j, ok := result.Judgement()
			if !ok {
				return judgement.ErrSchema
			}

			var sketchPaths []string
			if sketchDir != "" && len(j.ActionableIssues) > 0 {
				sketcher, err := sketch.NewGenerator(ctx, os.Getenv("GEMINI_API_KEY"), sketchModel)
				if err != nil {
					return err
				}
				defer sketcher.Close()
				if sketchPaths, err = writeSketches(ctx, sketcher, sketchDir, data, j); err != nil {
					return err
				}
			}

			rep := report.Build(report.Config{
				Model:       judgeModel,
				Mode:        mode,
				Constraints: constraints,
				AspectRatio: aspectRatio,
			}, j, sketchPaths)

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := report.Write(out, rep); err != nil {
				return err
			}

			if save {
				return saveRecord(ctx, user, data, mode, constraints, j, sketchPaths)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "Other", "Photography mode (Portraits, Landscapes, Street, Product, Events, Food, Other)")
	cmd.Flags().StringSliceVarP(&constraints, "constraints", "c", nil, "No-go zones for advice (background, props, lighting)")
	cmd.Flags().StringVarP(&aspectRatio, "aspect", "a", "", "Crop to this aspect ratio before judging (9:16, 3:4, 1:1, 4:3, 4:5, 16:9)")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Mirror the photo horizontally before judging")
	cmd.Flags().StringVar(&sketchDir, "sketch-dir", "", "Write one annotated sketch per issue into this directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the YAML report to this file instead of stdout")
	cmd.Flags().StringVar(&judgeModel, "judge-model", judgement.DefaultModel, "Model used for critiques")
	cmd.Flags().StringVar(&sketchModel, "sketch-model", sketch.DefaultModel, "Model used for sketch overlays")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the analysis to the configured store")
	cmd.Flags().StringVar(&user, "user", "cli", "User id to record with --save")

	return cmd
}

// renderStill pushes the photo through the capture pipeline as a still frame.
func renderStill(cmd *cobra.Command, data []byte, aspectRatio string, mirror bool) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	prefs := capture.StaticPrefs{AspectRatio: aspect.Parse(aspectRatio), Flipped: mirror}
	session, err := capture.StartSession(cmd.Context(), capture.NewStillOpener(img), prefs, capture.FacingEnvironment)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	rendered, err := session.Pipeline().CapturePhoto()
	if err != nil {
		return nil, err
	}
	if rendered == nil {
		return nil, errors.New("capture produced no photo")
	}
	return rendered, nil
}

func writeSketches(ctx context.Context, sketcher sketch.Sketcher, dir string, data []byte, j *judgement.Judgement) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sketch directory: %w", err)
	}
	artifacts := sketch.GenerateAll(ctx, sketcher, data, j.ActionableIssues)
	paths := make([]string, len(artifacts))
	for i, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("sketch-%d.jpg", i))
		if err := os.WriteFile(path, artifact, 0644); err != nil {
			return nil, fmt.Errorf("failed to write sketch: %w", err)
		}
		paths[i] = path
	}
	return paths, nil
}

func saveRecord(ctx context.Context, user string, data []byte, mode string, constraints []string, j *judgement.Judgement, sketchPaths []string) error {
	store, cleanup, err := newAnalysisStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sketches := make([]string, len(j.ActionableIssues))
	for i, path := range sketchPaths {
		if path == "" {
			continue
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read sketch: %w", err)
		}
		sketches[i] = imageutil.DataURL(imageutil.SniffMIME(b), b)
	}

	record := analysis.NewRecord(user, imageutil.DataURL(imageutil.SniffMIME(data), data), mode, constraints, j, sketches)
	if err := store.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	fmt.Printf("Saved analysis %s\n", record.AnalysisID)
	return nil
}
