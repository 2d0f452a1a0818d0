package sketch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/nanophoto/nanophoto/internal/imageutil"
	"github.com/nanophoto/nanophoto/internal/judgement"
	"google.golang.org/api/option"
)

// DefaultModel is the image-output model used for annotation sketches.
const DefaultModel = "gemini-2.5-flash-image"

// defaultTimeout bounds one sketch round trip. A timeout fails only that
// sketch; sibling sketches keep running.
const defaultTimeout = 60 * time.Second

const promptTemplate = `Overlay hand-drawn-style annotations on this photo to guide the photographer.
Draw only thin, legible, non-alarming red annotations: arrows, lines, or short text labels. Do not alter the underlying photo content in any way.
The issue to annotate: %s
Where: %s (%s)
What to show: %s`

// Sketcher produces one annotated artifact for one actionable issue.
// Implementations must keep the original photo content untouched.
type Sketcher interface {
	Sketch(ctx context.Context, image []byte, issue judgement.Issue) ([]byte, error)
}

// Generator draws annotation sketches with an image-generating Gemini model.
type Generator struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGenerator creates a sketch generator. The API key is required.
func NewGenerator(ctx context.Context, apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Generator{
		client:  client,
		model:   client.GenerativeModel(modelName),
		timeout: defaultTimeout,
	}, nil
}

// Close releases the underlying API client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// Sketch sends the original image and one issue's guidance to the model and
// returns the annotated artifact.
func (g *Generator) Sketch(ctx context.Context, image []byte, issue judgement.Issue) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(promptTemplate,
		issue.Issue,
		issue.Location.Detail(),
		issue.Location.Type,
		issue.VisualGuidance,
	)

	format := strings.TrimPrefix(imageutil.SniffMIME(image), "image/")
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		return nil, fmt.Errorf("failed to generate sketch: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				return blob.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("no image returned from sketch model")
}

// GenerateAll fans one sketch call out per issue and waits for all of them.
// The calls are independent and unordered; a failed call leaves a nil
// placeholder at its index instead of failing the batch. The result is always
// index-aligned with issues and the same length.
func GenerateAll(ctx context.Context, s Sketcher, image []byte, issues []judgement.Issue) [][]byte {
	results := make([][]byte, len(issues))
	var wg sync.WaitGroup
	for i := range issues {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifact, err := s.Sketch(ctx, image, issues[i])
			if err != nil {
				slog.Warn("Sketch generation failed, keeping placeholder", "issue", i, "err", err)
				return
			}
			results[i] = artifact
		}(i)
	}
	wg.Wait()
	return results
}
