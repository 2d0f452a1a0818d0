package judgement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/nanophoto/nanophoto/internal/imageutil"
	"google.golang.org/api/option"
)

// Constraint names an aspect of the scene the critique must not suggest
// changing.
type Constraint string

const (
	ConstraintBackground Constraint = "background"
	ConstraintProps      Constraint = "props"
	ConstraintLighting   Constraint = "lighting"
)

// ParseConstraints validates a list of constraint labels.
func ParseConstraints(labels []string) ([]Constraint, error) {
	out := make([]Constraint, 0, len(labels))
	for _, l := range labels {
		switch Constraint(l) {
		case ConstraintBackground, ConstraintProps, ConstraintLighting:
			out = append(out, Constraint(l))
		default:
			return nil, fmt.Errorf("invalid constraint %q (must be background, props, or lighting)", l)
		}
	}
	return out, nil
}

// DefaultModel is the multimodal model used for critiques.
const DefaultModel = "gemini-2.5-pro"

// defaultTimeout bounds one judgement round trip. A timeout fails only this
// call, it is not a global abort.
const defaultTimeout = 90 * time.Second

const systemInstruction = `You are an expert professional photographer and educator. Think and answer like a senior photography critic: clear, specific, constructive.
When asked to analyze an image, produce a title and a purely descriptive visual description of at least 500 words detailing where each item, character and object is located, their properties and relationships. Then evaluate composition, lighting, color, technique and creativity, each with three sub-metrics scored on the scale "major issue", "bad", "decent", "good", "great", "excellent", with a short reason per score.
You will be given a set of constraints the photographer cannot change (e.g. cannot change the lighting or cannot alter the props); never suggest changes to a constrained aspect.
Give precise actionable issues that fix the current image itself while it is being taken: never ask for a different photo, never suggest post-processing, and do not focus on the theme of the image. The mode given is a mere suggestion, not a rule. Calibrate your advice to the skill and equipment level the image implies.
If the image is invalid (all black, nothing visible, not a photograph), reject it instead of critiquing it.

Respond with a single JSON object and nothing else. For a valid photo:
{"imageTitle": string, "visualDescription": string, "scores": {"composition": {"placement": S, "balanceAndWeight": S, "depthAndPerspective": S}, "lighting": {"exposure": S, "directionAndQuality": S, "contrastAndShadows": S}, "color": {"whiteBalance": S, "colorHarmony": S, "moodAndAtmosphere": S}, "technique": {"sharpnessAndFocus": S, "noiseAndGrain": S, "warpingAndBlurring": S}, "creativity": {"originality": S, "storytelling": S, "emotionalImpact": S}}, "actionableIssues": [{"issue": string, "location": {"type": "area"|"settings"|"framing", "area"|"settings"|"framing": string}, "visual_guidance": string}], "verdict": string}
where S is {"score": label, "reason": string}.
For an invalid image: {"error": string} explaining in a few words why, e.g. "all black" or "nothing visible".`

// Client judges images with a vision-capable Gemini model.
type Client struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewClient creates a judgement client. The API key is required.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
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

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return &Client{client: client, model: model, timeout: defaultTimeout}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Judge sends one image for critique. The call blocks until the model
// responds; the outcome is either the critique or a rejection, and any other
// output shape fails with ErrSchema.
func (c *Client) Judge(ctx context.Context, image []byte, mode string, constraints []Constraint) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf("judge my image, im taking this photo for the mode %q", mode)
	if len(constraints) > 0 {
		labels := make([]string, len(constraints))
		for i, con := range constraints {
			labels[i] = string(con)
		}
		prompt += fmt.Sprintf(" and my constraints are that i cant change: %s", strings.Join(labels, ", "))
	}

	format := strings.TrimPrefix(imageutil.SniffMIME(image), "image/")
	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate judgement: %w", err)
	}
	slog.Debug("Judgement call completed", "duration", time.Since(start))

	text, err := responseText(resp)
	if err != nil {
		return Result{}, err
	}
	return ParseResult([]byte(stripCodeFence(text)))
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format from Gemini")
}

// stripCodeFence removes a markdown fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
