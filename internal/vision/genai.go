package vision

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"promptlens/internal/config"
)

var _ Client = (*GenAIClient)(nil)

// GenAIClient describes images through the official Google GenAI SDK instead
// of the raw REST endpoint. Useful where the SDK's auth plumbing (ADC,
// Vertex) is wanted.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a GenAI SDK backed client.
func NewGenAIClient(ctx context.Context, cfg config.GenAISettings) (*GenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GenAIClient{client: client, model: model}, nil
}

func (c *GenAIClient) Configured() bool {
	return c.client != nil
}

func (c *GenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.ImageData) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromBytes(req.ImageData, req.MimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if req.Params.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Params.Temperature)
	}
	if req.Params.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(req.Params.TopK))
	}
	if req.Params.TopP > 0 {
		cfg.TopP = genai.Ptr(req.Params.TopP)
	}
	if req.Params.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Params.MaxOutputTokens) // #nosec G115 - token budgets are small
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}
