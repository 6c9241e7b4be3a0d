package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"promptlens/internal/config"
)

var _ Client = (*OpenAIClient)(nil)

// OpenAIClient sends the image to an OpenAI-compatible chat completions API
// as a data-URL image part. This covers both the hosted API and local proxies
// that speak the same protocol.
type OpenAIClient struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewOpenAIClient creates an OpenAI-compatible vision client.
func NewOpenAIClient(cfg config.OpenAISettings) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.ImageData) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	dataURL := buildDataURL(req.MimeType, req.ImageData)
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxOutputTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildDataURL(mime string, data []byte) string {
	mt := strings.TrimSpace(mime)
	if mt == "" {
		mt = "application/octet-stream"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}
