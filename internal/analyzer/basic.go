package analyzer

import (
	"context"
	"fmt"
	"strings"

	"promptlens/internal/textclean"
	"promptlens/internal/vision"
)

var _ Analyzer = (*Basic)(nil)

// Basic produces a short prose description of the image.
type Basic struct {
	client vision.Client
}

// NewBasic creates the basic prose analyzer.
func NewBasic(client vision.Client) *Basic {
	return &Basic{client: client}
}

func (a *Basic) Name() string     { return NameBasic }
func (a *Basic) Configured() bool { return a.client.Configured() }

var basicPrefixes = []string{
	"Here's a detailed description of the image:",
	"Here's a detailed description:",
	"This image shows:",
	"This image depicts:",
	"The image shows:",
	"The image depicts:",
	"I can see:",
	"Looking at this image:",
	"In this image:",
}

func (a *Basic) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (Result, error) {
	raw, err := a.client.Generate(ctx, vision.Request{
		Prompt:    basicPrompt,
		ImageData: data,
		MimeType:  mimeType,
		Params: vision.GenerationParams{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision generate: %w", err)
	}

	text := textclean.StripPrefixes(raw, basicPrefixes)
	text = textclean.StripMarkdown(text)
	text = textclean.CollapseWhitespace(text)
	text = strings.TrimSuffix(text, ".")
	if text == "" {
		return Result{}, fmt.Errorf("empty description")
	}
	return Result{Prompt: text, AnalysisType: "basic"}, nil
}
