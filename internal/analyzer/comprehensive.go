package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"promptlens/internal/textclean"
	"promptlens/internal/vision"
)

var _ Analyzer = (*Comprehensive)(nil)

// Comprehensive produces a long structured prose analysis. Unlike the other
// variants it keeps the response's paragraph structure intact.
type Comprehensive struct {
	client vision.Client
	log    *slog.Logger
}

// NewComprehensive creates the structured long-form analyzer.
func NewComprehensive(client vision.Client, log *slog.Logger) *Comprehensive {
	return &Comprehensive{client: client, log: log}
}

func (a *Comprehensive) Name() string     { return NameComprehensive }
func (a *Comprehensive) Configured() bool { return a.client.Configured() }

var comprehensivePrefixes = []string{
	"Here's a comprehensive analysis of the image:",
	"Here's a detailed analysis:",
	"Analysis of the image:",
	"Comprehensive analysis:",
	"**Analysis:**",
	"Looking at this image,",
}

func (a *Comprehensive) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (Result, error) {
	raw, err := a.client.Generate(ctx, vision.Request{
		Prompt:    comprehensivePrompt,
		ImageData: data,
		MimeType:  mimeType,
		Params: vision.GenerationParams{
			Temperature:     0.2,
			TopK:            20,
			TopP:            0.8,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision generate: %w", err)
	}

	text := textclean.StripPrefixes(raw, comprehensivePrefixes)
	text = strings.TrimSpace(textclean.StripMarkdown(text))
	if text == "" {
		return Result{}, fmt.Errorf("empty analysis")
	}
	if len(text) < 200 && a.log != nil {
		a.log.Warn("comprehensive analysis seems too brief", "chars", len(text))
	}
	return Result{Prompt: text, AnalysisType: "comprehensive"}, nil
}
