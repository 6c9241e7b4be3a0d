package analyzer

import (
	"context"
	"fmt"
	"strings"

	"promptlens/internal/textclean"
	"promptlens/internal/vision"
)

var _ Analyzer = (*Tags)(nil)

// Tag lists are capped hard so downstream consumers (image generators with
// prompt limits) never see overlong input. Items are only cut at comma
// boundaries; the budget leaves room for the final separator.
const (
	tagsMaxLength  = 680
	tagsItemBudget = 675
)

// Tags produces a booru-style comma-separated tag list.
type Tags struct {
	client vision.Client
}

// NewTags creates the tag-list analyzer.
func NewTags(client vision.Client) *Tags {
	return &Tags{client: client}
}

func (a *Tags) Name() string     { return NameTags }
func (a *Tags) Configured() bool { return a.client.Configured() }

var tagsPrefixes = []string{
	"Analyze this image and create a detailed anime/manga booru-style tag list.",
	"Include ALL visible elements in comma-separated format:",
	"MANDATORY TAGS (in order):",
	"Generate at least 20-30 detailed tags covering everything visible.",
	"Here's an anime/manga booru-style tag list:",
	"Here's a detailed tag list:",
	"Tags:",
	"Be extremely specific.",
}

func (a *Tags) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (Result, error) {
	raw, err := a.client.Generate(ctx, vision.Request{
		Prompt:    tagsPrompt,
		ImageData: data,
		MimeType:  mimeType,
		Params: vision.GenerationParams{
			Temperature:     0.1,
			TopK:            10,
			TopP:            0.5,
			MaxOutputTokens: 300,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision generate: %w", err)
	}

	text := textclean.StripPrefixes(raw, tagsPrefixes)
	text = textclean.StripMarkdown(text)
	text = textclean.StripListMarkers(text)
	text = textclean.NewlinesToCommas(text)
	text = textclean.UnderscoreTags(text)
	text = textclean.NormalizeCommas(text)
	text = textclean.TrimTrailingPunct(text)
	text = textclean.TruncateAtCommas(text, tagsMaxLength, tagsItemBudget)
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("empty tag list")
	}
	return Result{Prompt: text, AnalysisType: "tags"}, nil
}
