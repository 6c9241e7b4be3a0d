package analyzer

import (
	"context"
	"fmt"

	"promptlens/internal/textclean"
	"promptlens/internal/vision"
)

var _ Analyzer = (*Enhanced)(nil)

const (
	// enhancedMaxLength targets the 600-800 character sweet spot the prompt
	// asks for; anything longer is truncated by descriptive priority.
	enhancedMaxLength = 800
	// enhancedMinLength guards against degenerate answers.
	enhancedMinLength = 50
)

// Enhanced produces a dense comma-separated description driven by the
// sixteen-criteria prompt. It applies the most aggressive cleaning pipeline
// of all variants.
type Enhanced struct {
	client vision.Client
}

// NewEnhanced creates the sixteen-criteria analyzer.
func NewEnhanced(client vision.Client) *Enhanced {
	return &Enhanced{client: client}
}

func (a *Enhanced) Name() string     { return NameEnhanced }
func (a *Enhanced) Configured() bool { return a.client.Configured() }

var enhancedPrefixes = []string{
	"Here's a comprehensive analysis of the image:",
	"Here's the comma-separated description:",
	"The comma-separated description is:",
	"Based on the comprehensive visual criteria:",
	"Analysis of the image:",
	"Description:",
	"Here's the analysis:",
	"The image shows:",
	"Looking at this image:",
}

// enhancedSectionHeaders mirror the criteria in the prompt; models sometimes
// echo them back as labels.
var enhancedSectionHeaders = []string{
	"COLOR ANALYSIS",
	"OBJECT IDENTIFICATION",
	"TEXTURE & MATERIALS",
	"EMOTIONAL TONE",
	"COMPOSITION",
	"LIGHTING",
	"CONTEXT",
	"ACTION",
	"STYLE",
	"NARRATIVE",
	"SYMBOLIC",
	"SPATIAL",
	"FOCAL",
	"LINE",
	"TYPOGRAPHY",
	"SENSORY",
}

var enhancedFillerPhrases = []string{
	"can be seen", "appears to be", "seems to be", "looks like",
	"it appears", "we can see", "visible in the image", "in this image",
	"the image shows", "what we see", "as observed", "clearly visible",
	"that can be observed", "which is visible", "that appears",
	"which seems", "as seen in", "evident in",
}

// enhancedPriorityKeywords rank descriptive phrases for truncation: subject
// and composition first, then style, key visual elements and atmosphere.
var enhancedPriorityKeywords = []string{
	"woman", "man", "person", "character", "figure", "subject",
	"center", "foreground", "background", "positioned", "seated", "standing",

	"anime", "digital", "illustration", "painting", "photograph", "realistic",
	"stylized", "artistic", "portrait", "landscape",

	"hair", "eyes", "face", "expression", "clothing", "outfit",
	"colors", "lighting", "shadows", "composition", "perspective",

	"mood", "atmosphere", "emotion", "warm", "cool", "soft", "bright",
	"dramatic", "peaceful", "energetic",
}

func (a *Enhanced) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (Result, error) {
	raw, err := a.client.Generate(ctx, vision.Request{
		Prompt:    enhancedPrompt,
		ImageData: data,
		MimeType:  mimeType,
		Params: vision.GenerationParams{
			Temperature:     0.1,
			TopK:            8,
			TopP:            0.4,
			MaxOutputTokens: 700,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision generate: %w", err)
	}

	text := cleanEnhanced(raw)
	if len(text) < enhancedMinLength {
		return Result{}, fmt.Errorf("analysis generated insufficient descriptive content")
	}
	return Result{Prompt: text, AnalysisType: "enhanced_comprehensive"}, nil
}

func cleanEnhanced(raw string) string {
	text := textclean.StripPrefixes(raw, enhancedPrefixes)
	text = textclean.StripMarkdown(text)
	text = textclean.StripListMarkers(text)
	text = textclean.StripSectionHeaders(text, enhancedSectionHeaders)
	text = textclean.NewlinesToCommas(text)
	text = textclean.RemoveFillerPhrases(text, enhancedFillerPhrases)
	text = textclean.NormalizeCommas(text)
	text = textclean.SmartTruncate(text, enhancedMaxLength, enhancedPriorityKeywords)
	return textclean.TrimTrailingPunct(text)
}
