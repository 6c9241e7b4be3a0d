package vision

import (
	"context"
)

// GenerationParams tune the sampling behavior of the vision model. Each
// analyzer variant ships its own hand-tuned set.
type GenerationParams struct {
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

// Request carries one prompt plus one inline image to the vision API.
type Request struct {
	Prompt    string
	ImageData []byte
	MimeType  string
	Params    GenerationParams
}

// Client defines the capability to describe an image with an instructional prompt.
type Client interface {
	// Generate sends the prompt and image to the vision API and returns the
	// raw model text. Post-processing is the caller's concern.
	Generate(ctx context.Context, req Request) (string, error)
	// Configured reports whether the client has the credentials it needs.
	Configured() bool
}
