package vision

import (
	"context"
	"fmt"
	"time"

	"promptlens/internal/config"
)

var _ Client = (*MockClient)(nil)

// MockClient returns a canned description after an optional delay. Used for
// local development and tests without burning API quota.
type MockClient struct {
	delay    time.Duration
	response string
}

// NewMockClient creates a mock vision client from config.
func NewMockClient(cfg config.MockSettings) *MockClient {
	return &MockClient{delay: cfg.Delay, response: cfg.Response}
}

func (c *MockClient) Configured() bool { return true }

func (c *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.ImageData) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s, %d bytes)", c.response, req.MimeType, len(req.ImageData)), nil
}
