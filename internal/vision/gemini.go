package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"promptlens/internal/common"
	"promptlens/internal/config"
	"promptlens/internal/metrics"
)

var _ Client = (*GeminiClient)(nil)

const (
	headerContentType = "Content-Type"

	geminiGenerateEndpoint = "v1beta/models/%s:generateContent"

	errorSnippetLimit = 400
)

// GeminiClient calls the Gemini generateContent REST API directly.
//
// Calls are throttled by a client-side rate limiter and retried with
// exponential backoff on transient failures (5xx, 429, network errors).
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries uint64
	limiter    *rate.Limiter
}

// NewGeminiClient creates a Gemini REST client from config.
func NewGeminiClient(cfg config.GeminiSettings) *GeminiClient {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: uint64(retries), // #nosec G115 - bounded small positive int
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Configured reports whether an API key is present.
func (c *GeminiClient) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Generate sends one generateContent request and returns the first candidate text.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini api key not configured")
	}
	if len(req.ImageData) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	body, err := json.Marshal(buildGenerateRequest(req))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, fmt.Sprintf(geminiGenerateEndpoint, c.model))
	if err != nil {
		return "", fmt.Errorf("join url: %w", err)
	}
	endpoint += "?key=" + url.QueryEscape(c.apiKey)

	var text string
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		t, err := c.doGenerate(ctx, endpoint, body)
		if err != nil {
			return err
		}
		text = t
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return text, nil
}

func (c *GeminiClient) doGenerate(ctx context.Context, endpoint string, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("new request: %w", err))
	}
	httpReq.Header.Set(headerContentType, common.ContentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		metrics.VisionRetries.WithLabelValues("gemini").Inc()
		return "", fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(respBytes), errorSnippetLimit))
		// Client errors other than 429 will not get better on retry.
		if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError &&
			resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		metrics.VisionRetries.WithLabelValues("gemini").Inc()
		return "", err
	}

	var result generateContentResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parse response: %w", err))
	}
	text := result.firstText()
	if text == "" {
		return "", backoff.Permanent(fmt.Errorf("no candidates in response"))
	}
	return text, nil
}

func buildGenerateRequest(req Request) generateContentRequest {
	return generateContentRequest{
		Contents: []content{
			{
				Parts: []part{
					{Text: req.Prompt},
					{InlineData: &inlineData{
						MimeType: req.MimeType,
						Data:     base64.StdEncoding.EncodeToString(req.ImageData),
					}},
				},
			},
		},
		GenerationConfig: &generationConfig{
			Temperature:     req.Params.Temperature,
			TopK:            req.Params.TopK,
			TopP:            req.Params.TopP,
			MaxOutputTokens: req.Params.MaxOutputTokens,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Gemini generateContent request/response types

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float32 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

func (r *generateContentResponse) firstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0].Text)
}
