package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"promptlens/internal/config"
	"promptlens/internal/metrics"
)

func geminiSettings(baseURL string) config.GeminiSettings {
	return config.GeminiSettings{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		Model:             "gemini-1.5-flash",
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		RequestsPerMinute: 6000, // effectively unthrottled in tests
	}
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGeminiClient_Generate(t *testing.T) {
	var gotPath string
	var gotReq generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody("  a red fox in tall grass  ")))
	}))
	defer srv.Close()

	c := NewGeminiClient(geminiSettings(srv.URL))
	got, err := c.Generate(context.Background(), Request{
		Prompt:    "describe this",
		ImageData: []byte("fakeimage"),
		MimeType:  "image/png",
		Params:    GenerationParams{Temperature: 0.1, TopK: 8, TopP: 0.4, MaxOutputTokens: 700},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "a red fox in tall grass" {
		t.Fatalf("Generate = %q", got)
	}
	if !strings.Contains(gotPath, "models/gemini-1.5-flash:generateContent") {
		t.Fatalf("unexpected path %q", gotPath)
	}

	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	if gotReq.Contents[0].Parts[0].Text != "describe this" {
		t.Fatalf("prompt part = %q", gotReq.Contents[0].Parts[0].Text)
	}
	img := gotReq.Contents[0].Parts[1].InlineData
	if img == nil || img.MimeType != "image/png" {
		t.Fatalf("inline data part = %+v", img)
	}
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil || string(raw) != "fakeimage" {
		t.Fatalf("inline data not base64 of image: %v %q", err, raw)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.MaxOutputTokens != 700 {
		t.Fatalf("generation config = %+v", gotReq.GenerationConfig)
	}
}

func TestGeminiClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(candidateBody("ok")))
	}))
	defer srv.Close()

	retriesBefore := testutil.ToFloat64(metrics.VisionRetries.WithLabelValues("gemini"))

	c := NewGeminiClient(geminiSettings(srv.URL))
	got, err := c.Generate(context.Background(), Request{Prompt: "p", ImageData: []byte("x"), MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Generate after retry: %v", err)
	}
	if got != "ok" {
		t.Fatalf("Generate = %q", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	retries := testutil.ToFloat64(metrics.VisionRetries.WithLabelValues("gemini")) - retriesBefore
	if retries != 1 {
		t.Fatalf("retry counter delta = %v, want 1", retries)
	}
}

func TestGeminiClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewGeminiClient(geminiSettings(srv.URL))
	_, err := c.Generate(context.Background(), Request{Prompt: "p", ImageData: []byte("x"), MimeType: "image/png"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestGeminiClient_EmptyCandidatesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(geminiSettings(srv.URL))
	_, err := c.Generate(context.Background(), Request{Prompt: "p", ImageData: []byte("x"), MimeType: "image/png"})
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Fatalf("err = %v", err)
	}
}

func TestGeminiClient_RequiresConfiguration(t *testing.T) {
	c := NewGeminiClient(config.GeminiSettings{BaseURL: "http://localhost", Model: "m"})
	if c.Configured() {
		t.Fatalf("Configured should be false without api key")
	}
	_, err := c.Generate(context.Background(), Request{Prompt: "p", ImageData: []byte("x")})
	if err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestGeminiClient_EmptyImageIsError(t *testing.T) {
	c := NewGeminiClient(geminiSettings("http://localhost:0"))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error for empty image")
	}
}
