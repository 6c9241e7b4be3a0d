package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Some image hosts reject requests without a browser-looking User-Agent.
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const defaultFetchTimeout = 30 * time.Second

// mimeByExtension maps file extensions to the mime type reported to the
// vision API. Unknown extensions fall back to image/jpeg, which the API
// tolerates for most raster content.
var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// MimeByExtension returns the mime type for an image path based on its
// extension, defaulting to image/jpeg.
func MimeByExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	return "image/jpeg"
}

// IsImageExtension reports whether the path carries a known image extension.
func IsImageExtension(path string) bool {
	_, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Fetcher downloads image bytes from URLs.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewFetcher creates a Fetcher that caps downloads at maxBytes.
func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		maxBytes:   maxBytes,
	}
}

// FetchURL downloads the image at rawURL and returns its bytes plus the mime
// type from the Content-Type header, the URL extension or content sniffing,
// in that order.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	// Read one byte past the cap so oversize bodies can be detected.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}

	mimeType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		if IsImageExtension(u.Path) {
			mimeType = MimeByExtension(u.Path)
		} else {
			mimeType = http.DetectContentType(data)
		}
	}
	return data, mimeType, nil
}

// ReadFile loads image bytes from disk together with an extension-derived
// mime type.
func ReadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("read image file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image file is empty")
	}
	return data, MimeByExtension(path), nil
}
