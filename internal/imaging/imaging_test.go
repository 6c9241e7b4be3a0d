package imaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMimeByExtension(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":   "image/jpeg",
		"a/b/pic.png": "image/png",
		"anim.webp":   "image/webp",
		"vector.svg":  "image/svg+xml",
		"shot.heic":   "image/heic",
		"noext":       "image/jpeg",
		"doc.txt":     "image/jpeg",
	}
	for in, want := range cases {
		if got := MimeByExtension(in); got != want {
			t.Fatalf("MimeByExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetchURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()

	f := NewFetcher(1024)
	data, mime, err := f.FetchURL(context.Background(), srv.URL+"/img")
	if err != nil {
		t.Fatalf("FetchURL: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Fatalf("data = %q", data)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q", mime)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Fatalf("User-Agent = %q", gotUA)
	}
}

func TestFetchURL_MimeFallbackToExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("webpbytes"))
	}))
	defer srv.Close()

	f := NewFetcher(1024)
	_, mime, err := f.FetchURL(context.Background(), srv.URL+"/picture.webp")
	if err != nil {
		t.Fatalf("FetchURL: %v", err)
	}
	if mime != "image/webp" {
		t.Fatalf("mime = %q", mime)
	}
}

func TestFetchURL_RejectsOversize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := NewFetcher(1024)
	_, _, err := f.FetchURL(context.Background(), srv.URL+"/big.png")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v", err)
	}
}

func TestFetchURL_RejectsBadScheme(t *testing.T) {
	f := NewFetcher(1024)
	if _, _, err := f.FetchURL(context.Background(), "ftp://example.com/x.png"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestFetchURL_RejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(1024)
	if _, _, err := f.FetchURL(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	if err := os.WriteFile(path, []byte("pngdata"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, mime, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "pngdata" || mime != "image/png" {
		t.Fatalf("data=%q mime=%q", data, mime)
	}
	if _, _, err := ReadFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
