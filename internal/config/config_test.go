package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestParseByteSize_K8sAndCommonUnits(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"1024", 1024},
		{"1Ki", 1024},
		{"1KiB", 1024},
		{"2Mi", 2 * 1024 * 1024},
		{"2MiB", 2 * 1024 * 1024},
		{"3Gi", 3 * 1024 * 1024 * 1024},
		{"3GiB", 3 * 1024 * 1024 * 1024},
		{"10KB", 10 * 1000},
		{"10MB", 10 * 1000 * 1000},
		{"2GB", 2 * 1000 * 1000 * 1000},
	}
	for _, c := range cases {
		got, err := ParseByteSize(c.in)
		if err != nil {
			t.Fatalf("ParseByteSize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	// invalid
	if _, err := ParseByteSize("bad"); err == nil {
		t.Fatalf("expected error for invalid unit")
	}
}

func TestLoad_WithEnvAndDefaults_Gemini(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	// Use env expansion for the API key
	t.Setenv("GEMINI_API_KEY", "secret123")

	yaml := `
server:
  address: ":0"
  readTimeout: 1s
  writeTimeout: 2s
  idleTimeout: 3s
  maxUploadSize: 1Mi
  workerCount: 1
  storageDir: "` + escapeBackslashes(dir) + `"
  apiKey: "key123"
  databasePath: ""
  shutdownGrace: 5s
  callbackRetries: 2
  callbackBackoff: 1s

vision:
  provider: "gemini"
  gemini:
    apiKey: "${GEMINI_API_KEY}"

analyzer:
  default: "enhanced"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}

	// Server assertions
	if cfg.Server.Addr != ":0" {
		t.Fatalf("address = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 1*time.Second || cfg.Server.WriteTimeout != 2*time.Second || cfg.Server.IdleTimeout != 3*time.Second {
		t.Fatalf("timeouts not parsed correctly")
	}
	if uint64(cfg.Server.MaxUploadSize) != 1024*1024 {
		t.Fatalf("maxUploadSize not parsed: %d", cfg.Server.MaxUploadSize)
	}
	if cfg.Server.StorageDir != dir {
		t.Fatalf("storageDir = %q", cfg.Server.StorageDir)
	}
	if cfg.Server.APIKey != "key123" {
		t.Fatalf("apiKey mismatch")
	}

	// Vision provider defaults
	if cfg.Vision.Provider != "gemini" {
		t.Fatalf("provider = %q", cfg.Vision.Provider)
	}
	if cfg.Vision.Gemini.APIKey != "secret123" {
		t.Fatalf("env expansion for api key failed")
	}
	if cfg.Vision.Gemini.BaseURL == "" || cfg.Vision.Gemini.Model == "" {
		t.Fatalf("gemini defaults not applied: %+v", cfg.Vision.Gemini)
	}
	if cfg.Vision.Gemini.MaxRetries <= 0 || cfg.Vision.Gemini.RequestsPerMinute <= 0 {
		t.Fatalf("gemini retry/rate defaults not applied: %+v", cfg.Vision.Gemini)
	}

	// Analyzer
	if cfg.Analyzer.Default != "enhanced" {
		t.Fatalf("default analyzer = %q", cfg.Analyzer.Default)
	}
	if uint64(cfg.Analyzer.MaxImageBytes) == 0 {
		t.Fatalf("maxImageBytes default not applied")
	}

	// Validate database path is under storageDir
	matched, _ := regexp.MatchString(`promptlens\.db$`, cfg.Server.DatabasePath)
	if !matched {
		t.Fatalf("databasePath should end with promptlens.db, got %s", cfg.Server.DatabasePath)
	}
}

func TestLoad_MissingProviderKeyFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  storageDir: "` + escapeBackslashes(dir) + `"
vision:
  provider: "gemini"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for missing gemini apiKey")
	}
}

func TestLoad_UnknownAnalyzerFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  storageDir: "` + escapeBackslashes(dir) + `"
vision:
  provider: "mock"
analyzer:
  default: "nope"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for unknown analyzer")
	}
}

func TestLoad_MockProviderDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  storageDir: "` + escapeBackslashes(dir) + `"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}
	if cfg.Vision.Provider != "mock" {
		t.Fatalf("default provider = %q", cfg.Vision.Provider)
	}
	if cfg.Vision.Mock.Response == "" {
		t.Fatalf("mock response default not applied")
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.WorkerCount != 4 {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
}

func escapeBackslashes(p string) string {
	// On Windows, YAML literal may require escaping backslashes
	return strings.ReplaceAll(p, `\`, `\\`)
}
