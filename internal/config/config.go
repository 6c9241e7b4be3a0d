package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration loaded from YAML.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Vision   VisionConfig   `yaml:"vision"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// ServerConfig holds HTTP server and runtime settings.
type ServerConfig struct {
	Addr            string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxUploadSize   ByteSize      `yaml:"maxUploadSize"`
	WorkerCount     int           `yaml:"workerCount"`
	StorageDir      string        `yaml:"storageDir"`
	APIKey          string        `yaml:"apiKey"`          // optional static API key header (X-API-Key)
	DatabasePath    string        `yaml:"databasePath"`    // optional, overrides default storage_dir/promptlens.db
	ShutdownGrace   time.Duration `yaml:"shutdownGrace"`   // time to wait for workers before forced stop
	CallbackRetries int           `yaml:"callbackRetries"` // number of callback attempts
	CallbackBackoff time.Duration `yaml:"callbackBackoff"` // base backoff duration
	LogLevel        string        `yaml:"logLevel"`        // debug|info|warn|error
}

// VisionConfig selects a vision API provider and provider-specific options.
type VisionConfig struct {
	Provider string         `yaml:"provider"` // "gemini", "genai", "openai" or "mock"
	Gemini   GeminiSettings `yaml:"gemini"`
	GenAI    GenAISettings  `yaml:"genai"`
	OpenAI   OpenAISettings `yaml:"openai"`
	Mock     MockSettings   `yaml:"mock"`
}

// GeminiSettings config for the direct Gemini REST API backend.
type GeminiSettings struct {
	BaseURL           string        `yaml:"baseUrl"`           // default https://generativelanguage.googleapis.com
	APIKey            string        `yaml:"apiKey"`            // required (supports env expansion)
	Model             string        `yaml:"model"`             // e.g. gemini-1.5-flash
	Timeout           time.Duration `yaml:"timeout"`           // per-request timeout
	MaxRetries        int           `yaml:"maxRetries"`        // retry attempts on transient failures
	RequestsPerMinute int           `yaml:"requestsPerMinute"` // best-effort client-side rate limit
}

// GenAISettings config for the official Google GenAI SDK backend.
type GenAISettings struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OpenAISettings config for OpenAI-compatible vision backends.
type OpenAISettings struct {
	BaseURL string `yaml:"baseUrl"` // optional, for proxies / compatible servers
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"` // e.g. gpt-4o
}

// MockSettings config for the mock vision backend.
type MockSettings struct {
	Delay    time.Duration `yaml:"delay"`
	Response string        `yaml:"response"`
}

// AnalyzerConfig controls analyzer variant selection.
type AnalyzerConfig struct {
	Default       string   `yaml:"default"`       // analyzer used when the request names none; empty = priority order
	LockAnalyzer  bool     `yaml:"lockAnalyzer"`  // when true, requests cannot choose an analyzer
	MaxImageBytes ByteSize `yaml:"maxImageBytes"` // cap on downloaded image size
}

// ByteSize represents a size in bytes that unmarshals from strings like "10Mi", "20MB", "512KiB", "1024".
type ByteSize uint64

// UnmarshalYAML implements yaml unmarshalling for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		str := strings.TrimSpace(value.Value)
		parsed, err := ParseByteSize(str)
		if err != nil {
			return err
		}
		*b = ByteSize(parsed)
		return nil
	}
	return fmt.Errorf("invalid bytesize node kind: %v", value.Kind)
}

var reNumeric = regexp.MustCompile(`^\d+$`)

// ParseByteSize parses a string like "10Mi", "20MB", "512KiB", "1024" into bytes.
// Supports Kubernetes-style quantities for binary units: Ki, Mi, Gi (case-insensitive).
// Also accepts KiB/MiB/GiB and decimal KB/MB/GB, and bare bytes.
func ParseByteSize(s string) (uint64, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}
	// Numeric only
	if reNumeric.MatchString(s) {
		val, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size number: %w", err)
		}
		return val, nil
	}

	// Normalize to upper for suffix matching but keep numeric part as-is
	up := strings.ToUpper(s)

	type unit struct {
		suffix string
		value  uint64
	}
	units := []unit{
		// Kubernetes binary-style without 'B'
		{"KI", 1024},
		{"MI", 1024 * 1024},
		{"GI", 1024 * 1024 * 1024},
		// Binary with B
		{"KIB", 1024},
		{"MIB", 1024 * 1024},
		{"GIB", 1024 * 1024 * 1024},
		// Decimal
		{"KB", 1000},
		{"MB", 1000 * 1000},
		{"GB", 1000 * 1000 * 1000},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(up, u.suffix) {
			num := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			val, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid size number in %q: %w", orig, err)
			}
			return uint64(val * float64(u.value)), nil
		}
	}
	return 0, fmt.Errorf("unknown size suffix in %q", orig)
}

// Load reads YAML config from path, expands environment variables, and validates it.
// If path is empty, it will attempt to read from env var PROMPTLENS_CONFIG, then default to "config.yaml".
func Load(path string) (*Config, error) {
	if path == "" {
		if env := os.Getenv("PROMPTLENS_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - reading sanitized config file path is expected
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// Expand environment variables in file content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	// Ensure storage dir exists
	if cfg.Server.StorageDir != "" {
		if err := os.MkdirAll(cfg.Server.StorageDir, 0o750); err != nil {
			return nil, fmt.Errorf("ensure storage_dir: %w", err)
		}
	}
	// Default DB path under storage dir if not set.
	if cfg.Server.DatabasePath == "" {
		cfg.Server.DatabasePath = filepath.Join(cfg.Server.StorageDir, "promptlens.db")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadSize == 0 {
		cfg.Server.MaxUploadSize = ByteSize(32 * 1024 * 1024) // 32 MiB default
	}
	if cfg.Server.WorkerCount <= 0 {
		cfg.Server.WorkerCount = 4
	}
	if cfg.Server.StorageDir == "" {
		cfg.Server.StorageDir = "data"
	}
	if cfg.Server.ShutdownGrace == 0 {
		cfg.Server.ShutdownGrace = 15 * time.Second
	}
	if cfg.Server.CallbackRetries == 0 {
		cfg.Server.CallbackRetries = 3
	}
	if cfg.Server.CallbackBackoff == 0 {
		cfg.Server.CallbackBackoff = 2 * time.Second
	}
	// Default log level
	if strings.TrimSpace(cfg.Server.LogLevel) == "" {
		cfg.Server.LogLevel = "info"
	}

	// Vision defaults
	if cfg.Vision.Provider == "" {
		cfg.Vision.Provider = "mock"
	}
	if cfg.Vision.Mock.Delay == 0 {
		cfg.Vision.Mock.Delay = 2 * time.Second
	}
	if cfg.Vision.Mock.Response == "" {
		cfg.Vision.Mock.Response = "a placeholder description produced by the mock vision backend"
	}
	if strings.EqualFold(cfg.Vision.Provider, "gemini") {
		if strings.TrimSpace(cfg.Vision.Gemini.BaseURL) == "" {
			cfg.Vision.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
		}
		if strings.TrimSpace(cfg.Vision.Gemini.Model) == "" {
			cfg.Vision.Gemini.Model = "gemini-1.5-flash"
		}
		if cfg.Vision.Gemini.Timeout == 0 {
			cfg.Vision.Gemini.Timeout = 90 * time.Second
		}
		if cfg.Vision.Gemini.MaxRetries <= 0 {
			cfg.Vision.Gemini.MaxRetries = 3
		}
		if cfg.Vision.Gemini.RequestsPerMinute <= 0 {
			cfg.Vision.Gemini.RequestsPerMinute = 60
		}
	}
	if strings.EqualFold(cfg.Vision.Provider, "genai") {
		if strings.TrimSpace(cfg.Vision.GenAI.Model) == "" {
			cfg.Vision.GenAI.Model = "gemini-1.5-flash"
		}
	}
	if strings.EqualFold(cfg.Vision.Provider, "openai") {
		if strings.TrimSpace(cfg.Vision.OpenAI.Model) == "" {
			cfg.Vision.OpenAI.Model = "gpt-4o"
		}
	}

	// Analyzer defaults
	if cfg.Analyzer.MaxImageBytes == 0 {
		cfg.Analyzer.MaxImageBytes = ByteSize(32 * 1024 * 1024)
	}
}

func validate(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Vision.Provider)) {
	case "mock":
		// nothing required
	case "gemini":
		if strings.TrimSpace(cfg.Vision.Gemini.APIKey) == "" {
			return fmt.Errorf("gemini.apiKey is required")
		}
	case "genai":
		if strings.TrimSpace(cfg.Vision.GenAI.APIKey) == "" {
			return fmt.Errorf("genai.apiKey is required")
		}
	case "openai":
		if strings.TrimSpace(cfg.Vision.OpenAI.APIKey) == "" {
			return fmt.Errorf("openai.apiKey is required")
		}
	default:
		return fmt.Errorf("unknown vision provider %q", cfg.Vision.Provider)
	}

	if cfg.Analyzer.Default != "" {
		switch cfg.Analyzer.Default {
		case "basic", "tags", "comprehensive", "enhanced":
		default:
			return fmt.Errorf("unknown default analyzer %q", cfg.Analyzer.Default)
		}
	}
	return nil
}
