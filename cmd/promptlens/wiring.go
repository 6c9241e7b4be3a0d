package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"promptlens/internal/analyzer"
	"promptlens/internal/config"
	"promptlens/internal/vision"
)

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func newVisionClient(ctx context.Context, cfg *config.Config) (vision.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Vision.Provider)) {
	case "gemini":
		return vision.NewGeminiClient(cfg.Vision.Gemini), nil
	case "genai":
		return vision.NewGenAIClient(ctx, cfg.Vision.GenAI)
	case "openai":
		return vision.NewOpenAIClient(cfg.Vision.OpenAI), nil
	case "mock":
		return vision.NewMockClient(cfg.Vision.Mock), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider %q", cfg.Vision.Provider)
	}
}

func newAnalyzerRegistry(client vision.Client, logger *slog.Logger) *analyzer.Registry {
	reg := analyzer.NewRegistry()
	reg.Add(analyzer.NewBasic(client))
	reg.Add(analyzer.NewTags(client))
	reg.Add(analyzer.NewComprehensive(client, logger))
	reg.Add(analyzer.NewEnhanced(client))
	return reg
}
