package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"promptlens/internal/config"
	"promptlens/internal/imaging"
)

func newAnalyzeCommand(configPath *string) *cobra.Command {
	var analyzerName string

	cmd := &cobra.Command{
		Use:   "analyze <url|path>",
		Short: "Describe a single image and print the prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], *configPath, analyzerName)
		},
	}
	cmd.Flags().StringVarP(&analyzerName, "analyzer", "a", "", "Analyzer variant (basic, tags, comprehensive, enhanced)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, source, configPath, analyzerName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger("error")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newVisionClient(ctx, cfg)
	if err != nil {
		return err
	}
	reg := newAnalyzerRegistry(client, logger)

	if analyzerName == "" {
		analyzerName = cfg.Analyzer.Default
	}
	az, err := reg.Pick(analyzerName)
	if err != nil {
		return err
	}

	data, mimeType, err := loadImage(ctx, cfg, source)
	if err != nil {
		return err
	}

	res, err := az.AnalyzeImage(ctx, data, mimeType)
	if err != nil {
		return fmt.Errorf("analyze image: %w", err)
	}

	cmd.Println(res.Prompt)
	return nil
}

func loadImage(ctx context.Context, cfg *config.Config, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		fetcher := imaging.NewFetcher(int64(cfg.Analyzer.MaxImageBytes))
		return fetcher.FetchURL(ctx, source)
	}
	return imaging.ReadFile(source)
}
