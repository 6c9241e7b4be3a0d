package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"promptlens/internal/common"
	"promptlens/internal/config"
	"promptlens/internal/imaging"
	"promptlens/internal/jobs"
	"promptlens/internal/processor"
	"promptlens/internal/server"
	"promptlens/internal/storage"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Server.LogLevel)

	rootCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Store (SQLite)
	store, err := jobs.NewSQLiteStore(cfg.Server.DatabasePath)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Uploader and remote image fetcher
	uploader := storage.NewUploader(cfg.Server.StorageDir)
	fetcher := imaging.NewFetcher(int64(cfg.Analyzer.MaxImageBytes))

	// Vision client and analyzers
	client, err := newVisionClient(rootCtx, cfg)
	if err != nil {
		return err
	}
	reg := newAnalyzerRegistry(client, logger)

	// Worker and queue
	worker := processor.New(logger, cfg, store, reg, fetcher)
	queue := jobs.NewQueue(logger, common.DefaultQueueCapacity, cfg.Server.WorkerCount)
	if err := queue.Start(rootCtx, worker); err != nil {
		return fmt.Errorf("start queue: %w", err)
	}

	// HTTP server
	svc := &server.Service{
		Log:       logger,
		Cfg:       cfg,
		Store:     store,
		Queue:     queue,
		Uploader:  uploader,
		Analyzers: reg,
		Processor: worker,
	}
	httpSrv := server.NewHTTPServer(svc)

	// Run server in background
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "address", cfg.Server.Addr, "provider", cfg.Vision.Provider)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	// Stop workers
	queue.Shutdown(cfg.Server.ShutdownGrace)
	logger.Info("server stopped")
	return nil
}
