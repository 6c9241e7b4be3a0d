package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"promptlens/internal/analyzer"
	"promptlens/internal/common"
	"promptlens/internal/config"
	"promptlens/internal/imaging"
	"promptlens/internal/jobs"
	"promptlens/internal/metrics"
)

// Worker implements jobs.Processor to handle image acquisition and analysis.
type Worker struct {
	Log       *slog.Logger
	Cfg       *config.Config
	Store     jobs.Store
	Analyzers *analyzer.Registry
	Fetcher   *imaging.Fetcher
}

// Ensure Worker implements jobs.Processor
var _ jobs.Processor = (*Worker)(nil)

func New(log *slog.Logger, cfg *config.Config, store jobs.Store, reg *analyzer.Registry, fetcher *imaging.Fetcher) *Worker {
	return &Worker{
		Log:       log,
		Cfg:       cfg,
		Store:     store,
		Analyzers: reg,
		Fetcher:   fetcher,
	}
}

func (w *Worker) Process(ctx context.Context, item jobs.WorkItem) error {
	a := item.Analysis
	now := time.Now().UTC()
	start := time.Now()
	if err := w.Store.UpdateStage(a.ID, jobs.StageAnalyzing, &now); err != nil {
		return fmt.Errorf("update stage to analyzing: %w", err)
	}

	data, mimeType, err := w.acquireImage(ctx, a)
	if err != nil {
		w.finishWithError(a, fmt.Errorf("acquire image: %w", err), start)
		return err
	}

	az, ok := w.Analyzers.Get(a.AnalyzerName)
	if !ok {
		err := fmt.Errorf("analyzer %q not registered", a.AnalyzerName)
		w.finishWithError(a, err, start)
		return err
	}

	res, err := az.AnalyzeImage(ctx, data, mimeType)
	if err != nil {
		w.finishWithError(a, fmt.Errorf("analyze image: %w", err), start)
		return err
	}

	done := time.Now().UTC()
	if err := w.Store.SaveResult(a.ID, jobs.Result{Prompt: res.Prompt, AnalysisType: res.AnalysisType}, done); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	metrics.AnalysesTotal.WithLabelValues(a.AnalyzerName, common.StatusCompleted).Inc()
	metrics.AnalysisDuration.WithLabelValues(a.AnalyzerName).Observe(time.Since(start).Seconds())
	metrics.PromptLength.Observe(float64(len(res.Prompt)))

	if a.CallbackURL != nil && *a.CallbackURL != "" {
		cbErr := w.sendCallbackWithRetry(ctx, *a.CallbackURL, callbackPayload{
			AnalysisID: a.ID,
			Status:     common.StatusCompleted,
			Stage:      string(jobs.StageCompleted),
			Result: &callbackResult{
				Prompt:       res.Prompt,
				AnalysisType: res.AnalysisType,
			},
		})
		if cbErr != nil {
			w.Log.Warn("callback failed after retries", "analysis_id", a.ID, "err", cbErr)
		}
	}

	return nil
}

// acquireImage loads the image bytes for the job, either from the staged
// upload on disk or by fetching the submitted URL.
func (w *Worker) acquireImage(ctx context.Context, a jobs.Analysis) ([]byte, string, error) {
	if a.ImagePath != nil && *a.ImagePath != "" {
		data, mimeType, err := imaging.ReadFile(*a.ImagePath)
		if err != nil {
			return nil, "", err
		}
		if a.MimeType != "" {
			mimeType = a.MimeType
		}
		return data, mimeType, nil
	}
	if a.SourceURL != nil && *a.SourceURL != "" {
		return w.Fetcher.FetchURL(ctx, *a.SourceURL)
	}
	return nil, "", fmt.Errorf("analysis has neither image path nor source url")
}

func (w *Worker) finishWithError(a jobs.Analysis, err error, start time.Time) {
	done := time.Now().UTC()
	_ = w.Store.SaveError(a.ID, err.Error(), done)
	metrics.AnalysesTotal.WithLabelValues(a.AnalyzerName, common.StatusFailed).Inc()
	metrics.AnalysisDuration.WithLabelValues(a.AnalyzerName).Observe(time.Since(start).Seconds())

	if a.CallbackURL != nil && *a.CallbackURL != "" {
		msg := err.Error()
		cbErr := w.sendCallbackWithRetry(context.Background(), *a.CallbackURL, callbackPayload{
			AnalysisID: a.ID,
			Status:     common.StatusFailed,
			Stage:      string(jobs.StageFailed),
			Error:      &msg,
		})
		if cbErr != nil {
			w.Log.Warn("failure callback not delivered", "analysis_id", a.ID, "err", cbErr)
		}
	}
}

type callbackPayload struct {
	AnalysisID string          `json:"analysis_id"`
	Status     string          `json:"status"` // completed|failed
	Stage      string          `json:"stage"`
	Error      *string         `json:"error,omitempty"`
	Result     *callbackResult `json:"result,omitempty"`
}

type callbackResult struct {
	Prompt       string `json:"prompt"`
	AnalysisType string `json:"analysis_type"`
}

func (w *Worker) sendCallbackWithRetry(ctx context.Context, url string, payload callbackPayload) error {
	retries := w.Cfg.Server.CallbackRetries
	if retries <= 0 {
		retries = 3
	}
	interval := w.Cfg.Server.CallbackBackoff
	if interval <= 0 {
		interval = 2 * time.Second
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(retries-1)), ctx)
	err := backoff.Retry(func() error {
		return w.postJSON(ctx, url, payload)
	}, policy)
	if err != nil {
		metrics.CallbackDeliveries.WithLabelValues("failed").Inc()
		return err
	}
	metrics.CallbackDeliveries.WithLabelValues("delivered").Inc()
	return nil
}

func (w *Worker) postJSON(ctx context.Context, url string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", common.ContentTypeJSON)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback status %d", resp.StatusCode)
	}
	return nil
}
