package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptlens/internal/analyzer"
	"promptlens/internal/common"
	"promptlens/internal/config"
	"promptlens/internal/jobs"
	"promptlens/internal/storage"
)

type Service struct {
	Log       *slog.Logger
	Cfg       *config.Config
	Store     jobs.Store
	Queue     *jobs.Queue
	Uploader  *storage.Uploader
	Analyzers *analyzer.Registry
	Processor jobs.Processor
}

// NewHTTPServer builds the http.Server with routes and middleware.
func NewHTTPServer(svc *Service) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+common.PathHealthz, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc(http.MethodGet+" "+common.PathHealth, svc.handleHealth)
	mux.Handle(http.MethodGet+" "+common.PathMetrics, promhttp.Handler())

	mux.HandleFunc(http.MethodPost+" "+common.PathAnalyses, svc.withCommon(svc.handleCreateAnalysis))
	// Pattern match /v1/analyses/{id}
	mux.HandleFunc(http.MethodGet+" "+common.PathAnalyses+"/", svc.withCommon(svc.handleGetAnalysisByPrefix))

	s := &http.Server{
		Addr:         svc.Cfg.Server.Addr,
		Handler:      loggingMiddleware(recoveryMiddleware(mux), svc.Log),
		ReadTimeout:  svc.Cfg.Server.ReadTimeout,
		WriteTimeout: svc.Cfg.Server.WriteTimeout,
		IdleTimeout:  svc.Cfg.Server.IdleTimeout,
	}
	return s
}

func (svc *Service) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Enforce API key if configured
		if key := strings.TrimSpace(svc.Cfg.Server.APIKey); key != "" {
			if r.Header.Get(common.HeaderAPIKey) != key {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		// Enforce max body size
		max := safeInt64(svc.Cfg.Server.MaxUploadSize)
		if max > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, max)
		}
		next.ServeHTTP(w, r)
	}
}

// handleHealth reports service identity plus whether any analyzer can serve
// requests. Returns 503 when the vision backend is unconfigured so load
// balancers can take the instance out of rotation.
func (svc *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if _, err := svc.Analyzers.Pick(""); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":           status,
		"service":          common.ServiceName,
		"version":          common.ServiceVersion,
		"analyzers":        svc.Analyzers.Names(),
		"default_analyzer": svc.Cfg.Analyzer.Default,
	})
}

// createRequest is the JSON submission body. Multipart submissions carry the
// same fields as form values plus an image_file part.
type createRequest struct {
	ImageURL    string `json:"image_url"`
	Analyzer    string `json:"analyzer"`
	CallbackURL string `json:"callback_url"`
}

type createAsyncResponse struct {
	Success    bool   `json:"success"`
	AnalysisID string `json:"analysis_id"`
	StatusURL  string `json:"status_url"`
}

type createSyncResponse struct {
	Success      bool   `json:"success"`
	AnalysisID   string `json:"analysis_id"`
	Prompt       string `json:"prompt"`
	AnalysisType string `json:"analysis_type"`
}

func (svc *Service) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var (
		req        createRequest
		fileHeader *multipart.FileHeader
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(safeInt64(svc.Cfg.Server.MaxUploadSize)); err != nil {
			writeError(w, bodyErrorStatus(err), "invalid form: "+err.Error())
			return
		}
		req.ImageURL = r.FormValue("image_url")
		req.Analyzer = r.FormValue("analyzer")
		req.CallbackURL = r.FormValue("callback_url")
		if fhs := r.MultipartForm.File["image_file"]; len(fhs) > 0 {
			fileHeader = fhs[0]
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, bodyErrorStatus(err), "invalid json body: "+err.Error())
			return
		}
	}

	// Exactly one image source is accepted per request.
	hasURL := strings.TrimSpace(req.ImageURL) != ""
	hasFile := fileHeader != nil
	if hasURL == hasFile {
		writeError(w, http.StatusBadRequest, "provide exactly one of image_url or image_file")
		return
	}

	callbackURLPtr, err := parseOptionalURL(req.CallbackURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid callback_url")
		return
	}

	analyzerName := svc.Cfg.Analyzer.Default
	if !svc.Cfg.Analyzer.LockAnalyzer && strings.TrimSpace(req.Analyzer) != "" {
		analyzerName = strings.TrimSpace(req.Analyzer)
	}
	az, err := svc.Analyzers.Pick(analyzerName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := jobs.Analysis{
		ID:           uuid.NewString(),
		AnalyzerName: az.Name(),
		CallbackURL:  callbackURLPtr,
		Stage:        jobs.StageQueued,
		CreatedAt:    time.Now().UTC(),
	}

	var cleanup func() error
	if hasFile {
		imgPath, cl, mimeType, err := svc.Uploader.SaveMultipartImage(fileHeader, safeInt64(svc.Cfg.Server.MaxUploadSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "upload failed: "+err.Error())
			return
		}
		cleanup = cl
		a.ImagePath = &imgPath
		a.MimeType = mimeType
	} else {
		srcURL, err := parseOptionalURL(req.ImageURL)
		if err != nil || !isHTTPURL(*srcURL) {
			writeError(w, http.StatusBadRequest, "invalid image_url")
			return
		}
		a.SourceURL = srcURL
	}
	// Ensure we cleanup temp file if we fail later in this handler
	defer func() {
		// The worker will also call cleanup after processing, but if we failed before enqueue, cleanup here
		if cleanup != nil {
			_ = cleanup()
		}
	}()

	if err := svc.Store.CreateAnalysis(&a); err != nil {
		if svc.Log != nil {
			svc.Log.Error("persist analysis", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if svc.Log != nil {
		svc.Log.Info("analysis created", "analysis_id", a.ID, "analyzer", a.AnalyzerName)
	}

	// Determine sync vs async based on Prefer header
	prefer := strings.ToLower(strings.TrimSpace(r.Header.Get(common.HeaderPrefer)))
	async := strings.Contains(prefer, common.PreferRespondAsync)

	if async {
		// Enqueue for async processing; transfer cleanup responsibility to worker on success
		err = svc.Queue.Enqueue(jobs.WorkItem{
			Analysis: a,
			Cleanup:  cleanup,
		})
		if err != nil {
			// Failed to enqueue; cleanup will run due to defer. The row was
			// already persisted, so mark it failed rather than leaving it
			// queued forever.
			if serr := svc.Store.SaveError(a.ID, "queue full", time.Now().UTC()); serr != nil && svc.Log != nil {
				svc.Log.Error("mark analysis failed", "analysis_id", a.ID, "error", serr)
			}
			writeError(w, http.StatusTooManyRequests, "queue full, try later")
			return
		}
		if svc.Log != nil {
			svc.Log.Info("analysis enqueued", "analysis_id", a.ID)
		}
		// We handed cleanup to the worker. Prevent double-delete here.
		cleanup = nil

		writeJSON(w, http.StatusAccepted, createAsyncResponse{
			Success:    true,
			AnalysisID: a.ID,
			StatusURL:  path.Join(common.PathAnalyses, a.ID),
		})
		return
	}

	// Synchronous processing path: process the analysis inline and return the prompt.
	if err := svc.Processor.Process(r.Context(), jobs.WorkItem{Analysis: a}); err != nil {
		if svc.Log != nil {
			svc.Log.Error("processing failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}

	done, err := svc.Store.GetAnalysis(a.ID)
	if err != nil || done == nil || done.Prompt == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if svc.Log != nil {
		svc.Log.Info("analysis processed (sync)", "analysis_id", a.ID)
	}
	writeJSON(w, http.StatusOK, createSyncResponse{
		Success:      true,
		AnalysisID:   a.ID,
		Prompt:       *done.Prompt,
		AnalysisType: deref(done.AnalysisType),
	})
}

var idPattern = regexp.MustCompile(fmt.Sprintf("^%s/([a-f0-9-]+)$", common.PathAnalyses))

func (svc *Service) handleGetAnalysisByPrefix(w http.ResponseWriter, r *http.Request) {
	m := idPattern.FindStringSubmatch(r.URL.Path)
	if len(m) != 2 {
		http.NotFound(w, r)
		return
	}
	id := m[1]
	a, err := svc.Store.GetAnalysis(id)
	if err != nil || a == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, analysisToOut(a))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func analysisToOut(a *jobs.Analysis) map[string]any {
	var errVal any = nil
	if a.ErrorMessage != nil && *a.ErrorMessage != "" {
		errVal = *a.ErrorMessage
	}
	out := map[string]any{
		"analysis_id":  a.ID,
		"analyzer":     a.AnalyzerName,
		"stage":        string(a.Stage),
		"created_at":   a.CreatedAt,
		"started_at":   a.StartedAt,
		"completed_at": a.CompletedAt,
		"error":        errVal,
	}
	if a.Prompt != nil {
		out["result"] = map[string]string{
			"prompt":        *a.Prompt,
			"analysis_type": deref(a.AnalysisType),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// bodyErrorStatus distinguishes an oversize body tripped by MaxBytesReader
// from an ordinary malformed request.
func bodyErrorStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func safeInt64(u config.ByteSize) int64 {
	if u > config.ByteSize(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(u) // #nosec G115 - safe cast after explicit upper-bound check
}

func parseOptionalURL(s string) (*string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil, nil
	}
	if _, err := url.ParseRequestURI(v); err != nil {
		return nil, err
	}
	return &v, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func loggingMiddleware(next http.Handler, log *slog.Logger) http.Handler {
	// Fallback to a discard logger if none provided to avoid nil deref in tests or minimal setups.
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &writeWrap{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(ww, r)
		log.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.code,
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr)
	})
}

type writeWrap struct {
	http.ResponseWriter
	code int
}

func (w *writeWrap) WriteHeader(statusCode int) {
	w.code = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
