package jobs

import (
	"time"
)

// Stage represents the lifecycle stage of an analysis job.
type Stage string

const (
	StageQueued    Stage = "queued"
	StageAnalyzing Stage = "analyzing"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// Analysis describes a single image analysis request and its outcome.
// Exactly one of SourceURL and ImagePath is set: URL submissions are fetched
// by the worker, uploads are staged on disk until processing finishes.
type Analysis struct {
	ID           string     // UUIDv4
	SourceURL    *string    // remote image URL, if submitted by reference
	ImagePath    *string    // storage path of the uploaded image (temporary)
	MimeType     string     // image mime (image/png, image/jpeg)
	AnalyzerName string     // analyzer variant requested for this job
	CallbackURL  *string    // optional callback
	Stage        Stage      // current stage
	Prompt       *string    // cleaned prompt text on success
	AnalysisType *string    // analyzer-reported result type (e.g. "enhanced_comprehensive")
	ErrorMessage *string    // last error, if any
	CreatedAt    time.Time  // creation time
	StartedAt    *time.Time // when processing actually started
	CompletedAt  *time.Time // when finished (success or failure)
}

// Result is the analyzer outcome persisted for a completed job.
type Result struct {
	Prompt       string
	AnalysisType string
}

// Store defines persistence for analyses and their lifecycle.
type Store interface {
	CreateAnalysis(a *Analysis) error
	UpdateStage(id string, stage Stage, startedAt *time.Time) error
	SaveResult(id string, res Result, completedAt time.Time) error
	SaveError(id string, errMsg string, completedAt time.Time) error
	GetAnalysis(id string) (*Analysis, error)
	Close() error
}
