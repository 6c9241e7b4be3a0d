package common

// Shared constants to enforce DRY and avoid magic strings/numbers.

// HTTP headers and content types
const (
	HeaderAPIKey       = "X-API-Key" // #nosec G101 - header name constant, not a credential
	HeaderPrefer       = "Prefer"
	PreferRespondAsync = "respond-async"
	ContentTypeJSON    = "application/json"
)

// API paths
const (
	PathHealthz  = "/healthz"
	PathHealth   = "/health"
	PathMetrics  = "/metrics"
	PathAnalyses = "/v1/analyses"
)

// Defaults and limits
const (
	DefaultQueueCapacity = 128
	DefaultWorkerCount   = 4
	SQLiteBusyTimeoutMS  = 5000
)

// MIME types accepted for analysis. The external vision API handles a wide
// range of raster and vector formats, so the allow-list is deliberately broad.
const (
	MimeImagePNG  = "image/png"
	MimeImageJPEG = "image/jpeg"
	MimeImageJPG  = "image/jpg"
	MimeImageGIF  = "image/gif"
	MimeImageWebP = "image/webp"
	MimeImageBMP  = "image/bmp"
	MimeImageTIFF = "image/tiff"
	MimeImageSVG  = "image/svg+xml"
	MimeImageICO  = "image/x-icon"
	MimeImageHEIC = "image/heic"
	MimeImageHEIF = "image/heif"
	MimeImageAVIF = "image/avif"
)

// Subdirectory names
const (
	UploadsDirName = "uploads"
)

// Callback status strings
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Service identity reported by the health endpoint.
const (
	ServiceName    = "promptlens"
	ServiceVersion = "1.0.0"
)
