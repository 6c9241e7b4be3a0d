package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"promptlens/internal/common"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Busy timeout to avoid SQLITE_BUSY in concurrent access.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, common.SQLiteBusyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		source_url TEXT,
		image_path TEXT,
		mime_type TEXT NOT NULL,
		analyzer_name TEXT NOT NULL,
		callback_url TEXT,
		stage TEXT NOT NULL,
		prompt TEXT,
		analysis_type TEXT,
		error_message TEXT,
		created_at TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateAnalysis(a *Analysis) error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	if a.ID == "" {
		return errors.New("analysis.ID is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	var cb *string
	if a.CallbackURL != nil && *a.CallbackURL != "" {
		cb = a.CallbackURL
	}

	_, err := s.db.Exec(
		`INSERT INTO analyses (id, source_url, image_path, mime_type, analyzer_name, callback_url, stage, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SourceURL, a.ImagePath, a.MimeType, a.AnalyzerName, cb, string(a.Stage), a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStage(id string, stage Stage, startedAt *time.Time) error {
	// Update stage and optionally started_at (only set when provided).
	if startedAt != nil {
		ts := startedAt.UTC().Format(time.RFC3339Nano)
		_, err := s.db.Exec(`UPDATE analyses SET stage = ?, started_at = ? WHERE id = ?`, string(stage), ts, id)
		if err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(`UPDATE analyses SET stage = ? WHERE id = ?`, string(stage), id)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveResult(id string, res Result, completedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE analyses
		SET prompt = ?, analysis_type = ?, stage = ?, error_message = NULL, completed_at = ?
		WHERE id = ?`,
		res.Prompt, res.AnalysisType, string(StageCompleted), completedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveError(id string, errMsg string, completedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE analyses
		SET error_message = ?, stage = ?, completed_at = ?
		WHERE id = ?`,
		errMsg, string(StageFailed), completedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("save error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAnalysis(id string) (*Analysis, error) {
	row := s.db.QueryRow(`SELECT id, source_url, image_path, mime_type, analyzer_name, callback_url, stage,
		prompt, analysis_type, error_message, created_at, started_at, completed_at
		FROM analyses WHERE id = ?`, id)

	var a Analysis
	var srcURL, imgPath, cb, prompt, analysisType, errMsg, created, started, completed sql.NullString
	var stage string

	if err := row.Scan(
		&a.ID,
		&srcURL,
		&imgPath,
		&a.MimeType,
		&a.AnalyzerName,
		&cb,
		&stage,
		&prompt,
		&analysisType,
		&errMsg,
		&created,
		&started,
		&completed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("analysis not found")
		}
		return nil, fmt.Errorf("scan analysis: %w", err)
	}

	if srcURL.Valid {
		v := srcURL.String
		a.SourceURL = &v
	}
	if imgPath.Valid {
		v := imgPath.String
		a.ImagePath = &v
	}
	if cb.Valid {
		v := cb.String
		a.CallbackURL = &v
	}
	if prompt.Valid {
		v := prompt.String
		a.Prompt = &v
	}
	if analysisType.Valid {
		v := analysisType.String
		a.AnalysisType = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		a.ErrorMessage = &v
	}
	if created.Valid {
		if t, err := time.Parse(time.RFC3339Nano, created.String); err == nil {
			a.CreatedAt = t
		}
	}
	if started.Valid {
		if t, err := time.Parse(time.RFC3339Nano, started.String); err == nil {
			a.StartedAt = &t
		}
	}
	if completed.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completed.String); err == nil {
			a.CompletedAt = &t
		}
	}
	a.Stage = Stage(stage)

	return &a, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
