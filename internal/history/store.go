package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"relo/internal/move"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// MoveRecord is one journal row, newest first when listed.
type MoveRecord struct {
	OperationID      string    `json:"operationId"`
	Timestamp        time.Time `json:"timestamp"`
	Symbol           string    `json:"symbol"`
	SourcePath       string    `json:"sourcePath"`
	TargetPath       string    `json:"targetPath"`
	CopyOnly         bool      `json:"copyOnly"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	WarningCount     int       `json:"warningCount"`
	UpdatedFileCount int       `json:"updatedFileCount"`
}

// Store journals finished move operations in a local sqlite file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when a watch session and a
	// one-shot invocation share the journal.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// RecordMove satisfies the mover's Recorder interface.
func (s *Store) RecordMove(ctx context.Context, op move.MoveOperation, res move.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	if res.Details != nil {
		updated = len(res.Details.UpdatedReferenceFiles)
	}

	query := `
INSERT INTO moves (
  operation_id, ts_utc, symbol, source_path, target_path, copy_only, success, error, warning_count, updated_file_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(operation_id) DO NOTHING
`
	return s.withRetry("record move", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			res.OperationID,
			time.Now().UTC().Format(time.RFC3339Nano),
			op.Selector.Name,
			op.Selector.FilePath,
			op.TargetFilePath,
			boolToInt(op.CopyOnly),
			boolToInt(res.Success),
			res.Error,
			len(res.Warnings),
			updated,
		)
		return err
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT operation_id, ts_utc, symbol, source_path, target_path, copy_only, success, error, warning_count, updated_file_count
FROM moves
ORDER BY ts_utc DESC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry("load recent moves", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]MoveRecord, 0, limit)
	for rows.Next() {
		var (
			rec      MoveRecord
			tsRaw    string
			copyOnly int
			success  int
		)
		if err := rows.Scan(
			&rec.OperationID,
			&tsRaw,
			&rec.Symbol,
			&rec.SourcePath,
			&rec.TargetPath,
			&copyOnly,
			&success,
			&rec.Error,
			&rec.WarningCount,
			&rec.UpdatedFileCount,
		); err != nil {
			return nil, fmt.Errorf("scan move row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse move timestamp %q: %w", tsRaw, err)
		}
		rec.Timestamp = ts.UTC()
		rec.CopyOnly = copyOnly != 0
		rec.Success = success != 0

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate move rows: %w", err)
	}

	return records, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
