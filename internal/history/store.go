package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"audioscribe/internal/config"
)

// Store manages batch history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database under the state
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordBatch writes a batch and its files in one transaction.
func (s *Store) RecordBatch(ctx context.Context, batch Batch) error {
	if strings.TrimSpace(batch.ID) == "" {
		return errors.New("record batch: missing id")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin batch tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (id, base_url, started_at, finished_at, outcome, error)
             VALUES (?, ?, ?, ?, ?, ?)`,
			batch.ID,
			batch.BaseURL,
			formatTime(batch.StartedAt),
			formatTime(batch.FinishedAt),
			string(batch.Outcome),
			nullableString(batch.Error),
		); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		for i, f := range batch.Files {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO batch_files (batch_id, position, filename, size_bytes, blake3, status, reason)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				batch.ID,
				i,
				f.Name,
				f.Size,
				nullableString(f.Digest),
				f.Status,
				nullableString(f.Reason),
			); err != nil {
				return fmt.Errorf("insert batch file %s: %w", f.Name, err)
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit batches, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Batch, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, base_url, started_at, finished_at, outcome, error
              FROM batches ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var (
			b                 Batch
			started, finished string
			outcome           string
			errText           sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.BaseURL, &started, &finished, &outcome, &errText); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartedAt = parseTime(started)
		b.FinishedAt = parseTime(finished)
		b.Outcome = Outcome(outcome)
		b.Error = errText.String
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	for i := range batches {
		files, err := s.files(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Files = files
	}
	return batches, nil
}

func (s *Store) files(ctx context.Context, batchID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, size_bytes, blake3, status, reason
         FROM batch_files WHERE batch_id = ? ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query batch files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			f      File
			digest sql.NullString
			reason sql.NullString
		)
		if err := rows.Scan(&f.Name, &f.Size, &digest, &f.Status, &reason); err != nil {
			return nil, fmt.Errorf("scan batch file: %w", err)
		}
		f.Digest = digest.String
		f.Reason = reason.String
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch files: %w", err)
	}
	return files, nil
}
