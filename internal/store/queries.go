package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Operation journal

// BeginOperation records the start of an operation and returns its ID.
func (s *Store) BeginOperation(kind, envName, detail string) (int64, error) {
	query := `
		INSERT INTO operations (kind, env_name, status, detail, started_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.Exec(query, kind, envName, StatusRunning, detail, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, wrapQueryErr("failed to record operation start", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get operation id: %w", err)
	}
	return id, nil
}

// FinishOperation marks an operation finished with the given status and
// optional detail text (error message on failure).
func (s *Store) FinishOperation(id int64, status, detail string) error {
	query := `
		UPDATE operations
		SET status = ?, detail = CASE WHEN ? != '' THEN ? ELSE detail END, finished_at = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query, status, detail, detail, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return wrapQueryErr("failed to record operation finish", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operation %d not found", id)
	}
	return nil
}

// ListOperations returns the most recent operations, newest first.
func (s *Store) ListOperations(limit int) ([]*Operation, error) {
	query := `
		SELECT id, kind, env_name, status, detail, started_at, finished_at
		FROM operations
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrapQueryErr("failed to list operations", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return ops, nil
}

// LatestOperation returns the most recent operation of the given kind, or
// nil when none has been recorded.
func (s *Store) LatestOperation(kind string) (*Operation, error) {
	query := `
		SELECT id, kind, env_name, status, detail, started_at, finished_at
		FROM operations
		WHERE kind = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`
	rows, err := s.db.Query(query, kind)
	if err != nil {
		return nil, wrapQueryErr("failed to query latest operation", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error reading latest operation: %w", err)
		}
		return nil, nil
	}
	return scanOperation(rows)
}

func scanOperation(rows *sql.Rows) (*Operation, error) {
	var op Operation
	var envName, detail sql.NullString
	var startedAt string
	var finishedAt sql.NullString

	if err := rows.Scan(&op.ID, &op.Kind, &envName, &op.Status, &detail, &startedAt, &finishedAt); err != nil {
		return nil, fmt.Errorf("failed to scan operation row: %w", err)
	}
	op.EnvName = envName.String
	op.Detail = detail.String

	var err error
	op.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for operation %d: %w", op.ID, err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		op.FinishedAt, err = time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for operation %d: %w", op.ID, err)
		}
	}
	return &op, nil
}

// Environment size cache

// UpsertEnvSize records the scanned size for an environment path.
func (s *Store) UpsertEnvSize(path string, sizeBytes int64) error {
	query := `
		INSERT OR REPLACE INTO env_sizes (path, size_bytes, scanned_at)
		VALUES (?, ?, ?)
	`
	_, err := s.db.Exec(query, path, sizeBytes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to upsert size for %s", path), err)
	}
	return nil
}

// GetEnvSize returns the cached size for path, or nil when never scanned.
func (s *Store) GetEnvSize(path string) (*EnvSize, error) {
	query := `SELECT path, size_bytes, scanned_at FROM env_sizes WHERE path = ?`

	var es EnvSize
	var scannedAt string
	err := s.db.QueryRow(query, path).Scan(&es.Path, &es.SizeBytes, &scannedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get size for %s", path), err)
	}

	es.ScannedAt, err = time.Parse(time.RFC3339, scannedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scanned_at for %s: %w", path, err)
	}
	return &es, nil
}

// DeleteEnvSize drops the cached size for path, e.g. after the environment
// was removed or the watcher saw it change.
func (s *Store) DeleteEnvSize(path string) error {
	_, err := s.db.Exec(`DELETE FROM env_sizes WHERE path = ?`, path)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to delete size for %s", path), err)
	}
	return nil
}

// DeleteEnvSizesUnder drops cached sizes for every environment under dir.
// Used when the watcher reports a change in an environments directory and
// the affected environment is not known.
func (s *Store) DeleteEnvSizesUnder(dir string) error {
	pattern := strings.TrimSuffix(dir, "/") + "/%"
	_, err := s.db.Exec(`DELETE FROM env_sizes WHERE path LIKE ?`, pattern)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to delete sizes under %s", dir), err)
	}
	return nil
}
