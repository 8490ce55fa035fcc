// Package repair persists a durable journal of cascade deletions that
// committed their first batch but failed before the last one. The document
// store tolerates the resulting dangling references, so journal entries are
// repair work, not corruption; the repair CLI replays them.
package repair

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Record is one interrupted cascade: the entity whose deletion was in
// flight and the store paths whose delete batches never committed.
type Record struct {
	ID             string
	EntityKind     string
	EntityID       string
	RemainingPaths []string
	Error          string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// Journal is a SQLite-backed log of interrupted cascades.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the journal database at the given path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records an interrupted cascade. The record id is generated here and
// returned so callers can surface it alongside the primary error.
func (j *Journal) Append(ctx context.Context, entityKind, entityID string, remainingPaths []string, cause error) (string, error) {
	paths, err := json.Marshal(remainingPaths)
	if err != nil {
		return "", fmt.Errorf("marshal remaining paths: %w", err)
	}

	rec := Record{
		ID:         uuid.NewString(),
		EntityKind: entityKind,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO cascade_journal (id, entity_kind, entity_id, remaining_paths, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EntityKind, rec.EntityID, string(paths), rec.Error, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert journal record: %w", err)
	}

	if j.logger != nil {
		j.logger.Warn("cascade failure journaled",
			"journal_id", rec.ID,
			"entity_kind", entityKind,
			"entity_id", entityID,
			"remaining", len(remainingPaths),
		)
	}
	return rec.ID, nil
}

// ListOpen returns every unresolved record, oldest first.
func (j *Journal) ListOpen(ctx context.Context) ([]*Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, entity_kind, entity_id, remaining_paths, error, created_at, resolved_at
		FROM cascade_journal
		WHERE resolved_at IS NULL
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query open records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record by id, resolved or not.
func (j *Journal) Get(ctx context.Context, id string) (*Record, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, entity_kind, entity_id, remaining_paths, error, created_at, resolved_at
		FROM cascade_journal
		WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("journal record %s not found", id)
	}
	return rec, err
}

// MarkResolved stamps a record as repaired.
func (j *Journal) MarkResolved(ctx context.Context, id string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE cascade_journal SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("journal record %s not found or already resolved", id)
	}
	return nil
}

// scanRecord scans a sql.Row (or sql.Rows via its Scan method) into a Record.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec        Record
		paths      string
		createdAt  string
		resolvedAt sql.NullString
	)

	err := scanner.Scan(&rec.ID, &rec.EntityKind, &rec.EntityID, &paths, &rec.Error, &createdAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(paths), &rec.RemainingPaths); err != nil {
		return nil, fmt.Errorf("parse remaining paths: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if resolvedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, resolvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse resolved_at: %w", err)
		}
		rec.ResolvedAt = &t
	}

	return &rec, nil
}
