package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"strmsync/internal/services"
)

// Store manages placeholder records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database and applies migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStateStore, "state", "open", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStateStore, "state", "apply pragma", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.verifyIntegrity(context.Background()); err != nil {
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

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) applyMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrStateStore, "state", "apply schema", "", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_info LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return services.Wrap(services.ErrStateStore, "state", "record schema version", "", err)
		}
	case err != nil:
		return services.Wrap(services.ErrStateStore, "state", "read schema version", "", err)
	case version > schemaVersion:
		return services.Wrap(services.ErrStateStore, "state", "schema",
			fmt.Sprintf("database version %d is newer than supported %d", version, schemaVersion), nil)
	}
	return nil
}

// verifyIntegrity runs SQLite's self check; any reported problem means the
// store cannot be trusted and the cycle must not proceed.
func (s *Store) verifyIntegrity(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check(1)`).Scan(&result); err != nil {
		return services.Wrap(services.ErrStateStore, "state", "integrity check", "", err)
	}
	if result != "ok" {
		return services.Wrap(services.ErrStateStore, "state", "integrity check", result, nil)
	}
	return nil
}

const recordColumns = `id, source, logical_path, placeholder_path, kind, fingerprint, playback_url, last_synced_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var synced string
	if err := row.Scan(&rec.ID, &rec.Source, &rec.LogicalPath, &rec.PlaceholderPath,
		&rec.Kind, &rec.Fingerprint, &rec.PlaybackURL, &synced); err != nil {
		return nil, err
	}
	if synced != "" {
		parsed, err := time.Parse(time.RFC3339Nano, synced)
		if err != nil {
			return nil, fmt.Errorf("parse last_synced_at: %w", err)
		}
		rec.LastSyncedAt = parsed
	}
	return &rec, nil
}

// Upsert inserts or replaces the record for (source, logical path). Called
// once per committed create or update action.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	rec.LastSyncedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO records (source, logical_path, placeholder_path, kind, fingerprint, playback_url, last_synced_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (source, logical_path) DO UPDATE SET
            placeholder_path = excluded.placeholder_path,
            kind = excluded.kind,
            fingerprint = excluded.fingerprint,
            playback_url = excluded.playback_url,
            last_synced_at = excluded.last_synced_at`,
		rec.Source, rec.LogicalPath, rec.PlaceholderPath, rec.Kind,
		rec.Fingerprint, rec.PlaybackURL, rec.LastSyncedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.Wrap(services.ErrStateStore, "state", "upsert", rec.LogicalPath, err)
	}
	return nil
}

// Get fetches one record, or nil when untracked.
func (s *Store) Get(ctx context.Context, source, logicalPath string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE source = ? AND logical_path = ?`,
		source, logicalPath)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStateStore, "state", "get", logicalPath, err)
	}
	return rec, nil
}

// ListBySource returns all records for a source ordered by logical path.
func (s *Store) ListBySource(ctx context.Context, source string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE source = ? ORDER BY logical_path`, source)
	if err != nil {
		return nil, services.Wrap(services.ErrStateStore, "state", "list", source, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStateStore, "state", "scan", source, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStateStore, "state", "list", source, err)
	}
	return records, nil
}

// Delete removes the record for (source, logical path). Called once per
// committed delete action.
func (s *Store) Delete(ctx context.Context, source, logicalPath string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE source = ? AND logical_path = ?`, source, logicalPath)
	if err != nil {
		return services.Wrap(services.ErrStateStore, "state", "delete", logicalPath, err)
	}
	return nil
}

// Clear removes every record for a source and returns the count.
func (s *Store) Clear(ctx context.Context, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source)
	if err != nil {
		return 0, services.Wrap(services.ErrStateStore, "state", "clear", source, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrStateStore, "state", "clear", source, err)
	}
	return affected, nil
}

// CountBySource returns the number of tracked records per source.
func (s *Store) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM records GROUP BY source`)
	if err != nil {
		return nil, services.Wrap(services.ErrStateStore, "state", "count", "", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, services.Wrap(services.ErrStateStore, "state", "count", "", err)
		}
		counts[source] = count
	}
	return counts, rows.Err()
}
