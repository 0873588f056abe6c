package state

// schemaVersion bumps whenever the records schema changes; migrations run in
// order from the stored version.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    logical_path TEXT NOT NULL,
    placeholder_path TEXT NOT NULL,
    kind TEXT NOT NULL,
    fingerprint TEXT NOT NULL DEFAULT '',
    playback_url TEXT NOT NULL DEFAULT '',
    last_synced_at TEXT NOT NULL,
    UNIQUE (source, logical_path),
    UNIQUE (placeholder_path)
);

CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`
