package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the cycle history tables. Timestamps and durations are
// stored as integer nanoseconds so range filters compare numerically.
const Schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    handle_id TEXT NOT NULL,
    scheduler TEXT NOT NULL,
    trigger_kind TEXT NOT NULL,
    started_ns INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    changed INTEGER NOT NULL,
    is_first INTEGER NOT NULL,
    result TEXT NOT NULL,
    error TEXT,
    patch TEXT,
    paths TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_ns);
CREATE INDEX IF NOT EXISTS idx_cycles_scheduler ON cycles(scheduler, started_ns);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const selectSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertCycle = `
INSERT INTO cycles (
    id, handle_id, scheduler, trigger_kind,
    started_ns, duration_ns, changed, is_first,
    result, error, patch, paths
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `id, handle_id, scheduler, trigger_kind, started_ns, duration_ns,
    changed, is_first, result, error, patch, paths`
