package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" opens a private in-memory
	// database.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging so readers never block the writer.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/livesync.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage on an SQLite database through the pure-Go
// modernc.org/sqlite driver.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at config.Path
// and ensures the schema.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history.sqlite")

	inMemory := config.Path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, storageError("sqlite", "open", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn(config))
	if err != nil {
		return nil, storageError("sqlite", "open", err)
	}

	// Every connection to ":memory:" is its own database.
	if inMemory || config.MaxOpenConns <= 0 {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history storage opened",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// dsn builds the driver name with per-connection pragmas, so every pooled
// connection gets the same busy timeout and journal mode.
func dsn(config *SQLiteConfig) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeout.Milliseconds()),
	}
	if config.WALMode && config.Path != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return config.Path + "?" + strings.Join(pragmas, "&")
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return storageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(selectSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return storageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store persists a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	var errVal, patchVal, pathsVal any
	if record.Error != "" {
		errVal = record.Error
	}
	if len(record.Patch) > 0 {
		patchVal = string(record.Patch)
	}
	if len(record.Paths) > 0 {
		b, err := json.Marshal(record.Paths)
		if err != nil {
			return storageError("sqlite", "store", err)
		}
		pathsVal = string(b)
	}

	_, err := s.db.ExecContext(ctx, insertCycle,
		record.ID, record.HandleID, record.Scheduler, record.Trigger,
		record.Started.UnixNano(), int64(record.Duration), record.Changed, record.First,
		record.Result, errVal, patchVal, pathsVal,
	)
	if err != nil {
		return storageError("sqlite", "store", err)
	}
	return nil
}

// Query returns records matching q, newest first unless q.Ascending.
func (s *SQLiteStorage) Query(ctx context.Context, q *Query) ([]*Record, error) {
	if q == nil {
		q = &Query{}
	}
	where, args := buildWhereClause(q)

	stmt := "SELECT " + selectColumns + " FROM cycles"
	if where != "" {
		stmt += " WHERE " + where
	}
	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}
	stmt += fmt.Sprintf(" ORDER BY started_ns %s, id %s LIMIT %d", order, order, q.limit())
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, storageError("sqlite", "scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("sqlite", "query", err)
	}
	return records, nil
}

// Count returns the number of records matching q.
func (s *SQLiteStorage) Count(ctx context.Context, q *Query) (int64, error) {
	if q == nil {
		q = &Query{}
	}
	where, args := buildWhereClause(q)

	stmt := "SELECT COUNT(*) FROM cycles"
	if where != "" {
		stmt += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, storageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes records that started before cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cycles WHERE started_ns < ?", cutoff.UnixNano())
	if err != nil {
		return 0, storageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("sqlite", "delete", err)
	}
	return n, nil
}

// DeleteOldest removes the n oldest records.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cycles WHERE id IN (
			SELECT id FROM cycles ORDER BY started_ns ASC, id ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, storageError("sqlite", "delete_oldest", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("sqlite", "delete_oldest", err)
	}
	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return storageError("sqlite", "close", err)
	}
	s.logger.Info("history storage closed")
	return nil
}

// buildWhereClause returns the WHERE clause (without the keyword) and its
// arguments.
func buildWhereClause(q *Query) (string, []any) {
	var conditions []string
	var args []any

	if q.Scheduler != "" {
		conditions = append(conditions, "scheduler = ?")
		args = append(args, q.Scheduler)
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "started_ns >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		conditions = append(conditions, "started_ns <= ?")
		args = append(args, q.Until.UnixNano())
	}
	if q.ChangedOnly {
		conditions = append(conditions, "changed = 1")
	}
	if q.FailedOnly {
		conditions = append(conditions, "result <> ?")
		args = append(args, ResultOK)
	}

	return strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*Record, error) {
	var (
		rec                    Record
		startedNs, durationNs  int64
		errVal, patch, pathsJS sql.NullString
	)
	err := rows.Scan(
		&rec.ID, &rec.HandleID, &rec.Scheduler, &rec.Trigger,
		&startedNs, &durationNs, &rec.Changed, &rec.First,
		&rec.Result, &errVal, &patch, &pathsJS,
	)
	if err != nil {
		return nil, err
	}

	rec.Started = time.Unix(0, startedNs)
	rec.Duration = time.Duration(durationNs)
	rec.Error = errVal.String
	if patch.Valid {
		rec.Patch = json.RawMessage(patch.String)
	}
	if pathsJS.Valid {
		if err := json.Unmarshal([]byte(pathsJS.String), &rec.Paths); err != nil {
			return nil, fmt.Errorf("decode paths of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
