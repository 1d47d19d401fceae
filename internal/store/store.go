package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"simfinder/internal/errs"
	"simfinder/internal/logging"
	"simfinder/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Store is the durable fingerprint table for one indexed directory.
type Store struct {
	db      *sql.DB
	name    string
	path    string
	txStart time.Time // transaction start time for metrics
}

// Open opens or creates the store file at path. The parent directory must
// already exist and be writable; the Manager guarantees that for stores it
// hands out.
func Open(ctx context.Context, path string) (*Store, error) {
	name := filepath.Base(path)
	logging.Debug("Opening store %s", path)

	// WAL mode so read-only scans stay consistent while an indexing pass
	// commits batches; busy_timeout keeps "database is locked" away when
	// a writer and the schema setup race.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, errs.Store("open", name, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, errs.Store("open", name, err)
	}

	// One writer at a time by discipline; readers share the rest.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:   db,
		name: name,
		path: path,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after schema failure: %v", closeErr)
		}
		return nil, errs.Store("open", name, err)
	}

	metrics.StoresOpen.Inc()
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		path TEXT UNIQUE NOT NULL,
		hash TEXT NOT NULL,
		last_modified REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS info (
		key TEXT UNIQUE NOT NULL,
		value TEXT
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return s.runMigrations(ctx)
}

// runMigrations applies store schema migrations
func (s *Store) runMigrations(ctx context.Context) error {
	// Migration 1: add last_modified to stores written before change
	// detection existed; those records carry no timestamp, so a zero
	// default forces a re-hash on the next pass.
	var columnExists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('images')
		WHERE name='last_modified'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for last_modified column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating store %s: adding last_modified column", s.name)

		_, err = s.db.ExecContext(ctx, `
			ALTER TABLE images ADD COLUMN last_modified REAL NOT NULL DEFAULT 0
		`)
		if err != nil {
			return fmt.Errorf("failed to add last_modified column: %w", err)
		}

		logging.Info("Migration complete: last_modified column added")
	}

	return nil
}

// Name returns the store's file name.
func (s *Store) Name() string {
	return s.name
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the store.
func (s *Store) Close() error {
	metrics.StoresOpen.Dec()
	return s.db.Close()
}

// BeginBatch starts a transaction for batch writes. The caller must call
// EndBatch when done, passing any error that should trigger a rollback.
func (s *Store) BeginBatch() (*sql.Tx, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("begin_batch", start, err) }()

	// Background context: the transaction's lifetime is managed by
	// EndBatch, not a timeout that would cancel it on return.
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return nil, errs.Store("begin_batch", s.name, err)
	}

	s.txStart = start
	return tx, nil
}

// EndBatch commits a batch transaction, or rolls it back when err is
// non-nil. A rollback failure is joined onto the original error.
func (s *Store) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(s.txStart)

	if err != nil {
		recordQuery("commit_batch", s.txStart, err)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, errs.Store("rollback", s.name, rbErr))
		}
		return err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		recordQuery("commit_batch", s.txStart, commitErr)
		return errs.Store("commit_batch", s.name, commitErr)
	}

	recordQuery("commit_batch", s.txStart, nil)
	logging.Debug("Store %s: batch committed in %v", s.name, duration)
	return nil
}

const upsertQuery = `
	INSERT INTO images (path, hash, last_modified)
	VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		hash = excluded.hash,
		last_modified = excluded.last_modified
`

// Upsert inserts or replaces the record for rec.Path in its own
// single-statement transaction.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = s.db.ExecContext(ctx, upsertQuery, rec.Path, rec.Hash, rec.LastModified); err != nil {
		return errs.Store("upsert", s.name, err)
	}
	return nil
}

// UpsertTx inserts or replaces a record within a batch transaction.
func (s *Store) UpsertTx(tx *sql.Tx, rec *Record) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert", start, err) }()

	// Background context: the transaction controls the lifecycle.
	if _, err = tx.ExecContext(context.Background(), upsertQuery, rec.Path, rec.Hash, rec.LastModified); err != nil {
		return errs.Store("upsert", s.name, err)
	}
	return nil
}

// GetModifiedTime returns the stored modification time for path. The
// second return value is false when no record exists for the path.
func (s *Store) GetModifiedTime(ctx context.Context, path string) (float64, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_mtime", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mtime float64
	err = s.db.QueryRowContext(ctx, "SELECT last_modified FROM images WHERE path = ?", path).Scan(&mtime)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.Store("get_mtime", s.name, err)
	}
	return mtime, true, nil
}

// Cursor iterates the (path, hash) pairs of one Scan call. It holds a
// connection until Close, so callers must always close it.
type Cursor struct {
	rows  *sql.Rows
	name  string
	rec   Record
	start time.Time
	err   error
}

// Next advances to the next record; it returns false when the scan is
// exhausted or failed, after which Err distinguishes the two.
func (c *Cursor) Next() bool {
	if !c.rows.Next() {
		return false
	}
	if err := c.rows.Scan(&c.rec.Path, &c.rec.Hash); err != nil {
		c.err = errs.Store("scan", c.name, err)
		return false
	}
	return true
}

// Record returns the record at the cursor's current position. Only Path
// and Hash are populated; the scan does not carry timestamps.
func (c *Cursor) Record() Record {
	return c.rec
}

// Err returns the first error hit while scanning, if any.
func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return errs.Store("scan", c.name, err)
	}
	return nil
}

// Close releases the cursor's connection.
func (c *Cursor) Close() error {
	recordQuery("scan", c.start, c.err)
	return c.rows.Close()
}

// Scan starts a lazy pass over all records, ordered by path so repeated
// scans of an unchanged store enumerate identically. Each call gets its
// own consistent snapshot; a concurrent batch commit is either entirely
// visible or entirely invisible to it.
func (s *Store) Scan(ctx context.Context) (*Cursor, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, "SELECT path, hash FROM images ORDER BY path")
	if err != nil {
		recordQuery("scan", start, err)
		return nil, errs.Store("scan", s.name, err)
	}

	return &Cursor{rows: rows, name: s.name, start: start}, nil
}

// RecordCount returns the number of records in the store.
func (s *Store) RecordCount(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("scan", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, errs.Store("scan", s.name, err)
	}
	return count, nil
}

// DeletePathsTx removes the records for the given paths within a batch
// transaction and returns how many rows were actually deleted.
func (s *Store) DeletePathsTx(tx *sql.Tx, paths []string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete", start, err) }()

	var deleted int64
	for _, p := range paths {
		res, execErr := tx.ExecContext(context.Background(), "DELETE FROM images WHERE path = ?", p)
		if execErr != nil {
			err = errs.Store("delete", s.name, execErr)
			return deleted, err
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			deleted += n
		}
	}
	return deleted, nil
}

// SetMeta stores a key/value pair in the info table.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_meta", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO info (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err = s.db.ExecContext(ctx, query, key, value); err != nil {
		return errs.Store("set_meta", s.name, err)
	}
	return nil
}

// GetMeta returns the value stored for key; the second return value is
// false when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_meta", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = s.db.QueryRowContext(ctx, "SELECT value FROM info WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Store("get_meta", s.name, err)
	}
	return value, true, nil
}

// SourcePath returns the directory this store indexes, if recorded.
func (s *Store) SourcePath(ctx context.Context) (string, bool, error) {
	return s.GetMeta(ctx, SourcePathKey)
}

// recordQuery records store query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(duration)
}
