package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLite is an Engine backed by a single SQLite database file.
type SQLite struct {
	db    *sql.DB
	path  string
	hooks engineHooks
}

var _ Engine = (*SQLite)(nil)

type engineHooks struct {
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultEngineHooks() engineHooks {
	return engineHooks{
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *SQLite) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *SQLite) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// Open opens (creating if needed) the SQLite backend at path. Parent
// directories are created with owner-only permissions.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("kv: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kv: open database: %w", err)
	}
	// One connection keeps the per-connection pragmas below in force for
	// every statement; the server is single-threaded anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("kv: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db, path: path, hooks: defaultEngineHooks()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kv: migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key   BLOB PRIMARY KEY,
			value BLOB NOT NULL
		) WITHOUT ROWID;
	`)
	return err
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}

// Get implements Engine.
func (s *SQLite) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv: get: %w", err)
	}
	return value, true, nil
}

// Put implements Engine.
func (s *SQLite) Put(ctx context.Context, key, value []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return fmt.Errorf("kv: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	); err != nil {
		return fmt.Errorf("kv: put: %w", err)
	}
	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("kv: commit: %w", err)
	}
	return nil
}

// Delete implements Engine.
func (s *SQLite) Delete(ctx context.Context, key []byte) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("kv: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("kv: delete: %w", err)
	}
	return n > 0, nil
}

// Scan implements Engine. Rows are buffered before fn runs so fn may call
// back into the engine.
func (s *SQLite) Scan(ctx context.Context, fn func(key, value []byte) error) error {
	if s.db == nil {
		return ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM entries ORDER BY key`)
	if err != nil {
		return fmt.Errorf("kv: scan: %w", err)
	}

	type entry struct{ key, value []byte }
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.value); err != nil {
			_ = rows.Close()
			return fmt.Errorf("kv: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("kv: scan: %w", err)
	}
	_ = rows.Close()

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

// Len implements Engine.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("kv: count: %w", err)
	}
	return n, nil
}

// Flush implements Engine with a passive WAL checkpoint.
func (s *SQLite) Flush(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	var busy, logFrames, checkpointed int
	if err := s.db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(PASSIVE)`).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("kv: flush: %w", err)
	}
	return nil
}

// Close implements Engine. Closing twice is a no-op.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
