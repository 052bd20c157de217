package kv

import "database/sql"

// DB exposes the internal *sql.DB for test helpers in kv_test.
// This file only compiles during `go test`.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// FailCommit makes every following commit return err.
func (s *SQLite) FailCommit(err error) {
	s.hooks.commit = func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return err
	}
}

// SetOpenDB swaps the driver opener and returns a restore func.
func SetOpenDB(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	prev := openDB
	openDB = fn
	return func() { openDB = prev }
}
