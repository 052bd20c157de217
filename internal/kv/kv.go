// Package kv is the byte-keyed storage engine behind every persistent
// memory scope. Each backend file holds one key space; callers pick the file.
//
// There is exactly one implementation, SQLite, opened in WAL mode so that
// several short-lived server processes can share a backend file: readers
// never block, and a second writer waits up to the busy timeout instead of
// failing.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on an engine after Close.
var ErrClosed = errors.New("kv: engine closed")

// Engine is a durable byte-keyed map.
type Engine interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)
	// Put upserts value under key. It returns only after the write is committed.
	Put(ctx context.Context, key, value []byte) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key []byte) (bool, error)
	// Scan calls fn for every entry in key order. A non-nil error from fn
	// stops the scan and is returned.
	Scan(ctx context.Context, fn func(key, value []byte) error) error
	// Len returns the number of stored entries.
	Len(ctx context.Context) (int, error)
	// Flush forces committed writes into the main database file.
	Flush(ctx context.Context) error
	// Close releases the backend.
	Close() error
}
