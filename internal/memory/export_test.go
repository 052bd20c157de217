package memory

import (
	"time"

	"github.com/HendryAvila/rag-mcp/internal/kv"
)

// SetClock replaces the timestamp source and returns a restore func.
// This file only compiles during `go test`.
func SetClock(fn func() time.Time) func() {
	prev := now
	now = fn
	return func() { now = prev }
}

// SetOpenEngine swaps the backend opener and returns a restore func.
func SetOpenEngine(fn func(path string) (kv.Engine, error)) func() {
	prev := openEngine
	openEngine = fn
	return func() { openEngine = prev }
}
