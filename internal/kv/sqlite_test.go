package kv_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/rag-mcp/internal/kv"
)

func newTestEngine(t *testing.T) *kv.SQLite {
	t.Helper()
	e, err := kv.Open(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpen_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "data.db")
	e, err := kv.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer e.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
	if e.Path() != path {
		t.Errorf("Path() = %q, want %q", e.Path(), path)
	}
}

func TestOpen_WALMode(t *testing.T) {
	e := newTestEngine(t)

	var mode string
	if err := e.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_DriverError(t *testing.T) {
	restore := kv.SetOpenDB(func(string, string) (*sql.DB, error) {
		return nil, errors.New("boom")
	})
	defer restore()

	if _, err := kv.Open(filepath.Join(t.TempDir(), "data.db")); err == nil {
		t.Fatal("expected error from failing driver")
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Put(ctx, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := e.Get(ctx, []byte("k1"))
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != "v1" {
		t.Errorf("Get = %q, want v1", got)
	}
}

func TestPut_Upserts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_ = e.Put(ctx, []byte("k"), []byte("old"))
	if err := e.Put(ctx, []byte("k"), []byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, _ := e.Get(ctx, []byte("k"))
	if string(got) != "new" {
		t.Errorf("Get = %q, want new", got)
	}
	n, _ := e.Len(ctx)
	if n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestGet_Missing(t *testing.T) {
	e := newTestEngine(t)

	got, ok, err := e.Get(context.Background(), []byte("nope"))
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok || got != nil {
		t.Errorf("Get(missing) = %q, %v; want nil, false", got, ok)
	}
}

func TestDelete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_ = e.Put(ctx, []byte("k"), []byte("v"))

	deleted, err := e.Delete(ctx, []byte("k"))
	if err != nil || !deleted {
		t.Fatalf("Delete(existing) = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = e.Delete(ctx, []byte("k"))
	if err != nil || deleted {
		t.Fatalf("Delete(missing) = %v, %v; want false, nil", deleted, err)
	}
}

func TestScan_KeyOrder(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	for _, k := range []string{"c", "a", "b"} {
		_ = e.Put(ctx, []byte(k), []byte("v-"+k))
	}

	var keys []string
	err := e.Scan(ctx, func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Scan keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestScan_StopsOnCallbackError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_ = e.Put(ctx, []byte("a"), []byte("1"))
	_ = e.Put(ctx, []byte("b"), []byte("2"))

	stop := errors.New("stop")
	calls := 0
	err := e.Scan(ctx, func(key, value []byte) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Scan error = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestScan_CallbackMayReenter(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_ = e.Put(ctx, []byte("a"), []byte("1"))

	err := e.Scan(ctx, func(key, value []byte) error {
		_, _, err := e.Get(ctx, key)
		return err
	})
	if err != nil {
		t.Fatalf("re-entrant Scan: %v", err)
	}
}

func TestPut_CommitFailure(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.FailCommit(errors.New("disk full"))

	if err := e.Put(ctx, []byte("k"), []byte("v")); err == nil {
		t.Fatal("expected commit failure")
	}
	if _, ok, _ := e.Get(ctx, []byte("k")); ok {
		t.Error("failed Put should not be visible")
	}
}

func TestFlush(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_ = e.Put(ctx, []byte("k"), []byte("v"))

	if err := e.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestReopen_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	ctx := context.Background()

	e1, err := kv.Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = e1.Put(ctx, []byte("k"), []byte("v"))
	_ = e1.Close()

	e2, err := kv.Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer e2.Close()

	got, ok, err := e2.Get(ctx, []byte("k"))
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("after reopen Get = %q, %v, %v", got, ok, err)
	}
}

func TestTwoHandlesShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	a, err := kv.Open(path)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := kv.Open(path)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	if err := a.Put(ctx, []byte("from-a"), []byte("1")); err != nil {
		t.Fatalf("a.Put: %v", err)
	}
	if err := b.Put(ctx, []byte("from-b"), []byte("2")); err != nil {
		t.Fatalf("b.Put: %v", err)
	}

	n, err := a.Len(ctx)
	if err != nil || n != 2 {
		t.Fatalf("a.Len = %d, %v; want 2", n, err)
	}
}

func TestClosed(t *testing.T) {
	e, err := kv.Open(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := e.Put(context.Background(), []byte("k"), []byte("v")); !errors.Is(err, kv.ErrClosed) {
		t.Errorf("Put after close = %v, want ErrClosed", err)
	}
}
