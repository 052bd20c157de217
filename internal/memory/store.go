// Package memory implements the scoped memory store.
//
// Session memories live in an in-process map and die with the process.
// Project and global memories live in kv engines: one file per project root
// and one global file, all opened lazily on first write and cached for the
// lifetime of the Store.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/HendryAvila/rag-mcp/internal/kv"
)

// ErrStorage marks failures of a persistent backend: open, read, write,
// or record encoding.
var ErrStorage = errors.New("memory: storage error")

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// openEngine is a package-level var to allow test injection.
var openEngine = func(path string) (kv.Engine, error) {
	return kv.Open(path)
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds scoped store configuration.
type Config struct {
	// GlobalPath is the database file of the global scope.
	GlobalPath string
	// ProjectDBName is the database file relative to a project root.
	ProjectDBName string
	// MaxSessionMemories caps the session table; 0 means unlimited.
	MaxSessionMemories int
	// OnEvict is called with each session memory dropped by the cap.
	OnEvict func(id string)
}

// DefaultProjectDBName is the per-project database location under the
// project root.
const DefaultProjectDBName = ".rag-mcp/data.db"

// ─── Store ───────────────────────────────────────────────────────────────────

// Store partitions memories by scope. It is not safe for concurrent use;
// the server drives it from a single goroutine.
type Store struct {
	cfg      Config
	session  map[string]*Memory
	global   kv.Engine
	projects map[string]kv.Engine
}

// NewStore creates a Store. No backend is opened until it is needed.
func NewStore(cfg Config) *Store {
	if cfg.ProjectDBName == "" {
		cfg.ProjectDBName = DefaultProjectDBName
	}
	return &Store{
		cfg:      cfg,
		session:  make(map[string]*Memory),
		projects: make(map[string]kv.Engine),
	}
}

// Close closes every backend opened so far.
func (s *Store) Close() error {
	var errs []error
	if s.global != nil {
		errs = append(errs, s.global.Close())
		s.global = nil
	}
	for path, e := range s.projects {
		errs = append(errs, e.Close())
		delete(s.projects, path)
	}
	return errors.Join(errs...)
}

// ProjectDBPath returns the database file used for a project root.
func (s *Store) ProjectDBPath(root string) string {
	return filepath.Join(filepath.Clean(root), s.cfg.ProjectDBName)
}

// backend returns the engine for a persistent scope. With create false a
// backend whose file does not exist yet is reported as nil instead of being
// created, so reads never leave files behind.
func (s *Store) backend(scope Scope, create bool) (kv.Engine, error) {
	switch scope.Kind {
	case KindGlobal:
		if s.global != nil {
			return s.global, nil
		}
		if !create && !fileExists(s.cfg.GlobalPath) {
			return nil, nil
		}
		if s.cfg.GlobalPath == "" {
			return nil, storageErr("open global database", errors.New("no global database path configured"))
		}
		e, err := openEngine(s.cfg.GlobalPath)
		if err != nil {
			return nil, storageErr("open global database", err)
		}
		s.global = e
		return e, nil

	case KindProject:
		key := filepath.Clean(scope.Path)
		if e, ok := s.projects[key]; ok {
			return e, nil
		}
		path := s.ProjectDBPath(key)
		if !create && !fileExists(path) {
			return nil, nil
		}
		e, err := openEngine(path)
		if err != nil {
			return nil, storageErr("open project database", err)
		}
		s.projects[key] = e
		return e, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope.Kind)
	}
}

// Store upserts m by id into the backend selected by m.Scope. Persistent
// writes are flushed before Store returns.
func (s *Store) Store(ctx context.Context, m *Memory) error {
	if m == nil || m.ID == "" {
		return errors.New("memory: store: memory must have an id")
	}

	if m.Scope.Kind == KindSession {
		if _, exists := s.session[m.ID]; !exists {
			s.evictSession()
		}
		s.session[m.ID] = m.Clone()
		return nil
	}

	e, err := s.backend(m.Scope, true)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return storageErr("encode memory", err)
	}
	if err := e.Put(ctx, []byte(m.ID), data); err != nil {
		return storageErr("write memory", err)
	}
	if err := e.Flush(ctx); err != nil {
		return storageErr("flush", err)
	}
	return nil
}

// evictSession makes room for one more session memory by dropping the
// oldest ones.
func (s *Store) evictSession() {
	limit := s.cfg.MaxSessionMemories
	if limit <= 0 {
		return
	}
	for len(s.session) >= limit {
		var oldest *Memory
		for _, m := range s.session {
			if oldest == nil || compareRecency(m, oldest) < 0 {
				oldest = m
			}
		}
		delete(s.session, oldest.ID)
		if s.cfg.OnEvict != nil {
			s.cfg.OnEvict(oldest.ID)
		}
	}
}

// Get returns the memory with id in scope. ok is false when absent.
func (s *Store) Get(ctx context.Context, id string, scope Scope) (*Memory, bool, error) {
	if scope.Kind == KindSession {
		m, ok := s.session[id]
		return m.Clone(), ok, nil
	}

	e, err := s.backend(scope, false)
	if err != nil || e == nil {
		return nil, false, err
	}
	data, ok, err := e.Get(ctx, []byte(id))
	if err != nil {
		return nil, false, storageErr("read memory", err)
	}
	if !ok {
		return nil, false, nil
	}
	m, err := decode(data, scope)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Delete removes id from scope and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string, scope Scope) (bool, error) {
	if scope.Kind == KindSession {
		_, ok := s.session[id]
		delete(s.session, id)
		return ok, nil
	}

	e, err := s.backend(scope, false)
	if err != nil || e == nil {
		return false, err
	}
	deleted, err := e.Delete(ctx, []byte(id))
	if err != nil {
		return false, storageErr("delete memory", err)
	}
	if deleted {
		if err := e.Flush(ctx); err != nil {
			return true, storageErr("flush", err)
		}
	}
	return deleted, nil
}

// List returns memories in scope, most recent first, skipping offset records
// and returning at most limit. Equal timestamps are ordered by id.
func (s *Store) List(ctx context.Context, scope Scope, limit, offset int) ([]*Memory, error) {
	all, err := s.collect(ctx, scope)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b *Memory) int { return -compareRecency(a, b) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*Memory{}, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListAll returns every memory in scope in List order.
func (s *Store) ListAll(ctx context.Context, scope Scope) ([]*Memory, error) {
	return s.List(ctx, scope, math.MaxInt, 0)
}

func (s *Store) collect(ctx context.Context, scope Scope) ([]*Memory, error) {
	if scope.Kind == KindSession {
		out := make([]*Memory, 0, len(s.session))
		for _, m := range s.session {
			out = append(out, m.Clone())
		}
		return out, nil
	}

	e, err := s.backend(scope, false)
	if err != nil {
		return nil, err
	}
	out := []*Memory{}
	if e == nil {
		return out, nil
	}
	err = e.Scan(ctx, func(_, value []byte) error {
		m, err := decode(value, scope)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			return nil, err
		}
		return nil, storageErr("scan", err)
	}
	return out, nil
}

// Stats counts the memories in scope.
func (s *Store) Stats(ctx context.Context, scope Scope) (Stats, error) {
	if scope.Kind == KindSession {
		return Stats{TotalMemories: len(s.session), Scope: scope}, nil
	}

	e, err := s.backend(scope, false)
	if err != nil {
		return Stats{}, err
	}
	if e == nil {
		return Stats{Scope: scope}, nil
	}
	n, err := e.Len(ctx)
	if err != nil {
		return Stats{}, storageErr("count", err)
	}
	return Stats{TotalMemories: n, Scope: scope}, nil
}

// ClearSession drops every session memory and returns their ids in sorted
// order. Project and global backends are untouched.
func (s *Store) ClearSession() []string {
	ids := make([]string, 0, len(s.session))
	for id := range s.session {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	clear(s.session)
	return ids
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// compareRecency orders a before b when a was created earlier; equal
// timestamps fall back to reverse id order so that the descending sort in
// List yields ascending ids.
func compareRecency(a, b *Memory) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// decode unmarshals a stored record. The backend a record came from is the
// authority on its scope.
func decode(data []byte, scope Scope) (*Memory, error) {
	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, storageErr("decode memory", err)
	}
	m.Scope = scope
	if m.Metadata.Tags == nil {
		m.Metadata.Tags = []string{}
	}
	return &m, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
