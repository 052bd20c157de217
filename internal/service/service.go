// Package service owns the scoped store and the ranking index and keeps the
// two consistent. One Service is created per process and passed to every
// request handler; it holds no locks and expects a single caller goroutine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HendryAvila/rag-mcp/internal/logging"
	"github.com/HendryAvila/rag-mcp/internal/memory"
	"github.com/HendryAvila/rag-mcp/internal/search"
	"github.com/HendryAvila/rag-mcp/internal/semantic"
)

// ErrEmptyContent is returned when asked to remember blank text.
var ErrEmptyContent = errors.New("content must not be empty")

// DefaultK is the result count used when a search does not ask for one.
const DefaultK = 5

// Config configures New.
type Config struct {
	Store    memory.Config
	Search   search.Config
	DefaultK int
	Logger   *slog.Logger

	// Embedder and Chunker are held for semantic retrieval; nil selects the
	// Nop implementations.
	Embedder semantic.Embedder
	Chunker  semantic.Chunker
}

// Service is the single owned context of the server.
type Service struct {
	store    *memory.Store
	index    *search.Index
	defaultK int
	log      *slog.Logger
	embedder semantic.Embedder
	chunker  semantic.Chunker
}

// New creates a Service. Session memories evicted by the store cap are
// removed from the index as well.
func New(cfg Config) *Service {
	s := &Service{
		index:    search.NewIndex(cfg.Search),
		defaultK: cfg.DefaultK,
		log:      cfg.Logger,
		embedder: cfg.Embedder,
		chunker:  cfg.Chunker,
	}
	if s.defaultK <= 0 {
		s.defaultK = DefaultK
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.embedder == nil {
		s.embedder = semantic.NopEmbedder{}
	}
	if s.chunker == nil {
		s.chunker = semantic.NopChunker{}
	}

	onEvict := cfg.Store.OnEvict
	cfg.Store.OnEvict = func(id string) {
		s.index.RemoveMemory(id)
		s.log.Debug("session memory evicted", "id", id)
		if onEvict != nil {
			onEvict(id)
		}
	}
	s.store = memory.NewStore(cfg.Store)
	return s
}

// Close releases every open backend.
func (s *Service) Close() error {
	return s.store.Close()
}

// Store exposes the underlying scoped store.
func (s *Service) Store() *memory.Store { return s.store }

// Embedder returns the configured embedder.
func (s *Service) Embedder() semantic.Embedder { return s.embedder }

// Chunker returns the configured chunker.
func (s *Service) Chunker() semantic.Chunker { return s.chunker }

// DefaultK returns the configured default result count.
func (s *Service) DefaultK() int { return s.defaultK }

// Remember stores content under scope and indexes it.
func (s *Service) Remember(ctx context.Context, content string, scope memory.Scope, tags []string) (*memory.Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	md := memory.DefaultMetadata()
	if tags != nil {
		md.Tags = tags
	}
	m := memory.NewMemory(content, scope, md)

	if err := s.store.Store(ctx, m); err != nil {
		return nil, fmt.Errorf("remember: %w", err)
	}
	s.index.IndexMemory(m)
	s.log.Debug("memory stored", "id", m.ID, "scope", scope.String())
	return m, nil
}

// Recall ranks every memory in scope against query and returns at most k
// results; k <= 0 selects the default. Candidates not yet in the index,
// such as records written by another process, are indexed first.
func (s *Service) Recall(ctx context.Context, query string, scope memory.Scope, k int) ([]memory.SearchResult, error) {
	if k <= 0 {
		k = s.defaultK
	}
	candidates, err := s.store.ListAll(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	caught := 0
	for _, m := range candidates {
		if !s.index.Contains(m.ID) {
			s.index.IndexMemory(m)
			caught++
		}
	}
	if caught > 0 {
		s.log.Debug("indexed unseen memories", "count", caught, "scope", scope.String())
	}

	return s.index.Search(query, candidates, k), nil
}

// List pages through scope, most recent first.
func (s *Service) List(ctx context.Context, scope memory.Scope, limit, offset int) ([]*memory.Memory, error) {
	list, err := s.store.List(ctx, scope, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return list, nil
}

// Get returns a single memory.
func (s *Service) Get(ctx context.Context, id string, scope memory.Scope) (*memory.Memory, bool, error) {
	m, ok, err := s.store.Get(ctx, id, scope)
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	return m, ok, nil
}

// Forget deletes id from scope and from the index. It reports whether the
// memory existed.
func (s *Service) Forget(ctx context.Context, id string, scope memory.Scope) (bool, error) {
	deleted, err := s.store.Delete(ctx, id, scope)
	if err != nil {
		return deleted, fmt.Errorf("forget: %w", err)
	}
	if deleted {
		s.index.RemoveMemory(id)
		s.log.Debug("memory deleted", "id", id, "scope", scope.String())
	}
	return deleted, nil
}

// ClearSession drops every session memory and its index entry. It returns
// the number of memories removed.
func (s *Service) ClearSession() int {
	ids := s.store.ClearSession()
	for _, id := range ids {
		s.index.RemoveMemory(id)
	}
	s.log.Debug("session cleared", "count", len(ids))
	return len(ids)
}

// Stats counts the memories in scope.
func (s *Service) Stats(ctx context.Context, scope memory.Scope) (memory.Stats, error) {
	st, err := s.store.Stats(ctx, scope)
	if err != nil {
		return memory.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// IndexStats reports the ranking index statistics.
func (s *Service) IndexStats() search.Stats {
	return s.index.Stats()
}

// Rebuild discards the index and rebuilds it from a full listing of scopes.
// The current session is always included.
func (s *Service) Rebuild(ctx context.Context, scopes ...memory.Scope) error {
	var all []*memory.Memory
	seen := map[memory.Scope]bool{}
	for _, scope := range append([]memory.Scope{memory.Session()}, scopes...) {
		if seen[scope] {
			continue
		}
		seen[scope] = true

		list, err := s.store.ListAll(ctx, scope)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", scope, err)
		}
		all = append(all, list...)
	}
	s.index.ReindexAll(all)
	s.log.Info("index rebuilt", "documents", len(all))
	return nil
}
