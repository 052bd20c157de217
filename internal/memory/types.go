package memory

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ─── Scope ───────────────────────────────────────────────────────────────────

// ScopeKind names one of the three memory partitions.
type ScopeKind string

// Scope kinds, also the accepted wire names.
const (
	KindSession ScopeKind = "session"
	KindProject ScopeKind = "project"
	KindGlobal  ScopeKind = "global"
)

// ScopeValues returns the enum values for MCP tool definitions.
func ScopeValues() []string {
	return []string{string(KindSession), string(KindProject), string(KindGlobal)}
}

var (
	// ErrInvalidScope is returned for scope names other than session, project, global.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrMissingProjectPath is returned when project scope is requested without a path.
	ErrMissingProjectPath = errors.New("project_path required for project scope")
)

// Scope selects the storage backend and key space of a memory. Path is set
// only for KindProject.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	Path string    `json:"path,omitempty"`
}

// Session is the ephemeral, per-process scope.
func Session() Scope { return Scope{Kind: KindSession} }

// Global is the scope shared by every project.
func Global() Scope { return Scope{Kind: KindGlobal} }

// Project is the scope rooted at a project directory.
func Project(path string) Scope {
	return Scope{Kind: KindProject, Path: filepath.Clean(path)}
}

// ParseScope converts the wire representation into a Scope.
func ParseScope(name, projectPath string) (Scope, error) {
	switch ScopeKind(name) {
	case KindSession:
		return Session(), nil
	case KindGlobal:
		return Global(), nil
	case KindProject:
		if projectPath == "" {
			return Scope{}, ErrMissingProjectPath
		}
		return Project(projectPath), nil
	default:
		return Scope{}, fmt.Errorf("%w: %q (use session, project, or global)", ErrInvalidScope, name)
	}
}

// String renders the scope for logs and CLI output.
func (s Scope) String() string {
	if s.Kind == KindProject {
		return "project:" + s.Path
	}
	return string(s.Kind)
}

// IsPersistent reports whether the scope outlives the process.
func (s Scope) IsPersistent() bool {
	return s.Kind != KindSession
}

// ─── Memory ──────────────────────────────────────────────────────────────────

// Metadata carries tags and provenance for a memory. ChunkIndex, ParentID and
// ASTNodeType are reserved for chunked source memories.
type Metadata struct {
	Tags            []string       `json:"tags"`
	SourceFile      *string        `json:"source_file,omitempty"`
	Language        *string        `json:"language,omitempty"`
	ChunkIndex      *int           `json:"chunk_index,omitempty"`
	ParentID        *string        `json:"parent_id,omitempty"`
	ASTNodeType     *string        `json:"ast_node_type,omitempty"`
	ImportanceScore float64        `json:"importance_score"`
	Custom          map[string]any `json:"custom,omitempty"`
}

// DefaultMetadata returns metadata with no tags and importance 1.0.
func DefaultMetadata() Metadata {
	return Metadata{
		Tags:            []string{},
		ImportanceScore: 1.0,
	}
}

// Memory is a single stored text record.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
	Scope     Scope     `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// now is a package-level var so tests can control timestamps.
var now = func() time.Time { return time.Now().UTC() }

// NewMemory creates a memory with a fresh id and matching timestamps.
func NewMemory(content string, scope Scope, md Metadata) *Memory {
	if md.Tags == nil {
		md.Tags = []string{}
	}
	ts := now()
	return &Memory{
		ID:        uuid.NewString(),
		Content:   content,
		Embedding: []float32{},
		Metadata:  md,
		Scope:     scope,
		CreatedAt: ts,
		UpdatedAt: ts,
		Version:   1,
	}
}

// Clone returns a copy that shares no slices or maps with m.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	c := *m
	c.Embedding = slices.Clone(m.Embedding)
	c.Metadata.Tags = slices.Clone(m.Metadata.Tags)
	c.Metadata.Custom = maps.Clone(m.Metadata.Custom)
	return &c
}

// ─── Results ─────────────────────────────────────────────────────────────────

// SearchResult is a ranked memory returned by a search.
type SearchResult struct {
	Memory *Memory `json:"memory"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// Stats holds the record count of one scope.
type Stats struct {
	TotalMemories int   `json:"total_memories"`
	Scope         Scope `json:"scope"`
}
