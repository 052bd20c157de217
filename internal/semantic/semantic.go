// Package semantic declares the collaborators for embedding-based retrieval
// and syntax-aware chunking. Only the contracts exist; the shipped
// implementations report ErrNotImplemented. The service holds them but
// no request path calls them yet.
package semantic

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by the placeholder implementations.
var ErrNotImplemented = errors.New("semantic: not implemented")

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// SyntaxContext describes where a chunk sits in the parse tree of its source.
type SyntaxContext struct {
	NodeType      string   `json:"node_type"`
	ParentTypes   []string `json:"parent_types"`
	Depth         int      `json:"depth"`
	IsDeclaration bool     `json:"is_declaration"`
}

// Chunk is a contiguous byte range of a source file.
type Chunk struct {
	Content   string         `json:"content"`
	StartByte int            `json:"start_byte"`
	EndByte   int            `json:"end_byte"`
	Syntax    *SyntaxContext `json:"syntax,omitempty"`
}

// Chunker splits source code into ordered chunks. language may be empty.
type Chunker interface {
	Chunk(ctx context.Context, code, language string) ([]Chunk, error)
}

// ChunkConfig bounds chunk sizes, in bytes.
type ChunkConfig struct {
	MaxChunkSize int
	ChunkOverlap int
}

// NopEmbedder satisfies Embedder without producing vectors.
type NopEmbedder struct {
	Dim int
}

// Embed always fails with ErrNotImplemented.
func (NopEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrNotImplemented
}

// Dimension returns the configured vector size.
func (e NopEmbedder) Dimension() int { return e.Dim }

// NopChunker satisfies Chunker without splitting anything.
type NopChunker struct {
	Config ChunkConfig
}

// Chunk always fails with ErrNotImplemented.
func (NopChunker) Chunk(context.Context, string, string) ([]Chunk, error) {
	return nil, ErrNotImplemented
}

var (
	_ Embedder = NopEmbedder{}
	_ Chunker  = NopChunker{}
)
