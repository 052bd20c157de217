package semantic

import (
	"context"
	"errors"
	"testing"
)

func TestNopImplementations(t *testing.T) {
	ctx := context.Background()

	var e Embedder = NopEmbedder{Dim: 384}
	if e.Dimension() != 384 {
		t.Errorf("Dimension() = %d, want 384", e.Dimension())
	}
	if _, err := e.Embed(ctx, "text"); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Embed error = %v, want ErrNotImplemented", err)
	}

	var c Chunker = NopChunker{Config: ChunkConfig{MaxChunkSize: 512, ChunkOverlap: 50}}
	chunks, err := c.Chunk(ctx, "fn main() {}", "rust")
	if !errors.Is(err, ErrNotImplemented) || chunks != nil {
		t.Errorf("Chunk = %v, %v; want nil, ErrNotImplemented", chunks, err)
	}
}
