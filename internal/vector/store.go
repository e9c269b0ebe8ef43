// Package vector is a small local vector store whose documents are embedded
// with an embedding driver.
package vector

import (
	"context"

	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/embedding"
)

// Store abstracts vector storage with built-in embedding support.
// Implementations handle both embedding generation and storage.
type Store interface {
	// Upsert embeds and stores text under id, replacing any previous
	// document with the same id. Returns the content hash.
	Upsert(ctx context.Context, id, text string, meta map[string]string) (contentHash string, err error)

	// Query finds the n documents most similar to text whose similarity is
	// at least minScore.
	Query(ctx context.Context, text string, n int, minScore float32) ([]Hit, error)

	// Delete removes documents by id.
	Delete(ctx context.Context, ids ...string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Hit is a query result with its similarity score.
type Hit struct {
	ID          string
	Score       float32 // Cosine similarity
	Content     string
	ContentHash string
	Metadata    map[string]string
}

// New creates a Store backed by chromem-go.
func New(cfg config.VectorConfig, driver embedding.Driver) (Store, error) {
	return NewLocalStore(cfg, driver)
}
