// Package embedding provides drivers that turn text into vectors.
package embedding

import "context"

// Driver defines the interface for generating text embeddings.
type Driver interface {
	// EmbedChunk embeds a single chunk that fits the model's input budget.
	EmbedChunk(ctx context.Context, chunk string) ([]float32, error)

	// EmbedString embeds text of any length, splitting it into chunks when
	// it exceeds the model's input budget.
	EmbedString(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the size of the vectors produced.
	Dimensions() int

	// Model returns the embedding model identifier.
	Model() string
}
