package domain

import "context"

// Embedding represents a numerical vector representation of text.
type Embedding []float32

// EmbeddingClient defines the interface for generating embeddings from text.
type EmbeddingClient interface {
	// GenerateEmbeddings generates one embedding per input text in a single
	// batched request, using the given model. Every returned vector's length
	// equals the model's declared dimension.
	GenerateEmbeddings(ctx context.Context, texts []string, model EmbeddingModel) ([]Embedding, error)
	// GenerateEmbedding generates an embedding for a single text.
	GenerateEmbedding(ctx context.Context, text string, model EmbeddingModel) (Embedding, error)
}
