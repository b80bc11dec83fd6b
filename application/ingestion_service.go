package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/google/uuid"
)

// IngestionService handles the process of chunking, embedding, and storing text.
type IngestionService struct {
	chunker     domain.Chunker
	embedder    domain.EmbeddingClient
	vectorStore domain.VectorStore
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(chunker domain.Chunker, embedder domain.EmbeddingClient, vectorStore domain.VectorStore) *IngestionService {
	return &IngestionService{
		chunker:     chunker,
		embedder:    embedder,
		vectorStore: vectorStore,
	}
}

// IngestResult reports how much of a source's text made it into storage.
type IngestResult struct {
	ChunksCreated int // chunks produced by the chunker
	ChunksStored  int // insert attempts that did not fail
}

// IngestText chunks the text, embeds all chunks in one batched call using the
// client's model, and inserts them sequentially. A failed insert is logged
// and skips only that chunk; an embedding failure fails the whole source.
func (s *IngestionService) IngestText(ctx context.Context, client *domain.Client, sourceURL, sourceDomain, text string) (IngestResult, error) {
	chunks := s.chunker.Chunk(text, sourceURL, sourceDomain)
	if len(chunks) == 0 {
		return IngestResult{}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts, client.Model)
	if err != nil {
		return IngestResult{ChunksCreated: len(chunks)}, fmt.Errorf("failed to generate embeddings for %s: %w", sourceURL, err)
	}
	if len(embeddings) != len(chunks) {
		return IngestResult{ChunksCreated: len(chunks)}, fmt.Errorf("mismatch between number of chunks (%d) and embeddings (%d)", len(chunks), len(embeddings))
	}

	now := time.Now().UTC()
	stored := 0
	for i := range chunks {
		chunks[i].ID = uuid.New().String()
		chunks[i].ClientID = client.ID
		chunks[i].Embedding = embeddings[i]
		chunks[i].CreatedAt = now

		if err := s.vectorStore.InsertChunk(ctx, client.Model, chunks[i]); err != nil {
			log.Printf("Error storing chunk %d of %s: %v\n", chunks[i].ChunkIndex, sourceURL, err)
			continue
		}
		stored++
	}

	return IngestResult{ChunksCreated: len(chunks), ChunksStored: stored}, nil
}
