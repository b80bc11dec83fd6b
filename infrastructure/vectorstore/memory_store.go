package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/google/uuid"
)

var _ domain.VectorStore = (*MemoryStore)(nil)

// MemoryStore implements the domain.VectorStore interface in process memory.
// It keeps the same per-model partitioning as the Qdrant client and is meant
// for local runs and tests, not for production data.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk // collection name -> stored chunks
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// InsertChunk adds a single chunk to the given model's partition.
func (s *MemoryStore) InsertChunk(_ context.Context, model domain.EmbeddingModel, chunk domain.Chunk) error {
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("chunk for %s has no embedding", chunk.URL)
	}
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection := model.Collection()
	s.chunks[collection] = append(s.chunks[collection], chunk)
	return nil
}

// SearchChunks ranks the client's chunks by cosine similarity to the query.
func (s *MemoryStore) SearchChunks(_ context.Context, clientID string, model domain.EmbeddingModel, query domain.Embedding, limit int, domainFilter string) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult
	for _, chunk := range s.chunks[model.Collection()] {
		if chunk.ClientID != clientID {
			continue
		}
		if domainFilter != "" && chunk.Domain != domainFilter {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:         chunk.ID,
			URL:        chunk.URL,
			ChunkIndex: chunk.ChunkIndex,
			Text:       chunk.Text,
			Score:      cosineSimilarity(query, chunk.Embedding),
			CreatedAt:  chunk.CreatedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteClientChunks removes every chunk of the client from all partitions.
func (s *MemoryStore) DeleteClientChunks(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for collection, chunks := range s.chunks {
		kept := chunks[:0]
		for _, chunk := range chunks {
			if chunk.ClientID != clientID {
				kept = append(kept, chunk)
			}
		}
		s.chunks[collection] = kept
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b domain.Embedding) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
