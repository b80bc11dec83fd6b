package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
)

// defaultSearchLimit bounds result sets when the caller passes no limit.
const defaultSearchLimit = 5

// SearchService answers similarity queries over a client's stored chunks.
type SearchService struct {
	embedder     domain.EmbeddingClient
	vectorStore  domain.VectorStore
	defaultLimit int
}

// NewSearchService creates a new SearchService.
func NewSearchService(embedder domain.EmbeddingClient, vectorStore domain.VectorStore, defaultLimit int) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	return &SearchService{
		embedder:     embedder,
		vectorStore:  vectorStore,
		defaultLimit: defaultLimit,
	}
}

// Search embeds the query with a single call using the client's model and
// returns the closest chunks as ranked by the store. A non-empty domainFilter
// restricts results to that host; no re-ranking happens here.
func (s *SearchService) Search(ctx context.Context, client *domain.Client, query string, limit int, domainFilter string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query, client.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.vectorStore.SearchChunks(ctx, client.ID, client.Model, embedding, limit, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	return results, nil
}
