package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

// mockEmbedder returns a deterministic vector per text (first component is
// the text length) and records every batch it receives.
type mockEmbedder struct {
	mu       sync.Mutex
	dims     int
	batches  [][]string
	embedErr error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) GenerateEmbeddings(_ context.Context, texts []string, _ domain.EmbeddingModel) ([]domain.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}

	m.batches = append(m.batches, texts)
	embeddings := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		vec := make(domain.Embedding, m.dims)
		vec[0] = float32(len(text))
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string, model domain.EmbeddingModel) (domain.Embedding, error) {
	embeddings, err := m.GenerateEmbeddings(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (m *mockEmbedder) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// mockVectorStore records inserts and deletes and serves canned search results.
type mockVectorStore struct {
	mu        sync.Mutex
	inserted  []domain.Chunk
	failTexts map[string]bool
	results   []domain.SearchResult
	searchErr error
	deleted   []string
	lastQuery struct {
		clientID string
		model    domain.EmbeddingModel
		limit    int
		domain   string
	}
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{failTexts: map[string]bool{}}
}

func (m *mockVectorStore) InsertChunk(_ context.Context, _ domain.EmbeddingModel, chunk domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failTexts[chunk.Text] {
		return errors.New("insert failed")
	}
	m.inserted = append(m.inserted, chunk)
	return nil
}

func (m *mockVectorStore) SearchChunks(_ context.Context, clientID string, model domain.EmbeddingModel, _ domain.Embedding, limit int, domainFilter string) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastQuery.clientID = clientID
	m.lastQuery.model = model
	m.lastQuery.limit = limit
	m.lastQuery.domain = domainFilter

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockVectorStore) DeleteClientChunks(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, clientID)
	return nil
}

func (m *mockVectorStore) insertedChunks() []domain.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Chunk, len(m.inserted))
	copy(out, m.inserted)
	return out
}

func testClient() *domain.Client {
	return &domain.Client{
		ID:         "client-1",
		Name:       "Acme",
		MainDomain: "example.com",
		Model:      domain.ModelSmall,
	}
}

// --- Tests ---

func TestIngestionService_IngestText_EmptyText(t *testing.T) {
	embedder := newMockEmbedder(4)
	store := newMockVectorStore()
	service := NewIngestionService(domain.NewTextChunker(), embedder, store)

	result, err := service.IngestText(context.Background(), testClient(), "https://example.com/empty", "example.com", "   \n ")

	require.NoError(t, err)
	assert.Equal(t, IngestResult{}, result)
	assert.Zero(t, embedder.batchCount(), "no embedding call expected for empty text")
	assert.Empty(t, store.insertedChunks())
}

func TestIngestionService_IngestText_StoresAllChunks(t *testing.T) {
	embedder := newMockEmbedder(4)
	store := newMockVectorStore()
	chunker := domain.NewTextChunker(domain.WithChunkSize(50), domain.WithOverlap(10))
	service := NewIngestionService(chunker, embedder, store)

	text := strings.Repeat("Every page of the handbook gets indexed. ", 6)
	result, err := service.IngestText(context.Background(), testClient(), "https://example.com/handbook", "example.com", text)

	require.NoError(t, err)
	require.Greater(t, result.ChunksCreated, 1)
	assert.Equal(t, result.ChunksCreated, result.ChunksStored)
	assert.Equal(t, 1, embedder.batchCount(), "all chunks must be embedded in one batched call")

	inserted := store.insertedChunks()
	require.Len(t, inserted, result.ChunksCreated)
	for i, chunk := range inserted {
		assert.NotEmpty(t, chunk.ID)
		assert.Equal(t, "client-1", chunk.ClientID)
		assert.Equal(t, "https://example.com/handbook", chunk.URL)
		assert.Equal(t, "example.com", chunk.Domain)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.False(t, chunk.CreatedAt.IsZero())
		require.Len(t, chunk.Embedding, 4)
		assert.Equal(t, float32(len(chunk.Text)), chunk.Embedding[0], "embedding must stay paired with its chunk")
	}
}

func TestIngestionService_IngestText_EmbeddingErrorFailsSource(t *testing.T) {
	embedder := newMockEmbedder(4)
	embedder.embedErr = errors.New("embedding backend down")
	store := newMockVectorStore()
	service := NewIngestionService(domain.NewTextChunker(domain.WithChunkSize(50), domain.WithOverlap(10)), embedder, store)

	text := strings.Repeat("Every page of the handbook gets indexed. ", 6)
	result, err := service.IngestText(context.Background(), testClient(), "https://example.com/handbook", "example.com", text)

	require.Error(t, err)
	assert.ErrorIs(t, err, embedder.embedErr)
	assert.Greater(t, result.ChunksCreated, 0)
	assert.Zero(t, result.ChunksStored)
	assert.Empty(t, store.insertedChunks(), "nothing may be stored when embedding fails")
}

func TestIngestionService_IngestText_InsertFailureSkipsChunk(t *testing.T) {
	embedder := newMockEmbedder(4)
	store := newMockVectorStore()
	chunker := domain.NewTextChunker(domain.WithChunkSize(50), domain.WithOverlap(10))
	service := NewIngestionService(chunker, embedder, store)

	text := strings.Repeat("Every page of the handbook gets indexed. ", 6)
	expected := chunker.Chunk(text, "https://example.com/handbook", "example.com")
	require.Greater(t, len(expected), 2)
	store.failTexts[expected[1].Text] = true

	result, err := service.IngestText(context.Background(), testClient(), "https://example.com/handbook", "example.com", text)

	require.NoError(t, err, "a single failed insert must not fail the source")
	assert.Equal(t, len(expected), result.ChunksCreated)
	assert.Equal(t, len(expected)-1, result.ChunksStored)

	for _, chunk := range store.insertedChunks() {
		assert.NotEqual(t, expected[1].Text, chunk.Text)
	}
}
