package domain

import "time"

// Chunk represents a stored fragment of a client's content with its metadata
// and embedding. Chunks are immutable once stored; re-ingesting a URL appends
// new chunks instead of updating old ones.
type Chunk struct {
	ID         string    `json:"id"`          // Unique identifier (e.g., UUID)
	ClientID   string    `json:"client_id"`   // Owning client
	URL        string    `json:"url"`         // Source page or uploaded file the text came from
	Domain     string    `json:"domain"`      // Host of the source
	ChunkIndex int       `json:"chunk_index"` // Position within the source text (0-based)
	Text       string    `json:"text"`        // The chunk content
	Embedding  Embedding `json:"embedding"`   // Vector embedding of the text
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult is one ranked hit from a similarity query.
type SearchResult struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Score      float32   `json:"score"` // Cosine similarity, higher is closer
	CreatedAt  time.Time `json:"created_at"`
}
