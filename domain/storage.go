package domain

import "context"

// ClientStore defines the interface for the client registry.
type ClientStore interface {
	// CreateClient persists a new client. It returns ErrDuplicateDomain when
	// another client already owns the main domain, leaving no partial state.
	CreateClient(ctx context.Context, client *Client) error
	// GetClient returns the client with the given ID, or ErrClientNotFound.
	GetClient(ctx context.Context, id string) (*Client, error)
	// GetClientByDomain returns the client owning the main domain, or ErrClientNotFound.
	GetClientByDomain(ctx context.Context, domain string) (*Client, error)
	// ListClients returns all registered clients.
	ListClients(ctx context.Context) ([]Client, error)
	// DeleteClient removes the client record. Deleting an unknown ID is a no-op.
	DeleteClient(ctx context.Context, id string) error
}

// VectorStore defines the interface for interacting with a vector database.
type VectorStore interface {
	// InsertChunk stores one embedded chunk in the collection selected by the
	// model's dimensionality. Each insert fails independently.
	InsertChunk(ctx context.Context, model EmbeddingModel, chunk Chunk) error
	// SearchChunks returns up to limit chunks of the given client ranked by
	// descending similarity to the query embedding. A non-empty domain
	// restricts results to sources on that host.
	SearchChunks(ctx context.Context, clientID string, model EmbeddingModel, query Embedding, limit int, domain string) ([]SearchResult, error)
	// DeleteClientChunks removes every chunk belonging to the client across
	// all model collections. Unknown clients delete nothing and return nil.
	DeleteClientChunks(ctx context.Context, clientID string) error
}
