package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/google/uuid"
)

// ClientService manages the tenant registry and keeps the vector store in
// step with it on deletes.
type ClientService struct {
	registry    domain.ClientStore
	vectorStore domain.VectorStore
}

// NewClientService creates a new ClientService.
func NewClientService(registry domain.ClientStore, vectorStore domain.VectorStore) *ClientService {
	return &ClientService{
		registry:    registry,
		vectorStore: vectorStore,
	}
}

// CreateClient registers a new client. The main domain is normalized before
// the uniqueness check, so "https://Example.com/" and "example.com" collide.
func (s *ClientService) CreateClient(ctx context.Context, name, mainDomain string, model domain.EmbeddingModel) (*domain.Client, error) {
	client := &domain.Client{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		MainDomain: domain.NormalizeDomain(mainDomain),
		Model:      model,
		CreatedAt:  time.Now().UTC(),
	}

	if err := client.Validate(); err != nil {
		return nil, err
	}

	if err := s.registry.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	return client, nil
}

// GetClient returns the client with the given ID.
func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.registry.GetClient(ctx, id)
}

// ListClients returns all registered clients.
func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.registry.ListClients(ctx)
}

// DeleteClient removes the client's chunks and then its registry record.
// Deleting a client that is already gone is a no-op.
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	if err := s.vectorStore.DeleteClientChunks(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client chunks: %w", err)
	}
	return s.registry.DeleteClient(ctx, id)
}
