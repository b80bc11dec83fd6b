package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "clients.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRegistryClient(id, name, mainDomain string) *domain.Client {
	return &domain.Client{
		ID:         id,
		Name:       name,
		MainDomain: mainDomain,
		Model:      domain.ModelLarge,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSQLiteStore_CreateAndGetClient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client := testRegistryClient("c-1", "Acme", "acme.example.com")
	require.NoError(t, store.CreateClient(ctx, client))

	got, err := store.GetClient(ctx, "c-1")
	require.NoError(t, err)

	assert.Equal(t, client.ID, got.ID)
	assert.Equal(t, client.Name, got.Name)
	assert.Equal(t, client.MainDomain, got.MainDomain)
	assert.Equal(t, domain.ModelLarge, got.Model, "the model choice survives the round trip")
	assert.WithinDuration(t, client.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLiteStore_CreateClient_DuplicateDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateClient(ctx, testRegistryClient("c-1", "Acme", "acme.example.com")))

	err := store.CreateClient(ctx, testRegistryClient("c-2", "Copycat", "acme.example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateDomain)

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1, "a rejected insert leaves no partial state")
}

func TestSQLiteStore_GetClient_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetClient(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestSQLiteStore_GetClientByDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateClient(ctx, testRegistryClient("c-1", "Acme", "acme.example.com")))

	got, err := store.GetClientByDomain(ctx, "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	_, err = store.GetClientByDomain(ctx, "nobody.example.com")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestSQLiteStore_ListClients_OrderedByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	second := testRegistryClient("c-2", "Second", "second.example.com")
	second.CreatedAt = base.Add(-1 * time.Hour)
	third := testRegistryClient("c-3", "Third", "third.example.com")
	third.CreatedAt = base
	first := testRegistryClient("c-1", "First", "first.example.com")
	first.CreatedAt = base.Add(-2 * time.Hour)

	// Insert out of order
	require.NoError(t, store.CreateClient(ctx, second))
	require.NoError(t, store.CreateClient(ctx, third))
	require.NoError(t, store.CreateClient(ctx, first))

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "c-1", clients[0].ID)
	assert.Equal(t, "c-2", clients[1].ID)
	assert.Equal(t, "c-3", clients[2].ID)
}

func TestSQLiteStore_ListClients_Empty(t *testing.T) {
	store := newTestStore(t)

	clients, err := store.ListClients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestSQLiteStore_DeleteClient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateClient(ctx, testRegistryClient("c-1", "Acme", "acme.example.com")))
	require.NoError(t, store.DeleteClient(ctx, "c-1"))

	_, err := store.GetClient(ctx, "c-1")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)

	// Deleting an unknown ID is a no-op
	require.NoError(t, store.DeleteClient(ctx, "c-1"))
}

func TestSQLiteStore_ReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateClient(ctx, testRegistryClient("c-1", "Acme", "acme.example.com")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, path, reopened.Path())
}
