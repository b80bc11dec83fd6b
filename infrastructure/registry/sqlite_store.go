// Package registry persists the client registry in SQLite.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS clients (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		main_domain TEXT NOT NULL UNIQUE,
		model       TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)
`

var _ domain.ClientStore = (*SQLiteStore)(nil)

// SQLiteStore is a SQLite-backed client registry. The UNIQUE constraint on
// main_domain is what enforces one client per registered domain.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the registry database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating clients table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CreateClient inserts a new client. A main domain that is already registered
// yields domain.ErrDuplicateDomain.
func (s *SQLiteStore) CreateClient(ctx context.Context, client *domain.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, main_domain, model, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, client.ID, client.Name, client.MainDomain, client.Model.String(), client.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateDomain, client.MainDomain)
		}
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

// GetClient retrieves a client by ID.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, main_domain, model, created_at
		FROM clients WHERE id = ?
	`, id)

	return scanClient(row)
}

// GetClientByDomain retrieves the client that registered the given main domain.
func (s *SQLiteStore) GetClientByDomain(ctx context.Context, mainDomain string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, main_domain, model, created_at
		FROM clients WHERE main_domain = ?
	`, mainDomain)

	return scanClient(row)
}

// ListClients returns all registered clients ordered by creation time.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, main_domain, model, created_at
		FROM clients ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var client domain.Client
		var model string
		var createdAt sql.NullTime
		if err := rows.Scan(&client.ID, &client.Name, &client.MainDomain, &model, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		client.Model, err = domain.ParseEmbeddingModel(model)
		if err != nil {
			return nil, fmt.Errorf("parsing stored model %q: %w", model, err)
		}
		if createdAt.Valid {
			client.CreatedAt = createdAt.Time
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

// DeleteClient removes a client by ID. Deleting an unknown ID is a no-op.
func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	return nil
}

// scanClient scans a single client row.
func scanClient(row *sql.Row) (*domain.Client, error) {
	var client domain.Client
	var model string
	var createdAt sql.NullTime

	if err := row.Scan(&client.ID, &client.Name, &client.MainDomain, &model, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("scanning client: %w", err)
	}

	parsed, err := domain.ParseEmbeddingModel(model)
	if err != nil {
		return nil, fmt.Errorf("parsing stored model %q: %w", model, err)
	}
	client.Model = parsed

	if createdAt.Valid {
		client.CreatedAt = createdAt.Time
	}

	return &client, nil
}
