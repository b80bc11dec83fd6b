package domain

import (
	"fmt"
	"strings"
	"time"
)

// Client is a registered tenant. Every chunk the system stores belongs to
// exactly one client, and all of a client's content is embedded with the
// model chosen at registration.
type Client struct {
	ID         string         `json:"id"`          // Unique identifier (UUID)
	Name       string         `json:"name"`        // Display name
	MainDomain string         `json:"main_domain"` // Primary domain, unique across all clients
	Model      EmbeddingModel `json:"model"`       // Embedding model for all of the client's content
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks the fields required before a client can be persisted.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidClient)
	}
	if strings.TrimSpace(c.MainDomain) == "" {
		return fmt.Errorf("%w: main domain is required", ErrInvalidClient)
	}
	return nil
}

// NormalizeDomain lowercases a domain and strips any scheme, path, query or
// fragment so that domain equality compares bare hosts.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}
