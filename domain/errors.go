package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidClient indicates a client record is missing required fields.
	ErrInvalidClient = errors.New("invalid client")
	// ErrDuplicateDomain indicates another client already owns the main domain.
	ErrDuplicateDomain = errors.New("main domain already registered")
	// ErrClientNotFound indicates no client exists for the given identifier.
	ErrClientNotFound = errors.New("client not found")
	// ErrUnsupportedDocument indicates an uploaded file could not be converted to text.
	ErrUnsupportedDocument = errors.New("unsupported document")
)

// DimensionError reports an embedding whose length does not match the model's
// declared dimension. It is never retried: the provider would keep returning
// vectors of the same width, and storing them would corrupt the vector index.
type DimensionError struct {
	Model EmbeddingModel
	Want  int
	Got   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch for %s: want %d, got %d", e.Model, e.Want, e.Got)
}
