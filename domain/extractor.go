package domain

// TextExtractor defines the interface for converting an uploaded file into
// plain text. The filename's extension selects the extraction strategy.
type TextExtractor interface {
	Extract(filename string, content []byte) (string, error)
}
