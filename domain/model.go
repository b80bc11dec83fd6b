package domain

import "fmt"

// EmbeddingModel identifies one of the supported embedding models. Each model
// carries a fixed vector dimensionality and the name of the storage collection
// chunks of that width are routed to.
type EmbeddingModel int

const (
	// ModelSmall is OpenAI's text-embedding-3-small (1536 dimensions).
	ModelSmall EmbeddingModel = iota
	// ModelLarge is OpenAI's text-embedding-3-large (3072 dimensions).
	ModelLarge
)

// EmbeddingModels returns every supported model.
func EmbeddingModels() []EmbeddingModel {
	return []EmbeddingModel{ModelSmall, ModelLarge}
}

// ParseEmbeddingModel converts a model name into an EmbeddingModel.
// Both the full OpenAI model name and the short form are accepted.
func ParseEmbeddingModel(name string) (EmbeddingModel, error) {
	switch name {
	case "text-embedding-3-small", "small":
		return ModelSmall, nil
	case "text-embedding-3-large", "large":
		return ModelLarge, nil
	default:
		return 0, fmt.Errorf("unknown embedding model %q", name)
	}
}

// String returns the canonical model name.
func (m EmbeddingModel) String() string {
	switch m {
	case ModelSmall:
		return "text-embedding-3-small"
	case ModelLarge:
		return "text-embedding-3-large"
	}
	return fmt.Sprintf("EmbeddingModel(%d)", int(m))
}

// Dimensions returns the vector width the model produces.
func (m EmbeddingModel) Dimensions() int {
	switch m {
	case ModelSmall:
		return 1536
	case ModelLarge:
		return 3072
	}
	return 0
}

// Collection returns the name of the vector collection storing chunks
// embedded with this model. Collections are partitioned by vector width, so
// vectors of different sizes never share a collection.
func (m EmbeddingModel) Collection() string {
	return fmt.Sprintf("chunks_%d", m.Dimensions())
}
