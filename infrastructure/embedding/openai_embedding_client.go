package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	openai "github.com/sashabaranov/go-openai"
)

// Default retry behaviour for rate-limit and server-side failures.
const (
	defaultMaxRetries = 3
	defaultRetryBase  = 200 * time.Millisecond
	retryMaxDelay     = 5 * time.Second
)

var _ domain.EmbeddingClient = (*OpenAIEmbeddingClient)(nil)

// Config holds configuration for the OpenAI embedding client.
type Config struct {
	// APIKey is the OpenAI API key. When empty, the OPENAI_API_KEY
	// environment variable is used.
	APIKey string
	// BaseURL overrides the API base URL (for compatible APIs and tests).
	BaseURL string
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int
	// RetryBase is the first backoff delay; it doubles on every retry.
	RetryBase time.Duration
}

// OpenAIEmbeddingClient implements the domain.EmbeddingClient interface using the OpenAI API.
type OpenAIEmbeddingClient struct {
	client     *openai.Client
	maxRetries int
	retryBase  time.Duration
}

// NewOpenAIEmbeddingClient creates a new OpenAIEmbeddingClient.
func NewOpenAIEmbeddingClient(cfg Config) (*OpenAIEmbeddingClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbeddingClient{
		client:     openai.NewClientWithConfig(clientCfg),
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}, nil
}

// GenerateEmbeddings generates embeddings for the given texts in one batched
// request. Every returned vector is validated against the model's declared
// dimension; a mismatch yields a *domain.DimensionError and is never retried.
func (c *OpenAIEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string, model domain.EmbeddingModel) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openAIModel(model),
	}

	var resp openai.EmbeddingResponse
	err := c.withRetries(ctx, func() error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("mismatch between number of texts (%d) and embeddings (%d)", len(texts), len(resp.Data))
	}

	embeddings := make([]domain.Embedding, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding response index %d out of range", data.Index)
		}
		embeddings[data.Index] = domain.Embedding(data.Embedding)
	}

	want := model.Dimensions()
	for _, e := range embeddings {
		if len(e) != want {
			return nil, &domain.DimensionError{Model: model, Want: want, Got: len(e)}
		}
	}

	return embeddings, nil
}

// GenerateEmbedding generates an embedding for a single text.
func (c *OpenAIEmbeddingClient) GenerateEmbedding(ctx context.Context, text string, model domain.EmbeddingModel) (domain.Embedding, error) {
	embeddings, err := c.GenerateEmbeddings(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// withRetries runs call, retrying rate-limit and server-side failures with a
// doubling delay up to maxRetries. All other failures return immediately, and
// an exhausted retry budget returns the last provider failure.
func (c *OpenAIEmbeddingClient) withRetries(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil || !isRetryable(err) || attempt >= c.maxRetries {
			return err
		}

		delay := c.retryDelay(attempt)
		log.Printf("Embedding request failed (attempt %d/%d), retrying in %s: %v\n", attempt+1, c.maxRetries, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// retryDelay doubles the base delay per attempt, capped at retryMaxDelay.
func (c *OpenAIEmbeddingClient) retryDelay(attempt int) time.Duration {
	delay := c.retryBase << uint(attempt)
	if delay <= 0 || delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// isRetryable reports whether the failure is a rate limit or a server-side
// error worth retrying.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}

// openAIModel maps a domain model onto the go-openai model identifier.
func openAIModel(model domain.EmbeddingModel) openai.EmbeddingModel {
	switch model {
	case domain.ModelLarge:
		return openai.LargeEmbedding3
	default:
		return openai.SmallEmbedding3
	}
}
