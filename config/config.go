package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// CrawlerConfig bounds a crawl run.
type CrawlerConfig struct {
	MaxPages         int    `yaml:"max_pages"`
	MaxDepth         int    `yaml:"max_depth"`
	Concurrency      int    `yaml:"concurrency"`
	MinTextChars     int    `yaml:"min_text_chars"`
	UseSitemap       bool   `yaml:"use_sitemap"`
	WaitSelector     string `yaml:"wait_selector"`
	ReadyTimeoutSecs int    `yaml:"ready_timeout_secs"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs"`
	UserAgent        string `yaml:"user_agent"`
}

// EmbedderConfig configures the OpenAI embedding client.
type EmbedderConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	MaxRetries  int    `yaml:"max_retries"`
	RetryBaseMS int    `yaml:"retry_base_ms"`
}

// ChunkerConfig configures how cleaned text is split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Addr string `yaml:"addr"`
}

// RegistryConfig locates the client registry database.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig bounds similarity queries.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Crawler     CrawlerConfig     `yaml:"crawler"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Registry    RegistryConfig    `yaml:"registry"`
	Search      SearchConfig      `yaml:"search"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Crawler: CrawlerConfig{UseSitemap: true},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Crawler.MaxPages == 0 {
		cfg.Crawler.MaxPages = 50
	}
	if cfg.Crawler.MaxDepth == 0 {
		cfg.Crawler.MaxDepth = 2
	}
	if cfg.Crawler.Concurrency == 0 {
		cfg.Crawler.Concurrency = 4
	}
	if cfg.Crawler.MinTextChars == 0 {
		cfg.Crawler.MinTextChars = 200
	}
	if cfg.Crawler.ReadyTimeoutSecs == 0 {
		cfg.Crawler.ReadyTimeoutSecs = 5
	}
	if cfg.Crawler.FetchTimeoutSecs == 0 {
		cfg.Crawler.FetchTimeoutSecs = 20
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.MaxRetries == 0 {
		cfg.Embedder.MaxRetries = 3
	}
	if cfg.Embedder.RetryBaseMS == 0 {
		cfg.Embedder.RetryBaseMS = 200
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "clients.db"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
}
