package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/application"
	"github.com/AuronCrow10/CosloAI-v2-sub001/config"
	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
	"github.com/AuronCrow10/CosloAI-v2-sub001/infrastructure/embedding"
	"github.com/AuronCrow10/CosloAI-v2-sub001/infrastructure/extractor"
	"github.com/AuronCrow10/CosloAI-v2-sub001/infrastructure/fetcher"
	"github.com/AuronCrow10/CosloAI-v2-sub001/infrastructure/registry"
	"github.com/AuronCrow10/CosloAI-v2-sub001/infrastructure/vectorstore"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string

	clientService   *application.ClientService
	crawlerService  *application.CrawlerService
	searchService   *application.SearchService
	documentService *application.DocumentService

	closeRegistry func() error
)

var rootCmd = &cobra.Command{
	Use:   "cosloai",
	Short: "Crawl and index client sites for similarity search",
	Long: `cosloai manages per-client knowledge bases: it crawls a client's
site (or ingests uploaded documents), chunks and embeds the text, and answers
similarity queries scoped to that client.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if closeRegistry != nil {
			return closeRegistry()
		}
		return nil
	},
}

var createClientCmd = &cobra.Command{
	Use:   "create-client",
	Short: "Register a new client",
	RunE:  runCreateClient,
}

var listClientsCmd = &cobra.Command{
	Use:   "list-clients",
	Short: "List all registered clients",
	RunE:  runListClients,
}

var deleteClientCmd = &cobra.Command{
	Use:   "delete-client [client-id]",
	Short: "Delete a client and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteClient,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [client-id]",
	Short: "Crawl a client's site and index its pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawl,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [client-id] [file]",
	Short: "Extract and index an uploaded document",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

var searchCmd = &cobra.Command{
	Use:   "search [client-id] [query]",
	Short: "Search a client's indexed content",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

var (
	createName   string
	createDomain string
	createModel  string

	crawlURL string

	uploadDomain string

	searchLimit  int
	searchDomain string
	searchJSON   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")

	createClientCmd.Flags().StringVar(&createName, "name", "", "client name")
	createClientCmd.Flags().StringVar(&createDomain, "domain", "", "client main domain")
	createClientCmd.Flags().StringVar(&createModel, "model", "small", "embedding model (small or large)")

	crawlCmd.Flags().StringVar(&crawlURL, "url", "", "start URL (defaults to the client's main domain)")

	uploadCmd.Flags().StringVar(&uploadDomain, "domain", "", "domain to file the chunks under (defaults to the client's main domain)")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().StringVar(&searchDomain, "domain", "", "restrict results to one domain")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")

	rootCmd.AddCommand(createClientCmd, listClientsCmd, deleteClientCmd, crawlCmd, uploadCmd, searchCmd)
}

// initServices loads configuration and wires every service the commands use.
func initServices(*cobra.Command, []string) error {
	// Load .env file if present; a missing file is fine
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reg, err := registry.NewSQLiteStore(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("failed to open client registry: %w", err)
	}
	closeRegistry = reg.Close

	var store domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory":
		store = vectorstore.NewMemoryStore()
	default:
		addr := ""
		if cfg.VectorStore.Qdrant != nil {
			addr = cfg.VectorStore.Qdrant.Addr
		}
		store, err = vectorstore.NewQdrantClient(addr)
		if err != nil {
			return fmt.Errorf("failed to connect vector store: %w", err)
		}
	}

	embedder, err := embedding.NewOpenAIEmbeddingClient(embedding.Config{
		APIKey:     os.Getenv(cfg.Embedder.APIKeyEnv),
		BaseURL:    cfg.Embedder.BaseURL,
		MaxRetries: cfg.Embedder.MaxRetries,
		RetryBase:  time.Duration(cfg.Embedder.RetryBaseMS) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	chunker := domain.NewTextChunker(
		domain.WithChunkSize(cfg.Chunker.Size),
		domain.WithOverlap(cfg.Chunker.Overlap),
	)
	parser := domain.NewHTMLPageParser()
	pageFetcher := fetcher.NewHTTPFetcher(time.Duration(cfg.Crawler.FetchTimeoutSecs)*time.Second, cfg.Crawler.UserAgent)

	ingestor := application.NewIngestionService(chunker, embedder, store)

	clientService = application.NewClientService(reg, store)
	crawlerService = application.NewCrawlerService(pageFetcher, parser, ingestor, application.CrawlConfig{
		MaxPages:     cfg.Crawler.MaxPages,
		MaxDepth:     cfg.Crawler.MaxDepth,
		Concurrency:  cfg.Crawler.Concurrency,
		MinTextChars: cfg.Crawler.MinTextChars,
		UseSitemap:   cfg.Crawler.UseSitemap,
		WaitSelector: cfg.Crawler.WaitSelector,
		ReadyTimeout: time.Duration(cfg.Crawler.ReadyTimeoutSecs) * time.Second,
	})
	searchService = application.NewSearchService(embedder, store, cfg.Search.DefaultLimit)
	documentService = application.NewDocumentService(extractor.NewDocumentExtractor(), ingestor, cfg.Crawler.MinTextChars)

	return nil
}

func runCreateClient(cmd *cobra.Command, _ []string) error {
	model, err := domain.ParseEmbeddingModel(createModel)
	if err != nil {
		return err
	}

	client, err := clientService.CreateClient(context.Background(), createName, createDomain, model)
	if err != nil {
		return err
	}

	cmd.Printf("Created client %s (%s) for domain %s using model %s\n", client.ID, client.Name, client.MainDomain, client.Model)
	return nil
}

func runListClients(cmd *cobra.Command, _ []string) error {
	clients, err := clientService.ListClients(context.Background())
	if err != nil {
		return err
	}

	if len(clients) == 0 {
		cmd.Println("No clients registered.")
		return nil
	}

	for _, client := range clients {
		cmd.Printf("%s  %-20s %-30s %s\n", client.ID, client.Name, client.MainDomain, client.Model)
	}
	return nil
}

func runDeleteClient(cmd *cobra.Command, args []string) error {
	if err := clientService.DeleteClient(context.Background(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted client %s\n", args[0])
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := clientService.GetClient(ctx, args[0])
	if err != nil {
		return err
	}

	result, err := crawlerService.Crawl(ctx, client, crawlURL)
	if err != nil {
		return err
	}

	cmd.Printf("Crawl complete: %d pages processed, %d chunks stored\n", result.PagesProcessed, result.ChunksStored)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := clientService.GetClient(ctx, args[0])
	if err != nil {
		return err
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[1], err)
	}

	result, err := documentService.UploadDocument(ctx, client, filepath.Base(args[1]), uploadDomain, content)
	if err != nil {
		return err
	}

	if result.Skipped {
		cmd.Printf("Skipped %s: extracted text too short\n", args[1])
		return nil
	}

	cmd.Printf("Upload complete: %d chunks created, %d chunks stored\n", result.ChunksCreated, result.ChunksStored)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := clientService.GetClient(ctx, args[0])
	if err != nil {
		return err
	}

	results, err := searchService.Search(ctx, client, args[1], searchLimit, searchDomain)
	if err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, result := range results {
		cmd.Printf("  [%d] %s #%d (%.4f)\n", i+1, result.URL, result.ChunkIndex, result.Score)
		cmd.Printf("      %s\n\n", snippet(result.Text, 200))
	}
	return nil
}

// snippet shortens text for terminal output.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}
}
