package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

// mockFetcher serves pages from a canned URL->markup map and records every
// page fetch. Missing URLs fail like an unreachable page would.
type mockFetcher struct {
	mu         sync.Mutex
	pages      map[string]string
	fetched    []string
	robots     domain.RobotsPolicy
	sitemap    []string
	sitemapErr error
}

func newMockFetcher(pages map[string]string) *mockFetcher {
	return &mockFetcher{pages: pages}
}

func (m *mockFetcher) FetchPage(_ context.Context, pageURL string) (*domain.FetchedPage, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, pageURL)
	markup, ok := m.pages[pageURL]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no such page: %s", pageURL)
	}
	return &domain.FetchedPage{URL: pageURL, HTML: markup}, nil
}

func (m *mockFetcher) FetchRobots(_ context.Context, _ string) (domain.RobotsPolicy, error) {
	if m.robots != nil {
		return m.robots, nil
	}
	return allowAllRobots{}, nil
}

func (m *mockFetcher) FetchSitemap(_ context.Context, _ string) ([]string, error) {
	if m.sitemapErr != nil {
		return nil, m.sitemapErr
	}
	return m.sitemap, nil
}

func (m *mockFetcher) fetchedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}

func (m *mockFetcher) fetchCount(pageURL string) int {
	count := 0
	for _, u := range m.fetchedURLs() {
		if u == pageURL {
			count++
		}
	}
	return count
}

type allowAllRobots struct{}

func (allowAllRobots) Allowed(string) bool { return true }

// denyPathRobots blocks every URL containing the given path fragment.
type denyPathRobots struct {
	path string
}

func (d denyPathRobots) Allowed(pageURL string) bool {
	return !strings.Contains(pageURL, d.path)
}

// --- Helpers ---

var crawlBodyText = strings.Repeat("Useful documentation about the product. ", 8)

func crawlPageMarkup(paragraph string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Page</title></head><body><main><p>")
	b.WriteString(paragraph)
	b.WriteString("</p>")
	for _, link := range links {
		fmt.Fprintf(&b, "<a href=%q>link</a>", link)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

func crawlSitePages() map[string]string {
	return map[string]string{
		"https://example.com/": crawlPageMarkup(crawlBodyText,
			"/about", "/pricing", "https://other.example.org/partner", "#top", "/about"),
		"https://example.com/about":   crawlPageMarkup(crawlBodyText, "/deep"),
		"https://example.com/pricing": crawlPageMarkup("Too short.", "/deep-from-pricing"),
		"https://example.com/deep":    crawlPageMarkup(crawlBodyText),
	}
}

func newTestCrawler(fetcher *mockFetcher, store *mockVectorStore, cfg CrawlConfig) *CrawlerService {
	embedder := newMockEmbedder(4)
	ingestor := NewIngestionService(domain.NewTextChunker(domain.WithChunkSize(100), domain.WithOverlap(20)), embedder, store)
	return NewCrawlerService(fetcher, domain.NewHTMLPageParser(), ingestor, cfg)
}

// --- Tests ---

func TestCrawlerService_Crawl_WalksSameHostGraph(t *testing.T) {
	fetcher := newMockFetcher(crawlSitePages())
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     10,
		MaxDepth:     1,
		Concurrency:  2,
		MinTextChars: 200,
	})

	result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, 2, result.PagesProcessed, "home and about carry enough text, pricing is too short")
	assert.Equal(t, len(store.insertedChunks()), result.ChunksStored)
	assert.Greater(t, result.ChunksStored, 0)

	fetched := fetcher.fetchedURLs()
	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/pricing",
	}, fetched, "depth-2 and off-host pages must never be fetched")
	assert.Equal(t, 1, fetcher.fetchCount("https://example.com/about"), "duplicate links fetch once")

	for _, chunk := range store.insertedChunks() {
		assert.Equal(t, "client-1", chunk.ClientID)
		assert.Equal(t, "example.com", chunk.Domain)
	}
}

func TestCrawlerService_Crawl_MaxPagesBudget(t *testing.T) {
	fetcher := newMockFetcher(crawlSitePages())
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     2,
		MaxDepth:     3,
		Concurrency:  2,
		MinTextChars: 200,
	})

	result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err)
	assert.Len(t, fetcher.fetchedURLs(), 2, "the page budget caps fetches, not just stores")
	assert.Equal(t, 2, result.PagesProcessed)
}

func TestCrawlerService_Crawl_RobotsDisallow(t *testing.T) {
	fetcher := newMockFetcher(crawlSitePages())
	fetcher.robots = denyPathRobots{path: "/pricing"}
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     10,
		MaxDepth:     1,
		Concurrency:  2,
		MinTextChars: 200,
	})

	result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err)
	assert.Zero(t, fetcher.fetchCount("https://example.com/pricing"), "disallowed URLs must never be fetched")
	assert.Equal(t, 2, result.PagesProcessed)
}

func TestCrawlerService_Crawl_SitemapSeeding(t *testing.T) {
	fetcher := newMockFetcher(crawlSitePages())
	fetcher.sitemap = []string{
		" https://example.com/pricing ",
		"https://example.com/about",
		"https://other.example.org/evil",
	}
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     10,
		MaxDepth:     1,
		Concurrency:  2,
		MinTextChars: 200,
		UseSitemap:   true,
	})

	_, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.fetchCount("https://example.com/pricing"), "sitemap URLs seed the frontier")
	assert.Zero(t, fetcher.fetchCount("https://other.example.org/evil"), "off-host sitemap entries are dropped")
}

func TestCrawlerService_Crawl_SitemapUnavailable(t *testing.T) {
	fetcher := newMockFetcher(crawlSitePages())
	fetcher.sitemapErr = fmt.Errorf("fetch error for sitemap (status code 404)")
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     10,
		MaxDepth:     1,
		Concurrency:  2,
		MinTextChars: 200,
		UseSitemap:   true,
	})

	result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err, "a missing sitemap falls back to the start URL seed")
	assert.Equal(t, 2, result.PagesProcessed)
}

func TestCrawlerService_Crawl_PageFailureDoesNotAbort(t *testing.T) {
	fetcher := newMockFetcher(map[string]string{
		"https://example.com/": crawlPageMarkup(crawlBodyText, "/broken", "/about"),
		"https://example.com/about": crawlPageMarkup(crawlBodyText),
	})
	store := newMockVectorStore()
	crawler := newTestCrawler(fetcher, store, CrawlConfig{
		MaxPages:     10,
		MaxDepth:     1,
		Concurrency:  2,
		MinTextChars: 200,
	})

	result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, 2, result.PagesProcessed, "an unreachable page is logged and skipped")
	assert.Equal(t, 1, fetcher.fetchCount("https://example.com/broken"))
}

func TestCrawlerService_Crawl_WaitSelector(t *testing.T) {
	t.Run("selector present", func(t *testing.T) {
		fetcher := newMockFetcher(map[string]string{
			"https://example.com/": `<html><body><div id="app"><main><p>` + crawlBodyText + `</p></main></div></body></html>`,
		})
		store := newMockVectorStore()
		crawler := newTestCrawler(fetcher, store, CrawlConfig{
			MaxPages:     1,
			MaxDepth:     1,
			Concurrency:  1,
			MinTextChars: 200,
			WaitSelector: "#app",
			ReadyTimeout: time.Second,
		})

		result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, 1, result.PagesProcessed)
		assert.Equal(t, 1, fetcher.fetchCount("https://example.com/"), "a ready page is not re-fetched")
	})

	t.Run("timeout continues with retrieved markup", func(t *testing.T) {
		fetcher := newMockFetcher(map[string]string{
			"https://example.com/": crawlPageMarkup(crawlBodyText),
		})
		store := newMockVectorStore()
		crawler := newTestCrawler(fetcher, store, CrawlConfig{
			MaxPages:     1,
			MaxDepth:     1,
			Concurrency:  1,
			MinTextChars: 200,
			WaitSelector: "#never-appears",
			ReadyTimeout: time.Nanosecond,
		})

		result, err := crawler.Crawl(context.Background(), testClient(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, 1, result.PagesProcessed, "timing out on the selector must not drop the page")
	})
}

func TestCrawlerService_Crawl_StartURL(t *testing.T) {
	t.Run("defaults to the main domain", func(t *testing.T) {
		fetcher := newMockFetcher(map[string]string{
			"https://example.com/": crawlPageMarkup(crawlBodyText),
		})
		store := newMockVectorStore()
		crawler := newTestCrawler(fetcher, store, CrawlConfig{MaxPages: 1, MaxDepth: 1, Concurrency: 1, MinTextChars: 200})

		_, err := crawler.Crawl(context.Background(), testClient(), "")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/"}, fetcher.fetchedURLs())
	})

	t.Run("no start URL and no main domain", func(t *testing.T) {
		fetcher := newMockFetcher(nil)
		store := newMockVectorStore()
		crawler := newTestCrawler(fetcher, store, CrawlConfig{MaxPages: 1, MaxDepth: 1, Concurrency: 1, MinTextChars: 200})

		client := testClient()
		client.MainDomain = ""
		_, err := crawler.Crawl(context.Background(), client, "")

		require.Error(t, err)
		assert.Empty(t, fetcher.fetchedURLs())
	})
}
