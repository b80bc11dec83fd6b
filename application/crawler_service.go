package application

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
)

// readyPollInterval is how often a page is re-fetched while waiting for its
// readiness selector to appear.
const readyPollInterval = 500 * time.Millisecond

// CrawlConfig bounds one crawl invocation.
type CrawlConfig struct {
	MaxPages     int           // hard budget of pages handed to workers
	MaxDepth     int           // links beyond this depth are never enqueued
	Concurrency  int           // bounded number of parallel page workers
	MinTextChars int           // cleaned text shorter than this is skipped
	UseSitemap   bool          // seed the frontier from sitemap.xml
	WaitSelector string        // CSS selector that marks the page as ready
	ReadyTimeout time.Duration // how long to wait for the selector
}

// withDefaults fills unset fields with conservative crawl bounds.
func (c CrawlConfig) withDefaults() CrawlConfig {
	if c.MaxPages <= 0 {
		c.MaxPages = 50
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 2
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.MinTextChars <= 0 {
		c.MinTextChars = 200
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 5 * time.Second
	}
	return c
}

// CrawlResult reports the running totals of one finished crawl.
type CrawlResult struct {
	PagesProcessed int `json:"pages_processed"`
	ChunksStored   int `json:"chunks_stored"`
}

// frontierEntry is one queued URL with the depth it was discovered at.
type frontierEntry struct {
	url   string
	depth int
}

// crawlRun carries the state of a single crawl invocation. The frontier and
// visited set are serialized by the mutex; the totals are atomic because
// workers complete concurrently.
type crawlRun struct {
	client *domain.Client
	host   string
	robots domain.RobotsPolicy

	mu       sync.Mutex
	visited  map[string]bool
	frontier []frontierEntry
	claimed  int

	pagesProcessed atomic.Int64
	chunksStored   atomic.Int64
}

// enqueue adds a URL to the frontier unless it is beyond the depth budget,
// disallowed by robots.txt, or already seen.
func (r *crawlRun) enqueue(rawURL string, depth int, cfg CrawlConfig) {
	if depth > cfg.MaxDepth {
		return
	}
	if r.robots != nil && !r.robots.Allowed(rawURL) {
		log.Printf("Robots.txt disallows %s, skipping\n", rawURL)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.visited[rawURL] {
		return
	}
	r.visited[rawURL] = true
	r.frontier = append(r.frontier, frontierEntry{url: rawURL, depth: depth})
}

// claim pops the next batch of frontier entries for the workers, honoring the
// page budget and re-checking depth so no out-of-budget URL is ever fetched.
func (r *crawlRun) claim(cfg CrawlConfig) []frontierEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var batch []frontierEntry
	for len(r.frontier) > 0 && len(batch) < cfg.Concurrency && r.claimed < cfg.MaxPages {
		entry := r.frontier[0]
		r.frontier = r.frontier[1:]
		if entry.depth > cfg.MaxDepth {
			continue
		}
		batch = append(batch, entry)
		r.claimed++
	}
	return batch
}

// result snapshots the running totals.
func (r *crawlRun) result() CrawlResult {
	return CrawlResult{
		PagesProcessed: int(r.pagesProcessed.Load()),
		ChunksStored:   int(r.chunksStored.Load()),
	}
}

// CrawlerService walks a client's site breadth-first and feeds every page
// with enough cleaned text through the ingestion pipeline.
type CrawlerService struct {
	fetcher  domain.PageFetcher
	parser   domain.PageParser
	ingestor *IngestionService
	config   CrawlConfig
}

// NewCrawlerService creates a new CrawlerService.
func NewCrawlerService(fetcher domain.PageFetcher, parser domain.PageParser, ingestor *IngestionService, config CrawlConfig) *CrawlerService {
	return &CrawlerService{
		fetcher:  fetcher,
		parser:   parser,
		ingestor: ingestor,
		config:   config.withDefaults(),
	}
}

// Crawl performs a bounded breadth-first traversal for the client starting
// from startURL, or from the client's main domain when startURL is empty.
// A single page failure never aborts the crawl.
func (s *CrawlerService) Crawl(ctx context.Context, client *domain.Client, startURL string) (CrawlResult, error) {
	cfg := s.config

	start, host, err := normalizeStartURL(startURL, client.MainDomain)
	if err != nil {
		return CrawlResult{}, err
	}
	base := strings.TrimSuffix(start, "/")

	// robots.txt is consulted before any page fetch
	robots, err := s.fetcher.FetchRobots(ctx, base)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("failed to fetch robots.txt for %s: %w", host, err)
	}

	run := &crawlRun{
		client:  client,
		host:    host,
		robots:  robots,
		visited: make(map[string]bool),
	}

	log.Printf("Starting crawl for client %s at %s (maxPages=%d, maxDepth=%d)\n", client.ID, start, cfg.MaxPages, cfg.MaxDepth)

	run.enqueue(start, 0, cfg)
	if cfg.UseSitemap {
		s.seedFromSitemap(ctx, run, base, cfg)
	}

	for {
		if ctx.Err() != nil {
			return run.result(), ctx.Err()
		}

		batch := run.claim(cfg)
		if len(batch) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, entry := range batch {
			wg.Add(1)
			go func(entry frontierEntry) {
				defer wg.Done()
				s.crawlPage(ctx, run, entry, cfg)
			}(entry)
		}
		wg.Wait()
	}

	result := run.result()
	log.Printf("Crawl finished for %s: %d pages processed, %d chunks stored\n", host, result.PagesProcessed, result.ChunksStored)
	return result, nil
}

// seedFromSitemap enqueues the same-host URLs from the site's sitemap at
// depth 0. On failure the single-URL seed already in the frontier stands.
func (s *CrawlerService) seedFromSitemap(ctx context.Context, run *crawlRun, base string, cfg CrawlConfig) {
	urls, err := s.fetcher.FetchSitemap(ctx, base)
	if err != nil {
		log.Printf("Sitemap unavailable for %s, seeding from start URL only: %v\n", run.host, err)
		return
	}

	seeded := 0
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || !strings.EqualFold(u.Host, run.host) {
			continue
		}
		u.Fragment = ""
		run.enqueue(u.String(), 0, cfg)
		seeded++
	}
	if seeded > 0 {
		log.Printf("Seeded %d URLs from sitemap for %s\n", seeded, run.host)
	}
}

// crawlPage fetches, parses, and ingests one frontier entry, then enqueues
// the same-domain links it discovered.
func (s *CrawlerService) crawlPage(ctx context.Context, run *crawlRun, entry frontierEntry, cfg CrawlConfig) {
	fetched, err := s.fetchReady(ctx, entry.url, cfg)
	if err != nil {
		log.Printf("Error fetching %s: %v\n", entry.url, err)
		return
	}

	page, err := s.parser.Parse(fetched.HTML, fetched.URL, run.host)
	if err != nil {
		log.Printf("Error parsing %s: %v\n", entry.url, err)
		return
	}

	for _, link := range page.Links {
		if resolved, ok := resolveLink(fetched.URL, link, run.host); ok {
			run.enqueue(resolved, entry.depth+1, cfg)
		}
	}

	if len([]rune(page.Text)) < cfg.MinTextChars {
		log.Printf("Skipping %s: cleaned text below %d characters\n", entry.url, cfg.MinTextChars)
		return
	}

	result, err := s.ingestor.IngestText(ctx, run.client, fetched.URL, run.host, page.Text)
	if err != nil {
		log.Printf("Error ingesting %s: %v\n", entry.url, err)
		return
	}

	run.pagesProcessed.Add(1)
	run.chunksStored.Add(int64(result.ChunksStored))
}

// fetchReady retrieves the page markup. When a wait selector is configured,
// the fetch is polled until the selector appears or the readiness timeout
// elapses; a timeout is logged and the last retrieved markup is used as-is.
func (s *CrawlerService) fetchReady(ctx context.Context, pageURL string, cfg CrawlConfig) (*domain.FetchedPage, error) {
	fetched, err := s.fetcher.FetchPage(ctx, pageURL)
	if err != nil || cfg.WaitSelector == "" {
		return fetched, err
	}

	deadline := time.Now().Add(cfg.ReadyTimeout)
	for !s.parser.HasSelector(fetched.HTML, cfg.WaitSelector) {
		if time.Now().After(deadline) {
			log.Printf("Timed out waiting for selector %q on %s, continuing with retrieved markup\n", cfg.WaitSelector, pageURL)
			break
		}

		select {
		case <-time.After(readyPollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		refreshed, err := s.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			// Keep the markup we already have
			break
		}
		fetched = refreshed
	}

	return fetched, nil
}

// normalizeStartURL turns a bare domain or URL into a root start URL and its
// target host. The scheme defaults to https and the path is reset to root.
func normalizeStartURL(raw, mainDomain string) (startURL, host string, err error) {
	if raw == "" {
		raw = mainDomain
	}
	if raw == "" {
		return "", "", fmt.Errorf("no start URL or main domain to crawl")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid start URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("start URL %q has no host", raw)
	}

	host = strings.ToLower(u.Host)
	return u.Scheme + "://" + host + "/", host, nil
}

// resolveLink resolves href against the page URL and keeps it only when it
// points at the crawl host. Fragments are dropped so anchors dedupe cleanly.
func resolveLink(pageURL, href, host string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, host) {
		return "", false
	}

	resolved.Fragment = ""
	return resolved.String(), true
}
