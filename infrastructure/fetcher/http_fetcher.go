// Package fetcher retrieves site resources over HTTP for the crawler.
package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/temoto/robotstxt"
)

const (
	defaultFetchTimeout = 20 * time.Second
	defaultUserAgent    = "cosloai-crawler/1.0"

	// maxPageBytes caps how much of a response body is read.
	maxPageBytes = 10 * 1024 * 1024 // 10MB
)

var _ domain.PageFetcher = (*HTTPFetcher)(nil)

// HTTPFetcher implements the domain.PageFetcher interface over plain HTTP.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a new HTTPFetcher with the given request timeout and
// User-Agent header. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// FetchPage retrieves the markup of the given URL. Non-200 responses and
// non-HTML content types are errors; the crawler records such pages as skipped.
func (f *HTTPFetcher) FetchPage(ctx context.Context, pageURL string) (*domain.FetchedPage, error) {
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch error for %s (status code %d)", pageURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, fmt.Errorf("non-HTML content type %q for %s", contentType, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Redirects may land elsewhere; report where the markup actually came from
	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &domain.FetchedPage{URL: finalURL, HTML: string(body)}, nil
}

// FetchRobots retrieves and parses robots.txt for the site. An unreachable or
// unreadable robots.txt yields an allow-all policy so it never blocks a crawl;
// 4xx and 5xx statuses follow the usual robots semantics via the parser.
func (f *HTTPFetcher) FetchRobots(ctx context.Context, host string) (domain.RobotsPolicy, error) {
	robotsURL := strings.TrimRight(host, "/") + "/robots.txt"

	resp, err := f.get(ctx, robotsURL)
	if err != nil {
		log.Printf("Could not fetch robots.txt for %s, allowing all paths: %v\n", host, err)
		return allowAllPolicy{}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		log.Printf("Could not read robots.txt for %s, allowing all paths: %v\n", host, err)
		return allowAllPolicy{}, nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		log.Printf("Could not parse robots.txt for %s, allowing all paths: %v\n", host, err)
		return allowAllPolicy{}, nil
	}

	return &robotsPolicy{robots: robots, agent: f.userAgent}, nil
}

// FetchSitemap returns the page URLs listed in the site's sitemap.xml. When
// the file is a sitemap index, one level of child sitemaps is followed; a
// child that fails is skipped rather than failing the whole seed.
func (f *HTTPFetcher) FetchSitemap(ctx context.Context, host string) ([]string, error) {
	sitemapURL := strings.TrimRight(host, "/") + "/sitemap.xml"

	urls, nested, err := f.fetchSitemapFile(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	for _, child := range nested {
		childURLs, _, err := f.fetchSitemapFile(ctx, child)
		if err != nil {
			log.Printf("Skipping nested sitemap %s: %v\n", child, err)
			continue
		}
		urls = append(urls, childURLs...)
	}

	return urls, nil
}

// get issues a GET request with the fetcher's User-Agent.
func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	return resp, nil
}

// sitemapFile covers both <urlset> and <sitemapindex> documents.
type sitemapFile struct {
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// fetchSitemapFile downloads one sitemap document and returns its page URLs
// and any nested sitemap locations.
func (f *HTTPFetcher) fetchSitemapFile(ctx context.Context, sitemapURL string) (urls, nested []string, err error) {
	resp, err := f.get(ctx, sitemapURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("sitemap fetch error for %s (status code %d)", sitemapURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sitemap: %w", err)
	}

	var parsed sitemapFile
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	for _, entry := range parsed.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	for _, entry := range parsed.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			nested = append(nested, loc)
		}
	}

	return urls, nested, nil
}

// robotsPolicy adapts a parsed robots.txt to the domain.RobotsPolicy interface.
type robotsPolicy struct {
	robots *robotstxt.RobotsData
	agent  string
}

// Allowed reports whether the crawler's agent may fetch the URL's path.
func (p *robotsPolicy) Allowed(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return p.robots.TestAgent(u.RequestURI(), p.agent)
}

// allowAllPolicy permits every path. Used when robots.txt is unavailable.
type allowAllPolicy struct{}

func (allowAllPolicy) Allowed(string) bool { return true }
