package domain

import "context"

// FetchedPage is the raw outcome of retrieving one URL.
type FetchedPage struct {
	URL  string
	HTML string
}

// RobotsPolicy answers whether a crawl may fetch a URL on the target site.
type RobotsPolicy interface {
	Allowed(pageURL string) bool
}

// PageFetcher defines the interface for retrieving site resources over HTTP.
type PageFetcher interface {
	// FetchPage retrieves the markup of the given URL.
	FetchPage(ctx context.Context, pageURL string) (*FetchedPage, error)
	// FetchRobots retrieves and parses robots.txt for the host. When the file
	// cannot be fetched, implementations return an allow-all policy rather
	// than an error.
	FetchRobots(ctx context.Context, host string) (RobotsPolicy, error)
	// FetchSitemap returns the URLs listed in the host's sitemap.xml,
	// following one level of sitemap-index nesting.
	FetchSitemap(ctx context.Context, host string) ([]string, error)
}
