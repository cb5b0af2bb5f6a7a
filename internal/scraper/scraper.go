// Package scraper implements hand-written, site-specific resolution
// strategies. Scrapers are cheap and reliable for the platforms they
// cover, so the orchestrator always tries them before the generic
// extractor. A scraper that cannot produce a result returns an error;
// the caller treats that as fall-through, never as a request failure.
package scraper

import (
	"context"
	"net/url"

	"riptide/internal/media"
)

// Scraper resolves page URLs for a single platform.
type Scraper interface {
	// Name identifies the scraper in logs.
	Name() string

	// Match reports whether this scraper handles the given page URL.
	Match(u *url.URL) bool

	// Resolve fetches and extracts a playable result for the URL.
	// Any internal failure (network, missing pattern, upstream error
	// code) is returned as an error for the caller to swallow.
	Resolve(ctx context.Context, pageURL string) (*media.ResolvedMedia, error)
}

// All returns the built-in scrapers in priority order. Adding a platform
// means appending its scraper here, not branching in the orchestrator.
func All() []Scraper {
	return []Scraper{
		NewWeSing(),
		NewBilibili(),
	}
}

// Match returns the first scraper claiming the URL, or nil.
func Match(scrapers []Scraper, rawURL string) Scraper {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	for _, s := range scrapers {
		if s.Match(u) {
			return s
		}
	}
	return nil
}
