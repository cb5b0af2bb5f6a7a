// Package resolve orchestrates the resolution strategies: platform
// scrapers first for URLs they claim, the generic extractor as the
// fallback. First success wins; there are no retries.
package resolve

import (
	"context"
	"fmt"

	"riptide/internal/extractor"
	"riptide/internal/format"
	"riptide/internal/media"
	"riptide/internal/scraper"
	"riptide/pkg/logger"
)

// Prober is the metadata-only side of the generic extractor.
type Prober interface {
	Probe(ctx context.Context, url string) (*extractor.Info, error)
}

// Recorder logs successful resolutions. Optional.
type Recorder interface {
	Record(url, title string, formatCount int) error
}

// Resolver turns a page URL into a ResolvedMedia.
type Resolver struct {
	scrapers []scraper.Scraper
	prober   Prober
	recorder Recorder
	log      logger.Logger
}

// New builds a Resolver with the built-in scrapers. recorder may be nil.
func New(prober Prober, recorder Recorder) *Resolver {
	return &Resolver{
		scrapers: scraper.All(),
		prober:   prober,
		recorder: recorder,
		log:      logger.Get("resolve"),
	}
}

// Resolve tries the matching platform scraper, then the generic
// extractor. Scraper failures are swallowed and only logged; extractor
// failures propagate verbatim as the request's error. A success never
// carries zero formats.
func (r *Resolver) Resolve(ctx context.Context, url string) (*media.ResolvedMedia, error) {
	if s := scraper.Match(r.scrapers, url); s != nil {
		result, err := s.Resolve(ctx, url)
		switch {
		case err != nil:
			r.log.Emit(logger.DEBUG, "scraper %s failed for %s: %v\n", s.Name(), url, err)
		case result == nil || len(result.Formats) == 0:
			r.log.Emit(logger.DEBUG, "scraper %s returned no formats for %s\n", s.Name(), url)
		default:
			r.record(url, result)
			return result, nil
		}
	}

	info, err := r.prober.Probe(ctx, url)
	if err != nil {
		return nil, err
	}

	formats := format.Normalize(info)
	if len(formats) == 0 {
		return nil, fmt.Errorf("no playable formats found for %s", url)
	}
	format.Rank(formats)

	result := &media.ResolvedMedia{
		Title:      info.Title,
		Thumbnail:  info.Thumbnail,
		Duration:   info.Duration,
		WebpageURL: info.WebpageURL,
		Formats:    formats,
	}
	r.record(url, result)
	return result, nil
}

// ResolveDirect is the scraper-only path used by the download relay: a
// known platform direct URL is preferred over the heavier
// download-and-merge machinery. Returns nil when no scraper claims or
// resolves the URL.
func (r *Resolver) ResolveDirect(ctx context.Context, url string) *media.ResolvedMedia {
	s := scraper.Match(r.scrapers, url)
	if s == nil {
		return nil
	}

	result, err := s.Resolve(ctx, url)
	if err != nil || result == nil || len(result.Formats) == 0 {
		if err != nil {
			r.log.Emit(logger.DEBUG, "scraper %s failed for %s: %v\n", s.Name(), url, err)
		}
		return nil
	}
	return result
}

func (r *Resolver) record(url string, result *media.ResolvedMedia) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(url, result.Title, len(result.Formats)); err != nil {
		r.log.Emit(logger.WARNING, "recording resolution: %v\n", err)
	}
}
