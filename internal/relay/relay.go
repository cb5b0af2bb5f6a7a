// Package relay moves media bytes to the client: either proxying an
// already-resolved direct URL straight through, or running the generic
// extractor's download step into the scratch directory and serving the
// produced file.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"riptide/internal/extractor"
	"riptide/internal/httputil"
	"riptide/pkg/logger"
)

// ErrOutputNotFound reports that the download step completed but left no
// file matching the expected stem in the scratch directory.
var ErrOutputNotFound = errors.New("download produced no output file")

// Downloader is the download-and-merge side of the generic extractor.
type Downloader interface {
	Download(ctx context.Context, url, outTmpl string, merge bool) error
}

// Relay serves resolved media. Concurrent downloads sharing a sanitized
// filename stem race on the scratch directory; the last writer's bytes
// win. That is an accepted limitation of the stem-convention layout.
type Relay struct {
	client     *http.Client
	downloader Downloader
	scratchDir string
	log        logger.Logger

	// mergeAvailable is swappable in tests.
	mergeAvailable func() bool
}

// New creates a Relay writing into scratchDir.
func New(downloader Downloader, scratchDir string) *Relay {
	return &Relay{
		client:         httputil.NewStreamingClient(),
		downloader:     downloader,
		scratchDir:     scratchDir,
		log:            logger.Get("relay"),
		mergeAvailable: extractor.MergeToolAvailable,
	}
}

// OpenDirect issues a streaming GET against a direct media URL with a
// platform-appropriate Referer. The caller owns the response body and
// streams it through to the client.
func (r *Relay) OpenDirect(ctx context.Context, rawURL string) (*http.Response, error) {
	var headers map[string]string
	if ref := httputil.RefererFor(rawURL); ref != "" {
		headers = map[string]string{"Referer": ref}
	}

	resp, err := httputil.Get(ctx, r.client, rawURL, headers)
	if err != nil {
		return nil, fmt.Errorf("opening direct stream: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// FetchMerged downloads the page URL's media into the scratch directory
// under the sanitized title and returns the path of the produced file.
// With a merge tool on the host the best video and audio streams are
// combined into mp4; without one the policy degrades to the best single
// combined stream. The output extension is not known ahead of time, so
// the result is located by filename-stem prefix.
func (r *Relay) FetchMerged(ctx context.Context, pageURL, title string) (string, error) {
	stem := httputil.SanitizeTitle(title)

	// A stale file from an earlier request would be served instead of
	// the fresh download.
	os.Remove(filepath.Join(r.scratchDir, stem+".mp4"))

	merge := r.mergeAvailable()
	if !merge {
		r.log.Emit(logger.WARNING, "no merge tool found, degrading to single best stream\n")
	}

	outTmpl := filepath.Join(r.scratchDir, stem+".%(ext)s")
	if err := r.downloader.Download(ctx, pageURL, outTmpl, merge); err != nil {
		return "", err
	}

	return r.locate(stem)
}

// locate returns the first scratch-directory file whose name starts with
// stem. Merging may have produced mp4, mkv or whatever the source dictated.
func (r *Relay) locate(stem string) (string, error) {
	entries, err := os.ReadDir(r.scratchDir)
	if err != nil {
		return "", fmt.Errorf("reading scratch dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), stem) {
			return filepath.Join(r.scratchDir, entry.Name()), nil
		}
	}
	return "", ErrOutputNotFound
}
