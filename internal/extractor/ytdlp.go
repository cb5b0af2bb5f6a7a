// Package extractor wraps the yt-dlp binary as the general-purpose
// fallback for platforms no hand-written scraper covers. It carries no
// site-specific logic of its own; whatever yt-dlp supports, riptide
// supports through this facade.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"riptide/internal/httputil"
	"riptide/pkg/logger"
)

// RawFormat is one format record exactly as yt-dlp reports it.
type RawFormat struct {
	FormatID   string `json:"format_id"`
	URL        string `json:"url"`
	Ext        string `json:"ext"`
	VCodec     string `json:"vcodec"`
	ACodec     string `json:"acodec"`
	FormatNote string `json:"format_note"`
	Resolution string `json:"resolution"`
	Filesize   *int64 `json:"filesize"`
}

// Info is the subset of yt-dlp's JSON dump riptide consumes.
type Info struct {
	Title      string      `json:"title"`
	Thumbnail  string      `json:"thumbnail"`
	Duration   *int64      `json:"duration"`
	WebpageURL string      `json:"webpage_url"`
	URL        string      `json:"url"` // top-level direct URL, present for single-format sites
	Ext        string      `json:"ext"`
	Filesize   *int64      `json:"filesize"`
	Formats    []RawFormat `json:"formats"`
}

// YtDlp invokes the yt-dlp binary. The zero value is not usable; use New.
type YtDlp struct {
	binary string
	log    logger.Logger
}

// New creates a yt-dlp facade. An empty binary path means "search PATH".
func New(binary string) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{binary: binary, log: logger.Get("extractor")}
}

func cacheDir() string {
	return filepath.Join(os.TempDir(), "yt-dlp-cache")
}

// browserArgs configures yt-dlp with a realistic browser header set and,
// for bilibili URLs, the Referer the CDN insists on.
func browserArgs(url string) []string {
	args := []string{
		"--quiet", "--no-warnings",
		"--cache-dir", cacheDir(),
		"--user-agent", httputil.DesktopUserAgent,
		"--add-header", "Accept:text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"--add-header", "Accept-Language:en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7",
	}
	if strings.Contains(url, "bilibili.com") || strings.Contains(url, "b23.tv") {
		args = append(args, "--referer", "https://www.bilibili.com/")
	}
	return args
}

// Probe extracts metadata for a page URL without fetching media bytes.
// Failures (unsupported site, geo-block, removed content) surface with
// yt-dlp's own message preserved.
func (y *YtDlp) Probe(ctx context.Context, url string) (*Info, error) {
	args := append([]string{"-J", "--no-playlist"}, browserArgs(url)...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.log.Emit(logger.DEBUG, "probing %s\n", url)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extraction failed: %s", commandError(err, stderr.Bytes()))
	}

	return parseInfo(stdout.Bytes())
}

// Download fetches and (when merge is true) muxes the media for a page
// URL into outTmpl, a yt-dlp output template such as
// "/scratch/stem.%(ext)s". With merge enabled the best separate video
// and audio streams are combined into one mp4; without it yt-dlp is
// restricted to the best single combined stream.
func (y *YtDlp) Download(ctx context.Context, url, outTmpl string, merge bool) error {
	args := []string{"-o", outTmpl}
	if merge {
		args = append(args, "-f", "bestvideo+bestaudio/best", "--merge-output-format", "mp4")
	} else {
		args = append(args, "-f", "best")
	}
	args = append(args, browserArgs(url)...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	y.log.Emit(logger.INFO, "downloading %s (merge=%v)\n", url, merge)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("download failed: %s", commandError(err, stderr.Bytes()))
	}
	return nil
}

// MergeToolAvailable reports whether ffmpeg can be found, either on PATH
// or as the bundled bin/ffmpeg from the setup command.
func MergeToolAvailable() bool {
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		return true
	}
	if fi, err := os.Stat(filepath.Join("bin", "ffmpeg")); err == nil && !fi.IsDir() {
		return true
	}
	return false
}

func parseInfo(raw []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("parsing extractor output: %w", err)
	}
	return &info, nil
}

// commandError prefers yt-dlp's stderr text over Go's generic exit-status
// message, since that is what the operator needs to see.
func commandError(err error, stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err.Error()
	}
	// Keep the last line; yt-dlp puts the actionable error there.
	lines := strings.Split(msg, "\n")
	return lines[len(lines)-1]
}
