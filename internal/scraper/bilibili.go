package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"riptide/internal/httputil"
	"riptide/internal/media"
)

// Bilibili resolves bilibili.com video pages through the platform's
// public web API instead of scraping markup. The API is quicker than the
// generic extractor and keeps working when the site rate-limits
// non-browser page fetches with 412 responses.
type Bilibili struct {
	client  *http.Client
	apiBase string
}

// NewBilibili creates the bilibili.com scraper.
func NewBilibili() *Bilibili {
	return &Bilibili{
		client:  httputil.NewClient(),
		apiBase: "https://api.bilibili.com",
	}
}

var bvidRe = regexp.MustCompile(`(BV\w+)`)

const bilibiliReferer = "https://www.bilibili.com/"

func (b *Bilibili) Name() string { return "bilibili" }

func (b *Bilibili) Match(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "bilibili.com" || strings.HasSuffix(host, ".bilibili.com") || host == "b23.tv"
}

type biliViewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Title    string `json:"title"`
		Pic      string `json:"pic"`
		Duration int64  `json:"duration"`
		Cid      int64  `json:"cid"`
	} `json:"data"`
}

type biliPlayResponse struct {
	Code int `json:"code"`
	Data struct {
		Durl []struct {
			URL  string `json:"url"`
			Size int64  `json:"size"`
		} `json:"durl"`
	} `json:"data"`
}

func (b *Bilibili) Resolve(ctx context.Context, pageURL string) (*media.ResolvedMedia, error) {
	m := bvidRe.FindStringSubmatch(pageURL)
	if m == nil {
		return nil, fmt.Errorf("no BV id in URL %q", pageURL)
	}
	bvid := m[1]

	headers := map[string]string{"Referer": bilibiliReferer}

	viewURL := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", b.apiBase, bvid)
	body, err := httputil.GetBody(ctx, b.client, viewURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetching video info: %w", err)
	}

	var view biliViewResponse
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("parsing video info: %w", err)
	}
	if view.Code != 0 {
		return nil, fmt.Errorf("view API returned code %d: %s", view.Code, view.Message)
	}

	// platform=html5 yields plain mp4 segments, avoiding DASH merging.
	playURL := fmt.Sprintf("%s/x/player/playurl?bvid=%s&cid=%d&qn=64&type=mp4&platform=html5&high_quality=1",
		b.apiBase, bvid, view.Data.Cid)
	body, err = httputil.GetBody(ctx, b.client, playURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetching play URL: %w", err)
	}

	var play biliPlayResponse
	if err := json.Unmarshal(body, &play); err != nil {
		return nil, fmt.Errorf("parsing play URL response: %w", err)
	}

	var formats []media.Format
	if play.Code == 0 {
		for _, durl := range play.Data.Durl {
			if durl.URL == "" {
				continue
			}
			size := durl.Size
			formats = append(formats, media.Format{
				URL:        durl.URL,
				Ext:        "mp4",
				FormatNote: "API fallback (quality may be capped)",
				Filesize:   &size,
				FormatID:   "api_mp4",
				HasAudio:   true,
				Type:       media.Video,
			})
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no playable URLs for %s", bvid)
	}

	duration := view.Data.Duration
	return &media.ResolvedMedia{
		Title:      view.Data.Title,
		Thumbnail:  view.Data.Pic,
		Duration:   &duration,
		WebpageURL: "https://www.bilibili.com/video/" + bvid,
		Formats:    formats,
	}, nil
}
