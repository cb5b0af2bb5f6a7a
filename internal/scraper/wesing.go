package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"riptide/internal/httputil"
	"riptide/internal/media"
)

// WeSing resolves karaoke performance pages on kg.qq.com. The page embeds
// its state as a window.__DATA__ assignment; the blob is frequently
// truncated or otherwise malformed, so fields are pulled with targeted
// patterns instead of a JSON parser.
type WeSing struct {
	client *http.Client
}

// NewWeSing creates the kg.qq.com scraper.
func NewWeSing() *WeSing {
	return &WeSing{client: httputil.NewClient()}
}

var (
	wesingDataRe    = regexp.MustCompile(`(?s)window\.__DATA__\s*=\s*(\{.*?\});`)
	wesingPlayURLRe = regexp.MustCompile(`"playurl":"(.*?)"`)
	wesingNickRe    = regexp.MustCompile(`"nick":"(.*?)"`)
	wesingContentRe = regexp.MustCompile(`"content":"(.*?)"`)
	wesingCoverRe   = regexp.MustCompile(`"cover":"(.*?)"`)

	// Loose fallbacks for pages where the state blob is absent or the
	// targeted patterns miss.
	wesingLoosePlayRe = regexp.MustCompile(`playurl\s*[:=]\s*["']([^"']+)["']`)
	wesingSrcRe       = regexp.MustCompile(`src\s*=\s*["'](http[^"']*?mp4[^"']*?)["']`)
)

const wesingDefaultTitle = "WeSing video"

func (w *WeSing) Name() string { return "wesing" }

func (w *WeSing) Match(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "kg.qq.com" || strings.HasSuffix(host, ".kg.qq.com")
}

func (w *WeSing) Resolve(ctx context.Context, pageURL string) (*media.ResolvedMedia, error) {
	body, err := httputil.GetBody(ctx, w.client, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	page := string(body)

	var playURL, title, thumbnail string

	// Structured path: pull fields out of the page-state blob.
	if m := wesingDataRe.FindStringSubmatch(page); m != nil {
		blob := m[1]
		if pm := wesingPlayURLRe.FindStringSubmatch(blob); pm != nil {
			playURL = pm[1]
		}

		nick := firstGroup(wesingNickRe, blob)
		content := firstGroup(wesingContentRe, blob)
		switch {
		case nick != "" && content != "":
			title = nick + " - " + content
		case content != "":
			title = content
		case nick != "":
			title = nick
		}

		thumbnail = firstGroup(wesingCoverRe, blob)
	}

	// Loose path: assignment-style playurl or any mp4 src attribute,
	// page <title> for the title.
	if playURL == "" {
		if m := wesingLoosePlayRe.FindStringSubmatch(page); m != nil {
			playURL = m[1]
		} else if m := wesingSrcRe.FindStringSubmatch(page); m != nil {
			playURL = m[1]
		}

		if doc, derr := goquery.NewDocumentFromReader(strings.NewReader(page)); derr == nil {
			if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
				title = t
			}
		}
	}

	if playURL == "" {
		return nil, fmt.Errorf("no play URL found in page")
	}
	if title == "" {
		title = wesingDefaultTitle
	}

	ext := "mp4"
	kind := media.Video
	if strings.Contains(playURL, ".m4a") || strings.Contains(playURL, ".mp3") {
		ext = "m4a"
		kind = media.Audio
	}

	return &media.ResolvedMedia{
		Title:      title,
		Thumbnail:  thumbnail,
		WebpageURL: pageURL,
		Formats: []media.Format{{
			URL:        playURL,
			Ext:        ext,
			FormatNote: "Default",
			HasAudio:   true,
			Type:       kind,
		}},
	}, nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
