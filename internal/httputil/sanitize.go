package httputil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that a URL is well-formed and uses HTTP or HTTPS.
// Plain HTTP is allowed: several media CDNs still hand out http:// links.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// SanitizeTitle reduces a user-supplied title to a safe filename stem.
// Only letters, digits, space, '-', '_' and '.' are retained; trailing
// whitespace is trimmed. An empty result falls back to "video".
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}

	stem := strings.TrimRight(b.String(), " ")
	if stem == "" || strings.Trim(stem, ".") == "" {
		return "video"
	}
	return stem
}

// AttachmentDisposition builds a Content-Disposition header value with a
// percent-encoded filename, safe for non-ASCII titles.
func AttachmentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename))
}

// RefererFor selects a platform-appropriate Referer for a direct media
// URL by substring match. Returns "" when no platform needs one.
func RefererFor(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "bilibili") || strings.Contains(rawURL, "bilivideo"):
		return "https://www.bilibili.com/"
	case strings.Contains(rawURL, "youtube") || strings.Contains(rawURL, "googlevideo"):
		return "https://www.youtube.com/"
	}
	return ""
}
