// Package media defines shared types for the riptide application.
package media

// TrackKind discriminates between video and audio-only formats.
type TrackKind string

const (
	Video TrackKind = "video"
	Audio TrackKind = "audio"
)

// Format is one concrete playable stream variant for a piece of media.
// Every Format must carry a non-empty direct URL.
type Format struct {
	URL        string    `json:"url"`
	Ext        string    `json:"ext"`                 // container extension, e.g. "mp4"
	FormatNote string    `json:"format_note"`         // human-readable quality label
	Filesize   *int64    `json:"filesize"`            // bytes; nil when unknown
	FormatID   string    `json:"format_id,omitempty"` // extractor-specific identifier
	HasAudio   bool      `json:"has_audio"`
	Type       TrackKind `json:"type"`
}

// SizeOrZero returns the filesize, treating unknown as 0 for ranking.
func (f Format) SizeOrZero() int64 {
	if f.Filesize == nil {
		return 0
	}
	return *f.Filesize
}

// ResolvedMedia is the unified result of resolving a page URL. Formats
// are kept in serving order: the first entry is the recommended default.
type ResolvedMedia struct {
	Title      string   `json:"title"`
	Thumbnail  string   `json:"thumbnail"`
	Duration   *int64   `json:"duration,omitempty"`    // seconds; nil when unknown
	WebpageURL string   `json:"webpage_url,omitempty"` // canonical page URL
	Formats    []Format `json:"formats"`
}

// ResolveRequest is the body of POST /api/resolve.
type ResolveRequest struct {
	URL string `json:"url" validate:"required"`
}

// DownloadRequest is the body of POST /api/download_merged. Title is
// used only for output naming and is sanitized before use.
type DownloadRequest struct {
	URL   string `json:"url" validate:"required"`
	Title string `json:"title"`
}

// HistoryEntry is one recorded resolution.
type HistoryEntry struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	FormatCount int    `json:"format_count"`
	ResolvedAt  string `json:"resolved_at"` // RFC 3339
}
