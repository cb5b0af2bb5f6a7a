// Package format unifies heterogeneous extractor output into the common
// Format shape and orders candidates by a deterministic serving policy.
package format

import (
	"sort"

	"riptide/internal/extractor"
	"riptide/internal/media"
)

// Normalize classifies every raw yt-dlp format as video or audio and
// drops those carrying neither codec. When nothing survives but the
// extraction exposed a single top-level direct URL, exactly one Format
// is synthesized from it so single-format sites still resolve.
func Normalize(info *extractor.Info) []media.Format {
	var formats []media.Format

	for _, raw := range info.Formats {
		if raw.URL == "" {
			continue
		}

		hasVideo := raw.VCodec != "" && raw.VCodec != "none"
		hasAudio := raw.ACodec != "" && raw.ACodec != "none"

		switch {
		case hasVideo:
			note := raw.FormatNote
			if note == "" {
				note = raw.Resolution
			}
			if note == "" {
				note = "unknown"
			}
			if !hasAudio {
				note += " (no audio)"
			}
			formats = append(formats, media.Format{
				URL:        raw.URL,
				Ext:        raw.Ext,
				FormatNote: note,
				Filesize:   raw.Filesize,
				FormatID:   raw.FormatID,
				HasAudio:   hasAudio,
				Type:       media.Video,
			})
		case hasAudio:
			formats = append(formats, media.Format{
				URL:        raw.URL,
				Ext:        raw.Ext,
				FormatNote: "audio only",
				Filesize:   raw.Filesize,
				FormatID:   raw.FormatID,
				HasAudio:   true,
				Type:       media.Audio,
			})
		}
	}

	if len(formats) == 0 && info.URL != "" {
		ext := info.Ext
		if ext == "" {
			ext = "mp4"
		}
		formats = append(formats, media.Format{
			URL:        info.URL,
			Ext:        ext,
			FormatNote: "Default",
			Filesize:   info.Filesize,
			HasAudio:   true, // assume a lone top-level URL is a complete stream
			Type:       media.Video,
		})
	}

	return formats
}

// Rank orders formats for serving: audio-carrying formats first, then by
// descending file size with unknown sizes treated as zero. The sort is
// stable so ties keep extractor order. The first element is the caller's
// best-default recommendation.
func Rank(formats []media.Format) {
	sort.SliceStable(formats, func(i, j int) bool {
		if formats[i].HasAudio != formats[j].HasAudio {
			return formats[i].HasAudio
		}
		return formats[i].SizeOrZero() > formats[j].SizeOrZero()
	})
}
