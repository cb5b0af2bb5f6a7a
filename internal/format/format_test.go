package format

import (
	"testing"

	"riptide/internal/extractor"
	"riptide/internal/media"
)

func size(n int64) *int64 { return &n }

func TestNormalizeClassification(t *testing.T) {
	info := &extractor.Info{
		Formats: []extractor.RawFormat{
			{FormatID: "v+a", URL: "http://x/1", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", FormatNote: "720p"},
			{FormatID: "v", URL: "http://x/2", Ext: "mp4", VCodec: "avc1", ACodec: "none", Resolution: "1920x1080"},
			{FormatID: "a", URL: "http://x/3", Ext: "m4a", VCodec: "none", ACodec: "opus"},
			{FormatID: "meta", URL: "http://x/4", Ext: "mhtml", VCodec: "none", ACodec: "none"},
			{FormatID: "nourl", VCodec: "avc1", ACodec: "mp4a"},
		},
	}

	got := Normalize(info)
	if len(got) != 3 {
		t.Fatalf("got %d formats, want 3 (codec-less and URL-less dropped)", len(got))
	}

	if got[0].Type != media.Video || !got[0].HasAudio || got[0].FormatNote != "720p" {
		t.Errorf("combined format wrong: %+v", got[0])
	}
	if got[1].FormatNote != "1920x1080 (no audio)" {
		t.Errorf("video-only note = %q, want resolution with no-audio marker", got[1].FormatNote)
	}
	if got[1].HasAudio {
		t.Error("video-only format must not claim audio")
	}
	if got[2].Type != media.Audio || got[2].FormatNote != "audio only" {
		t.Errorf("audio-only format wrong: %+v", got[2])
	}

	for _, f := range got {
		if f.URL == "" {
			t.Error("normalized format with empty URL")
		}
	}
}

func TestNormalizeSynthesizesTopLevelURL(t *testing.T) {
	info := &extractor.Info{
		URL:      "http://x/only.flv",
		Ext:      "flv",
		Filesize: size(42),
	}

	got := Normalize(info)
	if len(got) != 1 {
		t.Fatalf("got %d formats, want exactly 1 synthesized", len(got))
	}
	f := got[0]
	if f.URL != "http://x/only.flv" || f.Ext != "flv" || !f.HasAudio {
		t.Errorf("synthesized format wrong: %+v", f)
	}
}

func TestNormalizeSynthesizedDefaultExt(t *testing.T) {
	got := Normalize(&extractor.Info{URL: "http://x/stream"})
	if len(got) != 1 || got[0].Ext != "mp4" {
		t.Fatalf("expected one mp4-default format, got %+v", got)
	}
}

func TestNormalizeNothing(t *testing.T) {
	if got := Normalize(&extractor.Info{}); len(got) != 0 {
		t.Fatalf("expected no formats, got %d", len(got))
	}
}

func TestRankOrdering(t *testing.T) {
	formats := []media.Format{
		{URL: "a", HasAudio: false, Filesize: size(100)},
		{URL: "b", HasAudio: true},
		{URL: "c", HasAudio: true, Filesize: size(50)},
	}

	Rank(formats)

	for i, w := range []string{"c", "b", "a"} {
		if formats[i].URL != w {
			t.Fatalf("rank order = [%s %s %s], want [c b a]",
				formats[0].URL, formats[1].URL, formats[2].URL)
		}
	}
}

func TestRankStableAmongUnknownSizes(t *testing.T) {
	formats := []media.Format{
		{URL: "first", HasAudio: true},
		{URL: "second", HasAudio: true},
		{URL: "third", HasAudio: true},
	}

	Rank(formats)

	for i, w := range []string{"first", "second", "third"} {
		if formats[i].URL != w {
			t.Errorf("unknown-size ties must keep input order, got %v at %d", formats[i].URL, i)
		}
	}
}
