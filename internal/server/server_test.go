package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riptide/internal/media"
	"riptide/internal/relay"
)

type stubResolver struct {
	result    *media.ResolvedMedia
	err       error
	direct    *media.ResolvedMedia
	lastURL   string
	directURL string
}

func (s *stubResolver) Resolve(ctx context.Context, url string) (*media.ResolvedMedia, error) {
	s.lastURL = url
	return s.result, s.err
}

func (s *stubResolver) ResolveDirect(ctx context.Context, url string) *media.ResolvedMedia {
	s.directURL = url
	return s.direct
}

type stubRelay struct {
	upstream  *httptest.Server
	mergedOut string
	mergedErr error
	openedURL string
}

func (s *stubRelay) OpenDirect(ctx context.Context, rawURL string) (*http.Response, error) {
	s.openedURL = rawURL
	if s.upstream == nil {
		return nil, errors.New("upstream unavailable")
	}
	return http.Get(s.upstream.URL)
}

func (s *stubRelay) FetchMerged(ctx context.Context, pageURL, title string) (string, error) {
	return s.mergedOut, s.mergedErr
}

type stubHistory struct {
	entries []media.HistoryEntry
}

func (s *stubHistory) Recent(limit int) ([]media.HistoryEntry, error) {
	return s.entries, nil
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.ec.ServeHTTP(rec, req)
	return rec
}

func resolved() *media.ResolvedMedia {
	size := int64(1024)
	return &media.ResolvedMedia{
		Title:     "A Video",
		Thumbnail: "http://i/t.jpg",
		Formats: []media.Format{
			{URL: "http://cdn/v.mp4", Ext: "mp4", FormatNote: "720p", Filesize: &size, HasAudio: true, Type: media.Video},
		},
	}
}

func TestResolveEndpoint(t *testing.T) {
	resolver := &stubResolver{result: resolved()}
	s := New(resolver, &stubRelay{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://site/v/1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://site/v/1", resolver.lastURL)

	var got media.ResolvedMedia
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "A Video", got.Title)
	require.Len(t, got.Formats, 1)
	assert.Equal(t, "http://cdn/v.mp4", got.Formats[0].URL)
	assert.True(t, got.Formats[0].HasAudio)
	assert.Equal(t, media.Video, got.Formats[0].Type)
}

func TestResolveEndpointFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("ERROR: Unsupported URL")}
	s := New(resolver, &stubRelay{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://nope/"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload["detail"])
	assert.Contains(t, payload["detail"], "Unsupported URL")
}

func TestResolveEndpointMissingURL(t *testing.T) {
	s := New(&stubResolver{result: resolved()}, &stubRelay{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/resolve", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload["detail"])
}

func TestDownloadMergedPrefersScraperDirectPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("direct bytes"))
	}))
	defer upstream.Close()

	resolver := &stubResolver{direct: resolved()}
	rl := &stubRelay{upstream: upstream}
	s := New(resolver, rl, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/download_merged", `{"url":"https://kg.qq.com/x","title":"My Song"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "direct bytes", rec.Body.String())
	assert.Equal(t, "http://cdn/v.mp4", rl.openedURL, "should stream the scraper's direct URL")

	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "My%20Song.mp4")
}

func TestDownloadMergedFetchPath(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(out, []byte("merged file"), 0o644))

	resolver := &stubResolver{direct: nil}
	s := New(resolver, &stubRelay{mergedOut: out}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/download_merged", `{"url":"https://site/v","title":"clip"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "merged file", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "clip.mp4")
}

func TestDownloadMergedOutputNotFound(t *testing.T) {
	s := New(&stubResolver{}, &stubRelay{mergedErr: relay.ErrOutputNotFound}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/download_merged", `{"url":"https://site/v","title":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload["detail"], "file not found")
}

func TestDownloadMergedDownloadError(t *testing.T) {
	s := New(&stubResolver{}, &stubRelay{mergedErr: errors.New("ERROR: timeout")}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/download_merged", `{"url":"https://site/v","title":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyDownload(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("proxied"))
	}))
	defer upstream.Close()

	rl := &stubRelay{upstream: upstream}
	s := New(&stubResolver{}, rl, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/proxy_download?url=http://cdn/v.mp4&name=mine.mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "proxied", rec.Body.String())
	assert.Equal(t, "http://cdn/v.mp4", rl.openedURL)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mine.mp4")
}

func TestProxyDownloadMissingURL(t *testing.T) {
	s := New(&stubResolver{}, &stubRelay{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/proxy_download", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	h := &stubHistory{entries: []media.HistoryEntry{{URL: "https://x", Title: "t", FormatCount: 2}}}
	s := New(&stubResolver{}, &stubRelay{}, h)

	rec := doJSON(t, s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []media.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "t", entries[0].Title)
}

func TestHistoryEndpointDisabled(t *testing.T) {
	s := New(&stubResolver{}, &stubRelay{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
