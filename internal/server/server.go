// Package server exposes the resolution pipeline and relay over HTTP.
// It is a thin gateway: request decoding, validation and error shaping
// live here, everything else is delegated.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"riptide/internal/httputil"
	"riptide/internal/media"
	"riptide/internal/relay"
	"riptide/pkg/logger"
)

type (
	// Resolver is the orchestrator surface the gateway needs.
	Resolver interface {
		Resolve(ctx context.Context, url string) (*media.ResolvedMedia, error)
		ResolveDirect(ctx context.Context, url string) *media.ResolvedMedia
	}

	// Relay streams or fetches media bytes.
	Relay interface {
		OpenDirect(ctx context.Context, rawURL string) (*http.Response, error)
		FetchMerged(ctx context.Context, pageURL, title string) (string, error)
	}

	// History lists recent resolutions. Optional.
	History interface {
		Recent(limit int) ([]media.HistoryEntry, error)
	}

	// Server wires the echo router to the riptide services.
	Server struct {
		ec       *echo.Echo
		validate *validator.Validate
		resolver Resolver
		relay    Relay
		history  History
		log      logger.Logger
	}
)

// New constructs the gateway and registers all routes. history may be nil.
func New(resolver Resolver, relayService Relay, history History) *Server {
	ec := echo.New()
	ec.HideBanner = true
	ec.HidePort = true
	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())

	s := &Server{
		ec:       ec,
		validate: validator.New(),
		resolver: resolver,
		relay:    relayService,
		history:  history,
		log:      logger.Get("server"),
	}

	api := ec.Group("/api")
	api.POST("/resolve", s.handleResolve)
	api.POST("/download_merged", s.handleDownloadMerged)
	api.GET("/proxy_download", s.handleProxyDownload)
	api.GET("/history", s.handleHistory)

	// The landing page is optional; the API works headless.
	if _, err := os.Stat("static"); err == nil {
		ec.Static("/static", "static")
	}
	if _, err := os.Stat(filepath.Join("static", "index.html")); err == nil {
		ec.File("/", filepath.Join("static", "index.html"))
	}

	return s
}

// Run serves until the context is cancelled, then closes the listener.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		s.ec.Close()
	}()

	s.log.Emit(logger.INFO, "listening on %s\n", addr)
	if err := s.ec.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// detail writes the error payload shape the frontend expects.
func detail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"detail": msg})
}

func (s *Server) handleResolve(c echo.Context) error {
	var req media.ResolveRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return detail(c, http.StatusBadRequest, "url is required")
	}

	result, err := s.resolver.Resolve(c.Request().Context(), req.URL)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDownloadMerged(c echo.Context) error {
	var req media.DownloadRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return detail(c, http.StatusBadRequest, "url is required")
	}

	ctx := c.Request().Context()
	stem := httputil.SanitizeTitle(req.Title)

	// Platform scrapers resolve to direct URLs; streaming those through
	// avoids the whole download-and-merge machinery.
	if result := s.resolver.ResolveDirect(ctx, req.URL); result != nil {
		return s.streamDirect(c, result.Formats[0].URL, stem+".mp4")
	}

	path, err := s.relay.FetchMerged(ctx, req.URL, req.Title)
	if err != nil {
		if errors.Is(err, relay.ErrOutputNotFound) {
			return detail(c, http.StatusInternalServerError, "download failed: file not found")
		}
		return detail(c, http.StatusBadRequest, err.Error())
	}

	return c.Attachment(path, filepath.Base(path))
}

func (s *Server) handleProxyDownload(c echo.Context) error {
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return detail(c, http.StatusBadRequest, "url parameter is required")
	}
	name := c.QueryParam("name")
	if name == "" {
		name = "video.mp4"
	}

	return s.streamDirect(c, rawURL, name)
}

// streamDirect proxies an upstream media URL chunk-by-chunk under an
// attachment disposition.
func (s *Server) streamDirect(c echo.Context, rawURL, filename string) error {
	resp, err := s.relay.OpenDirect(c.Request().Context(), rawURL)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, httputil.AttachmentDisposition(filename))
	return c.Stream(http.StatusOK, contentType, resp.Body)
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusOK, []media.HistoryEntry{})
	}

	entries, err := s.history.Recent(50)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []media.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
