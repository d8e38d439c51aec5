// Package server serves dictionary entries over HTTP, either from the local
// entry directory or by proxying to an upstream deployment of the same API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/dictionary"
)

// CacheControl marks entries as immutable; an entry only changes on redeploy.
const CacheControl = "public, max-age=604800, immutable"

// ErrNotFound is returned by an EntrySource for unknown words.
var ErrNotFound = errors.New("word not found")

// EntrySource returns the raw JSON of the entry for a lowercase word.
type EntrySource interface {
	Entry(ctx context.Context, word string) ([]byte, error)
}

// DirSource reads <word>.json files from a dictionary directory.
type DirSource struct {
	Dir string
}

// Entry implements EntrySource.
func (s DirSource) Entry(_ context.Context, word string) ([]byte, error) {
	// Words never contain separators; refusing them keeps lookups inside Dir.
	if word == "" || strings.ContainsAny(word, `/\`) || strings.HasPrefix(word, ".") {
		return nil, ErrNotFound
	}
	b, err := os.ReadFile(filepath.Join(s.Dir, word+dictionary.EntryExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Server is the lookup API.
type Server struct {
	Source EntrySource
	// Upstream, when set, makes the server a pass-through proxy for
	// /api/dict/:word instead of reading Source.
	Upstream *url.URL
	Client   *http.Client
	Logger   *zap.Logger
}

// New creates a server reading entries from dir.
func New(dir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Source: DirSource{Dir: dir},
		Client: http.DefaultClient,
		Logger: logger,
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	if s.Upstream != nil {
		r.GET("/api/dict/:word", s.proxyEntry)
	} else {
		r.GET("/api/dict/:word", s.getEntry)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func (s *Server) getEntry(c *gin.Context) {
	word := strings.ToLower(c.Param("word"))

	body, err := s.Source.Entry(c.Request.Context(), word)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Word not found"})
		return
	}
	if err != nil {
		s.Logger.Error("entry lookup failed", zap.String("word", word), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header("Cache-Control", CacheControl)
	c.Data(http.StatusOK, "application/json", body)
}

// proxyEntry streams the upstream response back unchanged, status and
// headers included.
func (s *Server) proxyEntry(c *gin.Context) {
	word := strings.ToLower(c.Param("word"))
	target, ok := entryURL(s.Upstream, word)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Word not found"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		s.proxyError(c, err)
		return
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		s.proxyError(c, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.Logger.Warn("upstream returned an error status",
			zap.String("url", target.String()), zap.Int("status", resp.StatusCode))
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		s.Logger.Warn("proxy copy interrupted", zap.String("word", word), zap.Error(err))
	}
}

// entryURL appends word to {base}/api/dict as a single escaped segment.
// Dot segments are refused so a lookup can never climb out of /api/dict.
func entryURL(base *url.URL, word string) (*url.URL, bool) {
	if word == "" || word == "." || word == ".." {
		return nil, false
	}
	prefix := base.JoinPath("api", "dict")
	target := *prefix
	target.Path = prefix.Path + "/" + word
	target.RawPath = prefix.EscapedPath() + "/" + url.PathEscape(word)
	return &target, true
}

func (s *Server) proxyError(c *gin.Context, err error) {
	s.Logger.Error("proxy request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal proxy error", "details": err.Error()})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
