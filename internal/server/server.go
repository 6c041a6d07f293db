package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/doop/internal/block"
	"github.com/specialistvlad/doop/internal/blockref"
	"github.com/specialistvlad/doop/internal/ctxlog"
	"github.com/specialistvlad/doop/internal/loader"
)

// ContentType is sent with every module response.
const ContentType = "text/javascript; charset=utf-8"

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// Server serves the block sources found below a root directory.
type Server struct {
	root   string
	cache  *loader.Cache
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns a server for root backed by cache.
func New(root string, cache *loader.Cache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		root:   root,
		cache:  cache,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.healthHandler)
	s.mux.HandleFunc("GET /{path...}", s.moduleHandler)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) moduleHandler(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.With(ctxlog.WithLogger(r.Context(), s.logger), "path", r.URL.Path, "query", r.URL.RawQuery)
	logger := ctxlog.FromContext(ctx)

	rel := path.Clean("/" + r.PathValue("path"))
	if !strings.HasSuffix(rel, blockref.Ext) {
		http.NotFound(w, r)
		return
	}

	ref := &blockref.Ref{Path: filepath.Join(s.root, filepath.FromSlash(rel))}
	if q := r.URL.Query(); q.Has("block") {
		if ref.Block = q.Get("block"); ref.Block == "" {
			http.Error(w, "empty block id", http.StatusBadRequest)
			return
		}
	}

	mod, err := s.cache.FetchRef(ctx, ref)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to fetch module.", "error", err)
		} else {
			logger.Debug("Module not served.", "status", status, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("ETag", mod.ETag)
	if etagMatches(r.Header.Get("If-None-Match"), mod.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	fmt.Fprint(w, mod.Source)
	logger.Debug("Module served.", "etag", mod.ETag)
}

// etagMatches reports whether an If-None-Match header value names etag.
// The header may hold a comma-separated list or "*". Comparison is weak,
// so a W/ prefix is ignored.
func etagMatches(header, etag string) bool {
	for tag := range strings.SplitSeq(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

func statusFor(err error) int {
	switch {
	case loader.IsNotExist(err), errors.Is(err, block.ErrUnknownBlock):
		return http.StatusNotFound
	case errors.Is(err, block.ErrDuplicateBlockID):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting.", "address", addr, "root", s.root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown failed", "error", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Debug("Server shut down gracefully.")
	return nil
}
