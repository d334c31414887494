// Package server serves the generated site and the metrics endpoint while
// the watch loop rebuilds it.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// MetricsPath is where the Prometheus handler is mounted.
const MetricsPath = "/metrics"

// Server is one HTTP listener. It serves the output tree when Root is set
// and /metrics when a registry is given.
type Server struct {
	addr     string
	root     string
	registry *prometheus.Registry
	logger   *slog.Logger

	ln  net.Listener
	srv *http.Server
}

// New creates a server for addr. root or reg may be empty, not both.
func New(addr, root string, reg *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, root: root, registry: reg, logger: logger}
}

// Handler builds the request mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.registry != nil {
		mux.Handle(MetricsPath, metrics.HTTPHandler(s.registry))
	}
	if s.root != "" {
		mux.Handle("/", cacheControl(siteHandler(s.root)))
	}
	return chain(s.logger, mux)
}

// Start binds the listener and serves in the background. Bind errors are
// returned immediately.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ferrors.RuntimeError("failed to bind HTTP listener").
			WithCause(err).
			WithContext("addr", s.addr).
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", logfields.Addr(s.addr), logfields.Error(err))
		}
	}()
	s.logger.Info("HTTP server started", logfields.Addr(s.Addr()), logfields.Dir(s.root))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// siteHandler serves files under root. Extensionless paths fall back to
// their .html page; anything else missing gets the rendered 404 page.
func siteHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if exists(root, clean) {
			files.ServeHTTP(w, r)
			return
		}
		if path.Ext(clean) == "" && exists(root, clean+".html") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = clean + ".html"
			files.ServeHTTP(w, r2)
			return
		}
		notFound(w, root)
	})
}

func exists(root, urlPath string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(urlPath)))
	return err == nil
}

func notFound(w http.ResponseWriter, root string) {
	page, err := os.ReadFile(filepath.Join(root, resource.NotFoundPage))
	if err != nil {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(page)
}
