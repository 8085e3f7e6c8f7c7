// Package admin serves the liveness and metrics endpoints next to the
// reactor, over HTTP/1.1 or HTTP/2 cleartext.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/searchktools/json-server/core/logging"
)

const shutdownTimeout = 5 * time.Second

// Config contains admin server configuration
type Config struct {
	Addr     string
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	MaxConcurrentStreams uint32
	IdleTimeout          time.Duration
}

// Server answers GET /ping with "pong" and exposes Prometheus metrics on
// /metrics. Plain HTTP/1.1 and h2c clients are both accepted.
type Server struct {
	logger *slog.Logger
	server *http.Server
}

// NewServer creates an admin server
func NewServer(cfg Config) *Server {
	if cfg.MaxConcurrentStreams == 0 {
		cfg.MaxConcurrentStreams = 250
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	h2 := &http2.Server{
		MaxConcurrentStreams: cfg.MaxConcurrentStreams,
		IdleTimeout:          cfg.IdleTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", ping)
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	return &Server{
		logger: cfg.Logger,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h2c.NewHandler(mux, h2),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

func ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "pong")
}

// Handler returns the h2c-wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("admin server shutdown", "error", err)
		}
	}()

	s.logger.Info("admin server listening", "addr", ln.Addr().String(), "protocol", "h2c")

	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return fmt.Errorf("admin serve: %w", err)
}
