// Package debugserver exposes the daemon's health and Prometheus metrics
// endpoints over HTTP, entirely separate from the bus RPC surface the
// façade serves — grounded on the teacher's pkg/api.Server Start/Stop
// graceful-shutdown shape.
package debugserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/o1-security/gumd/internal/logger"
)

// Server is the health/metrics HTTP server.
type Server struct {
	server *http.Server
	addr   string
}

// New builds a debug Server listening on addr: liveness at /health,
// readiness at /health/ready (ready returns false while the daemon is
// still loading its tables), and Prometheus metrics at /metrics if
// registry is non-nil.
func New(addr string, registry *prometheus.Registry, ready func() bool) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return &Server{
		addr:   addr,
		server: &http.Server{Addr: addr, Handler: r},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("debug server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("debug server shutdown: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("debug server failed: %w", err)
	}
}
