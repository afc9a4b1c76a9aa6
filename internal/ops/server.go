// Package ops serves profiling and scrape endpoints on a separate port so they
// never share a listener with client traffic.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autosense/internal"
)

// NewRouter mounts pprof under /debug and, when withMetrics is set, the
// Prometheus handler under /metrics.
func NewRouter(withMetrics bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Mount("/debug", middleware.Profiler())
	return r
}

// Server runs the ops router until its context is cancelled.
type Server struct {
	http   *http.Server
	logger *internal.Logger
}

// NewServer creates an ops server listening on addr
func NewServer(addr string, withMetrics bool, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(withMetrics),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run blocks serving requests and shuts down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Ops server listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
