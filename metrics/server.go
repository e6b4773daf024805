package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
)

// Server serves /metrics and /healthz.
type Server struct {
	Addr   string
	server *http.Server
}

// NewServer creates the HTTP server for rec on addr.
func NewServer(addr string, rec *Recorder) *Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", rec.Handler())
	mux.HandleFunc("GET /healthz", handleHealth)

	return &Server{
		Addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the routes, mostly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		slog.Info("Serving metrics", slog.String("addr", s.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.String("addr", s.Addr), logfields.Error(err))
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
