// Package api provides the HTTP read/write surface over the registry and
// stats services
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"torrenthealth/internal/modkit"
	"torrenthealth/internal/platform/httpx"
	regdom "torrenthealth/internal/services/registry/domain"
	statdom "torrenthealth/internal/services/stats/domain"
)

// Config controls the HTTP server
type Config struct {
	Port        int
	CORSOrigins []string
}

// FromConfig reads Config from API_* env
func FromConfig(deps modkit.Deps) Config {
	c := deps.Cfg.Prefix("API_")
	return Config{
		Port:        c.MayInt("PORT", 8080),
		CORSOrigins: c.MayCSV("CORS_ORIGINS", []string{"*"}),
	}
}

// Server hosts the router and its lifecycle
type Server struct {
	deps modkit.Deps
	cfg  Config
	srv  *http.Server
}

// New builds the router over the given ports. health is consulted by the
// readiness endpoint
func New(
	deps modkit.Deps,
	cfg Config,
	registry regdom.RegistryPort,
	stats statdom.StatsPort,
	health func(context.Context) error,
) *Server {
	h := &handlers{registry: registry, stats: stats, health: health}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httpx.WithRequestID)
	r.Use(httpx.AccessLog(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", httpx.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", httpx.Handle(h.healthz))
	r.Get("/version", httpx.Handle(h.version))

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", httpx.Handle(h.summary))
		r.Get("/torrents", httpx.Handle(h.listTorrents))
		r.Post("/torrents", httpx.Handle(h.addTorrent))
		r.Post("/torrents/import", httpx.Handle(h.importTorrents))
		r.Get("/torrents/{hash}", httpx.Handle(h.torrentStats))
		r.Get("/torrents/{hash}/trackers", httpx.Handle(h.torrentTrackers))
	})

	return &Server{
		deps: deps,
		cfg:  cfg,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx ends, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info().Str("addr", s.srv.Addr).Msg("api: listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
