// Package api exposes the DebtBridge HTTP surface: session management, the
// dialogue turn endpoint, and the inbound SMS webhook.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/debtbridge/DebtBridge/internal/engine"
	"github.com/debtbridge/DebtBridge/internal/events"
	"github.com/debtbridge/DebtBridge/internal/store"
)

// DefaultShutdownTimeout bounds graceful shutdown of the HTTP server.
const DefaultShutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	Publisher     *events.Publisher
	TwilioWebhook http.HandlerFunc
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithPublisher sets the turn event publisher.
func WithPublisher(pub *events.Publisher) Option {
	return func(o *Opts) { o.Publisher = pub }
}

// WithTwilioWebhook mounts an inbound SMS webhook handler at /webhooks/twilio.
func WithTwilioWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) { o.TwilioWebhook = h }
}

// Server wires the dialogue engine and store to HTTP endpoints.
type Server struct {
	router  chi.Router
	st      store.Store
	eng     *engine.Engine
	scripts engine.ScriptSource
	pub     *events.Publisher
	addr    string
	httpSrv *http.Server
}

// NewServer builds the API server and its routes.
func NewServer(st store.Store, eng *engine.Engine, scripts engine.ScriptSource, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		st:      st,
		eng:     eng,
		scripts: scripts,
		pub:     cfg.Publisher,
		addr:    cfg.Addr,
	}

	router.Get("/health", s.healthHandler)
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSessionHandler)
		r.Get("/", s.listSessionsHandler)
		r.Get("/{id}", s.getSessionHandler)
		r.Delete("/{id}", s.deleteSessionHandler)
		r.Post("/{id}/turn", s.turnHandler)
		r.Get("/{id}/transcript", s.transcriptHandler)
		r.Post("/{id}/reset", s.resetSessionHandler)
	})
	if cfg.TwilioWebhook != nil {
		router.Post("/webhooks/twilio", cfg.TwilioWebhook)
	}

	return s
}

// Handler returns the server's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", "addr", s.addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		slog.Info("API server shutting down")
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}
