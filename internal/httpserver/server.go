package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

// Options configures the operational HTTP surface
type Options struct {
	Host        string
	Port        int
	WebhookPath string
	// WebhookSecret must match X-Telegram-Bot-Api-Secret-Token on every
	// webhook request when set
	WebhookSecret string
	APISecret     string // the /api group is disabled when empty
}

// Server serves health checks, the bot webhook and the operator API
type Server struct {
	opts    Options
	store   *storage.Storage
	admin   *admin.Service
	webhook http.Handler
	log     *slog.Logger

	server *http.Server
}

// New creates the server. webhook may be nil when the bot polls.
func New(opts Options, store *storage.Storage, adm *admin.Service, webhook http.Handler, log *slog.Logger) *Server {
	s := &Server{
		opts:    opts,
		store:   store,
		admin:   adm,
		webhook: webhook,
		log:     log,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleHealth)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if s.webhook != nil && s.opts.WebhookPath != "" {
		r.With(s.requireWebhookSecret).Post(s.opts.WebhookPath, s.webhook.ServeHTTP)
	}

	if s.opts.APISecret != "" {
		r.Route("/api", func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/stats", s.handleStats)
			r.Get("/users", s.handleUsers)
			r.Get("/deals", s.handleDeals)
			r.Get("/logs", s.handleLogs)
			r.Post("/backup", s.handleBackup)
		})
	}

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting http server", "addr", s.server.Addr,
		"webhook", s.webhook != nil, "api", s.opts.APISecret != "")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http server shutdown", "error", err)
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
