package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/directory"
	"github.com/tellerline/teller/internal/engine"
)

// Config holds listener settings for the HTTP API.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// Options wires the server's collaborators. A nil Registry disables
// /metrics and request instrumentation.
type Options struct {
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	HashPasswords  bool
	FirstAccountID int
}

// Server exposes the ledger operations over HTTP.
type Server struct {
	dir     *directory.Service
	engine  *engine.Engine
	gateway *auth.Gateway
	logger  *zap.Logger
	opts    Options

	router *mux.Router
	server *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(dir *directory.Service, eng *engine.Engine, gw *auth.Gateway, cfg Config, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		dir:     dir,
		engine:  eng,
		gateway: gw,
		logger:  opts.Logger,
		opts:    opts,
		router:  mux.NewRouter(),
	}

	if opts.Registry != nil {
		m := newHTTPMetrics()
		if err := m.register(opts.Registry); err != nil {
			return nil, err
		}
		s.router.Use(m.middleware)
		s.router.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/customers", s.handleListCustomers).Methods(http.MethodGet)
	s.router.HandleFunc("/customers", s.handleOnboard).Methods(http.MethodPost)

	authed := s.router.NewRoute().Subrouter()
	authed.Use(s.requireSession)
	authed.HandleFunc("/sessions/current", s.handleLogout).Methods(http.MethodDelete)
	authed.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/accounts/{kind}/deposit", s.handleDeposit).Methods(http.MethodPost)
	authed.HandleFunc("/accounts/{kind}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	authed.HandleFunc("/transfers/internal", s.handleTransferInternal).Methods(http.MethodPost)
	authed.HandleFunc("/transfers/external", s.handleTransferExternal).Methods(http.MethodPost)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving requests until Shutdown is called, in which
// case it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api listening", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
