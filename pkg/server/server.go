// Package server assembles a tokengate HTTP handler from configuration: the
// claims store, the issuance middleware, the bearer guard, and the routes
// behind it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/auth/apikey"
	"github.com/rhuss/tokengate/pkg/auth/jwt"
	"github.com/rhuss/tokengate/pkg/auth/noop"
	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/claims/memory"
	"github.com/rhuss/tokengate/pkg/claims/postgres"
	"github.com/rhuss/tokengate/pkg/claims/redis"
	"github.com/rhuss/tokengate/pkg/config"
	"github.com/rhuss/tokengate/pkg/issuing"
	"github.com/rhuss/tokengate/pkg/observability"
	"github.com/rhuss/tokengate/pkg/transport"
	"github.com/rhuss/tokengate/pkg/values"
)

// readyTimeout bounds the store ping behind /readyz.
const readyTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type closer interface {
	Close() error
}

// Server is an assembled tokengate handler and the resources it owns.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver claims.Resolver
	issuer   *issuing.Middleware
	values   *values.Store
	handler  http.Handler
}

// New opens the configured claims store and assembles the handler.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	resolver, err := OpenStore(ctx, cfg.Claims)
	if err != nil {
		return nil, err
	}
	s, err := NewWithResolver(cfg, logger, resolver)
	if err != nil {
		closeResolver(resolver)
		return nil, err
	}
	return s, nil
}

// NewWithResolver assembles the handler around an existing resolver. The
// server takes ownership of resolver and closes it in Close when it can be
// closed.
func NewWithResolver(cfg *config.Config, logger *slog.Logger, resolver claims.Resolver) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	settings, err := Settings(cfg.Issuing)
	if err != nil {
		return nil, err
	}

	issuer, err := issuing.New(resolver, settings,
		issuing.WithLogger(logger),
		issuing.WithMaxBodySize(cfg.Server.MaxBodySize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating issuing middleware: %w", err)
	}

	chain, err := authChain(cfg.Auth, settings)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		issuer:   issuer,
		values:   values.NewStore(cfg.Values.MaxSize),
	}

	bypass := append([]string{settings.Endpoint()}, cfg.Auth.Bypass...)
	if cfg.Observability.Metrics.Enabled {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}

	pipeline := transport.NewPipeline(
		transport.Recovery(logger),
		transport.RequestID(),
		transport.Logging(logger),
		transport.StageFunc(observability.MetricsMiddleware),
		issuer,
		transport.StageFunc(auth.Middleware(chain, bypass)),
	)
	s.handler = pipeline.Then(s.routes())

	logger.Info("tokengate assembled",
		"endpoint", settings.Endpoint(),
		"algorithm", settings.Algorithm(),
		"store", cfg.Claims.Store,
		"auth", cfg.Auth.Enabled,
	)
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Issuer returns the issuance middleware.
func (s *Server) Issuer() *issuing.Middleware {
	return s.issuer
}

// Close releases the claims store.
func (s *Server) Close() error {
	return closeResolver(s.resolver)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	if m := s.cfg.Observability.Metrics; m.Enabled {
		mux.Handle("GET "+m.Path, promhttp.Handler())
	}
	values.NewHandler(s.values).Register(mux)
	return mux
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.resolver.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			transport.WriteError(w, transport.NewServerError("claims store unavailable"), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Settings builds signing settings from configuration, parsing the key
// material for the configured algorithm.
func Settings(cfg config.IssuingConfig) (issuing.Settings, error) {
	key, err := issuing.ParseSigningKey(cfg.Algorithm, []byte(cfg.Key))
	if err != nil {
		return issuing.Settings{}, err
	}
	return issuing.NewOptions().
		WithEndpoint(cfg.Endpoint).
		WithSigningKey(cfg.Algorithm, key).
		WithLifetime(cfg.Lifetime).
		Build()
}

// OpenStore creates the claims store selected by cfg.Store.
func OpenStore(ctx context.Context, cfg config.ClaimsConfig) (claims.Resolver, error) {
	switch cfg.Store {
	case "memory":
		store, err := memory.New(cfg.Users...)
		if err != nil {
			return nil, fmt.Errorf("seeding memory store: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown claims store %q", cfg.Store)
}

// authChain builds the guard for everything except the issuance endpoint.
// With auth disabled every request is admitted as "anonymous".
func authChain(cfg config.AuthConfig, settings issuing.Settings) (*auth.AuthChain, error) {
	if !cfg.Enabled {
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{noop.Authenticator{}},
			DefaultDecision: auth.Yes,
		}, nil
	}

	var authenticators []auth.Authenticator
	if len(cfg.APIKeys) > 0 {
		entries := make([]apikey.Entry, len(cfg.APIKeys))
		for i, k := range cfg.APIKeys {
			entries[i] = apikey.Entry{Subject: k.Subject, Key: k.Key, SHA256: k.SHA256}
		}
		keys, err := apikey.New(entries)
		if err != nil {
			return nil, fmt.Errorf("configuring api keys: %w", err)
		}
		authenticators = append(authenticators, keys)
	}

	tokens, err := jwt.FromSettings(settings, cfg.SubjectClaim)
	if err != nil {
		return nil, fmt.Errorf("configuring token authenticator: %w", err)
	}
	authenticators = append(authenticators, tokens)

	return &auth.AuthChain{
		Authenticators:  authenticators,
		DefaultDecision: auth.No,
	}, nil
}

func closeResolver(r claims.Resolver) error {
	c, ok := r.(closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing claims store: %w", err)
	}
	return nil
}
