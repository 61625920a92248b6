package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/companies"
	"github.com/L-Aguilar/microsaas-sub003/internal/config"
	"github.com/L-Aguilar/microsaas-sub003/tenants"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

// Repos holds the store dependencies for the HTTP server.
type Repos struct {
	Users     users.Store
	Tenants   tenants.Repo
	Companies companies.Repo
}

type Server struct {
	config  config.Config
	logger  zerolog.Logger
	gate    *auth.Gatekeeper
	limiter *auth.RateLimiter
	repos   Repos
}

func New(cfg config.Config, logger zerolog.Logger, gate *auth.Gatekeeper, limiter *auth.RateLimiter, repos Repos) (*Server, error) {
	if gate == nil {
		return nil, errors.New("[server.New] gatekeeper is required")
	}
	if limiter == nil {
		return nil, errors.New("[server.New] rate limiter is required")
	}
	if repos.Users == nil {
		return nil, errors.New("[server.New] Users store is required")
	}
	if repos.Tenants == nil {
		return nil, errors.New("[server.New] Tenants repo is required")
	}

	return &Server{
		config:  cfg,
		logger:  logger,
		gate:    gate,
		limiter: limiter,
		repos:   repos,
	}, nil
}

// Routes builds the HTTP surface. Authentication-attempt endpoints sit
// behind the rate limiter; everything under /api sits behind the gate.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(s.RateLimit).Post("/login", s.handleLogin)
		r.With(s.RateLimit).Post("/refresh", s.handleRefresh)
		r.With(s.Authenticate).Post("/logout", s.handleLogout)
		r.With(s.Authenticate).Get("/me", s.handleMe)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.Authenticate)
		r.Route("/companies", func(r chi.Router) {
			r.Use(s.RequireTenant)
			r.Get("/", s.handleListCompanies)
			r.Post("/", s.handleCreateCompany)
		})
	})

	return r
}
