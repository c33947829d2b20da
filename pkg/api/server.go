package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/jobboard/pkg/board"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/middleware"
	"github.com/platinummonkey/jobboard/pkg/observability"
)

// Services are the use cases the API exposes
type Services struct {
	Accounts     *board.AccountService
	Jobs         *board.JobService
	Applications *board.ApplicationService
	Memberships  *board.MembershipService
	Institutions *board.InstitutionService
	Tenants      *board.TenantService
	Audit        *board.AuditService
}

// Options carries the optional operational endpoints
type Options struct {
	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger
}

// Server represents our API server
type Server struct {
	router   *mux.Router
	services Services
	logger   logrus.FieldLogger
}

// NewServer creates a new API server and registers every route
func NewServer(services Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		router:   mux.NewRouter(),
		services: services,
		logger:   logger,
	}

	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	if opts.Health != nil {
		s.router.HandleFunc("/healthz", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/readyz", opts.Health.Readiness).Methods("GET")
	}
	if opts.Gatherer != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(opts.Gatherer)).Methods("GET")
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Accounts
	api.HandleFunc("/auth/register", s.register).Methods("POST")
	api.HandleFunc("/auth/login", s.login).Methods("POST")
	api.HandleFunc("/me", s.me).Methods("GET")

	// Tenant lens
	api.HandleFunc("/me/tenant", s.getTenant).Methods("GET")
	api.HandleFunc("/me/tenant", s.switchTenant).Methods("PUT")
	api.HandleFunc("/me/memberships", s.myMemberships).Methods("GET")

	// Jobs
	api.HandleFunc("/jobs", s.listJobs).Methods("GET")
	api.HandleFunc("/jobs", s.createJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", s.getJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.updateJob).Methods("PUT", "PATCH")
	api.HandleFunc("/jobs/{id}", s.deleteJob).Methods("DELETE")

	// Applications
	api.HandleFunc("/jobs/{id}/applications", s.apply).Methods("POST")
	api.HandleFunc("/jobs/{id}/applications", s.listCandidates).Methods("GET")
	api.HandleFunc("/applications/{id}/status", s.updateApplicationStatus).Methods("PUT")
	api.HandleFunc("/applications/{id}", s.withdraw).Methods("DELETE")
	api.HandleFunc("/me/applications", s.myApplications).Methods("GET")

	// Saved jobs
	api.HandleFunc("/me/saved", s.listSaved).Methods("GET")
	api.HandleFunc("/me/saved/{id}", s.saveJob).Methods("PUT")
	api.HandleFunc("/me/saved/{id}", s.unsaveJob).Methods("DELETE")

	// Institutions
	api.HandleFunc("/institutions", s.listInstitutions).Methods("GET")
	api.HandleFunc("/institutions", s.createInstitution).Methods("POST")
	api.HandleFunc("/institutions/{id}", s.getInstitution).Methods("GET")
	api.HandleFunc("/institutions/{id}/branding", s.updateBranding).Methods("PUT")
	api.HandleFunc("/institutions/{id}/active", s.setInstitutionActive).Methods("PUT")

	// Members
	api.HandleFunc("/institutions/{id}/members", s.listMembers).Methods("GET")
	api.HandleFunc("/institutions/{id}/members/{user_id}", s.assignRole).Methods("PUT")
	api.HandleFunc("/institutions/{id}/members/{user_id}", s.removeMember).Methods("DELETE")

	// Audit trail
	api.HandleFunc("/audit/{resource_type}/{id}", s.auditTrail).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Pipeline configures the middleware placed in front of the router
type Pipeline struct {
	Tokens       middleware.TokenValidator
	Memberships  middleware.MembershipSource
	Limiter      middleware.RateLimiter
	CORSOrigins  []string
	MaxBodyBytes int64
	Tracing      bool
}

// Handler wraps the router with the request pipeline: request ID,
// recovery, logging, authentication, caller resolution, then rate limiting.
func (s *Server) Handler(p Pipeline) http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware(s.logger),
		httputil.RecoveryMiddleware,
		httputil.LoggingMiddleware,
	}
	if len(p.CORSOrigins) > 0 {
		chain = append(chain, httputil.CORSMiddleware(p.CORSOrigins))
	}
	if p.MaxBodyBytes > 0 {
		chain = append(chain, httputil.MaxBytesMiddleware(p.MaxBodyBytes))
	}
	chain = append(chain,
		middleware.NewAuthMiddleware(p.Tokens).Handler,
		middleware.CallerMiddleware(p.Memberships),
	)
	if p.Limiter != nil {
		chain = append(chain, middleware.RateLimitMiddleware(p.Limiter))
	}

	handler := httputil.Chain(chain...)(s)
	if p.Tracing {
		handler = otelhttp.NewHandler(handler, "jobboard")
	}
	return handler
}

// fail writes err with the request-scoped logger
func fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteAppError(w, observability.FromContext(r.Context()), err)
}
