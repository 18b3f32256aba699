// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"

	"despesas/internal/history"
	"despesas/internal/log"
	"despesas/internal/middleware/auth"
	"despesas/internal/middleware/ratelimit"
	"despesas/internal/middleware/security"
	"despesas/internal/middleware/trace"
	"despesas/internal/services"
)

// Pinger reports whether the data store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the use cases served by the API.
type Services struct {
	Records   *services.RecordService
	Goals     *services.GoalService
	Shopping  *services.ShoppingService
	Profiles  *services.ProfileService
	Dashboard *services.DashboardService
	History   *history.Service
}

type Options struct {
	Addr string
	// AuthSecret verifies HS256 bearer tokens. Empty trusts X-User-ID.
	AuthSecret         string
	RateLimitPerMinute int
	Logger             *log.Logger
	Ready              Pinger
}

type Server struct {
	http.Server
	svc      Services
	ready    Pinger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, svc Services) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limits := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = opts.RateLimitPerMinute
	}
	detector := security.NewDetector()

	s := &Server{
		svc:      svc,
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(limits),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
	}

	api := http.NewServeMux()
	s.routes(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", auth.New(opts.AuthSecret).Middleware(api))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("PUT /api/profile", s.handleSaveProfile)
	mux.HandleFunc("GET /api/couple", s.handleCouple)

	s.recordRoutes(mux, "expenses", "expense")
	s.recordRoutes(mux, "incomes", "income")
	s.recordRoutes(mux, "upcoming", "upcoming")
	mux.HandleFunc("POST /api/upcoming/{id}/pay", s.handlePayUpcoming)
	mux.HandleFunc("GET /api/upcoming/due-soon", s.handleDueSoon)
	mux.HandleFunc("GET /api/upcoming/overdue", s.handleOverdue)

	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/summary/monthly.xlsx", s.handleMonthlySummaryXLSX)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PATCH /api/goals/{id}/progress", s.handleGoalProgress)

	mux.HandleFunc("GET /api/shopping", s.handleListShopping)
	mux.HandleFunc("POST /api/shopping", s.handleAddShopping)
	mux.HandleFunc("PATCH /api/shopping/{id}", s.handleToggleShopping)
	mux.HandleFunc("DELETE /api/shopping/{id}", s.handleDeleteShopping)
	mux.HandleFunc("DELETE /api/shopping/completed", s.handleClearShopping)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request counters of the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
