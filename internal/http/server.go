package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LedgerService is the record CRUD surface used by the handlers.
type LedgerService interface {
	CreateTransaction(ctx context.Context, owner string, in services.TransactionInput) (core.Transaction, error)
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, owner, id string, p services.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, owner, id string) error
	CreateBudget(ctx context.Context, owner string, in services.BudgetInput) (core.Budget, error)
	ListBudgets(ctx context.Context, owner string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, owner, id string, p services.BudgetPatch) (core.Budget, error)
	DeleteBudget(ctx context.Context, owner, id string) error
	Ping(ctx context.Context) error
}

// ReportService builds the aggregated reports.
type ReportService interface {
	MonthlySummary(ctx context.Context, owner string) ([]core.MonthSlot, error)
	MonthlySummaryFor(ctx context.Context, owner string, year int) ([]core.MonthSlot, error)
	CategoryBreakdown(ctx context.Context, owner string) ([]core.CategoryTotal, error)
	Totals(ctx context.Context, owner string) (core.Totals, error)
	BudgetProgress(ctx context.Context, owner, budgetID string, scope core.SpendScope) (core.BudgetProgress, error)
}

// InsightService produces the generated narrative.
type InsightService interface {
	Build(ctx context.Context, owner string) (core.Insight, error)
}

// Config holds the server settings that do not come from collaborators.
type Config struct {
	Addr               string
	JWTSecret          string
	RateLimitPerMinute int
	// AllowedOrigins lists the browser origins allowed to call the API.
	// Empty allows any origin.
	AllowedOrigins []string
	// WriteTimeout must exceed the insight generation timeout.
	WriteTimeout time.Duration
	Logger       *log.Logger
}

type Server struct {
	http.Server
	ledger   LedgerService
	reports  ReportService
	insights InsightService
	auth     *Authenticator
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	cors     func(http.Handler) http.Handler
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger LedgerService, reports ReportService, insights InsightService) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	detector := security.NewDetector()
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders: []string{trace.RequestIDHeader},
		MaxAge:         300,
	})
	s := &Server{
		ledger:   ledger,
		reports:  reports,
		insights: insights,
		auth:     NewAuthenticator(cfg.JWTSecret),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(cfg.Logger, detector.ExtractClientIP),
		detector: detector,
		cors:     corsHandler,
		logger:   cfg.Logger.WithComponent(log.ComponentHTTP),
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(chimw.Recoverer)
	// preflights end here, before auth and rate limiting
	r.Use(s.cors)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentLedger))
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentLedger))
			r.Post("/", s.handleCreateBudget)
			r.Get("/", s.handleListBudgets)
			r.Get("/{id}", s.handleBudgetProgress)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentReport))
			r.Get("/monthly", s.handleMonthlySummary)
			r.Get("/categories", s.handleCategoryBreakdown)
			r.Get("/totals", s.handleTotals)
			r.Get("/ai-insights", s.handleAIInsights)
		})
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded. Please try again later."})
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
