package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "wallet/internal/log"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	"wallet/internal/report"
	"wallet/internal/services"
	"wallet/internal/storage"
)

// Config tunes the HTTP surface.
type Config struct {
	Addr               string
	PageSize           int
	RateLimitPerMinute int
	TrustedProxies     []string
	ReadinessTimeout   time.Duration
}

// Pinger is implemented by stores that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	reports *report.Service
	ledger  *services.LedgerService
	store   storage.Reader
	logger  *applog.Logger
	// requestLogger seeds request contexts; handlers read it back with
	// applog.FromContext.
	requestLogger *applog.Logger

	pageSize         int
	readinessTimeout time.Duration

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	startedAt    time.Time
	writes       int64
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, reports *report.Service, ledger *services.LedgerService, store storage.Reader, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = 5 * time.Second
	}
	requestLogger := logger
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, applog.FieldError, err)
		}
	}

	s := &Server{
		reports:          reports,
		ledger:           ledger,
		store:            store,
		logger:           logger,
		requestLogger:    requestLogger,
		pageSize:         cfg.PageSize,
		readinessTimeout: cfg.ReadinessTimeout,
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		startedAt:        time.Now(),
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/dashboard-data/{$}", s.handleDashboard)
	mux.HandleFunc("GET /api/transactions/{$}", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions/{$}", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{type}/{id}/{$}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{type}/{id}/{$}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/income/{$}", s.handleListIncomes)
	mux.HandleFunc("POST /api/income/{$}", s.handleCreateIncome)
	mux.HandleFunc("GET /api/income/{id}/{$}", s.handleGetIncome)
	mux.HandleFunc("PUT /api/income/{id}/{$}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/income/{id}/{$}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/expense/{$}", s.handleListExpenses)
	mux.HandleFunc("POST /api/expense/{$}", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expense/{id}/{$}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expense/{id}/{$}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expense/{id}/{$}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/categories/{$}", s.handleListCategories)
	mux.HandleFunc("POST /api/categories/{$}", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}/{$}", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}/{$}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/search/{$}", s.handleSearch)
	mux.HandleFunc("GET /api/breakdown/{$}", s.handleBreakdown)
	mux.HandleFunc("GET /api/monthly/{$}", s.handleMonthly)
	mux.HandleFunc("GET /export/{$}", s.handleExport)

	// Outermost first: request logger, trace, headers, detection, then
	// write throttling.
	var h http.Handler = mux
	h = s.limitWrites(h)
	h = s.securityDetector.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	h = applog.ComponentMiddleware(applog.ComponentHTTP)(h)
	h = applog.Middleware(s.requestLogger)(h)
	return h
}

// limitWrites applies the rate limiter to state-changing methods only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("rate limit exceeded, try again later").Write(w)
}

// Shutdown gracefully shuts down the server and background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until it is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) countWrite() {
	atomic.AddInt64(&s.writes, 1)
}
