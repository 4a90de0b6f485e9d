package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/tracker"
	appweb "expensetracker/web"
)

// Options configure NewServer.
type Options struct {
	Addr               string
	Tracker            *tracker.Tracker
	Currency           core.Currency
	RateLimitPerMinute int
	// Ready reports whether the storage backend is usable; nil means always ready
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

type Server struct {
	http.Server
	templates       *template.Template
	tracker         *tracker.Tracker
	currency        core.Currency
	ready           func(ctx context.Context) error
	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	logger          *slog.Logger
	started         time.Time
	shutdownOnce    sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(applog.FieldComponent, applog.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	cur := opts.Currency
	if cur.Code == "" {
		cur = core.GetCurrency(core.DefaultCurrency)
	}

	s := &Server{
		templates:       t,
		tracker:         opts.Tracker,
		currency:        cur,
		ready:           opts.Ready,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		traceMiddleware: trace.NewMiddleware(logger, security.ExtractClientIP),
		logger:          logger,
		started:         time.Now(),
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	// page and form actions
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleSubmitExpense)
	mux.HandleFunc("POST /expenses/{id}/edit", s.handleEditExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)
	mux.HandleFunc("POST /edit/cancel", s.handleCancelEdit)

	// JSON API
	mux.HandleFunc("GET /api/expenses", s.handleAPIList)
	mux.HandleFunc("POST /api/expenses", s.handleAPICreate)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleAPIGet)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleAPIUpdate)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleAPIDelete)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)
	mux.HandleFunc("GET /api/state", s.handleAPIState)

	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(security.ExtractClientIP,
		http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
