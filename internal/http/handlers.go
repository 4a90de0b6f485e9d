package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the storage backend
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics exposes counters in plain text
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.traceMiddleware.GetMetrics()
	body := fmt.Sprintf(
		"expenses_total %d\n"+
			"http_requests_total %d\n"+
			"http_client_errors_total %d\n"+
			"http_server_errors_total %d\n"+
			"http_last_request_duration_us %d\n"+
			"rate_limit_hits_total %d\n"+
			"rate_limit_active_clients %d\n"+
			"uptime_seconds %d\n",
		len(s.tracker.Records()),
		tm.TotalRequests,
		tm.ClientErrors,
		tm.ServerErrors,
		tm.LastDurationUs,
		s.rateLimiter.Hits(),
		s.rateLimiter.ActiveClients(),
		int64(time.Since(s.started).Seconds()))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
