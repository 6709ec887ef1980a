package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readinessTimeout)
	defer cancel()

	ready := true
	checks := make(map[string]any)

	if p, ok := s.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			ready = false
		} else {
			checks["store"] = "ok"
		}
	}

	if rev, err := s.store.Revision(ctx); err != nil {
		checks["revision"] = fmt.Sprintf("failed: %v", err)
		ready = false
	} else {
		checks["revision"] = rev
	}

	if stats, ok := s.reports.CacheStats(); ok {
		checks["cache"] = map[string]any{"entries": stats.Size, "hit_ratio": stats.HitRatio()}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	data := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if !ready {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "checks", checks)
		ErrorResponse(http.StatusServiceUnavailable, "not ready").Data(data).Write(w)
		return
	}
	NewResponse().Message("ready").Data(data).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	metric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric(w, "http_server_errors_total", "counter", "Total number of 5xx responses", traceMetrics.ServerErrors)
	metric(w, "http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric(w, "ledger_writes_total", "counter", "Total number of successful ledger writes", atomic.LoadInt64(&s.writes))

	if stats, ok := s.reports.CacheStats(); ok {
		metric(w, "feed_cache_hits_total", "counter", "Total feed cache hits", stats.Hits)
		metric(w, "feed_cache_misses_total", "counter", "Total feed cache misses", stats.Misses)
		metric(w, "feed_cache_entries", "gauge", "Current feed cache entries", int64(stats.Size))
	}

	metric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric(w, "invalid_ip_attempts_total", "counter", "Total forwarded headers with invalid addresses", securityMetrics.InvalidIPAttempts)
	metric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}

func metric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
