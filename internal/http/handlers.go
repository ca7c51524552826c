package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"saldo/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks the store and the parsed templates.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	dm := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "saldo_uptime_seconds %d\n", int64(time.Since(s.metrics.uptime).Seconds()))
	fmt.Fprintf(w, "saldo_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "saldo_http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "saldo_http_last_duration_microseconds %d\n", tm.LastDurationUs)
	fmt.Fprintf(w, "saldo_security_suspicious_requests_total %d\n", dm.SuspiciousRequests)
	fmt.Fprintf(w, "saldo_security_blocked_requests_total %d\n", dm.BlockedRequests)
	fmt.Fprintf(w, "saldo_ratelimit_rejected_total %d\n", s.rateLimiter.Hits())
	fmt.Fprintf(w, "saldo_ratelimit_active_clients %d\n", s.rateLimiter.ActiveClients())
	fmt.Fprintf(w, "saldo_ledger_writes_total %d\n", atomic.LoadInt64(&s.metrics.writes))
	fmt.Fprintf(w, "saldo_ledger_write_errors_total %d\n", atomic.LoadInt64(&s.metrics.writeErrors))
	fmt.Fprintf(w, "saldo_quick_rejected_lines_total %d\n", atomic.LoadInt64(&s.metrics.quickRejects))
	fmt.Fprintf(w, "saldo_exports_total %d\n", atomic.LoadInt64(&s.metrics.exports))
}
