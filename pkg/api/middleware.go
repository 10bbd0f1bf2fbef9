package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/nullshard/prospector/pkg/metrics"
)

// auth requires a matching bearer token on every swarm/resources route.
// An empty configured token disables the check, for local development
// against an orchestrator run without WORKER_AUTH_TOKEN set.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.workerAuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, prefix) || header[len(prefix):] != s.workerAuthToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gated rejects acquire/keepalive traffic while the Operational Nexus is
// not fully operational: paused or compromised deployments stop handing
// out new work and stop refreshing leases, but still accept completions,
// findings, and telemetry so in-flight work can drain.
func (s *Server) gated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.nexus != nil && !s.nexus.IsOperational() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error":       "not operational",
				"reason":      string(s.nexus.Mode()) + "/" + string(s.nexus.Integrity()),
				"retry_after": 5,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records APIRequestsTotal and APIRequestDuration for path,
// labeled by method and the response status actually written.
func (s *Server) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.APIRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		metrics.APIRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(rec.status)).Inc()
	})
}
