package api

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ppi-network-service/pkg/utils"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppi_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppi_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RequestIDMiddleware tags each request with an id and a request-scoped logger
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := log.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := wrap(w)

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", utils.GetClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request processed")
	})
}

// MetricsMiddleware records request counts and latency per route template
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := wrap(w)

		next.ServeHTTP(wrapper, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapper.statusCode)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecoveryMiddleware recovers from panics and returns 500 error
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapper := wrap(w)
		defer func() {
			if err := recover(); err != nil {
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("HTTP handler panic recovered")

				if !wrapper.written {
					utils.WriteErrorResponse(wrapper, http.StatusInternalServerError, "Internal server error", nil)
				}
			}
		}()

		next.ServeHTTP(wrapper, r)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// wrap reuses an existing wrapper so nested middleware share one status
func wrap(w http.ResponseWriter) *responseWrapper {
	if rw, ok := w.(*responseWrapper); ok {
		return rw
	}
	return &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWrapper) WriteHeader(code int) {
	if rw.written {
		return
	}
	rw.statusCode = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
