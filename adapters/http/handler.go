// Package http exposes the runtime as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/adapters/metrics"
	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/records"
	"github.com/artpar/warsztat/core/registry"
	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/core/validation"
)

// DefaultMetricsPath is where the Prometheus handler is mounted.
const DefaultMetricsPath = "/metrics"

// maxBodyBytes caps request bodies, imports included.
const maxBodyBytes = 16 << 20

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	Runtime *runtime.Runtime

	// Metrics enables request metrics. Gatherer serves them; when nil the
	// default Prometheus gatherer is used.
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// CORSOrigins lists the allowed origins. Empty disables CORS handling.
	CORSOrigins []string

	// RequestTimeout defaults to 60s.
	RequestTimeout time.Duration

	Logger zerolog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = DefaultMetricsPath
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(cfg.Logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(NewCORS(cfg.CORSOrigins).Handler)
	}

	r.Get("/health", health)

	if cfg.Metrics != nil {
		g := cfg.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		r.Handle(cfg.MetricsPath, metrics.Handler(g))
	}

	api := NewAPI(cfg.Runtime, cfg.Logger)
	r.Mount("/api", api.Router())

	return r
}

// NewCORS returns the CORS middleware for origins.
func NewCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewLoggingMiddleware logs each request at debug level.
// Health checks and metrics scrapes are not logged.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request counts and latencies labelled with
// the matched route pattern.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			m.RequestsTotal.WithLabelValues(r.Method, route, statusLabel(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// routePattern keeps label cardinality bounded: ids and slugs are replaced
// by their placeholders.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	p := rctx.RoutePattern()
	if p == "" {
		return "unmatched"
	}
	return strings.ReplaceAll(p, "/*/", "/")
}

func statusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return strconv.Itoa(status)
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// writeErr maps core errors onto statuses.
func writeErr(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: ErrorDetail{
			Code:    "validation_failed",
			Message: "validation failed",
			Fields:  ve.Errors,
		}})
	case errors.Is(err, registry.ErrNameRequired):
		writeError(w, http.StatusUnprocessableEntity, "name_required", err.Error())
	case errors.Is(err, records.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, records.ErrUnknownPartition):
		writeError(w, http.StatusNotFound, "unknown_partition", err.Error())
	case errors.Is(err, state.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, "malformed_input", err.Error())
	case errors.Is(err, confirm.ErrPending):
		writeError(w, http.StatusConflict, "confirmation_pending", err.Error())
	case errors.Is(err, confirm.ErrUnknownRequest):
		writeError(w, http.StatusNotFound, "unknown_confirmation", err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return false
	}
	return true
}
