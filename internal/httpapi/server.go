package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aquariumd/internal/advice"
	"aquariumd/internal/dashboard"
	"aquariumd/pkg/types"
)

// Service defines the dashboard methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Mood() types.MoodResult
	Snapshot() types.Snapshot
	UpdateParam(kind string, value float64) error
	LogEvent(kind string) error
	SetCategoryOverride(v int) error
	Ready() bool
}

// AdviceService produces care advice for a snapshot. May be nil when no
// advice backend is configured.
type AdviceService interface {
	Advise(ctx context.Context, snap types.Snapshot) (string, error)
}

// HistoryService exposes the persisted event log. May be nil when history
// is disabled.
type HistoryService interface {
	RecordEvent(kind string, at time.Time) error
	DailyCounts(kind string, days int) ([]types.DayCount, error)
	ExportCSV(w io.Writer) error
}

func NewMux(svc Service, adv AdviceService, hist HistoryService) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/mood", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Mood())
	})

	r.Get("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Snapshot())
	})

	r.Post("/params", func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateParamRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Kind) == "" {
			writeJSONError(w, http.StatusBadRequest, "kind is required")
			return
		}
		if err := svc.UpdateParam(req.Kind, req.Value); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, svc.Snapshot())
	})

	r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
		var req types.EventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.LogEvent(req.Kind); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if hist != nil {
			if err := hist.RecordEvent(req.Kind, time.Now()); err != nil {
				logWarn(r, err, "record event")
			}
		}
		writeJSON(w, svc.Snapshot())
	})

	r.Post("/category", func(w http.ResponseWriter, r *http.Request) {
		var req types.CategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.SetCategoryOverride(req.Category); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, svc.Status())
	})

	r.Post("/advice", func(w http.ResponseWriter, r *http.Request) {
		if adv == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "advice backend not configured")
			return
		}
		// Join server base context with request context so shutdown cancels
		// in-flight upstream calls too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		text, err := adv.Advise(ctx, svc.Snapshot())
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, r, err)
			return
		}
		logInfo(r, "advice served", time.Since(start))
		writeJSON(w, types.AdviceResponse{Advice: text})
	})

	r.Get("/history/events", func(w http.ResponseWriter, r *http.Request) {
		if hist == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "history not configured")
			return
		}
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = "feed"
		}
		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 365 {
				writeJSONError(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
				return
			}
			days = n
		}
		counts, err := hist.DailyCounts(kind, days)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, map[string]any{"kind": kind, "days": counts})
	})

	r.Get("/history/export", func(w http.ResponseWriter, r *http.Request) {
		if hist == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "history not configured")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)
		if err := hist.ExportCSV(w); err != nil {
			logWarn(r, err, "csv export")
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSON enforces the JSON content type and body limit, then decodes
// into dst. On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// MaxBytesReader errors land here too; 400 avoids leaking size details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps well-known service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case dashboard.IsUnknownParam(err), dashboard.IsUnknownEvent(err), dashboard.IsInvalidCategory(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case advice.IsQuotaExhausted(err):
		IncrementBackpressure("advice_quota")
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
	case advice.IsUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
	logWarn(r, err, "request failed")
}
