package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var totalRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "agritrust",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by route and status.",
	},
	[]string{"path", "status"},
)

var httpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "agritrust",
		Name:      "http_response_time_seconds",
		Help:      "Duration of HTTP requests.",
	},
	[]string{"path"},
)

var usersSynced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "agritrust",
		Name:      "users_synced_total",
		Help:      "Federated sync calls, split by whether an identity was created.",
	},
	[]string{"created"},
)

var filesUploaded = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "agritrust",
		Name:      "files_uploaded_total",
		Help:      "Number of files stored.",
	})

// PromMiddleware records request count and latency per chi route pattern.
func PromMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		httpDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		totalRequests.WithLabelValues(path, strconv.Itoa(statusOf(ww))).Inc()
	})
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
