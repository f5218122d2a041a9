package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// httpMetrics collects request counts and latencies per route.
type httpMetrics struct {
	gatherer prometheus.Gatherer
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newHTTPMetrics(reg *prometheus.Registry) *httpMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	reg.MustRegister(requests, latency)

	return &httpMetrics{
		gatherer: reg,
		requests: requests,
		latency:  latency,
	}
}

// routeLabel replaces the segments holding route parameters with their names so that label cardinality stays bounded.
func routeLabel(path string, params httprouter.Params) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		for _, p := range params {
			if s == p.Value {
				segments[i] = ":" + p.Key
				break
			}
		}
	}
	return strings.Join(segments, "/")
}

func (app *application) metricsHandler() http.Handler {
	return promhttp.HandlerFor(app.metrics.gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// unmatchedRoute labels requests no route handles, so arbitrary paths do not become label values.
const unmatchedRoute = "unmatched"

func (app *application) recordMetrics(router *httprouter.Router, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		path := unmatchedRoute
		if h, params, _ := router.Lookup(r.Method, r.URL.Path); h != nil {
			path = routeLabel(r.URL.Path, params)
		}

		labels := []string{r.Method, path, strconv.Itoa(sw.status)}
		app.metrics.requests.WithLabelValues(labels...).Inc()
		app.metrics.latency.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
