package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry collects request latency and reply source counts. It feeds both
// the JSON snapshot endpoint and the Prometheus exposition. All methods are
// safe on a nil Registry.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*LatencyTracker
	sources  map[string]int64
	requests map[string]int64
	window   int
	started  time.Time

	prom        *prometheus.Registry
	reqDuration *prometheus.HistogramVec
	reqTotal    *prometheus.CounterVec
	replySource *prometheus.CounterVec
}

// NewRegistry creates a registry with its own Prometheus collector set.
func NewRegistry(windowSize int) *Registry {
	r := &Registry{
		trackers: make(map[string]*LatencyTracker),
		sources:  make(map[string]int64),
		requests: make(map[string]int64),
		window:   windowSize,
		started:  time.Now(),
		prom:     prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mailassist",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "method"}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailassist",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "method", "status"}),
		replySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailassist",
			Name:      "smart_reply_source_total",
			Help:      "Smart replies by the path that produced them.",
		}, []string{"source"}),
	}
	r.prom.MustRegister(
		r.reqDuration,
		r.reqTotal,
		r.replySource,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRequest records one finished HTTP request.
func (r *Registry) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.tracker(route).Record(d)

	r.mu.Lock()
	r.requests[route]++
	r.mu.Unlock()

	r.reqDuration.WithLabelValues(route, method).Observe(d.Seconds())
	r.reqTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// IncReplySource counts which path produced a smart reply.
func (r *Registry) IncReplySource(source string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.sources[source]++
	r.mu.Unlock()
	r.replySource.WithLabelValues(source).Inc()
}

func (r *Registry) tracker(route string) *LatencyTracker {
	r.mu.RLock()
	t, ok := r.trackers[route]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.trackers[route]; !ok {
		t = NewLatencyTracker(r.window)
		r.trackers[route] = t
	}
	return t
}

// Snapshot returns a JSON-friendly view of the collected metrics.
func (r *Registry) Snapshot() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	r.mu.RLock()
	trackers := make(map[string]*LatencyTracker, len(r.trackers))
	for k, v := range r.trackers {
		trackers[k] = v
	}
	sources := make(map[string]int64, len(r.sources))
	for k, v := range r.sources {
		sources[k] = v
	}
	requests := make(map[string]int64, len(r.requests))
	for k, v := range r.requests {
		requests[k] = v
	}
	r.mu.RUnlock()

	latency := make(map[string]any, len(trackers))
	for route, t := range trackers {
		latency[route] = t.Stats().ToMap()
	}

	return map[string]any{
		"uptime_seconds": int64(time.Since(r.started).Seconds()),
		"requests":       requests,
		"latency":        latency,
		"reply_sources":  sources,
	}
}

// Handler serves the Prometheus text exposition.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
