// Package metrics exposes prometheus counters for the store, the AI wrapper and HTTP.
// All recording methods are safe on a nil *Collector so components can run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	Mutations     *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	AmbientLikes  prometheus.Counter

	AICalls    *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec
	VideoPolls prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector on its own registry under the given namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Social-graph store mutations by operation",
		}, []string{"operation"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Notifications generated by kind",
		}, []string{"kind"}),
		AmbientLikes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ambient_likes_total",
			Help:      "Synthetic likes added by the ambient activity ticker",
		}),
		AICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_calls_total",
			Help:      "AI provider calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		AIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "AI provider call duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"operation"}),
		VideoPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_polls_total",
			Help:      "Video generation status polls",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.Mutations, c.Notifications, c.AmbientLikes,
		c.AICalls, c.AIDuration, c.VideoPolls,
		c.HTTPRequests, c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordMutation(operation string) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordNotification(kind string) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordAmbientLike() {
	if c == nil {
		return
	}
	c.AmbientLikes.Inc()
}

func (c *Collector) RecordAICall(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.AICalls.WithLabelValues(operation, outcome).Inc()
	c.AIDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *Collector) RecordVideoPoll() {
	if c == nil {
		return
	}
	c.VideoPolls.Inc()
}

func (c *Collector) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
