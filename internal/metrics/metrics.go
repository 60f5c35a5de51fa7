package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by the three services. Each binary owns
// its registry so tests can build as many instances as they like.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec   // {method,route,status}
	HTTPDuration     *prometheus.HistogramVec // {method,route}
	ExternalRequests *prometheus.CounterVec   // {peer,endpoint,outcome}
	ExternalDuration *prometheus.HistogramVec // {peer,endpoint}
	EventPublishFail *prometheus.CounterVec   // {event}
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ExternalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Calls made to other services.",
		}, []string{"peer", "endpoint", "outcome"}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Duration of calls made to other services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"peer", "endpoint"}),
		EventPublishFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_events_publish_failed_total",
			Help:      "Order lifecycle events that could not be handed to the broker.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration,
		m.ExternalRequests, m.ExternalDuration,
		m.EventPublishFail,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
