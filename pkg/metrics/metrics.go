// Copyright 2025 Alexander Kappner.
//
// Package metrics supplies the Prometheus-backed implementation of
// transport.Metrics. Registration and scrape-endpoint wiring are left to the
// caller (an HTTP mux exposing promhttp.Handler is out of scope here); this
// package only owns the collectors and how a request observation feeds them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts and times requests made through a transport.Transport,
// labeled by HTTP method and response status class.
type Collector struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewCollector builds a Collector and registers it with reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mielecrypto",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Duration of signed, encrypted appliance HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status_class"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mielecrypto",
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Total appliance HTTP requests by method and status class.",
		}, []string{"method", "status_class"}),
	}
	reg.MustRegister(c.requestDuration, c.requestTotal)
	return c
}

// ObserveRequest implements transport.Metrics.
func (c *Collector) ObserveRequest(method, statusClass string, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, statusClass).Observe(duration.Seconds())
	c.requestTotal.WithLabelValues(method, statusClass).Inc()
}
