// Copyright 2025 Alexander Kappner.

package transport

import "time"

// Metrics is the narrow collector interface Transport reports to. The
// pkg/metrics package supplies a Prometheus-backed implementation; tests and
// callers that don't care about metrics use noopMetrics.
type Metrics interface {
	ObserveRequest(method string, statusClass string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, string, time.Duration) {}
