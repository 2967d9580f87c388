package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts served responses by outcome and exposes them in
// prometheus format. It implements backend.Events.
type Metrics struct {
	registry  *prometheus.Registry
	responses *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_cache_responses_total",
		Help: "Responses resolved by the cache backend, by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(responses)
	return &Metrics{registry: registry, responses: responses}
}

// ResponseServed implements backend.Events.
func (m *Metrics) ResponseServed(outcome string) {
	m.responses.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
