// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "issuetracker"
	httpNamespace    = "requests"
	storeNamespace   = "store"

	defaultPrometheusTimeoutSeconds = 60
)

type Provider interface {
	ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64)
	IncreaseRateLimitedRequest(handler string)

	ObserveStoreMethodDuration(method, success string, elapsed float64)
}

type PrometheusProvider struct {
	Registry *prometheus.Registry

	httpRequestsDuration *prometheus.HistogramVec
	rateLimitedRequests  *prometheus.CounterVec

	storeMethodsDuration *prometheus.HistogramVec
}

func NewPrometheusProvider() *PrometheusProvider {
	provider := &PrometheusProvider{}
	provider.Registry = prometheus.NewRegistry()
	options := prometheus.ProcessCollectorOpts{
		Namespace: metricsNamespace,
	}
	provider.Registry.MustRegister(prometheus.NewProcessCollector(options))
	provider.Registry.MustRegister(prometheus.NewGoCollector())

	provider.httpRequestsDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: httpNamespace,
			Name:      "duration_seconds",
			Help:      "Duration of the received http requests.",
		},
		[]string{"method", "handler", "status_code"},
	)
	provider.Registry.MustRegister(provider.httpRequestsDuration)

	provider.rateLimitedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: httpNamespace,
			Name:      "rate_limited_total",
			Help:      "Number of requests rejected by the rate limiter.",
		},
		[]string{"handler"},
	)
	provider.Registry.MustRegister(provider.rateLimitedRequests)

	provider.storeMethodsDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: storeNamespace,
			Name:      "method_duration_seconds",
			Help:      "Duration of the store methods.",
		},
		[]string{"method", "success"},
	)
	provider.Registry.MustRegister(provider.storeMethodsDuration)

	return provider
}

func (p *PrometheusProvider) ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64) {
	p.httpRequestsDuration.With(
		prometheus.Labels{"method": method, "handler": handler, "status_code": statusCode},
	).Observe(elapsed)
}

func (p *PrometheusProvider) IncreaseRateLimitedRequest(handler string) {
	p.rateLimitedRequests.WithLabelValues(handler).Inc()
}

func (p *PrometheusProvider) ObserveStoreMethodDuration(method, success string, elapsed float64) {
	p.storeMethodsDuration.With(prometheus.Labels{"method": method, "success": success}).Observe(elapsed)
}

func (p *PrometheusProvider) Handler() Handler {
	handler := promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{
		Timeout:           time.Duration(defaultPrometheusTimeoutSeconds) * time.Second,
		EnableOpenMetrics: true,
	})
	return Handler{
		Path:        "/metrics",
		Description: "Prometheus Metrics",
		Handler:     handler,
	}
}
