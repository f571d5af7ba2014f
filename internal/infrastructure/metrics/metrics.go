// Package metrics exposes prometheus collectors for license and streaming activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for this service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	licensesIssued      *prometheus.CounterVec
	licenseValidations  *prometheus.CounterVec
	licensesRevoked     *prometheus.CounterVec
	licensesExpired     prometheus.Counter
	abuseFlags          prometheus.Counter
	streamURLs          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry along with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		licensesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "download_licenses_issued_total",
				Help: "Download license issuance attempts by result.",
			},
			[]string{"result"},
		),
		licenseValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "download_license_validations_total",
				Help: "Download license validations by result.",
			},
			[]string{"result"},
		),
		licensesRevoked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "download_licenses_revoked_total",
				Help: "Download licenses revoked, by lookup method.",
			},
			[]string{"by"},
		),
		licensesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "download_licenses_expired_total",
			Help: "Download licenses transitioned to expired by the sweep.",
		}),
		abuseFlags: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "download_license_abuse_flags_total",
			Help: "Licenses whose access count crossed the abuse threshold.",
		}),
		streamURLs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stream_urls_issued_total",
				Help: "Streaming URLs handed out, by asset host.",
			},
			[]string{"host"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.licensesIssued,
		m.licenseValidations,
		m.licensesRevoked,
		m.licensesExpired,
		m.abuseFlags,
		m.streamURLs,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) LicenseIssued(result string) {
	m.licensesIssued.WithLabelValues(result).Inc()
}

func (m *Metrics) LicenseValidated(result string) {
	m.licenseValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) LicenseRevoked(by string) {
	m.licensesRevoked.WithLabelValues(by).Inc()
}

func (m *Metrics) LicensesExpired(n int) {
	if n > 0 {
		m.licensesExpired.Add(float64(n))
	}
}

func (m *Metrics) AbuseFlagged() {
	m.abuseFlags.Inc()
}

func (m *Metrics) StreamURLIssued(host string) {
	m.streamURLs.WithLabelValues(host).Inc()
}
