// Package metrics concentra os coletores Prometheus do serviço num registry
// próprio, exposto em GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"url-insights/enrich/domain"
	"url-insights/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "url_insights"

// rotas conhecidas; qualquer outro path vira "other" para não explodir a cardinalidade
var knownRoutes = map[string]bool{
	"/":            true,
	"/v1/health":   true,
	"/v1/parse":    true,
	"/v1/metadata": true,
	"/v1/summary":  true,
	"/v1/preview":  true,
	"/metrics":     true,
}

func RouteLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	PipelineDuration   prometheus.Histogram
	PipelineErrors     *prometheus.CounterVec
	RateLimitDecisions *prometheus.CounterVec
	InFlight           prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"method", "route"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		PipelineDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Fetch + extraction + enrichment time on cache misses",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 12, 20},
			},
		),
		PipelineErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_errors_total",
				Help:      "Pipeline failures by error kind",
			},
			[]string{"kind"},
		),
		RateLimitDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Rate limit decisions by route",
			},
			[]string{"route", "decision"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "parse_in_flight",
				Help:      "Requests currently holding a concurrency slot",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler expõe só o registry do serviço.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest tem a assinatura de requestlog.Options.Observe.
func (m *Metrics) ObserveRequest(r *http.Request, status int, elapsed time.Duration) {
	route := RouteLabel(r.URL.Path)
	m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
}

// CacheLookup e PipelineDone implementam application.Observer.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) PipelineDone(elapsed time.Duration, err error) {
	m.PipelineDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.PipelineErrors.WithLabelValues(domain.KindOf(err).String()).Inc()
	}
}

// SetInFlight tem a assinatura de ConcurrencyOptions.OnInUse.
func (m *Metrics) SetInFlight(n int) { m.InFlight.Set(float64(n)) }

// RateLimitStats devolve o StatsStore do rate limit ligado a este registry.
func (m *Metrics) RateLimitStats() *infra.PrometheusStatsStore {
	return infra.NewPrometheusStatsStore(m.RateLimitDecisions, infra.WithRouteLabel(RouteLabel))
}
