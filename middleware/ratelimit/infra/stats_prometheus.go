package infra

import (
	"context"
	"errors"

	"url-insights/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore incrementa um CounterVec com labels (route, decision).
// O vetor é registrado por quem cria (pacote metrics); aqui só se incrementa.
type PrometheusStatsStore struct {
	decisions  *prometheus.CounterVec
	routeLabel func(path string) string
}

type PrometheusStatsOption func(*PrometheusStatsStore)

// WithRouteLabel troca o path cru por um label de cardinalidade controlada.
func WithRouteLabel(fn func(path string) string) PrometheusStatsOption {
	return func(s *PrometheusStatsStore) { s.routeLabel = fn }
}

func NewPrometheusStatsStore(decisions *prometheus.CounterVec, opts ...PrometheusStatsOption) *PrometheusStatsStore {
	s := &PrometheusStatsStore{
		decisions:  decisions,
		routeLabel: func(p string) string { return p },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	if s == nil || s.decisions == nil {
		return nil
	}
	decision := "denied"
	if ev.Allowed {
		decision = "allowed"
	}
	s.decisions.WithLabelValues(s.routeLabel(ev.Path), decision).Inc()
	return nil
}

// MultiStatsStore repassa o evento para todos os stores; erros são agregados.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
