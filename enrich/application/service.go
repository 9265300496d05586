package application

import (
	"context"
	"log/slog"
	"time"

	"url-insights/cache"
	"url-insights/clock"
	"url-insights/enrich/domain"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL é o tempo de vida de um resultado no cache (CACHE_TTL_SECONDS).
const DefaultTTL = time.Hour

// Processor é o que o Service precisa do pipeline.
type Processor interface {
	Process(ctx context.Context, url string, limits domain.PlanLimits) (domain.Result, error)
}

// Observer recebe eventos para métricas. Todos os métodos precisam ser baratos.
type Observer interface {
	CacheLookup(hit bool)
	PipelineDone(elapsed time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) CacheLookup(bool)                  {}
func (noopObserver) PipelineDone(time.Duration, error) {}

// Service é o parser com cache: valida a URL, consulta o cache e, no miss,
// roda o pipeline uma única vez por chave mesmo com requisições concorrentes.
type Service struct {
	pipeline Processor
	cache    domain.ResultCache
	ttl      time.Duration
	clock    clock.Clock
	log      *slog.Logger
	observer Observer
	group    singleflight.Group
}

type ServiceOption func(*Service)

func WithTTL(d time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = d }
}

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func NewService(p Processor, c domain.ResultCache, opts ...ServiceOption) *Service {
	s := &Service{
		pipeline: p,
		cache:    c,
		ttl:      DefaultTTL,
		clock:    clock.Real{},
		log:      slog.Default(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.OrReal(s.clock)
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Parse devolve o resultado da URL. Hit: cópia com meta.cache=true e
// elapsed_ms do lookup. Miss: pipeline (coalescido por chave) e grava só em sucesso.
func (s *Service) Parse(ctx context.Context, rawURL string, limits domain.PlanLimits) (domain.Result, error) {
	url, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return domain.Result{}, err
	}
	limits = limits.Normalize()
	key := cache.Key(url, limits)

	start := s.clock.Now()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			s.observer.CacheLookup(true)
			s.log.Debug("cache hit", "url", url)
			return r.WithCacheHit(s.clock.Now().Sub(start)), nil
		}
		s.observer.CacheLookup(false)
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		// outro flight pode ter gravado entre o Get acima e o Do
		if s.cache != nil {
			if r, ok := s.cache.Get(key); ok {
				return r.WithCacheHit(s.clock.Now().Sub(start)), nil
			}
		}
		began := s.clock.Now()
		r, err := s.pipeline.Process(ctx, url, limits)
		s.observer.PipelineDone(s.clock.Now().Sub(began), err)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Put(key, r, s.ttl)
		}
		return r, nil
	})
	if err != nil {
		s.log.Warn("parse failed", "url", url, "kind", domain.KindOf(err).String(), "error", err)
		return domain.Result{}, err
	}
	if shared {
		s.log.Debug("pipeline result shared", "url", url)
	}
	return v.(domain.Result), nil
}

// Cached indica se há resultado vivo para a URL e limites, sem rodar o pipeline.
func (s *Service) Cached(rawURL string, limits domain.PlanLimits) bool {
	if s.cache == nil {
		return false
	}
	url, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	return s.cache.Contains(cache.Key(url, limits.Normalize()))
}

// ETag é o validador fraco do resultado: muda com URL, limites e versão do parser.
func (s *Service) ETag(rawURL string, limits domain.PlanLimits) (string, error) {
	url, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	return `W/"` + cache.Key(url, limits.Normalize())[:24] + `"`, nil
}
