package infra

import (
	"sync"
	"time"

	"url-insights/clock"
	"url-insights/middleware/ratelimit/domain"
)

// FixedWindowStore conta requisições por chave em janelas fixas alinhadas em
// now.Truncate(window). Só a janela corrente é mantida por cliente, então a
// memória é limitada pelo número de clientes distintos ativos.
type FixedWindowStore struct {
	mu           sync.Mutex
	windows      map[domain.Key]*domain.Window
	limit        int
	window       time.Duration
	clock        clock.Clock
	cleanupEvery time.Duration
	// início da janela na última varredura oportunista
	sweptAt time.Time
}

type StoreOption func(*FixedWindowStore)

func WithClock(c clock.Clock) StoreOption {
	return func(s *FixedWindowStore) { s.clock = c }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *FixedWindowStore) { s.cleanupEvery = d }
}

// NewFixedWindowStore cria o store com `limit` requisições por `window`.
// Valores inválidos caem no padrão de 60 req/min.
func NewFixedWindowStore(limit int, window time.Duration, opts ...StoreOption) *FixedWindowStore {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	s := &FixedWindowStore{
		windows:      make(map[domain.Key]*domain.Window),
		limit:        limit,
		window:       window,
		clock:        clock.Real{},
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.OrReal(s.clock)
	return s
}

func (s *FixedWindowStore) Limit() int                  { return s.limit }
func (s *FixedWindowStore) Window() time.Duration       { return s.window }
func (s *FixedWindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Allow implementa domain.Limiter. Leitura, incremento e reset acontecem sob o
// mesmo lock, então requisições concorrentes do mesmo cliente não se perdem.
func (s *FixedWindowStore) Allow(key domain.Key) domain.Decision {
	now := s.clock.Now()
	start := now.Truncate(s.window)
	reset := start.Add(s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	if start.After(s.sweptAt) {
		s.dropBeforeLocked(start)
		s.sweptAt = start
	}

	w, ok := s.windows[key]
	if !ok || w.Start.Before(start) {
		w = &domain.Window{Start: start}
		s.windows[key] = w
	}

	if w.Count >= s.limit {
		return domain.Decision{
			Allowed:    false,
			Limit:      s.limit,
			Remaining:  0,
			ResetAt:    reset,
			RetryAfter: reset.Sub(now),
		}
	}

	w.Count++
	return domain.Decision{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - w.Count,
		ResetAt:   reset,
	}
}

// AllowKey é o atalho booleano de Allow.
func (s *FixedWindowStore) AllowKey(key string) bool {
	return s.Allow(domain.Key(key)).Allowed
}

// Cleanup remove as janelas que já terminaram.
func (s *FixedWindowStore) Cleanup() {
	start := s.clock.Now().Truncate(s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropBeforeLocked(start)
}

// Len devolve quantos clientes têm janela guardada.
func (s *FixedWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *FixedWindowStore) dropBeforeLocked(start time.Time) {
	for k, w := range s.windows {
		if w.Start.Before(start) {
			delete(s.windows, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa janelas vencidas periodicamente.
// Pare cancelando o contexto.
func (s *FixedWindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
