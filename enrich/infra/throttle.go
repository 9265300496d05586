package infra

import (
	"context"
	"sync"
	"time"

	"url-insights/clock"

	"golang.org/x/time/rate"
)

// HostThrottle segura o ritmo de requisições por host de destino (token-bucket
// via x/time/rate), com cache por host e limpeza periódica dos ociosos.
type HostThrottle struct {
	mu           sync.Mutex
	entries      map[string]*hostEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	clock        clock.Clock
}

type hostEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type ThrottleOption func(*HostThrottle)

func WithIdleTTL(d time.Duration) ThrottleOption {
	return func(t *HostThrottle) { t.idleTTL = d }
}

func WithThrottleCleanupEvery(d time.Duration) ThrottleOption {
	return func(t *HostThrottle) { t.cleanupEvery = d }
}

func WithThrottleClock(c clock.Clock) ThrottleOption {
	return func(t *HostThrottle) { t.clock = c }
}

// NewHostThrottle cria o throttle. rps <= 0 desliga o controle (Wait nunca bloqueia).
func NewHostThrottle(rps float64, burst int, opts ...ThrottleOption) *HostThrottle {
	if burst <= 0 {
		burst = 1
	}
	t := &HostThrottle{
		entries:      make(map[string]*hostEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		clock:        clock.Real{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.clock = clock.OrReal(t.clock)
	return t
}

func (t *HostThrottle) RPS() float64                { return float64(t.rps) }
func (t *HostThrottle) Burst() int                  { return t.burst }
func (t *HostThrottle) CleanupEvery() time.Duration { return t.cleanupEvery }

// Wait bloqueia até o host ter um token livre ou o contexto acabar.
func (t *HostThrottle) Wait(ctx context.Context, host string) error {
	if t == nil || t.rps <= 0 {
		return nil
	}
	return t.limiter(host).Wait(ctx)
}

func (t *HostThrottle) limiter(host string) *rate.Limiter {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if ent, ok := t.entries[host]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(t.rps, t.burst)
	t.entries[host] = &hostEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup descarta hosts sem uso há mais de idleTTL.
func (t *HostThrottle) Cleanup() {
	cutoff := t.clock.Now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()

	for k, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, k)
		}
	}
}

func (t *HostThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// StartJanitor inicia uma goroutine que limpa hosts inativos periodicamente.
// Pare cancelando o contexto.
func (t *HostThrottle) StartJanitor(ctx interface{ Done() <-chan struct{} }) {
	if t.cleanupEvery <= 0 || t.rps <= 0 {
		return
	}

	tk := time.NewTicker(t.cleanupEvery)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				t.Cleanup()
			}
		}
	}()
}
