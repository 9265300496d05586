package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"url-insights/middleware/ratelimit/application"
	"url-insights/middleware/ratelimit/domain"
	"url-insights/respond"
)

type Options struct {
	Limiter             domain.Limiter
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	// PlanFn extrai o plano do request para as estatísticas (opcional).
	PlanFn func(r *http.Request) string
	// Reject escreve a resposta de bloqueio. Padrão: 429 com corpo JSON.
	Reject func(w http.ResponseWriter, r *http.Request, dec domain.Decision)
	Logger *slog.Logger
	Now    func() time.Time
}

func defaultReject(w http.ResponseWriter, _ *http.Request, dec domain.Decision) {
	respond.ErrorWithDetails(w, http.StatusTooManyRequests, respond.TypeRateLimited, "rate limit exceeded",
		map[string]any{"limit": dec.Limit, "retry_after_s": int((dec.RetryAfter + time.Second - 1) / time.Second)})
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Reject == nil {
		opts.Reject = defaultReject
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := application.Service{
		Limiter:    opts.Limiter,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			dec := svc.Decide(domain.Key(key))

			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      opts.Now(),
				}
				if opts.PlanFn != nil {
					ev.Plan = opts.PlanFn(r)
				}
				if err := opts.Stats.Record(r.Context(), ev); err != nil {
					opts.Logger.Debug("rate limit stats record failed", "error", err)
				}
			}

			if opts.AddRateLimitHeaders && dec.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
				w.Header().Set("X-RateLimit-Reset", formatUnix(dec.ResetAt))
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				opts.Reject(w, r, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
