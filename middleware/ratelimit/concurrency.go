package ratelimit

import (
	"net/http"
	"time"

	"url-insights/middleware/ratelimit/application"
	"url-insights/middleware/ratelimit/infra"
	"url-insights/respond"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// OnInUse recebe a ocupação após cada acquire/release (ex: gauge do Prometheus).
	OnInUse func(n int)
}

// ConcurrencyMiddleware limita quantas requisições atravessam o handler ao mesmo
// tempo. Sem vaga dentro do timeout: 503 com corpo JSON.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.OnInUse == nil {
		opts.OnInUse = func(int) {}
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				w.Header().Set("Retry-After", "1")
				respond.Error(w, http.StatusServiceUnavailable, respond.TypeUnavailable, "too many concurrent requests")
				return
			}
			opts.OnInUse(svc.InUse())
			defer func() {
				release()
				opts.OnInUse(svc.InUse())
			}()

			next.ServeHTTP(w, r)
		})
	}
}
