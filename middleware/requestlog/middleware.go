package requestlog

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"url-insights/middleware/ratelimit"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// maxInboundIDLen limita o X-Request-ID aceito do cliente.
const maxInboundIDLen = 128

type Options struct {
	Logger             *slog.Logger
	TrustXForwardedFor bool
	// Observe é chamado ao fim de cada requisição (ex: métricas HTTP).
	Observe func(r *http.Request, status int, elapsed time.Duration)
	Now     func() time.Time
	NewID   func() string
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := opts.Now()

			rid := inboundID(r.Header.Get(HeaderRequestID))
			if rid == "" {
				rid = opts.NewID()
			}

			h := w.Header()
			h.Set(HeaderRequestID, rid)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")

			f := &fields{rid: rid}
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(withFields(r.Context(), f)))

			elapsed := opts.Now().Sub(start)
			status := rec.Status()
			if opts.Observe != nil {
				opts.Observe(r, status, elapsed)
			}

			attrs := []slog.Attr{
				slog.String("rid", rid),
				slog.String("ip", ratelimit.ClientIP(r, opts.TrustXForwardedFor)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("lat_ms", elapsed.Milliseconds()),
				slog.Int("bytes", rec.bytes),
				slog.String("user_agent", orDash(r.UserAgent())),
				slog.String("referer", orDash(r.Referer())),
			}
			attrs = append(attrs, f.snapshot()...)

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelWarn
			}
			opts.Logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}

// inboundID aceita o id do cliente só se for curto e imprimível.
func inboundID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxInboundIDLen {
		return ""
	}
	for _, c := range v {
		if c < 0x21 || c > 0x7e {
			return ""
		}
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
