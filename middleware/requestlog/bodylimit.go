package requestlog

import (
	"net/http"

	"url-insights/respond"
)

// DefaultMaxBody é o teto do corpo das requisições (16 KiB).
const DefaultMaxBody = 16 << 10

// BodyLimit recusa com 413 corpos declarados acima de max e corta os que
// mentem no Content-Length (o decoder recebe *http.MaxBytesError).
func BodyLimit(max int64) func(next http.Handler) http.Handler {
	if max <= 0 {
		max = DefaultMaxBody
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				respond.Error(w, http.StatusRequestEntityTooLarge, respond.TypePayloadTooLarge, "body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}
