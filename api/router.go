package api

import (
	"net/http"

	"url-insights/middleware/requestlog"
	"url-insights/respond"
)

type RouterOptions struct {
	Handlers *Handlers
	// Metrics é servido em GET /metrics quando não nil.
	Metrics http.Handler
	// Protect envolve as rotas POST /v1/* (acesso, rate limit, concorrência).
	Protect func(http.Handler) http.Handler
	MaxBody int64
}

// allowed lista as rotas e o método aceito, para responder 405 em JSON.
var allowed = map[string]string{
	"/":            http.MethodGet,
	"/v1/health":   http.MethodGet,
	"/metrics":     http.MethodGet,
	"/v1/parse":    http.MethodPost,
	"/v1/metadata": http.MethodPost,
	"/v1/summary":  http.MethodPost,
	"/v1/preview":  http.MethodPost,
}

func NewRouter(opts RouterOptions) http.Handler {
	h := opts.Handlers
	protect := opts.Protect
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v1/health", http.StatusFound)
	})
	mux.HandleFunc("GET /v1/health", h.Health)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	mux.Handle("POST /v1/parse", protect(http.HandlerFunc(h.Parse)))
	mux.Handle("POST /v1/metadata", protect(http.HandlerFunc(h.Metadata)))
	mux.Handle("POST /v1/summary", protect(http.HandlerFunc(h.Summary)))
	mux.Handle("POST /v1/preview", protect(http.HandlerFunc(h.Preview)))

	mux.HandleFunc("/", notFoundOrMethod(opts.Metrics != nil))

	return requestlog.BodyLimit(opts.MaxBody)(mux)
}

func notFoundOrMethod(metricsEnabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, ok := allowed[r.URL.Path]
		if ok && (r.URL.Path != "/metrics" || metricsEnabled) {
			w.Header().Set("Allow", method)
			respond.Error(w, http.StatusMethodNotAllowed, respond.TypeMethodNotAllowed, "method not allowed")
			return
		}
		respond.Error(w, http.StatusNotFound, respond.TypeNotFound, "route not found")
	}
}
