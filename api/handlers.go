// Package api contém os handlers HTTP e o roteador do serviço.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"url-insights/enrich/domain"
	"url-insights/middleware/access"
	"url-insights/respond"
)

// DefaultMaxAge é o max-age do Cache-Control (DEFAULT_CACHE_TTL_SECONDS).
const DefaultMaxAge = 10 * time.Minute

// Parser é o que os handlers precisam do serviço de enriquecimento.
type Parser interface {
	Parse(ctx context.Context, url string, limits domain.PlanLimits) (domain.Result, error)
	ETag(url string, limits domain.PlanLimits) (string, error)
	Cached(url string, limits domain.PlanLimits) bool
}

type Handlers struct {
	Parser    Parser
	Version   string
	StartedAt time.Time
	MaxAge    time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

type parseRequest struct {
	URL string `json:"url"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	up := int64(0)
	if !h.StartedAt.IsZero() {
		up = int64(h.now().Sub(h.StartedAt).Seconds())
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.Version, UptimeS: up})
}

func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "", func(res domain.Result) any { return res })
}

func (h *Handlers) Metadata(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "meta", metadataOf)
}

func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "sum", summaryOf)
}

func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "prev", previewOf)
}

// serve é o fluxo comum: decode → ETag/304 → parse (cache ou pipeline) → projeção.
func (h *Handlers) serve(w http.ResponseWriter, r *http.Request, etagSuffix string, project func(domain.Result) any) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, err)
			return
		}
		respond.Error(w, http.StatusBadRequest, respond.TypeInvalidRequest, "body must be a JSON object with a url field")
		return
	}

	limits := access.LimitsFrom(r.Context())

	etag, err := h.Parser.ETag(req.URL, limits)
	if err != nil {
		writeError(w, err)
		return
	}
	if etagSuffix != "" {
		etag = strings.TrimSuffix(etag, `"`) + "-" + etagSuffix + `"`
	}

	if etagMatches(r.Header.Get("If-None-Match"), etag) && h.Parser.Cached(req.URL, limits) {
		h.cacheHeaders(w, etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	res, err := h.Parser.Parse(r.Context(), req.URL, limits)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			h.log().Error("parse internal error", "url", req.URL, "error", err)
		}
		writeError(w, err)
		return
	}

	h.cacheHeaders(w, etag)
	respond.JSON(w, http.StatusOK, project(res))
}

func (h *Handlers) cacheHeaders(w http.ResponseWriter, etag string) {
	maxAge := h.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
}

// etagMatches segue a comparação fraca do If-None-Match (lista separada por vírgula ou "*").
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
