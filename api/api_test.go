package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"url-insights/cache"
	"url-insights/clock"
	"url-insights/enrich/application"
	"url-insights/enrich/domain"
	"url-insights/enrich/infra"
	"url-insights/middleware/access"
	"url-insights/middleware/ratelimit"
	rlinfra "url-insights/middleware/ratelimit/infra"
	"url-insights/middleware/requestlog"
	"url-insights/respond"
	"url-insights/testsite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC)

type rig struct {
	handler  http.Handler
	site     *testsite.Site
	upstream *httptest.Server
	svc      *application.Service
	clk      *clock.Fake
}

type rigConfig struct {
	access       access.Options
	ratePerMin   int
	fetchTimeout time.Duration
}

func newRig(t *testing.T, cfg rigConfig) *rig {
	t.Helper()

	site := testsite.New()
	upstream := httptest.NewServer(site)
	t.Cleanup(upstream.Close)

	if cfg.ratePerMin == 0 {
		cfg.ratePerMin = 100
	}
	if cfg.fetchTimeout == 0 {
		cfg.fetchTimeout = 5 * time.Second
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	clk := clock.NewFake(t0)

	pipeline := &application.Pipeline{
		Fetcher:    infra.NewHTTPFetcher(infra.FetcherOptions{Timeout: cfg.fetchTimeout, Logger: logger}),
		Extractor:  infra.NewHTMLExtractor(),
		Language:   infra.NewLanguageDetector(),
		Summarizer: infra.NewFrequencySummarizer(),
		Keywords:   infra.NewRakeKeywords(),
		Sentiment:  infra.NewLexiconSentiment(),
		Logger:     logger,
	}
	svc := application.NewService(pipeline, cache.New(100, cache.WithClock(clk)),
		application.WithClock(clk), application.WithTTL(time.Hour), application.WithLogger(logger))

	cfg.access.Logger = logger
	limiter := rlinfra.NewFixedWindowStore(cfg.ratePerMin, time.Minute, rlinfra.WithClock(clk))

	protect := func(next http.Handler) http.Handler {
		h := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 4})(next)
		h = ratelimit.Middleware(ratelimit.Options{
			Limiter:             limiter,
			KeyHeader:           access.HeaderUser,
			AddRateLimitHeaders: true,
			Logger:              logger,
			Now:                 clk.Now,
		})(h)
		return access.Middleware(cfg.access)(h)
	}

	router := NewRouter(RouterOptions{
		Handlers: &Handlers{Parser: svc, Version: "test", StartedAt: t0, Now: clk.Now, Logger: logger},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
		Protect: protect,
		MaxBody: requestlog.DefaultMaxBody,
	})

	return &rig{
		handler:  requestlog.Middleware(requestlog.Options{Logger: logger})(router),
		site:     site,
		upstream: upstream,
		svc:      svc,
		clk:      clk,
	}
}

func (r *rig) post(t *testing.T, path, pageURL string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"url": pageURL})
	require.NoError(t, err)
	return r.do(t, http.MethodPost, path, bytes.NewReader(body), headers)
}

func (r *rig) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)
	return rec
}

func (r *rig) url(path string) string { return r.upstream.URL + path }

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) domain.Result {
	t.Helper()
	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorDetail {
	t.Helper()
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestParse_EnrichesArticle(t *testing.T) {
	r := newRig(t, rigConfig{})
	article := testsite.Articles[0]

	rec := r.post(t, "/v1/parse", r.url(article.Path), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeResult(t, rec)
	assert.Equal(t, article.Title, res.Title)
	assert.Contains(t, res.Text, "Least recently used eviction")
	assert.Greater(t, res.WordCount, 50)
	assert.Equal(t, "en", res.Language)
	assert.NotEmpty(t, res.Summary)
	assert.NotEmpty(t, res.Keywords)
	assert.LessOrEqual(t, len(res.Keywords), domain.DefaultTopK)
	require.NotNil(t, res.PublishedAt)
	assert.Equal(t, "2024-03-05T08:00:00Z", *res.PublishedAt)
	require.NotNil(t, res.LeadImageURL)
	assert.Equal(t, r.url("/img/caching.png"), *res.LeadImageURL)
	assert.Equal(t, "Example Engineering", res.Meta.Site)
	assert.False(t, res.Meta.Cache)

	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=600", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get(requestlog.HeaderRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestParse_SecondCallIsCached(t *testing.T) {
	r := newRig(t, rigConfig{})
	path := testsite.Articles[1].Path

	first := r.post(t, "/v1/parse", r.url(path), nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := r.post(t, "/v1/parse", r.url(path), nil)
	require.Equal(t, http.StatusOK, second.Code)

	res := decodeResult(t, second)
	assert.True(t, res.Meta.Cache)
	assert.LessOrEqual(t, res.Meta.ElapsedMS, int64(5))
	assert.Equal(t, 1, r.site.Hits(path))
	assert.Equal(t, decodeResult(t, first).Summary, res.Summary)
}

func TestParse_FreePlanCapsKeywords(t *testing.T) {
	r := newRig(t, rigConfig{})

	rec := r.post(t, "/v1/parse", r.url(testsite.Articles[0].Path), map[string]string{access.HeaderSubscription: "BASIC-Free"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.LessOrEqual(t, len(decodeResult(t, rec).Keywords), domain.FreeTopK)
}

func TestParse_UpstreamErrorsMapToStatus(t *testing.T) {
	r := newRig(t, rigConfig{})

	cases := []struct {
		name   string
		path   string
		status int
		typ    string
	}{
		{"not found upstream", "/missing", http.StatusBadGateway, respond.TypeFetchFailed},
		{"pdf", "/document.pdf", http.StatusUnsupportedMediaType, respond.TypeUnsupportedMedia},
		{"no text", "/empty", http.StatusUnprocessableEntity, respond.TypeParseFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := r.post(t, "/v1/parse", r.url(tc.path), nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			e := decodeError(t, rec)
			assert.Equal(t, tc.typ, e.Type)
			assert.Equal(t, tc.status, e.Status)
			assert.Empty(t, rec.Header().Get("ETag"))
			assert.False(t, r.svc.Cached(r.url(tc.path), domain.LimitsForPlan("", 0)))
		})
	}
}

func TestParse_UpstreamTimeoutIs504(t *testing.T) {
	r := newRig(t, rigConfig{fetchTimeout: 50 * time.Millisecond})

	rec := r.post(t, "/v1/parse", r.url("/slow"), nil)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	assert.Equal(t, respond.TypeTimeout, decodeError(t, rec).Type)
}

func TestParse_InvalidInput(t *testing.T) {
	r := newRig(t, rigConfig{})

	cases := []struct {
		name string
		body string
	}{
		{"not json", "url=https://example.com"},
		{"missing url", `{}`},
		{"bad scheme", `{"url":"ftp://example.com/file"}`},
		{"relative", `{"url":"/just/a/path"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := r.do(t, http.MethodPost, "/v1/parse", strings.NewReader(tc.body), nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, respond.TypeInvalidRequest, decodeError(t, rec).Type)
		})
	}
}

func TestParse_BodyTooLarge(t *testing.T) {
	r := newRig(t, rigConfig{})

	body := `{"url":"https://example.com/` + strings.Repeat("a", int(requestlog.DefaultMaxBody)) + `"}`
	rec := r.do(t, http.MethodPost, "/v1/parse", strings.NewReader(body), nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, respond.TypePayloadTooLarge, decodeError(t, rec).Type)
}

func TestParse_ConditionalRequest(t *testing.T) {
	r := newRig(t, rigConfig{})
	page := r.url(testsite.Articles[0].Path)

	first := r.post(t, "/v1/parse", page, nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))

	rec := r.post(t, "/v1/parse", page, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	// projeções têm ETag próprio
	meta := r.post(t, "/v1/metadata", page, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, meta.Code)
	assert.NotEqual(t, etag, meta.Header().Get("ETag"))
}

func TestParse_IfNoneMatchWithoutCacheEntryRuns(t *testing.T) {
	r := newRig(t, rigConfig{})
	page := r.url(testsite.Articles[0].Path)

	etag, err := r.svc.ETag(page, domain.LimitsForPlan("", 0))
	require.NoError(t, err)

	rec := r.post(t, "/v1/parse", page, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, r.site.Hits(testsite.Articles[0].Path))
}

func TestProjections(t *testing.T) {
	r := newRig(t, rigConfig{})
	article := testsite.Articles[0]
	page := r.url(article.Path)

	t.Run("metadata", func(t *testing.T) {
		rec := r.post(t, "/v1/metadata", page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var v map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.ElementsMatch(t, []string{"url", "title", "language", "published_at", "lead_image_url", "word_count", "site"}, keys(v))
		assert.Equal(t, article.Title, v["title"])
		assert.Equal(t, strings.Split(rec.Header().Get("ETag"), "-")[1], `meta"`)
	})

	t.Run("summary", func(t *testing.T) {
		rec := r.post(t, "/v1/summary", page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var v SummaryView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.NotEmpty(t, v.Summary)
		assert.NotEmpty(t, v.Keywords)
		assert.Equal(t, "Example Engineering", v.Site)
	})

	t.Run("preview", func(t *testing.T) {
		rec := r.post(t, "/v1/preview", page, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var v PreviewView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.NotEmpty(t, v.Snippet)
		require.NotNil(t, v.LeadImageURL)
	})

	assert.Equal(t, 1, r.site.Hits(article.Path))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestAccessPolicy(t *testing.T) {
	r := newRig(t, rigConfig{access: access.Options{Enforce: true, Secret: "s3cret", Host: "url-insights.p.rapidapi.com"}})
	page := r.url(testsite.Articles[0].Path)

	ok := map[string]string{
		access.HeaderUser:        "alice",
		access.HeaderProxySecret: "s3cret",
		access.HeaderHost:        "url-insights.p.rapidapi.com",
	}
	with := func(k, v string) map[string]string {
		h := map[string]string{}
		for kk, vv := range ok {
			h[kk] = vv
		}
		if v == "" {
			delete(h, k)
		} else {
			h[k] = v
		}
		return h
	}

	cases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing user", with(access.HeaderUser, ""), http.StatusUnauthorized},
		{"missing secret", with(access.HeaderProxySecret, ""), http.StatusForbidden},
		{"wrong secret", with(access.HeaderProxySecret, "nope"), http.StatusForbidden},
		{"wrong host", with(access.HeaderHost, "evil.example.com"), http.StatusForbidden},
		{"allowed", ok, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := r.post(t, "/v1/parse", page, tc.headers)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	// health fica fora da política
	assert.Equal(t, http.StatusOK, r.do(t, http.MethodGet, "/v1/health", nil, nil).Code)
}

func TestRateLimit(t *testing.T) {
	r := newRig(t, rigConfig{ratePerMin: 2})
	page := r.url(testsite.Articles[0].Path)
	alice := map[string]string{access.HeaderUser: "alice"}

	for i := 0; i < 2; i++ {
		rec := r.post(t, "/v1/parse", page, alice)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := r.post(t, "/v1/summary", page, alice)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, respond.TypeRateLimited, decodeError(t, rec).Type)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// outro cliente tem a própria janela
	assert.Equal(t, http.StatusOK, r.post(t, "/v1/parse", page, map[string]string{access.HeaderUser: "bob"}).Code)
	// health e metrics são isentos
	assert.Equal(t, http.StatusOK, r.do(t, http.MethodGet, "/v1/health", nil, alice).Code)
	assert.Equal(t, http.StatusOK, r.do(t, http.MethodGet, "/metrics", nil, alice).Code)

	r.clk.Advance(time.Minute)
	assert.Equal(t, http.StatusOK, r.post(t, "/v1/parse", page, alice).Code)
}

func TestHealth(t *testing.T) {
	r := newRig(t, rigConfig{})
	r.clk.Advance(90 * time.Second)

	rec := r.do(t, http.MethodGet, "/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","uptime_s":90}`, rec.Body.String())
}

func TestRouting(t *testing.T) {
	r := newRig(t, rigConfig{})

	root := r.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusFound, root.Code)
	assert.Equal(t, "/v1/health", root.Header().Get("Location"))

	notFound := r.do(t, http.MethodGet, "/v2/whatever", nil, nil)
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Equal(t, respond.TypeNotFound, decodeError(t, notFound).Type)

	wrongMethod := r.do(t, http.MethodGet, "/v1/parse", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code)
	assert.Equal(t, http.MethodPost, wrongMethod.Header().Get("Allow"))
	assert.Equal(t, respond.TypeMethodNotAllowed, decodeError(t, wrongMethod).Type)

	assert.Equal(t, http.StatusMethodNotAllowed, r.do(t, http.MethodDelete, "/v1/health", nil, nil).Code)
}

func TestSnippet(t *testing.T) {
	short := domain.Result{Summary: "Short summary.", Text: "ignored"}
	assert.Equal(t, "Short summary.", Snippet(short))

	fromText := domain.Result{Text: "Only text here."}
	assert.Equal(t, "Only text here.", Snippet(fromText))

	long := domain.Result{Summary: strings.Repeat("é", 301)}
	got := Snippet(long)
	assert.Equal(t, strings.Repeat("é", 280)+"…", got)

	exact := domain.Result{Summary: strings.Repeat("a", 300)}
	assert.Equal(t, exact.Summary, Snippet(exact))
}

func TestEtagMatches(t *testing.T) {
	assert.True(t, etagMatches(`W/"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`"x", W/"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`*`, `W/"abc"`))
	assert.False(t, etagMatches(``, `W/"abc"`))
	assert.False(t, etagMatches(`W/"abd"`, `W/"abc"`))
}

func TestStatusFor(t *testing.T) {
	cases := map[domain.Kind]int{
		domain.KindValidation:   http.StatusBadRequest,
		domain.KindUnauthorized: http.StatusUnauthorized,
		domain.KindForbidden:    http.StatusForbidden,
		domain.KindRateLimit:    http.StatusTooManyRequests,
		domain.KindFetch:        http.StatusBadGateway,
		domain.KindTimeout:      http.StatusGatewayTimeout,
		domain.KindExtraction:   http.StatusUnprocessableEntity,
		domain.KindUnsupported:  http.StatusUnsupportedMediaType,
		domain.KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		got, _ := statusFor(kind)
		assert.Equal(t, want, got, kind.String())
	}
}

func TestWriteError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, io.ErrUnexpectedEOF)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, respond.TypeInternal, e.Type)
	assert.Equal(t, "unexpected error", e.Message)
}
