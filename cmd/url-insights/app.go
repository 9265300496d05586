package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"url-insights/api"
	"url-insights/cache"
	"url-insights/enrich/application"
	"url-insights/enrich/infra"
	"url-insights/metrics"
	"url-insights/middleware/access"
	"url-insights/middleware/ratelimit"
	rldomain "url-insights/middleware/ratelimit/domain"
	rlinfra "url-insights/middleware/ratelimit/infra"
	"url-insights/middleware/requestlog"

	"github.com/redis/go-redis/v9"
)

// app reúne as peças montadas a partir da config.
type app struct {
	handler  http.Handler
	service  *application.Service
	cache    *cache.Cache
	limiter  *rlinfra.FixedWindowStore
	throttle *infra.HostThrottle
	metrics  *metrics.Metrics
	closers  []func() error
}

// newPipeline monta fetch → extract → análise com os limites da config.
func newPipeline(cfg config, logger *slog.Logger) (*application.Pipeline, *infra.HostThrottle) {
	throttle := infra.NewHostThrottle(cfg.fetchHostRPS, cfg.fetchHostBurst)
	fetcher := infra.NewHTTPFetcher(infra.FetcherOptions{
		Timeout:      cfg.fetchTimeout,
		UserAgent:    cfg.userAgent,
		MaxBytes:     cfg.maxFetchBytes,
		BlockPrivate: cfg.blockPrivate,
		Throttle:     throttle,
		Logger:       logger,
	})
	return &application.Pipeline{
		Fetcher:    fetcher,
		Extractor:  infra.NewHTMLExtractor(),
		Language:   infra.NewLanguageDetector(),
		Summarizer: infra.NewFrequencySummarizer(),
		Keywords:   infra.NewRakeKeywords(),
		Sentiment:  infra.NewLexiconSentiment(),
		Logger:     logger,
	}, throttle
}

func newApp(cfg config, version string, logger *slog.Logger) (*app, error) {
	m := metrics.New()
	pipeline, throttle := newPipeline(cfg, logger)
	c := cache.New(cfg.cacheMaxEntries)
	svc := application.NewService(pipeline, c,
		application.WithTTL(cfg.cacheTTL),
		application.WithLogger(logger),
		application.WithObserver(m),
	)

	a := &app{service: svc, cache: c, throttle: throttle, metrics: m}

	stats := rlinfra.MultiStatsStore{m.RateLimitStats()}
	if cfg.rateStatsEnabled {
		redisStats, closeRedis, err := newRedisStats(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeRedis)
		stats = append(stats, redisStats)
	}

	a.limiter = rlinfra.NewFixedWindowStore(cfg.ratePerMin, cfg.rateWindow)
	accessOpts := access.Options{
		Enforce:  cfg.enforceProxy,
		Secret:   cfg.proxySecret,
		Host:     cfg.proxyHost,
		MaxChars: cfg.maxEnrichChars,
		Logger:   logger,
	}

	// acesso → rate limit → concorrência → handler
	protect := func(next http.Handler) http.Handler {
		h := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            cfg.concurrencyMax,
			AcquireTimeout: cfg.concurrencyTimeout,
			OnInUse:        m.SetInFlight,
		})(next)
		h = ratelimit.Middleware(ratelimit.Options{
			Limiter:             a.limiter,
			Stats:               stats,
			KeyHeader:           access.HeaderUser,
			TrustXForwardedFor:  cfg.trustXFF,
			AddRateLimitHeaders: cfg.addHeaders,
			PlanFn: func(r *http.Request) string {
				return access.PlanFromRequest(r, access.HeaderSubscription)
			},
			Logger: logger,
		})(h)
		return access.Middleware(accessOpts)(h)
	}

	router := api.NewRouter(api.RouterOptions{
		Handlers: &api.Handlers{
			Parser:    svc,
			Version:   version,
			StartedAt: time.Now(),
			MaxAge:    cfg.cacheMaxAge,
			Logger:    logger,
		},
		Metrics: m.Handler(),
		Protect: protect,
		MaxBody: requestlog.DefaultMaxBody,
	})

	a.handler = requestlog.Middleware(requestlog.Options{
		Logger:             logger,
		TrustXForwardedFor: cfg.trustXFF,
		Observe:            m.ObserveRequest,
	})(router)
	return a, nil
}

func newRedisStats(cfg config) (rldomain.StatsStore, func() error, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.rateStatsRedisAddr,
		Password: cfg.rateStatsRedisPassword,
		DB:       cfg.rateStatsRedisDB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	store := rlinfra.NewRedisStatsStore(
		rdb,
		rlinfra.WithStatsPrefix(cfg.rateStatsPrefix),
		rlinfra.WithStatsTTL(cfg.rateStatsTTL),
		rlinfra.WithStatsBucket(cfg.rateStatsBucket),
		rlinfra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
	)
	return store, rdb.Close, nil
}

// startJanitors liga as limpezas periódicas até ctx encerrar.
func (a *app) startJanitors(ctx context.Context) {
	a.cache.StartJanitor(ctx)
	a.limiter.StartJanitor(ctx)
	a.throttle.StartJanitor(ctx)
}

func (a *app) close() {
	for _, fn := range a.closers {
		_ = fn()
	}
}
