package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), version)
		},
	}
}

func runServe(ctx context.Context, version string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.logLevel)
	slog.SetDefault(logger)

	a, err := newApp(cfg, version, logger)
	if err != nil {
		return err
	}
	defer a.close()
	a.startJanitors(ctx)

	srv := &http.Server{
		Addr:              cfg.listenAddr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.fetchTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("url-insights listening", "addr", cfg.listenAddr(), "version", version)
	logger.Info("rate",
		"per_window", a.limiter.Limit(), "window", a.limiter.Window().String(),
		"cleanup_every", a.limiter.CleanupEvery().String(),
		"trust_xff", cfg.trustXFF, "headers", cfg.addHeaders)
	logger.Info("cache", "ttl", a.service.TTL().String(), "max_entries", cfg.cacheMaxEntries, "max_age", cfg.cacheMaxAge.String())
	logger.Info("rate-stats",
		"enabled", cfg.rateStatsEnabled, "redis_addr", cfg.rateStatsRedisAddr,
		"bucket", cfg.rateStatsBucket, "ttl", cfg.rateStatsTTL.String(), "track_keys", cfg.rateStatsTrackKeys)
	logger.Info("concurrency", "max", cfg.concurrencyMax, "acquire_timeout", cfg.concurrencyTimeout.String())
	logger.Info("fetch",
		"timeout", cfg.fetchTimeout.String(), "max_bytes", cfg.maxFetchBytes,
		"host_rps", a.throttle.RPS(), "host_burst", a.throttle.Burst(),
		"host_cleanup_every", a.throttle.CleanupEvery().String(), "block_private", cfg.blockPrivate)
	logger.Info("access", "enforce_proxy", cfg.enforceProxy, "proxy_host", cfg.proxyHost)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
