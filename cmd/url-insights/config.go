package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"url-insights/enrich/domain"
	"url-insights/enrich/infra"
)

type config struct {
	host     string
	port     int
	logLevel slog.Level

	fetchTimeout   time.Duration
	userAgent      string
	maxFetchBytes  int64
	maxEnrichChars int
	blockPrivate   bool
	fetchHostRPS   float64
	fetchHostBurst int

	cacheTTL        time.Duration
	cacheMaxAge     time.Duration
	cacheMaxEntries int

	ratePerMin         int
	rateWindow         time.Duration
	trustXFF           bool
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	enforceProxy bool
	proxySecret  string
	proxyHost    string

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackKeys     bool
}

func (c config) listenAddr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.host = getenvDefault("APP_HOST", "0.0.0.0")
	cfg.port = getenvIntDefault("APP_PORT", 8080)

	level, err := parseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return config{}, err
	}
	cfg.logLevel = level

	cfg.fetchTimeout = time.Duration(getenvFloatDefault("HTTP_TIMEOUT_SECS", infra.DefaultFetchTimeout.Seconds()) * float64(time.Second))
	cfg.userAgent = getenvDefault("USER_AGENT", infra.DefaultUserAgent)
	cfg.maxFetchBytes = int64(getenvIntDefault("MAX_FETCH_BYTES", infra.DefaultMaxBytes))
	cfg.maxEnrichChars = getenvIntDefault("MAX_ENRICH_CHARS", domain.DefaultMaxChars)
	cfg.blockPrivate = getenvBoolDefault("BLOCK_PRIVATE_NETWORKS", true)
	cfg.fetchHostRPS = getenvFloatDefault("FETCH_HOST_RPS", 2)
	// Com RPS abaixo de 1 o burst padrão deixaria passar uma rajada que
	// contradiz o RPS configurado, então o padrão cai para 1.
	if burst, ok := getenvInt("FETCH_HOST_BURST"); ok {
		cfg.fetchHostBurst = burst
	} else {
		cfg.fetchHostBurst = 4
		if getenvIsSet("FETCH_HOST_RPS") && cfg.fetchHostRPS > 0 && cfg.fetchHostRPS < 1 {
			cfg.fetchHostBurst = 1
		}
	}

	cfg.cacheTTL = time.Duration(getenvIntDefault("CACHE_TTL_SECONDS", 3600)) * time.Second
	cfg.cacheMaxAge = time.Duration(getenvIntDefault("DEFAULT_CACHE_TTL_SECONDS", 600)) * time.Second
	cfg.cacheMaxEntries = getenvIntDefault("CACHE_MAX_ENTRIES", 1000)

	cfg.ratePerMin = getenvIntDefault("RATE_LIMIT_PER_MIN", 60)
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", time.Minute)
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 64)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.enforceProxy = getenvBoolDefault("ENFORCE_PROXY", false)
	cfg.proxySecret = os.Getenv("PROXY_SECRET")
	cfg.proxyHost = strings.TrimSpace(os.Getenv("PROXY_HOST"))

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "url-insights:ratelimit")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.port <= 0 || c.port > 65535 {
		return errors.New("APP_PORT must be between 1 and 65535")
	}
	if c.fetchTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT_SECS must be > 0")
	}
	if c.maxFetchBytes <= 0 {
		return errors.New("MAX_FETCH_BYTES must be > 0")
	}
	if c.maxEnrichChars <= 0 {
		return errors.New("MAX_ENRICH_CHARS must be > 0")
	}
	if c.fetchHostRPS < 0 {
		return errors.New("FETCH_HOST_RPS must be >= 0")
	}
	if c.fetchHostBurst <= 0 {
		return errors.New("FETCH_HOST_BURST must be > 0")
	}
	if c.cacheTTL < 0 {
		return errors.New("CACHE_TTL_SECONDS must be >= 0")
	}
	if c.cacheMaxAge < 0 {
		return errors.New("DEFAULT_CACHE_TTL_SECONDS must be >= 0")
	}
	if c.cacheMaxEntries <= 0 {
		return errors.New("CACHE_MAX_ENTRIES must be > 0")
	}
	if c.ratePerMin <= 0 {
		return errors.New("RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.rateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	if c.concurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.enforceProxy && c.proxySecret == "" {
		return errors.New("PROXY_SECRET is required when ENFORCE_PROXY=true")
	}
	if c.rateStatsEnabled && strings.TrimSpace(c.rateStatsRedisAddr) == "" {
		return errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if b := strings.ToLower(c.rateStatsBucket); b != "minute" && b != "none" {
		return errors.New(`RATE_STATS_BUCKET must be "minute" or "none"`)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return l, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt(k string) (int, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getenvIsSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
