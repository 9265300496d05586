package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"url-insights/enrich/domain"
	"url-insights/testsite"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config {
	t.Helper()
	clearEnv(t)
	cfg, err := readConfig()
	require.NoError(t, err)
	// o site de teste roda em loopback
	cfg.blockPrivate = false
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestApp_ServesParseHealthAndMetrics(t *testing.T) {
	site := httptest.NewServer(testsite.New())
	defer site.Close()

	a, err := newApp(testConfig(t), "1.2.3", discardLogger())
	require.NoError(t, err)
	defer a.close()

	body, _ := json.Marshal(map[string]string{"url": site.URL + testsite.Articles[0].Path})
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, testsite.Articles[0].Title, res.Title)
	assert.Equal(t, 1, a.cache.Len())

	// valores reportados no log de startup
	assert.Equal(t, time.Hour, a.service.TTL())
	assert.Equal(t, 60, a.limiter.Limit())
	assert.Positive(t, a.limiter.CleanupEvery())
	assert.Equal(t, 2.0, a.throttle.RPS())
	assert.Equal(t, 4, a.throttle.Burst())
	assert.Positive(t, a.throttle.CleanupEvery())

	health := httptest.NewRecorder()
	a.handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"version":"1.2.3"`)

	metrics := httptest.NewRecorder()
	a.handler.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	out := metrics.Body.String()
	assert.Contains(t, out, `url_insights_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, out, `url_insights_ratelimit_decisions_total{decision="allowed",route="/v1/parse"} 1`)
	assert.Contains(t, out, `url_insights_http_requests_total{method="POST",route="/v1/parse",status="200"} 1`)
}

func TestApp_BlocksPrivateDestinationsByDefault(t *testing.T) {
	site := httptest.NewServer(testsite.New())
	defer site.Close()

	cfg := testConfig(t)
	cfg.blockPrivate = true
	a, err := newApp(cfg, "test", discardLogger())
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"url": site.URL + testsite.Articles[0].Path})
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "destination not allowed")
}

func TestApp_RecordsRateStatsInRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.rateStatsEnabled = true
	cfg.rateStatsRedisAddr = mr.Addr()
	cfg.rateStatsBucket = "none"

	a, err := newApp(cfg, "test", discardLogger())
	require.NoError(t, err)
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, "1", mr.HGet("url-insights:ratelimit:total", "allowed"))
	assert.Equal(t, "1", mr.HGet("url-insights:ratelimit:route", "POST /v1/parse:allowed"))
}

func TestApp_RedisUnreachableFailsStartup(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.rateStatsEnabled = true
	cfg.rateStatsRedisAddr = addr

	_, err := newApp(cfg, "test", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis stats ping")
}

func TestRootCmd_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd("9.9.9")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "9.9.9\n", out.String())
}

func TestRootCmd_ParseRejectsInvalidURL(t *testing.T) {
	clearEnv(t)
	cmd := newRootCmd("test")
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"parse", "ftp://example.com/file"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestRootCmd_ParsePrintsResult(t *testing.T) {
	site := httptest.NewServer(testsite.New())
	defer site.Close()

	clearEnv(t)
	t.Setenv("BLOCK_PRIVATE_NETWORKS", "false")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"parse", site.URL + testsite.Articles[1].Path, "--plan", "free"})
	require.NoError(t, cmd.Execute())

	var res domain.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, testsite.Articles[1].Title, res.Title)
	assert.LessOrEqual(t, len(res.Keywords), domain.FreeTopK)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("URL_INSIGHTS_TEST_VAR=from-file\n"), 0o600))

	t.Setenv("URL_INSIGHTS_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("URL_INSIGHTS_TEST_VAR"))
	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "from-file", os.Getenv("URL_INSIGHTS_TEST_VAR"))

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env"), false))
	assert.Error(t, loadEnvFile(filepath.Join(dir, "missing.env"), true))
}
