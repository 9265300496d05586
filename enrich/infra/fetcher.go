package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"url-insights/enrich/domain"
)

const (
	DefaultFetchTimeout = 12 * time.Second
	DefaultUserAgent    = "url-insights/1.0"
	DefaultMaxBytes     = 5 << 20
	DefaultMaxRedirects = 5
)

type FetcherOptions struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBytes     int64
	MaxRedirects int
	// BlockPrivate recusa destinos em loopback/rede privada (checado no dial).
	BlockPrivate bool
	// Throttle é opcional; nil não limita por host.
	Throttle *HostThrottle
	// Client substitui o cliente padrão (testes). Com Client, BlockPrivate não se aplica.
	Client *http.Client
	Logger *slog.Logger
}

// HTTPFetcher implementa domain.Fetcher. Uma tentativa por chamada, sem retry.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBytes  int64
	throttle  *HostThrottle
	log       *slog.Logger
}

func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := opts.Client
	if client == nil {
		client = newClient(opts.BlockPrivate, opts.MaxRedirects)
	}

	return &HTTPFetcher{
		client:    client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		throttle:  opts.Throttle,
		log:       opts.Logger,
	}
}

func newClient(blockPrivate bool, maxRedirects int) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if blockPrivate {
		dialer.Control = guardControl
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = dialer.DialContext
	tr.MaxIdleConnsPerHost = 4

	return &http.Client{
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (domain.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return domain.Page{}, domain.ValidationError("invalid url")
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// a espera pelo token do host conta dentro do timeout do fetch
	if err := f.throttle.Wait(ctx, u.Hostname()); err != nil {
		if perr := parent.Err(); perr != nil {
			return domain.Page{}, classifyFetchError(perr)
		}
		f.log.Debug("host throttle wait exceeded fetch timeout", "host", u.Hostname(), "error", err)
		return domain.Page{}, domain.TimeoutError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Page{}, domain.ValidationError("invalid url")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug("fetch failed", "url", rawURL, "error", err)
		return domain.Page{}, classifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drena um pouco para reaproveitar a conexão
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.Page{}, domain.FetchError(fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}

	ct := resp.Header.Get("Content-Type")
	if !isHTML(ct) {
		return domain.Page{}, domain.UnsupportedContentError(ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return domain.Page{}, classifyFetchError(err)
	}
	if int64(len(body)) > f.maxBytes {
		f.log.Debug("fetch body truncated", "url", rawURL, "max_bytes", f.maxBytes)
		body = body[:f.maxBytes]
	}

	final := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	f.log.Debug("fetched",
		"url", rawURL,
		"final_url", final,
		"status", resp.StatusCode,
		"bytes", len(body),
		"lat_ms", time.Since(start).Milliseconds(),
	)

	return domain.Page{
		URL:         final,
		ContentType: ct,
		StatusCode:  resp.StatusCode,
		Body:        body,
	}, nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func classifyFetchError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TimeoutError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.TimeoutError(err)
	}
	if errors.Is(err, ErrPrivateAddress) {
		return domain.FetchError("destination not allowed", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.FetchError("request cancelled", err)
	}
	return domain.FetchError("upstream unreachable", err)
}
