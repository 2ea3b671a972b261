package crawler

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher implements Fetcher using the Colly collector.
type CollyFetcher struct {
	baseCollector *colly.Collector
	authHeader    string
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// NewCollyFetcher constructs a Fetcher that sends GET requests with an HTML
// Accept header, optional basic auth and the configured timeout. Server
// certificates are not verified. Colly's own revisit tracking and robots
// handling are disabled; the engine owns deduplication.
func NewCollyFetcher(cfg Config, logger *zap.Logger) *CollyFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	opts := []colly.CollectorOption{colly.Async(false)}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.ParseHTTPErrorResponse = true
	base.WithTransport(newHTTPTransport(timeout))
	base.SetRequestTimeout(timeout)

	f := &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}
	if cfg.BasicAuth != nil {
		f.authHeader = basicAuthHeader(*cfg.BasicAuth)
	}
	return f
}

// Fetch retrieves u via a clone of the base collector.
func (f *CollyFetcher) Fetch(ctx context.Context, u *url.URL) (Page, error) {
	if u == nil {
		return Page{}, errors.New("nil url")
	}
	if err := ctx.Err(); err != nil {
		return Page{}, fmt.Errorf("colly fetch canceled: %w", err)
	}
	rawURL := u.String()
	var (
		page     Page
		fetchErr error
		once     sync.Once
	)
	start := time.Now()
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, rawURL, start, &page, &fetchErr, &once)

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (f *CollyFetcher) configureCollectorHooks(
	hooks collectorHooks,
	rawURL string,
	start time.Time,
	page *Page,
	fetchErr *error,
	once *sync.Once,
) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html")
		if f.authHeader != "" {
			r.Headers.Set("Authorization", f.authHeader)
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			var headers http.Header
			if r.Headers != nil {
				headers = r.Headers.Clone()
			}
			*page = Page{
				URL:        rawURL,
				FinalURL:   r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Headers:    headers,
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
			}
		})
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *CollyFetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func basicAuthHeader(auth BasicAuth) string {
	token := base64.StdEncoding.EncodeToString([]byte(auth.User + ":" + auth.Pass))
	return "Basic " + token
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed certificates are accepted on purpose
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}
