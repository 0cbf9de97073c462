// Package fetch implements the plain transport collaborator on top of the
// Colly collector: session headers, bounded retries with backoff, and a
// declarative decode mode for charset-hostile sites.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jinwoo-dev/partywatch/internal/hangul"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// DefaultUserAgent mimics a desktop browser; several party sites serve
// stripped-down or blocked pages to obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// DefaultHeaders is the browser-like session header set applied to every
// request unless overridden per call.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// Config controls client behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Retries     int
	BackoffBase time.Duration
	Headers     map[string]string
}

// StatusError reports a non-2xx HTTP response. Status failures are final:
// the server answered, retrying will not change its mind.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Client is a session-scoped HTTP client implementing scrape.Fetcher.
type Client struct {
	cfg   Config
	base  *colly.Collector
	sleep func(time.Duration)
}

var _ scrape.Fetcher = (*Client)(nil)

// New builds a Client. Zero config values fall back to defaults.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.Headers == nil {
		cfg.Headers = DefaultHeaders()
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())

	return &Client{
		cfg:   cfg,
		base:  c,
		sleep: time.Sleep,
	}
}

// HTML performs a GET and returns the decoded body. Timeouts and connection
// failures retry with backoff attempt×BackoffBase (2s, 4s, 6s by default);
// the last failure propagates after the final attempt. A non-2xx status
// fails immediately.
func (c *Client) HTML(ctx context.Context, url string, opts scrape.FetchOptions) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		body, err := c.do(ctx, url, http.MethodGet, nil, opts.Headers, "")
		if err == nil {
			if opts.Encoding == "auto" {
				return hangul.DecodeBytes(body), nil
			}
			return string(body), nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
		if attempt < c.cfg.Retries-1 {
			c.sleep(time.Duration(attempt+1) * c.cfg.BackoffBase)
		}
	}
	return "", lastErr
}

// PostJSON performs a POST with a JSON body and decodes the JSON response
// into out. Non-2xx fails immediately, no retry.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, headers map[string]string, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	body, err := c.do(ctx, url, http.MethodPost, raw, headers, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json response: %w", err)
	}
	return nil
}

// SetSleep overrides the backoff sleeper. Tests use this to run instantly.
func (c *Client) SetSleep(fn func(time.Duration)) {
	if fn != nil {
		c.sleep = fn
	}
}

func (c *Client) do(ctx context.Context, url, method string, payload []byte, headers map[string]string, contentType string) ([]byte, error) {
	collector := c.base.Clone()
	collector.UserAgent = c.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range c.cfg.Headers {
			r.Headers.Set(k, v)
		}
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
		if contentType != "" {
			r.Headers.Set("Content-Type", contentType)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.run(ctx, collector, url, method, payload); err != nil {
		if status >= 300 {
			return nil, &StatusError{URL: url, StatusCode: status}
		}
		return nil, err
	}
	if fetchErr != nil {
		if status >= 300 {
			return nil, &StatusError{URL: url, StatusCode: status}
		}
		return nil, fmt.Errorf("fetch %s: %w", url, fetchErr)
	}
	return body, nil
}

func (c *Client) run(ctx context.Context, collector *colly.Collector, url, method string, payload []byte) error {
	done := make(chan error, 1)
	go func() {
		if method == http.MethodPost {
			done <- collector.PostRaw(url, payload)
		} else {
			done <- collector.Visit(url)
		}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

// retryable classifies transport faults. Only timeouts and connection
// failures are worth another attempt; everything else propagates.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
