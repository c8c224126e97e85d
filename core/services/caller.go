package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/netutil"
)

// DefaultTimeout bounds every adapter call.
const DefaultTimeout = 10 * time.Second

const maxBody = 8 << 20

// CallObserver receives one call per adapter request.
type CallObserver interface {
	ObserveCall(service string, took time.Duration, err error)
}

// Caller performs HTTP requests for adapters.
type Caller struct {
	client   *http.Client
	timeout  time.Duration
	observer CallObserver
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithHTTPClient replaces the default client (tests use httptest clients).
func WithHTTPClient(c *http.Client) CallerOption {
	return func(cl *Caller) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) CallerOption {
	return func(cl *Caller) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithObserver records call metrics.
func WithObserver(o CallObserver) CallerOption {
	return func(cl *Caller) { cl.observer = o }
}

// NewCaller builds a Caller with a retrying client bounded by the timeout.
func NewCaller(opts ...CallerOption) *Caller {
	c := &Caller{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = netutil.BuildHTTPClient(netutil.ClientOptions{
			Timeout:         c.timeout,
			ResponseTimeout: c.timeout,
			Retries:         1,
			Backoff:         500 * time.Millisecond,
		})
	}
	return c
}

// HTTPClient exposes the underlying client for SDKs that take one.
func (c *Caller) HTTPClient() *http.Client { return c.client }

// Timeout returns the per-call bound.
func (c *Caller) Timeout() time.Duration { return c.timeout }

// Observe reports an SDK-driven call made outside Do.
func (c *Caller) Observe(ctx context.Context, service string, took time.Duration, status int, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("service", service),
		slog.Duration("duration", took),
	}
	if status != 0 {
		attrs = append(attrs, slog.Int("http_code", status))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err_kind", string(KindOf(err))),
			slog.String("err", err.Error()),
		)
		logger.Warn(ctx, logger.CompService, "call", attrs...)
	} else {
		logger.Debug(ctx, logger.CompService, "call", attrs...)
	}
	if c.observer != nil {
		c.observer.ObserveCall(service, took, err)
	}
}

// Do sends req under the call timeout and returns the body of a 2xx response.
func (c *Caller) Do(ctx context.Context, service string, req *http.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, status, err := c.do(req.WithContext(ctx), service)
	c.Observe(ctx, service, time.Since(start), status, err)
	return body, err
}

func (c *Caller) do(req *http.Request, service string) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, Wrap(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, Wrap(service, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := logger.SanitizeLimit(string(body), 200)
		return nil, resp.StatusCode, &Error{Service: service, Kind: KindStatus, Status: resp.StatusCode, Err: fmt.Errorf("%s", snippet)}
	}
	return body, resp.StatusCode, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Caller) GetJSON(ctx context.Context, service, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Input(service, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.Do(ctx, service, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return Payload(service, fmt.Errorf("decode json: %w", err))
	}
	return nil
}
