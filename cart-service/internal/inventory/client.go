package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when the remote service has no record for the id.
var ErrNotFound = errors.New("not found")

const (
	maxBodySize    = 1 << 20 // 1MB
	defaultTimeout = 5 * time.Second
)

// NewHTTPClient returns an http.Client whose transport is traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// fetcher performs GET requests against one remote service. Requests go
// through a circuit breaker, and identical in-flight requests share a result.
type fetcher struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group
}

func newFetcher(name, baseURL string, client *http.Client, cfg circuitbreaker.Config, log *slog.Logger) *fetcher {
	if client == nil {
		client = NewHTTPClient(defaultTimeout)
	}
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
		breaker: circuitbreaker.New[[]byte](name, cfg, log, isSuccessful),
	}
}

// isSuccessful keeps 404s from tripping the breaker: a missing record is a
// healthy answer. Cancellation says nothing about the remote either.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
}

// get returns the body for path. The shared request runs on a context
// detached from any single caller and bounded by the fetcher timeout, so one
// caller giving up neither fails the others waiting on the same path nor
// counts against the breaker. Each caller still stops waiting when its own
// ctx is done.
func (f *fetcher) get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request %s not sent: %w", path, err)
	}

	ch := f.sfg.DoChan(path, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		return f.breaker.Execute(func() ([]byte, error) {
			return f.do(reqCtx, path)
		})
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request %s abandoned: %w", path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *fetcher) do(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
