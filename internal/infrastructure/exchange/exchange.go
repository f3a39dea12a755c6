// Package exchange holds the pieces shared by the public market-data clients:
// the retrying JSON requester, upstream error type, pair and timeframe
// helpers, and kline row parsing.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 500 * time.Millisecond

	maxBodyBytes   = 8 << 20
	maxMessageSize = 256
)

// APIError is a non-200 answer (or an in-body error code) from an exchange.
type APIError struct {
	Exchange   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error: status %d, code %s: %s", e.Exchange, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Exchange, e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsUpstream reports whether err came from talking to an exchange rather
// than from the caller's input.
func IsUpstream(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// RequestError wraps transport and decoding failures.
type RequestError struct {
	Exchange string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Exchange, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Options configures a Requester.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Requester performs GET requests that decode JSON, retrying transport
// errors, 5xx and 429 with exponential backoff.
type Requester struct {
	name          string
	baseURL       string
	httpClient    *http.Client
	maxRetries    int
	retryInterval time.Duration
	log           *slog.Logger
	metrics       *metrics.Metrics
}

// NewRequester creates a Requester for the named exchange.
func NewRequester(name string, opts Options) *Requester {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Requester{
		name:          name,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    opts.HTTPClient,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		log:           opts.Logger.With("exchange", name),
		metrics:       opts.Metrics,
	}
}

// Name returns the exchange name.
func (r *Requester) Name() string { return r.name }

// GetJSON fetches baseURL+path?query and decodes the body into out.
func (r *Requester) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	start := time.Now()
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(&RequestError{Exchange: r.name, Err: err})
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return &RequestError{Exchange: r.name, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &RequestError{Exchange: r.name, Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{
				Exchange:   r.name,
				StatusCode: resp.StatusCode,
				Message:    truncate(strings.TrimSpace(string(body))),
			}
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(&RequestError{
				Exchange: r.name,
				Err:      fmt.Errorf("failed to decode response: %w", err),
			})
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxRetries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		r.log.WarnContext(ctx, "exchange request failed, retrying",
			"path", path,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
	})
	r.metrics.ObserveFetch(r.name, start, err)
	return err
}

func truncate(s string) string {
	if len(s) > maxMessageSize {
		return s[:maxMessageSize]
	}
	return s
}
