// Package request issues rate limited HTTP requests with retries for the
// osu! web API and beatmap downloads.
package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/osukit/osukit/log"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultRetryAttempts = 3
	drainBodyLimit       = 100000
)

var (
	// ErrRequestSystemIsNil is returned when a nil requester is used
	ErrRequestSystemIsNil = errors.New("request system is nil")

	errRequestItemNil   = errors.New("request item is nil")
	errInvalidPath      = errors.New("invalid path")
	errFailedToRetry    = errors.New("request failed after retries")
	errContextRequired  = errors.New("context is required")
	errLimiterExhausted = errors.New("rate limiter wait failed")
)

// Limiter throttles outbound requests
type Limiter interface {
	Wait(ctx context.Context) error
}

// Requester sends HTTP requests on behalf of a named service
type Requester struct {
	name          string
	client        *http.Client
	limiter       Limiter
	retryAttempts int
	userAgent     string
	verbose       bool
}

// Item is a single request to dispatch
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
	// Result, when non-nil, receives the unmarshalled JSON response
	Result interface{}
	// Verbose logs the request and response for this item only
	Verbose bool
}

// Option configures a requester
type Option func(*Requester)

// WithLimiter throttles the requester
func WithLimiter(l Limiter) Option {
	return func(r *Requester) { r.limiter = l }
}

// WithRetryAttempts sets how many times retryable failures are retried
func WithRetryAttempts(n int) Option {
	return func(r *Requester) { r.retryAttempts = n }
}

// WithUserAgent sets the User-Agent header for every request
func WithUserAgent(ua string) Option {
	return func(r *Requester) { r.userAgent = ua }
}

// WithVerbose logs every request and response
func WithVerbose() Option {
	return func(r *Requester) { r.verbose = true }
}

// New returns a requester for the named service. client may be nil for a
// default client.
func New(name string, client *http.Client, opts ...Option) *Requester {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	r := &Requester{
		name:          name,
		client:        client,
		retryAttempts: defaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SendPayload dispatches the item and returns the raw response body. When
// item.Result is set the body is additionally unmarshalled into it as JSON.
func (r *Requester) SendPayload(ctx context.Context, item *Item) ([]byte, error) {
	if r == nil {
		return nil, ErrRequestSystemIsNil
	}
	if item == nil {
		return nil, errRequestItemNil
	}
	if item.Path == "" {
		return nil, errInvalidPath
	}
	if ctx == nil {
		return nil, errContextRequired
	}

	verbose := r.verbose || item.Verbose

	var lastErr error
	for attempt := 0; attempt <= r.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			if verbose {
				log.Debugf(log.RequestSys,
					"%s: retry %d for %s in %s\n",
					r.name, attempt, item.Path, backoff)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", errLimiterExhausted, err)
			}
		}

		body, retryable, err := r.doRequest(ctx, item, verbose)
		if err == nil {
			if item.Result != nil {
				if err := json.Unmarshal(body, item.Result); err != nil {
					return nil, fmt.Errorf("%s: failed to decode response: %w", r.name, err)
				}
			}
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", errFailedToRetry, lastErr)
}

func (r *Requester) doRequest(ctx context.Context, item *Item, verbose bool) (body []byte, retryable bool, err error) {
	method := item.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, item.Path, item.Body)
	if err != nil {
		return nil, false, err
	}
	for k, v := range item.Headers {
		req.Header.Set(k, v)
	}
	if r.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	if verbose {
		log.Debugf(log.RequestSys, "%s: %s %s\n", r.name, method, item.Path)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// transport failures are worth retrying
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if verbose {
		log.Debugf(log.RequestSys, "%s: %s %s returned %d (%d bytes)\n",
			r.name, method, item.Path, resp.StatusCode, len(body))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("%s: %s %s failed with status %s",
			r.name, method, item.Path, resp.Status)
	default:
		if len(body) > drainBodyLimit {
			body = body[:drainBodyLimit]
		}
		return nil, false, fmt.Errorf("%s: %s %s failed with status %s: %s",
			r.name, method, item.Path, resp.Status, body)
	}
}
