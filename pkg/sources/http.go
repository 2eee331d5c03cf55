package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"
)

const (
	defaultRetryInitialInterval = 500 * time.Millisecond
	defaultRetryMaxElapsed      = 2 * time.Minute
	maxErrorBody                = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Retry runs op with exponential backoff until it succeeds, returns a
// permanent error, or the retry budget in opts is spent.
func Retry[T any](ctx context.Context, opts Options, op backoff.Operation[T]) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = defaultRetryInitialInterval
	if opts.RetryInitialInterval > 0 {
		bo.InitialInterval = opts.RetryInitialInterval
	}
	maxElapsed := defaultRetryMaxElapsed
	if opts.RetryMaxElapsed > 0 {
		maxElapsed = opts.RetryMaxElapsed
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(opts.MaxRetries+1),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
}

// GetJSON issues a GET request through client, retrying transient failures,
// and decodes the JSON body into out. header may be nil.
func GetJSON(ctx context.Context, client *http.Client, opts Options, url string, header http.Header, out any) error {
	_, err := Retry(ctx, opts, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			var tokenErr *oauth2.RetrieveError
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			if errors.As(err, &tokenErr) && tokenErr.Response != nil && tokenErr.Response.StatusCode < 500 {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			statusErr := &StatusError{Method: req.Method, URL: url, StatusCode: resp.StatusCode, Body: string(body)}
			if !statusErr.Temporary() {
				return struct{}{}, backoff.Permanent(statusErr)
			}
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				return struct{}{}, backoff.RetryAfter(secs)
			}
			return struct{}{}, statusErr
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return struct{}{}, nil
	})
	return err
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
