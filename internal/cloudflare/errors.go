package cloudflare

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
)

// HTTPError is returned when the API answers with a non-success status
type HTTPError struct {
	StatusCode int
	URL        string
	// Code and Message come from the first entry of the envelope's errors array when present
	Code    int
	Message string
	// RetryAfter is the server-requested delay before the next attempt, zero when absent
	RetryAfter time.Duration
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// Unwrap exposes the server-requested delay to the retry loop
func (e *HTTPError) Unwrap() error {
	if e.RetryAfter > 0 {
		return &backoff.RetryAfterError{Duration: e.RetryAfter}
	}
	return nil
}

// Retryable reports whether the request may succeed if repeated
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// newHTTPError builds an HTTPError from a response and its already-read body
func newHTTPError(resp *http.Response, url string, body []byte, now time.Time) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		URL:        url,
		Message:    resp.Status,
	}

	if code, msg := errorDetail(body); msg != "" {
		httpErr.Code = code
		httpErr.Message = msg
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		httpErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	}

	return httpErr
}

// errorDetail extracts the first error code and message of a Cloudflare envelope
func errorDetail(body []byte) (int, string) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return 0, ""
	}
	first := gjson.GetBytes(body, "errors.0")
	if !first.Exists() {
		return 0, ""
	}
	return int(first.Get("code").Int()), first.Get("message").String()
}

// parseRetryAfter understands both forms of the Retry-After header: delay seconds and an HTTP date
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
