package cloudflare

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "padded seconds", value: " 3 ", want: 3 * time.Second},
		{name: "zero seconds", value: "0", want: 0},
		{name: "negative seconds", value: "-4", want: 0},
		{name: "http date in the future", value: "Wed, 01 May 2024 12:00:30 GMT", want: 30 * time.Second},
		{name: "http date in the past", value: "Wed, 01 May 2024 11:00:00 GMT", want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseRetryAfter(tt.value, now))
		})
	}
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "first error wins",
			body:     `{"success":false,"errors":[{"code":8000007,"message":"Project not found"},{"code":1,"message":"other"}]}`,
			wantCode: 8000007,
			wantMsg:  "Project not found",
		},
		{name: "no errors", body: `{"success":false,"errors":[]}`},
		{name: "not json", body: `<html>bad gateway</html>`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := errorDetail([]byte(tt.body))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("uses envelope message", func(t *testing.T) {
		t.Parallel()
		resp := &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Header: http.Header{}}
		err := newHTTPError(resp, "https://api/x", []byte(`{"errors":[{"code":7003,"message":"Could not route"}]}`), now)

		assert.Equal(t, 7003, err.Code)
		assert.Equal(t, "Could not route", err.Message)
		assert.False(t, err.Retryable())
		assert.Equal(t, "HTTP 404 for URL https://api/x: Could not route", err.Error())
	})

	t.Run("falls back to status text", func(t *testing.T) {
		t.Parallel()
		resp := &http.Response{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway", Header: http.Header{}}
		err := newHTTPError(resp, "https://api/x", []byte(`<html/>`), now)

		assert.Equal(t, "502 Bad Gateway", err.Message)
		assert.True(t, err.Retryable())
		assert.Zero(t, err.RetryAfter)
	})

	t.Run("rate limited with retry-after", func(t *testing.T) {
		t.Parallel()
		header := http.Header{}
		header.Set("Retry-After", "2")
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests", Header: header}
		err := newHTTPError(resp, "https://api/x", nil, now)

		assert.True(t, err.Retryable())
		assert.Equal(t, 2*time.Second, err.RetryAfter)

		var retryAfter *backoff.RetryAfterError
		require.True(t, errors.As(err, &retryAfter))
		assert.Equal(t, 2*time.Second, retryAfter.Duration)
	})

	t.Run("retry-after ignored outside 429", func(t *testing.T) {
		t.Parallel()
		header := http.Header{}
		header.Set("Retry-After", "2")
		resp := &http.Response{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable", Header: header}
		err := newHTTPError(resp, "https://api/x", nil, now)

		assert.Zero(t, err.RetryAfter)
		var retryAfter *backoff.RetryAfterError
		assert.False(t, errors.As(err, &retryAfter))
	})
}
