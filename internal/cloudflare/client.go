// Package cloudflare is a read-only client for the Cloudflare Pages API.
//
// Every request carries a bearer token, is bounded by a timeout, is rate limited on the
// client side and is retried with exponential backoff: 5xx responses, 429 responses and
// transport failures are retried, other 4xx responses fail immediately. A 429 response
// that carries a Retry-After header waits for the server-supplied delay instead of the
// computed one.
package cloudflare

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

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

const (
	// DefaultBaseURL is the Cloudflare v4 API root
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"

	// DefaultTimeout is the default timeout for a single HTTP request
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the default user agent string for HTTP requests
	UserAgent = "cloudflare-monitor/1.0"

	projectsPerPage    = 10
	deploymentsPerPage = 25
	// maxProjectPages stops pagination against a misbehaving API
	maxProjectPages = 100
)

// Client lists the resources the monitor polls
type Client interface {
	// ListProjects returns every Pages project of the account
	ListProjects(ctx context.Context) ([]Project, error)

	// ListDeployments returns the most recent deployments of a project, newest first
	ListDeployments(ctx context.Context, projectName string) ([]Deployment, error)
}

// APIClient is the HTTP implementation of Client
type APIClient struct {
	httpClient      *http.Client
	baseURL         string
	accountID       string
	apiToken        string
	retry           RetryPolicy
	limiter         *rate.Limiter
	deploymentPages int
	userAgent       string
	now             func() time.Time
}

// Option configures an APIClient
type Option func(*APIClient)

// WithBaseURL overrides the API root, mainly for tests
func WithBaseURL(baseURL string) Option {
	return func(c *APIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *APIClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *APIClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetryPolicy sets the retry schedule
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *APIClient) {
		c.retry = p
	}
}

// WithRateLimit allows at most rps requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *APIClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDeploymentPages sets how many pages of deployments are read per project
func WithDeploymentPages(pages int) Option {
	return func(c *APIClient) {
		if pages > 0 {
			c.deploymentPages = pages
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *APIClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewAPIClient creates a client for the given account
func NewAPIClient(accountID, apiToken string, opts ...Option) (*APIClient, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if apiToken == "" {
		return nil, fmt.Errorf("api token is required")
	}

	c := &APIClient{
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:         DefaultBaseURL,
		accountID:       accountID,
		apiToken:        apiToken,
		retry:           DefaultRetryPolicy,
		limiter:         rate.NewLimiter(rate.Inf, 0),
		deploymentPages: 1,
		userAgent:       UserAgent,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ListProjects returns every Pages project of the account, following pagination
func (c *APIClient) ListProjects(ctx context.Context) ([]Project, error) {
	base := fmt.Sprintf("/accounts/%s/pages/projects", url.PathEscape(c.accountID))

	var all []Project
	for page := 1; page <= maxProjectPages; page++ {
		var batch []Project
		info, err := c.Request(ctx, pagedEndpoint(base, page, projectsPerPage), &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if info == nil || page >= info.TotalPages || len(batch) == 0 {
			break
		}
	}

	return all, nil
}

// ListDeployments returns up to the configured number of pages of deployments, newest first
func (c *APIClient) ListDeployments(ctx context.Context, projectName string) ([]Deployment, error) {
	if projectName == "" {
		return nil, fmt.Errorf("project name is required")
	}
	base := fmt.Sprintf("/accounts/%s/pages/projects/%s/deployments",
		url.PathEscape(c.accountID), url.PathEscape(projectName))

	var all []Deployment
	for page := 1; page <= c.deploymentPages; page++ {
		var batch []Deployment
		info, err := c.Request(ctx, pagedEndpoint(base, page, deploymentsPerPage), &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if info == nil || page >= info.TotalPages || len(batch) == 0 {
			break
		}
	}

	return all, nil
}

// Request performs an authenticated GET of endpoint (relative to the API root), retrying
// per the client's policy, and decodes the envelope's result into out.
// It returns the envelope's pagination info when present.
func (c *APIClient) Request(ctx context.Context, endpoint string, out any) (*ResultInfo, error) {
	target := c.baseURL + endpoint

	body, err := backoff.Retry(ctx,
		func() ([]byte, error) {
			return c.do(ctx, target)
		},
		backoff.WithBackOff(newExponentialJitter(c.retry)),
		backoff.WithMaxTries(uint(max(c.retry.MaxRetries, 0))+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "Cloudflare request failed, retrying",
				"endpoint", endpoint,
				"retry_in", next,
				"error", err)
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	if !env.Success {
		httpErr := &HTTPError{StatusCode: http.StatusOK, URL: target, Message: "request was not successful"}
		if len(env.Errors) > 0 {
			httpErr.Code = env.Errors[0].Code
			httpErr.Message = env.Errors[0].Message
		}
		return nil, httpErr
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return nil, fmt.Errorf("failed to decode result from %s: %w", endpoint, err)
		}
	}

	return env.ResultInfo, nil
}

// do performs a single attempt. Errors that must not be retried are wrapped with backoff.Permanent.
func (c *APIClient) do(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to execute request: %w", err))
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	httpErr := newHTTPError(resp, target, body, c.now())
	if httpErr.Retryable() {
		return nil, httpErr
	}
	return nil, backoff.Permanent(httpErr)
}

// readBody reads at most MaxResponseSize bytes of the response
func readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize))
	}
	return body, nil
}

func pagedEndpoint(base string, page, perPage int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
	return base + "?" + q.Encode()
}
