// Package github provides a client for starting GitHub Actions workflow runs.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
)

// Client defines the GitHub Actions operations.
type Client interface {
	// DispatchWorkflow starts a workflow_dispatch run of workflow on ref.
	DispatchWorkflow(ctx context.Context, req DispatchRequest) error
}

// DispatchRequest identifies the workflow run to start.
type DispatchRequest struct {
	Owner    string
	Repo     string
	Workflow string // file name or numeric id
	Ref      string
	Inputs   map[string]string
}

type dispatchBody struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: status %d: %s", e.StatusCode, e.Body)
}

// Option configures the GitHub client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing or GitHub Enterprise).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetries sets how many times transient failures are retried.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *httpClient) {
		c.retries = n
		c.retryWait = wait
	}
}

type httpClient struct {
	baseURL   string
	http      *http.Client
	retries   int
	retryWait time.Duration
	rest      *resty.Client
}

// NewClient creates a client authenticated with token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://api.github.com",
		http:      &http.Client{Timeout: 30 * time.Second},
		retries:   2,
		retryWait: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rest = resty.NewWithClient(c.http).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetAuthScheme("Bearer").
		SetAuthToken(token).
		SetRetryCount(c.retries).
		SetRetryWaitTime(c.retryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	return c
}

// DispatchWorkflow posts to the workflow dispatch endpoint. GitHub answers
// 204 No Content on success.
func (c *httpClient) DispatchWorkflow(ctx context.Context, req DispatchRequest) error {
	if req.Owner == "" || req.Repo == "" || req.Workflow == "" {
		return eris.New("github: owner, repo and workflow are required")
	}
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches",
		url.PathEscape(req.Owner), url.PathEscape(req.Repo), url.PathEscape(req.Workflow))

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(dispatchBody{Ref: req.Ref, Inputs: req.Inputs}).
		Post(path)
	if err != nil {
		return eris.Wrap(err, "github: dispatch workflow")
	}
	if resp.IsError() {
		return eris.Wrap(&APIError{StatusCode: resp.StatusCode(), Body: resp.String()}, "github: dispatch workflow")
	}
	return nil
}
