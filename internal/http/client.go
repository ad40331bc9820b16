// Package http is the default HTTP transport of the Tastypie client.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultUserAgent is sent unless WithUserAgent overrides it.
const DefaultUserAgent = "tastypie-client-go/1.0.0"

// Client performs GETs against absolute URLs. It never interprets the status
// code: a non-200 answer comes back as a normal Response.
type Client struct {
	httpClient *retryablehttp.Client
	logger     tastypie.Logger
	debug      bool
	userAgent  string
	accept     string
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger tastypie.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets retry configuration. Retries apply to connection
// errors, 429 and 5xx answers.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithAccept sets the default Accept header, normally the serializer's
// content type.
func WithAccept(contentType string) Option {
	return func(c *Client) {
		c.accept = contentType
	}
}

// NewClient creates a new HTTP client.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	// Hand the last response back as is once retries are exhausted.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		httpClient: retryClient,
		logger:     tastypie.NopLogger{},
		userAgent:  DefaultUserAgent,
		accept:     "application/json",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do implements tastypie.Transport.
func (c *Client) Do(ctx context.Context, req *tastypie.Request) (*tastypie.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", c.accept)
	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, values := range req.Headers {
		httpReq.Header.Del(key)

		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": method,
			"url":    req.URL,
		})
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    req.URL,
			"bytes":  len(body),
		})
	}

	return &tastypie.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// Get is a shortcut for a GET with optional extra headers.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*tastypie.Response, error) {
	return c.Do(ctx, &tastypie.Request{Method: http.MethodGet, URL: url, Headers: headers})
}
