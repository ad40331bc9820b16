package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/internal/http"
	"github.com/fivetwenty-io/tastypie-client/internal/natstransport"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// Client implements tastypie.Client and tastypie.Resolver.
type Client struct {
	service          *tastypie.Service
	serializer       tastypie.Serializer
	transport        tastypie.Transport
	closer           io.Closer
	chain            *tastypie.InterceptorChain
	logger           tastypie.Logger
	batchConcurrency int

	endpoints map[string]*tastypie.Endpoint
}

var (
	_ tastypie.Client   = (*Client)(nil)
	_ tastypie.Resolver = (*Client)(nil)
)

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *tastypie.Config, serializer tastypie.Serializer) []http.Option {
	httpOpts := []http.Option{http.WithAccept(serializer.ContentType())}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createTransport picks the transport: an explicit one, NATS, or HTTP.
func createTransport(config *tastypie.Config, serializer tastypie.Serializer) (tastypie.Transport, io.Closer, error) {
	if config.Transport != nil {
		return config.Transport, nil, nil
	}

	if config.NATS != nil {
		transport, err := natstransport.Connect(config.NATS)
		if err != nil {
			return nil, nil, err
		}

		return transport, transport, nil
	}

	return http.NewClient(createHTTPClientOptions(config, serializer)...), nil, nil
}

// New creates a client and discovers the endpoints announced by the service.
func New(ctx context.Context, config *tastypie.Config) (*Client, error) {
	if config == nil {
		return nil, tastypie.ErrConfigRequired
	}

	service, err := tastypie.NewService(config.ServiceURL)
	if err != nil {
		return nil, err
	}

	serializer := config.Serializer
	if serializer == nil {
		serializer = tastypie.NewJSONSerializer()
	}

	logger := config.Logger
	if logger == nil {
		logger = tastypie.NopLogger{}
	}

	batchConcurrency := config.BatchConcurrency
	if batchConcurrency <= 0 {
		batchConcurrency = constants.DefaultBatchConcurrency
	}

	transport, closer, err := createTransport(config, serializer)
	if err != nil {
		return nil, err
	}

	chain := tastypie.NewInterceptorChain()

	if config.Username != "" && config.APIKey != "" {
		chain.AddRequestInterceptor(tastypie.APIKeyInterceptor(config.Username, config.APIKey))
	}

	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	client := &Client{
		service:          service,
		serializer:       serializer,
		transport:        transport,
		closer:           closer,
		chain:            chain,
		logger:           logger,
		batchConcurrency: batchConcurrency,
	}

	err = client.discover(ctx)
	if err != nil {
		return nil, errors.Join(err, client.Close())
	}

	return client, nil
}

// discover reads the entry document: endpoint name -> {list_endpoint, schema}.
func (c *Client) discover(ctx context.Context) error {
	payload, err := c.fetch(ctx, c.service.URL)
	if err != nil {
		return fmt.Errorf("fetching entry endpoint: %w", err)
	}

	entries, ok := payload.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: entry endpoint is %T, not a mapping", tastypie.ErrMalformedPayload, payload)
	}

	endpoints := make(map[string]*tastypie.Endpoint, len(entries))

	for name, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: endpoint %s is %T, not a mapping", tastypie.ErrMalformedPayload, name, raw)
		}

		listEndpoint, _ := entry[constants.FieldListEndpoint].(string)
		schemaURL, _ := entry[constants.FieldSchema].(string)

		endpoints[name] = tastypie.NewEndpoint(c, name, listEndpoint, schemaURL)
	}

	c.endpoints = endpoints

	c.logger.Debug("Discovered endpoints", map[string]interface{}{
		"service":   c.service.URL,
		"endpoints": c.Endpoints(),
	})

	return nil
}

// Service implements tastypie.Client.
func (c *Client) Service() *tastypie.Service {
	return c.service
}

// Endpoints implements tastypie.Client.
func (c *Client) Endpoints() []string {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Endpoint implements tastypie.Client.
func (c *Client) Endpoint(name string) (*tastypie.Endpoint, error) {
	endpoint, ok := c.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tastypie.ErrUnknownEndpoint, name)
	}

	return endpoint, nil
}

// Close implements tastypie.Client.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}

	return c.closer.Close()
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("<Api: %s>", c.service.URL)
}
