package tastypie

import (
	"context"
	"time"
)

// Client is the entry point to a Tastypie-style service.
//
// Every method that performs I/O issues exactly one GET, except Many with no
// ids (none) and Lookup (one, through Find).
type Client interface {
	// Service describes the service URL the client was built for.
	Service() *Service
	// Endpoints lists the resource types announced by the entry endpoint.
	Endpoints() []string
	// Endpoint binds the operations below to one announced resource type.
	Endpoint(name string) (*Endpoint, error)

	// Call is the single-resource dispatcher: with an id it behaves like Get
	// (filters become query parameters), without one like Lookup.
	Call(ctx context.Context, resourceType string, id *int, filters Filters) (*Resource, error)
	// Get fetches one resource by id.
	Get(ctx context.Context, resourceType string, id int) (*Resource, error)
	// Lookup runs a search that must match exactly one resource.
	Lookup(ctx context.Context, resourceType string, filters Filters) (*Resource, error)
	// Many fetches several resources of one type in a single request. Ids the
	// service reports as not found map to nil.
	Many(ctx context.Context, resourceType string, ids []int, filters Filters) (map[int]*Resource, error)
	// Find starts a lazily paginated search.
	Find(ctx context.Context, resourceType string, filters Filters) (*SearchResponse, error)
	// Schema fetches the raw schema document of an announced resource type.
	Schema(ctx context.Context, resourceType string) (map[string]any, error)

	// Close releases the transport, e.g. a NATS connection the client opened.
	Close() error
}

// Resolver is the part of the client that proxies and search responses call
// back into to materialise data.
type Resolver interface {
	Get(ctx context.Context, resourceType string, id int) (*Resource, error)
	Many(ctx context.Context, resourceType string, ids []int, filters Filters) (map[int]*Resource, error)
	// Window fetches the resources at [offset, offset+limit) of a search.
	Window(ctx context.Context, resourceType string, filters Filters, offset, limit int) ([]*Resource, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// NATSConfig selects the NATS request/reply transport instead of HTTP.
type NATSConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222".
	URL string
	// Subject the bridge listens on.
	Subject string
	// Timeout bounds each request when the context has no deadline.
	Timeout time.Duration
}

// Config represents client configuration.
type Config struct {
	// ServiceURL is the entry endpoint, e.g. "http://localhost:8000/api/v1/".
	// It is fetched once on construction to discover the endpoints.
	ServiceURL string

	// Serializer decodes payloads. Defaults to JSON.
	Serializer Serializer

	// Transport overrides the transport built from the fields below.
	Transport Transport

	// NATS tunnels requests through a NATS bridge instead of plain HTTP.
	NATS *NATSConfig

	// Username and APIKey enable ApiKey authentication when both are set.
	Username string
	APIKey   string

	// HTTPTimeout bounds a single HTTP round trip.
	HTTPTimeout time.Duration
	// RetryMax is the number of transport-level retries on 5xx, 429 and
	// connection errors. Zero disables retries so every operation maps to
	// exactly one request on the wire.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables request/response logging in the transport.
	Debug bool
	// Logger receives transport and interceptor logs. Defaults to NopLogger.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// BatchConcurrency bounds how many per-type batch requests a list range
	// resolution runs at once.
	BatchConcurrency int

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
}
