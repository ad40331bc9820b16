package tastypie

import (
	"context"
	"fmt"
)

// Endpoint is one entry of the service's entry document, bound to a client.
type Endpoint struct {
	Name         string
	ListEndpoint string
	SchemaURL    string

	client Client
}

// NewEndpoint binds an announced endpoint to the client serving it.
func NewEndpoint(client Client, name, listEndpoint, schemaURL string) *Endpoint {
	return &Endpoint{
		Name:         name,
		ListEndpoint: listEndpoint,
		SchemaURL:    schemaURL,
		client:       client,
	}
}

// String implements fmt.Stringer.
func (e *Endpoint) String() string {
	return fmt.Sprintf("<Endpoint %s>", e.ListEndpoint)
}

// Get fetches one resource of this type.
func (e *Endpoint) Get(ctx context.Context, id int) (*Resource, error) {
	return e.client.Get(ctx, e.Name, id)
}

// Lookup fetches the single resource of this type matching filters.
func (e *Endpoint) Lookup(ctx context.Context, filters Filters) (*Resource, error) {
	return e.client.Lookup(ctx, e.Name, filters)
}

// Many fetches several resources of this type in one request.
func (e *Endpoint) Many(ctx context.Context, ids []int, filters Filters) (map[int]*Resource, error) {
	return e.client.Many(ctx, e.Name, ids, filters)
}

// Find searches resources of this type.
func (e *Endpoint) Find(ctx context.Context, filters Filters) (*SearchResponse, error) {
	return e.client.Find(ctx, e.Name, filters)
}

// Schema fetches the schema document of this type.
func (e *Endpoint) Schema(ctx context.Context) (map[string]any, error) {
	return e.client.Schema(ctx, e.Name)
}
