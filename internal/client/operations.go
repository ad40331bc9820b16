package client

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// Call implements tastypie.Client.
func (c *Client) Call(ctx context.Context, resourceType string, id *int, filters tastypie.Filters) (*tastypie.Resource, error) {
	if resourceType == "" {
		return nil, tastypie.ErrResourceTypeMissing
	}

	if id == nil {
		return c.Lookup(ctx, resourceType, filters)
	}

	return c.detail(ctx, resourceType, *id, filters)
}

// Get implements tastypie.Client and tastypie.Resolver.
func (c *Client) Get(ctx context.Context, resourceType string, id int) (*tastypie.Resource, error) {
	if resourceType == "" {
		return nil, tastypie.ErrResourceTypeMissing
	}

	return c.detail(ctx, resourceType, id, nil)
}

func (c *Client) detail(ctx context.Context, resourceType string, id int, filters tastypie.Filters) (*tastypie.Resource, error) {
	payload, err := c.fetch(ctx, c.buildURL(resourceType, strconv.Itoa(id), filters))
	if err != nil {
		return nil, err
	}

	return c.decodeResource(payload)
}

// Lookup implements tastypie.Client.
func (c *Client) Lookup(ctx context.Context, resourceType string, filters tastypie.Filters) (*tastypie.Resource, error) {
	if resourceType == "" {
		return nil, tastypie.ErrResourceTypeMissing
	}

	if len(filters) == 0 {
		return nil, tastypie.ErrResourceIDMissing
	}

	search, err := c.Find(ctx, resourceType, filters)
	if err != nil {
		return nil, err
	}

	switch search.Len() {
	case 0:
		return nil, fmt.Errorf("%w: %s", tastypie.ErrNoMatch, resourceType)
	case 1:
		return search.Index(ctx, 0)
	default:
		return nil, fmt.Errorf("%w: %d %s", tastypie.ErrTooManyResources, search.Len(), resourceType)
	}
}

// Many implements tastypie.Client and tastypie.Resolver.
func (c *Client) Many(ctx context.Context, resourceType string, ids []int, filters tastypie.Filters) (map[int]*tastypie.Resource, error) {
	if resourceType == "" {
		return nil, tastypie.ErrResourceTypeMissing
	}

	wanted := uniqueSorted(ids)
	if len(wanted) == 0 {
		return map[int]*tastypie.Resource{}, nil
	}

	payload, err := c.fetch(ctx, c.buildURL(resourceType, batchID(wanted), filters))
	if err != nil {
		return nil, err
	}

	document, resources, err := c.decodeList(payload)
	if err != nil {
		return nil, err
	}

	found := make(map[int]*tastypie.Resource, len(wanted))
	for _, resource := range resources {
		found[resource.ID()] = resource
	}

	if rawNotFound, ok := document[constants.FieldNotFound].([]any); ok {
		for _, raw := range rawNotFound {
			id, err := tastypie.AsInt(raw)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", constants.FieldNotFound, err)
			}

			if _, ok := found[id]; !ok {
				found[id] = nil
			}
		}
	}

	result := make(map[int]*tastypie.Resource, len(wanted))

	for _, id := range wanted {
		resource, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", tastypie.ErrMissingFromBatch, tastypie.ResourceRef{Type: resourceType, ID: id})
		}

		result[id] = resource
	}

	return result, nil
}

// Find implements tastypie.Client.
//
// The first page comes back with the total and is cached at [0, n) unless
// the caller shifted it with an explicit offset.
func (c *Client) Find(ctx context.Context, resourceType string, filters tastypie.Filters) (*tastypie.SearchResponse, error) {
	if resourceType == "" {
		return nil, tastypie.ErrResourceTypeMissing
	}

	payload, err := c.fetch(ctx, c.buildURL(resourceType, "", filters))
	if err != nil {
		return nil, err
	}

	document, resources, err := c.decodeList(payload)
	if err != nil {
		return nil, err
	}

	total, err := totalCount(document)
	if err != nil {
		return nil, err
	}

	searchFilters := filters.Clone()
	delete(searchFilters, tastypie.ParamLimit)

	if _, shifted := searchFilters[tastypie.ParamOffset]; shifted {
		delete(searchFilters, tastypie.ParamOffset)

		resources = nil
	}

	return tastypie.NewSearchResponse(c, resourceType, searchFilters, total, resources), nil
}

// Window implements tastypie.Resolver.
func (c *Client) Window(ctx context.Context, resourceType string, filters tastypie.Filters, offset, limit int) ([]*tastypie.Resource, error) {
	payload, err := c.fetch(ctx, c.buildURL(resourceType, "", filters.WithWindow(offset, limit)))
	if err != nil {
		return nil, err
	}

	_, resources, err := c.decodeList(payload)
	if err != nil {
		return nil, err
	}

	return resources, nil
}

// Schema implements tastypie.Client.
func (c *Client) Schema(ctx context.Context, resourceType string) (map[string]any, error) {
	endpoint, err := c.Endpoint(resourceType)
	if err != nil {
		return nil, err
	}

	schemaURL := endpoint.SchemaURL
	if schemaURL == "" {
		schemaURL = c.buildURL(resourceType, "", nil) + constants.SchemaPath
	} else {
		schemaURL = c.service.AbsoluteURL(schemaURL)
	}

	payload, err := c.fetch(ctx, schemaURL)
	if err != nil {
		return nil, err
	}

	schema, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: schema is %T, not a mapping", tastypie.ErrMalformedPayload, payload)
	}

	return schema, nil
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	sort.Ints(unique)

	return unique
}
