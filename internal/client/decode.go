package client

import (
	"fmt"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// decodeResource strips the self URL of a raw resource, derives its identity
// from it and classifies every other field.
func (c *Client) decodeResource(raw any) (*tastypie.Resource, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: resource is %T, not a mapping", tastypie.ErrMalformedPayload, raw)
	}

	selfURL, ok := fields[constants.FieldResourceURI].(string)
	if !ok {
		return nil, fmt.Errorf("%w: resource has no %s", tastypie.ErrMalformedPayload, constants.FieldResourceURI)
	}

	ref, err := c.service.ParseResourceURL(selfURL)
	if err != nil {
		return nil, err
	}

	classified := make(map[string]any, len(fields))

	for name, value := range fields {
		if name == constants.FieldResourceURI {
			continue
		}

		classified[name] = c.classify(value)
	}

	return tastypie.NewResource(ref, selfURL, classified), nil
}

// classify turns a related resource URL into a ResourceProxy and a list into
// a ListProxy. Everything else is passed through.
func (c *Client) classify(value any) any {
	switch typed := value.(type) {
	case string:
		if !c.service.IsResourceURL(typed) {
			return typed
		}

		ref, err := c.service.ParseResourceURL(typed)
		if err != nil {
			return typed
		}

		return tastypie.NewResourceProxy(ref, typed, c)
	case []any:
		return tastypie.NewListProxy(typed, c.service, c, tastypie.WithBatchConcurrency(c.batchConcurrency))
	default:
		return value
	}
}

// decodeList reads {meta: {...}, objects: [...]} and {objects, not_found}
// payloads. The mapping is returned for callers that need more keys.
func (c *Client) decodeList(payload any) (map[string]any, []*tastypie.Resource, error) {
	document, ok := payload.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: list is %T, not a mapping", tastypie.ErrMalformedPayload, payload)
	}

	rawObjects, ok := document[constants.FieldObjects].([]any)
	if !ok && document[constants.FieldObjects] != nil {
		return nil, nil, fmt.Errorf("%w: %s is %T, not a list", tastypie.ErrMalformedPayload, constants.FieldObjects, document[constants.FieldObjects])
	}

	resources := make([]*tastypie.Resource, 0, len(rawObjects))

	for _, raw := range rawObjects {
		resource, err := c.decodeResource(raw)
		if err != nil {
			return nil, nil, err
		}

		resources = append(resources, resource)
	}

	return document, resources, nil
}

// totalCount reads meta.total_count.
func totalCount(document map[string]any) (int, error) {
	meta, ok := document[constants.FieldMeta].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: list has no %s", tastypie.ErrMalformedPayload, constants.FieldMeta)
	}

	total, err := tastypie.AsInt(meta[constants.FieldTotalCount])
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", constants.FieldTotalCount, err)
	}

	return total, nil
}
