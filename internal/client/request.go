package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// buildURL concatenates the service URL, the resource type, the optional id
// and the query string built from filters.
func (c *Client) buildURL(resourceType, id string, filters tastypie.Filters) string {
	var builder strings.Builder

	builder.WriteString(c.service.URL)

	if resourceType != "" {
		builder.WriteString(resourceType)
		builder.WriteString("/")

		if id != "" {
			builder.WriteString(id)
			builder.WriteString("/")
		}
	}

	if len(filters) > 0 {
		builder.WriteString("?")
		builder.WriteString(filters.ToValues().Encode())
	}

	return builder.String()
}

// batchID renders ids as the compound identifier "set/1;4;9".
func batchID(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return constants.BatchPrefix + strings.Join(parts, constants.BatchSeparator)
}

// fetch performs one GET through the interceptor chain and decodes the body.
func (c *Client) fetch(ctx context.Context, url string) (any, error) {
	req := &tastypie.Request{
		Method:  nethttp.MethodGet,
		URL:     url,
		Headers: nethttp.Header{"Accept": []string{c.serializer.ContentType()}},
	}

	err := c.chain.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		// Response interceptors still see failed round trips.
		_ = c.chain.ExecuteResponseInterceptors(ctx, req, &tastypie.Response{Error: err})

		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	err = c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		return nil, tastypie.NewBadHTTPStatusError(url, resp.StatusCode, resp.Body)
	}

	payload, err := c.serializer.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", tastypie.ErrMalformedPayload, url, err)
	}

	return payload, nil
}
