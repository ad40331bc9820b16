// Package tpclient provides the main entry point for creating Tastypie API clients
package tpclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/tastypie-client/internal/client"
	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// New creates a client for the service at config.ServiceURL and discovers its
// endpoints. The transport is config.Transport when set, a NATS bridge when
// config.NATS is set, and plain HTTP otherwise.
func New(ctx context.Context, config *tastypie.Config) (tastypie.Client, error) {
	if config == nil {
		return nil, tastypie.ErrConfigRequired
	}

	if config.ServiceURL == "" {
		return nil, tastypie.ErrServiceURLRequired
	}

	// Defaults go into a copy; the caller's config may be reused.
	normalized := *config
	normalized.ServiceURL = normalizeServiceURL(config.ServiceURL)

	if config.NATS != nil {
		nats := *config.NATS
		if nats.Timeout == 0 {
			nats.Timeout = constants.DefaultNATSTimeout
		}

		normalized.NATS = &nats
	}

	if normalized.HTTPTimeout == 0 {
		normalized.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	client, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// normalizeServiceURL adds a scheme when missing and the trailing slash every
// Tastypie URL ends with.
func normalizeServiceURL(serviceURL string) string {
	serviceURL = strings.TrimSpace(serviceURL)

	if !strings.HasPrefix(serviceURL, "http://") && !strings.HasPrefix(serviceURL, "https://") {
		serviceURL = "https://" + serviceURL
	}

	if !strings.HasSuffix(serviceURL, "/") {
		serviceURL += "/"
	}

	return serviceURL
}

// NewWithURL creates a new client with just a service URL (no auth).
func NewWithURL(ctx context.Context, serviceURL string) (tastypie.Client, error) {
	return New(ctx, &tastypie.Config{
		ServiceURL: serviceURL,
	})
}

// NewWithAPIKey creates a new client using ApiKey authentication.
func NewWithAPIKey(ctx context.Context, serviceURL, username, apiKey string) (tastypie.Client, error) {
	return New(ctx, &tastypie.Config{
		ServiceURL: serviceURL,
		Username:   username,
		APIKey:     apiKey,
	})
}

// NewWithNATS creates a new client whose requests travel through a NATS
// bridge listening on subject. An empty subject uses the default one.
func NewWithNATS(ctx context.Context, serviceURL, natsURL, subject string) (tastypie.Client, error) {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	return New(ctx, &tastypie.Config{
		ServiceURL: serviceURL,
		NATS: &tastypie.NATSConfig{
			URL:     natsURL,
			Subject: subject,
		},
	})
}
