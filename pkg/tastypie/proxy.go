package tastypie

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ResourceProxy stands in for a related resource that has not been fetched.
//
// The first Resolve fetches the resource; the result is stored once and every
// later read forwards to it without I/O. Concurrent resolutions of the same
// proxy share one request. A failed fetch leaves the proxy unresolved.
type ResourceProxy struct {
	ref      ResourceRef
	url      string
	resolver Resolver

	mu       sync.RWMutex
	resource *Resource
	flight   singleflight.Group
}

// NewResourceProxy creates an unresolved proxy.
func NewResourceProxy(ref ResourceRef, url string, resolver Resolver) *ResourceProxy {
	return &ResourceProxy{
		ref:      ref,
		url:      url,
		resolver: resolver,
	}
}

// Ref returns the identity of the proxied resource.
func (p *ResourceProxy) Ref() ResourceRef {
	return p.ref
}

// URL returns the resource URL the proxy was built from.
func (p *ResourceProxy) URL() string {
	return p.url
}

// Resolved returns the resource if it has already been fetched.
func (p *ResourceProxy) Resolved() (*Resource, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.resource, p.resource != nil
}

// Resolve returns the proxied resource, fetching it on first use.
//
// The shared fetch runs detached from any single caller's cancellation;
// each caller stops waiting when its own ctx is done.
func (p *ResourceProxy) Resolve(ctx context.Context) (*Resource, error) {
	if resource, ok := p.Resolved(); ok {
		return resource, nil
	}

	detached := context.WithoutCancel(ctx)

	results := p.flight.DoChan(p.ref.String(), func() (interface{}, error) {
		if resource, ok := p.Resolved(); ok {
			return resource, nil
		}

		resource, err := p.resolver.Get(detached, p.ref.Type, p.ref.ID)
		if err != nil {
			return nil, err
		}

		return p.settle(resource), nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("resolving %s: %w", p.ref, ctx.Err())
	case result := <-results:
		if result.Err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p.ref, result.Err)
		}

		resource, _ := result.Val.(*Resource)

		return resource, nil
	}
}

// Get resolves the proxy and reads one field.
func (p *ResourceProxy) Get(ctx context.Context, name string) (any, error) {
	resource, err := p.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	return resource.Get(name)
}

// Has resolves the proxy and reports whether the field exists.
func (p *ResourceProxy) Has(ctx context.Context, name string) (bool, error) {
	resource, err := p.Resolve(ctx)
	if err != nil {
		return false, err
	}

	return resource.Has(name), nil
}

// String implements fmt.Stringer without triggering a fetch.
func (p *ResourceProxy) String() string {
	if resource, ok := p.Resolved(); ok {
		return resource.String()
	}

	return fmt.Sprintf("<ResourceProxy %s>", p.ref)
}

// settle stores resource unless another path got there first, and returns
// whichever resource the proxy now holds.
func (p *ResourceProxy) settle(resource *Resource) *Resource {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resource == nil {
		p.resource = resource
	}

	return p.resource
}
