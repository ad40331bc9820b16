package tastypie_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

type windowCall struct {
	Offset int
	Limit  int
}

type manyCall struct {
	Type string
	IDs  []int
}

// fakeResolver serves resources from memory and records every call.
type fakeResolver struct {
	mu        sync.Mutex
	resources map[string]map[int]map[string]any
	results   []*tastypie.Resource
	// missing ids are left out of both objects and not_found.
	missing map[int]bool
	err     error

	gets    []tastypie.ResourceRef
	manys   []manyCall
	windows []windowCall
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		resources: make(map[string]map[int]map[string]any),
		missing:   make(map[int]bool),
	}
}

func (f *fakeResolver) add(resourceType string, id int, fields map[string]any) {
	if f.resources[resourceType] == nil {
		f.resources[resourceType] = make(map[int]map[string]any)
	}

	f.resources[resourceType][id] = fields
}

func (f *fakeResolver) resource(resourceType string, id int) *tastypie.Resource {
	return tastypie.NewResource(
		tastypie.ResourceRef{Type: resourceType, ID: id},
		fmt.Sprintf("/api/1/%s/%d/", resourceType, id),
		f.resources[resourceType][id],
	)
}

func (f *fakeResolver) Get(ctx context.Context, resourceType string, id int) (*tastypie.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets = append(f.gets, tastypie.ResourceRef{Type: resourceType, ID: id})

	if f.err != nil {
		return nil, f.err
	}

	if _, ok := f.resources[resourceType][id]; !ok {
		return nil, tastypie.NewBadHTTPStatusError(fmt.Sprintf("/api/1/%s/%d/", resourceType, id), 404, nil)
	}

	return f.resource(resourceType, id), nil
}

func (f *fakeResolver) Many(ctx context.Context, resourceType string, ids []int, filters tastypie.Filters) (map[int]*tastypie.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.manys = append(f.manys, manyCall{Type: resourceType, IDs: append([]int(nil), ids...)})

	if f.err != nil {
		return nil, f.err
	}

	found := make(map[int]*tastypie.Resource, len(ids))

	for _, id := range ids {
		if f.missing[id] {
			continue
		}

		if _, ok := f.resources[resourceType][id]; ok {
			found[id] = f.resource(resourceType, id)
		} else {
			found[id] = nil
		}
	}

	return found, nil
}

func (f *fakeResolver) Window(ctx context.Context, resourceType string, filters tastypie.Filters, offset, limit int) ([]*tastypie.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.windows = append(f.windows, windowCall{Offset: offset, Limit: limit})

	if f.err != nil {
		return nil, f.err
	}

	end := offset + limit
	if end > len(f.results) {
		end = len(f.results)
	}

	if offset > end {
		return nil, nil
	}

	return append([]*tastypie.Resource(nil), f.results[offset:end]...), nil
}

func (f *fakeResolver) calls() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.gets), len(f.manys), len(f.windows)
}

func mustService(serviceURL string) *tastypie.Service {
	service, err := tastypie.NewService(serviceURL)
	if err != nil {
		panic(err)
	}

	return service
}

// blockingResolver holds every Get until release is closed.
type blockingResolver struct {
	*fakeResolver

	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingResolver(inner *fakeResolver) *blockingResolver {
	return &blockingResolver{
		fakeResolver: inner,
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (b *blockingResolver) Get(ctx context.Context, resourceType string, id int) (*tastypie.Resource, error) {
	b.once.Do(func() { close(b.started) })

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return b.fakeResolver.Get(ctx, resourceType, id)
}
