package tastypie

import (
	"context"
	"fmt"
	"sync"
)

// SearchResponse is a lazily paginated view over the results of a search.
//
// The total is fixed when the search runs. Items are fetched only for the
// indexes the caller reads and kept in a sparse cache keyed by absolute index.
// A single index costs at most one request, and so does a slice: the request
// covers the smallest contiguous range holding every missing index of it.
//
// Fetches are serialised by the response's lock, so concurrent readers of
// overlapping ranges never fetch the same window twice.
type SearchResponse struct {
	resolver     Resolver
	resourceType string
	filters      Filters
	total        int

	mu    sync.Mutex
	cache map[int]*Resource
}

// NewSearchResponse binds a search to its resolver. firstPage, if any, holds
// the items at [0, len(firstPage)) returned together with the total.
func NewSearchResponse(resolver Resolver, resourceType string, filters Filters, total int, firstPage []*Resource) *SearchResponse {
	search := &SearchResponse{
		resolver:     resolver,
		resourceType: resourceType,
		filters:      filters.Clone(),
		total:        total,
		cache:        make(map[int]*Resource, len(firstPage)),
	}

	for i, resource := range firstPage {
		if i >= total {
			break
		}

		search.cache[i] = resource
	}

	return search
}

// Len returns the total number of matches announced by the service.
func (s *SearchResponse) Len() int {
	return s.total
}

// Type returns the searched resource type.
func (s *SearchResponse) Type() string {
	return s.resourceType
}

// Filters returns a copy of the search filters.
func (s *SearchResponse) Filters() Filters {
	return s.filters.Clone()
}

// Cached reports whether index i has been fetched.
func (s *SearchResponse) Cached(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cache[i]

	return ok
}

// CachedCount returns how many items have been fetched so far.
func (s *SearchResponse) CachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.cache)
}

// Index returns the item at i, fetching it alone if it is not cached.
func (s *SearchResponse) Index(ctx context.Context, i int) (*Resource, error) {
	if i < 0 || i >= s.total {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, s.total)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if resource, ok := s.cache[i]; ok {
		return resource, nil
	}

	if err := s.fetch(ctx, i, 1); err != nil {
		return nil, err
	}

	return s.cache[i], nil
}

// Slice returns the items in [start, end).
func (s *SearchResponse) Slice(ctx context.Context, start, end int) ([]*Resource, error) {
	if start < 0 || end > s.total || start > end {
		return nil, fmt.Errorf("%w: [%d, %d) not in [0, %d]", ErrIndexOutOfRange, start, end, s.total)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first, last := -1, -1

	for i := start; i < end; i++ {
		if _, ok := s.cache[i]; ok {
			continue
		}

		if first < 0 {
			first = i
		}

		last = i
	}

	if first >= 0 {
		if err := s.fetch(ctx, first, last-first+1); err != nil {
			return nil, err
		}
	}

	resources := make([]*Resource, 0, end-start)
	for i := start; i < end; i++ {
		resources = append(resources, s.cache[i])
	}

	return resources, nil
}

// All returns every match, fetching whatever is still missing in one request.
func (s *SearchResponse) All(ctx context.Context) ([]*Resource, error) {
	return s.Slice(ctx, 0, s.total)
}

// Values returns the field mapping of every match.
func (s *SearchResponse) Values(ctx context.Context) ([]map[string]any, error) {
	resources, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	return valuesOf(resources), nil
}

// ValuesList projects the named fields of every match: a []any tuple per item,
// or the bare value when flat is set, in which case exactly one field must be
// named.
func (s *SearchResponse) ValuesList(ctx context.Context, flat bool, fields ...string) ([]any, error) {
	if err := checkFlatten(flat, fields); err != nil {
		return nil, err
	}

	resources, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	return valuesListOf(resources, flat, fields)
}

// String implements fmt.Stringer without triggering a fetch.
func (s *SearchResponse) String() string {
	return fmt.Sprintf("<SearchResponse %s (%d/%d)>", s.resourceType, s.CachedCount(), s.total)
}

// fetch loads [offset, offset+limit) and merges it into the cache without
// replacing items already there. Callers hold s.mu.
func (s *SearchResponse) fetch(ctx context.Context, offset, limit int) error {
	resources, err := s.resolver.Window(ctx, s.resourceType, s.filters, offset, limit)
	if err != nil {
		return err
	}

	if len(resources) != limit {
		return fmt.Errorf("%w: asked for %d at offset %d, got %d", ErrIncompleteWindow, limit, offset, len(resources))
	}

	for k, resource := range resources {
		if _, ok := s.cache[offset+k]; !ok {
			s.cache[offset+k] = resource
		}
	}

	return nil
}
