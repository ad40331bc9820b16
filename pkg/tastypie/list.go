package tastypie

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds concurrent per-type batch requests.
const DefaultBatchConcurrency = 4

// ListProxy stands in for a list field whose elements may be related
// resource URLs.
//
// Each slot moves from its raw value to a ResourceProxy to a resolved value
// and is never fetched again once resolved. Resolving a range costs one batch
// request per distinct resource type among the unresolved slots in it.
type ListProxy struct {
	service          *Service
	resolver         Resolver
	batchConcurrency int

	mu    sync.Mutex
	slots []listSlot
}

type listSlot struct {
	raw      any
	proxy    *ResourceProxy
	value    any
	resolved bool
	// inflight counts Index calls resolving this slot through its proxy.
	inflight int
}

// ListOption configures a ListProxy.
type ListOption func(*ListProxy)

// WithBatchConcurrency bounds how many per-type batch requests run at once.
func WithBatchConcurrency(n int) ListOption {
	return func(l *ListProxy) {
		if n > 0 {
			l.batchConcurrency = n
		}
	}
}

// NewListProxy wraps the raw elements of a list field.
func NewListProxy(items []any, service *Service, resolver Resolver, opts ...ListOption) *ListProxy {
	list := &ListProxy{
		service:          service,
		resolver:         resolver,
		batchConcurrency: DefaultBatchConcurrency,
		slots:            make([]listSlot, len(items)),
	}

	for i, item := range items {
		list.slots[i].raw = item
	}

	for _, opt := range opts {
		opt(list)
	}

	return list
}

// Len returns the number of elements.
func (l *ListProxy) Len() int {
	return len(l.slots)
}

// Raw returns the elements as they were decoded, without any fetch.
func (l *ListProxy) Raw() []any {
	raw := make([]any, len(l.slots))
	for i := range l.slots {
		raw[i] = l.slots[i].raw
	}

	return raw
}

// Index resolves and returns a single element. A related resource is fetched
// on its own; a scalar is returned as is.
func (l *ListProxy) Index(ctx context.Context, i int) (any, error) {
	l.mu.Lock()

	if i < 0 || i >= len(l.slots) {
		l.mu.Unlock()

		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(l.slots))
	}

	slot := &l.slots[i]

	l.classify(slot)

	if slot.resolved {
		value := slot.value
		l.mu.Unlock()

		return value, nil
	}

	proxy := slot.proxy
	slot.inflight++
	l.mu.Unlock()

	// The proxy coalesces concurrent resolutions of the same slot.
	resource, err := proxy.Resolve(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	slot.inflight--

	if err != nil {
		return nil, err
	}

	l.settleSlot(slot, resource)

	return slot.value, nil
}

// Slice resolves and returns the elements in [start, end).
func (l *ListProxy) Slice(ctx context.Context, start, end int) ([]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if start < 0 || end > len(l.slots) || start > end {
		return nil, fmt.Errorf("%w: [%d, %d) not in [0, %d]", ErrIndexOutOfRange, start, end, len(l.slots))
	}

	// type -> id -> slot positions waiting for that resource
	pending := make(map[string]map[int][]int)
	// slots an Index call is already resolving; they join that fetch
	var joining []int

	for i := start; i < end; i++ {
		slot := &l.slots[i]

		l.classify(slot)

		if slot.resolved {
			continue
		}

		if slot.inflight > 0 {
			joining = append(joining, i)

			continue
		}

		ref := slot.proxy.Ref()
		if pending[ref.Type] == nil {
			pending[ref.Type] = make(map[int][]int)
		}

		pending[ref.Type][ref.ID] = append(pending[ref.Type][ref.ID], i)
	}

	var fetched map[string]map[int]*Resource

	if len(pending) > 0 {
		var err error

		fetched, err = l.batch(ctx, pending)
		if err != nil {
			return nil, err
		}

		for resourceType, byID := range pending {
			for id := range byID {
				if _, ok := fetched[resourceType][id]; !ok {
					return nil, fmt.Errorf("%w: %s", ErrMissingFromBatch, ResourceRef{Type: resourceType, ID: id})
				}
			}
		}
	}

	// Resolve joins the in-flight request; it never takes l.mu.
	joined := make([]*Resource, len(joining))

	for j, i := range joining {
		resource, err := l.slots[i].proxy.Resolve(ctx)
		if err != nil {
			return nil, err
		}

		joined[j] = resource
	}

	for resourceType, byID := range pending {
		for id, positions := range byID {
			for _, i := range positions {
				l.settleSlot(&l.slots[i], fetched[resourceType][id])
			}
		}
	}

	for j, i := range joining {
		l.settleSlot(&l.slots[i], joined[j])
	}

	values := make([]any, 0, end-start)
	for i := start; i < end; i++ {
		values = append(values, l.slots[i].value)
	}

	return values, nil
}

// All resolves and returns every element.
func (l *ListProxy) All(ctx context.Context) ([]any, error) {
	return l.Slice(ctx, 0, l.Len())
}

// Values resolves every element and returns their field mappings. Elements
// that are not resources yield ErrNotAResource.
func (l *ListProxy) Values(ctx context.Context) ([]map[string]any, error) {
	resources, err := l.resources(ctx)
	if err != nil {
		return nil, err
	}

	return valuesOf(resources), nil
}

// ValuesList resolves every element and projects the named fields.
func (l *ListProxy) ValuesList(ctx context.Context, flat bool, fields ...string) ([]any, error) {
	if err := checkFlatten(flat, fields); err != nil {
		return nil, err
	}

	resources, err := l.resources(ctx)
	if err != nil {
		return nil, err
	}

	return valuesListOf(resources, flat, fields)
}

// String implements fmt.Stringer without triggering a fetch.
func (l *ListProxy) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	parts := make([]string, len(l.slots))

	for i := range l.slots {
		slot := &l.slots[i]

		switch {
		case slot.resolved:
			parts[i] = fmt.Sprint(slot.value)
		case slot.proxy != nil:
			parts[i] = slot.proxy.String()
		default:
			parts[i] = fmt.Sprint(slot.raw)
		}
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *ListProxy) resources(ctx context.Context) ([]*Resource, error) {
	items, err := l.All(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]*Resource, len(items))

	for i, item := range items {
		if item == nil {
			continue
		}

		resource, ok := item.(*Resource)
		if !ok {
			return nil, fmt.Errorf("%w: position %d holds %T", ErrNotAResource, i, item)
		}

		resources[i] = resource
	}

	return resources, nil
}

// classify turns a raw slot into a proxy slot or a resolved scalar slot.
// Callers hold l.mu.
func (l *ListProxy) classify(slot *listSlot) {
	if slot.resolved || slot.proxy != nil {
		if slot.proxy != nil && !slot.resolved {
			if resource, ok := slot.proxy.Resolved(); ok {
				l.settleSlot(slot, resource)
			}
		}

		return
	}

	switch raw := slot.raw.(type) {
	case *ResourceProxy:
		slot.proxy = raw
	case string:
		if !l.service.IsResourceURL(raw) {
			slot.value = raw
			slot.resolved = true

			return
		}

		ref, err := l.service.ParseResourceURL(raw)
		if err != nil {
			// Under the base path but not shaped like a resource, e.g. a schema URL.
			slot.value = raw
			slot.resolved = true

			return
		}

		slot.proxy = NewResourceProxy(ref, raw, l.resolver)
	default:
		slot.value = raw
		slot.resolved = true

		return
	}

	if resource, ok := slot.proxy.Resolved(); ok {
		l.settleSlot(slot, resource)
	}
}

// settleSlot records a resolved resource, or nil for one the service reported
// as not found. Callers hold l.mu.
func (l *ListProxy) settleSlot(slot *listSlot, resource *Resource) {
	if slot.resolved {
		return
	}

	slot.resolved = true

	if resource == nil {
		slot.value = nil

		return
	}

	if slot.proxy != nil {
		resource = slot.proxy.settle(resource)
	}

	slot.value = resource
}

// batch issues one Many per resource type, concurrently.
func (l *ListProxy) batch(ctx context.Context, pending map[string]map[int][]int) (map[string]map[int]*Resource, error) {
	types := make([]string, 0, len(pending))
	for resourceType := range pending {
		types = append(types, resourceType)
	}

	sort.Strings(types)

	results := make([]map[int]*Resource, len(types))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.batchConcurrency)

	for i, resourceType := range types {
		ids := make([]int, 0, len(pending[resourceType]))
		for id := range pending[resourceType] {
			ids = append(ids, id)
		}

		sort.Ints(ids)

		group.Go(func() error {
			fetched, err := l.resolver.Many(groupCtx, resourceType, ids, nil)
			if err != nil {
				return fmt.Errorf("resolving %d %s: %w", len(ids), resourceType, err)
			}

			results[i] = fetched

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	fetched := make(map[string]map[int]*Resource, len(types))
	for i, resourceType := range types {
		fetched[resourceType] = results[i]
	}

	return fetched, nil
}
