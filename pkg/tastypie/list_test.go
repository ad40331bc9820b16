package tastypie_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTagResolver() *fakeResolver {
	resolver := newFakeResolver()
	resolver.add("tag", 1, map[string]any{"label": "go"})
	resolver.add("tag", 2, map[string]any{"label": "rest"})
	resolver.add("tag", 3, map[string]any{"label": "lazy"})
	resolver.add("user", 10, map[string]any{"name": "bob"})
	resolver.add("user", 11, map[string]any{"name": "alice"})

	return resolver
}

func TestListProxy_SliceBatchesPerType(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	service := mustService("http://h/api/1/")

	list := tastypie.NewListProxy([]any{
		"/api/1/tag/1/",
		"/api/1/user/10/",
		"/api/1/tag/2/",
		"/api/1/tag/3/",
		"/api/1/user/11/",
	}, service, resolver)

	items, err := list.All(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)

	gets, manys, _ := resolver.calls()
	assert.Equal(t, 0, gets)
	assert.Equal(t, 2, manys)

	resolver.mu.Lock()
	byType := map[string][]int{}
	for _, call := range resolver.manys {
		byType[call.Type] = call.IDs
	}
	resolver.mu.Unlock()

	assert.Equal(t, []int{1, 2, 3}, byType["tag"])
	assert.Equal(t, []int{10, 11}, byType["user"])

	labels := []string{}
	for _, item := range items {
		resource, ok := item.(*tastypie.Resource)
		require.True(t, ok)

		if resource.Type() == "tag" {
			label, err := resource.Get("label")
			require.NoError(t, err)

			labels = append(labels, label.(string))
		}
	}

	assert.Equal(t, []string{"go", "rest", "lazy"}, labels)

	// Resolved slots are never fetched again.
	_, err = list.Slice(context.Background(), 1, 4)
	require.NoError(t, err)

	_, manys, _ = resolver.calls()
	assert.Equal(t, 2, manys)
}

func TestListProxy_IndexResolvesSingleSlot(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/tag/2/"}, mustService("http://h/api/1/"), resolver)

	item, err := list.Index(context.Background(), 1)
	require.NoError(t, err)

	resource, ok := item.(*tastypie.Resource)
	require.True(t, ok)
	assert.Equal(t, 2, resource.ID())

	gets, manys, _ := resolver.calls()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 0, manys)

	// Only the untouched slot remains to batch.
	_, err = list.All(context.Background())
	require.NoError(t, err)

	resolver.mu.Lock()
	require.Len(t, resolver.manys, 1)
	assert.Equal(t, []int{1}, resolver.manys[0].IDs)
	resolver.mu.Unlock()

	_, err = list.Index(context.Background(), 0)
	require.NoError(t, err)

	gets, manys, _ = resolver.calls()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 1, manys)
}

func TestListProxy_ScalarsPassThrough(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	list := tastypie.NewListProxy([]any{"plain", 3.0, "/elsewhere/tag/1/"}, mustService("http://h/api/1/"), resolver)

	items, err := list.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"plain", 3.0, "/elsewhere/tag/1/"}, items)

	gets, manys, _ := resolver.calls()
	assert.Zero(t, gets)
	assert.Zero(t, manys)

	_, err = list.Values(context.Background())
	require.ErrorIs(t, err, tastypie.ErrNotAResource)
}

func TestListProxy_DuplicatesAndNotFound(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/tag/404/", "/api/1/tag/1/"}, mustService("http://h/api/1/"), resolver)

	items, err := list.All(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Nil(t, items[1])
	assert.Same(t, items[0], items[2])

	resolver.mu.Lock()
	require.Len(t, resolver.manys, 1)
	assert.Equal(t, []int{1, 404}, resolver.manys[0].IDs)
	resolver.mu.Unlock()
}

func TestListProxy_MissingFromBatch(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	resolver.missing[2] = true

	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/tag/2/"}, mustService("http://h/api/1/"), resolver)

	_, err := list.All(context.Background())
	require.ErrorIs(t, err, tastypie.ErrMissingFromBatch)
}

func TestListProxy_BatchError(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	resolver.err = errors.New("connection refused")

	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/user/10/"}, mustService("http://h/api/1/"), resolver, tastypie.WithBatchConcurrency(1))

	_, err := list.All(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestListProxy_Bounds(t *testing.T) {
	t.Parallel()

	list := tastypie.NewListProxy([]any{"a", "b"}, mustService("http://h/api/1/"), newFakeResolver())

	tests := []struct {
		name       string
		start, end int
	}{
		{name: "negative start", start: -1, end: 1},
		{name: "end past length", start: 0, end: 3},
		{name: "inverted", start: 2, end: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := list.Slice(context.Background(), tt.start, tt.end)
			require.ErrorIs(t, err, tastypie.ErrIndexOutOfRange)
		})
	}

	_, err := list.Index(context.Background(), 2)
	require.ErrorIs(t, err, tastypie.ErrIndexOutOfRange)

	empty, err := list.Slice(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListProxy_ValuesList(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/tag/2/"}, mustService("http://h/api/1/"), resolver)

	flat, err := list.ValuesList(context.Background(), true, "label")
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "rest"}, flat)

	tuples, err := list.ValuesList(context.Background(), false, "label")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"go"}, []any{"rest"}}, tuples)

	values, err := list.Values(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"label": "go"}, {"label": "rest"}}, values)

	_, manys, _ := resolver.calls()
	assert.Equal(t, 1, manys)
}

func TestListProxy_SharesResolvedProxies(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	proxy := tastypie.NewResourceProxy(tastypie.ResourceRef{Type: "tag", ID: 1}, "/api/1/tag/1/", resolver)

	_, err := proxy.Resolve(context.Background())
	require.NoError(t, err)

	list := tastypie.NewListProxy([]any{proxy}, mustService("http://h/api/1/"), resolver)

	items, err := list.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/1/tag/1/", items[0].(*tastypie.Resource).URL())

	gets, manys, _ := resolver.calls()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 0, manys)
}

func TestListProxy_ValuesListRejectsFlattenBeforeFetching(t *testing.T) {
	t.Parallel()

	resolver := newTagResolver()
	list := tastypie.NewListProxy([]any{"/api/1/tag/1/", "/api/1/tag/2/"}, mustService("http://h/api/1/"), resolver)

	_, err := list.ValuesList(context.Background(), true, "label", "id")
	require.ErrorIs(t, err, tastypie.ErrFlattenMultipleFields)

	_, err = list.ValuesList(context.Background(), true)
	require.ErrorIs(t, err, tastypie.ErrFlattenMultipleFields)

	gets, manys, windows := resolver.calls()
	assert.Zero(t, gets+manys+windows)
}

func TestListProxy_SliceJoinsInFlightIndex(t *testing.T) {
	t.Parallel()

	inner := newTagResolver()
	resolver := newBlockingResolver(inner)
	list := tastypie.NewListProxy([]any{"/api/1/tag/1/"}, mustService("http://h/api/1/"), resolver)

	var wg sync.WaitGroup

	var indexed any

	wg.Add(1)

	go func() {
		defer wg.Done()

		value, err := list.Index(context.Background(), 0)
		assert.NoError(t, err)

		indexed = value
	}()

	<-resolver.started

	var sliced []any

	wg.Add(1)

	go func() {
		defer wg.Done()

		values, err := list.Slice(context.Background(), 0, 1)
		assert.NoError(t, err)

		sliced = values
	}()

	// Let Slice reach the slot while the Get is still held.
	time.Sleep(50 * time.Millisecond)
	close(resolver.release)
	wg.Wait()

	gets, manys, _ := inner.calls()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 0, manys)

	require.Len(t, sliced, 1)
	assert.Same(t, indexed, sliced[0])
}
