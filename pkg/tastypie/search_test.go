package tastypie_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntryResolver(total int) *fakeResolver {
	resolver := newFakeResolver()

	for i := 0; i < total; i++ {
		resolver.results = append(resolver.results, tastypie.NewResource(
			tastypie.ResourceRef{Type: "entry", ID: i + 100},
			fmt.Sprintf("/api/1/entry/%d/", i+100),
			map[string]any{"title": fmt.Sprintf("entry %d", i), "position": i},
		))
	}

	return resolver
}

func TestSearchResponse_IndexFetchesSingleItems(t *testing.T) {
	t.Parallel()

	resolver := newEntryResolver(3)
	search := tastypie.NewSearchResponse(resolver, "entry", tastypie.NewFilters().With("user", "bob"), 3, nil)
	ctx := context.Background()

	assert.Equal(t, 3, search.Len())

	for _, i := range []int{0, 2, 1} {
		resource, err := search.Index(ctx, i)
		require.NoError(t, err)
		assert.Equal(t, 100+i, resource.ID())
	}

	resolver.mu.Lock()
	assert.Equal(t, []windowCall{{0, 1}, {2, 1}, {1, 1}}, resolver.windows)
	resolver.mu.Unlock()

	all, err := search.Slice(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i, resource := range all {
		assert.Equal(t, 100+i, resource.ID())
	}

	again, err := search.Index(ctx, 2)
	require.NoError(t, err)
	assert.Same(t, all[2], again)

	_, _, windows := resolver.calls()
	assert.Equal(t, 3, windows)
}

func TestSearchResponse_SliceCoversMissingRange(t *testing.T) {
	t.Parallel()

	resolver := newEntryResolver(10)
	search := tastypie.NewSearchResponse(resolver, "entry", nil, 10, nil)
	ctx := context.Background()

	_, err := search.Index(ctx, 2)
	require.NoError(t, err)

	_, err = search.Index(ctx, 6)
	require.NoError(t, err)

	// 2 and 6 are cached; missing are 1, 3, 4, 5, 7 so one request covers [1, 8).
	items, err := search.Slice(ctx, 1, 8)
	require.NoError(t, err)
	require.Len(t, items, 7)

	for k, resource := range items {
		assert.Equal(t, 101+k, resource.ID())
	}

	resolver.mu.Lock()
	assert.Equal(t, windowCall{Offset: 1, Limit: 7}, resolver.windows[len(resolver.windows)-1])
	resolver.mu.Unlock()

	// Trimmed to the missing indexes at the edges.
	_, err = search.Slice(ctx, 0, 9)
	require.NoError(t, err)

	resolver.mu.Lock()
	assert.Equal(t, windowCall{Offset: 0, Limit: 9}, resolver.windows[len(resolver.windows)-1])
	resolver.mu.Unlock()

	_, err = search.Slice(ctx, 3, 9)
	require.NoError(t, err)

	_, _, windows := resolver.calls()
	assert.Equal(t, 4, windows)
	assert.Equal(t, 9, search.CachedCount())
}

func TestSearchResponse_FirstPageIsCached(t *testing.T) {
	t.Parallel()

	resolver := newEntryResolver(5)
	search := tastypie.NewSearchResponse(resolver, "entry", nil, 5, resolver.results[:2])

	assert.True(t, search.Cached(0))
	assert.True(t, search.Cached(1))
	assert.False(t, search.Cached(2))

	items, err := search.Slice(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, _, windows := resolver.calls()
	assert.Zero(t, windows)

	values, err := search.Values(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, "entry 4", values[4]["title"])

	resolver.mu.Lock()
	assert.Equal(t, []windowCall{{Offset: 2, Limit: 3}}, resolver.windows)
	resolver.mu.Unlock()
}

func TestSearchResponse_OutOfRange(t *testing.T) {
	t.Parallel()

	search := tastypie.NewSearchResponse(newEntryResolver(3), "entry", nil, 3, nil)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "index at total", call: func() error {
			_, err := search.Index(context.Background(), 3)
			return err
		}},
		{name: "negative index", call: func() error {
			_, err := search.Index(context.Background(), -1)
			return err
		}},
		{name: "slice past total", call: func() error {
			_, err := search.Slice(context.Background(), 1, 4)
			return err
		}},
		{name: "inverted slice", call: func() error {
			_, err := search.Slice(context.Background(), 2, 1)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.call(), tastypie.ErrIndexOutOfRange)
		})
	}
}

func TestSearchResponse_IncompleteWindow(t *testing.T) {
	t.Parallel()

	// The service claims 5 matches but only serves 3.
	resolver := newEntryResolver(3)
	search := tastypie.NewSearchResponse(resolver, "entry", nil, 5, nil)

	_, err := search.Index(context.Background(), 4)
	require.ErrorIs(t, err, tastypie.ErrIncompleteWindow)
	assert.False(t, search.Cached(4))
}

func TestSearchResponse_ValuesList(t *testing.T) {
	t.Parallel()

	resolver := newEntryResolver(3)
	search := tastypie.NewSearchResponse(resolver, "entry", nil, 3, nil)
	ctx := context.Background()

	_, err := search.ValuesList(ctx, true, "title", "position")
	require.ErrorIs(t, err, tastypie.ErrFlattenMultipleFields)

	_, _, windows := resolver.calls()
	assert.Zero(t, windows)

	titles, err := search.ValuesList(ctx, true, "title")
	require.NoError(t, err)
	assert.Equal(t, []any{"entry 0", "entry 1", "entry 2"}, titles)

	tuples, err := search.ValuesList(ctx, false, "title", "position")
	require.NoError(t, err)
	assert.Equal(t, []any{"entry 1", 1}, tuples[1])

	_, err = search.ValuesList(ctx, false, "missing")
	require.ErrorIs(t, err, tastypie.ErrFieldNotFound)

	_, _, windows = resolver.calls()
	assert.Equal(t, 1, windows)
}

func TestSearchResponse_String(t *testing.T) {
	t.Parallel()

	resolver := newEntryResolver(4)
	search := tastypie.NewSearchResponse(resolver, "entry", nil, 4, resolver.results[:1])

	assert.Equal(t, "<SearchResponse entry (1/4)>", search.String())
	assert.Equal(t, "entry", search.Type())
	assert.Empty(t, search.Filters())
}
