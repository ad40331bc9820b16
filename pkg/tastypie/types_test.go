package tastypie_test

import (
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_Accessors(t *testing.T) {
	t.Parallel()

	fields := map[string]any{"title": "hello", "body": "world", "id": 42.0}
	resource := tastypie.NewResource(tastypie.ResourceRef{Type: "entry", ID: 42}, "/api/1/entry/42/", fields)

	// The resource keeps its own copy.
	fields["title"] = "changed"

	title, err := resource.Get("title")
	require.NoError(t, err)
	assert.Equal(t, "hello", title)

	_, err = resource.Get("missing")
	require.ErrorIs(t, err, tastypie.ErrFieldNotFound)

	assert.True(t, resource.Has("body"))
	assert.False(t, resource.Has("missing"))
	assert.Equal(t, []string{"body", "id", "title"}, resource.Fields())
	assert.Equal(t, "entry", resource.Type())
	assert.Equal(t, 42, resource.ID())
	assert.Equal(t, "entry/42", resource.Ref().String())
	assert.Equal(t, "<Resource /api/1/entry/42/: {body:world id:42 title:hello}>", resource.String())

	values := resource.Values()
	values["title"] = "mutated"

	title, err = resource.Get("title")
	require.NoError(t, err)
	assert.Equal(t, "hello", title)
}

func TestAsInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected int
		wantErr  bool
	}{
		{name: "int", value: 3, expected: 3},
		{name: "int64", value: int64(4), expected: 4},
		{name: "float64", value: 5.0, expected: 5},
		{name: "fractional float", value: 5.5, wantErr: true},
		{name: "json number", value: json.Number("6"), expected: 6},
		{name: "numeric string", value: "7", expected: 7},
		{name: "text", value: "seven", wantErr: true},
		{name: "nil", value: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tastypie.AsInt(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, tastypie.ErrMalformedPayload)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
