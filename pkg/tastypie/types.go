package tastypie

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ResourceRef identifies a remote resource whether or not it has been fetched.
type ResourceRef struct {
	Type string
	ID   int
}

// String returns the ref as "type/id".
func (r ResourceRef) String() string {
	return r.Type + "/" + strconv.Itoa(r.ID)
}

// Resource is a read-only view over one fetched resource.
//
// Field values are scalars (as produced by the Serializer), *ResourceProxy for
// related resource URLs or *ListProxy for list fields. A Resource is never
// mutated after the client built it.
type Resource struct {
	ref    ResourceRef
	url    string
	fields map[string]any
}

// NewResource wraps an already classified field mapping. The mapping is
// copied so later changes by the caller cannot leak in.
func NewResource(ref ResourceRef, url string, fields map[string]any) *Resource {
	copied := make(map[string]any, len(fields))
	for name, value := range fields {
		copied[name] = value
	}

	return &Resource{ref: ref, url: url, fields: copied}
}

// Ref returns the resource's identity.
func (r *Resource) Ref() ResourceRef {
	return r.ref
}

// Type returns the resource type.
func (r *Resource) Type() string {
	return r.ref.Type
}

// ID returns the resource id.
func (r *Resource) ID() int {
	return r.ref.ID
}

// URL returns the resource's own URL as sent by the server.
func (r *Resource) URL() string {
	return r.url
}

// Get returns the value of a field.
func (r *Resource) Get(name string) (any, error) {
	value, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrFieldNotFound, name, r.ref)
	}

	return value, nil
}

// Has reports whether the resource carries the field.
func (r *Resource) Has(name string) bool {
	_, ok := r.fields[name]

	return ok
}

// Fields returns the field names in lexical order.
func (r *Resource) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Values returns a copy of the field mapping.
func (r *Resource) Values() map[string]any {
	values := make(map[string]any, len(r.fields))
	for name, value := range r.fields {
		values[name] = value
	}

	return values
}

// String implements fmt.Stringer.
func (r *Resource) String() string {
	parts := make([]string, 0, len(r.fields))
	for _, name := range r.Fields() {
		parts = append(parts, fmt.Sprintf("%s:%v", name, r.fields[name]))
	}

	return fmt.Sprintf("<Resource %s: {%s}>", r.url, strings.Join(parts, " "))
}

// AsInt converts a decoded scalar into an int. Serializers disagree on how
// they surface numbers (float64, int, json.Number, numeric strings).
func AsInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case uint64:
		return int(typed), nil
	case float64:
		if typed != float64(int(typed)) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrMalformedPayload, typed)
		}

		return int(typed), nil
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}

		return int(parsed), nil
	case string:
		parsed, err := strconv.Atoi(typed)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}

		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrMalformedPayload, value)
	}
}
