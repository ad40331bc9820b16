package tastypie

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query parameter names understood by the service besides caller filters.
const (
	ParamOffset = "offset"
	ParamLimit  = "limit"
)

// Filters are caller-supplied query parameters. Keys are passed through
// verbatim and carry their own comparison operator, e.g. "name__startswith".
type Filters map[string]any

// NewFilters creates an empty filter set.
func NewFilters() Filters {
	return Filters{}
}

// With sets a filter and returns the receiver for chaining.
func (f Filters) With(key string, value any) Filters {
	f[key] = value

	return f
}

// Clone returns an independent copy. A nil receiver yields an empty set.
func (f Filters) Clone() Filters {
	cloned := make(Filters, len(f))
	for key, value := range f {
		cloned[key] = value
	}

	return cloned
}

// WithWindow returns a copy of the filters restricted to [offset, offset+limit).
func (f Filters) WithWindow(offset, limit int) Filters {
	return f.Clone().With(ParamOffset, offset).With(ParamLimit, limit)
}

// ToValues converts the filters into URL query values. Slices become repeated
// parameters; everything else is rendered as text.
func (f Filters) ToValues() url.Values {
	values := url.Values{}

	for key, value := range f {
		switch typed := value.(type) {
		case []string:
			for _, item := range typed {
				values.Add(key, item)
			}
		case []int:
			for _, item := range typed {
				values.Add(key, strconv.Itoa(item))
			}
		case []any:
			for _, item := range typed {
				values.Add(key, formatFilterValue(item))
			}
		default:
			values.Add(key, formatFilterValue(typed))
		}
	}

	return values
}

func formatFilterValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
