package tastypie

import "fmt"

// valuesOf returns the plain field mapping of every resource. A nil resource
// (reported missing by the service) yields a nil mapping.
func valuesOf(resources []*Resource) []map[string]any {
	values := make([]map[string]any, len(resources))
	for i, resource := range resources {
		if resource != nil {
			values[i] = resource.Values()
		}
	}

	return values
}

// valuesListOf projects fields out of every resource. Each element is a
// []any tuple, or the bare value when flat is set; flat needs exactly one
// field.
func valuesListOf(resources []*Resource, flat bool, fields []string) ([]any, error) {
	if err := checkFlatten(flat, fields); err != nil {
		return nil, err
	}

	projected := make([]any, 0, len(resources))

	for i, resource := range resources {
		if resource == nil {
			return nil, fmt.Errorf("%w: position %d is missing", ErrNotAResource, i)
		}

		if flat {
			value, err := resource.Get(fields[0])
			if err != nil {
				return nil, err
			}

			projected = append(projected, value)

			continue
		}

		tuple := make([]any, len(fields))
		for j, field := range fields {
			value, err := resource.Get(field)
			if err != nil {
				return nil, err
			}

			tuple[j] = value
		}

		projected = append(projected, tuple)
	}

	return projected, nil
}

// checkFlatten rejects flat with anything but one field, before any fetch.
func checkFlatten(flat bool, fields []string) error {
	if flat && len(fields) != 1 {
		return fmt.Errorf("%w: got %d", ErrFlattenMultipleFields, len(fields))
	}

	return nil
}
