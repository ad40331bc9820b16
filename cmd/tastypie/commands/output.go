package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// outputFormat returns the requested format, rejecting unknown ones before
// any request is made.
func outputFormat() (string, error) {
	format := viper.GetString(keyOutput)

	switch format {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// render writes data as JSON or YAML, or calls table for the table format.
func render(w io.Writer, format string, data any, table func(io.Writer) error) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	default:
		return table(w)
	}
}

// plain converts decoded values back into what the service sent: proxies
// become their URLs again. Nothing is fetched.
func plain(value any) any {
	switch typed := value.(type) {
	case *tastypie.Resource:
		return resourceDocument(typed)
	case *tastypie.ResourceProxy:
		if resource, ok := typed.Resolved(); ok {
			return resourceDocument(resource)
		}

		return typed.URL()
	case *tastypie.ListProxy:
		return plain(typed.Raw())
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = plain(item)
		}

		return items
	case map[string]any:
		mapping := make(map[string]any, len(typed))
		for key, item := range typed {
			mapping[key] = plain(item)
		}

		return mapping
	default:
		return value
	}
}

// resourceDocument renders a resource with its self URL, as the service does.
func resourceDocument(resource *tastypie.Resource) map[string]any {
	if resource == nil {
		return nil
	}

	document := make(map[string]any, len(resource.Fields())+1)
	for name, value := range resource.Values() {
		document[name] = plain(value)
	}

	document[constants.FieldResourceURI] = resource.URL()

	return document
}

func resourceDocuments(resources []*tastypie.Resource) []map[string]any {
	documents := make([]map[string]any, len(resources))
	for i, resource := range resources {
		documents[i] = resourceDocument(resource)
	}

	return documents
}

// cell formats a value for a table cell.
func cell(value any) string {
	var text string

	switch typed := plain(value).(type) {
	case nil:
		return constants.NotAvailable
	case string:
		text = typed
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = cell(item)
		}

		text = strings.Join(parts, ", ")
	case map[string]any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			text = fmt.Sprint(typed)
		} else {
			text = string(encoded)
		}
	default:
		text = fmt.Sprint(typed)
	}

	if len(text) > constants.StringTruncationLength {
		text = text[:constants.StringTruncationLength-3] + "..."
	}

	return text
}

// columns picks the table columns: the requested fields, or every field of
// every resource in lexical order.
func columns(resources []*tastypie.Resource, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}

	seen := make(map[string]bool)

	for _, resource := range resources {
		if resource == nil {
			continue
		}

		for _, name := range resource.Fields() {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// renderResourceTable writes one row per resource. ids label the rows; a nil
// resource is one the service reported as missing.
func renderResourceTable(w io.Writer, ids []int, resources []*tastypie.Resource, fields []string) error {
	names := columns(resources, fields)

	header := make([]any, 0, len(names)+1)
	header = append(header, "ID")

	for _, name := range names {
		header = append(header, name)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for i, resource := range resources {
		row := make([]any, 0, len(names)+1)
		row = append(row, strconv.Itoa(ids[i]))

		for _, name := range names {
			if resource == nil || !resource.Has(name) {
				row = append(row, constants.NotAvailable)

				continue
			}

			value, _ := resource.Get(name)
			row = append(row, cell(value))
		}

		err := table.Append(row...)
		if err != nil {
			return fmt.Errorf("failed to append row to table: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderPropertyTable writes one resource as Property/Value rows.
func renderPropertyTable(w io.Writer, resource *tastypie.Resource) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("resource_uri", resource.URL())

	for _, name := range resource.Fields() {
		value, _ := resource.Get(name)
		_ = table.Append(name, cell(value))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func idsOf(resources []*tastypie.Resource) []int {
	ids := make([]int, len(resources))
	for i, resource := range resources {
		if resource != nil {
			ids[i] = resource.ID()
		}
	}

	return ids
}

// parseFilters reads key=value pairs into filters.
func parseFilters(pairs []string) (tastypie.Filters, error) {
	filters := tastypie.NewFilters()

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected key=value", constants.ErrInvalidFilter, pair)
		}

		// A repeated key becomes a repeated query parameter.
		switch existing := filters[key].(type) {
		case nil:
			filters = filters.With(key, value)
		case string:
			filters = filters.With(key, []string{existing, value})
		case []string:
			filters = filters.With(key, append(existing, value))
		}
	}

	return filters, nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidID, raw)
	}

	return id, nil
}
