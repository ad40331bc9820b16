package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		filterPairs []string
		expand      []string
	)

	cmd := &cobra.Command{
		Use:   "get TYPE [ID]",
		Short: "Get a single resource",
		Long: `Get a resource by id, or the only resource matching --filter.

Related resources are shown as URLs unless named with --expand, in which case
they are fetched: a single relation with one request, a list of relations with
one batch request per resource type.`,
		Example: `  tastypie get entry 42
  tastypie get user --filter username=bob
  tastypie get entry 42 --expand user --expand tags`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			filters, err := parseFilters(filterPairs)
			if err != nil {
				return err
			}

			var id *int

			if len(args) == 2 {
				parsed, err := parseID(args[1])
				if err != nil {
					return err
				}

				id = &parsed
			}

			ctx := cmd.Context()

			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.close()

			resource, err := sess.client.Call(ctx, args[0], id, filters)
			if err != nil {
				return err
			}

			expanded, err := expandFields(ctx, resource, expand)
			if err != nil {
				return err
			}

			document := resourceDocument(resource)
			for _, name := range expand {
				document[name] = plain(expanded[name])
			}

			return render(cmd.OutOrStdout(), format, document, func(w io.Writer) error {
				return renderExpanded(w, resource, expand, expanded)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&filterPairs, "filter", "f", nil, "filter as key=value, e.g. username__startswith=b (repeatable)")
	cmd.Flags().StringArrayVarP(&expand, "expand", "e", nil, "related field to fetch and show in full (repeatable)")

	return cmd
}

// expandFields resolves the named related fields. A single relation becomes a
// *tastypie.Resource, a list field a []any of resolved elements.
func expandFields(ctx context.Context, resource *tastypie.Resource, names []string) (map[string]any, error) {
	expanded := make(map[string]any, len(names))

	for _, name := range names {
		value, err := resource.Get(name)
		if err != nil {
			return nil, err
		}

		switch typed := value.(type) {
		case *tastypie.ResourceProxy:
			related, err := typed.Resolve(ctx)
			if err != nil {
				return nil, err
			}

			expanded[name] = related
		case *tastypie.ListProxy:
			items, err := typed.All(ctx)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", name, err)
			}

			expanded[name] = items
		default:
			expanded[name] = value
		}
	}

	return expanded, nil
}

func renderExpanded(w io.Writer, resource *tastypie.Resource, names []string, expanded map[string]any) error {
	err := renderPropertyTable(w, resource)
	if err != nil {
		return err
	}

	for _, name := range names {
		_, _ = fmt.Fprintf(w, "\n%s:\n", name)

		switch typed := expanded[name].(type) {
		case *tastypie.Resource:
			err = renderPropertyTable(w, typed)
		case []any:
			resources := make([]*tastypie.Resource, 0, len(typed))
			scalars := make([]any, 0)

			for _, item := range typed {
				if related, ok := item.(*tastypie.Resource); ok {
					resources = append(resources, related)
				} else if item != nil {
					scalars = append(scalars, item)
				}
			}

			err = renderResourceTable(w, idsOf(resources), resources, nil)
			if err == nil && len(scalars) > 0 {
				_, _ = fmt.Fprintf(w, "other values: %s\n", cell(scalars))
			}
		default:
			_, _ = fmt.Fprintln(w, cell(typed))
		}

		if err != nil {
			return err
		}
	}

	return nil
}
