package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

type findOptions struct {
	filterPairs []string
	fields      []string
	offset      int
	limit       int
	all         bool
	flat        bool
}

type searchPage struct {
	Meta    searchMeta       `json:"meta"    yaml:"meta"`
	Objects []map[string]any `json:"objects" yaml:"objects"`
}

type searchMeta struct {
	TotalCount int `json:"total_count" yaml:"total_count"`
	Offset     int `json:"offset"      yaml:"offset"`
	Count      int `json:"count"       yaml:"count"`
}

// NewFindCommand creates the find command.
func NewFindCommand() *cobra.Command {
	opts := &findOptions{}

	cmd := &cobra.Command{
		Use:     "find TYPE",
		Aliases: []string{"search", "list"},
		Short:   "Search resources of a type",
		Long: `Search resources of a type and show a window of the results.

The search reports its total up front; only the window shown is fetched.
With --all every match is fetched, still with a single request for whatever
the first page did not cover.`,
		Example: `  tastypie find entry --filter user__username=bob
  tastypie find entry --offset 20 --limit 10 --fields title,pub_date
  tastypie find user --all --flat --fields username`,
		Args: cobra.ExactArgs(constants.OneArgumentRequired),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.filterPairs, "filter", "f", nil, "filter as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "fields to show, comma separated")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "index of the first result to show")
	cmd.Flags().IntVar(&opts.limit, "limit", constants.DefaultFindLimit, "number of results to show")
	cmd.Flags().BoolVar(&opts.all, "all", false, "show every match")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "print bare values of the single field named with --fields")

	return cmd
}

func runFind(cmd *cobra.Command, resourceType string, opts *findOptions) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if opts.offset < 0 || opts.limit < 0 {
		return fmt.Errorf("%w: offset %d, limit %d", tastypie.ErrIndexOutOfRange, opts.offset, opts.limit)
	}

	if opts.flat && len(opts.fields) != 1 {
		return fmt.Errorf("%w: got %d", tastypie.ErrFlattenMultipleFields, len(opts.fields))
	}

	filters, err := parseFilters(opts.filterPairs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.close()

	endpoint, err := sess.client.Endpoint(resourceType)
	if err != nil {
		return err
	}

	search, err := endpoint.Find(ctx, filters)
	if err != nil {
		return err
	}

	start, end := 0, search.Len()
	if !opts.all {
		start = min(opts.offset, search.Len())
		end = min(start+opts.limit, search.Len())
	}

	if opts.flat {
		return renderFlat(ctx, cmd.OutOrStdout(), format, search, start, end, opts.fields[0], opts.all)
	}

	resources, err := search.Slice(ctx, start, end)
	if err != nil {
		return err
	}

	page := searchPage{
		Meta:    searchMeta{TotalCount: search.Len(), Offset: start, Count: len(resources)},
		Objects: resourceDocuments(resources),
	}

	return render(cmd.OutOrStdout(), format, page, func(w io.Writer) error {
		err := renderResourceTable(w, idsOf(resources), resources, opts.fields)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "Showing %d of %d %s\n", len(resources), search.Len(), resourceType)

		return nil
	})
}

func renderFlat(ctx context.Context, w io.Writer, format string, search *tastypie.SearchResponse, start, end int, field string, all bool) error {
	var (
		values []any
		err    error
	)

	if all {
		values, err = search.ValuesList(ctx, true, field)
	} else {
		var resources []*tastypie.Resource

		resources, err = search.Slice(ctx, start, end)
		if err == nil {
			values = make([]any, 0, len(resources))

			for _, resource := range resources {
				value, getErr := resource.Get(field)
				if getErr != nil {
					return getErr
				}

				values = append(values, value)
			}
		}
	}

	if err != nil {
		return err
	}

	plainValues := plain(values)

	return render(w, format, plainValues, func(w io.Writer) error {
		for _, value := range values {
			_, _ = fmt.Fprintln(w, cell(value))
		}

		return nil
	})
}
