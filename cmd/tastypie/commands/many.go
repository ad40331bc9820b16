package commands

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// NewManyCommand creates the many command.
func NewManyCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "many TYPE ID [ID...]",
		Short: "Get several resources of a type in one request",
		Long: `Get several resources of one type with a single set request.

Ids the service reports as not found are shown as missing; duplicates are
requested once.`,
		Example: `  tastypie many user 1 2 5`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			ids := make([]int, 0, len(args)-1)

			for _, raw := range args[1:] {
				id, err := parseID(raw)
				if err != nil {
					return err
				}

				ids = append(ids, id)
			}

			ctx := cmd.Context()

			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.close()

			fetched, err := sess.client.Many(ctx, args[0], ids, nil)
			if err != nil {
				return err
			}

			resources := make([]*tastypie.Resource, len(ids))
			documents := make(map[string]map[string]any, len(ids))

			for i, id := range ids {
				resources[i] = fetched[id]
				documents[strconv.Itoa(id)] = resourceDocument(fetched[id])
			}

			return render(cmd.OutOrStdout(), format, documents, func(w io.Writer) error {
				return renderResourceTable(w, ids, resources, fields)
			})
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to show, comma separated")

	return cmd
}
