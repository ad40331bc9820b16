package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "schema TYPE",
		Short:   "Show the schema of a resource type",
		Long:    "Fetch the schema document of a resource type. The table format lists its fields.",
		Example: `  tastypie schema entry -o json`,
		Args:    cobra.ExactArgs(constants.OneArgumentRequired),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.close()

			schema, err := sess.client.Schema(ctx, args[0])
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), format, schema, func(w io.Writer) error {
				return renderSchemaTable(w, schema)
			})
		},
	}
}

// renderSchemaTable lists the "fields" mapping of a schema document.
func renderSchemaTable(w io.Writer, schema map[string]any) error {
	fields, _ := schema["fields"].(map[string]any)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header("Field", "Type", "Nullable", "Readonly", "Help")

	for _, name := range names {
		field, _ := fields[name].(map[string]any)
		_ = table.Append(name, cell(field["type"]), cell(field["nullable"]), cell(field["readonly"]), cell(field["help_text"]))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
