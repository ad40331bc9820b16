package commands

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type endpointInfo struct {
	Name         string `json:"name"          yaml:"name"`
	ListEndpoint string `json:"list_endpoint" yaml:"list_endpoint"`
	Schema       string `json:"schema"        yaml:"schema"`
}

// NewEndpointsCommand creates the endpoints command.
func NewEndpointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "endpoints",
		Aliases: []string{"types"},
		Short:   "List the resource types the service announces",
		Long:    "Fetch the entry endpoint and list every resource type with its list and schema URLs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			sess, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			infos := make([]endpointInfo, 0, len(sess.client.Endpoints()))

			for _, name := range sess.client.Endpoints() {
				endpoint, err := sess.client.Endpoint(name)
				if err != nil {
					return err
				}

				infos = append(infos, endpointInfo{
					Name:         endpoint.Name,
					ListEndpoint: endpoint.ListEndpoint,
					Schema:       endpoint.SchemaURL,
				})
			}

			return render(cmd.OutOrStdout(), format, infos, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Name", "List Endpoint", "Schema")

				for _, info := range infos {
					_ = table.Append(info.Name, info.ListEndpoint, info.Schema)
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}
}
