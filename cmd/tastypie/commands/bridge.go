package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/tastypie-client/internal/http"
	"github.com/fivetwenty-io/tastypie-client/internal/logging"
	"github.com/fivetwenty-io/tastypie-client/internal/natstransport"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// NewBridgeCommand creates the bridge command.
func NewBridgeCommand() *cobra.Command {
	var queue string

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve the configured service over NATS",
		Long: `Answer NATS requests on --nats-subject by performing them over HTTP against
the configured service. Other tastypie commands, or any client built with a
NATS configuration, can then reach the service through NATS alone.

Only URLs under the service URL are forwarded. Run several bridges with the
same --queue to share the load.`,
		Example: `  tastypie bridge --service http://localhost:8000/api/v1/ --nats-url nats://127.0.0.1:4222`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := viper.GetString(keyService)
			if rawURL == "" {
				return constants.ErrNoServiceConfigured
			}

			natsURL := viper.GetString(keyNATSURL)
			if natsURL == "" {
				return constants.ErrNoNATSURL
			}

			service, err := tastypie.NewService(rawURL)
			if err != nil {
				return err
			}

			logger, err := logging.NewDevelopment(viper.GetBool(keyVerbose))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			defer func() { _ = logger.Sync() }()

			conn, err := nats.Connect(natsURL, nats.Name("tastypie-bridge"))
			if err != nil {
				return fmt.Errorf("connecting to NATS at %s: %w", natsURL, err)
			}
			defer conn.Close()

			transport := internalhttp.NewClient(
				internalhttp.WithLogger(logger),
				internalhttp.WithDebug(viper.GetBool(keyVerbose)),
				internalhttp.WithTimeout(viper.GetDuration(keyTimeout)),
				internalhttp.WithRetryConfig(viper.GetInt(keyRetryMax), constants.DefaultRetryWaitMin, constants.DefaultRetryWaitMax),
			)

			bridge := natstransport.NewBridge(conn, viper.GetString(keyNATSSubject), service.URL, transport,
				natstransport.WithQueue(queue),
				natstransport.WithBridgeLogger(logger),
				natstransport.WithBridgeTimeout(viper.GetDuration(keyTimeout)),
			)

			err = bridge.Start()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Bridging %s on %s, press Ctrl+C to stop\n", service.URL, viper.GetString(keyNATSSubject))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			return bridge.Stop()
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "queue group shared by bridges serving the same subject")

	return cmd
}
