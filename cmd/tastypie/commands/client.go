package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/internal/logging"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/fivetwenty-io/tastypie-client/pkg/tpclient"
)

// session is a client plus what the CLI tears down after the command.
type session struct {
	client  tastypie.Client
	logger  *logging.ZapLogger
	metrics *tastypie.MetricsCollector
}

// buildClientConfig turns flags, environment and config file into a client
// configuration.
func buildClientConfig(logger tastypie.Logger, metrics *tastypie.MetricsCollector) (*tastypie.Config, error) {
	serviceURL := viper.GetString(keyService)
	if serviceURL == "" {
		return nil, constants.ErrNoServiceConfigured
	}

	verbose := viper.GetBool(keyVerbose)

	config := &tastypie.Config{
		ServiceURL:  serviceURL,
		Username:    viper.GetString(keyUsername),
		APIKey:      viper.GetString(keyAPIKey),
		HTTPTimeout: viper.GetDuration(keyTimeout),
		RetryMax:    viper.GetInt(keyRetryMax),
		Debug:       verbose,
		Logger:      logger,
	}

	if natsURL := viper.GetString(keyNATSURL); natsURL != "" {
		subject := viper.GetString(keyNATSSubject)
		if subject == "" {
			return nil, constants.ErrNATSSubjectMissing
		}

		config.NATS = &tastypie.NATSConfig{URL: natsURL, Subject: subject}
	}

	if verbose {
		config.RequestInterceptors = append(config.RequestInterceptors, tastypie.RequestIDInterceptor())
		config.ResponseInterceptors = append(config.ResponseInterceptors, tastypie.LoggingResponseInterceptor(logger))
	}

	if metrics != nil {
		config.RequestInterceptors = append(config.RequestInterceptors, tastypie.MetricsRequestInterceptor(metrics))
		config.ResponseInterceptors = append(config.ResponseInterceptors, tastypie.MetricsResponseInterceptor(metrics))
	}

	return config, nil
}

func openSession(ctx context.Context) (*session, error) {
	logger, err := logging.NewDevelopment(viper.GetBool(keyVerbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var metrics *tastypie.MetricsCollector
	if viper.GetBool(keyStats) {
		metrics = tastypie.NewMetricsCollector()
	}

	config, err := buildClientConfig(logger, metrics)
	if err != nil {
		return nil, err
	}

	client, err := tpclient.New(ctx, config)
	if err != nil {
		return nil, err
	}

	return &session{client: client, logger: logger, metrics: metrics}, nil
}

// close releases the client and, when asked for, prints request statistics.
func (s *session) close() {
	if s.metrics != nil {
		_ = renderStats(os.Stderr, s.metrics)
	}

	_ = s.client.Close()
	_ = s.logger.Sync()
}

func renderStats(w io.Writer, metrics *tastypie.MetricsCollector) error {
	endpoints := metrics.Endpoints()

	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}

	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header("Endpoint", "Requests", "Errors", "Avg Latency")

	for _, name := range names {
		m := endpoints[name]
		_ = table.Append(name, strconv.FormatInt(m.TotalRequests, 10), strconv.FormatInt(m.TotalErrors, 10), m.AverageLatency.String())
	}

	_ = table.Append("Total", strconv.FormatInt(metrics.TotalRequests(), 10), "", "")

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render stats table: %w", err)
	}

	return nil
}
