package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
)

// Viper keys. Flags with dashes are bound to these underscore keys so that
// TASTYPIE_API_KEY and friends work as environment overrides.
const (
	keyService     = "service"
	keyUsername    = "username"
	keyAPIKey      = "api_key"
	keyNATSURL     = "nats_url"
	keyNATSSubject = "nats_subject"
	keyOutput      = "output"
	keyVerbose     = "verbose"
	keyNoColor     = "no_color"
	keyRetryMax    = "retry_max"
	keyTimeout     = "timeout"
	keyStats       = "stats"
)

// NewRootCommand builds the tastypie command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tastypie",
		Short: "Tastypie API CLI",
		Long: `A command-line interface for browsing Tastypie-style REST APIs.

Resources are fetched lazily: related resources are only requested when a
command asks to expand them, and lists of related resources are resolved with
one batch request per resource type.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")

			return initConfig(cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.tastypie/config.yml)")
	flags.StringP("service", "s", "", "service entry URL, e.g. http://localhost:8000/api/v1/")
	flags.StringP("username", "u", "", "username for ApiKey authentication")
	flags.String("api-key", "", "API key for ApiKey authentication")
	flags.String("nats-url", "", "route requests through a NATS bridge at this server")
	flags.String("nats-subject", constants.DefaultNATSSubject, "subject the NATS bridge listens on")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("retry-max", constants.DefaultRetryMax, "retries on 5xx, 429 and connection errors")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "HTTP timeout per request")
	flags.Bool("stats", false, "print per-endpoint request statistics to stderr")

	bindings := map[string]string{
		keyService:     "service",
		keyUsername:    "username",
		keyAPIKey:      "api-key",
		keyNATSURL:     "nats-url",
		keyNATSSubject: "nats-subject",
		keyOutput:      "output",
		keyVerbose:     "verbose",
		keyNoColor:     "no-color",
		keyRetryMax:    "retry-max",
		keyTimeout:     "timeout",
		keyStats:       "stats",
	}

	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewEndpointsCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewFindCommand())
	rootCmd.AddCommand(NewManyCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewBridgeCommand())

	return rootCmd
}

func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := defaultConfigDir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TASTYPIE")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and environment still apply.
	if err := viper.ReadInConfig(); err == nil && viper.GetBool(keyVerbose) {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if viper.GetBool(keyNoColor) {
		color.NoColor = true
	}

	return nil
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".tastypie"), nil
}

// configFilePath is the file config set/unset write to.
func configFilePath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.yml"), nil
}
