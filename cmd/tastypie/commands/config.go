package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
)

// Config represents the CLI configuration file.
type Config struct {
	Service     string `json:"service,omitempty"      yaml:"service,omitempty"`
	Username    string `json:"username,omitempty"     yaml:"username,omitempty"`
	APIKey      string `json:"api_key,omitempty"      yaml:"api_key,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"     yaml:"nats_url,omitempty"`
	NATSSubject string `json:"nats_subject,omitempty" yaml:"nats_subject,omitempty"`
	Output      string `json:"output,omitempty"       yaml:"output,omitempty"`
	NoColor     bool   `json:"no_color,omitempty"     yaml:"no_color,omitempty"`
	RetryMax    int    `json:"retry_max,omitempty"    yaml:"retry_max,omitempty"`
	Timeout     string `json:"timeout,omitempty"      yaml:"timeout,omitempty"`
}

// configSetters parse and store a value for each settable key.
var configSetters = map[string]func(*Config, string) error{
	keyService: func(c *Config, v string) error {
		c.Service = v

		return nil
	},
	keyUsername: func(c *Config, v string) error {
		c.Username = v

		return nil
	},
	keyAPIKey: func(c *Config, v string) error {
		if v == "" {
			return constants.ErrEmptyAPIKey
		}

		c.APIKey = v

		return nil
	},
	keyNATSURL: func(c *Config, v string) error {
		c.NATSURL = v

		return nil
	},
	keyNATSSubject: func(c *Config, v string) error {
		c.NATSSubject = v

		return nil
	},
	keyOutput: func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = v

			return nil
		default:
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, v)
		}
	},
	keyNoColor: func(c *Config, v string) error {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", keyNoColor, err)
		}

		c.NoColor = parsed

		return nil
	},
	keyRetryMax: func(c *Config, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid value for %s: %q", keyRetryMax, v)
		}

		c.RetryMax = parsed

		return nil
	},
	keyTimeout: func(c *Config, v string) error {
		_, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", keyTimeout, err)
		}

		c.Timeout = v

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the tastypie CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetKeyCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration: config file, environment and flags combined",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			config := effectiveConfig()
			if config.APIKey != "" {
				config.APIKey = constants.MaskedSecret
			}

			return render(cmd.OutOrStdout(), format, config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(constants.TwoArgumentsRequired),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := updateConfigFile(func(config *Config) error {
				return setConfigValue(config, args[0], args[1])
			})
			if err != nil {
				return err
			}

			value := args[1]
			if args[0] == keyAPIKey {
				value = constants.MaskedSecret
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", args[0], value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(constants.OneArgumentRequired),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := updateConfigFile(func(config *Config) error {
				return unsetConfigValue(config, args[0])
			})
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", args[0], "")
		},
	}
}

func newConfigSetKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key USERNAME",
		Short: "Store ApiKey credentials",
		Long:  "Store a username and API key. The key is read from the terminal without echo, or from stdin when piped.",
		Args:  cobra.ExactArgs(constants.OneArgumentRequired),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := readAPIKey(cmd)
			if err != nil {
				return err
			}

			err = updateConfigFile(func(config *Config) error {
				config.Username = args[0]

				return setConfigValue(config, keyAPIKey, apiKey)
			})
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", keyAPIKey, constants.MaskedSecret)
		},
	}
}

func readAPIKey(cmd *cobra.Command) (string, error) {
	stdin := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int

	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(stdin) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")

		keyBytes, err := term.ReadPassword(stdin)
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		return strings.TrimSpace(string(keyBytes)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(configKeys(), ", "))
	}

	return setter(config, value)
}

func unsetConfigValue(config *Config, key string) error {
	if _, ok := configSetters[key]; !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(configKeys(), ", "))
	}

	switch key {
	case keyService:
		config.Service = ""
	case keyUsername:
		config.Username = ""
	case keyAPIKey:
		config.APIKey = ""
	case keyNATSURL:
		config.NATSURL = ""
	case keyNATSSubject:
		config.NATSSubject = ""
	case keyOutput:
		config.Output = ""
	case keyNoColor:
		config.NoColor = false
	case keyRetryMax:
		config.RetryMax = 0
	case keyTimeout:
		config.Timeout = ""
	}

	return nil
}

// effectiveConfig reads every setting through viper.
func effectiveConfig() *Config {
	return &Config{
		Service:     viper.GetString(keyService),
		Username:    viper.GetString(keyUsername),
		APIKey:      viper.GetString(keyAPIKey),
		NATSURL:     viper.GetString(keyNATSURL),
		NATSSubject: viper.GetString(keyNATSSubject),
		Output:      viper.GetString(keyOutput),
		NoColor:     viper.GetBool(keyNoColor),
		RetryMax:    viper.GetInt(keyRetryMax),
		Timeout:     viper.GetDuration(keyTimeout).String(),
	}
}

// updateConfigFile applies change to the config file alone, so flags and
// environment overrides are never persisted.
func updateConfigFile(change func(*Config) error) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	config, err := readConfigFile(path)
	if err != nil {
		return err
	}

	err = change(config)
	if err != nil {
		return err
	}

	return writeConfigFile(path, config)
}

func readConfigFile(path string) (*Config, error) {
	config := &Config{}

	// path is the config flag or a file under the user's home directory
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

func writeConfigFile(path string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("Service", formatConfigValue(config.Service))
	_ = table.Append("Username", formatConfigValue(config.Username))
	_ = table.Append("API Key", formatConfigValue(config.APIKey))
	_ = table.Append("NATS URL", formatConfigValue(config.NATSURL))
	_ = table.Append("NATS Subject", formatConfigValue(config.NATSSubject))
	_ = table.Append("Output", formatConfigValue(config.Output))
	_ = table.Append("No Color", strconv.FormatBool(config.NoColor))
	_ = table.Append("Retry Max", strconv.Itoa(config.RetryMax))
	_ = table.Append("Timeout", formatConfigValue(config.Timeout))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return "-"
	}

	return value
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return render(w, format, result, func(w io.Writer) error {
		message := fmt.Sprintf("%s %s", action, key)
		if value != "" {
			message += " = " + value
		}

		_, err := fmt.Fprintln(w, color.GreenString("OK"), message)

		return err
	})
}
