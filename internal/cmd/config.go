package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/config"
	"github.com/salmonumbrella/csvpeek/internal/dataset"
	"github.com/salmonumbrella/csvpeek/internal/logging"
	"github.com/salmonumbrella/csvpeek/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/csvpeek/config.yaml.

You can view, set, or unset config keys such as file_name, preview_rows,
delimiter, output_format, keyring_backend, log_level and seq_url.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, configOutput(cfg))
		}

		out := stdoutFromContext(ctx)
		fmt.Fprintln(out, "Config:")
		for _, key := range supportedConfigKeys() {
			fmt.Fprintf(out, "  %s: %v\n", key, configOutput(cfg)[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, keys)
		}

		out := stdoutFromContext(ctx)
		fmt.Fprintln(out, "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, map[string]string{"path": path})
		}
		_, err = fmt.Fprintln(stdoutFromContext(ctx), path)
		return err
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"file_name",
		"preview_rows",
		"delimiter",
		"output_format",
		"keyring_backend",
		"log_level",
		"seq_url",
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "file_name":
		cfg.FileName = value
	case "preview_rows":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid preview_rows %q (expected a non-negative integer)", value)
		}
		cfg.PreviewRows = n
	case "delimiter":
		if _, err := dataset.ParseDelimiter(value); err != nil {
			return err
		}
		cfg.Delimiter = value
	case "output_format":
		format, err := output.ParseFormat(value)
		if err != nil {
			return err
		}
		cfg.OutputFormat = string(format)
	case "keyring_backend":
		switch strings.ToLower(value) {
		case "auto", "keychain", "file":
			cfg.KeyringBackend = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid keyring_backend %q (expected auto|keychain|file)", value)
		}
	case "log_level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(value)
	case "seq_url":
		cfg.SeqURL = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "file_name":
		cfg.FileName = ""
	case "preview_rows":
		cfg.PreviewRows = 0
	case "delimiter":
		cfg.Delimiter = ""
	case "output_format":
		cfg.OutputFormat = ""
	case "keyring_backend":
		cfg.KeyringBackend = ""
	case "log_level":
		cfg.LogLevel = ""
	case "seq_url":
		cfg.SeqURL = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		return printStructured(ctx, map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	fmt.Fprintf(stdoutFromContext(ctx), "Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		return printStructured(ctx, map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	fmt.Fprintf(stdoutFromContext(ctx), "Unset %s\n", key)
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"file_name":       cfg.FileName,
		"preview_rows":    cfg.PreviewRows,
		"delimiter":       cfg.Delimiter,
		"output_format":   cfg.OutputFormat,
		"keyring_backend": cfg.KeyringBackend,
		"log_level":       cfg.LogLevel,
		"seq_url":         cfg.SeqURL,
	}
}
