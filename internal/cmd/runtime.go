package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/config"
	"github.com/salmonumbrella/csvpeek/internal/dataset"
	"github.com/salmonumbrella/csvpeek/internal/inspect"
	"github.com/salmonumbrella/csvpeek/internal/secrets"
	"github.com/salmonumbrella/csvpeek/internal/source"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}

// resolveLocation maps a command argument to the location to inspect. The
// file name comes from config file_name, else the built-in default.
func resolveLocation(location string) (string, error) {
	return inspect.Resolve(strings.TrimSpace(location), strings.TrimSpace(activeConfig.FileName), executablePath)
}

// previewRows resolves the preview size: --rows > config preview_rows > 5.
func previewRows(cmd *cobra.Command, flagValue int) int {
	if flagChanged(cmd, "rows") {
		return max(flagValue, 0)
	}
	if activeConfig.PreviewRows > 0 {
		return activeConfig.PreviewRows
	}
	return inspect.DefaultPreviewRows
}

// loadOptions resolves the delimiter: --delimiter > config delimiter > comma.
func loadOptions(cmd *cobra.Command) ([]dataset.Option, error) {
	value := activeConfig.Delimiter
	if flagChanged(cmd, "delimiter") {
		value = delimiterFlag
	}
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	delim, err := dataset.ParseDelimiter(value)
	if err != nil {
		return nil, err
	}
	return []dataset.Option{dataset.WithDelimiter(delim)}, nil
}

func newInspector(cmd *cobra.Command, rows int) (*inspect.Inspector, error) {
	loadOpts, err := loadOptions(cmd)
	if err != nil {
		return nil, err
	}
	remote := source.NewHTTP(source.WithTokenFunc(tokenForHost))
	return inspect.New(
		inspect.WithOpener(source.NewRouter(remote)),
		inspect.WithPreviewRows(rows),
		inspect.WithLoadOptions(loadOpts...),
		inspect.WithLogger(logger),
	), nil
}

// tokenForHost resolves the bearer token for a remote source: CSVPEEK_TOKEN,
// else the keyring entry for host. No token means anonymous access.
func tokenForHost(_ context.Context, host string) (string, error) {
	if v := strings.TrimSpace(envGet("CSVPEEK_TOKEN")); v != "" {
		return v, nil
	}
	store, err := openSecretsStore()
	if err != nil {
		logger.Warn("credential store unavailable; continuing without a token", "host", host, "err", err)
		return "", nil
	}
	tok, err := store.GetToken(host)
	if errors.Is(err, secrets.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token for %s: %w", host, err)
	}
	return tok.Value, nil
}
