package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/csvpeek/internal/config"
	"github.com/salmonumbrella/csvpeek/internal/logging"
	"github.com/salmonumbrella/csvpeek/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(versionTemplate())
}

// Global flags
var (
	outputFmt     string
	outputType    output.Format
	debug         bool
	configFile    string
	queryExpr     string
	queryFile     string
	errorFmt      string
	quietFlag     bool
	delimiterFlag string
)

var (
	// activeConfig is the configuration loaded for the running command.
	activeConfig = &config.Config{}
	logger       = slog.Default()
	closeLogger  = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "csvpeek",
	Short: "Check a CSV file and preview its columns and first rows",
	Long: `csvpeek checks whether a CSV file exists and, when it does, prints its
column names and its first five rows.

Run without arguments it looks for dairy_dataset.csv next to the csvpeek
executable. Subcommands inspect any path, directory or http(s) URL.

Environment Variables:
  CSVPEEK_TOKEN             Bearer token for remote sources
  CSVPEEK_KEYRING_BACKEND   Keyring backend (auto|keychain|file)
  CSVPEEK_KEYRING_PASSWORD  Password for the file keyring backend
  CSVPEEK_SEQ_URL           Ship logs to a Seq server`,
	Version: version,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		cfg := &config.Config{}
		var ignoredConfigErr error
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			switch {
			case err == nil:
				cfg = loadedCfg
			case !cmd.HasParent() && !flagChanged(cmd, "config"):
				// The bare inspection never depends on settings, so a broken
				// default config file must not stop it.
				ignoredConfigErr = err
			default:
				return formatConfigLoadError(err)
			}
		}
		activeConfig = cfg

		// Output format selection: --output > config > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readQuery(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		if err := setupLogging(cmd, cfg); err != nil {
			return err
		}
		if ignoredConfigErr != nil {
			logger.Warn("ignoring unreadable config", "err", ignoredConfigErr)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = withErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)
		cmd.Root().SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		// Flags and arguments are valid from here on; later failures are about
		// the data, not usage.
		cmd.SilenceUsage = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, "")
	},
}

// setupLogging replaces the process logger. Level: --debug > config > warn.
// Seq URL: CSVPEEK_SEQ_URL > config.
func setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if debug {
		level = slog.LevelDebug
	}
	seqURL := strings.TrimSpace(envGet("CSVPEEK_SEQ_URL"))
	if seqURL == "" {
		seqURL = strings.TrimSpace(cfg.SeqURL)
	}

	closeLogger()
	logger, closeLogger = logging.Setup(logging.Options{
		Level:  level,
		Writer: cmd.ErrOrStderr(),
		SeqURL: seqURL,
	})
	logger.Debug("logging configured", "level", level.String(), "seq", seqURL != "")
	return nil
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands such as watch
// and browse stop on.
func ExecuteContext(ctx context.Context) error {
	defer func() { closeLogger() }()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printCommandError(rootCmd.Context(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func versionTemplate() string {
	return fmt.Sprintf("csvpeek version %s (commit: %s, built: %s)\n", version, commit, date)
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate())

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/csvpeek/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&delimiterFlag, "delimiter", "", "Field delimiter (default: comma; use tab or \\t for tabs)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
