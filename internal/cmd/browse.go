package cmd

import (
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [location]",
	Short: "Scroll through a CSV file in the terminal",
	Long: `Open an interactive, scrollable view of every row.

Keys: ↑/↓ or j/k scroll, ←/→ or h/l pan, g/G jump to the top or bottom,
q or esc quits.

Examples:
  csvpeek browse
  csvpeek browse ./data/sales.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	report, err := inspectArg(cmd, args, 0)
	if err != nil {
		return err
	}
	if !report.Exists {
		return printMissing(ctx, report)
	}
	return runBrowser(ctx, report.Path, report.Table, stdinFromContext(ctx), stdoutFromContext(ctx))
}
