package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/inspect"
)

var inspectRows int

var inspectCmd = &cobra.Command{
	Use:   "inspect [location]",
	Short: "Check a CSV file and preview its first rows",
	Long: `Check whether a CSV file exists and, when it does, print its columns and
first rows.

The location may be a file, a directory (the default file name is looked up
inside it) or an http(s) URL. Without a location, the default file next to
the csvpeek executable is used.

Examples:
  csvpeek inspect
  csvpeek inspect ./data/sales.csv --rows 10
  csvpeek inspect https://example.com/exports/ -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, firstArg(args))
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectRows, "rows", inspect.DefaultPreviewRows, "Number of rows to preview")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, location string) error {
	loc, err := resolveLocation(location)
	if err != nil {
		return err
	}
	insp, err := newInspector(cmd, previewRows(cmd, inspectRows))
	if err != nil {
		return err
	}
	return writeInspection(cmd.Context(), insp, loc)
}

// writeInspection prints one inspection of loc. Text output keeps the lines
// for completed steps even when loading fails.
func writeInspection(ctx context.Context, insp *inspect.Inspector, loc string) error {
	if !structuredOutputRequested() {
		return insp.Run(ctx, stdoutFromContext(ctx), loc)
	}
	report, err := insp.Inspect(ctx, loc)
	if err != nil {
		return err
	}
	return printStructured(ctx, report.Summary())
}

// inspectArg resolves the optional location argument and inspects it.
func inspectArg(cmd *cobra.Command, args []string, rows int) (*inspect.Report, error) {
	loc, err := resolveLocation(firstArg(args))
	if err != nil {
		return nil, err
	}
	insp, err := newInspector(cmd, rows)
	if err != nil {
		return nil, err
	}
	return insp.Inspect(cmd.Context(), loc)
}

// printMissing reports an absent file the way the inspector does.
func printMissing(ctx context.Context, report *inspect.Report) error {
	if structuredOutputRequested() {
		return printStructured(ctx, report.Summary())
	}
	return inspect.WriteText(stdoutFromContext(ctx), report)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
