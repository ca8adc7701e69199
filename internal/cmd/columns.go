package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/output"
)

var columnsCmd = &cobra.Command{
	Use:   "columns [location]",
	Short: "List columns with their inferred types",
	Long: `List every column of a CSV file with its inferred dtype (int64, float64,
bool or object) and whether any of its cells are missing.

Examples:
  csvpeek columns
  csvpeek columns ./data/sales.csv -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runColumns,
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	report, err := inspectArg(cmd, args, 0)
	if err != nil {
		return err
	}
	if !report.Exists {
		return printMissing(ctx, report)
	}

	if structuredOutputRequested() {
		return printStructured(ctx, report.Columns)
	}

	table := output.Table{Headers: []string{"NAME", "DTYPE", "NULLABLE"}}
	for _, c := range report.Columns {
		table.Rows = append(table.Rows, []string{c.Name, string(c.Type), strconv.FormatBool(c.Nullable)})
	}
	return printStructured(ctx, table)
}
