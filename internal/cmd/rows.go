package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/output"
	"github.com/salmonumbrella/csvpeek/internal/preview"
)

var (
	rowsPage  int
	rowsLimit int
)

// rowsPageOutput is the structured form of one page of rows.
type rowsPageOutput struct {
	Page    int             `json:"page" yaml:"page"`
	Pages   int             `json:"pages" yaml:"pages"`
	Limit   int             `json:"limit" yaml:"limit"`
	Total   int             `json:"total" yaml:"total"`
	Columns []string        `json:"columns" yaml:"columns"`
	Rows    [][]interface{} `json:"rows" yaml:"rows"`
}

var rowsCmd = &cobra.Command{
	Use:   "rows [location]",
	Short: "Page through the rows of a CSV file",
	Long: `Print one page of rows, keeping each row's original index.

Examples:
  csvpeek rows --limit 50
  csvpeek rows ./data/sales.csv --page 3 --limit 20
  csvpeek rows -o ndjson --limit 0   # every row, one JSON array per line`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRows,
}

func init() {
	rowsCmd.Flags().IntVar(&rowsPage, "page", 1, "Page number (starting at 1)")
	rowsCmd.Flags().IntVar(&rowsLimit, "limit", 20, "Rows per page (0 = all rows)")
	rootCmd.AddCommand(rowsCmd)
}

func runRows(cmd *cobra.Command, args []string) error {
	if rowsLimit < 0 {
		return fmt.Errorf("--limit must be 0 or greater")
	}

	ctx := cmd.Context()
	report, err := inspectArg(cmd, args, 0)
	if err != nil {
		return err
	}
	if !report.Exists {
		return printMissing(ctx, report)
	}

	total := report.Table.Len()
	start, end, page := pageBounds(total, rowsPage, rowsLimit)
	slice := report.Table.Slice(start, end-start)

	if structuredOutputRequested() {
		if GetOutputFormat() == output.FormatNDJSON {
			return printStructured(ctx, slice.Records())
		}
		return printStructured(ctx, rowsPageOutput{
			Page:    page,
			Pages:   pageCount(total, rowsLimit),
			Limit:   rowsLimit,
			Total:   total,
			Columns: slice.ColumnNames(),
			Rows:    slice.Records(),
		})
	}

	if _, err := fmt.Fprintln(stdoutFromContext(ctx), preview.Frame(slice)); err != nil {
		return err
	}
	if slice.Len() > 0 {
		notice(ctx, "Rows %d-%d of %d (page %d of %d)\n", start, end-1, total, page, pageCount(total, rowsLimit))
	} else {
		notice(ctx, "No rows on page %d (%d rows, %d pages)\n", page, total, pageCount(total, rowsLimit))
	}
	return nil
}
