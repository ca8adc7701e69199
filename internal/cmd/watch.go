package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/inspect"
	"github.com/salmonumbrella/csvpeek/internal/source"
	"github.com/salmonumbrella/csvpeek/internal/watch"
)

var (
	watchRows     int
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [location]",
	Short: "Re-inspect a CSV file every time it changes",
	Long: `Inspect a local CSV file, then inspect it again after every change until
interrupted. Bursts of writes are coalesced by --debounce.

Failed inspections are reported on stderr and watching continues, so a file
that is being rewritten or is briefly missing does not stop the command.

Examples:
  csvpeek watch
  csvpeek watch ./data/sales.csv --debounce 1s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchRows, "rows", inspect.DefaultPreviewRows, "Number of rows to preview")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before re-inspecting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	loc, err := resolveLocation(firstArg(args))
	if err != nil {
		return err
	}
	if source.IsRemote(loc) {
		return fmt.Errorf("watch supports local files only, got %s", loc)
	}
	insp, err := newInspector(cmd, previewRows(cmd, watchRows))
	if err != nil {
		return err
	}

	w, err := watch.New(ctx, loc)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	if err := w.Start(watchDebounce); err != nil {
		return err
	}

	runOnce := func() {
		if err := writeInspection(ctx, insp, loc); err != nil {
			printCommandError(ctx, err)
		}
	}

	runOnce()
	notice(ctx, "Watching %s (Ctrl+C to stop)\n", w.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Debug("change detected", "path", w.Path())
			notice(ctx, "\nChanged at %s\n", time.Now().Format(time.TimeOnly))
			runOnce()
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", w.Path(), "err", err)
		}
	}
}
