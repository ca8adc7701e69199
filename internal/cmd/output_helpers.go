package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/csvpeek/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(ctx context.Context, data interface{}) error {
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// notice writes a status line to stderr unless --quiet is in effect.
func notice(ctx context.Context, format string, args ...interface{}) {
	if output.QuietFromContext(ctx) {
		return
	}
	_, _ = fmt.Fprintf(stderrFromContext(ctx), format, args...)
}
