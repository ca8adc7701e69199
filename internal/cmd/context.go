package cmd

import (
	"context"
	"io"
	"os"
)

type streamsKey struct{}

type errorFormatKey struct{}

// streams are the reader and writers a command talks to. Nil fields fall back
// to the process streams.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func withIO(ctx context.Context, in io.Reader, out, errOut io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{in: in, out: out, errOut: errOut})
}

func streamsFromContext(ctx context.Context) streams {
	var s streams
	if ctx != nil {
		s, _ = ctx.Value(streamsKey{}).(streams)
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}
	return s
}

func stdinFromContext(ctx context.Context) io.Reader  { return streamsFromContext(ctx).in }
func stdoutFromContext(ctx context.Context) io.Writer { return streamsFromContext(ctx).out }
func stderrFromContext(ctx context.Context) io.Writer { return streamsFromContext(ctx).errOut }

func withErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

func errorFormatFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	format, _ := ctx.Value(errorFormatKey{}).(string)
	return format
}
