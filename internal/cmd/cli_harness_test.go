package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliEnv is a sandbox for running the whole command tree: the executable
// lives in dir, config is read from a path inside dir, and the environment is
// replaced by env.
type cliEnv struct {
	dir     string
	cfgPath string
	env     map[string]string
	stdin   *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.yaml"),
		env:     map[string]string{},
		stdin:   &bytes.Buffer{},
	}
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (e *cliEnv) defaultPath() string {
	return filepath.Join(e.dir, "dairy_dataset.csv")
}

// run executes csvpeek with args and returns stdout, stderr and the error
// ExecuteContext returned.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	restore := snapshotCLIState()
	defer restore()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(e.stdin)

	prevEnvGet := envGet
	envGet = func(key string) string { return e.env[key] }
	defer func() { envGet = prevEnvGet }()

	prevExe := executablePath
	executablePath = func() (string, error) { return filepath.Join(e.dir, "csvpeek"), nil }
	defer func() { executablePath = prevExe }()

	if e.cfgPath != "" {
		args = append([]string{"--config", e.cfgPath}, args...)
	}
	rootCmd.SetArgs(args)
	err := ExecuteContext(withIO(context.Background(), e.stdin, out, errBuf))
	return out.String(), errBuf.String(), err
}

func snapshotCLIState() func() {
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevDelimiter := delimiterFlag
	prevActiveConfig := activeConfig
	prevLogger := logger
	prevCloseLogger := closeLogger

	prevInspectRows := inspectRows
	prevRowsPage := rowsPage
	prevRowsLimit := rowsLimit
	prevWatchRows := watchRows
	prevWatchDebounce := watchDebounce
	prevAuthHost := authHost
	prevLoginToken := loginToken

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		delimiterFlag = prevDelimiter
		activeConfig = prevActiveConfig
		logger = prevLogger
		closeLogger = prevCloseLogger

		inspectRows = prevInspectRows
		rowsPage = prevRowsPage
		rowsLimit = prevRowsLimit
		watchRows = prevWatchRows
		watchDebounce = prevWatchDebounce
		authHost = prevAuthHost
		loginToken = prevLoginToken

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetCommandState(rootCmd)
	}
}

// resetCommandState clears the Changed bit on every flag of cmd and its
// subcommands, and drops subcommand contexts, so one run does not leak into
// the next.
func resetCommandState(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	unset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(unset)
	cmd.PersistentFlags().VisitAll(unset)
	cmd.InheritedFlags().VisitAll(unset)
	for _, sub := range cmd.Commands() {
		sub.SetContext(nil)
		resetCommandState(sub)
	}
}
