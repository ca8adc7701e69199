// Package inspect checks whether a CSV file exists and, when it does, loads it
// and reports its columns and first rows.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/salmonumbrella/csvpeek/internal/dataset"
	"github.com/salmonumbrella/csvpeek/internal/preview"
	"github.com/salmonumbrella/csvpeek/internal/source"
)

const (
	// DefaultFileName is looked up next to the executable when no location
	// is given.
	DefaultFileName = "dairy_dataset.csv"
	// DefaultPreviewRows is how many rows the preview shows.
	DefaultPreviewRows = 5
)

type stage int

const (
	stageResolved stage = iota
	stageChecked
	stageLoaded
)

// Report is the outcome of inspecting one location.
type Report struct {
	Location string
	Path     string
	Exists   bool
	Columns  []dataset.Column
	RowCount int
	// Table is the full table; nil when the file is absent or failed to load.
	Table *dataset.Table
	// Preview holds the first rows of Table.
	Preview *dataset.Table

	stage stage
}

// Summary is the structured form of a Report.
type Summary struct {
	Path     string           `json:"path" yaml:"path"`
	Exists   bool             `json:"exists" yaml:"exists"`
	Columns  []dataset.Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	RowCount int              `json:"row_count" yaml:"row_count"`
	Preview  [][]interface{}  `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// Summary returns the report in a form suitable for json and yaml output.
func (r *Report) Summary() Summary {
	s := Summary{
		Path:     r.Path,
		Exists:   r.Exists,
		Columns:  r.Columns,
		RowCount: r.RowCount,
	}
	if r.Preview != nil {
		s.Preview = r.Preview.Records()
	}
	return s
}

// Inspector resolves, checks and loads CSV locations.
type Inspector struct {
	opener      source.Opener
	previewRows int
	loadOpts    []dataset.Option
	logger      *slog.Logger
}

// Option configures an Inspector
type Option func(*Inspector)

// WithOpener sets where CSV bytes come from
func WithOpener(o source.Opener) Option {
	return func(i *Inspector) {
		i.opener = o
	}
}

// WithPreviewRows sets how many rows the preview holds
func WithPreviewRows(n int) Option {
	return func(i *Inspector) {
		i.previewRows = max(n, 0)
	}
}

// WithLoadOptions passes options through to dataset.Load
func WithLoadOptions(opts ...dataset.Option) Option {
	return func(i *Inspector) {
		i.loadOpts = append(i.loadOpts, opts...)
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = l
	}
}

// New creates an Inspector reading local files with a five-row preview.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		opener:      source.File{},
		previewRows: DefaultPreviewRows,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Resolve turns a user-supplied location into the one to inspect.
// An empty location means fileName beside the running executable; a local
// directory or a URL ending in "/" gets fileName appended. Local results are
// absolute.
func Resolve(location, fileName string, executable func() (string, error)) (string, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}

	if location == "" {
		exe, err := executable()
		if err != nil {
			return "", fmt.Errorf("locate executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(exe), fileName), nil
	}

	if source.IsRemote(location) {
		if strings.HasSuffix(location, "/") {
			return location + fileName, nil
		}
		return location, nil
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", location, err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() {
		abs = filepath.Join(abs, fileName)
	}
	return abs, nil
}

// Inspect checks location and, when it exists, loads it. The returned report
// is non-nil even on error and records how far inspection got.
func (i *Inspector) Inspect(ctx context.Context, location string) (*Report, error) {
	report := &Report{Location: location, Path: location}

	info, err := i.opener.Stat(ctx, location)
	if info.Path != "" {
		report.Path = info.Path
	}
	if err != nil {
		return report, fmt.Errorf("check %s: %w", report.Path, err)
	}
	report.Exists = info.Exists
	report.stage = stageChecked
	if !info.Exists {
		i.logger.Debug("file not found", "path", report.Path)
		return report, nil
	}

	tbl, err := i.load(ctx, location)
	if err != nil {
		return report, fmt.Errorf("load %s: %w", report.Path, err)
	}

	report.Table = tbl
	report.Columns = tbl.Columns
	report.RowCount = tbl.Len()
	report.Preview = tbl.Head(i.previewRows)
	report.stage = stageLoaded
	i.logger.Debug("table loaded",
		"path", report.Path,
		"columns", len(tbl.Columns),
		"rows", tbl.Len(),
	)
	return report, nil
}

func (i *Inspector) load(ctx context.Context, location string) (*dataset.Table, error) {
	rc, err := i.opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return dataset.Load(rc, i.loadOpts...)
}

// Run inspects location and writes the text report to w. Lines describing
// the steps that succeeded are written before any error is returned.
func (i *Inspector) Run(ctx context.Context, w io.Writer, location string) error {
	report, err := i.Inspect(ctx, location)
	return errors.Join(WriteText(w, report), err)
}

// WriteText prints the report as:
//
//	Path: <path>
//	Exists: True|False
//	Columns: ['a', 'b']      (or "No file found")
//	<preview table>
func WriteText(w io.Writer, r *Report) error {
	if r == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Path: %s\n", r.Path); err != nil {
		return err
	}
	if r.stage < stageChecked {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Exists: %s\n", preview.PyBool(r.Exists)); err != nil {
		return err
	}
	if !r.Exists {
		_, err := fmt.Fprintln(w, "No file found")
		return err
	}
	if r.stage < stageLoaded {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Columns: %s\n", preview.PyList(r.Table.ColumnNames())); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, preview.Frame(r.Preview))
	return err
}
