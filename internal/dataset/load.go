package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNoColumns is returned when the input has no header row at all.
var ErrNoColumns = errors.New("no columns to parse from file")

// ParseError reports a row the tokenizer could not accept. Either Err is set
// (a quoting problem from the CSV reader) or the row had more fields than the
// header.
type ParseError struct {
	Line     int
	Expected int
	Saw      int
	Err      error
}

func (e ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Error tokenizing data. %v", e.Err)
	}
	return fmt.Sprintf("Error tokenizing data. Expected %d fields in line %d, saw %d", e.Expected, e.Line, e.Saw)
}

func (e ParseError) Unwrap() error { return e.Err }

// DecodeError reports input that is not valid UTF-8.
type DecodeError struct {
	Line int
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("'utf-8' codec can't decode line %d: invalid UTF-8", e.Line)
}

type loadConfig struct {
	delimiter rune
}

// Option configures Load.
type Option func(*loadConfig)

// WithDelimiter sets the field separator. The default is a comma.
func WithDelimiter(r rune) Option {
	return func(c *loadConfig) {
		c.delimiter = r
	}
}

// ParseDelimiter converts a flag or config value into a delimiter rune.
// Accepts a single character or the escape "\t".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q (expected a single character)", s)
	}
	return r, nil
}

// Load reads a CSV with a header row. Blank lines are skipped, short rows are
// padded with missing values, and a row longer than the header is an error.
func Load(r io.Reader, opts ...Option) (*Table, error) {
	cfg := loadConfig{delimiter: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = cfg.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, wrapReadError(err)
	}
	line, _ := reader.FieldPos(0)
	if err := checkUTF8(header, line); err != nil {
		return nil, err
	}

	names := normalizeHeader(header)
	width := len(names)

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapReadError(err)
		}
		line, _ := reader.FieldPos(0)
		if len(rec) > width {
			return nil, ParseError{Line: line, Expected: width, Saw: len(rec)}
		}
		if err := checkUTF8(rec, line); err != nil {
			return nil, err
		}
		row := make([]string, width)
		copy(row, rec)
		rows = append(rows, row)
	}

	t := &Table{Columns: make([]Column, width), rows: rows, boolObjects: make([]bool, width)}
	for j, name := range names {
		col, boolObject := inferColumnKind(rows, j)
		col.Name = name
		t.Columns[j] = col
		t.boolObjects[j] = boolObject
	}
	return t, nil
}

func wrapReadError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return fmt.Errorf("read csv: %w", err)
}

func checkUTF8(fields []string, line int) error {
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return DecodeError{Line: line}
		}
	}
	return nil
}

// normalizeHeader strips a UTF-8 byte order mark, names empty headers
// "Unnamed: <i>" and suffixes duplicates with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		taken[h] = true
		names[i] = h
	}
	for i, h := range names {
		n, dup := seen[h]
		if !dup {
			seen[h] = 1
			continue
		}
		for {
			candidate := h + "." + strconv.Itoa(n)
			n++
			if !taken[candidate] {
				names[i] = candidate
				taken[candidate] = true
				break
			}
		}
		seen[h] = n
	}
	return names
}
