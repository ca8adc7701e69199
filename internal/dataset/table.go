package dataset

import (
	"math"
	"strconv"
	"strings"
)

// DType is the inferred type of a column. Names follow pandas dtypes so the
// output reads the same as df.dtypes.
type DType string

const (
	Int64   DType = "int64"
	Float64 DType = "float64"
	Bool    DType = "bool"
	Object  DType = "object"
)

// Column describes one column of a Table.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	Type     DType  `json:"dtype" yaml:"dtype"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// Table is an immutable, in-memory CSV: named columns and ordered rows of
// raw field values. Every row has exactly len(Columns) cells.
type Table struct {
	Columns []Column

	rows  [][]string
	start int
	// boolObjects marks object columns whose present cells are all boolean
	// tokens; they only missed the bool dtype because of gaps.
	boolObjects []bool
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the original row number of row i. Rows taken with Slice keep
// the position they had in the full table.
func (t *Table) Index(i int) int {
	return t.start + i
}

// Raw returns the field text exactly as read from the file.
func (t *Table) Raw(row, col int) string {
	return t.rows[row][col]
}

// IsMissing reports whether a cell holds one of the missing-value tokens.
func (t *Table) IsMissing(row, col int) bool {
	return isMissing(t.rows[row][col])
}

// Value returns the typed value of a cell according to its column dtype:
// int64, float64, bool or string. Missing cells return nil. Boolean tokens
// in an object column that holds nothing else come back as bool.
func (t *Table) Value(row, col int) interface{} {
	raw := t.rows[row][col]
	if isMissing(raw) {
		return nil
	}
	switch t.Columns[col].Type {
	case Int64:
		v, _ := parseInt(raw)
		return v
	case Float64:
		v, _ := parseFloat(raw)
		return v
	case Bool:
		v, _ := parseBool(raw)
		return v
	default:
		if t.boolObject(col) {
			if v, ok := parseBool(raw); ok {
				return v
			}
		}
		return raw
	}
}

func (t *Table) boolObject(col int) bool {
	return col < len(t.boolObjects) && t.boolObjects[col]
}

// Record returns row i as typed values suitable for JSON or YAML encoding.
// Infinite floats are returned as their raw text since JSON cannot hold them.
func (t *Table) Record(i int) []interface{} {
	rec := make([]interface{}, len(t.Columns))
	for j := range t.Columns {
		v := t.Value(i, j)
		if f, ok := v.(float64); ok && math.IsInf(f, 0) {
			v = strings.TrimSpace(t.rows[i][j])
		}
		rec[j] = v
	}
	return rec
}

// Records returns every row as typed values.
func (t *Table) Records() [][]interface{} {
	out := make([][]interface{}, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

// Strings returns every row as raw text.
func (t *Table) Strings() [][]string {
	out := make([][]string, t.Len())
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Head returns the first n rows (fewer when the table is shorter). Column
// types stay those inferred over the whole table.
func (t *Table) Head(n int) *Table {
	return t.Slice(0, n)
}

// Slice returns up to limit rows starting at offset.
func (t *Table) Slice(offset, limit int) *Table {
	total := t.Len()
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit >= 0 && offset+limit < total {
		end = offset + limit
	}
	return &Table{
		Columns:     t.Columns,
		rows:        t.rows[offset:end:end],
		start:       t.start + offset,
		boolObjects: t.boolObjects,
	}
}

var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	// strconv accepts hex floats and digit separators; CSV readers do not.
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// inferColumn picks the narrowest dtype that holds every non-missing cell.
// Integers with gaps widen to float64 and booleans with gaps fall back to
// object, as pandas does.
func inferColumn(rows [][]string, col int) Column {
	c, _ := inferColumnKind(rows, col)
	return c
}

// inferColumnKind is inferColumn that also reports an object column holding
// only boolean tokens and gaps.
func inferColumnKind(rows [][]string, col int) (Column, bool) {
	if len(rows) == 0 {
		return Column{Type: Object}, false
	}

	missing := 0
	allInt, allFloat, allBool := true, true, true
	for _, row := range rows {
		cell := row[col]
		if isMissing(cell) {
			missing++
			continue
		}
		if allInt {
			_, allInt = parseInt(cell)
		}
		if allFloat {
			_, allFloat = parseFloat(cell)
		}
		if allBool {
			_, allBool = parseBool(cell)
		}
	}

	c := Column{Nullable: missing > 0}
	switch {
	case missing == len(rows):
		c.Type = Float64
	case allInt && missing == 0:
		c.Type = Int64
	case allFloat:
		c.Type = Float64
	case allBool && missing == 0:
		c.Type = Bool
	default:
		c.Type = Object
	}
	return c, c.Type == Object && allBool
}
