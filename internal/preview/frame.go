// Package preview renders tables and column lists the way pandas and Python
// print them.
package preview

import (
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/salmonumbrella/csvpeek/internal/dataset"
)

const (
	columnGap = " "
	nanText   = "NaN"
	// floatDigits mirrors pandas' display.precision.
	floatDigits = 6
)

// Frame renders t like DataFrame.to_string(): a left-aligned index column and
// right-aligned data columns. Cells carry a leading space, which numeric
// cells use as the sign slot; a missing float is a bare NaN. The result has no
// trailing newline.
func Frame(t *dataset.Table) string {
	names := t.ColumnNames()
	if t.Len() == 0 {
		return "Empty DataFrame\nColumns: [" + strings.Join(names, ", ") + "]\nIndex: []"
	}

	cells := make([][]string, len(t.Columns))
	widths := make([]int, len(t.Columns))
	for j := range t.Columns {
		names[j] = escape(names[j])
		cells[j] = formatColumn(t, j)
		widths[j] = runewidth.StringWidth(names[j])
		for _, c := range cells[j] {
			if w := runewidth.StringWidth(c); w > widths[j] {
				widths[j] = w
			}
		}
	}

	index := make([]string, t.Len())
	indexWidth := 0
	for i := range index {
		index[i] = strconv.Itoa(t.Index(i))
		if len(index[i]) > indexWidth {
			indexWidth = len(index[i])
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for j, name := range names {
		b.WriteString(columnGap)
		b.WriteString(padLeft(name, widths[j]))
	}
	for i := range index {
		b.WriteByte('\n')
		b.WriteString(padRight(index[i], indexWidth))
		for j := range cells {
			b.WriteString(columnGap)
			b.WriteString(padLeft(cells[j][i], widths[j]))
		}
	}
	return b.String()
}

func formatColumn(t *dataset.Table, col int) []string {
	out := make([]string, t.Len())
	switch t.Columns[col].Type {
	case dataset.Float64:
		values := make([]float64, t.Len())
		missing := make([]bool, t.Len())
		for i := range values {
			if v, ok := t.Value(i, col).(float64); ok {
				values[i] = v
			} else {
				missing[i] = true
			}
		}
		return formatFloats(values, missing)
	case dataset.Int64:
		for i := range out {
			v, _ := t.Value(i, col).(int64)
			out[i] = signed(strconv.FormatInt(v, 10))
		}
		return out
	}

	for i := range out {
		switch v := t.Value(i, col).(type) {
		case nil:
			out[i] = " " + nanText
		case bool:
			if v {
				out[i] = " True"
			} else {
				out[i] = " False"
			}
		case string:
			out[i] = " " + escape(v)
		}
	}
	return out
}

// signed prefixes a non-negative number with the space its sign would take.
func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return " " + s
}

// formatFloats gives every value in a column the same number of decimals:
// fixed notation with common trailing zeros removed, or scientific notation
// when the column holds very small or very large magnitudes.
func formatFloats(values []float64, missing []bool) []string {
	out := make([]string, len(values))
	hasSmall, hasLarge := false, false
	for i, v := range values {
		if missing[i] || math.IsInf(v, 0) {
			continue
		}
		a := math.Abs(v)
		if a > 0 && a < math.Pow10(-floatDigits) {
			hasSmall = true
		}
		if a > 1e6 {
			hasLarge = true
		}
	}

	fixed := fixedFloats(values, missing)
	maxLen := 0
	for i, s := range fixed {
		if !missing[i] && len(s) > maxLen {
			maxLen = len(s)
		}
	}

	scientific := hasSmall || (hasLarge && maxLen > floatDigits+6)
	for i, v := range values {
		switch {
		case missing[i]:
			out[i] = nanText
		case math.IsInf(v, 1):
			out[i] = " inf"
		case math.IsInf(v, -1):
			out[i] = "-inf"
		case scientific:
			out[i] = signed(strconv.FormatFloat(v, 'e', floatDigits, 64))
		default:
			out[i] = fixed[i]
		}
	}
	return out
}

func fixedFloats(values []float64, missing []bool) []string {
	out := make([]string, len(values))
	var finite []int
	for i, v := range values {
		if missing[i] || math.IsInf(v, 0) {
			continue
		}
		out[i] = signed(strconv.FormatFloat(v, 'f', floatDigits, 64))
		finite = append(finite, i)
	}
	if len(finite) == 0 {
		return out
	}

	for {
		for _, i := range finite {
			s := out[i]
			if !strings.HasSuffix(s, "0") || strings.HasSuffix(s, ".0") {
				return out
			}
		}
		for _, i := range finite {
			out[i] = out[i][:len(out[i])-1]
		}
	}
}

// escape keeps multi-line cells on one line, as pandas does for object columns.
func escape(s string) string {
	if !strings.ContainsAny(s, "\t\n\r") {
		return s
	}
	return strings.NewReplacer("\t", `\t`, "\n", `\n`, "\r", `\r`).Replace(s)
}

func padLeft(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func padRight(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
