package preview

import (
	"fmt"
	"strings"
	"unicode"
)

// PyList renders items as Python prints a list of strings: ['a', 'b'].
func PyList(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = PyRepr(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PyBool renders a boolean as Python prints it.
func PyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// PyRepr quotes s following Python's str.__repr__: single quotes unless the
// text contains a single quote and no double quote.
func PyRepr(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == unicode.ReplacementChar || unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}
