package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/csvpeek/internal/output"
)

func TestStructuredOutputRequested(t *testing.T) {
	tests := []struct {
		format output.Format
		want   bool
	}{
		{output.FormatText, false},
		{output.FormatJSON, true},
		{output.FormatNDJSON, true},
		{output.FormatYAML, true},
		{output.FormatTable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, _, cleanup := withTestContext(t, tt.format)
			defer cleanup()

			got := structuredOutputRequested()
			if got != tt.want {
				t.Errorf("structuredOutputRequested() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrintStructured_JSON(t *testing.T) {
	out, _, cleanup := withTestContext(t, output.FormatJSON)
	defer cleanup()

	data := map[string]string{"key": "value"}
	if err := printStructured(rootCmd.Context(), data); err != nil {
		t.Fatalf("printStructured() error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput was: %s", err, out.String())
	}

	if result["key"] != "value" {
		t.Errorf("expected key='value', got key=%q", result["key"])
	}
}

func TestPrintStructured_YAML(t *testing.T) {
	out, _, cleanup := withTestContext(t, output.FormatYAML)
	defer cleanup()

	data := map[string]int{"rows": 5}
	if err := printStructured(rootCmd.Context(), data); err != nil {
		t.Fatalf("printStructured() error = %v", err)
	}

	var result map[string]int
	if err := yaml.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse YAML output: %v\nOutput was: %s", err, out.String())
	}
	if result["rows"] != 5 {
		t.Errorf("rows = %d, want 5", result["rows"])
	}
}

func TestPrintStructured_TextTable(t *testing.T) {
	out, _, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()

	table := output.Table{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}}
	if err := printStructured(rootCmd.Context(), table); err != nil {
		t.Fatalf("printStructured() error = %v", err)
	}
	if got := out.String(); got != "A  B\n1  2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestNotice_RespectsQuiet(t *testing.T) {
	_, errBuf, cleanup := withTestContext(t, output.FormatText)
	defer cleanup()

	// withTestContext sets quiet
	notice(rootCmd.Context(), "hello %s\n", "world")
	if errBuf.Len() != 0 {
		t.Errorf("quiet notice wrote %q", errBuf.String())
	}

	ctx := output.WithQuiet(rootCmd.Context(), false)
	notice(ctx, "hello %s\n", "world")
	if !strings.Contains(errBuf.String(), "hello world") {
		t.Errorf("stderr = %q", errBuf.String())
	}
}
