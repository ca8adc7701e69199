package browse

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/salmonumbrella/csvpeek/internal/dataset"
)

func table(t *testing.T, rows int) *dataset.Table {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,brand\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,Amul\n", i)
	}
	tbl, err := dataset.Load(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func resize(m Model, w, h int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func TestModel_ViewShowsHeaderAndRows(t *testing.T) {
	m := resize(New("dairy_dataset.csv", table(t, 3)), 40, 10)
	view := m.View()
	if !strings.Contains(view, "dairy_dataset.csv") {
		t.Error("title missing")
	}
	if !strings.Contains(view, "id brand") {
		t.Errorf("header missing:\n%s", view)
	}
	if !strings.Contains(view, "rows 1-3 of 3") {
		t.Errorf("status missing:\n%s", view)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := New("t", table(t, 1))
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", msg)
		}
	}
}

func TestModel_ScrollsDown(t *testing.T) {
	m := resize(New("t", table(t, 50)), 40, 10)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	m = next.(Model)
	if !strings.Contains(m.View(), "of 50") || !strings.Contains(m.status(), "-50 of 50") {
		t.Errorf("status after G = %q", m.status())
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	m = next.(Model)
	if !strings.HasPrefix(m.status(), "rows 1-") {
		t.Errorf("status after g = %q", m.status())
	}
}

func TestModel_HorizontalPan(t *testing.T) {
	m := resize(New("t", table(t, 2)), 4, 10)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	if m.xOffset == 0 {
		t.Fatal("expected horizontal offset after right")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	if m.xOffset != 0 {
		t.Errorf("xOffset = %d after left, want 0", m.xOffset)
	}
}

func TestModel_EmptyTable(t *testing.T) {
	tbl, err := dataset.Load(strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatal(err)
	}
	m := resize(New("t", tbl), 40, 10)
	if !strings.Contains(m.View(), "Empty DataFrame") {
		t.Errorf("view = %q", m.View())
	}
	if m.status() != "no rows • q quit" {
		t.Errorf("status = %q", m.status())
	}
}

func TestCutLeft(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abcdef", 0, "abcdef"},
		{"abcdef", 2, "cdef"},
		{"abc", 5, ""},
		{"牛奶milk", 2, "奶milk"},
	}
	for _, tt := range tests {
		if got := cutLeft(tt.in, tt.n); got != tt.want {
			t.Errorf("cutLeft(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
