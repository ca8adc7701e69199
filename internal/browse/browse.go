// Package browse is an interactive pager over a loaded table.
package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/salmonumbrella/csvpeek/internal/dataset"
	"github.com/salmonumbrella/csvpeek/internal/preview"
)

// horizontalStep is how many columns left/right scroll by.
const horizontalStep = 8

// chrome is the number of lines drawn around the viewport: title, column
// header and status bar.
const chrome = 3

type keyMap struct {
	Quit  key.Binding
	Left  key.Binding
	Right key.Binding
	Home  key.Binding
	End   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "scroll right"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4169E1")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Model is the bubbletea model for the table pager.
type Model struct {
	title    string
	header   string
	lines    []string
	rows     int
	xOffset  int
	maxWidth int
	viewport viewport.Model
	keys     keyMap
	ready    bool
}

// New builds a pager over t. The column header stays fixed while rows scroll.
func New(title string, t *dataset.Table) Model {
	rendered := strings.Split(preview.Frame(t), "\n")
	m := Model{
		title: title,
		rows:  t.Len(),
		keys:  defaultKeyMap(),
	}
	if t.Len() > 0 {
		m.header = rendered[0]
		m.lines = rendered[1:]
	} else {
		m.lines = rendered
	}
	for _, l := range append([]string{m.header}, m.lines...) {
		if w := runewidth.StringWidth(l); w > m.maxWidth {
			m.maxWidth = w
		}
	}
	m.viewport = viewport.New(80, 20)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Left):
			m.xOffset = max(m.xOffset-horizontalStep, 0)
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Right):
			if limit := m.maxWidth - m.viewport.Width; limit > 0 {
				m.xOffset = min(m.xOffset+horizontalStep, limit)
			}
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Home):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	shifted := make([]string, len(m.lines))
	for i, l := range m.lines {
		shifted[i] = cutLeft(l, m.xOffset)
	}
	m.viewport.SetContent(strings.Join(shifted, "\n"))
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')
	b.WriteString(headerStyle.Render(runewidth.Truncate(cutLeft(m.header, m.xOffset), m.viewport.Width, "")))
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(statusStyle.Render(m.status()))
	return b.String()
}

func (m Model) status() string {
	if m.rows == 0 {
		return "no rows • q quit"
	}
	first := m.viewport.YOffset + 1
	last := min(m.viewport.YOffset+m.viewport.Height, m.rows)
	return fmt.Sprintf("rows %d-%d of %d • %3.f%% • ↑/↓ scroll • ←/→ pan • q quit",
		first, last, m.rows, m.viewport.ScrollPercent()*100)
}

// cutLeft drops the first n display columns of s.
func cutLeft(s string, n int) string {
	if n <= 0 {
		return s
	}
	w := 0
	for i, r := range s {
		if w >= n {
			return s[i:]
		}
		w += runewidth.RuneWidth(r)
	}
	return ""
}

// Run shows the pager until the user quits or ctx is cancelled.
func Run(ctx context.Context, title string, t *dataset.Table, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(title, t),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
