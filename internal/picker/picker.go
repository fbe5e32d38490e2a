// Package picker is a terminal UI for choosing which thread of a core dump
// to debug. It lists the thread summary, shows the highlighted thread's
// stack and returns the thread the user picked.
package picker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/timvw/gdbdrive/internal/model"
)

// Picker shows threads and lets the user choose one.
type Picker struct {
	Threads []model.ThreadInfo
	Theme   Theme
}

// Run blocks until the user picks a thread or quits. It returns nil when
// the user quit without picking.
func (p *Picker) Run() (*model.ThreadInfo, error) {
	m := newModel(p.Threads, p.Theme)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(*pickerModel).chosen, nil
}

type pickerModel struct {
	threads []model.ThreadInfo
	visible []int // indexes into threads, in display order
	cursor  int
	chosen  *model.ThreadInfo

	filtering bool
	filter    textinput.Model

	keys   keyMap
	help   help.Model
	styles styles

	width  int
	height int
}

func newModel(threads []model.ThreadInfo, theme Theme) *pickerModel {
	ti := textinput.New()
	ti.Placeholder = "function, file or thread id"
	ti.Prompt = "/ "
	ti.CharLimit = 256

	st := newStyles(theme)
	h := help.New()
	h.Styles.ShortKey = st.hintKey
	h.Styles.ShortDesc = st.hintDesc
	h.Styles.ShortSeparator = st.dim

	m := &pickerModel{
		threads: threads,
		filter:  ti,
		keys:    defaultKeys(),
		help:    h,
		styles:  st,
	}
	m.refilter()
	return m
}

func (m *pickerModel) Init() tea.Cmd { return nil }

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m *pickerModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if t := m.current(); t != nil {
			m.chosen = t
			return m, tea.Quit
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.filter.SetValue("")
		m.refilter()
	}
	return m, nil
}

func (m *pickerModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.refilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

// refilter rebuilds the visible rows, last listed thread first as in the
// summary table.
func (m *pickerModel) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i := len(m.threads) - 1; i >= 0; i-- {
		if q == "" || matches(m.threads[i], q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func matches(t model.ThreadInfo, q string) bool {
	if strings.Contains(strconv.Itoa(t.TID), q) {
		return true
	}
	for _, f := range t.Stack {
		if strings.Contains(strings.ToLower(f.Function), q) {
			return true
		}
		if base, ok := f.Basename(); ok && strings.Contains(strings.ToLower(base), q) {
			return true
		}
	}
	return false
}

func (m *pickerModel) current() *model.ThreadInfo {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return &m.threads[m.visible[m.cursor]]
}

func (m *pickerModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Threads"))
	b.WriteString("  ")
	b.WriteString(m.styles.dim.Render(fmt.Sprintf("%d of %d", len(m.visible), len(m.threads))))
	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	if len(m.visible) == 0 {
		b.WriteString("  No threads match.\n")
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	sigWidth := max(width-20, 20)
	b.WriteString(m.styles.header.Render(fmt.Sprintf("  %-4s %-8s %s", "Num", "Thread", "Current Function")))
	b.WriteString("\n")
	for row, idx := range m.visible {
		t := m.threads[idx]
		sig := ""
		if len(t.Stack) > 0 {
			sig = t.Stack.Innermost().Signature
		}
		line := fmt.Sprintf("%-4d %-8d %s", t.Num, t.TID, runewidth.Truncate(sig, sigWidth, "…"))
		if row == m.cursor {
			b.WriteString(m.styles.selected.Render("> " + line))
		} else {
			b.WriteString(m.styles.text.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if t := m.current(); t != nil {
		b.WriteString("\n")
		b.WriteString(m.viewStack(*t, width))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *pickerModel) viewStack(t model.ThreadInfo, width int) string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(fmt.Sprintf("Thread %d (tid=%d)", t.Num, t.TID)))
	b.WriteString("\n")
	if t.StackStart != nil && *t.StackStart > 0 {
		b.WriteString(m.styles.dim.Render(fmt.Sprintf("  … %d runtime frames hidden", *t.StackStart)))
		b.WriteString("\n")
	}
	for _, f := range t.Stack {
		sig := f.Signature
		if sig == "" {
			sig = f.Function + "(" + f.Args + ")"
		}
		b.WriteString(fmt.Sprintf("  #%-3d ", f.Num))
		b.WriteString(m.styles.function.Render(runewidth.Truncate(sig, max(width-8, 20), "…")))
		switch {
		case f.Filename != nil && f.Line != nil:
			b.WriteString(" at ")
			b.WriteString(m.styles.location.Render(fmt.Sprintf("%s:%d", *f.Filename, *f.Line)))
		case f.Library != nil:
			b.WriteString(" from ")
			b.WriteString(m.styles.library.Render(*f.Library))
		}
		b.WriteString("\n")
	}
	if t.StackEnd != nil && *t.StackEnd > 0 {
		b.WriteString(m.styles.dim.Render(fmt.Sprintf("  … %d runtime frames hidden", *t.StackEnd)))
		b.WriteString("\n")
	}
	return b.String()
}
