// Package tui is an interactive outline viewer driven by an outline engine.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/render"
)

const maxExpandLevel = 6

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

type changedMsg struct{}

// Model renders an engine's outline and forwards key presses to it.
type Model struct {
	eng   *outline.Manager
	title string

	changes     chan struct{}
	unsubscribe func()

	search    textinput.Model
	searching bool
	help      help.Model

	// selected is the flat index of the node under the cursor.
	selected int
	offset   int
	width    int
	height   int
}

// New subscribes to eng. The subscription ends when the model quits.
func New(eng *outline.Manager, title string) *Model {
	in := textinput.New()
	in.Prompt = "/"
	in.Placeholder = "search headings"
	in.CharLimit = 120

	m := &Model{
		eng:      eng,
		title:    title,
		changes:  make(chan struct{}, 1),
		search:   in,
		help:     help.New(),
		selected: -1,
	}
	m.unsubscribe = eng.Subscribe(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return changedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.searching = false
		m.eng.SetSearchQuery("")
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.searching = false
		return m, nil
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.eng.SetSearchQuery(v)
	}
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.eng.State()
	rows := outline.VisibleRows(st)
	cursor := m.cursorRow(rows)

	switch {
	case key.Matches(msg, keys.Quit):
		m.unsubscribe()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if cursor > 0 {
			m.selected = rows[cursor-1].Node.Index
		}
	case key.Matches(msg, keys.Down):
		if cursor+1 < len(rows) {
			m.selected = rows[cursor+1].Node.Index
		}
	case key.Matches(msg, keys.Toggle):
		if cursor >= 0 {
			m.eng.ToggleIndex(rows[cursor].Node.Index)
		}
	case key.Matches(msg, keys.LevelUp):
		m.eng.SetLevel(min(st.ExpandLevel+1, maxExpandLevel))
	case key.Matches(msg, keys.LevelDown):
		m.eng.SetLevel(max(st.ExpandLevel-1, 1))
	case key.Matches(msg, keys.CollapseAll):
		m.eng.CollapseAll()
	case key.Matches(msg, keys.ExpandAll):
		m.eng.ExpandAll()
	case key.Matches(msg, keys.Queries):
		m.eng.SetShowUserQueries(!st.IncludeUserQueries)
	case key.Matches(msg, keys.Refresh):
		m.eng.Refresh()
	case key.Matches(msg, keys.Follow):
		if idx, ok := m.eng.CurrentItemIndex(); ok && m.eng.RevealNode(idx) {
			m.selected = idx
		}
	case msg.Type == tea.KeyEsc && st.SearchQuery != "":
		m.search.SetValue("")
		m.eng.SetSearchQuery("")
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.SetValue(st.SearchQuery)
		m.search.CursorEnd()
		return m, m.search.Focus()
	}
	return m, nil
}

// cursorRow maps the selected node onto the visible rows. A selection
// that is no longer visible falls back to the nearest earlier row.
func (m *Model) cursorRow(rows []outline.VisibleRow) int {
	if len(rows) == 0 {
		return -1
	}
	best := 0
	for i, r := range rows {
		if r.Node.Index == m.selected {
			return i
		}
		if r.Node.Index < m.selected {
			best = i
		}
	}
	m.selected = rows[best].Node.Index
	return best
}

func (m *Model) View() string {
	st := m.eng.State()
	rows := outline.VisibleRows(st)
	cursor := m.cursorRow(rows)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(render.Status(st))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(emptyStyle.Render("no headings"))
	} else {
		lines := strings.Split(render.Tree(st, render.Options{Cursor: cursor, Width: m.width}), "\n")
		start, end := m.window(cursor, len(lines))
		b.WriteString(strings.Join(lines[start:end], "\n"))
	}
	b.WriteString("\n\n")

	if m.searching || st.SearchQuery != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// window keeps the cursor row inside the space left for the tree.
func (m *Model) window(cursor, total int) (int, int) {
	body := m.height - 6
	if m.height == 0 || body >= total {
		return 0, total
	}
	body = max(body, 1)
	if cursor < m.offset {
		m.offset = cursor
	}
	if cursor >= m.offset+body {
		m.offset = cursor - body + 1
	}
	m.offset = min(max(m.offset, 0), total-body)
	return m.offset, m.offset + body
}
