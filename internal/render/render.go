// Package render draws outline state as terminal text.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgallion1/outlinesync/internal/outline"
)

const (
	markerCollapsed = "▸"
	markerExpanded  = "▾"
	markerLeaf      = "•"
	indentUnit      = "  "
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	rootStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	queryStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("179"))
	ordinalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	markerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	matchStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Options control how Tree lays out rows.
type Options struct {
	// Cursor is the visible row to highlight, or -1 for none.
	Cursor int
	// Width truncates rows wider than this many cells. Zero disables it.
	Width int
}

// Tree renders the rows of st that are currently visible, one per line.
func Tree(st outline.State, opts Options) string {
	rows := outline.VisibleRows(st)
	if len(rows) == 0 {
		return ""
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		line := Row(st, r.Node)
		if opts.Width > 0 {
			line = truncate.StringWithTail(line, uint(opts.Width), "…")
		}
		if i == opts.Cursor {
			line = cursorStyle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Row renders a single node: indentation by relative level, a collapse
// marker, a query ordinal for user queries, then the highlighted label.
func Row(st outline.State, n *outline.Node) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(indentUnit, max(n.RelativeLevel-st.MinRelativeLevel, 0)))

	switch {
	case len(n.Children) == 0:
		b.WriteString(markerStyle.Render(markerLeaf))
	case n.Collapsed:
		b.WriteString(markerStyle.Render(markerCollapsed))
	default:
		b.WriteString(markerStyle.Render(markerExpanded))
	}
	b.WriteByte(' ')

	style := headingStyle
	switch {
	case n.IsUserQuery:
		style = queryStyle
		b.WriteString(ordinalStyle.Render(fmt.Sprintf("Q%d", n.QueryIndex)))
		b.WriteByte(' ')
	case n.RelativeLevel == 1:
		style = rootStyle
	}
	b.WriteString(highlight(n.Text, st.SearchQuery, style))
	return b.String()
}

// Highlight marks every case-insensitive match of query in text. The
// query is compiled as a regular expression; when it does not compile
// the text is returned unhighlighted.
func Highlight(text, query string) string {
	return highlight(text, query, lipgloss.NewStyle())
}

func highlight(text, query string, base lipgloss.Style) string {
	spans := matchSpans(text, query)
	if len(spans) == 0 {
		return base.Render(text)
	}
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		if s[0] > prev {
			b.WriteString(base.Render(text[prev:s[0]]))
		}
		b.WriteString(matchStyle.Render(text[s[0]:s[1]]))
		prev = s[1]
	}
	if prev < len(text) {
		b.WriteString(base.Render(text[prev:]))
	}
	return b.String()
}

// matchSpans returns the byte ranges of non-empty matches of query in
// text, or nil when the query is empty or not a valid expression.
func matchSpans(text, query string) [][]int {
	if query == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return nil
	}
	var spans [][]int
	for _, s := range re.FindAllStringIndex(text, -1) {
		if s[1] > s[0] {
			spans = append(spans, s)
		}
	}
	return spans
}

// Status summarizes the outline in one line: the expand level, how many
// headings exist per level and, during a search, the match count.
func Status(st outline.State) string {
	levels := make([]int, 0, len(st.LevelCounts))
	for l := range st.LevelCounts {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	parts := []string{fmt.Sprintf("level %d", st.ExpandLevel)}
	if len(levels) > 0 {
		counts := make([]string, len(levels))
		for i, l := range levels {
			counts[i] = fmt.Sprintf("h%d:%d", l, st.LevelCounts[l])
		}
		parts = append(parts, strings.Join(counts, " "))
	}
	if st.SearchQuery != "" {
		noun := "matches"
		if st.MatchCount == 1 {
			noun = "match"
		}
		parts = append(parts, fmt.Sprintf("%d %s for %q", st.MatchCount, noun, st.SearchQuery))
	}
	return statusStyle.Render(strings.Join(parts, " · "))
}
