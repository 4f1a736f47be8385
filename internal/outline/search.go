package outline

import "strings"

// SetSearchQuery filters the outline to rows matching query. Entering a
// search snapshots the tree state and expand level; clearing the query
// restores both exactly.
func (m *Manager) SetSearchQuery(query string) {
	m.mu.Lock()
	prev := m.searchQuery
	var (
		cb    func(int)
		level int
	)

	switch {
	case query == "" && prev == "":
		m.mu.Unlock()
		return
	case query == "":
		if m.exitSearchLocked() {
			cb = m.onExpandLevelChange
			level = m.expandLevel
		}
	default:
		if prev == "" {
			m.preSearchState = CaptureState(m.tree)
			m.preSearchExpandLevel = m.expandLevel
			m.searchLevelManual = false
		}
		m.searchQuery = query

		// Start from a clean slate on every keystroke so rows expanded for
		// a longer query do not linger once it is shortened.
		derive := 0
		if m.searchLevelManual {
			derive = m.expandLevel
		}
		walk(m.tree, func(n *Node) {
			n.ForceExpanded = false
			n.Collapsed = collapsedAt(n, derive)
		})
		m.matchCount = performSearch(m.tree, query)
	}
	m.mu.Unlock()

	if cb != nil {
		cb(level)
	}
	m.notify()
}

// exitSearchLocked reports whether restoring the pre-search level changed
// the expand level, so the host can persist it.
func (m *Manager) exitSearchLocked() bool {
	before := m.expandLevel
	m.searchQuery = ""
	m.matchCount = 0
	if m.preSearchState != nil {
		m.expandLevel = m.preSearchExpandLevel
		m.settings.ExpandLevel = m.expandLevel
	}
	walk(m.tree, func(n *Node) {
		n.IsMatch = false
		n.HasMatchedDescendant = false
		n.ForceExpanded = false
		n.Collapsed = collapsedAt(n, m.expandLevel)
	})
	RestoreState(m.tree, m.preSearchState)
	m.preSearchState = nil
	m.preSearchExpandLevel = 0
	m.searchLevelManual = false
	m.isAllExpanded = m.expandLevel >= max(maxLevelKey(m.levelCounts), 1)
	return m.expandLevel != before
}

// performSearch annotates nodes bottom-up and returns the number of
// matching nodes. Ancestors of matches are expanded.
func performSearch(nodes []*Node, query string) int {
	q := strings.ToLower(query)
	var visit func(nodes []*Node) int
	visit = func(nodes []*Node) int {
		count := 0
		for _, n := range nodes {
			count += visit(n.Children)
			n.HasMatchedDescendant = false
			for _, c := range n.Children {
				if c.IsMatch || c.HasMatchedDescendant {
					n.HasMatchedDescendant = true
					break
				}
			}
			n.IsMatch = strings.Contains(strings.ToLower(n.Text), q)
			if n.HasMatchedDescendant {
				n.Collapsed = false
			}
			if n.IsMatch {
				count++
			}
		}
		return count
	}
	return visit(nodes)
}
