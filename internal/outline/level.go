package outline

// InitializeCollapsedState collapses every node whose children are all
// deeper than displayLevel. Children are compared by raw heading level.
func InitializeCollapsedState(nodes []*Node, displayLevel int) {
	walk(nodes, func(n *Node) {
		n.Collapsed = collapsedAt(n, displayLevel)
	})
}

func collapsedAt(n *Node, displayLevel int) bool {
	if len(n.Children) == 0 {
		return false
	}
	for _, c := range n.Children {
		if c.Level <= displayLevel {
			return false
		}
	}
	return true
}

// SetLevel expands the tree to the given heading level. Manual expansions
// are discarded. While searching, the level becomes a manual override of
// the search-driven expansion.
func (m *Manager) SetLevel(level int) {
	m.mu.Lock()
	m.applyLevelLocked(level)
	if m.searchQuery != "" {
		m.searchLevelManual = true
	}
	cb := m.onExpandLevelChange
	m.mu.Unlock()

	if cb != nil {
		cb(level)
	}
	m.notify()
}

func (m *Manager) applyLevelLocked(level int) {
	m.expandLevel = level
	m.settings.ExpandLevel = level
	walk(m.tree, func(n *Node) {
		n.ForceExpanded = false
		n.Collapsed = collapsedAt(n, level)
	})
	m.isAllExpanded = level >= max(maxLevelKey(m.levelCounts), 1)
	// Manual state captured by a reveal is gone now.
	if m.reveal != nil {
		m.reveal.prior = nil
	}
}

// CollapseAll shows only the top level: the shallowest heading level, or
// only user queries when they are shown.
func (m *Manager) CollapseAll() {
	m.mu.Lock()
	level := 0
	if !m.includeUserQueries {
		level = m.minObservedLevelLocked()
	}
	m.mu.Unlock()
	m.SetLevel(level)
}

// ExpandAll expands to the deepest heading level observed.
func (m *Manager) ExpandAll() {
	m.mu.Lock()
	level := max(maxLevelKey(m.levelCounts), 1)
	m.mu.Unlock()
	m.SetLevel(level)
}

func (m *Manager) minObservedLevelLocked() int {
	minLevel := 0
	for level := range m.levelCounts {
		if minLevel == 0 || level < minLevel {
			minLevel = level
		}
	}
	if minLevel == 0 {
		return 1
	}
	return minLevel
}

// ToggleNode flips a node's collapsed flag. The node is looked up by its
// flat index in the current tree, so a reference from an older snapshot
// still targets the right row. Expanding by hand pins the node open
// against later SetLevel calls until the next rebuild.
func (m *Manager) ToggleNode(node *Node) {
	if node == nil {
		return
	}
	m.ToggleIndex(node.Index)
}

// ToggleIndex is ToggleNode addressed by flat index.
func (m *Manager) ToggleIndex(index int) bool {
	m.mu.Lock()
	n := FindNode(m.tree, index)
	if n == nil {
		m.mu.Unlock()
		return false
	}
	n.Collapsed = !n.Collapsed
	n.ForceExpanded = !n.Collapsed
	m.mu.Unlock()

	m.notify()
	return true
}

type revealMark struct {
	index int
	key   string
	prior map[int]NodeState
}

// RevealNode makes the node at index visible by expanding and pinning it
// and all its ancestors. Only one reveal path is active at a time.
func (m *Manager) RevealNode(index int) bool {
	m.mu.Lock()
	m.clearForceVisibleLocked()
	path := pathTo(m.tree, index)
	if path == nil {
		m.mu.Unlock()
		return false
	}
	mark := &revealMark{index: index, key: stateKey(path[len(path)-1]), prior: make(map[int]NodeState, len(path))}
	for _, n := range path {
		mark.prior[n.Index] = NodeState{Collapsed: n.Collapsed, ForceExpanded: n.ForceExpanded}
		pin(n)
	}
	m.reveal = mark
	m.mu.Unlock()

	m.notify()
	return true
}

func pin(n *Node) {
	n.ForceVisible = true
	n.Collapsed = false
	n.ForceExpanded = true
}

// ClearForceVisible undoes RevealNode. Only pinned nodes are touched: a
// node the user had already expanded by hand gets its state back, others
// are re-derived from the current expand level.
func (m *Manager) ClearForceVisible() {
	m.mu.Lock()
	changed := m.clearForceVisibleLocked()
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

func (m *Manager) clearForceVisibleLocked() bool {
	var prior map[int]NodeState
	if m.reveal != nil {
		prior = m.reveal.prior
	}
	changed := false
	walk(m.tree, func(n *Node) {
		if !n.ForceVisible {
			return
		}
		changed = true
		n.ForceVisible = false
		if st, ok := prior[n.Index]; ok && st.ForceExpanded {
			n.Collapsed = st.Collapsed
			n.ForceExpanded = true
			return
		}
		n.ForceExpanded = false
		n.Collapsed = collapsedAt(n, m.expandLevel)
	})
	m.reveal = nil
	return changed
}

// reapplyRevealLocked pins the reveal path again after a rebuild if the
// target row is still the same heading.
func (m *Manager) reapplyRevealLocked() {
	if m.reveal == nil {
		return
	}
	path := pathTo(m.tree, m.reveal.index)
	if path == nil || stateKey(path[len(path)-1]) != m.reveal.key {
		m.reveal = nil
		return
	}
	for _, n := range path {
		pin(n)
	}
}
