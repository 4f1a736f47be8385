package outline

// VisibleRow is a node as it appears in the rendered outline.
type VisibleRow struct {
	Node  *Node
	Depth int
}

// VisibleRows lists the rows a renderer should show, in traversal order.
// Outside a search a row is hidden by any collapsed ancestor. During a
// search, roots show only if they match or lead to a match; other rows
// must be relevant (a match, an ancestor of one, or under a node the
// user expanded) and, with a manual level override, also within the
// level and not under a collapsed ancestor. Pinned rows always show.
func VisibleRows(st State) []VisibleRow {
	var rows []VisibleRow
	var visit func(nodes []*Node, depth int, ancestors []*Node)
	visit = func(nodes []*Node, depth int, ancestors []*Node) {
		for _, n := range nodes {
			if !isVisible(st, n, ancestors) {
				continue
			}
			rows = append(rows, VisibleRow{Node: n, Depth: depth})
			visit(n.Children, depth+1, append(ancestors, n))
		}
	}
	visit(st.Tree, 0, nil)
	return rows
}

func isVisible(st State, n *Node, ancestors []*Node) bool {
	if n.ForceVisible {
		return true
	}
	underCollapsed := false
	ancestorExpanded := false
	for _, a := range ancestors {
		if a.Collapsed {
			underCollapsed = true
		}
		if a.ForceExpanded {
			ancestorExpanded = true
		}
	}

	if st.SearchQuery == "" {
		return !underCollapsed
	}
	if len(ancestors) == 0 {
		return n.IsMatch || n.HasMatchedDescendant
	}
	if !(n.IsMatch || n.HasMatchedDescendant || ancestorExpanded) {
		return false
	}
	if st.SearchLevelManual {
		if !n.IsUserQuery && n.Level > st.ExpandLevel {
			return false
		}
		if underCollapsed {
			return false
		}
	}
	return true
}
