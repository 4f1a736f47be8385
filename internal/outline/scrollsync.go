package outline

import "strings"

// FindVisibleItemIndex returns the flat index of the row in view for the
// viewport [top, bottom). It is only active in FollowCurrent mode.
func (m *Manager) FindVisibleItemIndex(top, bottom float64) (int, bool) {
	m.mu.Lock()
	if m.settings.FollowMode != FollowCurrent {
		m.mu.Unlock()
		return 0, false
	}
	idx, ok, changed := m.findVisibleLocked(top, bottom)
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return idx, ok
}

// CurrentItemIndex resolves the row to highlight for the adapter's
// scroll container according to the follow mode.
func (m *Manager) CurrentItemIndex() (int, bool) {
	m.mu.Lock()
	var (
		idx     int
		ok      bool
		changed bool
	)
	switch m.settings.FollowMode {
	case FollowLatest:
		if flat := Flatten(m.tree); len(flat) > 0 {
			idx, ok = flat[len(flat)-1].Index, true
		}
	case FollowCurrent:
		if c := m.adapter.ScrollContainer(); c != nil {
			top, bottom := c.Bounds()
			idx, ok, changed = m.findVisibleLocked(top, bottom)
		}
	}
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return idx, ok
}

// findVisibleLocked scans once, and if nothing matched while some
// elements could not be resolved, rebuilds and scans exactly once more.
func (m *Manager) findVisibleLocked(top, bottom float64) (idx int, ok bool, changed bool) {
	idx, invalid := m.scanLocked(top, bottom)
	if idx >= 0 {
		return idx, true, false
	}
	if invalid == 0 {
		return 0, false, false
	}

	m.treeKey = ""
	changed = m.refreshLocked(true, nil)
	idx, _ = m.scanLocked(top, bottom)
	if idx >= 0 {
		return idx, true, changed
	}
	return 0, false, changed
}

// scanLocked returns the first node whose top edge lies in the viewport,
// else the first node straddling the viewport top, else -1, along with
// the number of nodes whose element could not be resolved.
func (m *Manager) scanLocked(top, bottom float64) (int, int) {
	straddle := -1
	invalid := 0
	for _, n := range Flatten(m.tree) {
		el := m.resolveElementLocked(n)
		if el == nil {
			invalid++
			continue
		}
		t, b := el.Bounds()
		if t >= top && t < bottom {
			return n.Index, invalid
		}
		if straddle < 0 && t < top && b > top {
			straddle = n.Index
		}
	}
	return straddle, invalid
}

// resolveElementLocked returns a live element for n, re-resolving through
// the adapter when the stored reference went stale.
func (m *Manager) resolveElementLocked(n *Node) Element {
	if n.Element != nil && n.Element.Connected() {
		if !n.IsUserQuery || m.sameQueryLocked(n.Element, n) {
			return n.Element
		}
	}

	var el Element
	if n.IsUserQuery {
		el = m.adapter.FindUserQueryElement(n.QueryIndex, n.Text)
	} else {
		el = m.adapter.FindElementByHeading(n.Level, n.Text)
	}
	if el == nil || !el.Connected() {
		return nil
	}
	n.Element = el
	return el
}

func (m *Manager) sameQueryLocked(el Element, n *Node) bool {
	want := n.Text
	if n.IsTruncated {
		want = strings.TrimSuffix(strings.TrimSuffix(want, "…"), "...")
	}
	got := strings.TrimSpace(m.adapter.ExtractUserQueryText(el))
	return strings.HasPrefix(got, strings.TrimSpace(want))
}
