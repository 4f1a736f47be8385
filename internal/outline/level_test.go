package outline

import "testing"

func TestSetLevel_AllExpanded(t *testing.T) {
	m, _ := newTestManager([]Item{heading(1, "A"), heading(2, "B"), heading(3, "C")})

	tests := []struct {
		level       int
		allExpanded bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{6, true},
	}
	for _, tt := range tests {
		m.SetLevel(tt.level)
		if got := m.State().IsAllExpanded; got != tt.allExpanded {
			t.Errorf("SetLevel(%d): expected IsAllExpanded=%v, got %v", tt.level, tt.allExpanded, got)
		}
	}
}

func TestSetLevel_CollapsesAtMinimumLevel(t *testing.T) {
	m, _ := newTestManager([]Item{
		heading(2, "A"), heading(3, "A1"), heading(4, "A1a"), heading(3, "A2"),
		heading(2, "B"), heading(3, "B1"),
	})
	m.SetLevel(2)

	for _, n := range Flatten(m.State().Tree) {
		want := len(n.Children) > 0
		if n.Collapsed != want {
			t.Errorf("node %q: expected collapsed=%v, got %v", n.Text, want, n.Collapsed)
		}
	}
}

func TestSetLevel_ClearsForceExpanded(t *testing.T) {
	m, _ := newTestManager(sampleItems())
	m.SetLevel(1)
	m.ToggleIndex(0)
	if !m.State().Tree[0].ForceExpanded {
		t.Fatal("expected toggle to pin A open")
	}

	m.SetLevel(1)
	a := m.State().Tree[0]
	if a.ForceExpanded || !a.Collapsed {
		t.Errorf("expected SetLevel to reset A, got collapsed=%v forceExpanded=%v", a.Collapsed, a.ForceExpanded)
	}
}

func TestSetLevel_CallsHost(t *testing.T) {
	var got []int
	m, _ := newTestManager(sampleItems(), WithExpandLevelCallback(func(l int) { got = append(got, l) }))
	m.SetLevel(2)
	m.CollapseAll()
	m.ExpandAll()

	want := []int{2, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d callbacks, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestCollapseAll_WithUserQueries(t *testing.T) {
	m, _ := newTestManager([]Item{query("q1"), heading(1, "A"), heading(2, "B")})
	m.SetShowUserQueries(true)
	m.CollapseAll()

	st := m.State()
	if st.ExpandLevel != 0 {
		t.Errorf("expected collapse-all level 0 with user queries, got %d", st.ExpandLevel)
	}
	if st.MinRelativeLevel != 0 {
		t.Errorf("expected min relative level 0, got %d", st.MinRelativeLevel)
	}
	if len(st.Tree) != 1 || !st.Tree[0].IsUserQuery || !st.Tree[0].Collapsed {
		t.Errorf("expected a single collapsed query root, got %+v", st.Tree)
	}
	if rows := VisibleRows(st); len(rows) != 1 {
		t.Errorf("expected only the query row visible, got %d rows", len(rows))
	}
}

func TestToggleNode_StaleReference(t *testing.T) {
	m, a := newTestManager(sampleItems())
	stale := m.State().Tree[0]

	a.setItems(append(sampleItems(), heading(1, "E")))
	m.Refresh()

	m.ToggleNode(stale)
	if !m.State().Tree[0].Collapsed {
		t.Error("expected toggle through a stale node to hit the current node at the same index")
	}
	if stale.Collapsed {
		t.Error("expected stale node to be left untouched")
	}
}

func TestRevealNode_Scenario(t *testing.T) {
	m, _ := newTestManager(sampleItems())
	m.SetLevel(1)

	if !m.RevealNode(2) {
		t.Fatal("expected RevealNode(2) to find C")
	}
	st := m.State()
	a, c := st.Tree[0], st.Tree[0].Children[1]
	if !a.ForceExpanded || a.Collapsed || !a.ForceVisible {
		t.Errorf("expected A pinned open, got collapsed=%v forceExpanded=%v forceVisible=%v", a.Collapsed, a.ForceExpanded, a.ForceVisible)
	}
	if !c.ForceVisible {
		t.Error("expected C force-visible")
	}

	m.ClearForceVisible()
	st = m.State()
	a, c = st.Tree[0], st.Tree[0].Children[1]
	if a.ForceVisible || c.ForceVisible {
		t.Error("expected force-visible cleared on A and C")
	}
	if !a.Collapsed {
		t.Error("expected A collapsed again, as derived from expand level 1")
	}
}

func TestRevealNode_OnlyOnePath(t *testing.T) {
	m, _ := newTestManager([]Item{heading(1, "A"), heading(2, "B"), heading(1, "C"), heading(2, "D")})
	m.SetLevel(1)
	m.RevealNode(1)
	m.RevealNode(3)

	st := m.State()
	if st.Tree[0].ForceVisible || st.Tree[0].Children[0].ForceVisible {
		t.Error("expected the first reveal path to be cleared")
	}
	if !st.Tree[0].Collapsed {
		t.Error("expected A re-collapsed after its reveal was cleared")
	}
	if !st.Tree[1].ForceVisible || !st.Tree[1].Children[0].ForceVisible {
		t.Error("expected the second reveal path pinned")
	}
}

func TestClearForceVisible_LeavesManualNodesAlone(t *testing.T) {
	m, _ := newTestManager([]Item{heading(1, "A"), heading(2, "B"), heading(1, "C"), heading(2, "D")})
	m.SetLevel(1)
	m.ToggleIndex(2) // user opens C by hand
	m.RevealNode(1)
	m.ClearForceVisible()

	c := m.State().Tree[1]
	if c.Collapsed || !c.ForceExpanded {
		t.Errorf("expected C to stay open by hand, got collapsed=%v forceExpanded=%v", c.Collapsed, c.ForceExpanded)
	}
}

func TestClearForceVisible_AfterSetLevel(t *testing.T) {
	m, _ := newTestManager(sampleItems())
	m.SetLevel(1)
	m.ToggleIndex(0) // user opens A by hand
	m.RevealNode(2)
	m.SetLevel(1) // discards the manual expansion

	m.ClearForceVisible()
	a := m.State().Tree[0]
	if !a.Collapsed || a.ForceExpanded {
		t.Errorf("expected A collapsed at level 1, got collapsed=%v forceExpanded=%v", a.Collapsed, a.ForceExpanded)
	}
}

func TestRevealNode_SurvivesRebuild(t *testing.T) {
	m, a := newTestManager(sampleItems())
	m.SetLevel(1)
	m.RevealNode(2)

	a.setItems(append(sampleItems(), heading(2, "E")))
	m.Refresh()

	c := FindNode(m.State().Tree, 2)
	if c == nil || !c.ForceVisible {
		t.Fatal("expected reveal pin to be reapplied after rebuild")
	}
}

func TestVisibleRows_Collapsed(t *testing.T) {
	m, _ := newTestManager(sampleItems())
	m.SetLevel(1)
	rows := VisibleRows(m.State())
	if len(rows) != 2 || rows[0].Node.Text != "A" || rows[1].Node.Text != "D" {
		t.Fatalf("expected only roots visible, got %d rows", len(rows))
	}

	m.SetLevel(2)
	rows = VisibleRows(m.State())
	if len(rows) != 4 {
		t.Fatalf("expected all 4 rows visible, got %d", len(rows))
	}
	if rows[1].Depth != 1 {
		t.Errorf("expected B at depth 1, got %d", rows[1].Depth)
	}
}
