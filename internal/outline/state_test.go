package outline

import (
	"sync"
	"testing"
)

func TestCaptureRestore_Idempotent(t *testing.T) {
	items := []Item{
		heading(1, "A"), heading(2, "B"), heading(3, "B1"), heading(2, "C"),
		heading(1, "D"), heading(2, "E"),
	}
	tree := BuildTree(items, 1)
	InitializeCollapsedState(tree, 1)
	FindNode(tree, 1).Collapsed = false
	FindNode(tree, 1).ForceExpanded = true
	FindNode(tree, 4).Collapsed = false

	snap := CaptureState(tree)

	fresh := BuildTree(items, 1)
	InitializeCollapsedState(fresh, 6)
	RestoreState(fresh, snap)

	before, after := Flatten(tree), Flatten(fresh)
	for i := range before {
		if before[i].Collapsed != after[i].Collapsed || before[i].ForceExpanded != after[i].ForceExpanded {
			t.Errorf("node %q: expected collapsed=%v forceExpanded=%v, got collapsed=%v forceExpanded=%v",
				before[i].Text, before[i].Collapsed, before[i].ForceExpanded, after[i].Collapsed, after[i].ForceExpanded)
		}
	}
}

func TestRestoreState_NodeThatGainedChildrenStaysOpen(t *testing.T) {
	old := BuildTree([]Item{heading(1, "A"), heading(1, "Streaming")}, 1)
	// A leaf carrying a stale collapsed flag.
	old[1].Collapsed = true
	snap := CaptureState(old)

	grown := BuildTree([]Item{heading(1, "A"), heading(1, "Streaming"), heading(2, "New part")}, 1)
	InitializeCollapsedState(grown, 6)
	RestoreState(grown, snap)

	if grown[1].Collapsed {
		t.Error("expected node that just gained children to stay expanded")
	}
}

func TestRestoreState_LeafKeepsFlag(t *testing.T) {
	old := BuildTree([]Item{heading(1, "Leaf")}, 1)
	old[0].Collapsed = true
	snap := CaptureState(old)

	again := BuildTree([]Item{heading(1, "Leaf")}, 1)
	RestoreState(again, snap)
	if !again[0].Collapsed {
		t.Error("expected a node that is still a leaf to take the captured flag")
	}
}

func TestRestoreState_DuplicateKeysShareState(t *testing.T) {
	items := []Item{
		heading(1, "Summary"), heading(2, "x"),
		heading(1, "Summary"), heading(2, "y"),
	}
	tree := BuildTree(items, 1)
	tree[0].Collapsed = true
	tree[1].Collapsed = true
	snap := CaptureState(tree)
	if len(snap) != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", len(snap))
	}

	fresh := BuildTree(items, 1)
	RestoreState(fresh, snap)
	if !fresh[0].Collapsed || !fresh[1].Collapsed {
		t.Error("expected both same-titled headings to receive the shared state")
	}
}

func TestManager_RefreshPreservesManualState(t *testing.T) {
	m, a := newTestManager(sampleItems())
	m.SetLevel(1)
	if !m.State().Tree[0].Collapsed {
		t.Fatal("expected A collapsed at level 1")
	}
	m.ToggleIndex(0)

	a.setItems(append(sampleItems(), heading(2, "E")))
	m.Refresh()

	st := m.State()
	if st.Tree[0].Collapsed || !st.Tree[0].ForceExpanded {
		t.Errorf("expected manual expansion of A to survive rebuild, got %+v", st.Tree[0])
	}
	if !st.Tree[1].Collapsed {
		t.Error("expected D, which just gained a child, to be derived collapsed at level 1")
	}
}

func TestManager_StateIsACopy(t *testing.T) {
	m, _ := newTestManager(sampleItems())
	m.SetLevel(1)

	st := m.State()
	st.Tree[0].Collapsed = false
	st.Tree[0].Children = nil
	if got := m.State().Tree[0]; !got.Collapsed || len(got.Children) != 2 {
		t.Errorf("expected engine tree untouched by snapshot edits, got collapsed=%v children=%d", got.Collapsed, len(got.Children))
	}

	before := m.State()
	m.SetLevel(2)
	if !before.Tree[0].Collapsed {
		t.Error("expected an earlier snapshot to keep its own flags")
	}
}

func TestManager_ConcurrentStateReads(t *testing.T) {
	m, _ := newTestManager(sampleItems())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 2000 {
			m.SetLevel(i%3 + 1)
			m.ToggleIndex(i % 4)
			if i%50 == 0 {
				m.SetSearchQuery("b")
				m.SetSearchQuery("")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range 2000 {
			VisibleRows(m.State())
		}
	}()
	wg.Wait()
}
