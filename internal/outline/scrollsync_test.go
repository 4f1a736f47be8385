package outline

import "testing"

func itemsWithElements(texts []string, tops []float64) ([]Item, []*fakeElement) {
	items := make([]Item, len(texts))
	els := make([]*fakeElement, len(texts))
	for i, text := range texts {
		els[i] = &fakeElement{top: tops[i], bottom: tops[i] + 10, text: text}
		level := 1
		if i%2 == 1 {
			level = 2
		}
		items[i] = Item{Level: level, Text: text, Element: els[i]}
	}
	return items, els
}

func TestFindVisibleItemIndex_TopInRange(t *testing.T) {
	items, _ := itemsWithElements([]string{"A", "B", "C", "D"}, []float64{0, 20, 40, 60})
	m, _ := newTestManager(items)

	tests := []struct {
		top, bottom float64
		want        int
		ok          bool
	}{
		{0, 15, 0, true},
		{15, 35, 1, true},
		{38, 100, 2, true},
		{45, 55, 2, true},  // C straddles the viewport top
		{51, 55, 0, false}, // gap between C and D
		{200, 300, 0, false},
	}
	for _, tt := range tests {
		got, ok := m.FindVisibleItemIndex(tt.top, tt.bottom)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("viewport [%v,%v): expected (%d,%v), got (%d,%v)", tt.top, tt.bottom, tt.want, tt.ok, got, ok)
		}
	}
}

func TestFindVisibleItemIndex_PrefersTopOverStraddle(t *testing.T) {
	items, els := itemsWithElements([]string{"A", "B"}, []float64{0, 30})
	els[0].bottom = 100
	m, _ := newTestManager(items)

	got, ok := m.FindVisibleItemIndex(20, 50)
	if !ok || got != 1 {
		t.Errorf("expected B (top in range) over straddling A, got (%d,%v)", got, ok)
	}
}

func TestFindVisibleItemIndex_ReResolvesStaleElements(t *testing.T) {
	items, els := itemsWithElements([]string{"A", "B"}, []float64{0, 20})
	m, a := newTestManager(items)

	els[1].detached = true
	fresh := &fakeElement{top: 25, bottom: 35}
	a.lookup["B"] = fresh

	got, ok := m.FindVisibleItemIndex(22, 40)
	if !ok || got != 1 {
		t.Fatalf("expected B via adapter lookup, got (%d,%v)", got, ok)
	}
	if FindNode(m.State().Tree, 1).Element != Element(fresh) {
		t.Error("expected the re-resolved element to be stored on the node")
	}
}

func TestFindVisibleItemIndex_RetriesOnceAfterRefresh(t *testing.T) {
	items, els := itemsWithElements([]string{"A", "B"}, []float64{0, 20})
	m, a := newTestManager(items)

	// The page re-rendered: old elements are gone, the adapter now
	// extracts fresh ones, and lookups fail.
	els[0].detached = true
	els[1].detached = true
	freshItems, _ := itemsWithElements([]string{"A", "B"}, []float64{100, 120})
	a.setItems(freshItems)

	before := a.extracts
	got, ok := m.FindVisibleItemIndex(118, 140)
	if !ok || got != 1 {
		t.Fatalf("expected B after the refresh retry, got (%d,%v)", got, ok)
	}
	if a.extracts != before+1 {
		t.Errorf("expected exactly one extra extraction, got %d", a.extracts-before)
	}
}

func TestFindVisibleItemIndex_GivesUpAfterOneRetry(t *testing.T) {
	items, els := itemsWithElements([]string{"A"}, []float64{0})
	m, a := newTestManager(items)
	els[0].detached = true

	before := a.extracts
	if _, ok := m.FindVisibleItemIndex(0, 10); ok {
		t.Error("expected no result when nothing can be resolved")
	}
	if a.extracts != before+1 {
		t.Errorf("expected a single retry, got %d extractions", a.extracts-before)
	}
}

func TestFindVisibleItemIndex_FollowModes(t *testing.T) {
	items, _ := itemsWithElements([]string{"A", "B", "C"}, []float64{0, 20, 40})
	m, a := newTestManager(items)
	a.container = &fakeElement{top: 18, bottom: 30}

	if got, ok := m.CurrentItemIndex(); !ok || got != 1 {
		t.Errorf("current mode: expected 1, got (%d,%v)", got, ok)
	}

	s := m.Settings()
	s.FollowMode = FollowLatest
	m.UpdateSettings(s)
	if got, ok := m.CurrentItemIndex(); !ok || got != 2 {
		t.Errorf("latest mode: expected 2, got (%d,%v)", got, ok)
	}
	if _, ok := m.FindVisibleItemIndex(0, 100); ok {
		t.Error("expected scroll sync inactive outside current mode")
	}

	s.FollowMode = FollowManual
	m.UpdateSettings(s)
	if _, ok := m.CurrentItemIndex(); ok {
		t.Error("manual mode: expected no follow target")
	}
}

func TestFindVisibleItemIndex_UserQueryTextMismatch(t *testing.T) {
	el := &fakeElement{top: 0, bottom: 10, text: "something else entirely"}
	items := []Item{{Level: UserQueryLevel, Text: "how do I", IsUserQuery: true, Element: el}}
	a := &fakeAdapter{items: items, lookup: map[string]*fakeElement{}}
	s := DefaultSettings()
	s.ShowUserQueries = true
	m := New(a, s)
	m.Refresh()

	a.lookup["how do I"] = &fakeElement{top: 50, bottom: 60, text: "how do I deploy"}
	got, ok := m.FindVisibleItemIndex(45, 70)
	if !ok || got != 0 {
		t.Errorf("expected query re-resolved to its real element, got (%d,%v)", got, ok)
	}
}
