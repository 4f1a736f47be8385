package transcript

import (
	"strings"
	"testing"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/dgallion1/outlinesync/internal/outline"
)

func sampleDocument() *Document {
	d := New(80)
	d.AppendMessage(chat.RoleUser, "how?")
	d.AppendMessage(chat.RoleAssistant, "# A\n\npara\n\n## B\n\ntext\n\n#### Deep")
	return d
}

func TestAdapter_ExtractOutline(t *testing.T) {
	a := NewAdapter(sampleDocument())

	items := a.ExtractOutline(2, false)
	if len(items) != 2 || items[0].Text != "A" || items[1].Level != 2 {
		t.Fatalf("expected [A B] up to level 2, got %+v", items)
	}

	items = a.ExtractOutline(6, true)
	if len(items) != 4 {
		t.Fatalf("expected query plus 3 headings, got %d", len(items))
	}
	if !items[0].IsUserQuery || items[0].Level != outline.UserQueryLevel || items[0].Text != "how?" {
		t.Errorf("expected leading user query, got %+v", items[0])
	}
}

func TestAdapter_TruncatesLongQueries(t *testing.T) {
	d := New(80)
	long := strings.Repeat("abcd ", 40)
	d.AppendMessage(chat.RoleUser, long)
	a := NewAdapter(d)

	items := a.ExtractOutline(6, true)
	if len(items) != 1 || !items[0].IsTruncated || !strings.HasSuffix(items[0].Text, "…") {
		t.Fatalf("expected a truncated query label, got %+v", items)
	}
	if el := a.FindUserQueryElement(1, items[0].Text); el != items[0].Element {
		t.Error("expected the truncated label to resolve to its block")
	}
	if got := a.ExtractUserQueryText(items[0].Element); got != strings.TrimSpace(long) {
		t.Errorf("expected the full query text, got %q", got)
	}
}

func TestAdapter_FindUserQueryElement(t *testing.T) {
	d := New(80)
	d.AppendMessage(chat.RoleUser, "first")
	d.AppendMessage(chat.RoleUser, "second")
	a := NewAdapter(d)
	items := a.ExtractOutline(6, true)

	if el := a.FindUserQueryElement(2, "second"); el != items[1].Element {
		t.Error("expected ordinal lookup to hit the second query")
	}
	if el := a.FindUserQueryElement(1, "second"); el != items[1].Element {
		t.Error("expected text fallback when the ordinal does not match")
	}
	if el := a.FindUserQueryElement(1, "missing"); el != nil {
		t.Error("expected nil for an unknown query")
	}
}

func TestAdapter_DrivesScrollSync(t *testing.T) {
	d := sampleDocument()
	d.SetViewportHeight(3)
	s := outline.DefaultSettings()
	s.ShowUserQueries = true
	m := outline.New(NewAdapter(d), s)
	m.Refresh()

	// Rows: query [0,1) A [2,3) para [4,5) B [6,7) text [8,9) Deep [10,11).
	d.ScrollTo(5.5)
	if got, ok := m.CurrentItemIndex(); !ok || got != 2 {
		t.Errorf("expected B in view, got (%d,%v)", got, ok)
	}
	d.ScrollTo(2.5)
	if got, ok := m.CurrentItemIndex(); !ok || got != 1 {
		t.Errorf("expected A straddling the viewport top, got (%d,%v)", got, ok)
	}

	// Streaming more content re-renders the answer; stale blocks are
	// resolved again through the adapter.
	d.AppendChunk("\n\n## C")
	d.ScrollTo(5.5)
	if got, ok := m.CurrentItemIndex(); !ok || got != 2 {
		t.Errorf("expected B after re-render, got (%d,%v)", got, ok)
	}
}
