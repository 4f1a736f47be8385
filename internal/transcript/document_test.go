package transcript

import (
	"strings"
	"testing"

	"github.com/dgallion1/outlinesync/internal/chat"
)

func TestDocument_Layout(t *testing.T) {
	d := New(20)
	d.AppendMessage(chat.RoleUser, "short")
	d.AppendMessage(chat.RoleAssistant, "# Title\n\n"+strings.Repeat("word ", 10))

	a := NewAdapter(d)
	items := a.ExtractOutline(6, true)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	top, bottom := items[1].Element.Bounds()
	if top != 2 || bottom != 3 {
		t.Errorf("expected heading at rows [2,3), got [%v,%v)", top, bottom)
	}
	// 50 columns of text wrapped at 20 is three lines.
	if got := d.Rows(); got != 2+2+4 {
		t.Errorf("expected 8 rows, got %v", got)
	}
}

func TestDocument_ChunkDetachesPreviousBlocks(t *testing.T) {
	d := New(80)
	d.StartGeneration()
	d.AppendChunk("# Plan\n\n")
	first := NewAdapter(d).ExtractOutline(6, false)
	if len(first) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(first))
	}

	d.AppendChunk("## Step one\n")
	if first[0].Element.Connected() {
		t.Error("expected the re-rendered message to detach its old blocks")
	}
	msgs := d.Messages()
	if len(msgs) != 1 || msgs[0].Content != "# Plan\n\n## Step one\n" {
		t.Fatalf("expected chunks merged into one message, got %+v", msgs)
	}
	if got := NewAdapter(d).ExtractOutline(6, false); len(got) != 2 {
		t.Errorf("expected 2 headings after streaming, got %d", len(got))
	}
}

func TestDocument_ChunkAfterUserStartsAnswer(t *testing.T) {
	d := New(80)
	d.AppendMessage(chat.RoleUser, "q")
	d.AppendChunk("# A")
	if d.Len() != 2 {
		t.Errorf("expected a new assistant message, got %d messages", d.Len())
	}
}

func TestDocument_ReplaceKeepsUnchangedPrefix(t *testing.T) {
	d := New(80)
	msgs := []chat.Message{
		chat.UserMessage("q1"),
		{Role: chat.RoleAssistant, Content: "# One"},
	}
	d.Replace(msgs)
	before := NewAdapter(d).ExtractOutline(6, true)

	var calls int
	d.Observe(func() { calls++ })
	d.Replace(msgs)
	if calls != 0 {
		t.Error("expected an identical replace not to notify")
	}

	d.Replace(append(msgs, chat.UserMessage("q2")))
	if calls != 1 {
		t.Errorf("expected one notification, got %d", calls)
	}
	for _, it := range before {
		if !it.Element.Connected() {
			t.Errorf("expected %q to stay connected", it.Text)
		}
	}

	d.Replace(msgs[:1])
	if before[1].Element.Connected() {
		t.Error("expected the dropped message's blocks to be detached")
	}
}

func TestDocument_GenerationNotifiesOnChange(t *testing.T) {
	d := New(80)
	var calls int
	disconnect := d.Observe(func() { calls++ })
	d.StartGeneration()
	d.StartGeneration()
	if !d.IsGenerating() || calls != 1 {
		t.Errorf("expected one notification for start, got %d", calls)
	}
	d.CompleteGeneration()
	disconnect()
	d.StartGeneration()
	if calls != 2 {
		t.Errorf("expected no notification after disconnect, got %d", calls)
	}
}

func TestDocument_ScrollClamps(t *testing.T) {
	d := New(80)
	for i := 0; i < 10; i++ {
		d.AppendMessage(chat.RoleUser, "q")
	}
	d.SetViewportHeight(5)
	d.ScrollTo(1000)
	top, bottom := d.Viewport()
	if top != d.Rows()-5 || bottom != d.Rows() {
		t.Errorf("expected viewport clamped to the end, got [%v,%v)", top, bottom)
	}
	d.ScrollTo(-3)
	if top, _ := d.Viewport(); top != 0 {
		t.Errorf("expected viewport clamped to 0, got %v", top)
	}
}
