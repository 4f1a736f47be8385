package transcript

import (
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/muesli/reflow/wordwrap"
)

// blockGap is the number of blank rows between blocks.
const blockGap = 1

// layoutLocked assigns rows to every connected block. Text is wrapped at
// the document width; code is never wrapped.
func (d *Document) layoutLocked() {
	var y float64
	for _, e := range d.entries {
		for _, b := range e.blocks {
			h := float64(lineCount(b.kind, b.text, d.width))
			b.top = y
			b.bottom = y + h
			y += h + blockGap
		}
	}
	d.rows = y
	d.clampLocked()
}

func lineCount(kind chat.BlockKind, text string, width int) int {
	if text == "" {
		return 1
	}
	if kind != chat.KindCode {
		text = wordwrap.String(text, width)
	}
	return strings.Count(text, "\n") + 1
}
