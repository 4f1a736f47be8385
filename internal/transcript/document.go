// Package transcript holds a live chat transcript: the messages, their
// rendered blocks laid out in rows, a scrollable viewport and the signals
// a page would give off while an answer is being generated.
package transcript

import (
	"slices"
	"sync"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/dgallion1/outlinesync/internal/parser"
)

// DefaultWidth is the layout width in columns.
const DefaultWidth = 80

// Block is one rendered block of a message. Its coordinates are rows from
// the top of the document. A block stays valid until its message is
// re-rendered, after which it reports Connected() == false.
type Block struct {
	doc       *Document
	kind      chat.BlockKind
	level     int
	text      string
	top       float64
	bottom    float64
	connected bool
}

// Connected reports whether the block is still part of the document.
func (b *Block) Connected() bool {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	return b.connected
}

// Bounds returns the block's top and bottom rows.
func (b *Block) Bounds() (top, bottom float64) {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	return b.top, b.bottom
}

func (b *Block) Kind() chat.BlockKind { return b.kind }
func (b *Block) Level() int           { return b.level }
func (b *Block) Text() string         { return b.text }

type entry struct {
	msg    chat.Message
	blocks []*Block
}

// Document is safe for concurrent use. Observers are called after every
// mutation, outside the document lock.
type Document struct {
	mu        sync.Mutex
	width     int
	entries   []*entry
	streaming bool
	scrollTop float64
	height    float64
	rows      float64
	view      *viewport

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int
}

// New creates an empty document laid out at width columns.
func New(width int) *Document {
	if width <= 0 {
		width = DefaultWidth
	}
	d := &Document{
		width:     width,
		height:    24,
		observers: make(map[int]func()),
	}
	d.view = &viewport{doc: d}
	return d
}

// Replace sets the whole transcript. Messages identical to the ones
// already present keep their blocks; everything from the first difference
// on is re-rendered.
func (d *Document) Replace(msgs []chat.Message) {
	d.mu.Lock()
	keep := 0
	for keep < len(d.entries) && keep < len(msgs) && sameMessage(d.entries[keep].msg, msgs[keep]) {
		keep++
	}
	if keep == len(d.entries) && keep == len(msgs) {
		d.mu.Unlock()
		return
	}
	for _, e := range d.entries[keep:] {
		detach(e.blocks)
	}
	d.entries = d.entries[:keep]
	for _, m := range msgs[keep:] {
		e := &entry{msg: normalize(m)}
		d.renderLocked(e)
		d.entries = append(d.entries, e)
	}
	d.layoutLocked()
	d.mu.Unlock()
	d.notify()
}

// AppendMessage adds a turn. Assistant content is read as Markdown. It
// returns the index of the new message.
func (d *Document) AppendMessage(role chat.Role, content string) int {
	var msg chat.Message
	if role == chat.RoleUser {
		msg = chat.UserMessage(content)
	} else {
		msg = chat.Message{Role: chat.RoleAssistant, Content: content}
	}

	d.mu.Lock()
	e := &entry{msg: normalize(msg)}
	d.renderLocked(e)
	d.entries = append(d.entries, e)
	idx := len(d.entries) - 1
	d.layoutLocked()
	d.mu.Unlock()
	d.notify()
	return idx
}

// AppendChunk streams content into the last assistant message, starting
// one if the transcript does not end with an assistant turn. The message
// is re-rendered, so its previous blocks are detached.
func (d *Document) AppendChunk(content string) {
	d.mu.Lock()
	var e *entry
	if n := len(d.entries); n > 0 && d.entries[n-1].msg.Role == chat.RoleAssistant {
		e = d.entries[n-1]
		detach(e.blocks)
		e.msg.Content += content
		e.msg.Blocks = nil
		e.msg = normalize(e.msg)
	} else {
		e = &entry{msg: normalize(chat.Message{Role: chat.RoleAssistant, Content: content})}
		d.entries = append(d.entries, e)
	}
	d.renderLocked(e)
	d.layoutLocked()
	d.mu.Unlock()
	d.notify()
}

// StartGeneration marks an answer as being streamed.
func (d *Document) StartGeneration() { d.setStreaming(true) }

// CompleteGeneration marks the streamed answer as finished.
func (d *Document) CompleteGeneration() { d.setStreaming(false) }

func (d *Document) setStreaming(v bool) {
	d.mu.Lock()
	changed := d.streaming != v
	d.streaming = v
	d.mu.Unlock()
	if changed {
		d.notify()
	}
}

// IsGenerating reports whether an answer is being streamed.
func (d *Document) IsGenerating() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// ScrollTo moves the viewport, clamped to the document. Scrolling is not
// a mutation and does not notify observers.
func (d *Document) ScrollTo(top float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrollTop = top
	d.clampLocked()
}

// SetViewportHeight resizes the viewport.
func (d *Document) SetViewportHeight(h float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h > 0 {
		d.height = h
	}
	d.clampLocked()
}

// Viewport returns the visible row range.
func (d *Document) Viewport() (top, bottom float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrollTop, d.scrollTop + d.height
}

// Rows returns the laid out height of the document.
func (d *Document) Rows() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Messages returns a copy of the transcript.
func (d *Document) Messages() []chat.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]chat.Message, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.msg
		out[i].Blocks = slices.Clone(e.msg.Blocks)
	}
	return out
}

// Len returns the number of messages.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Observe registers fn to be called after every mutation.
func (d *Document) Observe(fn func()) (disconnect func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}
}

func (d *Document) notify() {
	d.obsMu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (d *Document) renderLocked(e *entry) {
	e.blocks = e.blocks[:0:0]
	for _, b := range e.msg.Blocks {
		e.blocks = append(e.blocks, &Block{
			doc:       d,
			kind:      b.Kind,
			level:     b.Level,
			text:      b.Text,
			connected: true,
		})
	}
}

func (d *Document) clampLocked() {
	maxTop := d.rows - d.height
	if maxTop < 0 {
		maxTop = 0
	}
	d.scrollTop = min(max(d.scrollTop, 0), maxTop)
}

// normalize fills in rendered blocks for messages that only carry source.
func normalize(m chat.Message) chat.Message {
	if len(m.Blocks) > 0 || m.Content == "" {
		return m
	}
	if m.Role == chat.RoleUser {
		return chat.UserMessage(m.Content)
	}
	m.Blocks = parser.MarkdownBlocks([]byte(m.Content))
	return m
}

func sameMessage(a, b chat.Message) bool {
	b = normalize(b)
	return a.Role == b.Role && a.Content == b.Content && slices.Equal(a.Blocks, b.Blocks)
}

func detach(blocks []*Block) {
	for _, b := range blocks {
		b.connected = false
	}
}

// viewport is the scroll container element.
type viewport struct{ doc *Document }

func (v *viewport) Connected() bool { return true }

func (v *viewport) Bounds() (top, bottom float64) { return v.doc.Viewport() }
