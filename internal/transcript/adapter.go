package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/dgallion1/outlinesync/internal/outline"
)

// queryPreviewRunes bounds the outline label of a user query.
const queryPreviewRunes = 80

// Adapter exposes a Document to the outline engine.
type Adapter struct {
	doc *Document
}

// NewAdapter returns an outline.Adapter over doc.
func NewAdapter(doc *Document) *Adapter {
	return &Adapter{doc: doc}
}

var _ outline.Adapter = (*Adapter)(nil)

// ExtractOutline lists assistant headings up to maxLevel and, when asked,
// one item per user query, in document order.
func (a *Adapter) ExtractOutline(maxLevel int, includeUserQueries bool) []outline.Item {
	d := a.doc
	d.mu.Lock()
	defer d.mu.Unlock()

	var items []outline.Item
	for _, e := range d.entries {
		if e.msg.Role == chat.RoleUser {
			if !includeUserQueries || len(e.blocks) == 0 {
				continue
			}
			label, truncated := queryLabel(e.msg.Text())
			if label == "" {
				continue
			}
			items = append(items, outline.Item{
				Level:       outline.UserQueryLevel,
				Text:        label,
				Element:     e.blocks[0],
				IsUserQuery: true,
				IsTruncated: truncated,
			})
			continue
		}
		for _, b := range e.blocks {
			if b.kind != chat.KindHeading || b.level > maxLevel {
				continue
			}
			text := strings.TrimSpace(b.text)
			if text == "" {
				continue
			}
			items = append(items, outline.Item{Level: b.level, Text: text, Element: b})
		}
	}
	return items
}

// IsGenerating reports whether an answer is streaming.
func (a *Adapter) IsGenerating() bool {
	return a.doc.IsGenerating()
}

// FindElementByHeading returns the first heading block with this level
// and text, or nil.
func (a *Adapter) FindElementByHeading(level int, text string) outline.Element {
	d := a.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		if e.msg.Role == chat.RoleUser {
			continue
		}
		for _, b := range e.blocks {
			if b.kind == chat.KindHeading && b.level == level && strings.TrimSpace(b.text) == text {
				return b
			}
		}
	}
	return nil
}

// FindUserQueryElement prefers the queryIndex-th user turn when its text
// still matches, then any user turn that matches.
func (a *Adapter) FindUserQueryElement(queryIndex int, text string) outline.Element {
	want := strings.TrimSpace(strings.TrimSuffix(text, "…"))
	d := a.doc
	d.mu.Lock()
	defer d.mu.Unlock()

	var queries []*entry
	for _, e := range d.entries {
		if e.msg.Role == chat.RoleUser && len(e.blocks) > 0 {
			queries = append(queries, e)
		}
	}
	matches := func(e *entry) bool {
		label, _ := queryLabel(e.msg.Text())
		return strings.HasPrefix(label, want)
	}
	if queryIndex >= 1 && queryIndex <= len(queries) && matches(queries[queryIndex-1]) {
		return queries[queryIndex-1].blocks[0]
	}
	for _, e := range queries {
		if matches(e) {
			return e.blocks[0]
		}
	}
	return nil
}

// ScrollContainer returns the document viewport.
func (a *Adapter) ScrollContainer() outline.Element {
	return a.doc.view
}

// ExtractUserQueryText returns the full text of a query block.
func (a *Adapter) ExtractUserQueryText(el outline.Element) string {
	b, ok := el.(*Block)
	if !ok {
		return ""
	}
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	return strings.Join(strings.Fields(b.text), " ")
}

// queryLabel collapses whitespace and shortens long queries.
func queryLabel(text string) (string, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= queryPreviewRunes {
		return text, false
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:queryPreviewRunes])) + "…", true
}
