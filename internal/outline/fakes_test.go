package outline

import (
	"sync"
	"time"
)

type fakeElement struct {
	top, bottom float64
	detached    bool
	text        string
}

func (e *fakeElement) Connected() bool            { return !e.detached }
func (e *fakeElement) Bounds() (float64, float64) { return e.top, e.bottom }

type fakeAdapter struct {
	mu         sync.Mutex
	items      []Item
	generating bool
	extracts   int
	container  *fakeElement
	lookup     map[string]*fakeElement
}

func (a *fakeAdapter) ExtractOutline(maxLevel int, includeUserQueries bool) []Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extracts++
	var out []Item
	for _, it := range a.items {
		if it.IsUserQuery && !includeUserQueries {
			continue
		}
		if !it.IsUserQuery && it.Level > maxLevel {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (a *fakeAdapter) IsGenerating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generating
}

func (a *fakeAdapter) setGenerating(v bool) {
	a.mu.Lock()
	a.generating = v
	a.mu.Unlock()
}

func (a *fakeAdapter) setItems(items []Item) {
	a.mu.Lock()
	a.items = items
	a.mu.Unlock()
}

func (a *fakeAdapter) FindElementByHeading(level int, text string) Element {
	if el, ok := a.lookup[text]; ok {
		return el
	}
	return nil
}

func (a *fakeAdapter) FindUserQueryElement(queryIndex int, text string) Element {
	if el, ok := a.lookup[text]; ok {
		return el
	}
	return nil
}

func (a *fakeAdapter) ScrollContainer() Element {
	if a.container == nil {
		return nil
	}
	return a.container
}

func (a *fakeAdapter) ExtractUserQueryText(el Element) string {
	if fe, ok := el.(*fakeElement); ok {
		return fe.text
	}
	return ""
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSource struct {
	mu        sync.Mutex
	observers map[int]func()
	next      int
}

func (s *fakeSource) Observe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]func())
	}
	id := s.next
	s.next++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *fakeSource) fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func heading(level int, text string) Item {
	return Item{Level: level, Text: text}
}

func query(text string) Item {
	return Item{Level: UserQueryLevel, Text: text, IsUserQuery: true}
}

// sampleItems is A > [B, C], D.
func sampleItems() []Item {
	return []Item{heading(1, "A"), heading(2, "B"), heading(2, "C"), heading(1, "D")}
}

func newTestManager(items []Item, opts ...Option) (*Manager, *fakeAdapter) {
	a := &fakeAdapter{items: items, lookup: map[string]*fakeElement{}}
	m := New(a, DefaultSettings(), opts...)
	m.Refresh()
	return m, a
}
