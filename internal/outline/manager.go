package outline

import (
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Timings controls the scheduler delays.
type Timings struct {
	Debounce       time.Duration
	PostGeneration time.Duration
	Fallback       time.Duration
}

// DefaultTimings returns the delays used when none are configured.
func DefaultTimings() Timings {
	return Timings{
		Debounce:       300 * time.Millisecond,
		PostGeneration: 500 * time.Millisecond,
		Fallback:       3 * time.Second,
	}
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

func WithLogger(log *slog.Logger) Option { return func(m *Manager) { m.log = log } }

func WithMutationSource(src MutationSource) Option {
	return func(m *Manager) { m.source = src }
}

// WithTimings overrides scheduler delays; zero fields keep their defaults.
func WithTimings(t Timings) Option {
	return func(m *Manager) {
		if t.Debounce > 0 {
			m.timings.Debounce = t.Debounce
		}
		if t.PostGeneration > 0 {
			m.timings.PostGeneration = t.PostGeneration
		}
		if t.Fallback > 0 {
			m.timings.Fallback = t.Fallback
		}
	}
}

// WithExpandLevelCallback is called when a user action changes the expand level.
func WithExpandLevelCallback(fn func(level int)) Option {
	return func(m *Manager) { m.onExpandLevelChange = fn }
}

// WithShowUserQueriesCallback is called when a user action toggles user queries.
func WithShowUserQueriesCallback(fn func(show bool)) Option {
	return func(m *Manager) { m.onShowUserQueriesChange = fn }
}

// WithRefreshObserver is called after every structural rebuild with its
// duration and the number of items extracted. It runs under the engine
// lock and must not call back into the Manager.
func WithRefreshObserver(fn func(d time.Duration, items int)) Option {
	return func(m *Manager) { m.onRebuild = fn }
}

// Manager owns the outline tree of one transcript and keeps it in sync.
type Manager struct {
	mu sync.Mutex

	adapter Adapter
	source  MutationSource
	clock   Clock
	log     *slog.Logger
	timings Timings

	onExpandLevelChange     func(int)
	onShowUserQueriesChange func(bool)
	onRebuild               func(time.Duration, int)

	settings Settings

	tree               []*Node
	treeKey            string // cleared to force the next refresh to rebuild
	contentKey         string // signature of the last extracted content
	expandLevel        int
	levelCounts        map[int]int
	isAllExpanded      bool
	includeUserQueries bool

	searchQuery          string
	matchCount           int
	searchLevelManual    bool
	preSearchState       StateSnapshot
	preSearchExpandLevel int

	reveal *revealMark

	sched scheduler

	subMu     sync.Mutex
	listeners map[int]func()
	nextSubID int
}

// New creates a Manager. No extraction happens until Refresh or SetActive.
func New(adapter Adapter, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		adapter:            adapter,
		clock:              SystemClock{},
		log:                slog.New(slog.DiscardHandler),
		timings:            DefaultTimings(),
		settings:           settings,
		expandLevel:        settings.ExpandLevel,
		levelCounts:        map[int]int{},
		includeUserQueries: settings.ShowUserQueries,
		listeners:          make(map[int]func()),
	}
	m.sched.wake = make(chan struct{}, 1)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot. The tree is copied under the lock, so callers
// may read it while the engine keeps changing.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	minRel := 1
	if m.includeUserQueries {
		minRel = 0
	}
	return State{
		Tree:               cloneTree(m.tree),
		ExpandLevel:        m.expandLevel,
		LevelCounts:        maps.Clone(m.levelCounts),
		IsAllExpanded:      m.isAllExpanded,
		IncludeUserQueries: m.includeUserQueries,
		MinRelativeLevel:   minRel,
		DisplayLevel:       m.displayLevelLocked(),
		SearchLevelManual:  m.searchLevelManual,
		MatchCount:         m.matchCount,
		SearchQuery:        m.searchQuery,
	}
}

// displayLevelLocked is the level the tree is effectively shown at: the
// expand level, or everything while an automatic search is active.
func (m *Manager) displayLevelLocked() int {
	if m.searchQuery != "" && !m.searchLevelManual {
		return max(maxLevelKey(m.levelCounts), 1)
	}
	return m.expandLevel
}

// Settings returns the settings currently in effect.
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settings
	s.ExpandLevel = m.expandLevel
	s.ShowUserQueries = m.includeUserQueries
	return s
}

// Subscribe registers fn to run after every state change. Listeners take
// no arguments; they re-read State.
func (m *Manager) Subscribe(fn func()) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.listeners[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.listeners, id)
			m.subMu.Unlock()
		})
	}
}

func (m *Manager) notify() {
	m.subMu.Lock()
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Refresh re-extracts the outline and rebuilds the tree if the content
// changed.
func (m *Manager) Refresh() {
	m.mu.Lock()
	changed := m.refreshLocked(false, nil)
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// RefreshWithLevel rebuilds unconditionally at the given expand level,
// discarding per-node state.
func (m *Manager) RefreshWithLevel(level int) {
	m.mu.Lock()
	m.refreshLocked(true, &level)
	m.mu.Unlock()
	m.notify()
}

// refreshLocked reports whether the published state changed.
func (m *Manager) refreshLocked(force bool, overrideLevel *int) bool {
	if !m.settings.Enabled {
		if m.tree == nil && m.treeKey == "" {
			return false
		}
		m.tree = nil
		m.treeKey = ""
		m.contentKey = ""
		m.levelCounts = map[int]int{}
		m.matchCount = 0
		return true
	}

	start := m.clock.Now()
	items := m.adapter.ExtractOutline(m.settings.MaxLevel, m.includeUserQueries)
	key := Signature(items)

	if !force && overrideLevel == nil && key == m.treeKey {
		m.rebindElementsLocked(items)
		return false
	}
	contentChanged := key != m.contentKey

	var snap StateSnapshot
	if overrideLevel == nil {
		snap = CaptureState(m.tree)
	} else {
		m.expandLevel = *overrideLevel
	}

	m.levelCounts = CountLevels(items)
	tree := BuildTree(items, MinHeadingLevel(items))
	InitializeCollapsedState(tree, m.expandLevel)
	RestoreState(tree, snap)
	if tree == nil {
		tree = []*Node{}
	}

	m.tree = tree
	m.treeKey = key
	m.contentKey = key
	if m.searchQuery != "" {
		m.matchCount = performSearch(m.tree, m.searchQuery)
	}
	m.reapplyRevealLocked()
	m.isAllExpanded = m.expandLevel >= max(maxLevelKey(m.levelCounts), 1)

	if contentChanged {
		m.sched.lastChange = start
		m.armFallbackLocked(start)
	}

	elapsed := m.clock.Now().Sub(start)
	m.log.Debug("outline rebuilt",
		"items", len(items),
		"forced", force,
		"content_changed", contentChanged,
		"duration_ms", elapsed.Milliseconds(),
	)
	if m.onRebuild != nil {
		m.onRebuild(elapsed, len(items))
	}
	return true
}

// rebindElementsLocked refreshes element references when the content is
// unchanged; the page may have re-rendered the same headings.
func (m *Manager) rebindElementsLocked(items []Item) {
	walk(m.tree, func(n *Node) {
		if n.Index < len(items) {
			n.Element = items[n.Index].Element
		}
	})
}

// SetShowUserQueries toggles user-query rows and rebuilds.
func (m *Manager) SetShowUserQueries(show bool) {
	m.mu.Lock()
	if m.includeUserQueries == show {
		m.mu.Unlock()
		return
	}
	m.includeUserQueries = show
	m.settings.ShowUserQueries = show
	m.refreshLocked(true, nil)
	cb := m.onShowUserQueriesChange
	m.mu.Unlock()

	if cb != nil {
		cb(show)
	}
	m.notify()
}

// UpdateSettings applies settings supplied by the host. Host callbacks are
// not invoked since the host already knows the values.
func (m *Manager) UpdateSettings(s Settings) {
	m.mu.Lock()
	old := m.settings
	m.settings = s

	changed := false
	rebuild := old.Enabled != s.Enabled || old.MaxLevel != s.MaxLevel
	if s.ShowUserQueries != m.includeUserQueries {
		m.includeUserQueries = s.ShowUserQueries
		rebuild = true
	}
	if rebuild {
		changed = m.refreshLocked(true, nil)
	}
	if s.ExpandLevel != m.expandLevel {
		m.applyLevelLocked(s.ExpandLevel)
		changed = true
	}
	m.syncSchedulerLocked()
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}
