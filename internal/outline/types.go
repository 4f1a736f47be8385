package outline

import "time"

// UserQueryLevel is the level reported for user-query items.
const UserQueryLevel = 0

// Element is a reference to a rendered block. The document owns it; the
// engine only reads it and must expect it to go stale at any time.
type Element interface {
	Connected() bool
	Bounds() (top, bottom float64)
}

// Item is one row produced by the adapter for a single refresh.
type Item struct {
	Level       int     `json:"level"`
	Text        string  `json:"text"`
	Element     Element `json:"-"`
	IsUserQuery bool    `json:"is_user_query,omitempty"`
	IsTruncated bool    `json:"is_truncated,omitempty"`
}

// Node is an outline entry. Nodes are rebuilt from scratch on every
// structural refresh; references held across a rebuild are stale.
type Node struct {
	Item

	Children      []*Node `json:"children"`
	RelativeLevel int     `json:"relative_level"`
	Index         int     `json:"index"`
	QueryIndex    int     `json:"query_index,omitempty"`

	Collapsed     bool `json:"collapsed"`
	ForceExpanded bool `json:"force_expanded,omitempty"`
	ForceVisible  bool `json:"force_visible,omitempty"`

	IsMatch              bool `json:"is_match,omitempty"`
	HasMatchedDescendant bool `json:"has_matched_descendant,omitempty"`
}

// Adapter is the boundary to the page (or document) being outlined.
type Adapter interface {
	// ExtractOutline returns items in document order; it may return nil.
	ExtractOutline(maxLevel int, includeUserQueries bool) []Item
	IsGenerating() bool
	FindElementByHeading(level int, text string) Element
	FindUserQueryElement(queryIndex int, text string) Element
	ScrollContainer() Element
	ExtractUserQueryText(el Element) string
}

// MutationSource delivers a coalescible "something changed" signal.
type MutationSource interface {
	Observe(fn func()) (disconnect func())
}

// FollowMode selects how the outline tracks the transcript viewport.
type FollowMode string

const (
	FollowCurrent FollowMode = "current"
	FollowLatest  FollowMode = "latest"
	FollowManual  FollowMode = "manual"
)

// Settings are the user-facing knobs the engine reads.
type Settings struct {
	Enabled         bool       `json:"enabled"`
	AutoUpdate      bool       `json:"auto_update"`
	MaxLevel        int        `json:"max_level"`
	ExpandLevel     int        `json:"expand_level"`
	ShowUserQueries bool       `json:"show_user_queries"`
	FollowMode      FollowMode `json:"follow_mode"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Enabled:         true,
		AutoUpdate:      true,
		MaxLevel:        6,
		ExpandLevel:     6,
		ShowUserQueries: false,
		FollowMode:      FollowCurrent,
	}
}

// State is a snapshot of the engine. Tree is a private copy: changing it
// does not affect the engine, and later engine changes do not show up in
// it.
type State struct {
	Tree               []*Node     `json:"tree"`
	ExpandLevel        int         `json:"expand_level"`
	LevelCounts        map[int]int `json:"level_counts"`
	IsAllExpanded      bool        `json:"is_all_expanded"`
	IncludeUserQueries bool        `json:"include_user_queries"`
	MinRelativeLevel   int         `json:"min_relative_level"`
	DisplayLevel       int         `json:"display_level"`
	SearchLevelManual  bool        `json:"search_level_manual"`
	MatchCount         int         `json:"match_count"`
	SearchQuery        string      `json:"search_query"`
}

// Clock abstracts time so the scheduler can run on a virtual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
