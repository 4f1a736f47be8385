// Package settings persists the user's outline preferences.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides, e.g. OUTLINE_EXPAND_LEVEL=2.
const EnvPrefix = "OUTLINE_"

// Settings mirrors outline.Settings in its persisted form.
type Settings struct {
	Enabled         bool   `yaml:"enabled" koanf:"enabled" json:"enabled"`
	AutoUpdate      bool   `yaml:"auto_update" koanf:"auto_update" json:"auto_update"`
	MaxLevel        int    `yaml:"max_level" koanf:"max_level" json:"max_level"`
	ExpandLevel     int    `yaml:"expand_level" koanf:"expand_level" json:"expand_level"`
	ShowUserQueries bool   `yaml:"show_user_queries" koanf:"show_user_queries" json:"show_user_queries"`
	FollowMode      string `yaml:"follow_mode" koanf:"follow_mode" json:"follow_mode"`
}

// Default returns the settings of a fresh install.
func Default() Settings {
	return FromOutline(outline.DefaultSettings())
}

// FromOutline converts engine settings.
func FromOutline(s outline.Settings) Settings {
	return Settings{
		Enabled:         s.Enabled,
		AutoUpdate:      s.AutoUpdate,
		MaxLevel:        s.MaxLevel,
		ExpandLevel:     s.ExpandLevel,
		ShowUserQueries: s.ShowUserQueries,
		FollowMode:      string(s.FollowMode),
	}
}

// Outline converts to engine settings.
func (s Settings) Outline() outline.Settings {
	return outline.Settings{
		Enabled:         s.Enabled,
		AutoUpdate:      s.AutoUpdate,
		MaxLevel:        s.MaxLevel,
		ExpandLevel:     s.ExpandLevel,
		ShowUserQueries: s.ShowUserQueries,
		FollowMode:      outline.FollowMode(s.FollowMode),
	}
}

var validFollowModes = map[string]bool{
	string(outline.FollowCurrent): true,
	string(outline.FollowLatest):  true,
	string(outline.FollowManual):  true,
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.MaxLevel < 1 || s.MaxLevel > 6 {
		return fmt.Errorf("max_level must be between 1 and 6, got %d", s.MaxLevel)
	}
	if s.ExpandLevel < 0 || s.ExpandLevel > 6 {
		return fmt.Errorf("expand_level must be between 0 and 6, got %d", s.ExpandLevel)
	}
	if !validFollowModes[s.FollowMode] {
		return fmt.Errorf("invalid follow_mode %q: must be one of current, latest, manual", s.FollowMode)
	}
	return nil
}

// Load reads settings from the YAML file at path, if it exists, then
// overlays OUTLINE_* environment variables.
func Load(path string) (Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("accessing settings %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("loading env overrides: %w", err)
	}

	s := Default()
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshalling settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes the settings to path as YAML.
func (s Settings) Save(path string) error {
	data, err := yamlv3.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	return nil
}

// Store holds the current settings and persists changes. An empty path
// keeps settings in memory only.
type Store struct {
	mu   sync.Mutex
	path string
	cur  Settings
	log  *slog.Logger
}

// NewStore loads the settings at path.
func NewStore(path string, log *slog.Logger) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, cur: s, log: log}, nil
}

// Get returns the current settings.
func (st *Store) Get() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cur
}

// Update validates and persists a complete settings value.
func (st *Store) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.path != "" {
		if err := s.Save(st.path); err != nil {
			return err
		}
	}
	st.cur = s
	return nil
}

// SetExpandLevel records a level chosen in the outline. Persistence is
// best effort.
func (st *Store) SetExpandLevel(level int) {
	st.modify("expand_level", func(s *Settings) { s.ExpandLevel = level })
}

// SetShowUserQueries records the user-query toggle.
func (st *Store) SetShowUserQueries(show bool) {
	st.modify("show_user_queries", func(s *Settings) { s.ShowUserQueries = show })
}

func (st *Store) modify(field string, fn func(*Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.cur)
	if st.path == "" {
		return
	}
	if err := st.cur.Save(st.path); err != nil {
		st.log.Warn("persist settings failed", "field", field, "error", err)
	}
}
