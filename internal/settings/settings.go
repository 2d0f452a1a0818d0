package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nanophoto/nanophoto/internal/aspect"
	"github.com/nanophoto/nanophoto/internal/capture"
	"github.com/nanophoto/nanophoto/internal/judgement"
)

// Version is the current settings schema version. Older blobs are migrated
// forward on load.
const Version = 1

// Mode is the photoshoot mode hint passed to the critique.
type Mode string

const (
	ModePortraits  Mode = "Portraits"
	ModeLandscapes Mode = "Landscapes"
	ModeStreet     Mode = "Street"
	ModeProduct    Mode = "Product"
	ModeEvents     Mode = "Events"
	ModeFood       Mode = "Food"
	ModeOther      Mode = "Other"
)

// Modes returns the supported photoshoot modes in display order.
func Modes() []Mode {
	return []Mode{ModePortraits, ModeLandscapes, ModeStreet, ModeProduct, ModeEvents, ModeFood, ModeOther}
}

// ParseMode maps a label to a Mode, defaulting to Other.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModePortraits, ModeLandscapes, ModeStreet, ModeProduct, ModeEvents, ModeFood:
		return Mode(s)
	default:
		return ModeOther
	}
}

// Settings is one user's preference set.
type Settings struct {
	Version        int                    `json:"version"`
	Flipped        bool                   `json:"flipped"`
	AspectRatio    aspect.Key             `json:"aspectRatio"`
	ShowGuidelines bool                   `json:"showGuidelines"`
	Constraints    []judgement.Constraint `json:"constraints"`
	Mode           Mode                   `json:"mode"`
}

// Default returns the out-of-the-box preference set.
func Default() Settings {
	return Settings{
		Version:        Version,
		Flipped:        true,
		AspectRatio:    aspect.DefaultKey,
		ShowGuidelines: false,
		Constraints:    []judgement.Constraint{},
		Mode:           ModeOther,
	}
}

// normalize clamps unknown enum values back to their defaults and drops
// invalid constraints.
func (s *Settings) normalize() {
	s.Version = Version
	s.AspectRatio = aspect.Parse(string(s.AspectRatio))
	s.Mode = ParseMode(string(s.Mode))
	valid := s.Constraints[:0]
	for _, c := range s.Constraints {
		switch c {
		case judgement.ConstraintBackground, judgement.ConstraintProps, judgement.ConstraintLighting:
			valid = append(valid, c)
		}
	}
	if valid == nil {
		valid = []judgement.Constraint{}
	}
	s.Constraints = valid
}

// Store persists one user's settings to a JSON file. Every mutation is
// flushed synchronously.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
}

// Open loads settings from path, falling back to defaults when the file does
// not exist yet. Blobs with an older schema version are migrated forward.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Default()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	migrate(&loaded)
	loaded.normalize()
	s.current = loaded
	return s, nil
}

// migrate upgrades older settings blobs in place. Version 0 predates the
// version field and carries the same keys, so normalization is enough.
func migrate(s *Settings) {
	if s.Version < 1 {
		s.Version = 1
	}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Settings {
	cp := s.current
	cp.Constraints = append([]judgement.Constraint{}, s.current.Constraints...)
	return cp
}

// Update replaces the whole preference set and persists it.
func (s *Store) Update(next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next.normalize()
	s.current = next
	return s.saveLocked()
}

// SetFlipped updates the mirror preference.
func (s *Store) SetFlipped(v bool) error {
	return s.mutate(func(c *Settings) { c.Flipped = v })
}

// SetAspectRatio updates the capture aspect ratio.
func (s *Store) SetAspectRatio(k aspect.Key) error {
	return s.mutate(func(c *Settings) { c.AspectRatio = aspect.Parse(string(k)) })
}

// SetShowGuidelines toggles the viewfinder guideline overlay.
func (s *Store) SetShowGuidelines(v bool) error {
	return s.mutate(func(c *Settings) { c.ShowGuidelines = v })
}

// SetMode updates the photoshoot mode.
func (s *Store) SetMode(m Mode) error {
	return s.mutate(func(c *Settings) { c.Mode = ParseMode(string(m)) })
}

// AddConstraint adds a constraint if not already present.
func (s *Store) AddConstraint(c judgement.Constraint) error {
	return s.mutate(func(cur *Settings) {
		for _, existing := range cur.Constraints {
			if existing == c {
				return
			}
		}
		cur.Constraints = append(cur.Constraints, c)
	})
}

// RemoveConstraint drops a constraint.
func (s *Store) RemoveConstraint(c judgement.Constraint) error {
	return s.mutate(func(cur *Settings) {
		kept := cur.Constraints[:0]
		for _, existing := range cur.Constraints {
			if existing != c {
				kept = append(kept, existing)
			}
		}
		cur.Constraints = kept
	})
}

// ClearConstraints removes all constraints.
func (s *Store) ClearConstraints() error {
	return s.mutate(func(cur *Settings) { cur.Constraints = []judgement.Constraint{} })
}

func (s *Store) mutate(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.current)
	s.current.normalize()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// CapturePrefs implements capture.PrefsSource so a pipeline can read the
// mirror and framing preference in one snapshot.
func (s *Store) CapturePrefs() capture.Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return capture.Prefs{
		AspectRatio: s.current.AspectRatio,
		Flipped:     s.current.Flipped,
	}
}

// Manager hands out per-user settings stores backed by one directory.
type Manager struct {
	dir string

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a manager persisting under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, stores: make(map[string]*Store)}
}

// For returns the settings store for one user, loading it on first use.
func (m *Manager) For(userID string) (*Store, error) {
	if userID == "" || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return nil, fmt.Errorf("invalid user id %q", userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if store, ok := m.stores[userID]; ok {
		return store, nil
	}
	store, err := Open(filepath.Join(m.dir, userID+".json"))
	if err != nil {
		return nil, err
	}
	m.stores[userID] = store
	return store, nil
}
