// Package registry provides a global catalog of game programs.
// Program bundles register their entries in init() functions, allowing the
// hosts to discover games without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/retrodesk/internal/core"
)

// Entry describes one game program the sandbox can run.
type Entry struct {
	// ID is the unique identifier (e.g., "snake"). Used for CLI commands,
	// URLs and score storage.
	ID string

	// Title is a human-readable name for display.
	Title string

	// Source is the program source path handed to the source fetcher.
	Source string

	// Gesture selects touch decoding for this game.
	Gesture core.GestureMode

	// Competitive is false for games whose scores are never stored.
	Competitive bool

	// Runtime holds the surface size and frame rate the program expects.
	Runtime core.RuntimeConfig

	// Controls lists keyboard help lines shown on attract screens.
	Controls []string

	// TouchHint is the one-line touch instruction.
	TouchHint string
}

// GameInfo contains the listing metadata of a registered game.
type GameInfo struct {
	ID    string
	Title string
}

var (
	entries = make(map[string]Entry)
	mu      sync.RWMutex
)

// Register adds a game entry to the registry.
// Panics if a game with the same ID is already registered or the entry has no ID.
func Register(e Entry) {
	if e.ID == "" {
		panic("registry: entry without ID")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[e.ID]; exists {
		panic(fmt.Sprintf("registry: game %q already registered", e.ID))
	}
	if e.Runtime == (core.RuntimeConfig{}) {
		e.Runtime = core.DefaultConfig()
	}
	entries[e.ID] = e
}

// List returns information about all registered games, sorted by ID.
func List() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GameInfo, 0, len(entries))
	for id, e := range entries {
		result = append(result, GameInfo{ID: id, Title: e.Title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Lookup returns the entry registered under id.
// Returns an error if the game ID is not registered.
func Lookup(id string) (Entry, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("registry: unknown game %q", id)
	}
	return e, nil
}

// Exists checks if a game with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}

// IsCompetitive reports whether scores for id may be stored.
// Unknown games are treated as competitive.
func IsCompetitive(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	return !ok || e.Competitive
}
