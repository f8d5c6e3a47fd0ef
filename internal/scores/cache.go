package scores

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vovakirdan/retrodesk/internal/storage"
)

// DefaultCachePath is where the local best-score cache lives.
const DefaultCachePath = "~/.retrodesk/local_scores.json"

// LocalCache is a JSON file mapping game ID to the best score seen on this
// machine. It answers high-score queries when the store cannot.
type LocalCache struct {
	path string

	mu   sync.Mutex
	best map[string]int
}

// OpenCache loads the cache at path. A missing file is an empty cache.
func OpenCache(path string) (*LocalCache, error) {
	if path == "" {
		path = DefaultCachePath
	}
	expanded, err := storage.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	c := &LocalCache{path: expanded, best: make(map[string]int)}

	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("scores: read cache: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.best); err != nil {
		return nil, fmt.Errorf("scores: parse cache %s: %w", expanded, err)
	}
	return c, nil
}

// Path returns the resolved file path.
func (c *LocalCache) Path() string { return c.path }

// Get returns the cached best for gameID, or 0.
func (c *LocalCache) Get(gameID string) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.best[gameID]
}

// Raise stores score when it beats the cached best and reports whether it did.
func (c *LocalCache) Raise(gameID string, score int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.best[gameID]; ok && score <= old {
		return false, nil
	}
	c.best[gameID] = score
	return true, c.saveLocked()
}

func (c *LocalCache) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("scores: create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(c.best, "", "  ")
	if err != nil {
		return fmt.Errorf("scores: encode cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("scores: write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("scores: write cache: %w", err)
	}
	return nil
}
