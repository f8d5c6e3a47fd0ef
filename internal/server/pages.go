package server

import "sync"

// pageHandle is the registry's view of a connected page.
type pageHandle interface {
	ID() string
	GameID() string
	Close()
}

// pageRegistry tracks connected pages.
// Thread-safe for concurrent access.
type pageRegistry struct {
	mu    sync.RWMutex
	pages map[string]pageHandle
}

func newPageRegistry() *pageRegistry {
	return &pageRegistry{pages: make(map[string]pageHandle)}
}

func (r *pageRegistry) Register(p pageHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[p.ID()] = p
}

func (r *pageRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, id)
}

// Count returns the number of connected pages.
func (r *pageRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// CountByGame returns connected pages per game.
func (r *pageRegistry) CountByGame() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, p := range r.pages {
		out[p.GameID()]++
	}
	return out
}

// CloseAll closes every page. Pages unregister themselves as they exit.
func (r *pageRegistry) CloseAll() {
	r.mu.RLock()
	pages := make([]pageHandle, 0, len(r.pages))
	for _, p := range r.pages {
		pages = append(pages, p)
	}
	r.mu.RUnlock()

	for _, p := range pages {
		p.Close()
	}
}
