// Package audio routes named sound effects from game programs to whatever
// plays them: a browser page, a terminal bell, or nothing.
package audio

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Known effect names. Anything else is ignored.
const (
	Startup  = "startup"
	Click    = "click"
	Jump     = "jump"
	Crash    = "crash"
	GameOver = "game_over"
	Rotate   = "rotate"
	Lock     = "lock"
	Score    = "score"
	Shoot    = "shoot"
	EnemyHit = "enemy_hit"
	Bounce   = "bounce"
	Bonus    = "bonus"
	Move     = "move"
	Type     = "type"
)

var known = map[string]bool{
	Startup: true, Click: true, Jump: true, Crash: true, GameOver: true,
	Rotate: true, Lock: true, Score: true, Shoot: true, EnemyHit: true,
	Bounce: true, Bonus: true, Move: true, Type: true,
}

// Known reports whether name is a recognised effect.
func Known(name string) bool { return known[name] }

// Player receives accepted effects. Play must not block.
type Player interface {
	Play(name string)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(name string)

// Play calls f(name).
func (f PlayerFunc) Play(name string) { f(name) }

// Bus fans accepted effects out to its players.
type Bus struct {
	log *log.Logger

	mu      sync.RWMutex
	muted   bool
	next    int
	players map[int]Player
}

// NewBus creates an unmuted bus with no players.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{log: logger.WithPrefix("audio"), players: make(map[int]Player)}
}

// Add registers p and returns a func that removes it.
func (b *Bus) Add(p Player) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.players[id] = p
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.players, id)
		b.mu.Unlock()
	}
}

// SetMuted toggles delivery.
func (b *Bus) SetMuted(m bool) {
	b.mu.Lock()
	b.muted = m
	b.mu.Unlock()
}

// Play forwards a known effect to every player. Unknown names and muted
// buses drop it.
func (b *Bus) Play(name string) {
	if !known[name] {
		b.log.Debug("unknown sound effect", "name", name)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.muted {
		return
	}
	for _, p := range b.players {
		p.Play(name)
	}
}
