package relay

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Child is the program side of the boundary as seen by the relay.
type Child interface {
	// ID returns the handle that authenticates messages from this child.
	ID() string
	// Send delivers a host-to-child message. Must not block.
	Send(m Message)
}

// ScoreSink stores submitted scores and answers high-score queries.
type ScoreSink interface {
	Submit(ctx context.Context, gameID string, score int) error
	HighScore(ctx context.Context, gameID string) (int, error)
}

// SoundSink plays sound effects. Fire and forget.
type SoundSink interface {
	Play(name string)
}

// Config wires a relay to its page.
type Config struct {
	GameID string
	// Competitive is false for games whose scores are never submitted.
	Competitive bool
	Scores      ScoreSink
	Sounds      SoundSink
	// Notify receives every accepted child message after the relay has
	// handled it. Used to drive page UI state.
	Notify func(Message)
	Logger *log.Logger
}

// Relay turns messages from one child into page state and pushes the
// latest known high score back into the child.
type Relay struct {
	cfg Config
	log *log.Logger

	mu    sync.Mutex
	child Child
	ready bool
	high  int
}

// New creates a relay with no child attached.
func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Relay{
		cfg: cfg,
		log: logger.WithPrefix("relay"),
	}
}

// Attach makes c the only child whose messages are accepted.
func (r *Relay) Attach(c Child) {
	r.mu.Lock()
	r.child = c
	r.ready = false
	r.mu.Unlock()
}

// Detach forgets the current child. Later messages are dropped.
func (r *Relay) Detach() {
	r.mu.Lock()
	r.child = nil
	r.ready = false
	r.mu.Unlock()
}

// Start fetches the high score in the background and pushes it once known.
// Failures leave the retained value unchanged.
func (r *Relay) Start(ctx context.Context) {
	if r.cfg.Scores == nil {
		return
	}
	go func() {
		n, err := r.cfg.Scores.HighScore(ctx, r.cfg.GameID)
		if err != nil {
			r.log.Warn("high score fetch failed", "game", r.cfg.GameID, "err", err)
			return
		}
		r.SetHighScore(n)
	}()
}

// HighScore returns the retained high score.
func (r *Relay) HighScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.high
}

// SetHighScore replaces the retained high score and pushes it if the child
// has already reported ready.
func (r *Relay) SetHighScore(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.high = n
	if r.child != nil && r.ready {
		r.child.Send(HighScore{Score: n})
	}
}

// RequestRestart asks the child to start a new round.
func (r *Relay) RequestRestart() {
	r.mu.Lock()
	child := r.child
	r.mu.Unlock()

	if child != nil {
		child.Send(RestartRequest{})
	}
}

// DeliverRaw decodes b and delivers it. Undecodable input is dropped.
func (r *Relay) DeliverRaw(ctx context.Context, src string, b []byte) {
	m, err := Decode(b)
	if err != nil {
		r.log.Debug("dropping undecodable message", "src", src, "err", err)
		return
	}
	r.Deliver(ctx, src, m)
}

// Deliver handles one message from src. Messages from anything other than
// the attached child, and host-to-child messages, are dropped.
func (r *Relay) Deliver(ctx context.Context, src string, m Message) {
	if m == nil || !FromChild(m) {
		return
	}

	r.mu.Lock()
	child := r.child
	if child == nil || child.ID() != src {
		r.mu.Unlock()
		r.log.Debug("dropping message from unknown source", "src", src, "type", m.Type())
		return
	}
	if _, ok := m.(Ready); ok {
		// Pushed under the lock; ordered with SetHighScore.
		r.ready = true
		child.Send(HighScore{Score: r.high})
	}
	r.mu.Unlock()

	switch msg := m.(type) {
	case Error:
		r.log.Error("program failed", "game", r.cfg.GameID, "err", msg.Message)
	case SoundEffect:
		if r.cfg.Sounds != nil {
			r.cfg.Sounds.Play(msg.Name)
		}
	case SubmitScore:
		r.submit(ctx, msg.Score)
	}

	if r.cfg.Notify != nil {
		r.cfg.Notify(m)
	}
}

func (r *Relay) submit(ctx context.Context, score int) {
	if !r.cfg.Competitive {
		return
	}
	if r.cfg.Scores != nil {
		if err := r.cfg.Scores.Submit(ctx, r.cfg.GameID, score); err != nil {
			r.log.Warn("score submit failed", "game", r.cfg.GameID, "score", score, "err", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if score > r.high {
		r.high = score
		if r.child != nil && r.ready {
			r.child.Send(HighScore{Score: score})
		}
	}
}
