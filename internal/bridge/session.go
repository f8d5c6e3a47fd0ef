// Package bridge runs one game program inside a sandbox and drives its
// lifecycle: loading, ready, running, game-over and error.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/retrodesk/internal/core"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/relay"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
)

// DefaultSupportPath is the shared support source evaluated before every program.
const DefaultSupportPath = "common/support.gos"

// closeWait bounds how long Close waits for a busy frame loop.
const closeWait = 2 * time.Second

// Entry point names looked up in package main.
const (
	entryInit    = "Init"
	entryUpdate  = "Update"
	entryReset   = "Reset"
	entryCleanup = "Cleanup"
	scoreVar     = "Score"
)

// Fetcher retrieves program source text by path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// InputBinder hands out the page's single active input adapter.
type InputBinder interface {
	Bind(owner any) core.InputReader
	Unbind(owner any)
}

// Config describes one session.
type Config struct {
	Entry       registry.Entry
	SupportPath string
	Fetcher     Fetcher
	Sandbox     sandbox.Options
	Input       InputBinder
	// Emit receives every child-to-host message with this session's ID as
	// the source. It is called from session goroutines and must not block.
	Emit func(src string, m relay.Message)
	// OnFrame is called after every frame with the session's screen.
	OnFrame func(s *Session)
	Logger  *log.Logger
}

// Session is one game program run on behalf of one page.
type Session struct {
	id     string
	cfg    Config
	log    *log.Logger
	screen *core.Screen

	high       atomic.Int64
	restartReq atomic.Bool

	stMu    sync.Mutex
	status  Status
	lastErr error
	score   int
	closed  bool

	// progMu serializes every call into the interpreter.
	progMu  sync.Mutex
	rt      *sandbox.Runtime
	host    *Host
	support string
	program string
	update  func()
	reset   func()

	loopMu   sync.Mutex
	stop     chan struct{}
	loopDone chan struct{}
}

// NewSession creates a session in the loading state.
func NewSession(cfg Config) *Session {
	if cfg.SupportPath == "" {
		cfg.SupportPath = DefaultSupportPath
	}
	rc := cfg.Entry.Runtime
	if rc == (core.RuntimeConfig{}) {
		rc = core.DefaultConfig()
		cfg.Entry.Runtime = rc
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	id := uuid.NewString()
	return &Session{
		id:     id,
		cfg:    cfg,
		log:    logger.WithPrefix("session").With("game", cfg.Entry.ID, "session", id[:8]),
		screen: core.NewScreen(rc.ScreenW, rc.ScreenH),
		status: StatusLoading,
	}
}

// ID returns the session's source handle.
func (s *Session) ID() string { return s.id }

// GameID returns the catalog ID of the program.
func (s *Session) GameID() string { return s.cfg.Entry.ID }

// Screen returns the render surface.
func (s *Session) Screen() *core.Screen { return s.screen }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	return s.status
}

// Err returns the failure that put the session into the error state.
func (s *Session) Err() error {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	return s.lastErr
}

// Score returns the last known score.
func (s *Session) Score() int {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	return s.score
}

// HighScore returns the high score last pushed by the host.
func (s *Session) HighScore() int {
	return int(s.high.Load())
}

// Send delivers a host-to-child message. It never blocks: a restart
// request is picked up by the frame loop on its next tick.
func (s *Session) Send(m relay.Message) {
	switch msg := m.(type) {
	case relay.HighScore:
		s.high.Store(int64(msg.Score))
	case relay.RestartRequest:
		s.restartReq.Store(true)
	}
}

// Load fetches the program and support sources while the sandbox boots.
// The session becomes ready once both are available.
func (s *Session) Load(ctx context.Context) error {
	if s.Status() != StatusLoading {
		return transitionError(s.Status(), StatusReady)
	}

	host := newHost(s.screen, s.HighScore)
	rt := sandbox.Boot(s.cfg.Sandbox, host.exports())

	var program, support string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src, err := s.fetch(gctx, s.cfg.Entry.Source)
		program = src
		return err
	})
	g.Go(func() error {
		src, err := s.fetch(gctx, s.cfg.SupportPath)
		support = src
		return err
	})
	g.Go(func() error {
		return rt.WaitReady(gctx)
	})
	err := g.Wait()

	if s.isClosed() {
		host.release()
		return ErrClosed
	}
	if err != nil {
		host.release()
		s.fail(err)
		return err
	}

	s.progMu.Lock()
	s.rt, s.host = rt, host
	s.program, s.support = program, support
	s.progMu.Unlock()

	if err := s.transition(StatusReady); err != nil {
		return err
	}
	s.log.Debug("ready")
	s.emit(relay.Ready{})
	return nil
}

func (s *Session) fetch(ctx context.Context, path string) (string, error) {
	if s.cfg.Fetcher == nil {
		return "", fmt.Errorf("bridge: fetch %s: no fetcher configured", path)
	}
	src, err := s.cfg.Fetcher.Fetch(ctx, path)
	if err != nil {
		return "", fmt.Errorf("bridge: fetch %s: %w", path, err)
	}
	return src, nil
}

// Start installs the input adapter, evaluates the sources, calls Init and
// starts the frame loop.
func (s *Session) Start() error {
	if st := s.Status(); st != StatusReady {
		return transitionError(st, StatusRunning)
	}

	s.progMu.Lock()
	defer s.progMu.Unlock()

	if s.cfg.Input != nil {
		s.host.setInput(s.cfg.Input.Bind(s))
	}
	if err := s.transition(StatusRunning); err != nil {
		return err
	}
	if err := s.bootProgramLocked(s.rt); err != nil {
		if s.cfg.Input != nil {
			s.cfg.Input.Unbind(s)
		}
		s.fail(err)
		return err
	}
	s.startLoop()
	return nil
}

// bootProgramLocked evaluates support and program in rt, resolves entry
// points and runs Init.
func (s *Session) bootProgramLocked(rt *sandbox.Runtime) error {
	err := rt.EvalFiles(
		sandbox.File{Name: s.cfg.SupportPath, Src: s.support},
		sandbox.File{Name: s.cfg.Entry.Source, Src: s.program},
	)
	if err != nil {
		return err
	}

	update, _, err := rt.Lookup(entryUpdate)
	if err != nil {
		return err
	}
	reset, _, err := rt.Lookup(entryReset)
	if err != nil {
		return err
	}
	s.update, s.reset = update, reset

	s.screen.Clear()
	if _, err := rt.Call(entryInit); err != nil {
		return err
	}
	return s.applyEffectsLocked()
}

// Retry starts a new round after game over. Programs with Reset are reset
// in place; others get a fresh sandbox with the same sources.
func (s *Session) Retry() error {
	s.progMu.Lock()
	defer s.progMu.Unlock()
	return s.retryLocked()
}

func (s *Session) retryLocked() error {
	if st := s.Status(); st != StatusGameOver {
		return transitionError(st, StatusRunning)
	}

	if s.reset != nil {
		err := sandbox.Invoke(entryReset, s.reset)
		if err == nil {
			err = s.applyEffectsLocked()
		}
		if err != nil {
			s.fail(err)
			return err
		}
	} else {
		if err := s.rebootLocked(); err != nil {
			if s.cfg.Input != nil {
				s.cfg.Input.Unbind(s)
			}
			s.fail(err)
			return err
		}
	}

	// Reset may already have acknowledged through host.GameOver(false).
	if s.Status() == StatusGameOver {
		if err := s.transition(StatusRunning); err != nil {
			return err
		}
		s.emit(relay.RestartAck{})
	}
	return nil
}

func (s *Session) rebootLocked() error {
	host := newHost(s.screen, s.HighScore)
	if s.cfg.Input != nil {
		host.setInput(s.cfg.Input.Bind(s))
	}
	rt := sandbox.Boot(s.cfg.Sandbox, host.exports())
	if err := rt.WaitReady(context.Background()); err != nil {
		host.release()
		return err
	}

	if s.rt != nil {
		if _, err := s.rt.Call(entryCleanup); err != nil {
			s.log.Warn("cleanup before reboot failed", "err", err)
		}
	}
	old := s.host
	s.rt, s.host = rt, host
	if old != nil {
		old.release()
	}

	// Status is game-over here, so effects from Init that end the round
	// again are ignored; a restart acknowledgement is honored.
	return s.bootProgramLocked(rt)
}

// Reload leaves the error state and loads the program again from scratch.
func (s *Session) Reload(ctx context.Context) error {
	if st := s.Status(); st != StatusError {
		return transitionError(st, StatusLoading)
	}
	s.stopLoop()

	s.progMu.Lock()
	if st := s.Status(); st != StatusError {
		s.progMu.Unlock()
		return transitionError(st, StatusLoading)
	}
	if s.host != nil {
		s.host.release()
	}
	s.rt, s.host = nil, nil
	s.update, s.reset = nil, nil
	s.program, s.support = "", ""
	s.restartReq.Store(false)
	s.screen.Clear()
	err := s.transition(StatusLoading)
	s.progMu.Unlock()

	if err != nil {
		return err
	}
	s.stMu.Lock()
	s.lastErr = nil
	s.stMu.Unlock()
	return s.Load(ctx)
}

// Close stops the frame loop, runs the program's Cleanup best-effort and
// releases the input adapter. Later fetch results and host calls are
// discarded. Safe to call multiple times.
func (s *Session) Close() {
	s.stMu.Lock()
	if s.closed {
		s.stMu.Unlock()
		return
	}
	s.closed = true
	s.stMu.Unlock()

	if !s.stopLoop() {
		s.log.Warn("frame loop did not stop; skipping cleanup")
		if s.cfg.Input != nil {
			s.cfg.Input.Unbind(s)
		}
		return
	}

	s.progMu.Lock()
	defer s.progMu.Unlock()

	if s.rt != nil && s.rt.Ready() {
		found, err := s.rt.Call(entryCleanup)
		switch {
		case err != nil:
			s.log.Warn("cleanup failed", "err", err)
		case !found:
			s.log.Debug("program has no cleanup")
		}
	}
	if s.host != nil {
		s.host.release()
	}
	if s.cfg.Input != nil {
		s.cfg.Input.Unbind(s)
	}
}

func (s *Session) startLoop() {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.loopDone = make(chan struct{})
	go s.loop(s.stop, s.loopDone, s.cfg.Entry.Runtime.FrameInterval())
}

// stopLoop signals the frame loop and waits for it. Returns false if the
// loop is stuck in a program call past the wait bound.
func (s *Session) stopLoop() bool {
	s.loopMu.Lock()
	stop, done := s.stop, s.loopDone
	s.stop, s.loopDone = nil, nil
	s.loopMu.Unlock()

	if stop == nil {
		return true
	}
	close(stop)
	select {
	case <-done:
		return true
	case <-time.After(closeWait):
		return false
	}
}

func (s *Session) loop(stop <-chan struct{}, done chan<- struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !s.tick() {
			return
		}
		if s.cfg.OnFrame != nil {
			s.cfg.OnFrame(s)
		}
	}
}

// tick runs one frame. Returns false when the loop should exit.
func (s *Session) tick() bool {
	s.progMu.Lock()
	defer s.progMu.Unlock()

	if s.isClosed() {
		return false
	}
	if s.restartReq.Swap(false) && s.Status() == StatusGameOver {
		if err := s.retryLocked(); err != nil {
			return false
		}
	}

	switch s.Status() {
	case StatusRunning, StatusGameOver:
	default:
		return false
	}

	if s.update == nil {
		return true
	}
	err := sandbox.Invoke(entryUpdate, s.update)
	if err == nil {
		err = s.applyEffectsLocked()
	}
	if err != nil {
		s.fail(err)
		return false
	}
	return true
}

// applyEffectsLocked turns host calls recorded during the last program
// call into status changes and messages.
func (s *Session) applyEffectsLocked() error {
	if s.host == nil {
		return nil
	}
	for _, e := range s.host.drain() {
		switch e.kind {
		case effectGameOver:
			if s.Status() != StatusRunning {
				continue
			}
			score := e.score
			if score < 0 {
				score = s.readScoreLocked()
			}
			s.stMu.Lock()
			s.score = score
			s.stMu.Unlock()
			if err := s.transition(StatusGameOver); err != nil {
				return err
			}
			s.emit(relay.GameOver{Score: score})
		case effectRestarted:
			if s.Status() != StatusGameOver {
				continue
			}
			if err := s.transition(StatusRunning); err != nil {
				return err
			}
			s.emit(relay.RestartAck{})
		case effectSubmit:
			s.emit(relay.SubmitScore{Score: e.score})
		case effectSound:
			s.emit(relay.SoundEffect{Name: e.name})
		}
	}
	return nil
}

// readScoreLocked reads the program's Score variable, or 0.
func (s *Session) readScoreLocked() int {
	if s.rt == nil {
		return 0
	}
	n, ok := s.rt.IntVar(scoreVar)
	if !ok {
		return 0
	}
	return n
}

func (s *Session) transition(to Status) error {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.status.CanTransition(to) {
		return transitionError(s.status, to)
	}
	s.log.Debug("status", "from", s.status, "to", to)
	s.status = to
	return nil
}

// fail moves the session to the error state and reports err verbatim.
func (s *Session) fail(err error) {
	s.stMu.Lock()
	if s.closed || s.status == StatusError {
		s.stMu.Unlock()
		return
	}
	s.status = StatusError
	s.lastErr = err
	s.stMu.Unlock()

	if errors.Is(err, sandbox.ErrInitTimeout) {
		s.log.Error("sandbox did not become ready", "err", err)
	} else {
		s.log.Error("session failed", "err", err)
	}
	s.emit(relay.Error{Message: err.Error()})
}

func (s *Session) emit(m relay.Message) {
	if s.isClosed() || s.cfg.Emit == nil {
		return
	}
	s.cfg.Emit(s.id, m)
}

func (s *Session) isClosed() bool {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	return s.closed
}

var _ relay.Child = (*Session)(nil)
