package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/retrodesk/internal/audio"
	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/core"
	"github.com/vovakirdan/retrodesk/internal/input"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/relay"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
	"github.com/vovakirdan/retrodesk/internal/scores"
)

const runnerInbox = 256

// Deps are the shared services every terminal session runs against.
type Deps struct {
	Scores  *scores.Service
	Fetcher bridge.Fetcher
	Sandbox sandbox.Options
	Logger  *log.Logger
}

func (d Deps) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

type envelope struct {
	src string
	m   relay.Message
}

// runner wires one game session to a relay, a multiplexer and an audio
// bus for a terminal host. Relay notifications and sounds land in events.
type runner struct {
	entry   registry.Entry
	log     *log.Logger
	mux     *input.Multiplexer
	bus     *audio.Bus
	relay   *relay.Relay
	session *bridge.Session
	events  *relay.Outbox
	inbox   chan envelope

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	snap *core.Screen

	closeOnce sync.Once
}

func newRunner(entry registry.Entry, deps Deps) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		entry:  entry,
		events: relay.NewOutbox(32),
		inbox:  make(chan envelope, runnerInbox),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		snap:   core.NewScreen(entry.Runtime.ScreenW, entry.Runtime.ScreenH),
	}

	r.mux = input.New(input.DefaultOptions())
	r.mux.Attach(core.NewInputBuffer())
	r.mux.SetMode(entry.Gesture)

	r.bus = audio.NewBus(deps.logger())
	r.bus.Add(audio.PlayerFunc(func(name string) {
		r.events.Send(relay.SoundEffect{Name: name})
	}))

	r.session = bridge.NewSession(bridge.Config{
		Entry:   entry,
		Fetcher: deps.Fetcher,
		Sandbox: deps.Sandbox,
		Input:   r.mux,
		Emit:    r.emit,
		OnFrame: r.frame,
		Logger:  deps.Logger,
	})
	r.log = deps.logger().WithPrefix("tui").With("game", entry.ID)

	cfg := relay.Config{
		GameID:      entry.ID,
		Competitive: entry.Competitive,
		Sounds:      r.bus,
		Notify:      r.notify,
		Logger:      deps.Logger,
	}
	if deps.Scores != nil {
		cfg.Scores = deps.Scores
	}
	r.relay = relay.New(cfg)
	r.relay.Attach(r.session)
	r.relay.Start(ctx)

	go r.dispatch()
	return r
}

func (r *runner) emit(src string, m relay.Message) {
	select {
	case r.inbox <- envelope{src: src, m: m}:
	default:
		r.log.Warn("inbox full, dropping message", "type", m.Type())
	}
}

func (r *runner) notify(m relay.Message) {
	if _, ok := m.(relay.SoundEffect); ok {
		return
	}
	r.events.Send(m)
}

func (r *runner) frame(s *bridge.Session) {
	r.mu.Lock()
	s.Screen().CopyTo(r.snap)
	r.mu.Unlock()
}

func (r *runner) dispatch() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			return
		case e := <-r.inbox:
			r.relay.Deliver(r.ctx, e.src, e.m)
		}
	}
}

// load fetches the program and waits for the sandbox.
func (r *runner) load() error {
	return r.session.Load(r.ctx)
}

func (r *runner) reload() error {
	return r.session.Reload(r.ctx)
}

// render returns the last completed frame.
func (r *runner) render() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RenderScreen(r.snap)
}

func (r *runner) close() {
	r.closeOnce.Do(func() {
		r.session.Close()
		r.relay.Detach()
		r.mux.Close()
		r.cancel()
		<-r.done
		r.events.Close()
	})
}
