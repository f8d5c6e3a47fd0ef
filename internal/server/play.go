package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/retrodesk/internal/audio"
	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/core"
	"github.com/vovakirdan/retrodesk/internal/input"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 << 10
	inboxSize      = 256
)

// Client to host message types carried next to the lifecycle messages.
const (
	typeKeyDown     = "key-down"
	typeKeyUp       = "key-up"
	typeTouchStart  = "touch-start"
	typeTouchMove   = "touch-move"
	typeTouchEnd    = "touch-end"
	typeTouchCancel = "touch-cancel"
	typeStart       = "start"
	typeRetry       = "retry"
	typeReload      = "reload"
	typeFrame       = "frame"
)

type clientMessage struct {
	Type   string  `json:"type"`
	Key    string  `json:"key,omitempty"`
	ID     int     `json:"id,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Target string  `json:"target,omitempty"`
}

type frameMessage struct {
	Type   string   `json:"type"`
	Status string   `json:"status"`
	Score  int      `json:"score"`
	Rows   []string `json:"rows"`
}

type envelope struct {
	src string
	m   relay.Message
}

// page is one connected client running one game session.
type page struct {
	id   string
	log  *log.Logger
	conn *websocket.Conn

	entry   registry.Entry
	mux     *input.Multiplexer
	bus     *audio.Bus
	relay   *relay.Relay
	session *bridge.Session

	out    *relay.Outbox
	frames chan frameMessage
	inbox  chan envelope

	closeOnce sync.Once
}

// pageChild is the relay's view of the session. High-score pushes are
// mirrored to the client.
type pageChild struct{ p *page }

func (c pageChild) ID() string { return c.p.session.ID() }

func (c pageChild) Send(m relay.Message) {
	c.p.session.Send(m)
	if hs, ok := m.(relay.HighScore); ok {
		c.p.out.Send(hs)
	}
}

func (s *Server) handlePlay(c *gin.Context) {
	entry, err := registry.Lookup(c.Query("game"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	p := s.newPage(entry, conn)
	s.pages.Register(p)
	defer s.pages.Unregister(p.ID())

	p.run(c.Request.Context())
}

func (s *Server) newPage(entry registry.Entry, conn *websocket.Conn) *page {
	p := &page{
		conn:   conn,
		entry:  entry,
		out:    relay.NewOutbox(64),
		frames: make(chan frameMessage, 1),
		inbox:  make(chan envelope, inboxSize),
	}

	p.mux = input.New(input.DefaultOptions())
	p.mux.Attach(core.NewInputBuffer())
	p.mux.SetMode(entry.Gesture)

	p.bus = audio.NewBus(s.opts.Logger)
	p.bus.Add(audio.PlayerFunc(func(name string) {
		p.out.Send(relay.SoundEffect{Name: name})
	}))

	p.session = bridge.NewSession(bridge.Config{
		Entry:   entry,
		Fetcher: s.opts.Fetcher,
		Sandbox: s.opts.Sandbox,
		Input:   p.mux,
		Emit:    p.emit,
		OnFrame: p.frame,
		Logger:  s.opts.Logger,
	})
	p.id = p.session.ID()
	p.log = s.opts.Logger.WithPrefix("page").With("game", entry.ID, "page", p.id[:8])

	cfg := relay.Config{
		GameID:      entry.ID,
		Competitive: entry.Competitive,
		Sounds:      p.bus,
		Notify:      p.notify,
		Logger:      s.opts.Logger,
	}
	if s.opts.Scores != nil {
		cfg.Scores = s.opts.Scores
	}
	p.relay = relay.New(cfg)
	return p
}

func (p *page) ID() string     { return p.id }
func (p *page) GameID() string { return p.entry.ID }

// Close ends the page. The read loop notices the closed connection.
func (p *page) Close() {
	p.closeOnce.Do(func() {
		p.session.Close()
		p.relay.Detach()
		p.mux.Close()
		p.out.Close()
		p.conn.Close() //nolint:errcheck
	})
}

// emit queues a session message for the dispatcher. Never blocks.
func (p *page) emit(src string, m relay.Message) {
	select {
	case p.inbox <- envelope{src: src, m: m}:
	default:
		p.log.Warn("inbox full, dropping message", "type", m.Type())
	}
}

// notify forwards accepted lifecycle messages to the client. Sound effects
// reach the client through the audio bus instead.
func (p *page) notify(m relay.Message) {
	if _, ok := m.(relay.SoundEffect); ok {
		return
	}
	p.out.Send(m)
}

// frame keeps only the newest unsent frame.
func (p *page) frame(s *bridge.Session) {
	fm := frameMessage{
		Type:   typeFrame,
		Status: s.Status().String(),
		Score:  s.Score(),
		Rows:   s.Screen().Rows(),
	}
	select {
	case <-p.frames:
	default:
	}
	select {
	case p.frames <- fm:
	default:
	}
}

func (p *page) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	p.relay.Attach(pageChild{p})
	p.relay.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.dispatch(ctx)
	}()
	go func() {
		defer wg.Done()
		p.writeLoop(ctx)
	}()
	go func() {
		if err := p.session.Load(ctx); err != nil {
			p.log.Warn("load failed", "err", err)
		}
	}()

	p.log.Info("page connected")
	p.readLoop(ctx)
	cancel()
	p.Close()
	wg.Wait()
	p.log.Info("page disconnected")
}

func (p *page) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-p.inbox:
			p.relay.Deliver(ctx, e.src, e.m)
		}
	}
}

func (p *page) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			p.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-p.out.Done():
			return
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			err = p.conn.WriteMessage(websocket.PingMessage, nil)
		case m := <-p.out.Messages():
			var data []byte
			data, err = relay.Encode(m)
			if err != nil {
				p.log.Warn("encode failed", "type", m.Type(), "err", err)
				continue
			}
			p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			err = p.conn.WriteMessage(websocket.TextMessage, data)
		case fm := <-p.frames:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			err = p.conn.WriteJSON(fm)
		}
		if err != nil {
			p.log.Debug("write failed", "err", err)
			p.conn.Close() //nolint:errcheck
			return
		}
	}
}

func (p *page) readLoop(ctx context.Context) {
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.Debug("read failed", "err", err)
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			p.log.Debug("dropping malformed client message", "err", err)
			continue
		}
		p.handle(ctx, msg)
	}
}

func (p *page) handle(ctx context.Context, msg clientMessage) {
	touch := input.TouchEvent{ID: msg.ID, X: msg.X, Y: msg.Y, Target: msg.Target, Time: time.Now()}

	switch msg.Type {
	case typeKeyDown:
		p.mux.KeyDown(msg.Key)
	case typeKeyUp:
		p.mux.KeyUp(msg.Key)
	case typeTouchStart:
		p.mux.TouchStart(touch)
	case typeTouchMove:
		p.mux.TouchMove(touch)
	case typeTouchEnd:
		p.mux.TouchEnd(touch)
	case typeTouchCancel:
		p.mux.TouchCancel(touch)
	case typeStart:
		if err := p.session.Start(); err != nil {
			p.log.Debug("start rejected", "err", err)
		}
	case typeRetry:
		if p.session.Status() == bridge.StatusGameOver {
			p.relay.RequestRestart()
		}
	case typeReload:
		go func() {
			if err := p.session.Reload(ctx); err != nil {
				p.log.Debug("reload rejected", "err", err)
			}
		}()
	default:
		p.log.Debug("ignoring client message", "type", msg.Type)
	}
}
