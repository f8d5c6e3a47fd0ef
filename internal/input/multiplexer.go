// Package input turns keyboard and touch events from a page into slot
// states in the page's core.InputBuffer.
package input

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/retrodesk/internal/core"
)

// Default gesture tuning.
const (
	DefaultTapThreshold    = 10.0
	DefaultSwipeThreshold  = 20.0
	DefaultContinuousDelta = 2.0
	DefaultPulseDuration   = 100 * time.Millisecond
	DefaultTurboDuration   = 50 * time.Millisecond
	DefaultSurfaceTarget   = "canvas"
)

// Stopper is the part of *time.Timer the multiplexer needs.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Options tunes gesture decoding.
type Options struct {
	TapThreshold    float64
	SwipeThreshold  float64
	ContinuousDelta float64
	PulseDuration   time.Duration
	TurboDuration   time.Duration
	SurfaceTarget   string
	AfterFunc       AfterFunc
}

// DefaultOptions returns the stock thresholds and durations.
func DefaultOptions() Options {
	return Options{
		TapThreshold:    DefaultTapThreshold,
		SwipeThreshold:  DefaultSwipeThreshold,
		ContinuousDelta: DefaultContinuousDelta,
		PulseDuration:   DefaultPulseDuration,
		TurboDuration:   DefaultTurboDuration,
		SurfaceTarget:   DefaultSurfaceTarget,
		AfterFunc:       realAfterFunc,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TapThreshold <= 0 {
		o.TapThreshold = d.TapThreshold
	}
	if o.SwipeThreshold <= 0 {
		o.SwipeThreshold = d.SwipeThreshold
	}
	if o.ContinuousDelta <= 0 {
		o.ContinuousDelta = d.ContinuousDelta
	}
	if o.PulseDuration <= 0 {
		o.PulseDuration = d.PulseDuration
	}
	if o.TurboDuration <= 0 {
		o.TurboDuration = d.TurboDuration
	}
	if o.SurfaceTarget == "" {
		o.SurfaceTarget = d.SurfaceTarget
	}
	if o.AfterFunc == nil {
		o.AfterFunc = d.AfterFunc
	}
	return o
}

// TouchEvent is one touch point as reported by the client.
type TouchEvent struct {
	ID     int       `json:"id"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Target string    `json:"target"`
	Time   time.Time `json:"-"`
}

type gesture struct {
	active bool
	id     int
	startX float64
	startY float64
	refX   float64
	lastX  float64
	lastY  float64
	moved  bool
	began  time.Time
}

type pulseTimer struct {
	stop Stopper
	gen  uint64
}

// Multiplexer is the single coordinator that writes a page's input buffer.
// All methods are safe for concurrent use. With no buffer attached every
// operation is a silent no-op.
type Multiplexer struct {
	mu     sync.Mutex
	opts   Options
	keys   map[string]core.Slot
	buf    *core.InputBuffer
	mode   core.GestureMode
	touch  gesture
	timers [core.SlotCount]pulseTimer
	gen    uint64
	owner  any
}

// New creates a multiplexer with no buffer attached.
func New(opts Options) *Multiplexer {
	return &Multiplexer{
		opts: opts.withDefaults(),
		keys: DefaultKeyMap(),
	}
}

// Attach binds buf and clears it to released.
func (m *Multiplexer) Attach(buf *core.InputBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
	m.touch = gesture{}
	m.buf = buf
	if buf != nil {
		buf.Clear()
	}
}

// Detach clears and unbinds the current buffer and stops pending releases.
func (m *Multiplexer) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
	m.touch = gesture{}
	if m.buf != nil {
		m.buf.Clear()
	}
	m.buf = nil
	m.owner = nil
}

// Buffer returns the attached buffer, or nil.
func (m *Multiplexer) Buffer() *core.InputBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf
}

// SetMode switches touch decoding. Any gesture in flight is dropped.
func (m *Multiplexer) SetMode(mode core.GestureMode) {
	m.mu.Lock()
	m.mode = mode
	m.touch = gesture{}
	m.mu.Unlock()
}

// Mode returns the current touch decoding mode.
func (m *Multiplexer) Mode() core.GestureMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// KeyDown maps key to a slot and presses it. Returns false for unmapped keys.
func (m *Multiplexer) KeyDown(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.lookupLocked(key)
	if !ok || m.buf == nil {
		return ok
	}
	m.cancelPulseLocked(slot)
	m.buf.Press(slot)
	return true
}

// KeyUp maps key to a slot and releases it unconditionally.
func (m *Multiplexer) KeyUp(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.lookupLocked(key)
	if !ok || m.buf == nil {
		return ok
	}
	m.cancelPulseLocked(slot)
	m.buf.Release(slot)
	return true
}

// Tap is for hosts without key-up events. It presses the mapped slot and
// arms the normal auto-release; a repeated tap while the slot is still
// down extends the hold instead of re-triggering just-pressed.
func (m *Multiplexer) Tap(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.lookupLocked(key)
	if !ok || m.buf == nil {
		return ok
	}
	m.buf.Press(slot)
	m.armReleaseLocked(slot, m.opts.PulseDuration)
	return true
}

// Pulse forces slot to just-pressed and releases it after the normal
// duration, or the turbo duration when turbo is set.
func (m *Multiplexer) Pulse(slot core.Slot, turbo bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulseLocked(slot, turbo)
}

// TouchStart records the origin of a gesture. Only the first touch point
// is tracked.
func (m *Multiplexer) TouchStart(ev TouchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buf == nil || !m.onSurface(ev) || m.touch.active {
		return
	}
	m.touch = gesture{
		active: true,
		id:     ev.ID,
		startX: ev.X,
		startY: ev.Y,
		refX:   ev.X,
		lastX:  ev.X,
		lastY:  ev.Y,
		began:  ev.Time,
	}
}

// TouchMove either pulses left/right incrementally (continuous mode) or
// records the latest point for classification on TouchEnd. Any move rules
// the gesture out as a tap.
func (m *Multiplexer) TouchMove(ev TouchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.trackedLocked(ev) {
		return
	}
	m.touch.lastX, m.touch.lastY = ev.X, ev.Y
	m.touch.moved = true

	if m.mode != core.GestureContinuous {
		return
	}
	dx := ev.X - m.touch.refX
	if math.Abs(dx) <= m.opts.ContinuousDelta {
		return
	}
	if dx > 0 {
		m.pulseLocked(core.SlotRight, true)
	} else {
		m.pulseLocked(core.SlotLeft, true)
	}
	m.touch.refX = ev.X
}

// TouchEnd classifies the finished gesture. A tap pulses action in both
// modes; swipes are only classified in discrete mode, since continuous
// mode already pulsed during the move.
func (m *Multiplexer) TouchEnd(ev TouchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.trackedLocked(ev) {
		return
	}
	g := m.touch
	m.touch = gesture{}

	dx := ev.X - g.startX
	dy := ev.Y - g.startY
	adx, ady := math.Abs(dx), math.Abs(dy)

	if adx < m.opts.TapThreshold && ady < m.opts.TapThreshold {
		if !g.moved {
			m.pulseLocked(core.SlotAction, false)
		}
		return
	}
	if m.mode == core.GestureContinuous {
		return
	}
	if math.Max(adx, ady) <= m.opts.SwipeThreshold {
		return
	}

	var slot core.Slot
	switch {
	case adx > ady && dx > 0:
		slot = core.SlotRight
	case adx > ady:
		slot = core.SlotLeft
	case dy > 0:
		slot = core.SlotDown
	default:
		slot = core.SlotUp
	}
	m.pulseLocked(slot, false)
}

// TouchCancel drops the gesture in flight without pulsing anything.
func (m *Multiplexer) TouchCancel(ev TouchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touch.active && m.touch.id == ev.ID {
		m.touch = gesture{}
	}
}

// Bind makes owner the page's single active input adapter and returns the
// reader handed to that owner. Readers of previously bound owners report
// every slot released from then on.
func (m *Multiplexer) Bind(owner any) core.InputReader {
	m.mu.Lock()
	m.owner = owner
	m.mu.Unlock()
	return &boundReader{m: m, owner: owner}
}

// Unbind releases the adapter slot if owner still holds it.
func (m *Multiplexer) Unbind(owner any) {
	m.mu.Lock()
	if m.owner == owner {
		m.owner = nil
	}
	m.mu.Unlock()
}

// Bound reports whether owner is the active adapter.
func (m *Multiplexer) Bound(owner any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owner != nil && m.owner == owner
}

// Close stops all pending auto-release timers.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	m.stopTimersLocked()
	m.mu.Unlock()
}

func (m *Multiplexer) lookupLocked(key string) (core.Slot, bool) {
	slot, ok := m.keys[normalizeKey(key)]
	return slot, ok
}

func (m *Multiplexer) onSurface(ev TouchEvent) bool {
	return ev.Target == m.opts.SurfaceTarget
}

func (m *Multiplexer) trackedLocked(ev TouchEvent) bool {
	return m.buf != nil && m.touch.active && m.touch.id == ev.ID
}

func (m *Multiplexer) pulseLocked(slot core.Slot, turbo bool) {
	if m.buf == nil || !slot.Valid() {
		return
	}
	m.buf.Pulse(slot)
	d := m.opts.PulseDuration
	if turbo {
		d = m.opts.TurboDuration
	}
	m.armReleaseLocked(slot, d)
}

// armReleaseLocked replaces any pending release of slot with a new one.
// The generation guards against a stopped timer that already fired.
func (m *Multiplexer) armReleaseLocked(slot core.Slot, d time.Duration) {
	m.cancelPulseLocked(slot)
	m.gen++
	gen := m.gen
	buf := m.buf
	m.timers[slot].gen = gen
	m.timers[slot].stop = m.opts.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.timers[slot].gen != gen || m.buf != buf {
			return
		}
		m.timers[slot] = pulseTimer{}
		buf.Release(slot)
	})
}

func (m *Multiplexer) cancelPulseLocked(slot core.Slot) {
	t := &m.timers[slot]
	if t.stop != nil {
		t.stop.Stop()
	}
	*t = pulseTimer{}
}

func (m *Multiplexer) stopTimersLocked() {
	for s := range m.timers {
		m.cancelPulseLocked(core.Slot(s))
	}
}

type boundReader struct {
	m     *Multiplexer
	owner any
}

func (r *boundReader) buffer() *core.InputBuffer {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.owner != r.owner {
		return nil
	}
	return r.m.buf
}

func (r *boundReader) Check(s core.Slot) bool {
	if buf := r.buffer(); buf != nil {
		return buf.Check(s)
	}
	return false
}

func (r *boundReader) CheckNew(s core.Slot) bool {
	if buf := r.buffer(); buf != nil {
		return buf.CheckNew(s)
	}
	return false
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	return strings.ToLower(strings.TrimSpace(key))
}
