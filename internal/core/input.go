package core

import "sync"

// Slot is a logical control in the input buffer, independent of the physical
// key or gesture bound to it.
type Slot int

const (
	SlotUp Slot = iota
	SlotDown
	SlotLeft
	SlotRight
	SlotAction  // Space, tap
	SlotConfirm // Enter
	SlotCancel  // Escape
	SlotAux1
	SlotAux2
	SlotAux3

	// SlotCount is the fixed size of every InputBuffer.
	SlotCount
)

// String returns a human-readable name for the slot.
func (s Slot) String() string {
	switch s {
	case SlotUp:
		return "up"
	case SlotDown:
		return "down"
	case SlotLeft:
		return "left"
	case SlotRight:
		return "right"
	case SlotAction:
		return "action"
	case SlotConfirm:
		return "confirm"
	case SlotCancel:
		return "cancel"
	case SlotAux1:
		return "aux1"
	case SlotAux2:
		return "aux2"
	case SlotAux3:
		return "aux3"
	default:
		return "unknown"
	}
}

// Valid reports whether s addresses a real slot.
func (s Slot) Valid() bool {
	return s >= 0 && s < SlotCount
}

// SlotState is the value held by one slot.
type SlotState uint8

const (
	Released    SlotState = 0
	Held        SlotState = 1
	JustPressed SlotState = 2
)

// String returns a human-readable name for the state.
func (s SlotState) String() string {
	switch s {
	case Released:
		return "released"
	case Held:
		return "held"
	case JustPressed:
		return "just-pressed"
	default:
		return "unknown"
	}
}

// InputReader is the read side of the input buffer handed to game programs.
type InputReader interface {
	// Check reports whether the slot is down (held or just pressed).
	Check(s Slot) bool
	// CheckNew reports whether the slot was pressed since the last poll.
	// A just-pressed slot decays to held once observed.
	CheckNew(s Slot) bool
}

// InputBuffer is the fixed-size polled state shared between input listeners
// and the program that consumes it. One buffer exists per page.
type InputBuffer struct {
	mu    sync.Mutex
	slots [SlotCount]SlotState
}

// NewInputBuffer creates a buffer with every slot released.
func NewInputBuffer() *InputBuffer {
	return &InputBuffer{}
}

// Press records a physical press. A released slot becomes just-pressed;
// a slot that is already down stays (or becomes) held, so OS key repeat
// never re-triggers just-pressed.
func (b *InputBuffer) Press(s Slot) {
	if !s.Valid() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.slots[s] == Released {
		b.slots[s] = JustPressed
		return
	}
	b.slots[s] = Held
}

// Pulse forces the slot to just-pressed regardless of its current state.
// Used by gesture decoding, which has no matching physical release.
func (b *InputBuffer) Pulse(s Slot) {
	if !s.Valid() {
		return
	}
	b.mu.Lock()
	b.slots[s] = JustPressed
	b.mu.Unlock()
}

// Release sets the slot to released unconditionally.
func (b *InputBuffer) Release(s Slot) {
	if !s.Valid() {
		return
	}
	b.mu.Lock()
	b.slots[s] = Released
	b.mu.Unlock()
}

// State returns the raw slot value without consuming it.
func (b *InputBuffer) State(s Slot) SlotState {
	if !s.Valid() {
		return Released
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots[s]
}

// Poll returns the slot value and decays just-pressed to held.
func (b *InputBuffer) Poll(s Slot) SlotState {
	if !s.Valid() {
		return Released
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.slots[s]
	if st == JustPressed {
		b.slots[s] = Held
	}
	return st
}

// Check implements InputReader.
func (b *InputBuffer) Check(s Slot) bool {
	return b.State(s) != Released
}

// CheckNew implements InputReader.
func (b *InputBuffer) CheckNew(s Slot) bool {
	return b.Poll(s) == JustPressed
}

// Clear resets every slot to released.
func (b *InputBuffer) Clear() {
	b.mu.Lock()
	b.slots = [SlotCount]SlotState{}
	b.mu.Unlock()
}

// Snapshot returns a copy of all slot values.
func (b *InputBuffer) Snapshot() [SlotCount]SlotState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots
}

var _ InputReader = (*InputBuffer)(nil)
