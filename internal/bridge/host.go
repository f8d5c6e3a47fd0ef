package bridge

import (
	"go/constant"
	"reflect"
	"sync"

	"github.com/traefik/yaegi/interp"

	"github.com/vovakirdan/retrodesk/internal/core"
)

// HostPackage is the import path programs use for host entry points.
const HostPackage = "retrodesk/host"

var slotNames = map[core.Slot]string{
	core.SlotUp:      "Up",
	core.SlotDown:    "Down",
	core.SlotLeft:    "Left",
	core.SlotRight:   "Right",
	core.SlotAction:  "Action",
	core.SlotConfirm: "Confirm",
	core.SlotCancel:  "Cancel",
	core.SlotAux1:    "Aux1",
	core.SlotAux2:    "Aux2",
	core.SlotAux3:    "Aux3",
}

type effectKind int

const (
	effectGameOver effectKind = iota
	effectRestarted
	effectSubmit
	effectSound
)

// effect is a host call recorded during a program call and applied once
// the call returns, in order.
type effect struct {
	kind  effectKind
	score int
	name  string
}

// Host is the callback surface injected into one session's interpreter.
// Calls arrive on the frame loop goroutine while the session holds its
// program lock, so Host never takes that lock. After release every call
// is a no-op.
type Host struct {
	mu       sync.Mutex
	released bool
	screen   *core.Screen
	input    core.InputReader
	high     func() int
	pending  []effect
}

func newHost(screen *core.Screen, high func() int) *Host {
	return &Host{screen: screen, high: high}
}

func (h *Host) setInput(r core.InputReader) {
	h.mu.Lock()
	h.input = r
	h.mu.Unlock()
}

func (h *Host) release() {
	h.mu.Lock()
	h.released = true
	h.input = nil
	h.pending = nil
	h.mu.Unlock()
}

func (h *Host) record(e effect) {
	h.mu.Lock()
	if !h.released {
		h.pending = append(h.pending, e)
	}
	h.mu.Unlock()
}

// drain returns and clears the recorded effects.
func (h *Host) drain() []effect {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.pending
	h.pending = nil
	return out
}

func (h *Host) reader() core.InputReader {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	return h.input
}

// Check reports whether slot is down.
func (h *Host) Check(slot int) bool {
	if r := h.reader(); r != nil {
		return r.Check(core.Slot(slot))
	}
	return false
}

// CheckNew reports whether slot was pressed since the last poll.
func (h *Host) CheckNew(slot int) bool {
	if r := h.reader(); r != nil {
		return r.CheckNew(core.Slot(slot))
	}
	return false
}

// GameOver ends the round when over is set, or acknowledges a restart when
// it is not. A negative score means "read the program's Score variable".
func (h *Host) GameOver(over bool, score int) {
	if over {
		h.record(effect{kind: effectGameOver, score: score})
		return
	}
	h.record(effect{kind: effectRestarted})
}

// GameOverNoScore ends the round without carrying a score.
func (h *Host) GameOverNoScore() {
	h.record(effect{kind: effectGameOver, score: -1})
}

// SubmitScore asks the page to store score.
func (h *Host) SubmitScore(score int) {
	h.record(effect{kind: effectSubmit, score: score})
}

// PlaySound triggers a named sound effect.
func (h *Host) PlaySound(name string) {
	h.record(effect{kind: effectSound, name: name})
}

// HighScore returns the best known score for the game.
func (h *Host) HighScore() int {
	if h.high == nil {
		return 0
	}
	return h.high()
}

// Clear blanks the screen.
func (h *Host) Clear() {
	h.screen.Clear()
}

// Set draws the first rune of ch at (x, y).
func (h *Host) Set(x, y int, ch, color string) {
	for _, r := range ch {
		h.screen.Set(x, y, r, core.ParseColor(color))
		return
	}
}

// Text draws s starting at (x, y).
func (h *Host) Text(x, y int, s, color string) {
	h.screen.DrawText(x, y, s, core.ParseColor(color))
}

// TextCentered draws s centered on row y.
func (h *Host) TextCentered(y int, s, color string) {
	h.screen.DrawTextCentered(y, s, core.ParseColor(color))
}

// Box draws a box outline.
func (h *Host) Box(x, y, w, hgt int, color string) {
	h.screen.DrawBox(core.NewRect(x, y, w, hgt), core.ParseColor(color))
}

// Fill fills a rectangle with the first rune of ch.
func (h *Host) Fill(x, y, w, hgt int, ch, color string) {
	for _, r := range ch {
		h.screen.DrawRect(core.NewRect(x, y, w, hgt), r, core.ParseColor(color))
		return
	}
}

// Width returns the screen width.
func (h *Host) Width() int { return h.screen.Width() }

// Height returns the screen height.
func (h *Host) Height() int { return h.screen.Height() }

// exports builds the symbol table for the host package.
func (h *Host) exports() interp.Exports {
	syms := map[string]reflect.Value{
		"Check":           reflect.ValueOf(h.Check),
		"CheckNew":        reflect.ValueOf(h.CheckNew),
		"GameOver":        reflect.ValueOf(h.GameOver),
		"GameOverNoScore": reflect.ValueOf(h.GameOverNoScore),
		"SubmitScore":     reflect.ValueOf(h.SubmitScore),
		"PlaySound":       reflect.ValueOf(h.PlaySound),
		"HighScore":       reflect.ValueOf(h.HighScore),
		"Clear":           reflect.ValueOf(h.Clear),
		"Set":             reflect.ValueOf(h.Set),
		"Text":            reflect.ValueOf(h.Text),
		"TextCentered":    reflect.ValueOf(h.TextCentered),
		"Box":             reflect.ValueOf(h.Box),
		"Fill":            reflect.ValueOf(h.Fill),
		"Width":           reflect.ValueOf(h.Width),
		"Height":          reflect.ValueOf(h.Height),
	}
	for slot, name := range slotNames {
		syms[name] = reflect.ValueOf(constant.MakeInt64(int64(slot)))
	}
	return interp.Exports{HostPackage + "/host": syms}
}
