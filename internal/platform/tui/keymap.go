package tui

import tea "github.com/charmbracelet/bubbletea"

// KeyMapper translates Bubble Tea key messages into multiplexer key names
// and host-level actions.
type KeyMapper struct{}

// NewKeyMapper creates a key mapper with the default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// GameAction is a host-level action taken while a game is on screen.
type GameAction int

const (
	GameActionNone GameAction = iota
	GameActionQuit
	GameActionBack
	GameActionRestart
	GameActionReload
	GameActionMute
)

// MapGameAction returns the host action bound to msg, if any.
func (km *KeyMapper) MapGameAction(msg tea.KeyMsg) GameAction {
	switch msg.String() {
	case "ctrl+c":
		return GameActionQuit
	case "q":
		return GameActionBack
	case "r":
		return GameActionRestart
	case "ctrl+r":
		return GameActionReload
	case "m":
		return GameActionMute
	}
	return GameActionNone
}

// MapKey returns the multiplexer key name for a terminal key. Terminals
// report no key-up, so callers feed the result to Multiplexer.Tap.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyUp:
		return "up", true
	case tea.KeyDown:
		return "down", true
	case tea.KeyLeft:
		return "left", true
	case tea.KeyRight:
		return "right", true
	case tea.KeySpace:
		return "space", true
	case tea.KeyEnter:
		return "enter", true
	case tea.KeyEsc:
		return "escape", true
	case tea.KeyShiftLeft, tea.KeyShiftRight, tea.KeyShiftUp, tea.KeyShiftDown:
		return "shift", true
	}

	switch msg.String() {
	case "w", "a", "s", "d", "z", "x":
		return msg.String(), true
	case " ":
		return "space", true
	}
	return "", false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionScoreboard
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k":
		return MenuActionUp
	case "s", "down", "j":
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	case "tab":
		return MenuActionScoreboard
	}
	return MenuActionNone
}
