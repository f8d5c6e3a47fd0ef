package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMapKey(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		msg  tea.KeyMsg
		want string
		ok   bool
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, "up", true},
		{tea.KeyMsg{Type: tea.KeyLeft}, "left", true},
		{tea.KeyMsg{Type: tea.KeySpace}, "space", true},
		{tea.KeyMsg{Type: tea.KeyEnter}, "enter", true},
		{tea.KeyMsg{Type: tea.KeyEsc}, "escape", true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")}, "w", true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")}, "z", true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}, "", false},
	}
	for _, tt := range tests {
		got, ok := km.MapKey(tt.msg)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MapKey(%q) = %q, %v; want %q, %v", tt.msg.String(), got, ok, tt.want, tt.ok)
		}
	}
}

func TestMapGameAction(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		msg  tea.KeyMsg
		want GameAction
	}{
		{tea.KeyMsg{Type: tea.KeyCtrlC}, GameActionQuit},
		{tea.KeyMsg{Type: tea.KeyCtrlR}, GameActionReload},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, GameActionBack},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}, GameActionRestart},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}, GameActionMute},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")}, GameActionNone},
	}
	for _, tt := range tests {
		if got := km.MapGameAction(tt.msg); got != tt.want {
			t.Errorf("MapGameAction(%q) = %v, want %v", tt.msg.String(), got, tt.want)
		}
	}
}

func TestMapKeyToMenuAction(t *testing.T) {
	km := NewKeyMapper()
	if got := km.MapKeyToMenuAction(tea.KeyMsg{Type: tea.KeyTab}); got != MenuActionScoreboard {
		t.Errorf("tab = %v, want MenuActionScoreboard", got)
	}
	if got := km.MapKeyToMenuAction(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}); got != MenuActionDown {
		t.Errorf("j = %v, want MenuActionDown", got)
	}
}
