package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/core"
	"github.com/vovakirdan/retrodesk/internal/programs"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
)

func testDeps() Deps {
	return Deps{
		Fetcher: programs.NewFetcher(""),
		Sandbox: sandbox.Options{ReadyDelay: 5 * time.Millisecond},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuSelect(t *testing.T) {
	m := NewMenuModel(Deps{}, 80, 24)
	if len(m.items) < 4 {
		t.Fatalf("menu has %d items, want at least 4", len(m.items))
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(MenuModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(MenuModel)

	sel := m.Selected()
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.GameID != m.items[1].GameID {
		t.Errorf("selected %q, want %q", sel.GameID, m.items[1].GameID)
	}
	if !strings.Contains(m.View(), "R E T R O D E S K") {
		t.Error("menu view is missing the banner")
	}
}

func TestScoreboardWithoutStorage(t *testing.T) {
	s := NewSessionModel(Deps{}, "tester", 80, 24)

	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyTab})
	s = next.(SessionModel)
	if s.view != viewScoreboard {
		t.Fatalf("view = %v, want scoreboard", s.view)
	}
	if !strings.Contains(s.View(), "Score storage is disabled") {
		t.Errorf("unexpected scoreboard view:\n%s", s.View())
	}

	next, _ = s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	s = next.(SessionModel)
	if s.view != viewMenu {
		t.Errorf("view = %v, want menu after esc", s.view)
	}
}

func TestGameModelLifecycle(t *testing.T) {
	entry, err := registry.Lookup("snake")
	if err != nil {
		t.Fatal(err)
	}
	entry.Runtime.TickRate = 100

	g := NewGameModel(entry, testDeps(), 80, 24)
	defer g.Close()

	next, _ := g.Update(loadCmd(g.run)())
	g = next.(GameModel)
	if st := g.run.session.Status(); st != bridge.StatusReady {
		t.Fatalf("status after load = %v (err: %v)", st, g.run.session.Err())
	}
	if !strings.Contains(g.View(), "SNAKE") {
		t.Errorf("attract screen missing title:\n%s", g.View())
	}

	next, _ = g.Update(tea.KeyMsg{Type: tea.KeyEnter})
	g = next.(GameModel)

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(g.run.render(), "SNAKE") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if st := g.run.session.Status(); st != bridge.StatusRunning && st != bridge.StatusGameOver {
		t.Fatalf("status = %v (err: %v)", st, g.run.session.Err())
	}
	if !strings.Contains(g.run.render(), "SNAKE") {
		t.Fatalf("no frame rendered:\n%s", g.run.render())
	}

	next, _ = g.Update(runes("m"))
	g = next.(GameModel)
	if !g.muted {
		t.Error("m did not mute")
	}

	next, _ = g.Update(TickMsg(time.Now()))
	g = next.(GameModel)
	if !strings.Contains(g.View(), "muted") {
		t.Errorf("status line does not show mute:\n%s", g.View())
	}

	next, _ = g.Update(runes("q"))
	g = next.(GameModel)
	if !g.BackToMenu() {
		t.Error("q did not return to the menu")
	}
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(12, 3)
	s.DrawText(1, 1, "HI", core.ColorBrightYellow)
	s.DrawText(4, 1, "there", core.ColorGray)

	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "HI") || !strings.Contains(lines[1], "there") {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestStatusLine(t *testing.T) {
	line := statusLine(bridge.StatusGameOver, 40, 120, "crash", false)
	for _, want := range []string{"GAME-OVER", "score 40", "hi 120", "~crash", "r retry"} {
		if !strings.Contains(line, want) {
			t.Errorf("status line %q missing %q", line, want)
		}
	}
	if muted := statusLine(bridge.StatusRunning, 0, 0, "crash", true); strings.Contains(muted, "crash") {
		t.Errorf("muted status line still shows the sound: %q", muted)
	}
}
