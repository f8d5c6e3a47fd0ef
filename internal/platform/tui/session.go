package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/retrodesk/internal/registry"
)

// gameTracker remembers the running game across model copies so the host
// can close it when the connection ends.
type gameTracker struct {
	mu   sync.Mutex
	game *GameModel
}

func (t *gameTracker) set(g *GameModel) {
	t.mu.Lock()
	t.game = g
	t.mu.Unlock()
}

func (t *gameTracker) close() {
	t.mu.Lock()
	g := t.game
	t.game = nil
	t.mu.Unlock()
	if g != nil {
		g.Close()
	}
}

type view int

const (
	viewMenu view = iota
	viewGame
	viewScoreboard
)

// SessionModel manages the full terminal flow: menu -> game -> menu, with
// the scoreboard one key away from the menu.
type SessionModel struct {
	deps     Deps
	user     string
	width    int
	height   int
	view     view
	menu     MenuModel
	game     *GameModel
	board    ScoreboardModel
	tracker  *gameTracker
	quitting bool
}

// NewSessionModel creates a session that starts at the menu.
func NewSessionModel(deps Deps, user string, width, height int) SessionModel {
	return SessionModel{
		deps:    deps,
		user:    user,
		width:   width,
		height:  height,
		menu:    NewMenuModel(deps, width, height),
		tracker: &gameTracker{},
	}
}

// NewGameSessionModel creates a session that opens entry straight away.
func NewGameSessionModel(deps Deps, entry registry.Entry, width, height int) SessionModel {
	m := NewSessionModel(deps, "", width, height)
	g := NewGameModel(entry, deps, width, height)
	m.game = &g
	m.view = viewGame
	m.tracker.set(m.game)
	return m
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	if m.view == viewGame && m.game != nil {
		return m.game.Init()
	}
	return m.menu.Init()
}

// Update routes messages to the active view.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = wsm.Width, wsm.Height
	}

	switch m.view {
	case viewGame:
		return m.updateGame(msg)
	case viewScoreboard:
		return m.updateScoreboard(msg)
	default:
		return m.updateMenu(msg)
	}
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if mm, ok := next.(MenuModel); ok {
		m.menu = mm
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.menu.WantsScoreboard():
		m.board = NewScoreboardModel(m.deps.Scores, m.width, m.height)
		m.view = viewScoreboard
		return m, m.board.Init()
	case m.menu.Selected() != nil:
		entry, err := registry.Lookup(m.menu.Selected().GameID)
		if err != nil {
			m.menu = NewMenuModel(m.deps, m.width, m.height)
			return m, nil
		}
		m.deps.logger().Info("game started", "game", entry.ID, "user", m.user)
		g := NewGameModel(entry, m.deps, m.width, m.height)
		m.game = &g
		m.view = viewGame
		m.tracker.set(m.game)
		return m, m.game.Init()
	}
	return m, cmd
}

func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	if gm, ok := next.(GameModel); ok {
		m.game = &gm
	}

	switch {
	case m.game.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.game.BackToMenu():
		m.tracker.set(nil)
		m.game = nil
		m.view = viewMenu
		m.menu = NewMenuModel(m.deps, m.width, m.height)
		return m, m.menu.Init()
	}
	return m, cmd
}

func (m SessionModel) updateScoreboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.board.Update(msg)
	if bm, ok := next.(ScoreboardModel); ok {
		m.board = bm
	}

	switch {
	case m.board.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.board.IsGoingBack():
		m.view = viewMenu
		m.menu = NewMenuModel(m.deps, m.width, m.height)
		return m, m.menu.Init()
	}
	return m, cmd
}

// View renders the active view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.view {
	case viewGame:
		return m.game.View()
	case viewScoreboard:
		return m.board.View()
	default:
		return m.menu.View()
	}
}

// Close ends any running game session. Safe to call from any copy of
// the model.
func (m SessionModel) Close() {
	m.tracker.close()
}

// Run starts the session in the local terminal. An empty gameID opens the
// menu.
func Run(deps Deps, gameID string, width, height int) error {
	model := NewSessionModel(deps, "", width, height)
	if gameID != "" {
		entry, err := registry.Lookup(gameID)
		if err != nil {
			return err
		}
		model = NewGameSessionModel(deps, entry, width, height)
	}

	defer model.Close()
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
