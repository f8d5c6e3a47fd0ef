package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/relay"
)

// loadedMsg reports the end of a load or reload.
type loadedMsg struct{ err error }

// GameModel runs one game session inside a terminal.
type GameModel struct {
	entry     registry.Entry
	run       *runner
	keyMapper *KeyMapper
	width     int
	height    int

	high       int
	sound      string
	muted      bool
	errText    string
	quitting   bool
	backToMenu bool
}

// NewGameModel creates a model for entry and starts its session wiring.
// The program is loaded by Init.
func NewGameModel(entry registry.Entry, deps Deps, width, height int) GameModel {
	return GameModel{
		entry:     entry,
		run:       newRunner(entry, deps),
		keyMapper: NewKeyMapper(),
		width:     width,
		height:    height,
	}
}

func loadCmd(r *runner) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: r.load()}
	}
}

func reloadCmd(r *runner) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: r.reload()}
	}
}

// Init loads the program and starts the repaint loop.
func (m GameModel) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.run), tickCmd(m.entry.Runtime.TickRate))
}

// Update handles messages.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case loadedMsg:
		if msg.err != nil && m.run.session.Status() == bridge.StatusError {
			m.errText = msg.err.Error()
		}
		return m, nil
	case TickMsg:
		if m.quitting || m.backToMenu {
			return m, nil
		}
		m.drainEvents()
		return m, tickCmd(m.entry.Runtime.TickRate)
	}
	return m, nil
}

// drainEvents applies every queued relay notification without blocking.
func (m *GameModel) drainEvents() {
	for {
		select {
		case ev := <-m.run.events.Messages():
			m.apply(ev)
		default:
			return
		}
	}
}

func (m *GameModel) apply(ev relay.Message) {
	switch ev := ev.(type) {
	case relay.Ready:
		m.errText = ""
	case relay.Error:
		m.errText = ev.Message
	case relay.GameOver:
		if ev.Score > m.high {
			m.high = ev.Score
		}
	case relay.SoundEffect:
		m.sound = ev.Name
	case relay.RestartAck:
		m.sound = ""
	}
	if h := m.run.relay.HighScore(); h > m.high {
		m.high = h
	}
}

func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	status := m.run.session.Status()

	switch m.keyMapper.MapGameAction(msg) {
	case GameActionQuit:
		m.quitting = true
		m.run.close()
		return m, tea.Quit
	case GameActionBack:
		m.backToMenu = true
		m.run.close()
		return m, nil
	case GameActionMute:
		m.muted = !m.muted
		m.run.bus.SetMuted(m.muted)
		return m, nil
	case GameActionRestart:
		if status == bridge.StatusGameOver {
			m.run.relay.RequestRestart()
		}
		return m, nil
	case GameActionReload:
		if status == bridge.StatusError {
			m.errText = ""
			return m, reloadCmd(m.run)
		}
		return m, nil
	}

	if status == bridge.StatusReady && (msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace || msg.String() == " ") {
		if err := m.run.session.Start(); err != nil {
			m.errText = err.Error()
		}
		return m, nil
	}

	if name, ok := m.keyMapper.MapKey(msg); ok {
		m.run.mux.Tap(name)
	}
	return m, nil
}

// View renders the attract screen, the play field or the error screen.
func (m GameModel) View() string {
	if m.quitting || m.backToMenu {
		return ""
	}

	status := m.run.session.Status()
	switch status {
	case bridge.StatusLoading:
		return m.center(titleStyle.Render(fmt.Sprintf("LOADING %s ...", strings.ToUpper(m.entry.Title))))
	case bridge.StatusReady:
		return m.center(m.attract())
	case bridge.StatusError:
		return m.center(m.errorView())
	}

	return m.run.render() + "\n" +
		statusLine(status, m.run.session.Score(), m.high, m.sound, m.muted)
}

func (m GameModel) attract() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(m.entry.Title)))
	b.WriteString("\n\n")
	for _, c := range m.entry.Controls {
		b.WriteString(c)
		b.WriteString("\n")
	}
	if m.entry.Competitive {
		b.WriteString(fmt.Sprintf("\nHIGH SCORE %d\n", m.high))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("enter to start  q back"))
	return b.String()
}

func (m GameModel) errorView() string {
	text := m.errText
	if text == "" {
		if err := m.run.session.Err(); err != nil {
			text = err.Error()
		}
	}
	return alertStyle.Render("PROGRAM ERROR") + "\n\n" + text + "\n\n" +
		statusStyle.Render("ctrl+r reload  q back")
}

func (m GameModel) center(s string) string {
	if m.width <= 0 || m.height <= 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// Close ends the session. Safe to call more than once.
func (m GameModel) Close() {
	m.run.close()
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}
