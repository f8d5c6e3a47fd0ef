package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/core"
)

// palette holds the ANSI 256-color code for every program color name.
var palette = [...]string{
	core.ColorRed:           "1",
	core.ColorGreen:         "2",
	core.ColorYellow:        "3",
	core.ColorBlue:          "4",
	core.ColorMagenta:       "5",
	core.ColorCyan:          "6",
	core.ColorWhite:         "7",
	core.ColorBrightRed:     "9",
	core.ColorBrightGreen:   "10",
	core.ColorBrightYellow:  "11",
	core.ColorBrightBlue:    "12",
	core.ColorBrightMagenta: "13",
	core.ColorBrightCyan:    "14",
	core.ColorBrightWhite:   "15",
	core.ColorOrange:        "208",
	core.ColorGray:          "245",
}

var cellStyles = func() []lipgloss.Style {
	styles := make([]lipgloss.Style, len(palette))
	for c, code := range palette {
		styles[c] = lipgloss.NewStyle()
		if code != "" {
			styles[c] = styles[c].Foreground(lipgloss.Color(code))
		}
	}
	return styles
}()

func styleFor(c core.Color) lipgloss.Style {
	if int(c) < len(cellStyles) {
		return cellStyles[c]
	}
	return cellStyles[core.ColorDefault]
}

// RenderScreen converts a screen to styled text, one line per row.
func RenderScreen(s *core.Screen) string {
	lines := make([]string, s.Height())
	for y := range lines {
		lines[y] = renderRow(s, y)
	}
	return strings.Join(lines, "\n")
}

// renderRow styles runs of same-colored cells together.
func renderRow(s *core.Screen, y int) string {
	var sb strings.Builder
	var run []rune
	var color core.Color

	flush := func() {
		if len(run) > 0 {
			sb.WriteString(styleFor(color).Render(string(run)))
			run = run[:0]
		}
	}
	for x := range s.Width() {
		cell := s.GetCell(x, y)
		if cell.Color != color {
			flush()
			color = cell.Color
		}
		run = append(run, cell.Rune)
	}
	flush()
	return sb.String()
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
)

// statusLine summarizes the session under the play field.
func statusLine(st bridge.Status, score, high int, sound string, muted bool) string {
	parts := []string{
		strings.ToUpper(st.String()),
		fmt.Sprintf("score %d", score),
		fmt.Sprintf("hi %d", high),
	}
	switch {
	case muted:
		parts = append(parts, "muted")
	case sound != "":
		parts = append(parts, "~"+sound)
	}
	hint := "q menu  m mute"
	if st == bridge.StatusGameOver {
		hint = "r retry  " + hint
	}
	return statusStyle.Render(strings.Join(parts, "  ") + "   " + hint)
}
