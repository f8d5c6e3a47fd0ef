package core

import (
	"strings"
	"sync"
)

// Cell is one character position on the render surface.
type Cell struct {
	Rune  rune
	Color Color
}

// Screen is the 2D character surface game programs draw into.
// Programs draw from their frame loop while hosts snapshot it from other
// goroutines, so every access is locked.
type Screen struct {
	mu     sync.RWMutex
	width  int
	height int
	cells  [][]Cell
}

// NewScreen creates a new screen buffer with the given dimensions.
func NewScreen(width, height int) *Screen {
	s := &Screen{
		width:  Max(width, 1),
		height: Max(height, 1),
	}
	s.allocate()
	return s
}

func (s *Screen) allocate() {
	s.cells = make([][]Cell, s.height)
	for y := range s.cells {
		row := make([]Cell, s.width)
		for x := range row {
			row[x] = Cell{Rune: ' '}
		}
		s.cells[y] = row
	}
}

// Width returns the screen width in characters.
func (s *Screen) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

// Height returns the screen height in characters.
func (s *Screen) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// Resize changes the screen dimensions, preserving content where possible.
func (s *Screen) Resize(width, height int) {
	width, height = Max(width, 1), Max(height, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height {
		return
	}

	old := s.cells
	copyW, copyH := Min(s.width, width), Min(s.height, height)
	s.width, s.height = width, height
	s.allocate()
	for y := 0; y < copyH; y++ {
		copy(s.cells[y][:copyW], old[y][:copyW])
	}
}

// Clear fills the entire screen with uncolored spaces.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := range s.cells {
		for x := range s.cells[y] {
			s.cells[y][x] = Cell{Rune: ' '}
		}
	}
}

// Set places a colored rune at the given position.
// Out-of-bounds coordinates are silently ignored.
func (s *Screen) Set(x, y int, r rune, c Color) {
	s.mu.Lock()
	s.set(x, y, r, c)
	s.mu.Unlock()
}

func (s *Screen) set(x, y int, r rune, c Color) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.cells[y][x] = Cell{Rune: r, Color: c}
}

// Get returns the rune at the given position, or space when out of bounds.
func (s *Screen) Get(x, y int) rune {
	return s.GetCell(x, y).Rune
}

// GetCell returns the cell at the given position.
func (s *Screen) GetCell(x, y int) Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Cell{Rune: ' '}
	}
	return s.cells[y][x]
}

// DrawText writes a string horizontally starting at (x, y), clipped to the screen.
func (s *Screen) DrawText(x, y int, text string, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := 0
	for _, r := range text {
		s.set(x+i, y, r, c)
		i++
	}
}

// DrawTextCentered draws text centered horizontally at row y.
func (s *Screen) DrawTextCentered(y int, text string, c Color) {
	x := (s.Width() - len([]rune(text))) / 2
	s.DrawText(x, y, text, c)
}

// DrawRect fills a rectangular area with the given rune.
func (s *Screen) DrawRect(r Rect, fill rune, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			s.set(x, y, fill, c)
		}
	}
}

// DrawBox draws a box outline using box-drawing characters.
func (s *Screen) DrawBox(r Rect, c Color) {
	if r.W < 2 || r.H < 2 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for x := r.X + 1; x < r.Right()-1; x++ {
		s.set(x, r.Y, '─', c)
		s.set(x, r.Bottom()-1, '─', c)
	}
	for y := r.Y + 1; y < r.Bottom()-1; y++ {
		s.set(r.X, y, '│', c)
		s.set(r.Right()-1, y, '│', c)
	}
	s.set(r.X, r.Y, '┌', c)
	s.set(r.Right()-1, r.Y, '┐', c)
	s.set(r.X, r.Bottom()-1, '└', c)
	s.set(r.Right()-1, r.Bottom()-1, '┘', c)
}

// Row returns the runes of row y as a string.
func (s *Screen) Row(y int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if y < 0 || y >= s.height {
		return strings.Repeat(" ", s.width)
	}
	var sb strings.Builder
	sb.Grow(s.width)
	for _, cell := range s.cells[y] {
		sb.WriteRune(cell.Rune)
	}
	return sb.String()
}

// Rows returns every row as plain text. Used for frame messages.
func (s *Screen) Rows() []string {
	h := s.Height()
	rows := make([]string, h)
	for y := range h {
		rows[y] = s.Row(y)
	}
	return rows
}

// String joins all rows with newlines.
func (s *Screen) String() string {
	return strings.Join(s.Rows(), "\n")
}

// CopyTo copies the visible content into dst, resizing dst to match.
func (s *Screen) CopyTo(dst *Screen) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dst.Resize(s.width, s.height)
	dst.mu.Lock()
	defer dst.mu.Unlock()
	for y := range s.cells {
		copy(dst.cells[y], s.cells[y])
	}
}
