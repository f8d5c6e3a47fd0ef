package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(20, 5)

	if s.Width() != 20 || s.Height() != 5 {
		t.Fatalf("size = %dx%d, expected 20x5", s.Width(), s.Height())
	}
	for y := 0; y < s.Height(); y++ {
		if row := s.Row(y); row != strings.Repeat(" ", 20) {
			t.Errorf("row %d = %q, expected blanks", y, row)
		}
	}
}

func TestNewScreenMinimumSize(t *testing.T) {
	s := NewScreen(0, -3)
	if s.Width() != 1 || s.Height() != 1 {
		t.Errorf("size = %dx%d, expected 1x1", s.Width(), s.Height())
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X', ColorRed)
	if got := s.GetCell(5, 5); got.Rune != 'X' || got.Color != ColorRed {
		t.Errorf("GetCell(5, 5) = %+v, expected red X", got)
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A', ColorDefault)
	s.Set(100, 0, 'A', ColorDefault)
	s.Set(0, -1, 'A', ColorDefault)
	s.Set(0, 100, 'A', ColorDefault)

	if s.Get(-1, -1) != ' ' {
		t.Error("out of bounds Get should return space")
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 2)
	s.DrawText(7, 0, "hello", ColorGreen)

	if got := s.Row(0); got != "       hel" {
		t.Errorf("Row(0) = %q, expected clipped text", got)
	}
}

func TestScreenDrawTextCentered(t *testing.T) {
	s := NewScreen(11, 1)
	s.DrawTextCentered(0, "abc", ColorDefault)

	if got := s.Row(0); got != "    abc    " {
		t.Errorf("Row(0) = %q", got)
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawBox(NewRect(0, 0, 4, 3), ColorDefault)

	want := []string{"┌──┐", "│  │", "└──┘"}
	for y, row := range want {
		if got := s.Row(y); got != row {
			t.Errorf("Row(%d) = %q, expected %q", y, got, row)
		}
	}
}

func TestScreenDrawRect(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawRect(NewRect(1, 1, 3, 1), '#', ColorDefault)

	if got := s.String(); got != "     \n ### \n     " {
		t.Errorf("String() = %q", got)
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(5, 5)
	s.Set(1, 1, 'A', ColorDefault)
	s.Set(4, 4, 'B', ColorDefault)

	s.Resize(3, 3)
	if s.Get(1, 1) != 'A' {
		t.Error("content inside new bounds should be preserved")
	}

	s.Resize(6, 6)
	if s.Get(4, 4) != ' ' {
		t.Error("content dropped by shrinking should not come back")
	}
}

func TestScreenCopyTo(t *testing.T) {
	src := NewScreen(3, 2)
	src.DrawText(0, 1, "xyz", ColorBlue)
	dst := NewScreen(1, 1)

	src.CopyTo(dst)
	if dst.Width() != 3 || dst.Height() != 2 {
		t.Fatalf("dst size = %dx%d", dst.Width(), dst.Height())
	}
	if rows := dst.Rows(); rows[1] != "xyz" {
		t.Errorf("dst rows = %q", rows)
	}
	if dst.GetCell(2, 1).Color != ColorBlue {
		t.Error("colors should be copied")
	}
}

func TestParseColor(t *testing.T) {
	if ParseColor("Bright-Green") != ColorBrightGreen {
		t.Error("expected case-insensitive match")
	}
	if ParseColor("no-such-color") != ColorDefault {
		t.Error("unknown names should fall back to default")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ val, lo, hi, want int }{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}
