package vt

import "strings"

// Snapshot is a point-in-time copy of what a renderer needs. It shares no
// memory with the terminal.
type Snapshot struct {
	Rows          int      `json:"rows"`
	Cols          int      `json:"cols"`
	CursorX       int      `json:"cursor_x"`
	CursorY       int      `json:"cursor_y"`
	CursorVisible bool     `json:"cursor_visible"`
	AltScreen     bool     `json:"alt_screen"`
	Title         string   `json:"title"`
	Cells         [][]Cell `json:"cells"`
	Tabs          []Tab    `json:"tabs"`
	ActiveTab     int      `json:"active_tab"`
	Generation    uint64   `json:"generation"`
}

// Lines returns the text of every row with trailing blanks trimmed.
func (s Snapshot) Lines() []string {
	out := make([]string, len(s.Cells))
	for y, row := range s.Cells {
		out[y] = RowText(row)
	}
	return out
}

// Text joins Lines with newlines, dropping trailing empty lines.
func (s Snapshot) Text() string {
	lines := s.Lines()
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// RowText renders a row as a string, skipping wide-glyph continuation
// cells and trimming trailing spaces.
func RowText(row []Cell) string {
	var b strings.Builder
	for _, c := range row {
		if c.Width == 0 || c.Glyph == 0 {
			continue
		}
		b.WriteRune(c.Glyph)
	}
	return strings.TrimRight(b.String(), " ")
}
