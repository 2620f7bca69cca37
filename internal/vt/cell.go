package vt

import (
	"encoding/json"
	"fmt"
)

// Color is an RGBA color. The zero value is transparent black.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// Hex formats the color as #rrggbb, or #rrggbbaa when not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// Attributes are the style flags of a cell.
type Attributes struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Blink         bool `json:"blink,omitempty"`
	Reverse       bool `json:"reverse,omitempty"`
}

// Cell is one grid position. Width is 1 for a normal glyph, 2 for the
// lead cell of a wide glyph and 0 for the cell a wide glyph spills into;
// continuation cells carry a zero Glyph.
type Cell struct {
	Glyph rune
	Fg    Color
	Bg    Color
	Attrs Attributes
	Width uint8
}

type cellJSON struct {
	Glyph string     `json:"ch"`
	Fg    Color      `json:"fg"`
	Bg    Color      `json:"bg"`
	Attrs Attributes `json:"attrs"`
	Width uint8      `json:"w"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	glyph := ""
	if c.Glyph != 0 {
		glyph = string(c.Glyph)
	}
	return json.Marshal(cellJSON{Glyph: glyph, Fg: c.Fg, Bg: c.Bg, Attrs: c.Attrs, Width: c.Width})
}

// Pen is the color and style applied to glyphs as they are printed.
type Pen struct {
	Fg    Color
	Bg    Color
	Attrs Attributes
}

// Scheme holds the default colors and the 16-color ANSI palette.
type Scheme struct {
	Foreground Color
	Background Color
	Cursor     Color
	Palette    [16]Color
}

// DefaultScheme is a dark scheme used when no configuration is loaded.
func DefaultScheme() Scheme {
	return Scheme{
		Foreground: RGB(0xcd, 0xd6, 0xf4),
		Background: RGB(0x1e, 0x1e, 0x2e),
		Cursor:     RGB(0xf5, 0xe0, 0xdc),
		Palette: [16]Color{
			Black:         RGB(0x45, 0x47, 0x5a),
			Red:           RGB(0xf3, 0x8b, 0xa8),
			Green:         RGB(0xa6, 0xe3, 0xa1),
			Yellow:        RGB(0xf9, 0xe2, 0xaf),
			Blue:          RGB(0x89, 0xb4, 0xfa),
			Magenta:       RGB(0xf5, 0xc2, 0xe7),
			Cyan:          RGB(0x94, 0xe2, 0xd5),
			White:         RGB(0xba, 0xc2, 0xde),
			BrightBlack:   RGB(0x58, 0x5b, 0x70),
			BrightRed:     RGB(0xf3, 0x8b, 0xa8),
			BrightGreen:   RGB(0xa6, 0xe3, 0xa1),
			BrightYellow:  RGB(0xf9, 0xe2, 0xaf),
			BrightBlue:    RGB(0x89, 0xb4, 0xfa),
			BrightMagenta: RGB(0xf5, 0xc2, 0xe7),
			BrightCyan:    RGB(0x94, 0xe2, 0xd5),
			BrightWhite:   RGB(0xa6, 0xad, 0xc8),
		},
	}
}

// DefaultPen is the pen after SGR 0.
func (s Scheme) DefaultPen() Pen {
	return Pen{Fg: s.Foreground, Bg: s.Background}
}

// Blank is the default cell: a space on the scheme background.
func (s Scheme) Blank() Cell {
	return Cell{Glyph: ' ', Fg: s.Foreground, Bg: s.Background, Width: 1}
}
