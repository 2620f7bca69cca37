package vt

func (s *State) dispatchCSI(ev Event) {
	if priv := ev.Private(); priv != 0 {
		if priv == '?' && (ev.Byte == 'h' || ev.Byte == 'l') {
			s.SetMode(ev.Params, true, ev.Byte == 'h')
		}
		return
	}
	if len(ev.Intermediates) > 0 {
		return
	}

	switch ev.Byte {
	case 'A':
		s.CursorUp(ev.Param(0, 1))
	case 'B':
		s.CursorDown(ev.Param(0, 1))
	case 'C':
		s.CursorForward(ev.Param(0, 1))
	case 'D':
		s.CursorBack(ev.Param(0, 1))
	case 'E':
		s.CursorDown(ev.Param(0, 1))
		s.CarriageReturn()
	case 'F':
		s.CursorUp(ev.Param(0, 1))
		s.CarriageReturn()
	case 'G', '`':
		s.CursorToColumn(ev.Param(0, 1))
	case 'd':
		s.CursorToLine(ev.Param(0, 1))
	case 'H', 'f':
		s.CursorPosition(ev.Param(0, 1), ev.Param(1, 1))
	case 'J':
		s.EraseInDisplay(ev.Param(0, 0))
	case 'K':
		s.EraseInLine(ev.Param(0, 0))
	case '@':
		s.InsertCharacters(ev.Param(0, 1))
	case 'P':
		s.DeleteCharacters(ev.Param(0, 1))
	case 'X':
		s.EraseCharacters(ev.Param(0, 1))
	case 'L':
		s.InsertLines(ev.Param(0, 1))
	case 'M':
		s.DeleteLines(ev.Param(0, 1))
	case 'S':
		s.ScrollUp(ev.Param(0, 1))
	case 'T':
		s.ScrollDown(ev.Param(0, 1))
	case 'm':
		s.SelectGraphicRendition(ev.Params)
	case 'h', 'l':
		s.SetMode(ev.Params, false, ev.Byte == 'h')
	case 'r':
		s.SetMargins(ev.Param(0, 1), ev.Param(1, s.rows))
	case 's':
		s.SaveCursor()
	case 'u':
		s.RestoreCursor()
	}
}

// SelectGraphicRendition updates the pen. No parameters means reset.
func (s *State) SelectGraphicRendition(params []int) {
	if len(params) == 0 {
		s.pen = s.scheme.DefaultPen()
		return
	}

	pen := &s.pen
	palette := &s.scheme.Palette
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == sgrReset:
			*pen = s.scheme.DefaultPen()
		case p == sgrBold:
			pen.Attrs.Bold = true
		case p == sgrItalic:
			pen.Attrs.Italic = true
		case p == sgrUnderline:
			pen.Attrs.Underline = true
		case p == sgrBlink:
			pen.Attrs.Blink = true
		case p == sgrReverse:
			pen.Attrs.Reverse = true
		case p == sgrStrikethrough:
			pen.Attrs.Strikethrough = true
		case p == sgrNormalIntensity:
			pen.Attrs.Bold = false
		case p == sgrNoItalic:
			pen.Attrs.Italic = false
		case p == sgrNoUnderline:
			pen.Attrs.Underline = false
		case p == sgrNoBlink:
			pen.Attrs.Blink = false
		case p == sgrNoReverse:
			pen.Attrs.Reverse = false
		case p == sgrNoStrikethrough:
			pen.Attrs.Strikethrough = false
		case p >= sgrFgBlack && p <= sgrFgWhite:
			pen.Fg = palette[p-sgrFgBlack]
		case p >= sgrBgBlack && p <= sgrBgWhite:
			pen.Bg = palette[p-sgrBgBlack]
		case p >= sgrFgBrightBlack && p <= sgrFgBrightWhite:
			pen.Fg = palette[BrightBlack+p-sgrFgBrightBlack]
		case p >= sgrBgBrightBlack && p <= sgrBgBrightWhite:
			pen.Bg = palette[BrightBlack+p-sgrBgBrightBlack]
		case p == sgrFgDefault:
			pen.Fg = s.scheme.Foreground
		case p == sgrBgDefault:
			pen.Bg = s.scheme.Background
		case p == sgrFgExtended, p == sgrBgExtended:
			c, used, ok := s.extendedColor(params[i+1:])
			i += used
			if !ok {
				continue
			}
			if p == sgrFgExtended {
				pen.Fg = c
			} else {
				pen.Bg = c
			}
		}
	}
}

// extendedColor decodes the tail of a 38 or 48 parameter: 5;n for the 256
// color palette or 2;r;g;b for truecolor. It reports how many parameters
// it consumed.
func (s *State) extendedColor(rest []int) (Color, int, bool) {
	if len(rest) == 0 {
		return Color{}, 0, false
	}
	switch rest[0] {
	case sgrExtendedIndexed:
		if len(rest) < 2 {
			return Color{}, len(rest), false
		}
		c, ok := Color256(rest[1], &s.scheme.Palette)
		return c, 2, ok
	case sgrExtendedTruecolr:
		if len(rest) < 4 {
			return Color{}, len(rest), false
		}
		return RGB(channel(rest[1]), channel(rest[2]), channel(rest[3])), 4, true
	}
	return Color{}, 1, false
}

func channel(v int) uint8 {
	return uint8(clamp(v, 0, 255))
}
