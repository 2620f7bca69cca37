package vt

// SGR parameter codes
const (
	sgrReset            = 0
	sgrBold             = 1
	sgrItalic           = 3
	sgrUnderline        = 4
	sgrBlink            = 5
	sgrReverse          = 7
	sgrStrikethrough    = 9
	sgrNormalIntensity  = 22
	sgrNoItalic         = 23
	sgrNoUnderline      = 24
	sgrNoBlink          = 25
	sgrNoReverse        = 27
	sgrNoStrikethrough  = 29
	sgrFgBlack          = 30
	sgrFgWhite          = 37
	sgrFgExtended       = 38
	sgrFgDefault        = 39
	sgrBgBlack          = 40
	sgrBgWhite          = 47
	sgrBgExtended       = 48
	sgrBgDefault        = 49
	sgrFgBrightBlack    = 90
	sgrFgBrightWhite    = 97
	sgrBgBrightBlack    = 100
	sgrBgBrightWhite    = 107
	sgrExtendedIndexed  = 5
	sgrExtendedTruecolr = 2
)

// Palette indices of the 16 ANSI colors
const (
	Black = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

// cubeLevels are the channel values of the xterm 6x6x6 color cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// Color256 resolves an xterm 256-color index. Indices below 16 come from
// base, 16-231 from the color cube and 232-255 from the grey ramp.
func Color256(n int, base *[16]Color) (Color, bool) {
	switch {
	case n < 0 || n > 255:
		return Color{}, false
	case n < 16:
		return base[n], true
	case n < 232:
		n -= 16
		return RGB(cubeLevels[n/36], cubeLevels[(n/6)%6], cubeLevels[n%6]), true
	default:
		v := uint8(8 + (n-232)*10)
		return RGB(v, v, v), true
	}
}
