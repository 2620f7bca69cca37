package vt

// ANSI modes (CSI n h / CSI n l)
const (
	ModeInsert  = 4  // IRM
	ModeNewline = 20 // LNM - LF also does CR
)

// DEC private modes (CSI ? n h / CSI ? n l)
const (
	ModeAutoWrap          = 7    // DECAWM
	ModeCursorVisible     = 25   // DECTCEM
	ModeAltScreen         = 47   // switch buffers only
	ModeAltScreenLegacy   = 1047 // same as 47
	ModeSaveCursor        = 1048 // DECSC on set, DECRC on reset
	ModeAltScreenSaveCurs = 1049 // save cursor, switch, clear alternate
)
