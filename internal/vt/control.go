package vt

// C0 control bytes
const (
	NUL byte = 0x00
	BEL byte = 0x07
	BS  byte = 0x08
	HT  byte = 0x09
	LF  byte = 0x0a
	VT  byte = 0x0b
	FF  byte = 0x0c
	CR  byte = 0x0d
	SO  byte = 0x0e
	SI  byte = 0x0f
	CAN byte = 0x18
	SUB byte = 0x1a
	ESC byte = 0x1b
	DEL byte = 0x7f
)

// Sequence introducers, handy when building input by hand.
const (
	CSI = "\x1b["
	OSC = "\x1b]"
	DCS = "\x1bP"
	ST  = "\x1b\\"
)
