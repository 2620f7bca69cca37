package session

import (
	"strings"
	"unicode/utf8"
)

// CommandLine rebuilds the lines a user types so they can be recorded as
// command events. It understands printable runes, backspace, Ctrl-C and
// Ctrl-U. Tab completion or an escape sequence such as a cursor key makes
// the line unknown until the next Enter, and unknown lines are dropped.
type CommandLine struct {
	line    []rune
	unknown bool
	partial []byte
}

// Feed consumes typed bytes and returns every line completed by Enter.
func (c *CommandLine) Feed(data []byte) []string {
	var done []string

	buf := append(c.partial, data...)
	c.partial = nil
	for len(buf) > 0 {
		if !utf8.FullRune(buf) {
			c.partial = append([]byte(nil), buf...)
			break
		}
		r, size := utf8.DecodeRune(buf)
		buf = buf[size:]

		switch {
		case r == '\r' || r == '\n':
			if cmd := strings.TrimSpace(string(c.line)); cmd != "" && !c.unknown {
				done = append(done, cmd)
			}
			c.Reset()
		case r == 0x7f || r == '\b':
			if n := len(c.line); n > 0 {
				c.line = c.line[:n-1]
			}
		case r == 0x03 || r == 0x15:
			c.Reset()
		case r == '\t' || r == 0x1b:
			c.unknown = true
		case r < 0x20 || r == utf8.RuneError:
		default:
			c.line = append(c.line, r)
		}
	}
	return done
}

// Reset forgets the line being typed.
func (c *CommandLine) Reset() {
	c.line = c.line[:0]
	c.unknown = false
}
