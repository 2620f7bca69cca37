package vt_test

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termcore/internal/vt"
)

func newTerminal(rows, cols int, opts ...vt.Option) *vt.Terminal {
	return vt.New(append([]vt.Option{vt.WithSize(rows, cols)}, opts...)...)
}

func write(term *vt.Terminal, s string) {
	term.ProcessInput([]byte(s))
}

func assertCursorInBounds(t *testing.T, snap vt.Snapshot) {
	t.Helper()
	assert.GreaterOrEqual(t, snap.CursorX, 0)
	assert.Less(t, snap.CursorX, snap.Cols)
	assert.GreaterOrEqual(t, snap.CursorY, 0)
	assert.Less(t, snap.CursorY, snap.Rows)
}

func assertGridShape(t *testing.T, snap vt.Snapshot) {
	t.Helper()
	require.Len(t, snap.Cells, snap.Rows)
	for y, row := range snap.Cells {
		require.Len(t, row, snap.Cols, "row %d", y)
	}
}

func TestNewTerminalDefaults(t *testing.T) {
	term := vt.New()
	snap := term.Snapshot()

	assert.Equal(t, 24, snap.Rows)
	assert.Equal(t, 80, snap.Cols)
	assert.True(t, snap.CursorVisible)
	assert.False(t, snap.AltScreen)
	assertGridShape(t, snap)

	blank := vt.DefaultScheme().Blank()
	assert.Equal(t, blank, snap.Cells[0][0])
	assert.Equal(t, blank, snap.Cells[23][79])

	require.Len(t, snap.Tabs, 1)
	assert.Equal(t, vt.DefaultTabTitle, snap.Tabs[0].Title)
}

func TestCursorStaysInBoundsWhilePrinting(t *testing.T) {
	term := newTerminal(6, 10)
	rng := rand.New(rand.NewSource(1))
	alphabet := []rune("abcXYZ 世界🙂\t\r\n\b")

	for i := 0; i < 2000; i++ {
		r := alphabet[rng.Intn(len(alphabet))]
		write(term, string(r))
		assertCursorInBounds(t, term.Snapshot())
	}
	assertGridShape(t, term.Snapshot())
}

func TestPrintingFullRowWraps(t *testing.T) {
	term := vt.New()
	write(term, strings.Repeat("x", 80))

	snap := term.Snapshot()
	assert.Equal(t, 0, snap.CursorX)
	assert.Equal(t, 1, snap.CursorY)
	assert.Equal(t, strings.Repeat("x", 80), snap.Lines()[0])
}

func TestPrintingFullLastRowScrolls(t *testing.T) {
	term := vt.New()
	write(term, "top\x1b[24;1H")
	write(term, strings.Repeat("y", 80))

	snap := term.Snapshot()
	assert.Equal(t, 0, snap.CursorX)
	assert.Equal(t, 23, snap.CursorY)
	assert.Equal(t, strings.Repeat("y", 80), snap.Lines()[22])
	assert.Equal(t, "", snap.Lines()[23])
	assert.Equal(t, "", snap.Lines()[0])

	history := term.Scrollback()
	require.Len(t, history, 1)
	assert.Equal(t, "top", vt.RowText(history[0]))
	assert.Equal(t, 1, term.ScrollbackLen())
}

func TestScrollbackLenTracksHistory(t *testing.T) {
	term := newTerminal(2, 10, vt.WithScrollback(3))
	assert.Zero(t, term.ScrollbackLen())

	write(term, "1\r\n2\r\n3\r\n")
	assert.Equal(t, 2, term.ScrollbackLen())

	write(term, "4\r\n5\r\n6\r\n")
	assert.Equal(t, 3, term.ScrollbackLen())
	assert.Len(t, term.Scrollback(), term.ScrollbackLen())

	write(term, "\x1b[3J")
	assert.Zero(t, term.ScrollbackLen())
}

func TestHelloThenFullRow(t *testing.T) {
	term := vt.New()
	write(term, "Hello\r\n")
	write(term, strings.Repeat("A", 80))

	snap := term.Snapshot()
	lines := snap.Lines()
	assert.Equal(t, "Hello", lines[0])
	assert.Equal(t, strings.Repeat("A", 80), lines[1])
	for x := 0; x < 80; x++ {
		assert.Equal(t, 'A', snap.Cells[1][x].Glyph)
	}
	assert.Equal(t, 0, snap.CursorX)
	assert.Equal(t, 2, snap.CursorY)
}

func TestExecuteControls(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		x, y  int
	}{
		{"line feed keeps column", "ab\n", 2, 1},
		{"carriage return", "abc\r", 0, 0},
		{"tab from zero", "\t", 8, 0},
		{"tab from inside stop", "ab\t", 8, 0},
		{"tab clamps at last column", "\x1b[1;79H\t", 79, 0},
		{"backspace", "abc\b", 2, 0},
		{"backspace saturates", "\b\b", 0, 0},
		{"vertical tab is a line feed", "a\v", 1, 1},
		{"bell is ignored", "a\a", 1, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := vt.New()
			write(term, tc.input)
			snap := term.Snapshot()
			assert.Equal(t, tc.x, snap.CursorX)
			assert.Equal(t, tc.y, snap.CursorY)
		})
	}
}

func TestCursorMovement(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		x, y  int
	}{
		{"absolute", "\x1b[5;10H", 9, 4},
		{"absolute defaults to home", "\x1b[5;10H\x1b[H", 0, 0},
		{"absolute clamps", "\x1b[999;999H", 79, 23},
		{"hvp", "\x1b[2;3f", 2, 1},
		{"up clamps at top", "\x1b[3;3H\x1b[100A", 2, 0},
		{"down", "\x1b[2B", 0, 2},
		{"down clamps at bottom", "\x1b[100B", 0, 23},
		{"forward clamps at edge", "\x1b[500C", 79, 0},
		{"back clamps at edge", "\x1b[1;5H\x1b[9D", 0, 0},
		{"default count is one", "\x1b[5;5H\x1b[A\x1b[D", 3, 3},
		{"next line", "\x1b[1;5H\x1b[2E", 0, 2},
		{"previous line", "\x1b[5;5H\x1b[F", 0, 3},
		{"column absolute", "\x1b[3;3H\x1b[20G", 19, 2},
		{"line absolute", "\x1b[3;3H\x1b[10d", 2, 9},
		{"save and restore", "\x1b[4;7H\x1b[s\x1b[H\x1b[u", 6, 3},
		{"dec save and restore", "\x1b[4;7H\x1b7\x1b[H\x1b8", 6, 3},
		{"restore without save homes", "\x1b[4;7H\x1b8", 0, 0},
		{"unknown final ignored", "\x1b[4;7H\x1b[5z", 6, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := vt.New()
			write(term, tc.input)
			snap := term.Snapshot()
			assert.Equal(t, tc.x, snap.CursorX)
			assert.Equal(t, tc.y, snap.CursorY)
		})
	}
}

func TestEraseInDisplayClearsWholeScreen(t *testing.T) {
	term := vt.New()
	for i := 0; i < 30; i++ {
		write(term, fmt.Sprintf("line %d with text\r\n", i))
	}
	write(term, "\x1b[5;10H\x1b[2J")

	snap := term.Snapshot()
	blank := vt.DefaultScheme().Blank()
	for y, row := range snap.Cells {
		for x, cell := range row {
			require.Equal(t, blank, cell, "cell %d,%d", y, x)
		}
	}
	assert.Equal(t, 9, snap.CursorX)
	assert.Equal(t, 4, snap.CursorY)
}

func TestEraseModes(t *testing.T) {
	fill := "aaaaa\r\nbbbbb\r\nccccc"
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"display to end", "\x1b[2;3H\x1b[J", []string{"aaaaa", "bb", ""}},
		{"display to cursor", "\x1b[2;3H\x1b[1J", []string{"", "   bb", "ccccc"}},
		{"display with scrollback", "\x1b[3J", []string{"", "", ""}},
		{"line to end", "\x1b[2;3H\x1b[K", []string{"aaaaa", "bb", "ccccc"}},
		{"line to cursor", "\x1b[2;3H\x1b[1K", []string{"aaaaa", "   bb", "ccccc"}},
		{"whole line", "\x1b[2;3H\x1b[2K", []string{"aaaaa", "", "ccccc"}},
		{"erase characters", "\x1b[2;2H\x1b[3X", []string{"aaaaa", "b   b", "ccccc"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := newTerminal(3, 6)
			write(term, fill+tc.input)
			assert.Equal(t, tc.want, term.Snapshot().Lines())
		})
	}
}

func TestEraseInDisplayThreeClearsScrollback(t *testing.T) {
	term := newTerminal(2, 10)
	write(term, "1\r\n2\r\n3\r\n")
	require.NotEmpty(t, term.Scrollback())

	write(term, "\x1b[3J")
	assert.Empty(t, term.Scrollback())
}

func TestEraseUsesDefaultBackground(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		row   int
		col   int
	}{
		{"ED 2", "\x1b[41mX\x1b[2J", 1, 3},
		{"ED 0", "\x1b[41mX\x1b[1;1H\x1b[J", 0, 0},
		{"EL 2", "\x1b[41mX\x1b[2K", 0, 2},
		{"EL 1", "\x1b[41mXYZ\x1b[1K", 0, 0},
	}

	scheme := vt.DefaultScheme()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := newTerminal(2, 4)
			write(term, tc.input)

			cell := term.Snapshot().Cells[tc.row][tc.col]
			assert.Equal(t, ' ', cell.Glyph)
			assert.Equal(t, scheme.Background, cell.Bg)
			assert.Equal(t, scheme.Foreground, cell.Fg)
		})
	}
}

func TestScrolledInRowUsesPenBackground(t *testing.T) {
	term := newTerminal(2, 4)
	write(term, "a\r\nb\x1b[44m\r\n")

	scheme := vt.DefaultScheme()
	snap := term.Snapshot()
	assert.Equal(t, "b", snap.Lines()[0])
	assert.Equal(t, scheme.Palette[vt.Blue], snap.Cells[1][3].Bg)
}

func TestCharacterEditing(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"insert blanks", "abcdef\x1b[1;3H\x1b[2@", "ab  cdef"},
		{"delete characters", "abcdef\x1b[1;3H\x1b[2P", "abef"},
		{"delete past end", "abcdef\x1b[1;3H\x1b[99P", "ab"},
		{"insert mode", "abc\x1b[1;2H\x1b[4hX\x1b[4l", "aXbc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := vt.New()
			write(term, tc.input)
			assert.Equal(t, tc.want, term.Snapshot().Lines()[0])
		})
	}
}

func TestLineEditing(t *testing.T) {
	fill := "a\r\nb\r\nc\r\nd\r\ne"
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"insert line", "\x1b[2;1H\x1b[L", []string{"a", "", "b", "c", "d"}},
		{"delete line", "\x1b[2;1H\x1b[M", []string{"a", "c", "d", "e", ""}},
		{"scroll up", "\x1b[2S", []string{"c", "d", "e", "", ""}},
		{"scroll down", "\x1b[T", []string{"", "a", "b", "c", "d"}},
		{"region scroll on line feed", "\x1b[2;4r\x1b[4;1H\n", []string{"a", "c", "d", "", "e"}},
		{"region reverse index", "\x1b[2;4r\x1b[2;1H\x1bM", []string{"a", "", "b", "c", "e"}},
		{"invalid region ignored", "\x1b[4;2r\x1b[5;1H\n", []string{"b", "c", "d", "e", ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := newTerminal(5, 4)
			write(term, fill+tc.input)
			assert.Equal(t, tc.want, term.Snapshot().Lines())
		})
	}
}

func TestScrollRegionHomesCursorAndSkipsScrollback(t *testing.T) {
	term := newTerminal(5, 4)
	write(term, "\x1b[3;3H\x1b[2;4r")

	snap := term.Snapshot()
	assert.Equal(t, 0, snap.CursorX)
	assert.Equal(t, 0, snap.CursorY)

	write(term, "\x1b[4;1H\n\n\n")
	assert.Empty(t, term.Scrollback())
}

func TestSelectGraphicRendition(t *testing.T) {
	scheme := vt.DefaultScheme()

	testCases := []struct {
		name  string
		input string
		check func(t *testing.T, c vt.Cell)
	}{
		{"bold red", "\x1b[1;31mX", func(t *testing.T, c vt.Cell) {
			assert.True(t, c.Attrs.Bold)
			assert.Equal(t, scheme.Palette[vt.Red], c.Fg)
		}},
		{"bright background", "\x1b[102mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Palette[vt.BrightGreen], c.Bg)
		}},
		{"bright foreground", "\x1b[94mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Palette[vt.BrightBlue], c.Fg)
		}},
		{"256 color cube", "\x1b[38;5;196mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.RGB(255, 0, 0), c.Fg)
		}},
		{"256 color grey ramp", "\x1b[48;5;232mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.RGB(8, 8, 8), c.Bg)
		}},
		{"256 color base palette", "\x1b[38;5;4mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Palette[vt.Blue], c.Fg)
		}},
		{"truecolor", "\x1b[48;2;10;20;30mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.RGB(10, 20, 30), c.Bg)
			assert.Equal(t, uint8(255), c.Bg.A)
		}},
		{"truecolor saturates", "\x1b[38;2;300;0;0mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.RGB(255, 0, 0), c.Fg)
		}},
		{"extended then more attributes", "\x1b[38;5;21;4mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.RGB(0, 0, 255), c.Fg)
			assert.True(t, c.Attrs.Underline)
		}},
		{"truncated extended is ignored", "\x1b[38;5mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Foreground, c.Fg)
		}},
		{"all flags", "\x1b[1;3;4;5;7;9mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.Attributes{
				Bold: true, Italic: true, Underline: true,
				Blink: true, Reverse: true, Strikethrough: true,
			}, c.Attrs)
		}},
		{"flags off", "\x1b[1;3;4;5;7;9m\x1b[22;23;24;25;27;29mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, vt.Attributes{}, c.Attrs)
		}},
		{"reset", "\x1b[1;31;42m\x1b[0mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Foreground, c.Fg)
			assert.Equal(t, scheme.Background, c.Bg)
			assert.False(t, c.Attrs.Bold)
		}},
		{"empty resets", "\x1b[1;31m\x1b[mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Foreground, c.Fg)
			assert.False(t, c.Attrs.Bold)
		}},
		{"default colors", "\x1b[31;41m\x1b[39;49mX", func(t *testing.T, c vt.Cell) {
			assert.Equal(t, scheme.Foreground, c.Fg)
			assert.Equal(t, scheme.Background, c.Bg)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			term := vt.New()
			write(term, tc.input)
			cell := term.Snapshot().Cells[0][0]
			assert.Equal(t, 'X', cell.Glyph)
			tc.check(t, cell)
		})
	}
}

func TestAlternateBufferLeavesPrimaryUntouched(t *testing.T) {
	for _, mode := range []string{"47", "1047", "1049"} {
		t.Run(mode, func(t *testing.T) {
			term := vt.New()
			write(term, "\x1b[1;32mprimary content\r\nsecond line\x1b[0m")
			before := term.Snapshot()

			write(term, "\x1b[?"+mode+"h")
			assert.True(t, term.Snapshot().AltScreen)
			write(term, "\x1b[2J\x1b[Hfull screen app\x1b[10;10H\x1b[41mXXX")

			write(term, "\x1b[?"+mode+"l")
			after := term.Snapshot()
			assert.False(t, after.AltScreen)
			assert.Equal(t, before.Cells, after.Cells)
		})
	}
}

func TestAlternateBufferSaveCursor(t *testing.T) {
	term := vt.New()
	write(term, "\x1b[3;4H\x1b[?1049h")

	snap := term.Snapshot()
	assert.Equal(t, "", snap.Text(), "alternate buffer starts clear")

	write(term, "\x1b[20;20Hx\x1b[?1049l")
	snap = term.Snapshot()
	assert.Equal(t, 3, snap.CursorX)
	assert.Equal(t, 2, snap.CursorY)
}

func TestAlternateBufferDoesNotFeedScrollback(t *testing.T) {
	term := newTerminal(3, 10)
	write(term, "\x1b[?1049h")
	for i := 0; i < 10; i++ {
		write(term, fmt.Sprintf("alt %d\r\n", i))
	}
	assert.Empty(t, term.Scrollback())
}

func TestScrollback(t *testing.T) {
	term := newTerminal(3, 10)
	write(term, "1\r\n2\r\n3\r\n4")

	assert.Equal(t, []string{"2", "3", "4"}, term.Snapshot().Lines())
	history := term.Scrollback()
	require.Len(t, history, 1)
	assert.Equal(t, "1", vt.RowText(history[0]))
}

func TestScrollbackIsBounded(t *testing.T) {
	term := newTerminal(3, 10, vt.WithScrollback(2))
	for i := 0; i < 10; i++ {
		if i > 0 {
			write(term, "\r\n")
		}
		write(term, fmt.Sprintf("L%d", i))
	}

	history := term.Scrollback()
	require.Len(t, history, 2)
	assert.Equal(t, "L5", vt.RowText(history[0]))
	assert.Equal(t, "L6", vt.RowText(history[1]))

	term.SetScrollback(1)
	history = term.Scrollback()
	require.Len(t, history, 1)
	assert.Equal(t, "L6", vt.RowText(history[0]))
}

func TestScrollbackDisabled(t *testing.T) {
	term := newTerminal(2, 10, vt.WithScrollback(0))
	for i := 0; i < 20; i++ {
		write(term, "line\r\n")
	}
	assert.Empty(t, term.Scrollback())
	assertGridShape(t, term.Snapshot())
}

func TestWideCharacters(t *testing.T) {
	t.Run("occupies two cells", func(t *testing.T) {
		term := vt.New()
		write(term, "世a")

		snap := term.Snapshot()
		assert.Equal(t, '世', snap.Cells[0][0].Glyph)
		assert.Equal(t, uint8(2), snap.Cells[0][0].Width)
		assert.Equal(t, uint8(0), snap.Cells[0][1].Width)
		assert.Equal(t, 'a', snap.Cells[0][2].Glyph)
		assert.Equal(t, 3, snap.CursorX)
		assert.Equal(t, "世a", snap.Lines()[0])
	})

	t.Run("overwriting continuation clears lead", func(t *testing.T) {
		term := vt.New()
		write(term, "世\x1b[1;2Hx")

		snap := term.Snapshot()
		assert.Equal(t, ' ', snap.Cells[0][0].Glyph)
		assert.Equal(t, uint8(1), snap.Cells[0][0].Width)
		assert.Equal(t, " x", snap.Lines()[0])
	})

	t.Run("wraps when it does not fit", func(t *testing.T) {
		term := newTerminal(3, 5)
		write(term, "abcd世")

		snap := term.Snapshot()
		assert.Equal(t, []string{"abcd", "世", ""}, snap.Lines())
		assert.Equal(t, 2, snap.CursorX)
		assert.Equal(t, 1, snap.CursorY)
	})

	t.Run("zero width is dropped", func(t *testing.T) {
		term := vt.New()
		write(term, "e\u0301")
		assert.Equal(t, 1, term.Snapshot().CursorX)
	})
}

func TestAutoWrapDisabled(t *testing.T) {
	term := newTerminal(3, 5)
	write(term, "\x1b[?7labcdefg")

	snap := term.Snapshot()
	assert.Equal(t, "abcdg", snap.Lines()[0])
	assert.Equal(t, 4, snap.CursorX)
	assert.Equal(t, 0, snap.CursorY)
}

func TestCursorVisibility(t *testing.T) {
	term := vt.New()
	write(term, "\x1b[?25l")
	assert.False(t, term.Snapshot().CursorVisible)
	write(term, "\x1b[?25h")
	assert.True(t, term.Snapshot().CursorVisible)
}

func TestOSCTitle(t *testing.T) {
	term := vt.New()
	write(term, "\x1b]0;vim main.go\x07")

	snap := term.Snapshot()
	assert.Equal(t, "vim main.go", snap.Title)
	assert.Equal(t, "vim main.go", snap.Tabs[0].Title)

	write(term, "\x1b]2;a;b\x1b\\")
	assert.Equal(t, "a;b", term.Snapshot().Title)

	write(term, "\x1b]52;c;aGVsbG8=\x07")
	assert.Equal(t, "a;b", term.Snapshot().Title, "unrelated OSC ignored")
}

func TestFullReset(t *testing.T) {
	term := newTerminal(3, 10)
	write(term, "\x1b[1;31mtext\r\n\r\n\r\nmore\x1b[?25l\x1b[?1049hx\x1bc")

	snap := term.Snapshot()
	assert.False(t, snap.AltScreen)
	assert.True(t, snap.CursorVisible)
	assert.Equal(t, "", snap.Text())
	assert.Equal(t, 0, snap.CursorX)
	assert.Equal(t, 0, snap.CursorY)
	assert.Empty(t, term.Scrollback())

	write(term, "X")
	assert.Equal(t, vt.DefaultScheme().Foreground, term.Snapshot().Cells[0][0].Fg)
}

func TestAlignmentDisplay(t *testing.T) {
	term := newTerminal(2, 3)
	write(term, "\x1b#8")
	assert.Equal(t, []string{"EEE", "EEE"}, term.Snapshot().Lines())
}

func TestResizeRoundTrip(t *testing.T) {
	term := vt.New()
	write(term, strings.Repeat("w", 80))
	write(term, "\x1b[24;80H")

	require.NoError(t, term.Resize(24, 40))
	snap := term.Snapshot()
	assertGridShape(t, snap)
	assertCursorInBounds(t, snap)
	assert.Equal(t, 40, snap.Cols)
	assert.Equal(t, 39, snap.CursorX)
	assert.Equal(t, strings.Repeat("w", 40), snap.Lines()[0])

	require.NoError(t, term.Resize(24, 80))
	snap = term.Snapshot()
	assertGridShape(t, snap)
	assertCursorInBounds(t, snap)
	assert.Equal(t, 24, snap.Rows)
	assert.Equal(t, 80, snap.Cols)
	assert.Equal(t, strings.Repeat("w", 40), snap.Lines()[0], "no reflow")
}

func TestResizeRows(t *testing.T) {
	term := newTerminal(5, 10)
	write(term, "a\r\nb\r\nc\r\nd\r\ne")

	require.NoError(t, term.Resize(3, 10))
	snap := term.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, snap.Lines())
	assert.Equal(t, 2, snap.CursorY)

	require.NoError(t, term.Resize(6, 10))
	snap = term.Snapshot()
	assert.Equal(t, []string{"a", "b", "c", "", "", ""}, snap.Lines())
	assertGridShape(t, snap)
}

func TestResizeRejectsInvalidSize(t *testing.T) {
	term := vt.New()
	write(term, "keep me")
	before := term.Snapshot()

	for _, size := range [][2]int{{0, 80}, {24, 0}, {0, 0}, {-1, 10}, {10, -5}} {
		err := term.Resize(size[0], size[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, vt.ErrInvalidSize))
	}

	after := term.Snapshot()
	assert.Equal(t, before.Cells, after.Cells)
	assert.Equal(t, before.CursorX, after.CursorX)
	rows, cols := term.Size()
	assert.Equal(t, 24, rows)
	assert.Equal(t, 80, cols)
}

func TestResizeClampsScrollRegion(t *testing.T) {
	term := newTerminal(10, 10)
	write(term, "\x1b[2;9r")
	require.NoError(t, term.Resize(4, 10))

	write(term, "\x1b[4;1H\n")
	snap := term.Snapshot()
	assertCursorInBounds(t, snap)
	assert.Equal(t, 3, snap.CursorY)
}

func TestResizeWideCharacterAtEdge(t *testing.T) {
	term := newTerminal(2, 6)
	write(term, "abcd世")

	require.NoError(t, term.Resize(2, 5))
	snap := term.Snapshot()
	assertGridShape(t, snap)
	assert.Equal(t, "abcd", snap.Lines()[0])
}

func TestSnapshotIsACopy(t *testing.T) {
	term := vt.New()
	write(term, "abc")

	snap := term.Snapshot()
	snap.Cells[0][0].Glyph = 'z'
	snap.Tabs[0].Title = "changed"

	again := term.Snapshot()
	assert.Equal(t, 'a', again.Cells[0][0].Glyph)
	assert.Equal(t, vt.DefaultTabTitle, again.Tabs[0].Title)
}

func TestSnapshotText(t *testing.T) {
	term := newTerminal(4, 10)
	write(term, "one  \r\n\r\nthree")

	snap := term.Snapshot()
	assert.Equal(t, []string{"one", "", "three", ""}, snap.Lines())
	assert.Equal(t, "one\n\nthree", snap.Text())
}

func TestGenerationAdvances(t *testing.T) {
	term := vt.New()
	g0 := term.Generation()

	write(term, "x")
	g1 := term.Generation()
	assert.Greater(t, g1, g0)

	term.ProcessInput(nil)
	assert.Equal(t, g1, term.Generation())

	require.NoError(t, term.Resize(10, 10))
	assert.Greater(t, term.Generation(), g1)
	assert.Equal(t, term.Generation(), term.Snapshot().Generation)
}

func TestSetScheme(t *testing.T) {
	term := vt.New()
	scheme := vt.DefaultScheme()
	scheme.Foreground = vt.RGB(1, 2, 3)
	term.SetScheme(scheme)

	write(term, "x")
	assert.Equal(t, vt.RGB(1, 2, 3), term.Snapshot().Cells[0][0].Fg)
}

func TestTerminalWriter(t *testing.T) {
	term := vt.New()
	n, err := fmt.Fprintf(term, "%s\r\n%d", "writer", 42)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []string{"writer", "42"}, term.Snapshot().Lines()[:2])
}

type recordingTap struct {
	output  []string
	resizes [][2]int
}

func (r *recordingTap) Output(data []byte) {
	r.output = append(r.output, string(data))
}

func (r *recordingTap) Resize(cols, rows int) {
	r.resizes = append(r.resizes, [2]int{cols, rows})
}

func TestTapSeesRawTraffic(t *testing.T) {
	term := vt.New()
	tap := &recordingTap{}
	term.SetTap(tap)

	write(term, "\x1b[31mhi")
	require.NoError(t, term.Resize(30, 100))
	require.Error(t, term.Resize(0, 100))

	assert.Equal(t, []string{"\x1b[31mhi"}, tap.output)
	assert.Equal(t, [][2]int{{100, 30}}, tap.resizes)

	term.SetTap(nil)
	write(term, "more")
	assert.Len(t, tap.output, 1)
}

func TestTerminalTabs(t *testing.T) {
	term := vt.New()
	second := term.CreateNewTab("build")
	assert.Equal(t, 1, second)
	assert.Equal(t, 0, term.ActiveTab())

	term.MarkTabActivity(second)
	assert.True(t, term.Tabs()[second].HasActivity)

	term.SwitchTab(second)
	assert.Equal(t, second, term.ActiveTab())
	assert.False(t, term.Tabs()[second].HasActivity)

	term.SetTabProcess(second, 4242)
	assert.Equal(t, 4242, term.Tabs()[second].ProcessID)

	assert.True(t, term.CloseTab(0))
	assert.Equal(t, 0, term.ActiveTab())
	assert.False(t, term.CloseTab(0), "last tab stays")
}

func TestConcurrentInputAndSnapshots(t *testing.T) {
	term := vt.New()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			write(term, fmt.Sprintf("\x1b[3%dmline %d\x1b[0m\r\n", i%8, i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := term.Snapshot()
			assert.Len(t, snap.Cells, snap.Rows)
			assertCursorInBounds(t, snap)
		}
	}()
	wg.Wait()

	assert.Equal(t, "line 499", term.Snapshot().Lines()[22])
}

func BenchmarkProcessInput(b *testing.B) {
	term := vt.New()
	data := []byte("\x1b[2J\x1b[H" +
		"\x1b[31mRed text\x1b[0m Normal text\r\n" +
		"\x1b[1mBold\x1b[0m \x1b[4mUnderline\x1b[0m\r\n" +
		"Plain text line with 世界 wide runes\r\n" +
		"\x1b[10;20HPositioned text" +
		"\x1b[2K")

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term.ProcessInput(data)
	}
}

func BenchmarkScrolling(b *testing.B) {
	term := vt.New()
	line := []byte(strings.Repeat("scroll ", 10) + "\r\n")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term.ProcessInput(line)
	}
}

func TestAltScreenFlag(t *testing.T) {
	term := newTerminal(4, 10)
	assert.False(t, term.AltScreen())
	write(term, "\x1b[?1049h")
	assert.True(t, term.AltScreen())
	write(term, "\x1b[?1049l")
	assert.False(t, term.AltScreen())
}
