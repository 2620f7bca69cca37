package vt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mattn/go-runewidth"
)

const (
	DefaultRows = 24
	DefaultCols = 80

	tabWidth = 8
)

// ErrInvalidSize is returned for a resize to zero or negative dimensions.
var ErrInvalidSize = errors.New("vt: invalid terminal size")

type cursor struct {
	X int
	Y int
}

// savepoint is what DECSC stores.
type savepoint struct {
	cursor   cursor
	pen      Pen
	autoWrap bool
}

// State is the screen model driven by parser events: two buffers, a
// cursor, the current pen and the tab registry. It is not safe for
// concurrent use; see Terminal.
type State struct {
	rows int
	cols int

	primary   *Buffer
	alternate *Buffer
	usingAlt  bool

	cursor cursor
	pen    Pen
	scheme Scheme

	saved     savepoint
	haveSaved bool

	// scroll region, inclusive
	top    int
	bottom int

	autoWrap     bool
	insert       bool
	newline      bool // LNM
	cursorHidden bool

	title    string
	iconName string

	tabs    *TabRegistry
	history *Scrollback
}

// NewState returns a state of the given size. Non-positive dimensions fall
// back to 80x24.
func NewState(rows, cols int, scheme Scheme, scrollback int) *State {
	if rows <= 0 || cols <= 0 {
		rows, cols = DefaultRows, DefaultCols
	}
	blank := scheme.Blank()
	return &State{
		rows:      rows,
		cols:      cols,
		primary:   NewBuffer(rows, cols, blank),
		alternate: NewBuffer(rows, cols, blank),
		pen:       scheme.DefaultPen(),
		scheme:    scheme,
		bottom:    rows - 1,
		autoWrap:  true,
		tabs:      NewTabRegistry(),
		history:   newScrollback(maxInt0(scrollback)),
	}
}

func (s *State) Rows() int { return s.rows }
func (s *State) Cols() int { return s.cols }
func (s *State) Cursor() (x, y int) { return s.cursor.X, s.cursor.Y }
func (s *State) UsingAlt() bool { return s.usingAlt }
func (s *State) CursorVisible() bool { return !s.cursorHidden }
func (s *State) Pen() Pen { return s.pen }
func (s *State) Title() string { return s.title }
func (s *State) IconName() string { return s.iconName }
func (s *State) Tabs() *TabRegistry { return s.tabs }
func (s *State) Scrollback() *Scrollback { return s.history }
func (s *State) Margins() (top, bottom int) { return s.top, s.bottom }

// Active returns the buffer that print, erase and scroll operations target.
func (s *State) Active() *Buffer {
	if s.usingAlt {
		return s.alternate
	}
	return s.primary
}

// Primary and Alternate expose both buffers for inspection.
func (s *State) Primary() *Buffer { return s.primary }
func (s *State) Alternate() *Buffer { return s.alternate }

// Apply performs the mutation for one parser event.
func (s *State) Apply(ev Event) {
	switch ev.Kind {
	case EventPrint:
		s.Draw(ev.Rune)
	case EventExecute:
		s.execute(ev.Byte)
	case EventCSI:
		s.dispatchCSI(ev)
	case EventESC:
		s.dispatchESC(ev)
	case EventOSC:
		s.dispatchOSC(ev)
	case EventHook, EventPut, EventUnhook:
		// device control strings are not interpreted
	}
}

// eraseBlank is the cell scroll and character edit operations fill with: a
// space on the current pen background. ED and EL use the scheme blank.
func (s *State) eraseBlank() Cell {
	return Cell{Glyph: ' ', Fg: s.scheme.Foreground, Bg: s.pen.Bg, Width: 1}
}

// Draw writes r at the cursor with the current pen and advances it,
// wrapping eagerly once the cursor passes the last column.
func (s *State) Draw(r rune) {
	w := runewidth.RuneWidth(r)
	switch {
	case w == 0:
		return
	case w > 1 && s.cols < 2:
		w = 1
	case w > 2:
		w = 2
	}

	if w == 2 && s.cursor.X == s.cols-1 {
		if !s.autoWrap {
			return
		}
		fillRow(s.Active().lines[s.cursor.Y], s.cursor.X, s.cols, s.eraseBlank())
		s.cursor.X = 0
		s.Index()
	}

	if s.insert {
		s.InsertCharacters(w)
	}

	row := s.Active().lines[s.cursor.Y]
	x := s.cursor.X
	fillRow(row, x, x+w, s.eraseBlank())
	row[x] = Cell{Glyph: r, Fg: s.pen.Fg, Bg: s.pen.Bg, Attrs: s.pen.Attrs, Width: uint8(w)}
	if w == 2 {
		row[x+1] = Cell{Fg: s.pen.Fg, Bg: s.pen.Bg, Attrs: s.pen.Attrs}
	}

	s.cursor.X += w
	if s.cursor.X >= s.cols {
		if s.autoWrap {
			s.cursor.X = 0
			s.Index()
		} else {
			s.cursor.X = s.cols - 1
		}
	}
}

func (s *State) execute(b byte) {
	switch b {
	case LF, VT, FF:
		s.Linefeed()
	case CR:
		s.CarriageReturn()
	case HT:
		s.Tab()
	case BS:
		s.Backspace()
	}
}

func (s *State) CarriageReturn() {
	s.cursor.X = 0
}

func (s *State) Backspace() {
	s.cursor.X = max(s.cursor.X-1, 0)
}

// Tab moves to the next multiple of 8, stopping at the last column.
func (s *State) Tab() {
	next := (s.cursor.X/tabWidth + 1) * tabWidth
	s.cursor.X = min(next, s.cols-1)
}

// Linefeed moves down one row, scrolling at the bottom margin. The column
// is kept unless newline mode is set.
func (s *State) Linefeed() {
	s.Index()
	if s.newline {
		s.cursor.X = 0
	}
}

// Index moves down one row, scrolling the region when the cursor is on its
// bottom line.
func (s *State) Index() {
	switch {
	case s.cursor.Y == s.bottom:
		s.scrollUp(s.top, s.bottom, 1, true)
	case s.cursor.Y < s.rows-1:
		s.cursor.Y++
	}
}

// ReverseIndex moves up one row, scrolling the region down when the
// cursor is on its top line.
func (s *State) ReverseIndex() {
	switch {
	case s.cursor.Y == s.top:
		s.scrollDown(s.top, s.bottom, 1)
	case s.cursor.Y > 0:
		s.cursor.Y--
	}
}

// scrollUp moves lines top..bottom of the active buffer up n times. With
// keep set, lines leaving the top of the full primary screen go to the
// scrollback.
func (s *State) scrollUp(top, bottom, n int, keep bool) {
	buf := s.Active()
	blank := s.eraseBlank()
	keep = keep && !s.usingAlt && top == 0 && bottom == s.rows-1
	n = min(n, bottom-top+1)
	for i := 0; i < n; i++ {
		gone := buf.lines[top]
		fresh := gone
		if keep {
			fresh = s.history.push(gone)
		}
		fresh = recycleRow(fresh, s.cols, blank)
		buf.scrollUp(top, bottom, fresh)
	}
}

func (s *State) scrollDown(top, bottom, n int) {
	buf := s.Active()
	blank := s.eraseBlank()
	n = min(n, bottom-top+1)
	for i := 0; i < n; i++ {
		buf.scrollDown(top, bottom, blank)
	}
}

// recycleRow turns a discarded line into a blank row of cols cells.
func recycleRow(row []Cell, cols int, blank Cell) []Cell {
	if cap(row) < cols {
		return newRow(cols, blank)
	}
	row = row[:cols]
	for x := range row {
		row[x] = blank
	}
	return row
}

func (s *State) CursorUp(n int) {
	s.cursor.Y = max(s.cursor.Y-n, 0)
}

func (s *State) CursorDown(n int) {
	s.cursor.Y = min(s.cursor.Y+n, s.rows-1)
}

func (s *State) CursorForward(n int) {
	s.cursor.X = min(s.cursor.X+n, s.cols-1)
}

func (s *State) CursorBack(n int) {
	s.cursor.X = max(s.cursor.X-n, 0)
}

// CursorPosition moves to a 1-indexed line and column, clamped.
func (s *State) CursorPosition(line, column int) {
	s.cursor.Y = clamp(line-1, 0, s.rows-1)
	s.cursor.X = clamp(column-1, 0, s.cols-1)
}

func (s *State) CursorToColumn(column int) {
	s.cursor.X = clamp(column-1, 0, s.cols-1)
}

func (s *State) CursorToLine(line int) {
	s.cursor.Y = clamp(line-1, 0, s.rows-1)
}

// EraseInDisplay: 0 cursor to end, 1 start to cursor, 2 whole screen,
// 3 whole screen and scrollback. The cursor does not move.
func (s *State) EraseInDisplay(how int) {
	buf := s.Active()
	blank := s.scheme.Blank()
	y, x := s.cursor.Y, s.cursor.X
	switch how {
	case 0:
		fillRow(buf.lines[y], x, s.cols, blank)
		for i := y + 1; i < s.rows; i++ {
			fillRow(buf.lines[i], 0, s.cols, blank)
		}
	case 1:
		for i := 0; i < y; i++ {
			fillRow(buf.lines[i], 0, s.cols, blank)
		}
		fillRow(buf.lines[y], 0, x+1, blank)
	case 2:
		buf.clear(blank)
	case 3:
		buf.clear(blank)
		s.history.reset()
	}
}

// EraseInLine: 0 cursor to end, 1 start to cursor, 2 whole line.
func (s *State) EraseInLine(how int) {
	row := s.Active().lines[s.cursor.Y]
	blank := s.scheme.Blank()
	switch how {
	case 0:
		fillRow(row, s.cursor.X, s.cols, blank)
	case 1:
		fillRow(row, 0, s.cursor.X+1, blank)
	case 2:
		fillRow(row, 0, s.cols, blank)
	}
}

func (s *State) EraseCharacters(n int) {
	fillRow(s.Active().lines[s.cursor.Y], s.cursor.X, s.cursor.X+n, s.eraseBlank())
}

// InsertCharacters shifts the rest of the line right by n blanks. Cells
// pushed past the last column are lost.
func (s *State) InsertCharacters(n int) {
	row := s.Active().lines[s.cursor.Y]
	x := s.cursor.X
	n = min(n, s.cols-x)
	blank := s.eraseBlank()
	splitWide(row, x, blank)
	copy(row[x+n:], row[x:s.cols-n])
	if row[s.cols-1].Width == 2 {
		row[s.cols-1] = blank
	}
	for i := x; i < x+n; i++ {
		row[i] = blank
	}
}

// DeleteCharacters removes n cells at the cursor, pulling the rest of the
// line left and filling the end with blanks.
func (s *State) DeleteCharacters(n int) {
	row := s.Active().lines[s.cursor.Y]
	x := s.cursor.X
	n = min(n, s.cols-x)
	blank := s.eraseBlank()
	splitWide(row, x, blank)
	if x+n < s.cols && row[x+n].Width == 0 {
		row[x+n] = blank
	}
	copy(row[x:], row[x+n:])
	for i := s.cols - n; i < s.cols; i++ {
		row[i] = blank
	}
}

// splitWide blanks a wide glyph whose continuation cell sits at x.
func splitWide(row []Cell, x int, blank Cell) {
	if x > 0 && row[x].Width == 0 {
		row[x-1] = blank
		row[x] = blank
	}
}

// InsertLines and DeleteLines act only when the cursor is inside the
// scroll region.
func (s *State) InsertLines(n int) {
	if s.cursor.Y < s.top || s.cursor.Y > s.bottom {
		return
	}
	s.scrollDown(s.cursor.Y, s.bottom, n)
	s.cursor.X = 0
}

func (s *State) DeleteLines(n int) {
	if s.cursor.Y < s.top || s.cursor.Y > s.bottom {
		return
	}
	s.scrollUp(s.cursor.Y, s.bottom, n, false)
	s.cursor.X = 0
}

func (s *State) ScrollUp(n int) {
	s.scrollUp(s.top, s.bottom, n, false)
}

func (s *State) ScrollDown(n int) {
	s.scrollDown(s.top, s.bottom, n)
}

// SetMargins sets the 1-indexed inclusive scroll region and homes the
// cursor. A region of fewer than two lines is ignored.
func (s *State) SetMargins(top, bottom int) {
	t := max(top-1, 0)
	b := min(bottom-1, s.rows-1)
	if t >= b {
		return
	}
	s.top, s.bottom = t, b
	s.cursor = cursor{}
}

func (s *State) SaveCursor() {
	s.saved = savepoint{cursor: s.cursor, pen: s.pen, autoWrap: s.autoWrap}
	s.haveSaved = true
}

// RestoreCursor returns to the last saved position and pen, or homes the
// cursor with the default pen when nothing was saved.
func (s *State) RestoreCursor() {
	if !s.haveSaved {
		s.cursor = cursor{}
		s.pen = s.scheme.DefaultPen()
		return
	}
	s.cursor = s.saved.cursor
	s.pen = s.saved.pen
	s.autoWrap = s.saved.autoWrap
	s.clampCursor()
}

// SetMode sets or resets ANSI (private false) or DEC private modes.
func (s *State) SetMode(modes []int, private, set bool) {
	for _, m := range modes {
		if !private {
			switch m {
			case ModeInsert:
				s.insert = set
			case ModeNewline:
				s.newline = set
			}
			continue
		}
		switch m {
		case ModeAutoWrap:
			s.autoWrap = set
		case ModeCursorVisible:
			s.cursorHidden = !set
		case ModeAltScreen, ModeAltScreenLegacy:
			s.switchAlt(set)
		case ModeSaveCursor:
			if set {
				s.SaveCursor()
			} else {
				s.RestoreCursor()
			}
		case ModeAltScreenSaveCurs:
			if set && !s.usingAlt {
				s.SaveCursor()
				s.switchAlt(true)
				s.alternate.clear(s.eraseBlank())
			} else if !set && s.usingAlt {
				s.switchAlt(false)
				s.RestoreCursor()
			}
		}
	}
}

// switchAlt selects the active buffer. Neither buffer is touched.
func (s *State) switchAlt(on bool) {
	s.usingAlt = on
}

// AlignmentDisplay fills the screen with 'E' (DECALN).
func (s *State) AlignmentDisplay() {
	cell := s.scheme.Blank()
	cell.Glyph = 'E'
	for _, row := range s.Active().lines {
		for x := range row {
			row[x] = cell
		}
	}
	s.top, s.bottom = 0, s.rows-1
	s.cursor = cursor{}
}

// Reset returns to the power-on state (RIS): both buffers and the
// scrollback are cleared and every mode is reset. Tabs are kept.
func (s *State) Reset() {
	blank := s.scheme.Blank()
	s.primary.clear(blank)
	s.alternate.clear(blank)
	s.history.reset()
	s.usingAlt = false
	s.cursor = cursor{}
	s.pen = s.scheme.DefaultPen()
	s.saved, s.haveSaved = savepoint{}, false
	s.top, s.bottom = 0, s.rows-1
	s.autoWrap = true
	s.insert, s.newline, s.cursorHidden = false, false, false
	s.iconName = ""
}

func (s *State) dispatchESC(ev Event) {
	if len(ev.Intermediates) > 0 {
		// charset designations are accepted and ignored
		if ev.Intermediates[0] == '#' && ev.Byte == '8' {
			s.AlignmentDisplay()
		}
		return
	}
	switch ev.Byte {
	case '7':
		s.SaveCursor()
	case '8':
		s.RestoreCursor()
	case 'D':
		s.Index()
	case 'E':
		s.CarriageReturn()
		s.Index()
	case 'M':
		s.ReverseIndex()
	case 'c':
		s.Reset()
	}
}

func (s *State) dispatchOSC(ev Event) {
	if len(ev.Fields) < 2 {
		return
	}
	text := string(bytes.Join(ev.Fields[1:], []byte{';'}))
	switch string(ev.Fields[0]) {
	case "0":
		s.SetIconName(text)
		s.SetTitle(text)
	case "1":
		s.SetIconName(text)
	case "2":
		s.SetTitle(text)
	}
}

// SetTitle sets the window title and renames the active tab.
func (s *State) SetTitle(title string) {
	s.title = title
	s.tabs.SetTitle(s.tabs.Active(), title)
}

func (s *State) SetIconName(name string) {
	s.iconName = name
}

// Resize changes both buffers to rows x cols without reflow. The scroll
// region is reset and the cursor clamped. Non-positive sizes are rejected
// and leave the state untouched.
func (s *State) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	blank := s.scheme.Blank()
	s.primary.resize(rows, cols, blank)
	s.alternate.resize(rows, cols, blank)
	s.rows, s.cols = rows, cols
	s.top, s.bottom = 0, rows-1
	s.clampCursor()
	s.saved.cursor.X = clamp(s.saved.cursor.X, 0, cols-1)
	s.saved.cursor.Y = clamp(s.saved.cursor.Y, 0, rows-1)
	return nil
}

// SetScheme changes the default colors. Cells already on screen keep
// theirs; a pen still at the old defaults moves to the new ones.
func (s *State) SetScheme(scheme Scheme) {
	if s.pen == s.scheme.DefaultPen() {
		s.pen = scheme.DefaultPen()
	}
	s.scheme = scheme
}

func (s *State) Scheme() Scheme { return s.scheme }

// SetScrollback changes how many lines the scrollback keeps.
func (s *State) SetScrollback(lines int) {
	s.history.setMax(lines)
}

func (s *State) clampCursor() {
	s.cursor.X = clamp(s.cursor.X, 0, s.cols-1)
	s.cursor.Y = clamp(s.cursor.Y, 0, s.rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
