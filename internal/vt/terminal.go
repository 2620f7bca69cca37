package vt

import (
	"log"
	"sync"
)

// Tap observes raw traffic at the terminal boundary, for example a session
// recorder. Methods are called with the terminal lock held and must not
// call back into the Terminal.
type Tap interface {
	Output(data []byte)
	Resize(cols, rows int)
}

type options struct {
	rows       int
	cols       int
	scheme     Scheme
	scrollback int
}

// Option configures a Terminal.
type Option func(*options)

// WithSize sets the initial size. Non-positive values keep the default.
func WithSize(rows, cols int) Option {
	return func(o *options) {
		if rows > 0 && cols > 0 {
			o.rows, o.cols = rows, cols
		}
	}
}

func WithScheme(scheme Scheme) Option {
	return func(o *options) { o.scheme = scheme }
}

// WithScrollback sets how many lines scroll off into history; 0 disables it.
func WithScrollback(lines int) Option {
	return func(o *options) { o.scrollback = lines }
}

// Terminal is a State and its Parser behind one lock. Every exported
// method holds the lock for its whole duration, so readers never observe
// a partially processed chunk.
type Terminal struct {
	mu         sync.Mutex
	parser     *Parser
	state      *State
	tap        Tap
	generation uint64
}

// New returns an 80x24 terminal unless configured otherwise.
func New(opts ...Option) *Terminal {
	o := options{
		rows:       DefaultRows,
		cols:       DefaultCols,
		scheme:     DefaultScheme(),
		scrollback: DefaultScrollback,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Terminal{
		parser: NewParser(),
		state:  NewState(o.rows, o.cols, o.scheme, o.scrollback),
	}
}

// ProcessInput feeds data through the parser in order and applies every
// resulting event. Malformed input is absorbed.
func (t *Terminal) ProcessInput(data []byte) {
	if len(data) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tap != nil {
		t.tap.Output(data)
	}
	for _, b := range data {
		for _, ev := range t.parser.Advance(b) {
			t.state.Apply(ev)
		}
	}
	t.generation++
}

// Write implements io.Writer so a Terminal can sit at the end of a copy.
func (t *Terminal) Write(p []byte) (int, error) {
	t.ProcessInput(p)
	return len(p), nil
}

// Resize changes the grid size. Zero or negative sizes return
// ErrInvalidSize and leave the terminal unchanged.
func (t *Terminal) Resize(rows, cols int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.state.Resize(rows, cols); err != nil {
		log.Printf("[vt] rejected resize: %v", err)
		return err
	}
	if t.tap != nil {
		t.tap.Resize(cols, rows)
	}
	t.generation++
	return nil
}

// Size returns the current rows and columns.
func (t *Terminal) Size() (rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.rows, t.state.cols
}

// SetTap installs or, with nil, removes the traffic observer.
func (t *Terminal) SetTap(tap Tap) {
	t.mu.Lock()
	t.tap = tap
	t.mu.Unlock()
}

// Generation increases on every change. Consumers compare it to skip
// redrawing an unchanged screen.
func (t *Terminal) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// AltScreen reports whether the alternate buffer is active.
func (t *Terminal) AltScreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.UsingAlt()
}

func (t *Terminal) SetScheme(scheme Scheme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SetScheme(scheme)
	t.generation++
}

func (t *Terminal) SetScrollback(lines int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SetScrollback(lines)
}

// ScrollbackLen returns the number of history lines without copying them.
func (t *Terminal) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.history.Len()
}

// Scrollback returns a copy of the history lines, oldest first. Lines keep
// the width they had when they scrolled off.
func (t *Terminal) Scrollback() [][]Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.history.copyLines()
}

// Snapshot copies the active buffer, cursor and tabs.
func (t *Terminal) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	return Snapshot{
		Rows:          s.rows,
		Cols:          s.cols,
		CursorX:       s.cursor.X,
		CursorY:       s.cursor.Y,
		CursorVisible: !s.cursorHidden,
		AltScreen:     s.usingAlt,
		Title:         s.title,
		Cells:         s.Active().Clone().lines,
		Tabs:          s.tabs.Tabs(),
		ActiveTab:     s.tabs.Active(),
		Generation:    t.generation,
	}
}

// CreateNewTab appends a tab and returns its index.
func (t *Terminal) CreateNewTab(title string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	return t.state.tabs.Create(title)
}

func (t *Terminal) SwitchTab(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.tabs.Switch(index)
	t.generation++
}

func (t *Terminal) MarkTabActivity(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.tabs.MarkActivity(index)
	t.generation++
}

// CloseTab removes a tab. The last tab cannot be closed.
func (t *Terminal) CloseTab(index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ok := t.state.tabs.Close(index)
	if ok {
		t.generation++
	}
	return ok
}

func (t *Terminal) SetTabProcess(index, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.tabs.SetProcess(index, pid)
}

// Tabs returns a copy of the tab list.
func (t *Terminal) Tabs() []Tab {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.tabs.Tabs()
}

// ActiveTab returns the index of the active tab.
func (t *Terminal) ActiveTab() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.tabs.Active()
}
