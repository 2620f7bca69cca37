package vt

// DefaultScrollback is the number of lines kept above the primary screen.
const DefaultScrollback = 1000

// Scrollback is a bounded ring of lines scrolled off the primary screen,
// oldest first.
type Scrollback struct {
	lines [][]Cell
	start int
	max   int
}

func newScrollback(max int) *Scrollback {
	return &Scrollback{max: max}
}

// Len returns the number of stored lines.
func (h *Scrollback) Len() int {
	return len(h.lines)
}

// Max returns the capacity in lines.
func (h *Scrollback) Max() int {
	return h.max
}

// Line returns line i, 0 being the oldest.
func (h *Scrollback) Line(i int) []Cell {
	if i < 0 || i >= len(h.lines) {
		return nil
	}
	return h.lines[(h.start+i)%len(h.lines)]
}

// push stores row and returns a line the caller may reuse: the evicted
// oldest line once full, row itself when scrollback is disabled, else nil.
func (h *Scrollback) push(row []Cell) []Cell {
	if h.max <= 0 {
		return row
	}
	if len(h.lines) < h.max {
		h.lines = append(h.lines, row)
		return nil
	}
	evicted := h.lines[h.start]
	h.lines[h.start] = row
	h.start = (h.start + 1) % len(h.lines)
	return evicted
}

// setMax changes the capacity, keeping the newest lines.
func (h *Scrollback) setMax(max int) {
	max = maxInt0(max)
	n := min(len(h.lines), max)
	kept := make([][]Cell, 0, n)
	for i := len(h.lines) - n; i < len(h.lines); i++ {
		kept = append(kept, h.Line(i))
	}
	h.lines, h.start, h.max = kept, 0, max
}

func (h *Scrollback) reset() {
	h.lines, h.start = nil, 0
}

// copyLines returns a deep copy, oldest first.
func (h *Scrollback) copyLines() [][]Cell {
	out := make([][]Cell, len(h.lines))
	for i := range out {
		src := h.Line(i)
		out[i] = make([]Cell, len(src))
		copy(out[i], src)
	}
	return out
}

func maxInt0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
