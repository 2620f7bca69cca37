package vt

// Buffer is a grid of rows x cols cells. Every row always holds exactly
// cols cells.
type Buffer struct {
	rows  int
	cols  int
	lines [][]Cell
}

// NewBuffer returns a buffer filled with blank.
func NewBuffer(rows, cols int, blank Cell) *Buffer {
	b := &Buffer{rows: rows, cols: cols, lines: make([][]Cell, rows)}
	for y := range b.lines {
		b.lines[y] = newRow(cols, blank)
	}
	return b
}

func (b *Buffer) Rows() int { return b.rows }
func (b *Buffer) Cols() int { return b.cols }

// Cell returns the cell at row y, column x.
func (b *Buffer) Cell(y, x int) (Cell, bool) {
	if y < 0 || y >= b.rows || x < 0 || x >= b.cols {
		return Cell{}, false
	}
	return b.lines[y][x], true
}

// Row returns a copy of row y, or nil when out of range.
func (b *Buffer) Row(y int) []Cell {
	if y < 0 || y >= b.rows {
		return nil
	}
	row := make([]Cell, b.cols)
	copy(row, b.lines[y])
	return row
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{rows: b.rows, cols: b.cols, lines: make([][]Cell, b.rows)}
	for y, row := range b.lines {
		c.lines[y] = make([]Cell, len(row))
		copy(c.lines[y], row)
	}
	return c
}

func (b *Buffer) clear(blank Cell) {
	for _, row := range b.lines {
		fillRow(row, 0, len(row), blank)
	}
}

// resize pads or truncates rows on the right and appends or drops rows
// at the bottom. Content is not reflowed.
func (b *Buffer) resize(rows, cols int, blank Cell) {
	keep := min(rows, b.rows)
	for y := 0; y < keep; y++ {
		b.lines[y] = resizeRow(b.lines[y], cols, blank)
	}
	if rows < b.rows {
		clear(b.lines[rows:])
		b.lines = b.lines[:rows]
	}
	for y := b.rows; y < rows; y++ {
		b.lines = append(b.lines, newRow(cols, blank))
	}
	b.rows, b.cols = rows, cols
}

// scrollUp shifts lines top+1..bottom up by one and installs fresh at
// bottom. The caller owns the line that fell off the top.
func (b *Buffer) scrollUp(top, bottom int, fresh []Cell) {
	copy(b.lines[top:bottom], b.lines[top+1:bottom+1])
	b.lines[bottom] = fresh
}

// scrollDown shifts lines top..bottom-1 down by one and blanks top.
func (b *Buffer) scrollDown(top, bottom int, blank Cell) {
	last := b.lines[bottom]
	copy(b.lines[top+1:bottom+1], b.lines[top:bottom])
	fillRow(last, 0, len(last), blank)
	b.lines[top] = last
}

func newRow(cols int, blank Cell) []Cell {
	row := make([]Cell, cols)
	for x := range row {
		row[x] = blank
	}
	return row
}

func resizeRow(row []Cell, cols int, blank Cell) []Cell {
	old := len(row)
	switch {
	case cols < old:
		row = row[:cols]
		if row[cols-1].Width == 2 {
			row[cols-1] = blank
		}
	case cols > old:
		if cap(row) >= cols {
			row = row[:cols]
		} else {
			grown := make([]Cell, cols)
			copy(grown, row)
			row = grown
		}
		for x := old; x < cols; x++ {
			row[x] = blank
		}
	}
	return row
}

// fillRow blanks cells [x0, x1) and any wide glyph half cut by the range.
func fillRow(row []Cell, x0, x1 int, blank Cell) {
	x0 = max(x0, 0)
	x1 = min(x1, len(row))
	if x0 >= x1 {
		return
	}
	if x0 > 0 && row[x0].Width == 0 {
		row[x0-1] = blank
	}
	if x1 < len(row) && row[x1].Width == 0 {
		row[x1] = blank
	}
	for x := x0; x < x1; x++ {
		row[x] = blank
	}
}
