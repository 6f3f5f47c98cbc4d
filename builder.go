package termgrid

import "github.com/mattn/go-runewidth"

// GridBuilder lays text into a Grid, taking care of the bookkeeping callers
// otherwise get wrong: double-width characters get their Wide flag and the
// empty placeholder cell that must follow them, and writes wrap at the
// right edge.
type GridBuilder struct {
	grid Grid
	rows int
	cols int
	row  int
	col  int
}

// NewGridBuilder returns a builder over an empty rows×cols grid. Every cell
// starts as a space with pair 0.
func NewGridBuilder(rows, cols int) *GridBuilder {
	grid := make(Grid, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		for c := range grid[r] {
			grid[r][c] = Cell{Text: " "}
		}
	}
	return &GridBuilder{grid: grid, rows: rows, cols: cols}
}

// MoveTo positions the write cursor. Out-of-range values are clamped.
func (b *GridBuilder) MoveTo(row, col int) *GridBuilder {
	b.row = clampInt(row, 0, b.rows-1)
	b.col = clampInt(col, 0, b.cols-1)
	return b
}

// WriteString writes s at the cursor with the given pair and attributes,
// advancing and wrapping as needed. Text past the last cell is dropped. A
// double-width character that would straddle the right edge wraps whole.
func (b *GridBuilder) WriteString(s string, pair int, attrs Attr) *GridBuilder {
	for _, r := range s {
		if b.row >= b.rows {
			break
		}
		if r == '\n' {
			b.row++
			b.col = 0
			continue
		}
		wide := runewidth.RuneWidth(r) == 2
		span := 1
		if wide {
			span = 2
		}
		if b.col+span > b.cols {
			b.row++
			b.col = 0
			if b.row >= b.rows {
				break
			}
		}
		b.grid[b.row][b.col] = Cell{Text: string(r), Pair: pair, Attrs: attrs, Wide: wide}
		if wide {
			b.grid[b.row][b.col+1] = Cell{Pair: pair, Attrs: attrs}
		}
		b.col += span
	}
	return b
}

// Grid returns the built grid. The builder keeps writing into the same
// backing storage, so callers wanting a frozen copy must clone it.
func (b *GridBuilder) Grid() Grid { return b.grid }
