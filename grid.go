package termgrid

import (
	"fmt"
	"unicode/utf16"
)

// Attr is a bitmask of cell text attributes.
type Attr int

// Cell attribute bits.
const (
	AttrBold      Attr = 1 << 0
	AttrUnderline Attr = 1 << 1
	AttrReverse   Attr = 1 << 2
)

// fontAttrs extracts the bits that select a font variant (currently just
// bold). Underline and reverse do not change the font.
func (a Attr) fontAttrs() Attr { return a & AttrBold }

// Cell is one grid position as supplied by the caller.
//
// Text holds the cell's grapheme: empty for the placeholder that follows a
// wide cell, a single grapheme (one or two UTF-16 code units after
// conversion), or a lone variation selector that modifies the previous
// cell's grapheme. Wide marks a character that occupies two grid columns;
// the invariant is that a wide cell is immediately followed, in the same
// row, by exactly one empty placeholder cell.
type Cell struct {
	Text  string
	Pair  int
	Attrs Attr
	Wide  bool
}

// Grid is the caller-facing cell matrix. Dimensions are validated against
// the Rows/Cols frame parameters on every call; the render context never
// retains a grid across frames.
type Grid [][]Cell

// maxCellUnits caps the UTF-16 length of a single cell's text: one BMP code
// unit, a surrogate pair, or a BMP base with a trailing variation selector.
const maxCellUnits = 2

// parsedCell is the internal representation after boundary validation.
type parsedCell struct {
	units []uint16
	pair  int
	attrs Attr
	wide  bool
}

// empty reports whether the cell carries no text (wide-cell placeholder).
func (c *parsedCell) empty() bool { return len(c.units) == 0 }

// isVariationSelector reports whether the cell holds a lone variation
// selector (U+FE00..U+FE0F), which modifies the preceding cell's grapheme
// and draws nothing of its own.
func (c *parsedCell) isVariationSelector() bool {
	return len(c.units) == 1 && isVariationSelector(c.units[0])
}

func isVariationSelector(u uint16) bool {
	return u >= 0xFE00 && u <= 0xFE0F
}

// validCellUnits reports whether the UTF-16 units form at most one grapheme:
// empty, a single code unit, a surrogate pair, or a BMP base character with
// a trailing variation selector. Two independent characters never fit one
// cell.
func validCellUnits(units []uint16) bool {
	switch len(units) {
	case 0, 1:
		return true
	case maxCellUnits:
		if utf16.IsSurrogate(rune(units[0])) && utf16.IsSurrogate(rune(units[1])) {
			return true
		}
		return !utf16.IsSurrogate(rune(units[0])) && isVariationSelector(units[1])
	default:
		return false
	}
}

// parseGrid validates the caller-supplied grid against the expected
// dimensions and converts cell text to UTF-16 code units.
func parseGrid(grid Grid, rows, cols int) ([][]parsedCell, error) {
	if grid == nil {
		return nil, validationErr("grid", "must not be nil")
	}
	if len(grid) != rows {
		return nil, validationErr("grid", fmt.Sprintf("row count mismatch: expected %d, got %d", rows, len(grid)))
	}

	out := make([][]parsedCell, rows)
	for r, row := range grid {
		if len(row) != cols {
			return nil, cellErr("grid", r, -1, fmt.Sprintf("column count mismatch: expected %d, got %d", cols, len(row)))
		}
		cells := make([]parsedCell, cols)
		for c, cell := range row {
			units := utf16.Encode([]rune(cell.Text))
			if !validCellUnits(units) {
				return nil, cellErr("grid", r, c, fmt.Sprintf("cell text %q exceeds one grapheme", cell.Text))
			}
			cells[c] = parsedCell{
				units: units,
				pair:  cell.Pair,
				attrs: cell.Attrs,
				wide:  cell.Wide,
			}
		}
		for c := 0; c < cols; c++ {
			if cells[c].wide {
				if c+1 >= cols || !cells[c+1].empty() {
					return nil, cellErr("grid", r, c, "wide cell not followed by an empty placeholder")
				}
			}
		}
		out[r] = cells
	}
	return out, nil
}

// parseColorPairs copies the caller's color-pair table into the internal
// packed form. The table is rebuilt every frame; ids have no identity
// across frames.
func parseColorPairs(pairs map[int]ColorPair) map[int]colorPair {
	out := make(map[int]colorPair, len(pairs))
	for id, p := range pairs {
		out[id] = colorPair{fg: p.FG.Packed(), bg: p.BG.Packed()}
	}
	return out
}

// colorPair is the internal packed form of a ColorPair.
type colorPair struct {
	fg uint32
	bg uint32
}
