package termgrid

import "math"

// Rect is an axis-aligned rectangle in surface coordinates. The surface
// origin is bottom-left with Y increasing upward, so Y names the bottom edge.
type Rect struct {
	X, Y, W, H float64
}

// CellRect is a half-open rectangular region of grid cells:
// rows [StartRow, EndRow) and columns [StartCol, EndCol).
type CellRect struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Empty reports whether the region contains no cells.
func (r CellRect) Empty() bool {
	return r.StartRow >= r.EndRow || r.StartCol >= r.EndCol
}

// cellEpsilon tolerates floating-point drift when comparing cell positions.
const cellEpsilon = 0.01

// gridToSurfaceY converts a grid row (row 0 at the top) to the surface Y
// coordinate of the cell's bottom edge (origin bottom-left, Y up).
func gridToSurfaceY(row, rows int, cellHeight float64) float64 {
	return float64(rows-row-1) * cellHeight
}

// CalculateDirtyCells maps a dirty rectangle in surface coordinates to the
// grid cells that intersect it.
//
// Columns are straightforward: floor the left edge, ceil the right edge.
// Rows need the vertical axis inverted, because the surface origin is
// bottom-left while row 0 sits at the top of the grid: the rect's top edge
// maps to the smallest affected row and its bottom edge to the largest. Both
// bounds are computed as rows - round(edge/cellHeight), ordered so that
// StartRow <= EndRow, and clamped to the grid. A rect entirely outside the
// grid yields an empty region.
func CalculateDirtyCells(dirty Rect, cellWidth, cellHeight float64, rows, cols int, offsetX, offsetY float64) CellRect {
	gridX := dirty.X - offsetX
	gridY := dirty.Y - offsetY
	gridRight := gridX + dirty.W
	gridTop := gridY + dirty.H

	startCol := int(math.Floor(gridX / cellWidth))
	endCol := int(math.Ceil(gridRight / cellWidth))

	// gridTop is the rect's top edge (largest Y), which lands on the
	// smallest row number; gridY is the bottom edge, the largest row.
	topRow := rows - int(math.Ceil(gridTop/cellHeight))
	bottomRow := rows - int(math.Floor(gridY/cellHeight))

	startRow, endRow := topRow, bottomRow
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}

	return CellRect{
		StartRow: clampInt(startRow, 0, rows),
		EndRow:   clampInt(endRow, 0, rows),
		StartCol: clampInt(startCol, 0, cols),
		EndCol:   clampInt(endCol, 0, cols),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
