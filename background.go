package termgrid

import "github.com/gogpu/termgrid/surface"

// renderBackground paints cell backgrounds for the dirty region, merged into
// as few fill rectangles as the content allows. It returns the number of
// fills issued and the number of batch splits.
func (rc *RenderContext) renderBackground(canvas surface.Canvas, cells [][]parsedCell, pairs map[int]colorPair, f *Frame, region CellRect) (batches, splits int) {
	rc.batcher.Reset()

	for row := region.StartRow; row < region.EndRow; row++ {
		for col := region.StartCol; col < region.EndCol; col++ {
			cell := &cells[row][col]
			if cell.empty() || cell.isVariationSelector() {
				continue
			}
			pair, ok := pairs[cell.pair]
			if !ok {
				continue
			}
			bg := pair.bg
			if cell.attrs&AttrReverse != 0 {
				bg = pair.fg
			}

			x, y := cellOrigin(f, row, col)
			w := f.CellWidth
			h := f.CellHeight
			span := 1
			if cell.wide {
				w *= 2
				span = 2
			}
			// Extend edge cells over the window padding so the
			// background reaches the surface border on all four
			// sides.
			if f.OffsetX > cellEpsilon {
				if col == 0 {
					w += x
					x = 0
				}
				if col+span == f.Cols {
					w += f.OffsetX
				}
			}
			if f.OffsetY > cellEpsilon {
				if row == f.Rows-1 {
					h += y
					y = 0
				}
				if row == 0 {
					h += f.OffsetY
				}
			}
			rc.batcher.Add(x, y, w, h, unpackRGB(bg))
		}
		rc.batcher.FinishRow()
	}

	out := rc.batcher.Batches()
	for _, b := range out {
		canvas.FillRect(surface.Rect(b.Rect), b.Color.R, b.Color.G, b.Color.B, 1.0)
	}
	return len(out), rc.batcher.Splits()
}
