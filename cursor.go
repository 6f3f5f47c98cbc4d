package termgrid

import "github.com/gogpu/termgrid/surface"

// renderCursor paints a half-transparent white block over the cursor cell.
// Nothing is drawn when the cursor is absent, hidden, or off-grid.
func (rc *RenderContext) renderCursor(canvas surface.Canvas, f *Frame) {
	cur := f.Cursor
	if cur == nil || !cur.Visible {
		return
	}
	if cur.Row < 0 || cur.Row >= f.Rows || cur.Col < 0 || cur.Col >= f.Cols {
		return
	}
	x, y := cellOrigin(f, cur.Row, cur.Col)
	canvas.FillRect(surface.Rect{X: x, Y: y, W: f.CellWidth, H: f.CellHeight},
		255, 255, 255, 0.5)
}
