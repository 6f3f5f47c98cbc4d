// Package termgrid renders attributed character grids onto a 2D surface
// with as few draw calls as possible.
//
// The package implements the per-frame pipeline of a terminal emulator view:
// it maps a dirty pixel rectangle to the affected grid cells, merges
// same-colored background cells into fill rectangles, batches adjacent
// characters that share attributes and a resolved font into glyph runs, and
// finally paints the cursor and any in-progress composition (IME) text.
//
// termgrid does not draw pixels itself. All output goes through the
// surface.Device and surface.Canvas interfaces, which the host supplies.
// The surface/softdev subpackage provides a software implementation that
// renders into an image.RGBA, which is also what the tests use.
//
// A host creates one RenderContext for the lifetime of its view and calls
// RenderFrame once per redraw:
//
//	ctx, err := termgrid.New(device)
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
//	err := ctx.RenderFrame(canvas, &termgrid.Frame{
//		Grid:       grid,
//		ColorPairs: pairs,
//		DirtyRect:  termgrid.Rect{X: 0, Y: 0, W: 800, H: 600},
//		CellWidth:  8, CellHeight: 16,
//		Rows: 24, Cols: 80,
//		FontNames: []string{"DejaVu Sans Mono", "Noto Sans CJK"},
//		FontSize:  12,
//	})
//
// The context owns three caches (colors, fonts, attribute sets) that persist
// across frames and are torn down and rebuilt whenever the requested font
// list or size changes. The whole pipeline is single-threaded and
// non-reentrant: one frame runs to completion on the calling goroutine.
package termgrid
