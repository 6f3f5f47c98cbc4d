package termgrid

import (
	"fmt"
	"time"

	"github.com/gogpu/termgrid/surface"
)

// maxGridDim guards against absurd grid dimensions from a corrupt caller.
const maxGridDim = 10000

// Cursor describes the text cursor for one frame.
type Cursor struct {
	Row, Col int
	Visible  bool
}

// Range is a span of UTF-16 code units.
type Range struct {
	Location, Length int
}

// Composition is in-progress IME text drawn as an overlay at a grid
// position, independent of the grid contents underneath.
type Composition struct {
	// Text is the uncommitted composition string.
	Text string

	// Selected is the highlighted span within Text, in UTF-16 code units.
	Selected Range

	// Row and Col anchor the overlay's first character.
	Row, Col int
}

// Frame is the complete input for one RenderFrame call. The context retains
// nothing from it after the call returns.
type Frame struct {
	// Grid is the rows×cols cell matrix.
	Grid Grid

	// ColorPairs maps pair ids referenced by cells to colors. Cells with
	// unknown pair ids are skipped.
	ColorPairs map[int]ColorPair

	// DirtyRect is the region to repaint, in surface coordinates.
	DirtyRect Rect

	Rows, Cols            int
	CellWidth, CellHeight float64

	// OffsetX and OffsetY position the grid's bottom-left corner on the
	// surface (the window padding).
	OffsetX, OffsetY float64

	// Ascent is the font ascent in pixels, used to place baselines.
	Ascent float64

	// FontNames lists the primary font first and cascade fallbacks after.
	// Empty selects a default monospace name.
	FontNames []string
	FontSize  float64

	Cursor      *Cursor
	Composition *Composition
}

// validate checks the scalar frame parameters. Grid shape and cell contents
// are checked by parseGrid.
func (f *Frame) validate() error {
	switch {
	case f.Rows <= 0:
		return validationErr("rows", fmt.Sprintf("must be positive, got %d", f.Rows))
	case f.Cols <= 0:
		return validationErr("cols", fmt.Sprintf("must be positive, got %d", f.Cols))
	case f.Rows > maxGridDim:
		return validationErr("rows", fmt.Sprintf("exceeds limit %d, got %d", maxGridDim, f.Rows))
	case f.Cols > maxGridDim:
		return validationErr("cols", fmt.Sprintf("exceeds limit %d, got %d", maxGridDim, f.Cols))
	case f.CellWidth <= 0:
		return validationErr("cell_width", fmt.Sprintf("must be positive, got %g", f.CellWidth))
	case f.CellHeight <= 0:
		return validationErr("cell_height", fmt.Sprintf("must be positive, got %g", f.CellHeight))
	case f.FontSize <= 0:
		return validationErr("font_size", fmt.Sprintf("must be positive, got %g", f.FontSize))
	case f.DirtyRect.W < 0 || f.DirtyRect.H < 0:
		return validationErr("dirty_rect", fmt.Sprintf("dimensions must not be negative, got %gx%g", f.DirtyRect.W, f.DirtyRect.H))
	}
	return nil
}

// RenderFrame runs the full pipeline for one frame: validation, dirty-region
// mapping, background fills, character runs, cursor, and composition
// overlay. Validation failures abort before any drawing; later failures
// (resource construction) abort mid-frame, so callers must not assume a
// failed frame left the canvas untouched.
func (rc *RenderContext) RenderFrame(canvas surface.Canvas, f *Frame) error {
	if rc.closed {
		return ErrContextClosed
	}
	if canvas == nil {
		return ErrNilCanvas
	}
	if f == nil {
		return validationErr("frame", "must not be nil")
	}
	if err := f.validate(); err != nil {
		return err
	}
	cells, err := parseGrid(f.Grid, f.Rows, f.Cols)
	if err != nil {
		return err
	}
	pairs := parseColorPairs(f.ColorPairs)

	if err := rc.ensureCaches(f.FontNames, f.FontSize); err != nil {
		return err
	}
	rc.cascade.beginFrame()

	start := time.Now()
	region := CalculateDirtyCells(f.DirtyRect, f.CellWidth, f.CellHeight,
		f.Rows, f.Cols, f.OffsetX, f.OffsetY)

	batches := 0
	chars := 0
	splits := 0
	if !region.Empty() {
		batches, splits = rc.renderBackground(canvas, cells, pairs, f, region)
		var runs int
		runs, chars, err = rc.renderCharacters(canvas, cells, pairs, f, region)
		if err != nil {
			return err
		}
		batches += runs
	}
	rc.renderCursor(canvas, f)
	if err := rc.renderComposition(canvas, f); err != nil {
		return err
	}

	elapsed := time.Since(start)
	rc.metrics.Frames++
	rc.metrics.TotalRenderTime += elapsed
	rc.metrics.TotalBatches += uint64(batches)
	rc.metrics.TotalCharacters += uint64(chars)
	rc.metrics.BatchSplits += uint64(splits)

	if rc.perfLogging {
		rc.window.add(elapsed, uint64(batches), uint64(chars), uint64(splits))
		if rc.window.frames >= perfLogInterval {
			rc.window.logAndReset(rc.cascade.lastFailedChar())
		}
	}
	return nil
}

// cellOrigin returns the surface position of the cell's bottom-left corner.
func cellOrigin(f *Frame, row, col int) (x, y float64) {
	x = f.OffsetX + float64(col)*f.CellWidth
	y = f.OffsetY + gridToSurfaceY(row, f.Rows, f.CellHeight)
	return x, y
}

// baselineY returns the surface Y of the text baseline for a row.
func baselineY(f *Frame, row int) float64 {
	bottom := f.OffsetY + gridToSurfaceY(row, f.Rows, f.CellHeight)
	return bottom + f.CellHeight - f.Ascent
}
