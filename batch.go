package termgrid

import "math"

// RectBatch is one merged run of horizontally adjacent, same-colored cell
// backgrounds. A batch never spans more than one grid row.
type RectBatch struct {
	Rect  Rect
	Color RGB
}

// RectBatcher greedily merges cell background rectangles into row-aligned
// horizontal runs. Cells must arrive in paint order; a cell extends the open
// batch only when it sits on the same row, carries the same color, and
// starts where the open batch ends, all within cellEpsilon.
//
// The zero value is ready to use.
type RectBatcher struct {
	batches []RectBatch
	open    RectBatch
	hasOpen bool
	splits  int
}

// Add submits one cell background rectangle.
func (b *RectBatcher) Add(x, y, w, h float64, color RGB) {
	if b.hasOpen {
		if color == b.open.Color &&
			math.Abs(y-b.open.Rect.Y) < cellEpsilon &&
			math.Abs(x-(b.open.Rect.X+b.open.Rect.W)) < cellEpsilon {
			b.open.Rect.W += w
			return
		}
		b.close()
		b.splits++
	}
	b.open = RectBatch{Rect: Rect{X: x, Y: y, W: w, H: h}, Color: color}
	b.hasOpen = true
}

// FinishRow closes the open batch at the end of a grid row. Calling it
// between rows is what keeps batches from straddling row boundaries.
func (b *RectBatcher) FinishRow() {
	if b.hasOpen {
		b.close()
	}
}

// Batches closes any open batch and returns everything accumulated since the
// last Reset. The returned slice is owned by the batcher.
func (b *RectBatcher) Batches() []RectBatch {
	if b.hasOpen {
		b.close()
	}
	return b.batches
}

// Splits reports how many times a submitted cell failed to merge into an
// open batch.
func (b *RectBatcher) Splits() int { return b.splits }

// Reset clears batches and counters for the next frame.
func (b *RectBatcher) Reset() {
	b.batches = b.batches[:0]
	b.hasOpen = false
	b.splits = 0
}

func (b *RectBatcher) close() {
	b.batches = append(b.batches, b.open)
	b.hasOpen = false
}
