package termgrid

import (
	"fmt"
	"log/slog"
	"time"
)

// Metrics are cumulative rendering counters. They grow until ResetMetrics
// and are read with RenderContext.Metrics.
type Metrics struct {
	// Frames is the number of completed RenderFrame calls.
	Frames uint64

	// TotalRenderTime is time spent inside the render pipeline.
	TotalRenderTime time.Duration

	// TotalBatches counts background fill batches plus glyph runs.
	TotalBatches uint64

	// TotalCharacters counts drawn characters (a wide character counts
	// once).
	TotalCharacters uint64

	// BatchSplits counts cells that failed to merge into an open
	// background batch.
	BatchSplits uint64

	// FontLookups and FontCacheHits describe the font cache.
	FontLookups   uint64
	FontCacheHits uint64

	// AttrHits and AttrMisses describe the attribute-set cache.
	AttrHits   uint64
	AttrMisses uint64

	// LastFailedChar is the most recent character no cascade font could
	// render, or 0.
	LastFailedChar rune
}

// AvgRenderTime is the mean pipeline time per frame.
func (m Metrics) AvgRenderTime() time.Duration {
	if m.Frames == 0 {
		return 0
	}
	return m.TotalRenderTime / time.Duration(m.Frames)
}

// AvgBatchesPerFrame is the mean draw batch count per frame.
func (m Metrics) AvgBatchesPerFrame() float64 {
	if m.Frames == 0 {
		return 0
	}
	return float64(m.TotalBatches) / float64(m.Frames)
}

// AvgCharactersPerFrame is the mean drawn character count per frame.
func (m Metrics) AvgCharactersPerFrame() float64 {
	if m.Frames == 0 {
		return 0
	}
	return float64(m.TotalCharacters) / float64(m.Frames)
}

// perfLogInterval is how many frames a perf window spans before it is
// logged and reset.
const perfLogInterval = 60

// perfWindow accumulates per-window counters for periodic perf logging.
type perfWindow struct {
	frames  int
	elapsed time.Duration
	batches uint64
	chars   uint64
	splits  uint64
}

func (w *perfWindow) add(elapsed time.Duration, batches, chars, splits uint64) {
	w.frames++
	w.elapsed += elapsed
	w.batches += batches
	w.chars += chars
	w.splits += splits
}

// logAndReset emits one summary line for the window and starts a new one.
func (w *perfWindow) logAndReset(lastFailed rune) {
	n := float64(w.frames)
	attrs := []any{
		slog.Int("frames", w.frames),
		slog.Duration("avg_frame", w.elapsed/time.Duration(w.frames)),
		slog.Float64("avg_batches", float64(w.batches)/n),
		slog.Float64("avg_chars", float64(w.chars)/n),
		slog.Float64("avg_splits", float64(w.splits)/n),
	}
	if lastFailed != 0 {
		attrs = append(attrs, slog.String("last_failed_char", formatCodePoint(lastFailed)))
	}
	Logger().Info("termgrid: render window", attrs...)
	*w = perfWindow{}
}

func formatCodePoint(r rune) string { return fmt.Sprintf("U+%04X", r) }
