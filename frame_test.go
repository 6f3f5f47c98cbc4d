package termgrid

import (
	"errors"
	"testing"

	"github.com/gogpu/termgrid/surface"
)

// testFrame returns a 1x4 frame with 8x16 cells and no padding:
//
//	A  B  ·  C      pair 1, pair 1, pair 0 space, pair 2 reversed
func testFrame() *Frame {
	return &Frame{
		Grid: Grid{{
			Cell{Text: "A", Pair: 1},
			Cell{Text: "B", Pair: 1},
			Cell{Text: " ", Pair: 0},
			Cell{Text: "C", Pair: 2, Attrs: AttrReverse},
		}},
		ColorPairs: map[int]ColorPair{
			0: {FG: RGB{R: 255, G: 255, B: 255}, BG: RGB{}},
			1: {FG: RGB{R: 255, G: 255, B: 255}, BG: RGB{B: 255}},
			2: {FG: RGB{R: 255}, BG: RGB{G: 255}},
		},
		DirtyRect:  Rect{X: 0, Y: 0, W: 32, H: 16},
		Rows:       1,
		Cols:       4,
		CellWidth:  8,
		CellHeight: 16,
		Ascent:     12,
		FontNames:  []string{"Mono"},
		FontSize:   12,
	}
}

func newTestContext(t *testing.T) (*RenderContext, *surface.Recorder) {
	t.Helper()
	rec := surface.NewRecorder()
	ctx, err := New(rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ctx, rec
}

func TestRenderFrameFullRedraw(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	if err := ctx.RenderFrame(rec, testFrame()); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// Backgrounds: A+B merge into one blue batch, then the space's black,
	// then the reversed C painted in its foreground red.
	if len(rec.Fills) != 3 {
		t.Fatalf("got %d fills, want 3: %+v", len(rec.Fills), rec.Fills)
	}
	wantFills := []FillWant{
		{x: 0, w: 16, r: 0, g: 0, b: 255},
		{x: 16, w: 8, r: 0, g: 0, b: 0},
		{x: 24, w: 8, r: 255, g: 0, b: 0},
	}
	for i, want := range wantFills {
		checkFill(t, rec.Fills[i], want)
	}

	// Characters: "AB" in one run, the bare space closes it, and the
	// reversed C draws in the pair's background green.
	if len(rec.GlyphRuns) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(rec.GlyphRuns))
	}
	run := rec.GlyphRuns[0]
	if len(run.Glyphs) != 2 || run.Glyphs[0] != surface.GlyphID('A') || run.Glyphs[1] != surface.GlyphID('B') {
		t.Errorf("run 0 glyphs = %v", run.Glyphs)
	}
	// 8px advance in 8px cells centers at the cell origin; baseline is
	// cellHeight - ascent above the cell bottom.
	if run.Positions[0] != (surface.Point{X: 0, Y: 4}) || run.Positions[1] != (surface.Point{X: 8, Y: 4}) {
		t.Errorf("run 0 positions = %v", run.Positions)
	}
	r, g, b, _ := rec.ColorRGB(run.Color)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("run 0 color = %d,%d,%d, want white", r, g, b)
	}
	cRun := rec.GlyphRuns[1]
	r, g, b, _ = rec.ColorRGB(cRun.Color)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("reversed run color = %d,%d,%d, want green", r, g, b)
	}

	m := ctx.Metrics()
	if m.Frames != 1 {
		t.Errorf("frames = %d, want 1", m.Frames)
	}
	if m.TotalBatches != 5 {
		t.Errorf("batches = %d, want 5", m.TotalBatches)
	}
	if m.TotalCharacters != 3 {
		t.Errorf("characters = %d, want 3", m.TotalCharacters)
	}
	if m.BatchSplits != 2 {
		t.Errorf("splits = %d, want 2", m.BatchSplits)
	}
}

type FillWant struct {
	x, w    float64
	r, g, b uint8
}

func checkFill(t *testing.T, got surface.FillCall, want FillWant) {
	t.Helper()
	if got.Rect.X != want.x || got.Rect.W != want.w {
		t.Errorf("fill rect = %+v, want x=%g w=%g", got.Rect, want.x, want.w)
	}
	if got.R != want.r || got.G != want.g || got.B != want.b {
		t.Errorf("fill color = %d,%d,%d, want %d,%d,%d",
			got.R, got.G, got.B, want.r, want.g, want.b)
	}
}

func TestRenderFrameWideCell(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Grid = Grid{{
		Cell{Text: "世", Pair: 1, Wide: true},
		Cell{Pair: 1},
		Cell{Text: " ", Pair: 0},
		Cell{Text: " ", Pair: 0},
	}}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// The wide cell's background spans both columns.
	checkFill(t, rec.Fills[0], FillWant{x: 0, w: 16, r: 0, g: 0, b: 255})

	if len(rec.GlyphRuns) != 1 {
		t.Fatalf("got %d glyph runs, want 1", len(rec.GlyphRuns))
	}
	// The glyph centers in the double-width span: (16 - 8) / 2.
	if got := rec.GlyphRuns[0].Positions[0].X; got != 4 {
		t.Errorf("wide glyph x = %g, want 4", got)
	}
	if m := ctx.Metrics(); m.TotalCharacters != 1 {
		t.Errorf("characters = %d, want 1", m.TotalCharacters)
	}
}

func TestRenderFrameUnderlineRun(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Grid = Grid{{
		Cell{Text: "a", Pair: 1, Attrs: AttrUnderline},
		Cell{Text: " ", Pair: 1, Attrs: AttrUnderline},
		Cell{Text: "b", Pair: 1, Attrs: AttrUnderline},
		Cell{Text: " ", Pair: 0},
	}}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// An underlined space stays in the run, so "a b" draws as one run with
	// one underline rectangle spanning all three cells.
	if len(rec.GlyphRuns) != 1 {
		t.Fatalf("got %d glyph runs, want 1", len(rec.GlyphRuns))
	}
	var underlines []surface.FillCall
	for _, fill := range rec.Fills {
		if fill.Rect.H == 1 {
			underlines = append(underlines, fill)
		}
	}
	if len(underlines) != 1 {
		t.Fatalf("got %d underline fills, want 1", len(underlines))
	}
	u := underlines[0]
	if u.Rect.X != 0 || u.Rect.W != 24 {
		t.Errorf("underline rect = %+v, want x=0 w=24", u.Rect)
	}
	// Midway between baseline (y=4) and the cell bottom (y=0).
	if u.Rect.Y != 2 {
		t.Errorf("underline y = %g, want 2", u.Rect.Y)
	}
}

func TestRenderFrameCascadeAndFailure(t *testing.T) {
	rec := surface.NewRecorder()
	ascii := make(map[rune]bool)
	for r := rune(0x20); r < 0x7F; r++ {
		ascii[r] = true
	}
	rec.Fonts = map[string]*surface.RecorderFont{
		"Mono": {Coverage: ascii, HasBold: true},
		"CJK":  {Coverage: map[rune]bool{'世': true}, HasBold: false},
	}
	ctx, err := New(rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.FontNames = []string{"Mono", "CJK"}
	f.Grid = Grid{{
		Cell{Text: "A", Pair: 1},
		Cell{Text: "世", Pair: 1, Wide: true},
		Cell{},
		Cell{Text: "й", Pair: 1},
	}}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// The font change from primary to cascade splits the run, and the
	// unrenderable character is skipped entirely.
	if len(rec.GlyphRuns) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(rec.GlyphRuns))
	}
	if rec.FontName(rec.GlyphRuns[0].Font) != "Mono" {
		t.Errorf("run 0 font = %q, want Mono", rec.FontName(rec.GlyphRuns[0].Font))
	}
	if rec.FontName(rec.GlyphRuns[1].Font) != "CJK" {
		t.Errorf("run 1 font = %q, want CJK", rec.FontName(rec.GlyphRuns[1].Font))
	}
	if m := ctx.Metrics(); m.LastFailedChar != 'й' {
		t.Errorf("LastFailedChar = %q, want 'й'", m.LastFailedChar)
	}
}

func TestRenderFrameSyntheticBold(t *testing.T) {
	rec := surface.NewRecorder()
	rec.Fonts = map[string]*surface.RecorderFont{
		"Mono": {HasBold: false},
	}
	ctx, err := New(rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Grid[0][0].Attrs = AttrBold
	f.Grid[0][1].Attrs = AttrBold
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if len(rec.GlyphRuns) == 0 {
		t.Fatal("no glyph runs")
	}
	if !rec.GlyphRuns[0].SyntheticBold {
		t.Error("bold run without a variant did not request synthetic bold")
	}
}

func TestRenderFrameCursor(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Cursor = &Cursor{Row: 0, Col: 2, Visible: true}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	last := rec.Fills[len(rec.Fills)-1]
	if last.Rect != (surface.Rect{X: 16, Y: 0, W: 8, H: 16}) {
		t.Errorf("cursor rect = %+v", last.Rect)
	}
	if last.R != 255 || last.Alpha != 0.5 {
		t.Errorf("cursor fill = %+v, want white at 50%%", last)
	}

	// A hidden cursor draws nothing.
	rec.ResetCalls()
	f.Cursor.Visible = false
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	for _, fill := range rec.Fills {
		if fill.Alpha == 0.5 {
			t.Error("hidden cursor still painted")
		}
	}
}

func TestRenderFrameComposition(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Composition = &Composition{
		Text:     "ab",
		Selected: Range{Location: 0, Length: 1},
		Row:      0,
		Col:      1,
	}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	var selected, unselected, underline int
	for _, fill := range rec.Fills {
		switch {
		case fill.R == 100 && fill.G == 100 && fill.B == 100:
			selected++
		case fill.R == 60 && fill.G == 60 && fill.B == 60:
			unselected++
		case fill.R == 255 && fill.G == 255 && fill.B == 255 && fill.Rect.H == 1:
			underline++
			// Anchored at column 1, spanning both characters, 2px
			// below the baseline.
			if fill.Rect.X != 8 || fill.Rect.W != 16 || fill.Rect.Y != 2 {
				t.Errorf("overlay underline rect = %+v", fill.Rect)
			}
		}
	}
	if selected != 1 || unselected != 1 || underline != 1 {
		t.Errorf("overlay fills selected/unselected/underline = %d/%d/%d, want 1/1/1",
			selected, unselected, underline)
	}
}

func TestRenderFrameValidation(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	tests := []struct {
		name   string
		mutate func(f *Frame)
	}{
		{"zero rows", func(f *Frame) { f.Rows = 0 }},
		{"huge cols", func(f *Frame) { f.Cols = maxGridDim + 1 }},
		{"zero cell width", func(f *Frame) { f.CellWidth = 0 }},
		{"negative cell height", func(f *Frame) { f.CellHeight = -1 }},
		{"zero font size", func(f *Frame) { f.FontSize = 0 }},
		{"negative dirty rect width", func(f *Frame) { f.DirtyRect.W = -1 }},
		{"negative dirty rect height", func(f *Frame) { f.DirtyRect.H = -8 }},
		{"grid shape mismatch", func(f *Frame) { f.Rows = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFrame()
			tt.mutate(f)
			err := ctx.RenderFrame(rec, f)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want a ValidationError", err)
			}
		})
	}

	if err := ctx.RenderFrame(nil, testFrame()); !errors.Is(err, ErrNilCanvas) {
		t.Errorf("nil canvas error = %v, want ErrNilCanvas", err)
	}
}

func TestRenderFramePaddingExtension(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	// A 1x2 grid of 8x16 cells with 4px padding on every side: the edge
	// cells extend their background over the padding, so one merged fill
	// covers the whole 24x24 surface.
	f := &Frame{
		Grid: Grid{{
			Cell{Text: "A", Pair: 1},
			Cell{Text: "B", Pair: 1},
		}},
		ColorPairs: map[int]ColorPair{
			1: {FG: RGB{R: 255, G: 255, B: 255}, BG: RGB{B: 255}},
		},
		DirtyRect:  Rect{X: 0, Y: 0, W: 24, H: 24},
		Rows:       1,
		Cols:       2,
		CellWidth:  8,
		CellHeight: 16,
		OffsetX:    4,
		OffsetY:    4,
		Ascent:     12,
		FontNames:  []string{"Mono"},
		FontSize:   12,
	}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if len(rec.Fills) != 1 {
		t.Fatalf("got %d fills, want 1: %+v", len(rec.Fills), rec.Fills)
	}
	want := surface.Rect{X: 0, Y: 0, W: 24, H: 24}
	if rec.Fills[0].Rect != want {
		t.Errorf("padded background = %+v, want %+v", rec.Fills[0].Rect, want)
	}
}

func TestRenderFrameUnknownPairSkipped(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Grid = Grid{{
		Cell{Text: "A", Pair: 1},
		Cell{Text: "X", Pair: 99},
		Cell{Text: "B", Pair: 1},
		Cell{Text: " ", Pair: 0},
	}}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// The unknown pair's cell is skipped at cell granularity in both
	// passes; its neighbors still render, split by the gap.
	wantFills := []FillWant{
		{x: 0, w: 8, r: 0, g: 0, b: 255},
		{x: 16, w: 8, r: 0, g: 0, b: 255},
	}
	// The trailing space contributes the pair-0 black fill.
	if len(rec.Fills) != 3 {
		t.Fatalf("got %d fills, want 3: %+v", len(rec.Fills), rec.Fills)
	}
	for i, want := range wantFills {
		checkFill(t, rec.Fills[i], want)
	}
	if len(rec.GlyphRuns) != 2 {
		t.Fatalf("got %d glyph runs, want 2", len(rec.GlyphRuns))
	}
	if rec.GlyphRuns[0].Glyphs[0] != surface.GlyphID('A') || rec.GlyphRuns[1].Glyphs[0] != surface.GlyphID('B') {
		t.Errorf("runs = %v / %v, want A and B", rec.GlyphRuns[0].Glyphs, rec.GlyphRuns[1].Glyphs)
	}
	if m := ctx.Metrics(); m.TotalCharacters != 2 {
		t.Errorf("characters = %d, want 2", m.TotalCharacters)
	}
}

func TestRenderFrameSameFontConfigKeepsCaches(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	if err := ctx.RenderFrame(rec, testFrame()); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	colorsReleased := rec.ColorsReleased()
	liveFonts := rec.LiveFonts()

	// Unchanged (font_names, size) must reuse the cache stack untouched.
	if err := ctx.RenderFrame(rec, testFrame()); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if rec.ColorsReleased() != colorsReleased {
		t.Errorf("colors released on identical config: %d -> %d",
			colorsReleased, rec.ColorsReleased())
	}
	if rec.LiveFonts() != liveFonts {
		t.Errorf("font handles changed on identical config: %d -> %d",
			liveFonts, rec.LiveFonts())
	}
}

func TestRenderFrameVariationSelectorCombining(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.Grid = Grid{{
		Cell{Text: "\u231A", Pair: 1}, // watch face
		Cell{Text: "\uFE0F", Pair: 1}, // variation selector
		Cell{Text: " ", Pair: 0},
		Cell{Text: " ", Pair: 0},
	}}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// The selector merges with the cell to its left into one double-wide
	// unit: a single run whose glyph centers over both columns.
	if len(rec.GlyphRuns) != 1 {
		t.Fatalf("got %d glyph runs, want 1", len(rec.GlyphRuns))
	}
	run := rec.GlyphRuns[0]
	if len(run.Glyphs) != 2 || run.Glyphs[0] != surface.GlyphID(0x231A) {
		t.Errorf("run glyphs = %v, want base glyph first", run.Glyphs)
	}
	// (16px span - 8px advance) / 2.
	if run.Positions[0].X != 4 {
		t.Errorf("combined unit x = %g, want 4", run.Positions[0].X)
	}
	if m := ctx.Metrics(); m.TotalCharacters != 1 {
		t.Errorf("characters = %d, want 1", m.TotalCharacters)
	}
}

func TestRenderFrameAfterClose(t *testing.T) {
	ctx, rec := newTestContext(t)
	if err := ctx.RenderFrame(rec, testFrame()); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.LiveFonts() != 0 || rec.LiveColors() != 0 {
		t.Errorf("resources leaked after Close: %d fonts, %d colors",
			rec.LiveFonts(), rec.LiveColors())
	}
	if err := ctx.RenderFrame(rec, testFrame()); !errors.Is(err, ErrContextClosed) {
		t.Errorf("error after Close = %v, want ErrContextClosed", err)
	}
}

func TestRenderFrameFontChangeRebuildsCaches(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	if err := ctx.RenderFrame(rec, testFrame()); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	liveBefore := rec.LiveColors()

	f := testFrame()
	f.FontSize = 16
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	// The old color handles were released with the torn-down caches.
	if rec.ColorsReleased() < liveBefore {
		t.Errorf("released %d colors on rebuild, want at least %d",
			rec.ColorsReleased(), liveBefore)
	}
}

func TestNewNilDevice(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestRenderFrameEmptyDirtyRect(t *testing.T) {
	ctx, rec := newTestContext(t)
	defer func() { _ = ctx.Close() }()

	f := testFrame()
	f.DirtyRect = Rect{}
	if err := ctx.RenderFrame(rec, f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if len(rec.Fills) != 0 || len(rec.GlyphRuns) != 0 {
		t.Errorf("empty dirty rect still drew: %d fills, %d runs",
			len(rec.Fills), len(rec.GlyphRuns))
	}
	if m := ctx.Metrics(); m.Frames != 1 {
		t.Errorf("frames = %d, want 1", m.Frames)
	}
}
