package termgrid

import (
	"unicode/utf16"

	"golang.org/x/text/width"

	"github.com/gogpu/termgrid/surface"
)

// Composition overlay colors, fixed by convention: a dim gray behind the
// uncommitted text, a lighter gray behind the selected span, white glyphs.
var (
	compositionBG         = RGB{R: 60, G: 60, B: 60}
	compositionSelectedBG = RGB{R: 100, G: 100, B: 100}
	compositionFG         = RGB{R: 255, G: 255, B: 255}
)

// compositionWide reports whether the rune takes two cells in the overlay.
// The overlay has no grid cells to consult, so East Asian width decides.
func compositionWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// renderComposition draws in-progress IME text over the grid: a background
// strip with the selected span highlighted, white glyphs resolved through
// the same font cascade as grid text, and one underline beneath the whole
// overlay.
func (rc *RenderContext) renderComposition(canvas surface.Canvas, f *Frame) error {
	comp := f.Composition
	if comp == nil || comp.Text == "" {
		return nil
	}

	startX, bottom := cellOrigin(f, comp.Row, comp.Col)
	base := baselineY(f, comp.Row)
	white, err := rc.colors.Get(compositionFG)
	if err != nil {
		return err
	}

	penX := startX
	unitPos := 0
	for _, r := range comp.Text {
		units := utf16.Encode([]rune{r})
		w := f.CellWidth
		if compositionWide(r) {
			w *= 2
		}

		bg := compositionBG
		if unitPos >= comp.Selected.Location && unitPos < comp.Selected.Location+comp.Selected.Length {
			bg = compositionSelectedBG
		}
		canvas.FillRect(surface.Rect{X: penX, Y: bottom, W: w, H: f.CellHeight},
			bg.R, bg.G, bg.B, 1.0)

		if idx := rc.cascade.resolve(units); idx != fontIndexUnresolved {
			font, syntheticBold, err := rc.cascade.fontFor(idx, 0)
			if err != nil {
				return err
			}
			glyphs, _ := rc.dev.GlyphsForCharacters(font, units)
			advances := rc.dev.AdvancesForGlyphs(font, glyphs)
			gx := penX + (w-advances[0])/2
			for _, g := range glyphs {
				if g == 0 {
					continue
				}
				canvas.DrawGlyphRun(font, []surface.GlyphID{g},
					[]surface.Point{{X: gx, Y: base}}, white, syntheticBold)
			}
		}

		penX += w
		unitPos += len(units)
	}

	// One underline spans the whole overlay, 2px below the baseline.
	canvas.FillRect(surface.Rect{X: startX, Y: base - 2, W: penX - startX, H: 1},
		compositionFG.R, compositionFG.G, compositionFG.B, 1.0)
	return nil
}
