// Package surface defines the boundary between the termgrid pipeline and the
// host's 2D rendering/text system.
//
// The pipeline consumes two capabilities: a Device, which creates and
// releases color and font resources and answers glyph queries, and a Canvas,
// which accepts fill-rectangle and glyph-run draw calls. A host backend
// (CoreGraphics, a GPU canvas, the software device in surface/softdev)
// implements both, often on the same concrete type.
//
// Handles returned by a Device are opaque. The termgrid caches are the sole
// owners of the handles they create and release every one of them on
// eviction, clear, and teardown; pipeline callers never receive ownership.
// A Canvas is borrowed for the duration of a single frame.
package surface

import "errors"

// ErrFontNotFound is returned by Device.CreateFont when no font with the
// requested name is available.
var ErrFontNotFound = errors.New("surface: font not found")

// ErrVariantUnavailable is returned by Device.CreateFontVariant when the
// font has no variant with the requested traits. Callers are expected to
// fall back to the base font (and synthesize the trait at draw time if they
// need it).
var ErrVariantUnavailable = errors.New("surface: font variant unavailable")

// ColorID is an opaque handle to a device color. The zero value is invalid.
type ColorID uint64

// FontID is an opaque handle to a device font at a fixed size. The zero
// value is invalid.
type FontID uint64

// GlyphID identifies a glyph within a font. Glyph 0 marks "no glyph": either
// the font cannot render the character, or the slot is the trailing half of
// a surrogate pair whose glyph was emitted in the leading slot.
type GlyphID uint16

// FontTrait is a bitmask of font style traits.
type FontTrait int

// Font traits.
const (
	TraitBold FontTrait = 1 << 0
)

// Point is a position in surface coordinates (origin bottom-left, Y up).
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in surface coordinates; Y names the
// bottom edge.
type Rect struct {
	X, Y, W, H float64
}

// Device creates and releases rendering resources and answers font queries.
// All methods are called from a single rendering goroutine.
type Device interface {
	// CreateColor creates a color handle from 8-bit RGB components and an
	// alpha in [0, 1]. The caller owns the returned handle.
	CreateColor(r, g, b uint8, alpha float64) (ColorID, error)

	// ReleaseColor releases a color handle. Releasing the zero handle is a
	// no-op.
	ReleaseColor(ColorID)

	// CreateFont creates a font at the given point size. Any fallbacks
	// become the font's cascade list, consulted by CascadeList in order.
	// The caller owns the returned handle.
	CreateFont(name string, size float64, fallbacks ...string) (FontID, error)

	// CreateFontVariant derives a new font from base with the requested
	// traits applied. Returns ErrVariantUnavailable if the device cannot
	// provide a true variant. The caller owns the returned handle.
	CreateFontVariant(base FontID, traits FontTrait) (FontID, error)

	// ReleaseFont releases a font handle. Releasing the zero handle is a
	// no-op.
	ReleaseFont(FontID)

	// Traits reports the style traits the font actually has.
	Traits(FontID) FontTrait

	// CascadeList returns the font's ordered fallback fonts. The returned
	// handles are owned by the device, valid until the font is released;
	// callers must not release them.
	CascadeList(FontID) []FontID

	// GlyphsForCharacters maps UTF-16 code units to glyphs. The returned
	// slice has one entry per code unit; a surrogate pair produces its
	// glyph in the leading slot and GlyphID 0 in the trailing slot.
	// allFound is false if any character has no glyph in this font.
	GlyphsForCharacters(font FontID, units []uint16) (glyphs []GlyphID, allFound bool)

	// AdvancesForGlyphs returns the horizontal advance in pixels for each
	// glyph. Entries for GlyphID 0 are zero.
	AdvancesForGlyphs(font FontID, glyphs []GlyphID) []float64
}

// Canvas accepts the pipeline's draw calls for one frame. The coordinate
// origin is bottom-left with Y increasing upward.
type Canvas interface {
	// FillRect fills a rectangle with an opaque or translucent color.
	FillRect(rect Rect, r, g, b uint8, alpha float64)

	// DrawGlyphRun draws glyphs of one font at explicit positions (glyph
	// origins on the baseline). When syntheticBold is set the canvas
	// emboldens the glyphs by stroking in addition to filling.
	DrawGlyphRun(font FontID, glyphs []GlyphID, positions []Point, color ColorID, syntheticBold bool)
}
