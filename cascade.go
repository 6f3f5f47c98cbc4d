package termgrid

import (
	"errors"
	"unicode/utf16"

	"github.com/gogpu/termgrid/surface"
)

// Resolved font slots. Primary is the configured font; non-negative values
// index into the base font's cascade list; unresolved means no font in the
// cascade can render the character.
const (
	fontIndexPrimary    = -1
	fontIndexUnresolved = -2
)

// cascadeResolver finds which font can render a character and maps the
// resolved slot to a concrete handle. Resolution is done against the regular
// fonts and memoized per frame; bold is applied afterwards by fontFor, so a
// character resolves to the same slot whether or not it is bold.
type cascadeResolver struct {
	dev   surface.Device
	fonts *FontCache

	// memo caches slot lookups for the current frame, keyed by the packed
	// UTF-16 units of the character.
	memo map[uint32]int

	// boldVariants maps a cascade font to its lazily derived bold variant,
	// or zero when the device has none and bold must be synthesized. The
	// resolver owns the variant handles.
	boldVariants map[surface.FontID]surface.FontID

	lastFailed rune
}

func newCascadeResolver(dev surface.Device, fonts *FontCache) *cascadeResolver {
	return &cascadeResolver{
		dev:          dev,
		fonts:        fonts,
		memo:         make(map[uint32]int),
		boldVariants: make(map[surface.FontID]surface.FontID),
	}
}

// beginFrame drops the per-frame memo. Cascade membership is stable but the
// memo is kept frame-local so a font config change can never serve stale
// slots.
func (cr *cascadeResolver) beginFrame() {
	clear(cr.memo)
}

// resolve returns the font slot able to render the character's UTF-16
// units: fontIndexPrimary, a cascade index, or fontIndexUnresolved.
func (cr *cascadeResolver) resolve(units []uint16) int {
	key := memoKey(units)
	if idx, ok := cr.memo[key]; ok {
		return idx
	}

	idx := fontIndexUnresolved
	if _, ok := cr.glyphsIn(cr.fonts.Base(), units); ok {
		idx = fontIndexPrimary
	} else {
		for i, font := range cr.dev.CascadeList(cr.fonts.Base()) {
			if _, ok := cr.glyphsIn(font, units); ok {
				idx = i
				break
			}
		}
	}
	if idx == fontIndexUnresolved {
		cr.lastFailed = unitsRune(units)
	}
	cr.memo[key] = idx
	return idx
}

func (cr *cascadeResolver) glyphsIn(font surface.FontID, units []uint16) ([]surface.GlyphID, bool) {
	glyphs, allFound := cr.dev.GlyphsForCharacters(font, units)
	if !allFound {
		return nil, false
	}
	return glyphs, true
}

// fontFor maps a resolved slot and the cell attributes to a concrete font
// handle. syntheticBold is set when bold was requested but the slot has no
// true bold variant, telling the canvas to embolden by stroking.
func (cr *cascadeResolver) fontFor(index int, attrs Attr) (font surface.FontID, syntheticBold bool, err error) {
	bold := attrs&AttrBold != 0

	if index == fontIndexPrimary {
		font, err = cr.fonts.Get(attrs)
		if err != nil {
			return 0, false, err
		}
		synthetic := bold && cr.dev.Traits(font)&surface.TraitBold == 0
		return font, synthetic, nil
	}

	cascade := cr.dev.CascadeList(cr.fonts.Base())
	if index < 0 || index >= len(cascade) {
		return 0, false, &ResourceError{Kind: "font", Err: errors.New("cascade slot out of range")}
	}
	font = cascade[index]
	if !bold {
		return font, false, nil
	}

	variant, seen := cr.boldVariants[font]
	if !seen {
		variant, err = cr.dev.CreateFontVariant(font, surface.TraitBold)
		if errors.Is(err, surface.ErrVariantUnavailable) {
			variant = 0
		} else if err != nil {
			return 0, false, &ResourceError{Kind: "font", Err: err}
		}
		cr.boldVariants[font] = variant
	}
	if variant == 0 {
		return font, true, nil
	}
	return variant, false, nil
}

// lastFailedChar reports the most recent character no cascade font could
// render, or 0.
func (cr *cascadeResolver) lastFailedChar() rune { return cr.lastFailed }

// clear releases the derived bold variants and drops the memo.
func (cr *cascadeResolver) clear() {
	for base, variant := range cr.boldVariants {
		if variant != 0 {
			cr.dev.ReleaseFont(variant)
		}
		delete(cr.boldVariants, base)
	}
	clear(cr.memo)
}

// memoKey packs up to two UTF-16 units into a map key.
func memoKey(units []uint16) uint32 {
	key := uint32(0)
	if len(units) > 0 {
		key = uint32(units[0])
	}
	if len(units) > 1 {
		key |= uint32(units[1]) << 16
	}
	return key
}

// unitsRune decodes the character's leading code point for diagnostics.
func unitsRune(units []uint16) rune {
	if len(units) == 0 {
		return 0
	}
	r := rune(units[0])
	if utf16.IsSurrogate(r) && len(units) > 1 {
		return utf16.DecodeRune(r, rune(units[1]))
	}
	return r
}
