package termgrid

import (
	"errors"

	"github.com/gogpu/termgrid/surface"
)

// defaultFontName is used when the frame supplies no font list.
const defaultFontName = "Menlo"

// FontCache caches font handles keyed by the font-selecting attribute bits.
// The base font is created once from the configured font list and lives for
// the cache's lifetime. Variants (bold) are derived lazily; when the device
// has no true variant the base font is cached under the variant key and the
// character pass synthesizes the trait at draw time.
type FontCache struct {
	dev   surface.Device
	base  surface.FontID
	fonts map[Attr]surface.FontID

	lookups uint64
	hits    uint64
}

// NewFontCache creates the base font from names (primary first, cascade
// fallbacks after) at the given point size.
func NewFontCache(dev surface.Device, names []string, size float64) (*FontCache, error) {
	if len(names) == 0 {
		names = []string{defaultFontName}
	}
	base, err := dev.CreateFont(names[0], size, names[1:]...)
	if err != nil {
		return nil, &ResourceError{Kind: "font", Err: err}
	}
	fc := &FontCache{
		dev:   dev,
		base:  base,
		fonts: make(map[Attr]surface.FontID),
	}
	fc.fonts[0] = base
	return fc, nil
}

// Base returns the base font handle, owned by the cache.
func (fc *FontCache) Base() surface.FontID { return fc.base }

// Get returns the font for the given attributes. Only the bits that select
// a variant matter; underline and reverse are masked off. The handle stays
// owned by the cache.
func (fc *FontCache) Get(attrs Attr) (surface.FontID, error) {
	key := attrs.fontAttrs()
	fc.lookups++
	if id, ok := fc.fonts[key]; ok {
		fc.hits++
		return id, nil
	}

	var traits surface.FontTrait
	if key&AttrBold != 0 {
		traits |= surface.TraitBold
	}
	id, err := fc.dev.CreateFontVariant(fc.base, traits)
	if errors.Is(err, surface.ErrVariantUnavailable) {
		// No true variant. Cache the base under this key so the miss
		// is paid once.
		fc.fonts[key] = fc.base
		return fc.base, nil
	}
	if err != nil {
		return 0, &ResourceError{Kind: "font", Err: err}
	}
	fc.fonts[key] = id
	return id, nil
}

// Lookups reports the cumulative Get count since the last ResetMetrics.
func (fc *FontCache) Lookups() uint64 { return fc.lookups }

// Hits reports the cumulative cache hits since the last ResetMetrics.
func (fc *FontCache) Hits() uint64 { return fc.hits }

// ResetMetrics zeroes the lookup counters.
func (fc *FontCache) ResetMetrics() {
	fc.lookups = 0
	fc.hits = 0
}

// Clear releases the derived variants and keeps the base font.
func (fc *FontCache) Clear() {
	for key, id := range fc.fonts {
		if id != fc.base {
			fc.dev.ReleaseFont(id)
		}
		delete(fc.fonts, key)
	}
	fc.fonts[0] = fc.base
}

// Close releases everything, base font included. The cache must not be used
// afterwards.
func (fc *FontCache) Close() {
	fc.Clear()
	fc.dev.ReleaseFont(fc.base)
	fc.base = 0
}
