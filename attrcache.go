package termgrid

import "github.com/gogpu/termgrid/surface"

// AttrSet is the resolved drawing state for one combination of attributes,
// foreground color, and underline.
type AttrSet struct {
	Font      surface.FontID
	Color     surface.ColorID
	Underline bool
}

// attrKey packs a (underline, attrs, color) triple into the 64-bit cache
// key: underline in bit 63, the low 31 attribute bits in 62..32, packed RGB
// in the low 32.
func attrKey(attrs Attr, rgb uint32, underline bool) uint64 {
	key := uint64(attrs&0x7FFFFFFF)<<32 | uint64(rgb)
	if underline {
		key |= 1 << 63
	}
	return key
}

// AttrCache memoizes AttrSets over the color and font caches, so the hot
// path of the character pass resolves a cell's drawing state with one map
// lookup. The sets hold no handles of their own: fonts belong to the
// FontCache and colors to the ColorCache.
type AttrCache struct {
	colors *ColorCache
	fonts  *FontCache
	sets   map[uint64]AttrSet

	hits   uint64
	misses uint64
}

// NewAttrCache builds an attribute cache over existing color and font
// caches.
func NewAttrCache(colors *ColorCache, fonts *FontCache) *AttrCache {
	return &AttrCache{
		colors: colors,
		fonts:  fonts,
		sets:   make(map[uint64]AttrSet),
	}
}

// Get resolves the drawing state for the given attributes and foreground
// color. On a hit the color is re-acquired through the ColorCache anyway:
// that refreshes its LRU recency and repairs the set if the color was
// evicted since it was cached. A sub-cache failure is fatal for the frame.
func (ac *AttrCache) Get(attrs Attr, fg RGB, underline bool) (AttrSet, error) {
	key := attrKey(attrs, fg.Packed(), underline)
	if set, ok := ac.sets[key]; ok {
		ac.hits++
		color, err := ac.colors.Get(fg)
		if err != nil {
			return AttrSet{}, err
		}
		if color != set.Color {
			set.Color = color
			ac.sets[key] = set
		}
		return set, nil
	}

	ac.misses++
	font, err := ac.fonts.Get(attrs)
	if err != nil {
		return AttrSet{}, err
	}
	color, err := ac.colors.Get(fg)
	if err != nil {
		return AttrSet{}, err
	}
	set := AttrSet{Font: font, Color: color, Underline: underline}
	ac.sets[key] = set
	return set, nil
}

// Hits reports cumulative cache hits since the last ResetMetrics.
func (ac *AttrCache) Hits() uint64 { return ac.hits }

// Misses reports cumulative cache misses since the last ResetMetrics.
func (ac *AttrCache) Misses() uint64 { return ac.misses }

// ResetMetrics zeroes the hit and miss counters.
func (ac *AttrCache) ResetMetrics() {
	ac.hits = 0
	ac.misses = 0
}

// Clear drops all memoized sets. The underlying caches are cleared
// separately by their owner.
func (ac *AttrCache) Clear() {
	clear(ac.sets)
}
