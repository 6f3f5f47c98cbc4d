package termgrid

import "github.com/gogpu/termgrid/surface"

// defaultColorCacheSize bounds the color cache before LRU eviction kicks in.
const defaultColorCacheSize = 256

type colorEntry struct {
	id       surface.ColorID
	lastUsed uint64
}

// ColorCache caches device color handles keyed by packed 24-bit RGB. Alpha
// is excluded from the key: cached colors are always opaque, and the few
// translucent fills (cursor, overlays) go straight to the canvas. The cache
// owns every handle it creates and releases it on eviction and Clear.
//
// Not safe for concurrent use; the whole pipeline runs on one goroutine.
type ColorCache struct {
	dev     surface.Device
	max     int
	entries map[uint32]*colorEntry
	clock   uint64
}

// NewColorCache returns a cache holding at most max colors. A max of zero or
// less selects the default of 256.
func NewColorCache(dev surface.Device, max int) *ColorCache {
	if max <= 0 {
		max = defaultColorCacheSize
	}
	return &ColorCache{
		dev:     dev,
		max:     max,
		entries: make(map[uint32]*colorEntry),
	}
}

// Get returns the device handle for the color, creating and caching it on
// first use. The handle stays owned by the cache. A creation failure is
// fatal for the frame and is reported as a ResourceError.
func (c *ColorCache) Get(color RGB) (surface.ColorID, error) {
	key := color.Packed()
	c.clock++
	if e, ok := c.entries[key]; ok {
		e.lastUsed = c.clock
		return e.id, nil
	}
	if len(c.entries) >= c.max {
		c.evictOldest()
	}
	id, err := c.dev.CreateColor(color.R, color.G, color.B, 1.0)
	if err != nil {
		return 0, &ResourceError{Kind: "color", Err: err}
	}
	c.entries[key] = &colorEntry{id: id, lastUsed: c.clock}
	return id, nil
}

// evictOldest releases the least recently used entry. A linear scan is fine
// at 256 entries and eviction is rare in practice.
func (c *ColorCache) evictOldest() {
	var (
		oldestKey uint32
		oldest    uint64
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.lastUsed < oldest {
			oldestKey = key
			oldest = e.lastUsed
			found = true
		}
	}
	if found {
		c.dev.ReleaseColor(c.entries[oldestKey].id)
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of cached colors.
func (c *ColorCache) Len() int { return len(c.entries) }

// Clear releases every cached color.
func (c *ColorCache) Clear() {
	for key, e := range c.entries {
		c.dev.ReleaseColor(e.id)
		delete(c.entries, key)
	}
}
