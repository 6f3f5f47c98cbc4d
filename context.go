package termgrid

import (
	"log/slog"
	"slices"

	"github.com/gogpu/termgrid/surface"
)

// Option configures a RenderContext.
type Option func(*RenderContext)

// WithColorCacheSize bounds the color cache. Values of zero or less select
// the default of 256.
func WithColorCacheSize(n int) Option {
	return func(rc *RenderContext) { rc.colorCacheSize = n }
}

// WithPerfLogging enables the periodic performance summary, one Info line
// every 60 frames through the package logger.
func WithPerfLogging(enabled bool) Option {
	return func(rc *RenderContext) { rc.perfLogging = enabled }
}

// RenderContext drives the render pipeline and owns the caches that make it
// cheap: colors, fonts, and attribute sets persist across frames and are
// torn down and rebuilt whenever the requested font configuration changes.
//
// A RenderContext is bound to one Device and one rendering goroutine. It is
// not safe for concurrent use and RenderFrame is not reentrant.
type RenderContext struct {
	dev surface.Device

	colorCacheSize int
	perfLogging    bool

	// Cache state, nil until the first frame establishes a font config.
	colors  *ColorCache
	fonts   *FontCache
	attrs   *AttrCache
	cascade *cascadeResolver

	fontNames []string
	fontSize  float64

	batcher RectBatcher
	metrics Metrics
	window  perfWindow
	closed  bool
}

// New creates a render context bound to the device.
func New(dev surface.Device, opts ...Option) (*RenderContext, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	rc := &RenderContext{dev: dev}
	for _, opt := range opts {
		opt(rc)
	}
	return rc, nil
}

// EnablePerfLogging toggles the periodic performance summary at runtime.
func (rc *RenderContext) EnablePerfLogging(enabled bool) {
	rc.perfLogging = enabled
	if !enabled {
		rc.window = perfWindow{}
	}
}

// Metrics returns a snapshot of the cumulative counters, cache statistics
// included.
func (rc *RenderContext) Metrics() Metrics {
	m := rc.metrics
	if rc.fonts != nil {
		m.FontLookups = rc.fonts.Lookups()
		m.FontCacheHits = rc.fonts.Hits()
	}
	if rc.attrs != nil {
		m.AttrHits = rc.attrs.Hits()
		m.AttrMisses = rc.attrs.Misses()
	}
	if rc.cascade != nil {
		m.LastFailedChar = rc.cascade.lastFailedChar()
	}
	return m
}

// ResetMetrics zeroes all counters, cache statistics included.
func (rc *RenderContext) ResetMetrics() {
	rc.metrics = Metrics{}
	rc.window = perfWindow{}
	if rc.fonts != nil {
		rc.fonts.ResetMetrics()
	}
	if rc.attrs != nil {
		rc.attrs.ResetMetrics()
	}
	if rc.cascade != nil {
		rc.cascade.lastFailed = 0
	}
}

// ClearCaches drops all cached resources. The next frame rebuilds them on
// demand; calling this is only useful after the host invalidated device
// state behind the context's back.
func (rc *RenderContext) ClearCaches() {
	if rc.attrs != nil {
		rc.attrs.Clear()
	}
	if rc.cascade != nil {
		rc.cascade.clear()
	}
	if rc.fonts != nil {
		rc.fonts.Clear()
	}
	if rc.colors != nil {
		rc.colors.Clear()
	}
}

// Close releases every cached resource and marks the context unusable.
// Further RenderFrame calls return ErrContextClosed.
func (rc *RenderContext) Close() error {
	if rc.closed {
		return nil
	}
	rc.teardownCaches()
	rc.closed = true
	return nil
}

// ensureCaches (re)builds the cache stack when the frame's font
// configuration differs from the one the caches were built for.
func (rc *RenderContext) ensureCaches(names []string, size float64) error {
	if rc.fonts != nil && rc.fontSize == size && slices.Equal(rc.fontNames, names) {
		return nil
	}
	if rc.fonts != nil {
		Logger().Debug("termgrid: font config changed, rebuilding caches",
			slog.Any("fonts", names), slog.Float64("size", size))
	}
	rc.teardownCaches()

	fonts, err := NewFontCache(rc.dev, names, size)
	if err != nil {
		return err
	}
	rc.fonts = fonts
	rc.colors = NewColorCache(rc.dev, rc.colorCacheSize)
	rc.attrs = NewAttrCache(rc.colors, rc.fonts)
	rc.cascade = newCascadeResolver(rc.dev, rc.fonts)
	rc.fontNames = slices.Clone(names)
	rc.fontSize = size
	return nil
}

func (rc *RenderContext) teardownCaches() {
	if rc.attrs != nil {
		rc.attrs.Clear()
		rc.attrs = nil
	}
	if rc.cascade != nil {
		rc.cascade.clear()
		rc.cascade = nil
	}
	if rc.colors != nil {
		rc.colors.Clear()
		rc.colors = nil
	}
	if rc.fonts != nil {
		rc.fonts.Close()
		rc.fonts = nil
	}
	rc.fontNames = nil
	rc.fontSize = 0
}
