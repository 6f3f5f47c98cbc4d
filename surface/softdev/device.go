// Package softdev is a pure-software implementation of the surface Device
// and Canvas interfaces. It rasterizes into an image.RGBA, which makes it
// the backend for tests and for offline rendering such as the demo command.
//
// Fonts are registered as raw TTF/OTF bytes under a name. Each registered
// font is parsed twice, for the two jobs a device has: go-text/typesetting
// answers character-to-glyph and advance queries, and x/image's sfnt
// provides the outline segments the rasterizer consumes.
package softdev

import (
	"bytes"
	"fmt"
	"unicode/utf16"

	"github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/termgrid/surface"
)

var _ surface.Device = (*Device)(nil)

// parsedFont is one font file parsed for both query and outline use.
type parsedFont struct {
	meta *font.Face
	upem float64
	out  *sfnt.Font
}

func parseFont(data []byte) (*parsedFont, error) {
	meta, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("softdev: parse font: %w", err)
	}
	out, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("softdev: parse font outlines: %w", err)
	}
	return &parsedFont{
		meta: meta,
		upem: float64(meta.Upem()),
		out:  out,
	}, nil
}

// fontEntry is a registered family: a regular face and an optional bold one.
type fontEntry struct {
	name    string
	regular *parsedFont
	bold    *parsedFont
}

// devFont is one issued font handle.
type devFont struct {
	entry   *fontEntry
	face    *parsedFont
	size    float64
	traits  surface.FontTrait
	cascade []surface.FontID
}

// devColor is one issued color handle.
type devColor struct {
	r, g, b uint8
	alpha   float64
}

// Device implements surface.Device over registered font files.
type Device struct {
	registry map[string]*fontEntry

	nextID uint64
	fonts  map[surface.FontID]*devFont
	colors map[surface.ColorID]devColor
}

// NewDevice returns a device with an empty font registry.
func NewDevice() *Device {
	return &Device{
		registry: make(map[string]*fontEntry),
		fonts:    make(map[surface.FontID]*devFont),
		colors:   make(map[surface.ColorID]devColor),
	}
}

// RegisterFont makes a font file available under name. Registering the same
// name again replaces the entry; handles created earlier keep their parsed
// face.
func (d *Device) RegisterFont(name string, data []byte) error {
	pf, err := parseFont(data)
	if err != nil {
		return err
	}
	if e, ok := d.registry[name]; ok {
		e.regular = pf
		return nil
	}
	d.registry[name] = &fontEntry{name: name, regular: pf}
	return nil
}

// RegisterBoldVariant attaches a bold font file to an already registered
// family.
func (d *Device) RegisterBoldVariant(name string, data []byte) error {
	e, ok := d.registry[name]
	if !ok {
		return fmt.Errorf("softdev: register bold: %w: %q", surface.ErrFontNotFound, name)
	}
	pf, err := parseFont(data)
	if err != nil {
		return err
	}
	e.bold = pf
	return nil
}

func (d *Device) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateColor implements surface.Device.
func (d *Device) CreateColor(r, g, b uint8, alpha float64) (surface.ColorID, error) {
	id := surface.ColorID(d.allocID())
	d.colors[id] = devColor{r: r, g: g, b: b, alpha: alpha}
	return id, nil
}

// ReleaseColor implements surface.Device.
func (d *Device) ReleaseColor(id surface.ColorID) {
	delete(d.colors, id)
}

// CreateFont implements surface.Device. Fallback names without a registered
// font are skipped; an unregistered primary fails with ErrFontNotFound.
func (d *Device) CreateFont(name string, size float64, fallbacks ...string) (surface.FontID, error) {
	e, ok := d.registry[name]
	if !ok {
		return 0, fmt.Errorf("softdev: %w: %q", surface.ErrFontNotFound, name)
	}
	f := &devFont{entry: e, face: e.regular, size: size}
	for _, fb := range fallbacks {
		fe, ok := d.registry[fb]
		if !ok {
			continue
		}
		fbID := surface.FontID(d.allocID())
		d.fonts[fbID] = &devFont{entry: fe, face: fe.regular, size: size}
		f.cascade = append(f.cascade, fbID)
	}
	id := surface.FontID(d.allocID())
	d.fonts[id] = f
	return id, nil
}

// CreateFontVariant implements surface.Device. Only bold is supported, and
// only when a bold file was registered for the family.
func (d *Device) CreateFontVariant(base surface.FontID, traits surface.FontTrait) (surface.FontID, error) {
	f, ok := d.fonts[base]
	if !ok {
		return 0, fmt.Errorf("softdev: unknown font handle %d", base)
	}
	if traits&surface.TraitBold == 0 {
		return 0, fmt.Errorf("softdev: %w: unsupported traits %#x", surface.ErrVariantUnavailable, int(traits))
	}
	if f.entry.bold == nil {
		return 0, fmt.Errorf("softdev: %w: %q has no bold file", surface.ErrVariantUnavailable, f.entry.name)
	}
	id := surface.FontID(d.allocID())
	d.fonts[id] = &devFont{
		entry:  f.entry,
		face:   f.entry.bold,
		size:   f.size,
		traits: f.traits | surface.TraitBold,
	}
	return id, nil
}

// ReleaseFont implements surface.Device. Cascade handles created with the
// font are released along with it.
func (d *Device) ReleaseFont(id surface.FontID) {
	f, ok := d.fonts[id]
	if !ok {
		return
	}
	for _, c := range f.cascade {
		delete(d.fonts, c)
	}
	delete(d.fonts, id)
}

// Traits implements surface.Device.
func (d *Device) Traits(id surface.FontID) surface.FontTrait {
	if f, ok := d.fonts[id]; ok {
		return f.traits
	}
	return 0
}

// CascadeList implements surface.Device.
func (d *Device) CascadeList(id surface.FontID) []surface.FontID {
	if f, ok := d.fonts[id]; ok {
		return f.cascade
	}
	return nil
}

// GlyphsForCharacters implements surface.Device using typesetting's nominal
// glyph lookup. A surrogate pair yields its glyph in the leading slot and
// zero in the trailing one.
func (d *Device) GlyphsForCharacters(id surface.FontID, units []uint16) ([]surface.GlyphID, bool) {
	f, ok := d.fonts[id]
	if !ok {
		return make([]surface.GlyphID, len(units)), false
	}
	glyphs := make([]surface.GlyphID, len(units))
	allFound := true
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		pair := false
		if utf16.IsSurrogate(r) && i+1 < len(units) {
			r = utf16.DecodeRune(r, rune(units[i+1]))
			pair = true
		}
		gid, ok := f.face.meta.NominalGlyph(r)
		if ok && gid != 0 {
			glyphs[i] = surface.GlyphID(gid)
		} else {
			allFound = false
		}
		if pair {
			i++
		}
	}
	return glyphs, allFound
}

// AdvancesForGlyphs implements surface.Device. Advances come from the
// typesetting face in font units, scaled to the handle's pixel size.
func (d *Device) AdvancesForGlyphs(id surface.FontID, glyphs []surface.GlyphID) []float64 {
	advances := make([]float64, len(glyphs))
	f, ok := d.fonts[id]
	if !ok {
		return advances
	}
	scale := f.size / f.upem()
	for i, g := range glyphs {
		if g == 0 {
			continue
		}
		advances[i] = float64(f.face.meta.HorizontalAdvance(font.GID(g))) * scale
	}
	return advances
}

// Ascent reports the font's ascent in pixels at the handle's size, for
// callers that need to fill in baseline metrics.
func (d *Device) Ascent(id surface.FontID) float64 {
	f, ok := d.fonts[id]
	if !ok {
		return 0
	}
	var buf sfnt.Buffer
	m, err := f.face.out.Metrics(&buf, fixed.Int26_6(f.size*64), xfont.HintingFull)
	if err != nil {
		return 0
	}
	return float64(m.Ascent) / 64
}

func (f *devFont) upem() float64 {
	if f.face.upem == 0 {
		return 1000
	}
	return f.face.upem
}
