package surface

import (
	"fmt"
	"unicode/utf16"
)

// Compile-time interface checks.
var (
	_ Device = (*Recorder)(nil)
	_ Canvas = (*Recorder)(nil)
)

// RecorderFont configures one simulated font on a Recorder.
type RecorderFont struct {
	// Coverage lists the runes the font can render. A nil map means the
	// font covers everything.
	Coverage map[rune]bool

	// Advance is the horizontal advance reported for every glyph. Zero
	// means the default of 8.
	Advance float64

	// HasBold enables CreateFontVariant with TraitBold.
	HasBold bool
}

// FillCall is one recorded Canvas.FillRect invocation.
type FillCall struct {
	Rect    Rect
	R, G, B uint8
	Alpha   float64
}

// GlyphRunCall is one recorded Canvas.DrawGlyphRun invocation.
type GlyphRunCall struct {
	Font          FontID
	Glyphs        []GlyphID
	Positions     []Point
	Color         ColorID
	SyntheticBold bool
}

// Recorder implements Device and Canvas in memory, recording every draw call
// and tracking resource lifetimes. It exists for tests.
type Recorder struct {
	// Fonts configures the simulated fonts by name. When nil, every
	// requested font exists, covers all runes, and has a bold variant.
	Fonts map[string]*RecorderFont

	// FailColors makes CreateColor fail, for exercising fatal resource
	// errors.
	FailColors bool

	// Fills and GlyphRuns accumulate the recorded draw calls in order.
	Fills     []FillCall
	GlyphRuns []GlyphRunCall

	nextID uint64
	colors map[ColorID]recColor
	fonts  map[FontID]*recFont

	colorsReleased int
	fontsReleased  int
}

type recColor struct {
	r, g, b uint8
	alpha   float64
}

type recFont struct {
	name    string
	size    float64
	traits  FontTrait
	spec    *RecorderFont
	cascade []FontID
}

var defaultRecorderFont = RecorderFont{Advance: 8, HasBold: true}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		colors: make(map[ColorID]recColor),
		fonts:  make(map[FontID]*recFont),
	}
}

// ResetCalls clears the recorded draw calls, keeping resources alive.
func (rec *Recorder) ResetCalls() {
	rec.Fills = nil
	rec.GlyphRuns = nil
}

// LiveColors reports the number of unreleased color handles.
func (rec *Recorder) LiveColors() int { return len(rec.colors) }

// LiveFonts reports the number of unreleased font handles, cascade entries
// included.
func (rec *Recorder) LiveFonts() int { return len(rec.fonts) }

// ColorsReleased reports the cumulative count of ReleaseColor calls.
func (rec *Recorder) ColorsReleased() int { return rec.colorsReleased }

// FontName reports the name behind a font handle, for assertions.
func (rec *Recorder) FontName(id FontID) string {
	if f, ok := rec.fonts[id]; ok {
		return f.name
	}
	return ""
}

// ColorRGB reports the components behind a color handle.
func (rec *Recorder) ColorRGB(id ColorID) (r, g, b uint8, alpha float64) {
	c := rec.colors[id]
	return c.r, c.g, c.b, c.alpha
}

func (rec *Recorder) allocID() uint64 {
	rec.nextID++
	return rec.nextID
}

func (rec *Recorder) spec(name string) (*RecorderFont, bool) {
	if rec.Fonts == nil {
		return &defaultRecorderFont, true
	}
	s, ok := rec.Fonts[name]
	return s, ok
}

// CreateColor implements Device.
func (rec *Recorder) CreateColor(r, g, b uint8, alpha float64) (ColorID, error) {
	if rec.FailColors {
		return 0, fmt.Errorf("recorder: color creation disabled")
	}
	id := ColorID(rec.allocID())
	rec.colors[id] = recColor{r: r, g: g, b: b, alpha: alpha}
	return id, nil
}

// ReleaseColor implements Device.
func (rec *Recorder) ReleaseColor(id ColorID) {
	if id == 0 {
		return
	}
	if _, ok := rec.colors[id]; ok {
		delete(rec.colors, id)
		rec.colorsReleased++
	}
}

// CreateFont implements Device. Fallback names that the recorder does not
// know are skipped rather than failing the primary font.
func (rec *Recorder) CreateFont(name string, size float64, fallbacks ...string) (FontID, error) {
	spec, ok := rec.spec(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFontNotFound, name)
	}
	f := &recFont{name: name, size: size, spec: spec}
	for _, fb := range fallbacks {
		fbSpec, ok := rec.spec(fb)
		if !ok {
			continue
		}
		fbID := FontID(rec.allocID())
		rec.fonts[fbID] = &recFont{name: fb, size: size, spec: fbSpec}
		f.cascade = append(f.cascade, fbID)
	}
	id := FontID(rec.allocID())
	rec.fonts[id] = f
	return id, nil
}

// CreateFontVariant implements Device.
func (rec *Recorder) CreateFontVariant(base FontID, traits FontTrait) (FontID, error) {
	f, ok := rec.fonts[base]
	if !ok {
		return 0, fmt.Errorf("recorder: unknown font %d", base)
	}
	if traits&TraitBold != 0 && !f.spec.HasBold {
		return 0, fmt.Errorf("%w: %q bold", ErrVariantUnavailable, f.name)
	}
	id := FontID(rec.allocID())
	rec.fonts[id] = &recFont{name: f.name, size: f.size, traits: f.traits | traits, spec: f.spec}
	return id, nil
}

// ReleaseFont implements Device. Releasing a font releases its cascade
// entries with it.
func (rec *Recorder) ReleaseFont(id FontID) {
	if id == 0 {
		return
	}
	f, ok := rec.fonts[id]
	if !ok {
		return
	}
	for _, c := range f.cascade {
		if _, ok := rec.fonts[c]; ok {
			delete(rec.fonts, c)
			rec.fontsReleased++
		}
	}
	delete(rec.fonts, id)
	rec.fontsReleased++
}

// Traits implements Device.
func (rec *Recorder) Traits(id FontID) FontTrait {
	if f, ok := rec.fonts[id]; ok {
		return f.traits
	}
	return 0
}

// CascadeList implements Device.
func (rec *Recorder) CascadeList(id FontID) []FontID {
	if f, ok := rec.fonts[id]; ok {
		return f.cascade
	}
	return nil
}

// GlyphsForCharacters implements Device. The glyph for a rune is derived
// from its code point so tests can predict it.
func (rec *Recorder) GlyphsForCharacters(font FontID, units []uint16) ([]GlyphID, bool) {
	f, ok := rec.fonts[font]
	if !ok {
		return make([]GlyphID, len(units)), false
	}
	glyphs := make([]GlyphID, len(units))
	allFound := true
	for i := 0; i < len(units); i++ {
		u := units[i]
		r := rune(u)
		wide := false
		if utf16.IsSurrogate(r) && i+1 < len(units) {
			r = utf16.DecodeRune(r, rune(units[i+1]))
			wide = true
		}
		if f.covers(r) {
			glyphs[i] = glyphFor(r)
		} else {
			allFound = false
		}
		if wide {
			i++ // trailing surrogate slot stays glyph 0
		}
	}
	return glyphs, allFound
}

// AdvancesForGlyphs implements Device.
func (rec *Recorder) AdvancesForGlyphs(font FontID, glyphs []GlyphID) []float64 {
	f, ok := rec.fonts[font]
	advances := make([]float64, len(glyphs))
	if !ok {
		return advances
	}
	adv := f.spec.Advance
	if adv == 0 {
		adv = defaultRecorderFont.Advance
	}
	for i, g := range glyphs {
		if g != 0 {
			advances[i] = adv
		}
	}
	return advances
}

// FillRect implements Canvas.
func (rec *Recorder) FillRect(rect Rect, r, g, b uint8, alpha float64) {
	rec.Fills = append(rec.Fills, FillCall{Rect: rect, R: r, G: g, B: b, Alpha: alpha})
}

// DrawGlyphRun implements Canvas.
func (rec *Recorder) DrawGlyphRun(font FontID, glyphs []GlyphID, positions []Point, color ColorID, syntheticBold bool) {
	rec.GlyphRuns = append(rec.GlyphRuns, GlyphRunCall{
		Font:          font,
		Glyphs:        append([]GlyphID(nil), glyphs...),
		Positions:     append([]Point(nil), positions...),
		Color:         color,
		SyntheticBold: syntheticBold,
	})
}

func (f *recFont) covers(r rune) bool {
	if f.spec.Coverage == nil {
		return true
	}
	return f.spec.Coverage[r]
}

// glyphFor maps a rune to a stable nonzero glyph id.
func glyphFor(r rune) GlyphID {
	if r <= 0xFFFF {
		return GlyphID(r)
	}
	return GlyphID(0x8000 | (r & 0x7FFF))
}
