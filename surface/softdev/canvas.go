package softdev

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/termgrid/surface"
)

var _ surface.Canvas = (*Canvas)(nil)

// Canvas implements surface.Canvas over an image.RGBA. Surface coordinates
// are bottom-left origin with Y up; the image is top-left origin with Y
// down, so every draw flips the vertical axis.
type Canvas struct {
	dev    *Device
	img    *image.RGBA
	height int
}

// NewCanvas returns a canvas rendering into a fresh width×height image.
func (d *Device) NewCanvas(width, height int) *Canvas {
	return &Canvas{
		dev:    d,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		height: height,
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// FillRect implements surface.Canvas.
func (c *Canvas) FillRect(rect surface.Rect, r, g, b uint8, alpha float64) {
	x0 := int(math.Round(rect.X))
	x1 := int(math.Round(rect.X + rect.W))
	y0 := c.height - int(math.Round(rect.Y+rect.H))
	y1 := c.height - int(math.Round(rect.Y))
	src := image.NewUniform(color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))})
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1), src, image.Point{}, draw.Over)
}

// DrawGlyphRun implements surface.Canvas. Each glyph outline is loaded from
// the font's sfnt tables and rasterized into an alpha mask with
// x/image/vector, then composited in the run's color. Synthetic bold is
// approximated by stamping the mask a second time one pixel to the right,
// standing in for the stroke-and-fill emboldening of native backends.
func (c *Canvas) DrawGlyphRun(fontID surface.FontID, glyphs []surface.GlyphID, positions []surface.Point, colorID surface.ColorID, syntheticBold bool) {
	f, ok := c.dev.fonts[fontID]
	if !ok || len(glyphs) != len(positions) {
		return
	}
	col, ok := c.dev.colors[colorID]
	if !ok {
		return
	}
	src := image.NewUniform(color.NRGBA{
		R: col.r, G: col.g, B: col.b,
		A: uint8(math.Round(col.alpha * 255)),
	})

	var buf sfnt.Buffer
	ppem := fixed.Int26_6(math.Round(f.size * 64))
	for i, g := range glyphs {
		if g == 0 {
			continue
		}
		segs, err := f.face.out.LoadGlyph(&buf, sfnt.GlyphIndex(g), ppem, nil)
		if err != nil || len(segs) == 0 {
			continue
		}
		mask, off := rasterizeSegments(segs)
		if mask == nil {
			continue
		}
		pos := positions[i]
		top := image.Point{
			X: int(math.Round(pos.X)) + off.X,
			Y: c.height - int(math.Round(pos.Y)) + off.Y,
		}
		c.stampMask(mask, top, src)
		if syntheticBold {
			c.stampMask(mask, top.Add(image.Point{X: 1}), src)
		}
	}
}

func (c *Canvas) stampMask(mask *image.Alpha, top image.Point, src image.Image) {
	r := image.Rectangle{Min: top, Max: top.Add(mask.Bounds().Size())}
	draw.DrawMask(c.img, r, src, image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// rasterizeSegments renders outline segments (pixel units, Y down, origin on
// the baseline) into an alpha mask. The returned offset places the mask's
// top-left corner relative to the glyph origin.
func rasterizeSegments(segs sfnt.Segments) (*image.Alpha, image.Point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	visit := func(p fixed.Point26_6) {
		x := float64(p.X) / 64
		y := float64(p.Y) / 64
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, s := range segs {
		for _, p := range s.Args[:segmentPoints(s.Op)] {
			visit(p)
		}
	}
	if minX > maxX {
		return nil, image.Point{}
	}

	x0 := int(math.Floor(minX))
	y0 := int(math.Floor(minY))
	w := int(math.Ceil(maxX)) - x0
	h := int(math.Ceil(maxY)) - y0
	if w <= 0 || h <= 0 {
		return nil, image.Point{}
	}

	ras := vector.NewRasterizer(w, h)
	tx := func(p fixed.Point26_6) (float32, float32) {
		return float32(float64(p.X)/64 - float64(x0)), float32(float64(p.Y)/64 - float64(y0))
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := tx(s.Args[0])
			ras.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := tx(s.Args[0])
			ras.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			bx, by := tx(s.Args[0])
			cx, cy := tx(s.Args[1])
			ras.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := tx(s.Args[0])
			cx, cy := tx(s.Args[1])
			dx, dy := tx(s.Args[2])
			ras.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	ras.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, image.Point{X: x0, Y: y0}
}

func segmentPoints(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
