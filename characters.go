package termgrid

import (
	"math"

	"github.com/gogpu/termgrid/surface"
)

// pendingUnit is one drawable character after the row has been scanned for
// wide cells and variation selectors: its UTF-16 units, the columns it
// spans, and the cell state that keys run membership.
type pendingUnit struct {
	col   int
	span  int
	units []uint16
	attrs Attr
	pair  int
}

// unitGroup locates one character inside a run's unit slice, with the cell
// width its glyph is centered in.
type unitGroup struct {
	start int
	width float64
}

// charRun is an open glyph run: consecutive characters on one row that share
// attributes, foreground, underline, and resolved font.
type charRun struct {
	row       int
	attrs     Attr
	fg        uint32
	underline bool
	fontIndex int

	startX float64
	nextX  float64
	units  []uint16
	groups []unitGroup
}

// charPass walks the dirty region and batches characters into glyph runs.
type charPass struct {
	rc     *RenderContext
	canvas surface.Canvas
	f      *Frame

	run  charRun
	open bool

	runs  int
	chars int
}

// renderCharacters draws the dirty region's text as batched glyph runs. It
// returns the number of runs and characters drawn.
func (rc *RenderContext) renderCharacters(canvas surface.Canvas, cells [][]parsedCell, pairs map[int]colorPair, f *Frame, region CellRect) (runs, chars int, err error) {
	p := &charPass{rc: rc, canvas: canvas, f: f}

	for row := region.StartRow; row < region.EndRow; row++ {
		units := collectRowUnits(cells[row], region.StartCol, region.EndCol)
		for i := range units {
			if err := p.addUnit(row, &units[i], pairs); err != nil {
				return p.runs, p.chars, err
			}
		}
		if err := p.flush(); err != nil {
			return p.runs, p.chars, err
		}
	}
	return p.runs, p.chars, nil
}

// collectRowUnits turns a row's cells into drawable units. Wide-cell
// placeholders vanish, and a lone variation selector merges into the unit
// to its left, widening it to two columns.
func collectRowUnits(row []parsedCell, startCol, endCol int) []pendingUnit {
	units := make([]pendingUnit, 0, endCol-startCol)
	for col := startCol; col < endCol; col++ {
		cell := &row[col]
		if cell.empty() {
			continue
		}
		if cell.isVariationSelector() {
			if n := len(units); n > 0 && units[n-1].col+units[n-1].span == col {
				prev := &units[n-1]
				prev.units = append(prev.units, cell.units[0])
				prev.span = 2
			}
			continue
		}
		span := 1
		if cell.wide {
			span = 2
		}
		units = append(units, pendingUnit{
			col:   col,
			span:  span,
			units: cell.units,
			attrs: cell.attrs,
			pair:  cell.pair,
		})
	}
	return units
}

// addUnit feeds one character into the current run, flushing when the run
// key changes or adjacency breaks.
func (p *charPass) addUnit(row int, u *pendingUnit, pairs map[int]colorPair) error {
	// A bare space draws nothing; it only stays in a run when it carries
	// an underline.
	if u.attrs&AttrUnderline == 0 && len(u.units) == 1 && u.units[0] == ' ' {
		return p.flush()
	}
	pair, ok := pairs[u.pair]
	if !ok {
		return p.flush()
	}
	fg := pair.fg
	if u.attrs&AttrReverse != 0 {
		fg = pair.bg
	}

	idx := p.rc.cascade.resolve(u.units)
	if idx == fontIndexUnresolved {
		Logger().Warn("termgrid: no font for character",
			"char", formatCodePoint(unitsRune(u.units)))
		return p.flush()
	}

	x, _ := cellOrigin(p.f, row, u.col)
	width := float64(u.span) * p.f.CellWidth
	underline := u.attrs&AttrUnderline != 0

	extends := p.open &&
		p.run.row == row &&
		p.run.attrs == u.attrs &&
		p.run.fg == fg &&
		p.run.underline == underline &&
		p.run.fontIndex == idx &&
		math.Abs(x-p.run.nextX) < cellEpsilon
	if !extends {
		if err := p.flush(); err != nil {
			return err
		}
		p.run = charRun{
			row:       row,
			attrs:     u.attrs,
			fg:        fg,
			underline: underline,
			fontIndex: idx,
			startX:    x,
			nextX:     x,
		}
		p.open = true
	}

	p.run.groups = append(p.run.groups, unitGroup{start: len(p.run.units), width: width})
	p.run.units = append(p.run.units, u.units...)
	p.run.nextX += width
	return nil
}

// flush draws the open run, if any, as one glyph run plus an optional
// underline rectangle.
func (p *charPass) flush() error {
	if !p.open {
		return nil
	}
	run := &p.run
	p.open = false

	set, err := p.rc.attrs.Get(run.attrs, unpackRGB(run.fg), run.underline)
	if err != nil {
		return err
	}
	font, syntheticBold, err := p.rc.cascade.fontFor(run.fontIndex, run.attrs)
	if err != nil {
		return err
	}

	glyphs, _ := p.rc.dev.GlyphsForCharacters(font, run.units)
	advances := p.rc.dev.AdvancesForGlyphs(font, glyphs)

	base := baselineY(p.f, run.row)
	drawGlyphs := make([]surface.GlyphID, 0, len(glyphs))
	positions := make([]surface.Point, 0, len(glyphs))
	penX := run.startX
	for gi, g := range run.groups {
		end := len(run.units)
		if gi+1 < len(run.groups) {
			end = run.groups[gi+1].start
		}
		gx := penX + (g.width-advances[g.start])/2
		for i := g.start; i < end; i++ {
			if glyphs[i] == 0 {
				continue
			}
			drawGlyphs = append(drawGlyphs, glyphs[i])
			positions = append(positions, surface.Point{X: gx, Y: base})
		}
		penX += g.width
	}

	if len(drawGlyphs) > 0 {
		p.canvas.DrawGlyphRun(font, drawGlyphs, positions, set.Color, syntheticBold)
	}

	if run.underline {
		fg := unpackRGB(run.fg)
		bottom := p.f.OffsetY + gridToSurfaceY(run.row, p.f.Rows, p.f.CellHeight)
		p.canvas.FillRect(surface.Rect{
			X: run.startX,
			Y: (base + bottom) / 2,
			W: run.nextX - run.startX,
			H: 1,
		}, fg.R, fg.G, fg.B, 1.0)
	}

	p.runs++
	p.chars += len(run.groups)
	return nil
}
