// Command termgrid-demo renders a syntax-highlighted Go snippet through the
// termgrid pipeline into a PNG, using the software device.
package main

import (
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"

	"github.com/gogpu/termgrid"
	"github.com/gogpu/termgrid/surface/softdev"
)

const snippet = `package main

import "fmt"

// greet prints a greeting for every name.
func greet(names []string) {
	for _, name := range names {
		fmt.Printf("hello, %s\n", name)
	}
}

func main() {
	greet([]string{"世界", "gopher"})
}
`

func main() {
	var (
		rows     = flag.Int("rows", 24, "grid rows")
		cols     = flag.Int("cols", 60, "grid columns")
		fontSize = flag.Float64("size", 14, "font size in points")
		output   = flag.String("output", "termgrid.png", "output file")
	)
	flag.Parse()

	termgrid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	device := softdev.NewDevice()
	if err := device.RegisterFont("Go Mono", gomono.TTF); err != nil {
		log.Fatalf("register font: %v", err)
	}
	if err := device.RegisterBoldVariant("Go Mono", gomonobold.TTF); err != nil {
		log.Fatalf("register bold: %v", err)
	}

	ctx, err := termgrid.New(device)
	if err != nil {
		log.Fatalf("create context: %v", err)
	}
	defer func() { _ = ctx.Close() }()

	grid, pairs := highlight(snippet, *rows, *cols)

	cellW := *fontSize * 0.62
	cellH := *fontSize * 1.4
	pad := 8.0
	width := int(float64(*cols)*cellW + 2*pad)
	height := int(float64(*rows)*cellH + 2*pad)
	canvas := device.NewCanvas(width, height)

	frame := &termgrid.Frame{
		Grid:       grid,
		ColorPairs: pairs,
		DirtyRect:  termgrid.Rect{X: 0, Y: 0, W: float64(width), H: float64(height)},
		Rows:       *rows,
		Cols:       *cols,
		CellWidth:  cellW,
		CellHeight: cellH,
		OffsetX:    pad,
		OffsetY:    pad,
		Ascent:     fontAscent(device, *fontSize),
		FontNames:  []string{"Go Mono"},
		FontSize:   *fontSize,
		Cursor:     &termgrid.Cursor{Row: 13, Col: 1, Visible: true},
	}
	if err := ctx.RenderFrame(canvas, frame); err != nil {
		log.Fatalf("render: %v", err)
	}

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer func() { _ = out.Close() }()
	if err := png.Encode(out, canvas.Image()); err != nil {
		log.Fatalf("encode: %v", err)
	}

	m := ctx.Metrics()
	log.Printf("rendered %s (%dx%d): %d batches, %d characters in %s",
		*output, width, height, m.TotalBatches, m.TotalCharacters, m.TotalRenderTime)
}

// fontAscent measures the primary font's ascent with a throwaway handle.
func fontAscent(device *softdev.Device, size float64) float64 {
	id, err := device.CreateFont("Go Mono", size)
	if err != nil {
		return size * 0.8
	}
	defer device.ReleaseFont(id)
	return device.Ascent(id)
}

// highlight lexes src as Go and lays it into a grid, one color pair per
// distinct token color.
func highlight(src string, rows, cols int) (termgrid.Grid, map[int]termgrid.ColorPair) {
	style := styles.Get("monokai")
	bg := style.Get(chroma.Background).Background
	bgRGB := termgrid.RGB{R: bg.Red(), G: bg.Green(), B: bg.Blue()}

	pairs := map[int]termgrid.ColorPair{
		0: {FG: termgrid.RGB{R: 248, G: 248, B: 242}, BG: bgRGB},
	}
	pairIDs := map[termgrid.RGB]int{pairs[0].FG: 0}

	builder := termgrid.NewGridBuilder(rows, cols)
	iterator, err := lexers.Get("go").Tokenise(nil, src)
	if err != nil {
		builder.WriteString(src, 0, 0)
		return builder.Grid(), pairs
	}
	for _, token := range iterator.Tokens() {
		entry := style.Get(token.Type)
		fg := termgrid.RGB{R: entry.Colour.Red(), G: entry.Colour.Green(), B: entry.Colour.Blue()}
		id, ok := pairIDs[fg]
		if !ok {
			id = len(pairs)
			pairs[id] = termgrid.ColorPair{FG: fg, BG: bgRGB}
			pairIDs[fg] = id
		}
		var attrs termgrid.Attr
		if entry.Bold == chroma.Yes {
			attrs |= termgrid.AttrBold
		}
		if entry.Underline == chroma.Yes {
			attrs |= termgrid.AttrUnderline
		}
		builder.WriteString(token.Value, id, attrs)
	}
	return builder.Grid(), pairs
}
