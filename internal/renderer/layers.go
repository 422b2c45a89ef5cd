package renderer

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/demoreel/internal/choreo"
	"github.com/ivlev/demoreel/internal/demo"
)

var (
	slate  = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
	white  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	accent = color.NRGBA{0x38, 0xbd, 0xf8, 0xff}
)

// Backdrop paints the canvas background and the page for the frame's
// scene, rotating through pages loop by loop.
type Backdrop struct {
	area  image.Rectangle
	pages []*image.RGBA
}

// NewBackdrop scales every page into area once, with Catmull-Rom
// resampling, so that drawing a frame is a plain copy.
func NewBackdrop(pages []image.Image, area image.Rectangle) (*Backdrop, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("backdrop needs at least one page")
	}
	b := &Backdrop{area: area}
	for _, p := range pages {
		scaled := image.NewRGBA(area)
		draw.CatmullRom.Scale(scaled, area, p, p.Bounds(), draw.Src, nil)
		b.pages = append(b.pages, scaled)
	}
	return b, nil
}

// Page returns the page shown during loop scene.
func (b *Backdrop) Page(scene int) *image.RGBA {
	i := scene % len(b.pages)
	if i < 0 {
		i += len(b.pages)
	}
	return b.pages[i]
}

func (b *Backdrop) Draw(dst *image.RGBA, f choreo.Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(slate), image.Point{}, draw.Src)
	draw.Draw(dst, b.area, b.Page(f.Scene), b.area.Min, draw.Src)
	// Drop shadow along the bottom and right edges.
	fill(dst, image.Rect(b.area.Min.X+6, b.area.Max.Y, b.area.Max.X+6, b.area.Max.Y+6), color.NRGBA{0, 0, 0, 0x60})
	fill(dst, image.Rect(b.area.Max.X, b.area.Min.Y+6, b.area.Max.X+6, b.area.Max.Y), color.NRGBA{0, 0, 0, 0x60})
}

// Comparison splits the page at the slider position: the original on the
// left, the analysed view tinted by verdict on the right.
type Comparison struct {
	area    image.Rectangle
	catalog *demo.Catalog
}

func NewComparison(area image.Rectangle, catalog *demo.Catalog) *Comparison {
	return &Comparison{area: area, catalog: catalog}
}

func (c *Comparison) Draw(dst *image.RGBA, f choreo.Frame) {
	pos, ok := f.Values[demo.SliderPosition]
	if !ok {
		return
	}
	scene := c.catalog.At(f.Scene)
	x := pointAt(demo.Point{X: pos}, c.area).X

	after := image.Rect(x, c.area.Min.Y, c.area.Max.X, c.area.Max.Y)
	fill(dst, after, verdictColor(scene.Verdict, 0x38))
	if scene.Verdict.Flagged() && !scene.Zone.IsZero() {
		stroke(dst, zoneRect(scene.Zone, c.area).Intersect(after), 3, verdictColor(scene.Verdict, 0xff))
	}

	fill(dst, image.Rect(x-1, c.area.Min.Y, x+2, c.area.Max.Y), white)
	mid := (c.area.Min.Y + c.area.Max.Y) / 2
	knob := image.Rect(x-12, mid-20, x+12, mid+20)
	fill(dst, knob, white)
	stroke(dst, knob, 2, slate)
	fill(dst, image.Rect(x-5, mid-8, x-3, mid+8), slate)
	fill(dst, image.Rect(x+3, mid-8, x+5, mid+8), slate)
}

// ScanLine sweeps a glowing line down the page while scanning.
type ScanLine struct {
	area image.Rectangle
}

func NewScanLine(area image.Rectangle) *ScanLine {
	return &ScanLine{area: area}
}

func (s *ScanLine) Draw(dst *image.RGBA, f choreo.Frame) {
	if f.State != demo.Scanning {
		return
	}
	y := pointAt(demo.Point{Y: f.Value(demo.ScanLine)}, s.area).Y

	// Trail fading out above the line.
	const bands = 8
	trail := s.area.Dy() / 12
	for i := 0; i < bands; i++ {
		top := y - trail*(i+1)/bands
		bottom := y - trail*i/bands
		a := uint8(0x50 * (bands - i) / bands)
		fill(dst, image.Rect(s.area.Min.X, top, s.area.Max.X, bottom).Intersect(s.area), color.NRGBA{accent.R, accent.G, accent.B, a})
	}
	fill(dst, image.Rect(s.area.Min.X, y-1, s.area.Max.X, y+2).Intersect(s.area), accent)
}

// Highlight outlines the suspicious zone once the verdict is revealed.
// Scenes without a zone of their own use the fallback for their page, if
// one is given.
type Highlight struct {
	area     image.Rectangle
	catalog  *demo.Catalog
	fallback []demo.Zone
}

func NewHighlight(area image.Rectangle, catalog *demo.Catalog, fallback []demo.Zone) *Highlight {
	return &Highlight{area: area, catalog: catalog, fallback: fallback}
}

// Zone returns the zone highlighted for scene, if any.
func (h *Highlight) Zone(scene int) (demo.Zone, bool) {
	s := h.catalog.At(scene)
	if !s.Verdict.Flagged() {
		return demo.Zone{}, false
	}
	if !s.Zone.IsZero() {
		return s.Zone, true
	}
	if len(h.fallback) > 0 {
		z := h.fallback[scene%len(h.fallback)]
		return z, !z.IsZero()
	}
	return demo.Zone{}, false
}

func (h *Highlight) Draw(dst *image.RGBA, f choreo.Frame) {
	if f.State != demo.Revealed {
		return
	}
	if _, ok := f.Values[demo.SliderPosition]; ok {
		// The comparison view draws its own outline.
		return
	}
	z, ok := h.Zone(f.Scene)
	if !ok {
		return
	}
	v := h.catalog.At(f.Scene).Verdict
	r := zoneRect(z, h.area).Inset(-4)
	fill(dst, r, verdictColor(v, 0x30))
	stroke(dst, r, 3, verdictColor(v, 0xff))
}

// Cursor draws the simulated pointer, carrying a document while dragging.
type Cursor struct {
	area image.Rectangle
	size int
}

func NewCursor(area image.Rectangle) *Cursor {
	return &Cursor{area: area, size: max(12, area.Dy()/30)}
}

func (c *Cursor) Draw(dst *image.RGBA, f choreo.Frame) {
	x, okX := f.Values[demo.CursorX]
	y, okY := f.Values[demo.CursorY]
	if !okX || !okY {
		return
	}
	tip := pointAt(demo.Point{X: x, Y: y}, c.area)

	if f.State == demo.Dragging {
		doc := image.Rect(tip.X+c.size/2, tip.Y+c.size/2, tip.X+c.size*2, tip.Y+c.size*5/2)
		fill(dst, doc.Add(image.Pt(3, 3)), color.NRGBA{0, 0, 0, 0x50})
		fill(dst, doc, white)
		stroke(dst, doc, 1, slate)
		for i := 1; i <= 3; i++ {
			ly := doc.Min.Y + doc.Dy()*i/5
			fill(dst, image.Rect(doc.Min.X+4, ly, doc.Max.X-4, ly+2), color.NRGBA{0x94, 0xa3, 0xb8, 0xff})
		}
	}

	arrow(dst, tip, c.size+2, white)
	arrow(dst, tip.Add(image.Pt(1, 2)), c.size-1, black)
}

// arrow fills a pointer shaped triangle with its tip at pt.
func arrow(dst *image.RGBA, pt image.Point, size int, c color.Color) {
	for dy := 0; dy < size; dy++ {
		w := dy * 2 / 3
		if dy > size*3/4 {
			w = (size - dy) * 2
		}
		fill(dst, image.Rect(pt.X, pt.Y+dy, pt.X+w+1, pt.Y+dy+1), c)
	}
}

// Label captions the canvas with the scene name and, once revealed, the
// verdict and confidence.
type Label struct {
	bounds  image.Rectangle
	catalog *demo.Catalog
	scale   int
}

func NewLabel(bounds image.Rectangle, catalog *demo.Catalog) *Label {
	return &Label{bounds: bounds, catalog: catalog, scale: max(1, bounds.Dy()/360)}
}

func (l *Label) Draw(dst *image.RGBA, f choreo.Frame) {
	scene := l.catalog.At(f.Scene)
	pad := 6 * l.scale

	name := textSize(scene.Name, l.scale)
	box := image.Rectangle{Min: l.bounds.Min.Add(image.Pt(pad, pad)), Max: l.bounds.Min.Add(image.Pt(pad*3, pad*3)).Add(name)}
	fill(dst, box, color.NRGBA{0x0f, 0x17, 0x2a, 0xc0})
	text(dst, box.Min.Add(image.Pt(pad, pad)), scene.Name, white, l.scale)

	if f.State != demo.Revealed {
		return
	}
	verdict := fmt.Sprintf("%s  %.1f%%", scene.Alert, scene.Confidence)
	size := textSize(verdict, l.scale)
	at := image.Pt(l.bounds.Max.X-size.X-pad*3, l.bounds.Max.Y-size.Y-pad*3)
	badge := image.Rectangle{Min: at, Max: at.Add(size).Add(image.Pt(pad*2, pad*2))}
	fill(dst, badge, verdictColor(scene.Verdict, 0xe6))
	text(dst, at.Add(image.Pt(pad, pad)), verdict, white, l.scale)
}

// Standard returns the layer stack used for exports, bottom first.
func Standard(bounds, area image.Rectangle, pages []image.Image, catalog *demo.Catalog, fallback []demo.Zone) ([]Layer, error) {
	backdrop, err := NewBackdrop(pages, area)
	if err != nil {
		return nil, err
	}
	return []Layer{
		backdrop,
		NewComparison(area, catalog),
		NewHighlight(area, catalog, fallback),
		NewScanLine(area),
		NewCursor(area),
		NewLabel(bounds, catalog),
	}, nil
}
