package source

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/demoreel/internal/demo"
)

// A4 page size in points.
const (
	a4Width  = 595.0
	a4Height = 842.0
)

var (
	paper  = color.RGBA{0xfb, 0xfa, 0xf7, 0xff}
	header = color.RGBA{0xe4, 0xe7, 0xee, 0xff}
	ink    = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	line   = color.RGBA{0xc8, 0xcd, 0xd6, 0xff}
	forged = color.RGBA{0x6b, 0x72, 0x80, 0xff}
)

// StampSource generates a placeholder page for every scene of a catalog:
// a titled form with ruled lines, a QR code identifying the page and, for
// flagged scenes, a dense block where the suspicious field sits.
type StampSource struct {
	catalog *demo.Catalog
}

func NewStampSource(catalog *demo.Catalog) *StampSource {
	if catalog == nil {
		catalog = demo.DefaultCatalog()
	}
	return &StampSource{catalog: catalog}
}

func (s *StampSource) PageCount() int {
	return s.catalog.Len()
}

func (s *StampSource) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, s.PageCount()); err != nil {
		return 0, 0, err
	}
	return a4Width, a4Height, nil
}

func (s *StampSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := checkIndex(index, s.PageCount()); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}
	scene := s.catalog.At(index)

	w := int(math.Round(a4Width * float64(dpi) / 72))
	h := int(math.Round(a4Height * float64(dpi) / 72))
	page := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(page, page.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	pct := func(x, y float64) image.Point {
		return image.Pt(int(x*float64(w)/100), int(y*float64(h)/100))
	}
	fillRect := func(min, max image.Point, c color.Color) {
		draw.Draw(page, image.Rectangle{Min: min, Max: max}, image.NewUniform(c), image.Point{}, draw.Src)
	}

	fillRect(pct(0, 0), pct(100, 9), header)
	title := font.Drawer{
		Dst:  page,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pct(6, 0).X, pct(0, 5).Y),
	}
	title.DrawString(scene.Name)

	// Ruled body lines of varying length.
	for i := 0; i < 18; i++ {
		y := 18 + float64(i)*3.8
		end := 94 - float64((i*37)%30)
		fillRect(pct(6, y), pct(end, y+0.6), line)
	}

	if scene.Verdict.Flagged() && !scene.Zone.IsZero() {
		z := scene.Zone
		fillRect(pct(z.X, z.Y), pct(z.X+z.W, z.Y+z.H), forged)
	}

	q, err := qrcode.New(fmt.Sprintf("demoreel:%d:%s", index, scene.Name), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code for page %d: %w", index, err)
	}
	size := w / 6
	code := q.Image(size)
	at := pct(6, 96).Sub(image.Pt(0, size))
	draw.Draw(page, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, code, code.Bounds().Min, draw.Src)

	return page, nil
}

func (s *StampSource) Close() error {
	return nil
}
