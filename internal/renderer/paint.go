package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/demoreel/internal/demo"
)

// fill paints r with c, blending when c is translucent.
func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// stroke outlines r with a border of width w drawn inside it.
func stroke(dst draw.Image, r image.Rectangle, w int, c color.Color) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w), c)
	fill(dst, image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w), c)
}

// zoneRect maps a percent zone onto area.
func zoneRect(z demo.Zone, area image.Rectangle) image.Rectangle {
	return image.Rectangle{
		Min: pointAt(demo.Point{X: z.X, Y: z.Y}, area),
		Max: pointAt(demo.Point{X: z.X + z.W, Y: z.Y + z.H}, area),
	}
}

// pointAt maps a percent point onto area.
func pointAt(p demo.Point, area image.Rectangle) image.Point {
	return image.Pt(
		area.Min.X+int(p.X*float64(area.Dx())/100),
		area.Min.Y+int(p.Y*float64(area.Dy())/100),
	)
}

// text draws s with its top left corner at pt, enlarged by scale. The
// bitmap face is drawn at its native size and scaled with nearest
// neighbour sampling to keep glyph edges crisp.
func text(dst draw.Image, pt image.Point, s string, c color.Color, scale int) image.Rectangle {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	if w == 0 {
		return image.Rectangle{Min: pt, Max: pt}
	}
	h := face.Metrics().Height.Ceil()

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	if scale < 1 {
		scale = 1
	}
	r := image.Rectangle{Min: pt, Max: pt.Add(image.Pt(w*scale, h*scale))}
	draw.NearestNeighbor.Scale(dst, r, glyphs, glyphs.Bounds(), draw.Over, nil)
	return r
}

// textSize returns the size of s drawn by text at scale.
func textSize(s string, scale int) image.Point {
	face := basicfont.Face7x13
	if scale < 1 {
		scale = 1
	}
	return image.Pt(font.MeasureString(face, s).Ceil()*scale, face.Metrics().Height.Ceil()*scale)
}

// verdictColor returns the accent used for a verdict, with alpha a.
func verdictColor(v demo.Verdict, a uint8) color.NRGBA {
	switch v {
	case demo.Fraud:
		return color.NRGBA{0xdc, 0x26, 0x26, a}
	case demo.Suspect:
		return color.NRGBA{0xf5, 0x9e, 0x0b, a}
	default:
		return color.NRGBA{0x16, 0xa3, 0x4a, a}
	}
}
