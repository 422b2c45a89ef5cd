package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"

	"golang.org/x/image/draw"
)

// GIFEncoder writes looping animated GIFs. Frames are quantised onto
// Palette, with Floyd-Steinberg error diffusion unless NoDither is set.
type GIFEncoder struct {
	Palette  color.Palette // Defaults to palette.Plan9
	NoDither bool
}

func (e *GIFEncoder) Open(ctx context.Context, path string, p Params) (Stream, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	pal := e.Palette
	if len(pal) == 0 {
		pal = palette.Plan9
	}
	var drawer draw.Drawer = draw.FloydSteinberg
	if e.NoDither {
		drawer = draw.Src
	}
	return &gifStream{
		ctx:    ctx,
		file:   f,
		params: p,
		pal:    pal,
		drawer: drawer,
		// GIF delays are in hundredths of a second.
		delay: max(1, 100/p.FPS),
	}, nil
}

// gifStream buffers paletted frames; image/gif can only encode a complete
// animation.
type gifStream struct {
	ctx    context.Context
	file   *os.File
	params Params
	pal    color.Palette
	drawer draw.Drawer
	delay  int
	anim   gif.GIF
	closed bool
}

func (s *gifStream) WriteFrame(img image.Image) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if err := checkFrame(img, s.params); err != nil {
		return err
	}
	bounds := img.Bounds()
	frame := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), s.pal)
	s.drawer.Draw(frame, frame.Bounds(), img, bounds.Min)

	s.anim.Image = append(s.anim.Image, frame)
	s.anim.Delay = append(s.anim.Delay, s.delay)
	return nil
}

func (s *gifStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if len(s.anim.Image) == 0 {
		s.file.Close()
		return fmt.Errorf("gif %s: no frames written", s.file.Name())
	}
	if err := gif.EncodeAll(s.file, &s.anim); err != nil {
		s.file.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	return s.file.Close()
}
