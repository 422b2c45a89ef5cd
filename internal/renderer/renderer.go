// Package renderer paints choreography frames onto RGBA canvases.
//
// A Renderer is a fixed stack of layers. Layers hold only read-only state
// prepared up front, so one Renderer may paint several frames at once from
// different goroutines, each into its own canvas.
package renderer

import (
	"fmt"
	"image"

	"github.com/ivlev/demoreel/internal/choreo"
)

// Layer paints one aspect of a frame.
type Layer interface {
	Draw(dst *image.RGBA, f choreo.Frame)
}

// LayerFunc adapts a function to Layer.
type LayerFunc func(dst *image.RGBA, f choreo.Frame)

func (fn LayerFunc) Draw(dst *image.RGBA, f choreo.Frame) { fn(dst, f) }

// Renderer paints frames through its layers, bottom first.
type Renderer struct {
	bounds image.Rectangle
	layers []Layer
}

// New returns a renderer for width x height canvases.
func New(width, height int, layers ...Layer) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	return &Renderer{
		bounds: image.Rect(0, 0, width, height),
		layers: layers,
	}, nil
}

// Bounds returns the canvas rectangle.
func (r *Renderer) Bounds() image.Rectangle { return r.bounds }

// Render paints f into dst, which must have the renderer's bounds. Every
// pixel is overwritten when the bottom layer is a Backdrop.
func (r *Renderer) Render(f choreo.Frame, dst *image.RGBA) error {
	if dst.Bounds() != r.bounds {
		return fmt.Errorf("canvas %v does not match renderer %v", dst.Bounds(), r.bounds)
	}
	for _, l := range r.layers {
		l.Draw(dst, f)
	}
	return nil
}

// Fit returns the largest rectangle with the aspect ratio of size that
// fits centred within bounds inset by margin on every side.
func Fit(bounds image.Rectangle, size image.Point, margin int) image.Rectangle {
	inner := bounds.Inset(margin)
	if size.X <= 0 || size.Y <= 0 || inner.Empty() {
		return inner
	}
	w, h := inner.Dx(), inner.Dy()
	if w*size.Y > h*size.X {
		w = h * size.X / size.Y
	} else {
		h = w * size.Y / size.X
	}
	at := inner.Min.Add(image.Pt((inner.Dx()-w)/2, (inner.Dy()-h)/2))
	return image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}
}
