package demo

import (
	"time"

	"github.com/ivlev/demoreel/internal/choreo"
	"github.com/ivlev/demoreel/internal/gate"
)

// Slider is the before/after comparison widget. It shows the scripted
// sweep until the user grabs it, then follows the pointer.
type Slider struct {
	gate     *gate.Gate
	position float64
	dragging bool
}

// NewSlider returns a slider driven by c until user input arrives. The
// starting position is the script's end-of-loop slider value.
func NewSlider(c *choreo.Choreographer, opts ...gate.Option) *Slider {
	return &Slider{
		gate:     gate.New(c, opts...),
		position: c.Snapshot().Value(SliderPosition),
	}
}

// Start starts the scripted sweep.
func (s *Slider) Start() error {
	return s.gate.Start()
}

// Tick advances the sweep and returns the slider position. Once the user
// has engaged, the position only changes through Pointer.
func (s *Slider) Tick(delta time.Duration) float64 {
	if f, ok := s.gate.Tick(delta); ok {
		s.position = f.Value(SliderPosition)
	}
	return s.position
}

// Pointer handles a raw input event in widget percent coordinates.
func (s *Slider) Pointer(in gate.Input) {
	if !s.gate.Observe(in) {
		return
	}
	switch in.Kind {
	case gate.PointerDown, gate.TouchStart, gate.TouchMove:
		s.dragging = true
	case gate.PointerUp, gate.TouchEnd:
		s.dragging = false
		return
	case gate.PointerMove:
		s.dragging = in.Buttons != 0
	}
	if s.dragging {
		s.position = clampPercent(in.X)
	}
}

// Position returns the current slider position.
func (s *Slider) Position() float64 { return s.position }

// Engaged reports whether the user has taken over the slider.
func (s *Slider) Engaged() bool { return s.gate.IsUserEngaged() }
