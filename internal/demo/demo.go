// Package demo holds the vocabulary and content of the two landing page
// demos: the before/after comparison slider and the upload-and-scan
// walkthrough.
package demo

import (
	"math"

	"github.com/ivlev/demoreel/internal/script"
)

// Discrete states shared by both demos.
const (
	Idle     script.State = "idle"
	Dragging script.State = "dragging"
	Dropped  script.State = "dropped"
	Scanning script.State = "scanning"
	Revealed script.State = "revealed"
)

// States returns the closed state set of the demos, for script.WithStates.
func States() []script.State {
	return []script.State{Idle, Dragging, Dropped, Scanning, Revealed}
}

// Channels driven by the demos. All values are percent of the widget.
const (
	SliderPosition = "sliderPosition"
	CursorX        = "cursorX"
	CursorY        = "cursorY"
	ScanLine       = "scanLine"
)

// Point is a position in percent of a widget.
type Point struct {
	X, Y float64
}

// Zone is a rectangle in percent of a document: X and Y locate the top
// left corner, W and H give the size.
type Zone struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// IsZero reports whether z is the empty zone.
func (z Zone) IsZero() bool {
	return z.W <= 0 || z.H <= 0
}

// Center returns the center point of z.
func (z Zone) Center() Point {
	return Point{X: z.X + z.W/2, Y: z.Y + z.H/2}
}

// Contains reports whether the point x, y lies within z.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.X && x <= z.X+z.W && y >= z.Y && y <= z.Y+z.H
}

// Clamp returns z constrained to the unit percent square.
func (z Zone) Clamp() Zone {
	right, bottom := clampPercent(z.X+z.W), clampPercent(z.Y+z.H)
	z.X = clampPercent(z.X)
	z.Y = clampPercent(z.Y)
	z.W = math.Max(0, right-z.X)
	z.H = math.Max(0, bottom-z.Y)
	return z
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
