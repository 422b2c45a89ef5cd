// Package easing provides the timing curves used by scripted demo motion.
//
// Every curve maps progress in [0,1] to eased progress. Input outside the
// unit interval is clamped first, so a curve is defined for any float64.
// OutBack deliberately overshoots 1 near the end of its range; callers that
// need bounded output must clamp the interpolated value themselves.
package easing

import (
	"fmt"
	"sort"
)

// Func is an easing curve.
type Func func(t float64) float64

// clamp01 restricts t to [0,1]. NaN maps to 0.
func clamp01(t float64) float64 {
	if t > 0 {
		if t > 1 {
			return 1
		}
		return t
	}
	return 0
}

// Linear returns t unchanged.
func Linear(t float64) float64 {
	return clamp01(t)
}

// InQuad accelerates from zero velocity.
func InQuad(t float64) float64 {
	t = clamp01(t)
	return t * t
}

// OutQuad decelerates to zero velocity.
func OutQuad(t float64) float64 {
	t = clamp01(t)
	return 1 - (1-t)*(1-t)
}

// InOutQuad accelerates until halfway, then decelerates. It is the curve
// used for cursor travel in the upload walkthrough.
func InOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - pow(-2*t+2, 2)/2
}

// InOutCubic is a steeper variant of InOutQuad.
func InOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// OutBack overshoots the target by about 10% before settling on it.
func OutBack(t float64) float64 {
	const (
		c1 = 1.70158
		c3 = c1 + 1
	)
	t = clamp01(t)
	return 1 + c3*pow(t-1, 3) + c1*pow(t-1, 2)
}

// pow calculates x^n for small non-negative n.
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

var registry = map[string]Func{
	"linear":       Linear,
	"in-quad":      InQuad,
	"out-quad":     OutQuad,
	"in-out-quad":  InOutQuad,
	"in-out-cubic": InOutCubic,
	"out-back":     OutBack,
}

// Lookup returns the curve registered under name. The empty name
// selects Linear.
func Lookup(name string) (Func, error) {
	if name == "" {
		return Linear, nil
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}

// Names returns the registered curve names in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
