// Package script holds the immutable scene scripts played by a
// choreographer: an ordered list of beats, each either a timed
// interpolation of a named channel, a timed dwell in a discrete state, or
// an instantaneous discrete state change.
package script

import (
	"math"
	"time"

	"github.com/ivlev/demoreel/internal/easing"
)

// State is a discrete demo state such as "idle" or "scanning". The set of
// valid states is defined by the caller; see WithStates.
type State string

// Kind identifies the variant of a Beat.
type Kind int

const (
	Interpolate Kind = iota + 1
	Dwell
	SetDiscrete
)

func (k Kind) String() string {
	switch k {
	case Interpolate:
		return "interpolate"
	case Dwell:
		return "dwell"
	case SetDiscrete:
		return "set"
	default:
		return "unknown"
	}
}

// Beat is one unit of a script. Which fields are meaningful depends on
// Kind: Channel, From, To, Duration, Easing and With for Interpolate;
// State and Duration for Dwell; State for SetDiscrete.
type Beat struct {
	Kind     Kind
	Channel  string
	From, To float64
	Duration time.Duration
	Easing   easing.Func
	State    State

	// With lists further channels interpolated in step with Channel,
	// sharing its duration and easing.
	With []Track
}

// clone returns b with its own copy of With.
func (b Beat) clone() Beat {
	if b.With != nil {
		b.With = append([]Track(nil), b.With...)
	}
	return b
}

// Track is a channel interpolated from one value to another.
type Track struct {
	Channel  string
	From, To float64
}

// Tween returns an Interpolate beat.
func Tween(channel string, from, to float64, d time.Duration, ease easing.Func) Beat {
	return Beat{Kind: Interpolate, Channel: channel, From: from, To: to, Duration: d, Easing: ease}
}

// Hold returns a Dwell beat.
func Hold(state State, d time.Duration) Beat {
	return Beat{Kind: Dwell, State: state, Duration: d}
}

// Set returns a SetDiscrete beat.
func Set(state State) Beat {
	return Beat{Kind: SetDiscrete, State: state}
}

// Also returns a copy of an Interpolate beat that additionally moves
// channel from one value to another.
func (b Beat) Also(channel string, from, to float64) Beat {
	with := make([]Track, len(b.With), len(b.With)+1)
	copy(with, b.With)
	b.With = append(with, Track{Channel: channel, From: from, To: to})
	return b
}

// Tracks returns every channel moved by an Interpolate beat, starting with
// its primary channel.
func (b Beat) Tracks() []Track {
	if b.Kind != Interpolate {
		return nil
	}
	tracks := make([]Track, 0, 1+len(b.With))
	tracks = append(tracks, Track{Channel: b.Channel, From: b.From, To: b.To})
	return append(tracks, b.With...)
}

// Timed reports whether the beat consumes time.
func (b Beat) Timed() bool {
	return b.Kind != SetDiscrete
}

// Value returns the primary channel value of an Interpolate beat after
// elapsed time.
func (b Beat) Value(elapsed time.Duration) float64 {
	return b.ValueOf(Track{Channel: b.Channel, From: b.From, To: b.To}, elapsed)
}

// ValueOf returns the value of track t, moved by the beat, after elapsed
// time. The eased value is clamped to the closed interval between From and
// To so that overshooting curves never leave the declared bounds.
func (b Beat) ValueOf(t Track, elapsed time.Duration) float64 {
	if elapsed >= b.Duration {
		return t.To
	}
	if elapsed <= 0 {
		return t.From
	}
	p := float64(elapsed) / float64(b.Duration)
	v := t.From + (t.To-t.From)*b.Easing(p)
	lo, hi := math.Min(t.From, t.To), math.Max(t.From, t.To)
	return math.Max(lo, math.Min(hi, v))
}

// Script is a validated, immutable beat sequence. A Script may be shared
// between any number of choreographers.
type Script struct {
	beats    []Beat
	total    time.Duration
	channels []string
	initial  map[string]float64
	start    State
	states   []State
}

// Len returns the number of beats.
func (s *Script) Len() int { return len(s.beats) }

// Beat returns a copy of the i'th beat.
func (s *Script) Beat(i int) Beat { return s.beats[i].clone() }

// Beats returns a copy of the beat list.
func (s *Script) Beats() []Beat {
	beats := make([]Beat, len(s.beats))
	for i, b := range s.beats {
		beats[i] = b.clone()
	}
	return beats
}

// Duration returns the length of one loop of the script.
func (s *Script) Duration() time.Duration { return s.total }

// Channels returns the channels targeted by the script in order of first
// appearance.
func (s *Script) Channels() []string {
	return append([]string(nil), s.channels...)
}

// Initial returns the value each channel holds when a loop begins: the To
// value of the last beat targeting it. A choreographer seeds its channels
// with these values so that the first loop is indistinguishable from every
// later one.
func (s *Script) Initial() map[string]float64 {
	m := make(map[string]float64, len(s.initial))
	for k, v := range s.initial {
		m[k] = v
	}
	return m
}

// InitialState returns the discrete state in effect when a loop begins:
// the state of the last dwell or set beat, or the empty State if the
// script has none.
func (s *Script) InitialState() State { return s.start }

// States returns the closed state set the script was validated against,
// or nil if none was given.
func (s *Script) States() []State {
	return append([]State(nil), s.states...)
}
