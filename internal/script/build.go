package script

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptyScript is returned when a script has no beats.
	ErrEmptyScript = errors.New("script has no beats")
	// ErrNonFiniteDuration is returned when a timed beat does not have a
	// positive, finite duration.
	ErrNonFiniteDuration = errors.New("beat duration must be positive and finite")
	// ErrNoTimedBeats is returned when every beat is instantaneous, so a
	// loop would take no time.
	ErrNoTimedBeats = errors.New("script has no timed beats")
	// ErrUnknownState is returned when a beat names a state outside the
	// set given by WithStates.
	ErrUnknownState = errors.New("state not in script state set")
	// ErrMissingChannel is returned for an interpolation without a channel.
	ErrMissingChannel = errors.New("interpolation has no channel")
	// ErrMissingEasing is returned for an interpolation without a curve.
	ErrMissingEasing = errors.New("interpolation has no easing")
	// ErrNonFiniteValue is returned for an interpolation with a NaN or
	// infinite endpoint.
	ErrNonFiniteValue = errors.New("interpolation endpoint is not finite")
	// ErrDuplicateChannel is returned for an interpolation that moves the
	// same channel more than once.
	ErrDuplicateChannel = errors.New("channel moved twice in one beat")
	// ErrDwellMoves is returned for a dwell beat carrying tracks.
	ErrDwellMoves = errors.New("dwell beat cannot move channels")
	// ErrUnknownKind is returned for a beat with an invalid Kind.
	ErrUnknownKind = errors.New("unknown beat kind")
)

// BeatError reports which beat failed validation.
type BeatError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *BeatError) Error() string {
	return fmt.Sprintf("beat %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *BeatError) Unwrap() error { return e.Err }

// Option configures Build.
type Option func(*options)

type options struct {
	states map[State]bool
	order  []State
}

// WithStates restricts the discrete states a script may name to the given
// closed set.
func WithStates(states ...State) Option {
	return func(o *options) {
		if o.states == nil {
			o.states = make(map[State]bool)
		}
		for _, s := range states {
			if !o.states[s] {
				o.states[s] = true
				o.order = append(o.order, s)
			}
		}
	}
}

// Build validates beats and returns an immutable Script holding a copy of
// them. Build is deterministic and has no side effects.
func Build(beats []Beat, opts ...Option) (*Script, error) {
	if len(beats) == 0 {
		return nil, ErrEmptyScript
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Script{
		beats:   make([]Beat, len(beats)),
		initial: make(map[string]float64),
		states:  o.order,
	}
	for i, b := range beats {
		s.beats[i] = b.clone()
	}

	for i, b := range s.beats {
		if err := check(b, &o); err != nil {
			return nil, &BeatError{Index: i, Kind: b.Kind, Err: err}
		}
		if s.total+b.Duration < s.total {
			return nil, &BeatError{Index: i, Kind: b.Kind, Err: fmt.Errorf("%w: total overflows", ErrNonFiniteDuration)}
		}
		s.total += b.Duration
		switch b.Kind {
		case Interpolate:
			for _, t := range b.Tracks() {
				if _, ok := s.initial[t.Channel]; !ok {
					s.channels = append(s.channels, t.Channel)
				}
				s.initial[t.Channel] = t.To
			}
		case Dwell, SetDiscrete:
			s.start = b.State
		}
	}
	if s.total <= 0 {
		return nil, ErrNoTimedBeats
	}
	return s, nil
}

func check(b Beat, o *options) error {
	switch b.Kind {
	case Interpolate:
		if b.Channel == "" {
			return ErrMissingChannel
		}
		if b.Easing == nil {
			return ErrMissingEasing
		}
		if !finite(b.From) || !finite(b.To) {
			return ErrNonFiniteValue
		}
		if b.Duration <= 0 {
			return ErrNonFiniteDuration
		}
		seen := map[string]bool{b.Channel: true}
		for _, t := range b.With {
			if t.Channel == "" {
				return ErrMissingChannel
			}
			if seen[t.Channel] {
				return fmt.Errorf("%w: %q", ErrDuplicateChannel, t.Channel)
			}
			seen[t.Channel] = true
			if !finite(t.From) || !finite(t.To) {
				return ErrNonFiniteValue
			}
		}
	case Dwell:
		if len(b.With) != 0 {
			return ErrDwellMoves
		}
		if b.Duration <= 0 {
			return ErrNonFiniteDuration
		}
		return checkState(b.State, o)
	case SetDiscrete:
		if b.Duration != 0 {
			return fmt.Errorf("instantaneous beat has duration %v", b.Duration)
		}
		return checkState(b.State, o)
	default:
		return ErrUnknownKind
	}
	return nil
}

func checkState(s State, o *options) error {
	if o.states != nil && !o.states[s] {
		return fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// maxMillis is the largest millisecond count representable as a
// time.Duration.
const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// Millis converts a millisecond count, as found in script documents, to a
// time.Duration. It fails with ErrNonFiniteDuration for NaN, infinite,
// non-positive or unrepresentable values.
func Millis(ms float64) (time.Duration, error) {
	if !finite(ms) || ms <= 0 || ms > maxMillis {
		return 0, fmt.Errorf("%w: %v ms", ErrNonFiniteDuration, ms)
	}
	d := time.Duration(math.Round(ms * float64(time.Millisecond)))
	if d <= 0 {
		return 0, fmt.Errorf("%w: %v ms", ErrNonFiniteDuration, ms)
	}
	return d, nil
}
