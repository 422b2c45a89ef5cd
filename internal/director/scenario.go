package director

import (
	"fmt"

	"github.com/ivlev/demoreel/internal/easing"
	"github.com/ivlev/demoreel/internal/script"
)

// Version is the script document format version written by this package.
const Version = "1.0"

// Document is the YAML form of a scene script
type Document struct {
	Version string      `yaml:"version"`
	Name    string      `yaml:"name"`
	States  []string    `yaml:"states,omitempty"` // Closed state set; empty means unrestricted
	Beats   []BeatSpec  `yaml:"beats"`
	Loop    *LoopPolicy `yaml:"loop,omitempty"`
}

// LoopPolicy records authoring hints that are not part of the script
// itself.
type LoopPolicy struct {
	Target float64 `yaml:"target,omitempty"` // Desired loop length in milliseconds
}

// BeatSpec is one beat of a Document
type BeatSpec struct {
	Kind     string  `yaml:"kind"`               // "interpolate", "dwell" or "set"
	Channel  string  `yaml:"channel,omitempty"`  // Interpolated channel
	From     float64 `yaml:"from,omitempty"`     // Start value
	To       float64 `yaml:"to,omitempty"`       // End value
	Duration float64 `yaml:"duration,omitempty"` // Milliseconds
	Easing   string  `yaml:"easing,omitempty"`   // Curve name, default linear
	State    string  `yaml:"state,omitempty"`    // Discrete state

	Also []TrackSpec `yaml:"also,omitempty"` // Channels moved alongside Channel
}

// TrackSpec is an extra channel moved by an interpolate beat
type TrackSpec struct {
	Channel string  `yaml:"channel"`
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
}

// Beat converts b to a script beat.
func (b BeatSpec) Beat() (script.Beat, error) {
	switch b.Kind {
	case "interpolate", "tween":
		ease, err := easing.Lookup(b.Easing)
		if err != nil {
			return script.Beat{}, err
		}
		d, err := script.Millis(b.Duration)
		if err != nil {
			return script.Beat{}, err
		}
		beat := script.Tween(b.Channel, b.From, b.To, d, ease)
		for _, t := range b.Also {
			beat = beat.Also(t.Channel, t.From, t.To)
		}
		return beat, nil
	case "dwell", "hold":
		if len(b.Also) != 0 {
			return script.Beat{}, script.ErrDwellMoves
		}
		d, err := script.Millis(b.Duration)
		if err != nil {
			return script.Beat{}, err
		}
		return script.Hold(script.State(b.State), d), nil
	case "set":
		if b.Duration != 0 {
			return script.Beat{}, fmt.Errorf("set beat cannot have a duration")
		}
		return script.Set(script.State(b.State)), nil
	default:
		return script.Beat{}, fmt.Errorf("%w: %q", script.ErrUnknownKind, b.Kind)
	}
}

// kindOf maps a document kind name to a beat kind, or zero if unknown.
func kindOf(name string) script.Kind {
	switch name {
	case "interpolate", "tween":
		return script.Interpolate
	case "dwell", "hold":
		return script.Dwell
	case "set":
		return script.SetDiscrete
	default:
		return 0
	}
}

// Compile validates the document and builds its script.
func (d *Document) Compile() (*script.Script, error) {
	beats := make([]script.Beat, 0, len(d.Beats))
	for i, spec := range d.Beats {
		b, err := spec.Beat()
		if err != nil {
			return nil, &script.BeatError{Index: i, Kind: kindOf(spec.Kind), Err: err}
		}
		beats = append(beats, b)
	}
	var opts []script.Option
	if len(d.States) > 0 {
		states := make([]script.State, len(d.States))
		for i, s := range d.States {
			states[i] = script.State(s)
		}
		opts = append(opts, script.WithStates(states...))
	}
	return script.Build(beats, opts...)
}

// Duration returns the total length of the document's beats in
// milliseconds, without validating them.
func (d *Document) Duration() float64 {
	var total float64
	for _, b := range d.Beats {
		total += b.Duration
	}
	return total
}

// Tween returns an interpolate BeatSpec.
func Tween(channel string, from, to, ms float64, ease string) BeatSpec {
	return BeatSpec{Kind: "interpolate", Channel: channel, From: from, To: to, Duration: ms, Easing: ease}
}

// With returns a copy of an interpolate BeatSpec that also moves channel.
func (b BeatSpec) With(channel string, from, to float64) BeatSpec {
	b.Also = append(append([]TrackSpec(nil), b.Also...), TrackSpec{Channel: channel, From: from, To: to})
	return b
}

// Hold returns a dwell BeatSpec.
func Hold(state script.State, ms float64) BeatSpec {
	return BeatSpec{Kind: "dwell", State: string(state), Duration: ms}
}

// Set returns a set BeatSpec.
func Set(state script.State) BeatSpec {
	return BeatSpec{Kind: "set", State: string(state)}
}
