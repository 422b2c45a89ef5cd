// Package choreo plays scene scripts as looping, cancellable demo
// choreographies.
//
// A Choreographer owns no timer. It is advanced only by explicit calls to
// Tick with the time elapsed since the previous call, and each Tick returns
// one Frame describing the discrete state and channel values at that
// instant. The same script and the same sequence of deltas always produce
// the same Frames.
//
// A Choreographer must be ticked from a single goroutine. Cancel may be
// called from any goroutine and takes effect at the next Tick.
package choreo

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/demoreel/internal/script"
)

// ErrInvalidState is returned by Start when the choreographer is not
// stopped. A running or cancelled choreographer cannot be restarted; a
// new one must be created instead.
var ErrInvalidState = errors.New("choreographer not in stopped state")

// Status is the lifecycle state of a Choreographer.
type Status int32

const (
	Stopped Status = iota
	Running
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Cursor is a position in a looping script: the number of completed loops,
// the current beat and the time spent in it.
type Cursor struct {
	Scene   int
	Beat    int
	Elapsed time.Duration
}

// Less reports whether c is strictly before d.
func (c Cursor) Less(d Cursor) bool {
	if c.Scene != d.Scene {
		return c.Scene < d.Scene
	}
	if c.Beat != d.Beat {
		return c.Beat < d.Beat
	}
	return c.Elapsed < d.Elapsed
}

// Frame is a snapshot of a choreography at one instant. Each Frame owns
// its Values map; the choreographer never reads it back.
type Frame struct {
	// State is the discrete state in effect.
	State script.State
	// Values holds the current value of every channel in the script.
	Values map[string]float64
	// Scene is the number of completed loops. Callers use it to rotate
	// content between loops, typically Scene % len(content).
	Scene int
	// Beat is the index of the active beat.
	Beat int
	// Elapsed is the time spent in the active beat.
	Elapsed time.Duration
}

// Value returns the value of channel ch, or zero if the script does not
// drive it.
func (f Frame) Value(ch string) float64 { return f.Values[ch] }

// Cursor returns the position the frame was taken at.
func (f Frame) Cursor() Cursor {
	return Cursor{Scene: f.Scene, Beat: f.Beat, Elapsed: f.Elapsed}
}

// Choreographer advances a Script over externally supplied time.
type Choreographer struct {
	script *script.Script
	status atomic.Int32

	cur    Cursor
	state  script.State
	values map[string]float64

	log *zap.Logger
}

// Option configures a Choreographer.
type Option func(*Choreographer)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *zap.Logger) Option {
	return func(c *Choreographer) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a stopped Choreographer for s. Channel values and the
// discrete state are seeded from the end of the script so that the first
// loop matches every later one.
func New(s *script.Script, opts ...Option) *Choreographer {
	c := &Choreographer{
		script: s,
		state:  s.InitialState(),
		values: s.Initial(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Script returns the script being played.
func (c *Choreographer) Script() *script.Script { return c.script }

// Status returns the lifecycle state.
func (c *Choreographer) Status() Status { return Status(c.status.Load()) }

// Cursor returns the current position.
func (c *Choreographer) Cursor() Cursor { return c.cur }

// Start moves a stopped choreographer to running, positioned at the start
// of the first beat.
func (c *Choreographer) Start() error {
	if !c.status.CompareAndSwap(int32(Stopped), int32(Running)) {
		return fmt.Errorf("start: %w (%s)", ErrInvalidState, c.Status())
	}
	c.enter()
	c.log.Debug("choreography started",
		zap.Int("beats", c.script.Len()),
		zap.Duration("loop", c.script.Duration()),
	)
	return nil
}

// Cancel stops the choreography permanently. It is safe to call from any
// goroutine, in any state, any number of times. A Tick already in progress
// completes; every later Tick returns false.
func (c *Choreographer) Cancel() {
	for {
		old := c.status.Load()
		if Status(old) == Cancelled {
			return
		}
		if c.status.CompareAndSwap(old, int32(Cancelled)) {
			c.log.Debug("choreography cancelled", zap.Stringer("from", Status(old)))
			return
		}
	}
}

// Tick advances the choreography by delta and returns the resulting
// Frame. It returns false, and does nothing, unless the choreographer is
// running. Negative deltas are treated as zero.
func (c *Choreographer) Tick(delta time.Duration) (Frame, bool) {
	if c.Status() != Running {
		return Frame{}, false
	}
	if delta > 0 {
		c.advance(delta)
	}
	return c.Snapshot(), true
}

// Snapshot returns the Frame at the current position without advancing.
func (c *Choreographer) Snapshot() Frame {
	values := make(map[string]float64, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	return Frame{
		State:   c.state,
		Values:  values,
		Scene:   c.cur.Scene,
		Beat:    c.cur.Beat,
		Elapsed: c.cur.Elapsed,
	}
}

// advance moves the cursor forward by d, carrying any time left over at
// the end of a beat into the following beats.
func (c *Choreographer) advance(d time.Duration) {
	total := c.script.Duration()
	for {
		b := c.script.Beat(c.cur.Beat)
		left := b.Duration - c.cur.Elapsed
		if d < left {
			c.cur.Elapsed += d
			for _, t := range b.Tracks() {
				c.values[t.Channel] = b.ValueOf(t, c.cur.Elapsed)
			}
			return
		}
		d -= left
		for _, t := range b.Tracks() {
			c.values[t.Channel] = t.To
		}
		if !c.next() {
			continue
		}
		// A whole loop leaves every channel and the discrete state
		// exactly as it found them, so all but the last of any complete
		// loops remaining in d can be counted without being played.
		if n := d / total; n > 1 {
			c.cur.Scene += int(n - 1)
			d -= (n - 1) * total
		}
		c.log.Debug("choreography looped", zap.Int("scene", c.cur.Scene))
	}
}

// next moves to the following timed beat, applying any instantaneous
// beats on the way, and reports whether the script wrapped around.
func (c *Choreographer) next() (wrapped bool) {
	c.cur.Elapsed = 0
	c.cur.Beat++
	if c.cur.Beat == c.script.Len() {
		c.cur.Beat = 0
		c.cur.Scene++
		wrapped = true
	}
	return c.enter() || wrapped
}

// enter applies the entry effects of the beat under the cursor, skipping
// over instantaneous beats, and reports whether doing so wrapped around.
func (c *Choreographer) enter() (wrapped bool) {
	for {
		b := c.script.Beat(c.cur.Beat)
		switch b.Kind {
		case script.Dwell:
			c.state = b.State
			return wrapped
		case script.Interpolate:
			for _, t := range b.Tracks() {
				c.values[t.Channel] = t.From
			}
			return wrapped
		case script.SetDiscrete:
			c.state = b.State
			c.cur.Beat++
			if c.cur.Beat == c.script.Len() {
				c.cur.Beat = 0
				c.cur.Scene++
				wrapped = true
			}
		}
	}
}
