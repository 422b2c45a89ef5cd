// Package gate hands a looping demo over to a real user.
//
// A Gate wraps a choreography and turns the first genuine user input into
// a permanent cancellation. From then on the host stops drawing Frames and
// lets the pointer drive the widget directly; the demo never resumes.
package gate

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/demoreel/internal/choreo"
)

// ErrUserEngaged is returned by Start once the user has taken over.
var ErrUserEngaged = errors.New("user engaged; demo will not start")

// Target is the choreography a Gate controls.
type Target interface {
	Start() error
	Tick(delta time.Duration) (choreo.Frame, bool)
	Cancel()
}

// Gate is a one-way switch from scripted to user-driven display.
type Gate struct {
	target  Target
	engaged atomic.Bool

	mu   sync.Mutex
	last choreo.Frame
	seen bool

	log *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used to record the hand-over.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// New returns a Gate controlling t.
func New(t Target, opts ...Option) *Gate {
	g := &Gate{target: t, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start starts the target unless the user has already engaged.
func (g *Gate) Start() error {
	if g.engaged.Load() {
		return ErrUserEngaged
	}
	return g.target.Start()
}

// Tick forwards to the target while the user has not engaged. The Frame
// returned is remembered and available from LastFrame.
func (g *Gate) Tick(delta time.Duration) (choreo.Frame, bool) {
	if g.engaged.Load() {
		return choreo.Frame{}, false
	}
	f, ok := g.target.Tick(delta)
	if ok {
		g.mu.Lock()
		g.last, g.seen = f, true
		g.mu.Unlock()
	}
	return f, ok
}

// ReportUserInput records genuine user interaction. The first call cancels
// the target; later calls do nothing.
func (g *Gate) ReportUserInput() {
	if !g.engaged.CompareAndSwap(false, true) {
		return
	}
	g.target.Cancel()
	g.log.Info("user engaged, demo handed over")
}

// IsUserEngaged reports whether the host should draw from direct user
// input rather than from Frames.
func (g *Gate) IsUserEngaged() bool {
	return g.engaged.Load()
}

// LastFrame returns the last Frame passed through Tick, so that direct
// manipulation can continue from where the demo left off. It reports
// false if no Frame has been produced.
func (g *Gate) LastFrame() (choreo.Frame, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.seen
}

// Observe classifies a raw input event and reports it as user input if it
// is genuine. It returns whether the event engaged the gate or the gate
// was already engaged.
func (g *Gate) Observe(in Input) bool {
	if in.Genuine() {
		g.ReportUserInput()
	}
	return g.IsUserEngaged()
}
