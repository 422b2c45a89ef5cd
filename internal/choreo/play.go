package choreo

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// DefaultRate is the tick rate of a WallClock created with a zero rate.
const DefaultRate = 60

// TickSource supplies the time elapsed between successive ticks. Next
// blocks until the next tick is due. A source that has no more ticks
// returns io.EOF.
type TickSource interface {
	Next(ctx context.Context) (time.Duration, error)
}

// Sink receives each Frame produced by Play.
type Sink func(Frame) error

// Player is the part of a choreographer that Play drives. It is satisfied
// by *Choreographer and by an interruption gate wrapping one.
type Player interface {
	Start() error
	Tick(delta time.Duration) (Frame, bool)
}

// Play starts p and feeds it deltas from src, passing each resulting Frame
// to sink, until p stops producing Frames. It returns nil when p has been
// cancelled or src is exhausted, and otherwise the first error from Start,
// src or sink. Play returns promptly when ctx is done.
func Play(ctx context.Context, p Player, src TickSource, sink Sink) error {
	if err := p.Start(); err != nil {
		return err
	}
	for {
		delta, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		f, ok := p.Tick(delta)
		if !ok {
			return nil
		}
		if err := sink(f); err != nil {
			return err
		}
	}
}

// ManualClock is a TickSource that replays a fixed list of deltas. It is
// used to step choreographies deterministically in tests and exports.
type ManualClock struct {
	mu     sync.Mutex
	deltas []time.Duration
}

// NewManualClock returns a clock that yields deltas in order, then io.EOF.
func NewManualClock(deltas ...time.Duration) *ManualClock {
	return &ManualClock{deltas: append([]time.Duration(nil), deltas...)}
}

// Steady returns a clock yielding n ticks of equal length step.
func Steady(step time.Duration, n int) *ManualClock {
	deltas := make([]time.Duration, n)
	for i := range deltas {
		deltas[i] = step
	}
	return &ManualClock{deltas: deltas}
}

// Push appends deltas to the clock.
func (c *ManualClock) Push(deltas ...time.Duration) {
	c.mu.Lock()
	c.deltas = append(c.deltas, deltas...)
	c.mu.Unlock()
}

// Next implements TickSource.
func (c *ManualClock) Next(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.deltas) == 0 {
		return 0, io.EOF
	}
	d := c.deltas[0]
	c.deltas = c.deltas[1:]
	return d, nil
}

// WallClock is a TickSource backed by a time.Ticker. Each delta is the
// measured wall time since the previous tick, so a slow consumer sees
// longer deltas rather than losing time.
type WallClock struct {
	ticker *time.Ticker
	last   time.Time
}

// NewWallClock returns a clock ticking rate times per second. A rate of
// zero or less selects DefaultRate. The clock must be stopped with Stop.
func NewWallClock(rate int) *WallClock {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &WallClock{
		ticker: time.NewTicker(time.Second / time.Duration(rate)),
		last:   time.Now(),
	}
}

// Next implements TickSource.
func (c *WallClock) Next(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case now := <-c.ticker.C:
		d := now.Sub(c.last)
		c.last = now
		if d < 0 {
			d = 0
		}
		return d, nil
	}
}

// Stop releases the clock's ticker.
func (c *WallClock) Stop() {
	c.ticker.Stop()
}
