package gpib

import (
	"context"
	"time"

	"github.com/tgoodhew/go-hp8902/internal/pool"
)

// Signal is a single-slot synchronizer bridging the instrument's
// asynchronous service request into blocking control flow.
//
// At most one unit of signal may be outstanding: Release caps the slot at
// one pending unit and never blocks, and a Wait consumes exactly one unit
// before the slot returns to empty. The protocol arms at most one wait at a
// time, so only one outstanding waiter is supported.
type Signal struct {
	slot chan struct{}
}

// NewSignal creates an empty Signal.
func NewSignal() *Signal {
	return &Signal{slot: make(chan struct{}, 1)}
}

// Release posts one unit of signal from the interrupt-handling context.
// It never blocks. It returns false if a unit was already pending, in which
// case the release is dropped.
func (g *Signal) Release() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Drain discards a pending unit without blocking. It returns true when a
// unit was discarded. Callers drain before arming a new interrupt cycle so a
// release left over from a previous cycle cannot satisfy the coming wait.
func (g *Signal) Drain() bool {
	select {
	case <-g.slot:
		return true
	default:
		return false
	}
}

// Wait blocks until one unit of signal is released, the timeout elapses, or
// ctx is canceled. A unit released before Wait is called satisfies it
// immediately. Returns ErrWaitTimeout when the bound is exceeded.
func (g *Signal) Wait(ctx context.Context, timeout time.Duration) error {
	select {
	case <-g.slot:
		return nil
	default:
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-g.slot:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
