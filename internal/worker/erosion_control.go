// Package worker is the concurrency harness for the one long-running,
// cancellable operation the backend supports: hydraulic erosion. It
// guarantees at most one job in flight via compare-and-swap on an
// atomic running flag.
package worker

import (
	"sync/atomic"

	"terrainops/internal/errs"
)

// ErosionControl owns the running/abort flag pair: running transitions
// false->true->false strictly alternately, and abort is a cooperative
// cancel signal polled by the job itself.
type ErosionControl struct {
	running atomic.Bool
	abort   atomic.Bool
}

// TryStart attempts to claim the single erosion slot. It returns a
// Validation error if a job is already running.
func (c *ErosionControl) TryStart() error {
	if !c.running.CompareAndSwap(false, true) {
		return errs.Validationf("hydraulic erosion already running")
	}
	c.abort.Store(false)
	return nil
}

// Finish clears the running flag. Call it via defer immediately after
// TryStart succeeds, so a panicking job still releases the slot.
func (c *ErosionControl) Finish() {
	c.running.Store(false)
}

// RequestAbort sets the cooperative cancel flag; it does not touch the
// grid and can be called concurrently with an in-flight job.
func (c *ErosionControl) RequestAbort() {
	c.abort.Store(true)
}

// Aborted is polled by the hydraulic loop every 1000 droplets.
func (c *ErosionControl) Aborted() bool {
	return c.abort.Load()
}

// Running reports whether a job currently holds the slot.
func (c *ErosionControl) Running() bool {
	return c.running.Load()
}

// Run claims the slot, runs fn in a new goroutine with the slot
// guaranteed to be released on every exit path (normal return, early
// break inside fn, or panic), and returns immediately after spawning —
// matching the dispatcher's "hydraulic returns an immediate
// acknowledgement" contract.
func (c *ErosionControl) Run(fn func(abort func() bool)) error {
	if err := c.TryStart(); err != nil {
		return err
	}
	go func() {
		defer c.Finish()
		fn(c.Aborted)
	}()
	return nil
}
