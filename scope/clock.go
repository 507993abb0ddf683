// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"time"

	"github.com/db47h/trisim"
)

// Clock is a square wave generator. Its signal flips every Interval of
// elapsed time.
//
type Clock struct {
	Interval time.Duration
	// OnToggle is called with the new signal after each flip.
	OnToggle func(v trisim.Value)

	signal  bool
	last    time.Duration
	stopped bool
}

// NewClock returns a new clock with a False signal.
//
func NewClock(interval time.Duration, onToggle func(v trisim.Value)) *Clock {
	return &Clock{Interval: interval, OnToggle: onToggle}
}

// Update implements Pulse.
//
func (c *Clock) Update(elapsed time.Duration) {
	if c.stopped || elapsed < c.last+c.Interval {
		return
	}
	c.signal = !c.signal
	c.last = elapsed
	if c.OnToggle != nil {
		c.OnToggle(c.Signal())
	}
}

// Signal returns the current clock signal, either True or False.
//
func (c *Clock) Signal() trisim.Value {
	return trisim.FromBool(c.signal)
}

// Stop freezes the clock.
//
func (c *Clock) Stop() { c.stopped = true }

// Start resumes a stopped clock.
//
func (c *Clock) Start() { c.stopped = false }

// Stopped reports whether the clock is stopped.
//
func (c *Clock) Stopped() bool { return c.stopped }

// Reset sets the signal back to False and restarts the current period at
// elapsed.
//
func (c *Clock) Reset(elapsed time.Duration) {
	c.signal = false
	c.last = elapsed
}
