// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"context"
	"time"

	"github.com/db47h/trisim/logger"
)

type entry struct {
	id string
	p  Pulse
}

// Engine drives a list of pulses from a single time source and periodically
// broadcasts an oscillogram of the renderable ones.
//
// An Engine is not safe for concurrent use. Advance must be called from the
// goroutine that owns the simulation.
//
type Engine struct {
	// BroadcastInterval is the amount of elapsed time between two
	// broadcasts. If <= 0, every Advance broadcasts.
	BroadcastInterval time.Duration
	// TraceWidth bounds the width of renderable pulses. If <= 0, traces are
	// never truncated.
	TraceWidth int
	// OnBroadcast receives the oscillograms.
	OnBroadcast func(o Oscillogram)
	// Log controls logging.
	Log logger.Permission

	entries       []entry
	running       bool
	elapsed       time.Duration
	lastBroadcast time.Duration
}

// NewEngine returns a new stopped engine.
//
func NewEngine(interval time.Duration, width int, onBroadcast func(o Oscillogram)) *Engine {
	return &Engine{
		BroadcastInterval: interval,
		TraceWidth:        width,
		OnBroadcast:       onBroadcast,
		Log:               logger.Deny,
	}
}

// Add registers p under the given id. Several pulses may share an id, but
// only renderable pulses show up in oscillograms.
//
func (e *Engine) Add(id string, p Pulse) {
	e.entries = append(e.entries, entry{id, p})
}

// Remove unregisters p. It returns false if p was not registered.
//
func (e *Engine) Remove(p Pulse) bool {
	for i, en := range e.entries {
		if en.p == p {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered pulses.
//
func (e *Engine) Len() int { return len(e.entries) }

// Start starts the engine.
//
func (e *Engine) Start() {
	if !e.running {
		logger.Log(e.Log, "scope", "engine started")
	}
	e.running = true
}

// Stop stops the engine. Elapsed time does not advance while stopped.
//
func (e *Engine) Stop() {
	if e.running {
		logger.Log(e.Log, "scope", "engine stopped")
	}
	e.running = false
}

// Running reports whether the engine is running.
//
func (e *Engine) Running() bool { return e.running }

// Elapsed returns the total running time of the engine.
//
func (e *Engine) Elapsed() time.Duration { return e.elapsed }

// Advance advances the engine by delta if it is running: every pulse is
// updated with the new elapsed time, traces are bounded to TraceWidth and an
// oscillogram is broadcast once BroadcastInterval has passed since the last
// one.
//
func (e *Engine) Advance(delta time.Duration) {
	if !e.running || delta <= 0 {
		return
	}
	e.elapsed += delta
	// pulses may remove themselves or others while being updated.
	es := append([]entry(nil), e.entries...)
	for _, en := range es {
		en.p.Update(e.elapsed)
		if r, ok := en.p.(Renderable); ok && e.TraceWidth > 0 && r.Width() > e.TraceWidth {
			r.Truncate(e.TraceWidth)
		}
	}
	if e.elapsed-e.lastBroadcast >= e.BroadcastInterval {
		e.lastBroadcast = e.elapsed
		e.Broadcast()
	}
}

// Broadcast sends the current oscillogram to OnBroadcast.
//
func (e *Engine) Broadcast() {
	if e.OnBroadcast != nil {
		e.OnBroadcast(e.Oscillogram())
	}
}

// Oscillogram returns a snapshot of all renderable pulses.
//
func (e *Engine) Oscillogram() Oscillogram {
	o := make(Oscillogram)
	for _, en := range e.entries {
		if r, ok := en.p.(Renderable); ok {
			o[en.id] = Trace{Points: r.Points(), Width: r.Width()}
		}
	}
	return o
}

// Run advances the engine with wall clock time every period until ctx is
// done. It blocks and must run on the goroutine that owns the simulation.
//
func (e *Engine) Run(ctx context.Context, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			e.Advance(now.Sub(last))
			last = now
		}
	}
}
