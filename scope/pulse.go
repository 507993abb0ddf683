// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scope provides the time driven parts of a simulation: clock
// generators, waveform recorders and the engine that advances them.
//
// Nothing in this package reads the wall clock on its own. Elapsed time is
// always supplied by the caller, which keeps simulations deterministic.
//
package scope

import "time"

// A Pulse is anything advanced by elapsed time.
//
// elapsed is the total running time of the driving engine, not a delta.
//
type Pulse interface {
	Update(elapsed time.Duration)
}

// A Renderable pulse exposes a polyline for display.
//
type Renderable interface {
	Pulse
	// Points returns the polyline as "x,y x,y ...".
	Points() string
	// Width returns the width of the polyline in pixels.
	Width() int
	// Truncate drops everything but the trailing width pixels.
	Truncate(width int)
}

// A Trace is a snapshot of a renderable pulse.
//
type Trace struct {
	Points string
	Width  int
}

// An Oscillogram maps ids to traces.
//
type Oscillogram map[string]Trace
