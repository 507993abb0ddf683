// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"github.com/db47h/trisim"
	"github.com/db47h/trisim/logger"
	"github.com/pkg/errors"
)

// Pause stops the oscillation engine and suspends settling. Commands still
// update the network, but no work is done until Unpause.
//
func (s *Simulation) Pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.engine.Stop()
	logger.Log(s.cfg.Log, "sim", "paused")
}

// Unpause resumes the simulation, settles any work queued while paused and
// notifies change listeners. If debugging, it stops debugging.
//
func (s *Simulation) Unpause() {
	if s.debug {
		s.StopDebugging()
		return
	}
	s.resume()
}

func (s *Simulation) resume() {
	if !s.paused {
		return
	}
	s.paused = false
	s.engine.Start()
	logger.Log(s.cfg.Log, "sim", "resumed")
	s.Step()
}

// IsPaused reports whether the simulation is paused.
//
func (s *Simulation) IsPaused() bool { return s.paused }

// IsDebugging reports whether the simulation is in step debugging mode.
//
func (s *Simulation) IsDebugging() bool { return s.debug }

// CanContinue reports whether Advance has anything to commit: either a
// preview of the next tick or input changes queued while debugging.
//
func (s *Simulation) CanContinue() bool { return s.canContinue }

// NextState returns a copy of the port values previewed for the next tick,
// or nil if the next tick changes nothing.
//
func (s *Simulation) NextState() map[string]trisim.Value {
	if s.nextState == nil {
		return nil
	}
	return copyValues(s.nextState)
}

// StartDebugging pauses the simulation and computes a preview of the next
// tick.
//
func (s *Simulation) StartDebugging() {
	s.Pause()
	if !s.debug {
		s.debug = true
		logger.Log(s.cfg.Log, "sim", "debugging")
	}
	s.ComputeNextState()
	s.emit()
}

// ComputeNextState runs exactly one network tick and records the resulting
// port values as the next state, without changing the values reported to
// listeners. The next state is nil if the tick changes no port value.
//
func (s *Simulation) ComputeNextState() {
	before := copyValues(s.values)
	s.previewing = true
	err := s.net.Next()
	s.previewing = false
	after := s.values
	s.values = before

	if err != nil {
		s.fail(errors.Wrap(err, "preview"))
	}
	if sameValues(before, after) {
		s.nextState = nil
	} else {
		s.nextState = after
	}
	s.canContinue = s.nextState != nil || len(s.nextOrder) > 0
}

// EnqueuePortValueChange queues a change of port pid to v, to be applied to
// the network by the next Advance. The change shows up in reported values
// right away.
//
func (s *Simulation) EnqueuePortValueChange(pid string, v trisim.Value) {
	if _, ok := s.nodes[pid]; !ok {
		return
	}
	if _, ok := s.nextValues[pid]; !ok {
		s.nextOrder = append(s.nextOrder, pid)
	}
	s.nextValues[pid] = v
	s.display(pid, v)
	s.canContinue = true
	s.emit()
}

// Advance commits one step while debugging. Queued input changes take
// precedence: they are applied to the network and the previewed state,
// which they make stale, is dropped. Otherwise the previewed state is
// committed. A new preview is computed in both cases.
//
// Dropping the preview does not rewind the network: the tick it ran stays
// applied, so until StopDebugging resynchronizes them, reported values may
// lag the network by one tick and disagree with each other (a NOT gate
// reported with the same value as its input, for instance).
//
func (s *Simulation) Advance() {
	if !s.debug {
		return
	}
	if len(s.nextOrder) > 0 {
		s.applyQueued()
	} else {
		for pid, v := range s.nextState {
			s.display(pid, v)
		}
	}
	s.nextState = nil
	s.ComputeNextState()
	s.emit()
}

func (s *Simulation) applyQueued() {
	for _, pid := range s.nextOrder {
		id, ok := s.nodes[pid]
		if !ok {
			continue
		}
		s.net.SetValue(id, s.nextValues[pid])
		s.net.Enqueue(id)
	}
	s.nextOrder = s.nextOrder[:0]
	s.nextValues = make(map[string]trisim.Value)
}

// StopDebugging drops the previewed state, applies queued input changes and
// resumes the simulation.
//
func (s *Simulation) StopDebugging() {
	if !s.debug {
		return
	}
	s.debug = false
	s.nextState = nil
	s.canContinue = false
	// the network may be one tick ahead of the reported values.
	for pid := range s.values {
		s.display(pid, s.portValue(pid))
	}
	s.applyQueued()
	logger.Log(s.cfg.Log, "sim", "stopped debugging")
	s.resume()
}
