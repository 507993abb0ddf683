// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sim maps circuit descriptors (items, ports and connections) onto a
// trisim.Network and drives it: settling, clocks, waveform recording, pause
// and step debugging.
//
package sim

import (
	"io"
	"strconv"
	"time"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/logger"
	"github.com/db47h/trisim/scope"
	"github.com/pkg/errors"
)

// Config holds the configuration of a Simulation. Zero fields are replaced
// by their DefaultConfig value in New.
//
type Config struct {
	// MaxIterations is the maximum number of network ticks run by Step
	// before reporting an infinite loop.
	MaxIterations int
	// ClockInterval is the period of clocks without an interval property.
	ClockInterval time.Duration
	// BroadcastInterval is the elapsed time between two oscillogram
	// broadcasts.
	BroadcastInterval time.Duration
	// TraceStep is the number of pixels a waveform grows per engine update.
	TraceStep int
	// TraceWidth is the number of pixels of waveform history kept.
	TraceWidth int
	// Factory builds nodes from items.
	Factory Factory
	// OnChange receives port values and the current oscillogram after each
	// step or broadcast. The map is a copy owned by the callee.
	OnChange func(values map[string]trisim.Value, osc scope.Oscillogram)
	// OnError receives simulation errors. The cause of runaway settling
	// errors is trisim.ErrInfiniteLoop.
	OnError func(err error)
	// Log controls logging.
	Log logger.Permission
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		MaxIterations:     1000,
		ClockInterval:     time.Second,
		BroadcastInterval: 100 * time.Millisecond,
		TraceStep:         1,
		TraceWidth:        1000,
		Factory:           DefaultFactory,
		Log:               logger.Allow,
	}
}

// Simulation is a runnable simulation of a circuit.
//
// A Simulation is not safe for concurrent use: commands, Tick and the
// callbacks they trigger all run on the caller's goroutine.
//
type Simulation struct {
	cfg    Config
	net    *trisim.Network
	engine *scope.Engine

	nodes  map[string]trisim.NodeID   // port id -> node
	ports  map[string]Port            // port id -> descriptor
	subs   map[trisim.NodeID][]string // node -> port ids notified on change
	waves  map[string]*scope.Wave
	clocks map[string]*scope.Clock
	values map[string]trisim.Value

	paused bool

	debug       bool
	previewing  bool
	canContinue bool
	nextState   map[string]trisim.Value
	nextValues  map[string]trisim.Value
	nextOrder   []string
}

// New returns a new running simulation with an empty circuit.
//
func New(cfg Config) *Simulation {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = def.ClockInterval
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = def.BroadcastInterval
	}
	if cfg.TraceStep <= 0 {
		cfg.TraceStep = def.TraceStep
	}
	if cfg.TraceWidth <= 0 {
		cfg.TraceWidth = def.TraceWidth
	}
	if cfg.Factory == nil {
		cfg.Factory = def.Factory
	}
	if cfg.Log == nil {
		cfg.Log = logger.Deny
	}

	s := &Simulation{
		cfg:        cfg,
		net:        trisim.NewNetwork(),
		nodes:      make(map[string]trisim.NodeID),
		ports:      make(map[string]Port),
		subs:       make(map[trisim.NodeID][]string),
		waves:      make(map[string]*scope.Wave),
		clocks:     make(map[string]*scope.Clock),
		values:     make(map[string]trisim.Value),
		nextValues: make(map[string]trisim.Value),
	}
	s.net.SetObserver(trisim.ObserverFunc(s.nodeChanged))
	s.engine = scope.NewEngine(cfg.BroadcastInterval, cfg.TraceWidth, s.broadcast)
	s.engine.Log = cfg.Log
	s.engine.Start()
	return s
}

// Network returns the underlying network.
//
func (s *Simulation) Network() *trisim.Network { return s.net }

// Engine returns the oscillation engine.
//
func (s *Simulation) Engine() *scope.Engine { return s.engine }

// Tick advances clocks and waveforms by delta of elapsed time. It does
// nothing while the simulation is paused.
//
func (s *Simulation) Tick(delta time.Duration) {
	s.engine.Advance(delta)
}

func (s *Simulation) nodeChanged(id trisim.NodeID, v trisim.Value) {
	nd := s.net.Node(id)
	for _, pid := range s.subs[id] {
		pv := v
		if s.ports[pid].Type == PortInput {
			pv = nd.Input(pid)
		}
		s.display(pid, pv)
	}
}

// display records v as the current value of port pid and draws the
// transition on its waveform. Transitions are not drawn while previewing.
func (s *Simulation) display(pid string, v trisim.Value) {
	if s.values[pid] == v {
		return
	}
	s.values[pid] = v
	if w := s.waves[pid]; w != nil && !s.previewing {
		w.DrawPulseChange(v)
	}
}

// portValue returns the value of port pid as seen by the network.
func (s *Simulation) portValue(pid string) trisim.Value {
	nd := s.net.Node(s.nodes[pid])
	if nd == nil {
		return trisim.Unknown
	}
	if s.ports[pid].Type == PortInput {
		return nd.Input(pid)
	}
	return nd.Value()
}

func (s *Simulation) broadcast(o scope.Oscillogram) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(copyValues(s.values), o)
	}
}

func (s *Simulation) emit() {
	s.broadcast(s.engine.Oscillogram())
}

func (s *Simulation) fail(err error) {
	logger.Logf(s.cfg.Log, "sim", "%v", err)
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

// AddNode adds an item to the circuit and settles the network.
//
// ports must hold the descriptors of all the item's ports. Items without
// ports are ignored. Items with a nested circuit are flattened with
// AddIntegratedCircuit.
//
func (s *Simulation) AddNode(item Item, ports map[string]Port) error {
	if err := s.addNode(item, ports, false); err != nil {
		return err
	}
	s.Step()
	return nil
}

// addNode adds item to the network. If forceContinue is set, the node
// resolves its successors within the current tick and boundary pins become
// buffers.
func (s *Simulation) addNode(item Item, ports map[string]Port, forceContinue bool) error {
	if len(item.PortIDs) == 0 {
		return nil
	}
	if item.Circuit != nil {
		return s.addIntegratedCircuit(item)
	}
	for _, pid := range item.PortIDs {
		if _, ok := ports[pid]; !ok {
			return errors.Errorf("item %q: missing descriptor for port %q", item.ID, pid)
		}
		if _, ok := s.nodes[pid]; ok {
			return errors.Errorf("item %q: port %q already in use", item.ID, pid)
		}
	}

	var nd *trisim.Node
	if forceContinue && item.isPin() {
		nd = trisim.NewNode(item.ID, trisim.Buffer, inputPorts(&item, ports)...)
	} else {
		var err error
		if nd, err = s.cfg.Factory(&item, ports); err != nil {
			return err
		}
	}
	if forceContinue {
		nd.ForceContinue = true
	}
	id := s.net.AddNode(nd)
	for _, pid := range item.PortIDs {
		s.addPort(pid, ports[pid], id)
	}

	if nd.Kind == trisim.Input {
		out := ""
		for _, pid := range item.PortIDs {
			if p := ports[pid]; p.Type == PortOutput {
				out = pid
				break
			}
		}
		if out != "" {
			s.net.SetValue(id, ports[out].Value)
			if item.Subtype == SubtypeClock {
				s.AddClock(out, s.clockInterval(&item))
			}
		}
	}
	for _, pid := range item.PortIDs {
		if ports[pid].IsMonitored {
			s.MonitorPort(pid)
		}
	}
	logger.Logf(s.cfg.Log, "sim", "added %s %q (%s) with %d ports", item.Type, item.ID, nd.Kind, len(item.PortIDs))
	return nil
}

func (s *Simulation) clockInterval(item *Item) time.Duration {
	if iv, ok := item.Properties[PropInterval]; ok {
		ms, err := strconv.Atoi(iv)
		if err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
		logger.Logf(s.cfg.Log, "sim", "clock %q: invalid interval %q", item.ID, iv)
	}
	return s.cfg.ClockInterval
}

// AddIntegratedCircuit flattens a nested circuit into the network and
// settles it. Every inner node forces continuation so that the interior of
// the circuit resolves within a single tick.
//
func (s *Simulation) AddIntegratedCircuit(item Item) error {
	if err := s.addIntegratedCircuit(item); err != nil {
		return err
	}
	s.Step()
	return nil
}

func (s *Simulation) addIntegratedCircuit(item Item) error {
	ic := item.Circuit
	if ic == nil {
		return errors.Errorf("item %q is not an integrated circuit", item.ID)
	}
	pins := make(map[string]bool)
	for i := range ic.Items {
		if ic.Items[i].isPin() {
			for _, pid := range ic.Items[i].PortIDs {
				pins[pid] = true
			}
		}
	}
	for _, pid := range item.PortIDs {
		if !pins[pid] {
			return errors.Errorf("integrated circuit %q: port %q is not a boundary pin", item.ID, pid)
		}
	}
	for _, inner := range ic.Items {
		if err := s.addNode(inner, ic.Ports, true); err != nil {
			return errors.Wrapf(err, "integrated circuit %q", item.ID)
		}
	}
	for _, c := range ic.Connections {
		s.addConnection(c)
	}
	return nil
}

// RemoveNode removes an item, and all the items nested in it, from the
// circuit.
//
func (s *Simulation) RemoveNode(item Item) {
	for _, pid := range item.portIDs() {
		id, ok := s.nodes[pid]
		if !ok {
			continue
		}
		s.removePort(pid)
		if len(s.subs[id]) > 0 {
			continue
		}
		delete(s.subs, id)
		if err := s.net.RemoveNode(id); err != nil {
			s.fail(errors.Wrapf(err, "remove %q", item.ID))
		}
	}
	logger.Logf(s.cfg.Log, "sim", "removed %s %q", item.Type, item.ID)
	s.Step()
}

func (s *Simulation) addPort(pid string, p Port, id trisim.NodeID) {
	s.nodes[pid] = id
	s.ports[pid] = p
	s.subs[id] = append(s.subs[id], pid)
	s.values[pid] = p.Value
}

func (s *Simulation) removePort(pid string) {
	id := s.nodes[pid]
	if c := s.clocks[pid]; c != nil {
		s.engine.Remove(c)
		delete(s.clocks, pid)
	}
	if w := s.waves[pid]; w != nil {
		s.engine.Remove(w)
		delete(s.waves, pid)
	}
	subs := s.subs[id]
	for i, sp := range subs {
		if sp == pid {
			s.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	delete(s.nodes, pid)
	delete(s.ports, pid)
	delete(s.values, pid)
	delete(s.nextValues, pid)
}

// AddConnection wires two ports and settles the network. Connections
// between unknown ports are ignored.
//
func (s *Simulation) AddConnection(c Connection) {
	if s.addConnection(c) {
		s.Step()
	}
}

func (s *Simulation) addConnection(c Connection) bool {
	src, ok := s.nodes[c.Source]
	dst, ok2 := s.nodes[c.Target]
	if !ok || !ok2 {
		logger.Logf(s.cfg.Log, "sim", "ignoring connection %s -> %s: unknown port", c.Source, c.Target)
		return false
	}
	s.net.AddConnection(src, dst, c.Target, trisim.Unknown)
	return true
}

// RemoveConnection removes a wire and settles the network. The target port
// goes back to Unknown.
//
func (s *Simulation) RemoveConnection(c Connection) {
	src, ok := s.nodes[c.Source]
	dst, ok2 := s.nodes[c.Target]
	if !ok || !ok2 {
		return
	}
	s.net.RemoveConnection(src, dst, c.Target, trisim.Unknown)
	s.Step()
}

// AddClock makes port pid toggle every interval of elapsed time. A port has
// at most one clock.
//
func (s *Simulation) AddClock(pid string, interval time.Duration) {
	if c := s.clocks[pid]; c != nil {
		s.engine.Remove(c)
	}
	c := scope.NewClock(interval, func(v trisim.Value) { s.SetPortValue(pid, v) })
	s.clocks[pid] = c
	s.engine.Add(pid, c)
}

// MonitorPort starts recording the waveform of port pid.
//
func (s *Simulation) MonitorPort(pid string) {
	if _, ok := s.nodes[pid]; !ok || s.waves[pid] != nil {
		return
	}
	w := scope.NewWave(s.values[pid], s.cfg.TraceStep)
	s.waves[pid] = w
	s.engine.Add(pid, w)
}

// UnmonitorPort stops recording the waveform of port pid and broadcasts
// the updated oscillogram immediately.
//
func (s *Simulation) UnmonitorPort(pid string) {
	w := s.waves[pid]
	if w == nil {
		return
	}
	s.engine.Remove(w)
	delete(s.waves, pid)
	s.engine.Broadcast()
}

// Wave returns the waveform recorder of port pid, or nil if the port is not
// monitored.
//
func (s *Simulation) Wave(pid string) *scope.Wave {
	return s.waves[pid]
}

// SetPortValue drives port pid to v and settles the network. While
// debugging, the change is queued until the next Advance instead.
//
func (s *Simulation) SetPortValue(pid string, v trisim.Value) {
	if s.debug {
		s.EnqueuePortValueChange(pid, v)
		return
	}
	id, ok := s.nodes[pid]
	if !ok {
		return
	}
	if s.net.Node(id).Pending() == v {
		return
	}
	s.net.SetValue(id, v)
	s.net.Enqueue(id)
	s.Step()
}

// Step settles the network: ticks are run until the evaluation queue is
// empty or MaxIterations is reached, in which case an error with cause
// trisim.ErrInfiniteLoop is reported to OnError. Change listeners are
// notified in any case. Step does nothing while paused.
//
func (s *Simulation) Step() {
	if s.paused {
		return
	}
	defer s.emit()
	for i := 1; ; i++ {
		if err := s.net.Next(); err != nil {
			s.fail(errors.Wrap(err, "step"))
			return
		}
		if s.net.Pending() == 0 {
			return
		}
		if i >= s.cfg.MaxIterations {
			s.fail(errors.Wrapf(trisim.ErrInfiniteLoop, "network not settled after %d iterations", i))
			return
		}
	}
}

// Reset forces every node and port back to Unknown and restarts waveforms
// and clocks.
//
func (s *Simulation) Reset() {
	s.net.Reset()
	for pid := range s.values {
		s.values[pid] = trisim.Unknown
	}
	for pid, w := range s.waves {
		s.engine.Remove(w)
		nw := scope.NewWave(trisim.Unknown, s.cfg.TraceStep)
		s.waves[pid] = nw
		s.engine.Add(pid, nw)
	}
	for _, c := range s.clocks {
		c.Reset(s.engine.Elapsed())
	}
	s.emit()
}

// Values returns a copy of the current port values.
//
func (s *Simulation) Values() map[string]trisim.Value {
	return copyValues(s.values)
}

// Value returns the current value of port pid.
//
func (s *Simulation) Value(pid string) trisim.Value {
	return s.values[pid]
}

// Oscillogram returns the current waveforms of monitored ports.
//
func (s *Simulation) Oscillogram() scope.Oscillogram {
	return s.engine.Oscillogram()
}

// Dump writes a graphviz rendering of the network to w.
//
func (s *Simulation) Dump(w io.Writer) {
	s.net.Dump(w)
}

func copyValues(m map[string]trisim.Value) map[string]trisim.Value {
	c := make(map[string]trisim.Value, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func sameValues(a, b map[string]trisim.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
