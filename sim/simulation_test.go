package sim_test

import (
	"testing"
	"time"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/scope"
	"github.com/db47h/trisim/sim"
	"github.com/db47h/trisim/simtest"
	"github.com/pkg/errors"
)

const (
	T = trisim.True
	F = trisim.False
	U = trisim.Unknown
)

type part struct {
	item  sim.Item
	ports map[string]sim.Port
}

func swtch(id string, v trisim.Value) part {
	return part{
		sim.Item{ID: id, Type: sim.TypeInput, Subtype: sim.SubtypeSwitch, PortIDs: []string{id}},
		map[string]sim.Port{id: {ID: id, Type: sim.PortOutput, Value: v}},
	}
}

func lamp(id string) part {
	return part{
		sim.Item{ID: id, Type: sim.TypeOutput, PortIDs: []string{id}},
		map[string]sim.Port{id: {ID: id, Type: sim.PortInput}},
	}
}

// gate returns a gate whose output port is id and input ports id.a, id.b...
func gate(id, kind string, n int) part {
	p := part{
		sim.Item{ID: id, Type: sim.TypeLogicGate, Subtype: kind},
		make(map[string]sim.Port),
	}
	for i := 0; i < n; i++ {
		pid := id + "." + string(rune('a'+i))
		p.item.PortIDs = append(p.item.PortIDs, pid)
		p.ports[pid] = sim.Port{ID: pid, Type: sim.PortInput}
	}
	p.item.PortIDs = append(p.item.PortIDs, id)
	p.ports[id] = sim.Port{ID: id, Type: sim.PortOutput}
	return p
}

func wire(src, dst string) sim.Connection {
	return sim.Connection{Source: src, Target: dst}
}

func build(t *testing.T, s *sim.Simulation, parts []part, conns ...sim.Connection) {
	t.Helper()
	for _, p := range parts {
		if err := s.AddNode(p.item, p.ports); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	for _, c := range conns {
		s.AddConnection(c)
	}
}

func newSim(t *testing.T, errs *[]error) *sim.Simulation {
	cfg := sim.DefaultConfig()
	cfg.Log = nil
	cfg.OnError = func(err error) {
		if errs == nil {
			t.Errorf("unexpected error: %+v", err)
			return
		}
		*errs = append(*errs, err)
	}
	return sim.New(cfg)
}

func expect(t *testing.T, s *sim.Simulation, exp map[string]trisim.Value) {
	t.Helper()
	for pid, v := range exp {
		simtest.ExpectEquality(t, s.Value(pid), v, pid)
	}
}

func TestSimulation_or(t *testing.T) {
	s := newSim(t, nil)
	build(t, s,
		[]part{swtch("a", U), swtch("b", U), gate("or", "OR", 2), lamp("out")},
		wire("a", "or.a"), wire("b", "or.b"), wire("or", "out"))

	data := []struct {
		a, b, out trisim.Value
	}{
		{T, U, T},
		{F, U, U},
		{F, F, F},
	}
	for _, d := range data {
		s.SetPortValue("a", d.a)
		s.SetPortValue("b", d.b)
		expect(t, s, map[string]trisim.Value{"or.a": d.a, "or.b": d.b, "or": d.out, "out": d.out})
		if !s.Network().IsComplete() {
			t.Error("network not settled after Step")
		}
	}
}

func icInverter(id string) part {
	in, not, out := id+".in", id+".not", id+".out"
	ic := &sim.IntegratedCircuit{
		Items: []sim.Item{
			{ID: in, Type: sim.TypeInput, PortIDs: []string{in}},
			{ID: not, Type: sim.TypeLogicGate, Subtype: "NOT", PortIDs: []string{not + ".in", not}},
			{ID: out, Type: sim.TypeOutput, PortIDs: []string{out}},
		},
		Connections: []sim.Connection{wire(in, not+".in"), wire(not, out)},
		Ports: map[string]sim.Port{
			in:          {ID: in, Type: sim.PortOutput},
			not + ".in": {ID: not + ".in", Type: sim.PortInput},
			not:         {ID: not, Type: sim.PortOutput},
			out:         {ID: out, Type: sim.PortInput},
		},
	}
	return part{
		sim.Item{ID: id, Type: sim.TypeIntegratedCircuit, PortIDs: []string{in, out}, Circuit: ic},
		nil,
	}
}

func TestSimulation_integratedCircuit(t *testing.T) {
	s := newSim(t, nil)
	build(t, s,
		[]part{swtch("a", U), icInverter("inv"), lamp("y")},
		wire("a", "inv.in"), wire("inv.out", "y"))

	n := s.Network()
	s.Pause()
	s.SetPortValue("a", T)
	if err := n.Next(); err != nil {
		t.Fatal(err)
	}
	// the whole interior resolves within a single tick
	expect(t, s, map[string]trisim.Value{"inv.in": T, "inv.not": F, "inv.out": F})
	if n.Pending() != 1 {
		t.Errorf("%d nodes pending, expected the output lamp only", n.Pending())
	}
	s.Unpause()
	expect(t, s, map[string]trisim.Value{"y": F})

	s.SetPortValue("a", F)
	expect(t, s, map[string]trisim.Value{"inv.not": T, "y": T})

	s.RemoveNode(icInverter("inv").item)
	if n.Len() != 2 {
		t.Fatalf("%d nodes left, expected 2", n.Len())
	}
	expect(t, s, map[string]trisim.Value{"y": U})
	if _, ok := s.Values()["inv.not"]; ok {
		t.Error("inner port not removed")
	}
}

// icDoubleInverter nests two icInverter circuits.
func icDoubleInverter(id string) part {
	in, out := id+".in", id+".out"
	i0, i1 := icInverter(id+".i0"), icInverter(id+".i1")
	ic := &sim.IntegratedCircuit{
		Items: []sim.Item{
			{ID: in, Type: sim.TypeInput, PortIDs: []string{in}},
			i0.item,
			i1.item,
			{ID: out, Type: sim.TypeOutput, PortIDs: []string{out}},
		},
		Connections: []sim.Connection{
			wire(in, id+".i0.in"),
			wire(id+".i0.out", id+".i1.in"),
			wire(id+".i1.out", out),
		},
		Ports: map[string]sim.Port{
			in:  {ID: in, Type: sim.PortOutput},
			out: {ID: out, Type: sim.PortInput},
		},
	}
	return part{
		sim.Item{ID: id, Type: sim.TypeIntegratedCircuit, PortIDs: []string{in, out}, Circuit: ic},
		nil,
	}
}

func TestSimulation_nestedIntegratedCircuit(t *testing.T) {
	s := newSim(t, nil)
	build(t, s,
		[]part{swtch("a", T), icDoubleInverter("dbl"), lamp("y")},
		wire("a", "dbl.in"), wire("dbl.out", "y"))

	n := s.Network()
	// switch, 2 pins, 2 times 3 inner nodes, lamp
	simtest.DemandEquality(t, n.Len(), 10, "nodes")
	expect(t, s, map[string]trisim.Value{"dbl.i0.not": F, "dbl.i1.not": T, "y": T})

	s.SetPortValue("a", F)
	expect(t, s, map[string]trisim.Value{"dbl.i0.not": T, "dbl.i1.not": F, "y": F})

	s.RemoveNode(icDoubleInverter("dbl").item)
	simtest.DemandEquality(t, n.Len(), 2, "nodes left")
	expect(t, s, map[string]trisim.Value{"y": U})
	for _, pid := range []string{"dbl.in", "dbl.i0.not", "dbl.i1.out"} {
		if _, ok := s.Values()[pid]; ok {
			t.Errorf("inner port %s not removed", pid)
		}
	}
}

func TestSimulation_badItems(t *testing.T) {
	s := newSim(t, nil)
	p := gate("g", "DFF", 2)
	simtest.ExpectFailure(t, s.AddNode(p.item, p.ports), "unknown gate")
	p = gate("g", "INPUT", 1)
	simtest.ExpectFailure(t, s.AddNode(p.item, p.ports), "non gate subtype")
	p = part{sim.Item{ID: "w", Type: "Wire", PortIDs: []string{"w"}}, map[string]sim.Port{"w": {ID: "w"}}}
	simtest.ExpectFailure(t, s.AddNode(p.item, p.ports), "unknown item type")
	ic := icInverter("ic")
	ic.item.PortIDs = append(ic.item.PortIDs, "ic.not")
	simtest.ExpectFailure(t, s.AddIntegratedCircuit(ic.item), "non pin port")
	simtest.ExpectSuccess(t, s.AddNode(sim.Item{ID: "empty"}, nil), "item without ports")
	simtest.ExpectEquality(t, s.Network().Len(), 0, "nodes")
	// connections to unknown ports are ignored
	s.AddConnection(wire("nope", "nada"))
	s.RemoveConnection(wire("nope", "nada"))
}

func TestSimulation_RemoveConnection(t *testing.T) {
	s := newSim(t, nil)
	build(t, s,
		[]part{swtch("a", T), gate("n", "NOT", 1)},
		wire("a", "n.a"))
	expect(t, s, map[string]trisim.Value{"n.a": T, "n": F})
	s.RemoveConnection(wire("a", "n.a"))
	expect(t, s, map[string]trisim.Value{"n.a": U, "n": U})
}

func TestSimulation_infiniteLoop(t *testing.T) {
	var errs []error
	cfg := sim.DefaultConfig()
	cfg.MaxIterations = 50
	cfg.OnError = func(err error) { errs = append(errs, err) }
	s := sim.New(cfg)
	build(t, s,
		[]part{swtch("a", T), gate("x", "NAND", 2)},
		wire("a", "x.a"), wire("x", "x.b"))
	if len(errs) == 0 {
		t.Fatal("oscillator not detected")
	}
	if errors.Cause(errs[0]) != trisim.ErrInfiniteLoop {
		t.Fatalf("unexpected error %v", errs[0])
	}
}

func TestSimulation_monitor(t *testing.T) {
	var osc scope.Oscillogram
	var changes int
	cfg := sim.DefaultConfig()
	cfg.Log = nil
	cfg.OnChange = func(_ map[string]trisim.Value, o scope.Oscillogram) {
		changes++
		osc = o
	}
	s := sim.New(cfg)

	clk := swtch("clk", F)
	clk.item.Subtype = sim.SubtypeClock
	clk.item.Properties = map[string]string{sim.PropInterval: "100"}
	p := clk.ports["clk"]
	p.IsMonitored = true
	clk.ports["clk"] = p
	build(t, s, []part{clk, gate("n", "NOT", 1)}, wire("clk", "n.a"))
	s.MonitorPort("n")

	s.Tick(50 * time.Millisecond)
	expect(t, s, map[string]trisim.Value{"clk": F, "n": T})
	s.Tick(50 * time.Millisecond)
	expect(t, s, map[string]trisim.Value{"clk": T, "n": F})
	s.Tick(100 * time.Millisecond)
	expect(t, s, map[string]trisim.Value{"clk": F, "n": T})

	o := s.Oscillogram()
	if len(o) != 2 || o["clk"].Width != 3 || o["n"].Width != 3 {
		t.Fatalf("unexpected oscillogram %v", o)
	}
	if w := s.Wave("clk"); w == nil || w.Points() != "0,1 1,1 1,0 2,0 2,1 3,1" {
		t.Fatalf("unexpected clock trace %v", o["clk"])
	}

	// paused: clocks and traces are frozen
	s.Pause()
	s.Tick(time.Second)
	expect(t, s, map[string]trisim.Value{"clk": F})
	if s.Oscillogram()["clk"].Width != 3 {
		t.Fatal("trace grew while paused")
	}
	s.Unpause()

	changes = 0
	s.UnmonitorPort("n")
	if changes != 1 {
		t.Fatalf("%d change notifications on unmonitor, expected 1", changes)
	}
	if _, ok := osc["n"]; ok || len(osc) != 1 {
		t.Fatalf("unmonitored port still broadcast: %v", osc)
	}
}

func TestSimulation_Reset(t *testing.T) {
	s := newSim(t, nil)
	build(t, s,
		[]part{swtch("a", T), gate("n", "NOT", 1)},
		wire("a", "n.a"))
	s.Reset()
	for pid, v := range s.Values() {
		if v != U {
			t.Errorf("%s = %v after reset", pid, v)
		}
	}
	s.SetPortValue("a", F)
	expect(t, s, map[string]trisim.Value{"n": T})
}
