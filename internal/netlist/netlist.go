// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlist parses line oriented circuit descriptions.
//
// Each line holds one statement:
//
//	switch NAME [VALUE]        switch input, VALUE is 0, 1 or x (default 0)
//	clock NAME [INTERVAL]      clock input, INTERVAL in milliseconds
//	GATE NAME IN...            logic gate (and, or, nand, nor, not, xor, xnor)
//	buffer NAME IN             buffer
//	output NAME IN             output, "lamp" is an alias
//	monitor NAME...            record the waveform of the named ports
//	chip NAME IN... -> OUT...  start a chip definition, closed by "end"
//	CHIP NAME IN...            chip instance
//
// Gate inputs get the port ids NAME.0, NAME.1, ... and the gate output the
// port id NAME. The pins of a chip instance are named INSTANCE.PIN and the
// items in its body are prefixed with "INSTANCE.". Comments start with '#'.
//
// Statement keywords and chip names are case insensitive. A chip body may
// instantiate other chips, but not recursively.
//
package netlist

import (
	"io"
	"strconv"
	"strings"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/sim"
	"github.com/pkg/errors"
)

// Netlist is a parsed circuit.
//
type Netlist struct {
	Items       []sim.Item
	Ports       map[string]sim.Port
	Connections []sim.Connection
	Monitored   []string
}

type chip struct {
	Pos
	name string
	ins  []string
	outs []string
	body []statement
}

type parser struct {
	chips  map[string]*chip
	active map[string]bool // chips being instantiated
	ports map[string]bool // every port id, across scopes
}

// scope collects the items of the top level circuit or of a chip instance.
type scope struct {
	prefix  string
	chip    *chip
	items   []sim.Item
	ports   map[string]sim.Port
	conns   []sim.Connection
	refs    []ref
	drivers map[string]bool
	outputs map[string]bool
	monitor []ref
}

// ref is a named reference, checked once the whole scope is known.
type ref struct {
	Pos
	id string
}

func newScope(prefix string, c *chip) *scope {
	return &scope{
		prefix:  prefix,
		chip:    c,
		ports:   make(map[string]sim.Port),
		drivers: make(map[string]bool),
		outputs: make(map[string]bool),
	}
}

// Parse reads a netlist from r.
//
func Parse(r io.Reader) (*Netlist, error) {
	stmts, err := lex(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		chips:  make(map[string]*chip),
		active: make(map[string]bool),
		ports:  make(map[string]bool),
	}
	top := newScope("", nil)
	for i := 0; i < len(stmts); i++ {
		st := &stmts[i]
		switch st.keyword() {
		case "chip":
			c, err := p.chipHeader(st)
			if err != nil {
				return nil, err
			}
			for i++; i < len(stmts) && stmts[i].keyword() != "end"; i++ {
				if stmts[i].keyword() == "chip" {
					return nil, parseError(stmts[i].Pos, "nested chip definition")
				}
				c.body = append(c.body, stmts[i])
			}
			if i == len(stmts) {
				return nil, parseError(c.Pos, "chip %q: missing end", c.name)
			}
			p.chips[c.name] = c
		case "end":
			return nil, parseError(st.Pos, "end without chip")
		default:
			if err = p.statement(top, st); err != nil {
				return nil, err
			}
		}
	}
	if err = p.checkRefs(top); err != nil {
		return nil, err
	}
	var mon []string
	for _, r := range top.monitor {
		if !p.ports[r.id] {
			return nil, parseError(r.Pos, "monitor: unknown port %q", r.id)
		}
		if pt, ok := top.ports[r.id]; ok {
			pt.IsMonitored = true
			top.ports[r.id] = pt
		}
		mon = append(mon, r.id)
	}
	return &Netlist{
		Items:       top.items,
		Ports:       top.ports,
		Connections: top.conns,
		Monitored:   mon,
	}, nil
}

func (p *parser) chipHeader(st *statement) (*chip, error) {
	args := st.args()
	if len(args) == 0 {
		return nil, parseError(st.Pos, "missing chip name")
	}
	// statement keywords are case insensitive
	name := strings.ToLower(args[0].Value)
	if _, ok := p.chips[name]; ok {
		return nil, parseError(args[0].Pos, "chip %q redefined", name)
	}
	if _, err := trisim.ParseKind(name); err == nil || isKeyword(name) {
		return nil, parseError(args[0].Pos, "reserved chip name %q", name)
	}
	c := &chip{Pos: st.Pos, name: name}
	outs := false
	for _, t := range args[1:] {
		switch {
		case t.Value == "->":
			if outs {
				return nil, parseError(t.Pos, "unexpected ->")
			}
			outs = true
		case outs:
			c.outs = append(c.outs, t.Value)
		default:
			c.ins = append(c.ins, t.Value)
		}
	}
	if len(c.outs) == 0 {
		return nil, parseError(st.Pos, "chip %q has no outputs", name)
	}
	return c, nil
}

func isKeyword(s string) bool {
	switch s {
	case "switch", "clock", "buffer", "output", "lamp", "monitor", "chip", "end":
		return true
	}
	return false
}

// declare registers port id in scope s.
func (p *parser) declare(s *scope, pos Pos, id string, pt sim.Port) error {
	if p.ports[id] {
		return parseError(pos, "duplicate name %q", id)
	}
	p.ports[id] = true
	pt.ID = id
	s.ports[id] = pt
	return nil
}

func (p *parser) connect(s *scope, src token, target string) {
	id := s.prefix + src.Value
	s.refs = append(s.refs, ref{src.Pos, id})
	s.conns = append(s.conns, sim.Connection{Source: id, Target: target})
}

func (p *parser) checkRefs(s *scope) error {
	for _, r := range s.refs {
		if !s.drivers[r.id] {
			return parseError(r.Pos, "undefined signal %q", r.id)
		}
	}
	return nil
}

func (p *parser) name(s *scope, st *statement, nargs int, exact bool) (string, []token, error) {
	args := st.args()
	if len(args) == 0 {
		return "", nil, parseError(st.Pos, "%s: missing name", st.keyword())
	}
	in := args[1:]
	if len(in) < nargs || exact && len(in) != nargs {
		return "", nil, parseError(st.Pos, "%s %s: wrong argument count %d", st.keyword(), args[0].Value, len(in))
	}
	for _, t := range args {
		if t.Value == "->" {
			return "", nil, parseError(t.Pos, "unexpected ->")
		}
	}
	return s.prefix + args[0].Value, in, nil
}

func (p *parser) statement(s *scope, st *statement) error {
	kw := st.keyword()
	switch kw {
	case "switch", "clock":
		id, args, err := p.name(s, st, 0, false)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			return parseError(args[1].Pos, "unexpected %q", args[1].Value)
		}
		it := sim.Item{ID: id, Type: sim.TypeInput, Subtype: sim.SubtypeSwitch, PortIDs: []string{id}}
		pt := sim.Port{Type: sim.PortOutput, Value: trisim.False}
		if kw == "clock" {
			it.Subtype = sim.SubtypeClock
			if len(args) > 0 {
				if ms, err := strconv.Atoi(args[0].Value); err != nil || ms <= 0 {
					return parseError(args[0].Pos, "invalid clock interval %q", args[0].Value)
				}
				it.Properties = map[string]string{sim.PropInterval: args[0].Value}
			}
		} else if len(args) > 0 {
			v, err := parseValue(args[0].Value)
			if err != nil {
				return parseError(args[0].Pos, "%v", err)
			}
			pt.Value = v
		}
		if err = p.declare(s, st.Pos, id, pt); err != nil {
			return err
		}
		s.drivers[id] = true
		s.items = append(s.items, it)

	case "output", "lamp":
		id, args, err := p.name(s, st, 1, true)
		if err != nil {
			return err
		}
		if s.chip != nil && !contains(s.chip.outs, st.args()[0].Value) {
			return parseError(st.Pos, "output %q not declared by chip %q", st.args()[0].Value, s.chip.name)
		}
		if err = p.declare(s, st.Pos, id, sim.Port{Type: sim.PortInput}); err != nil {
			return err
		}
		s.outputs[st.args()[0].Value] = true
		s.items = append(s.items, sim.Item{ID: id, Type: sim.TypeOutput, PortIDs: []string{id}})
		p.connect(s, args[0], id)

	case "monitor":
		if s.chip != nil {
			return parseError(st.Pos, "monitor in chip %q", s.chip.name)
		}
		if len(st.args()) == 0 {
			return parseError(st.Pos, "monitor: missing port name")
		}
		for _, t := range st.args() {
			s.monitor = append(s.monitor, ref{t.Pos, t.Value})
		}

	default:
		if c, ok := p.chips[kw]; ok {
			return p.instance(s, st, c)
		}
		k, err := trisim.ParseKind(kw)
		if err != nil || k == trisim.Input || k == trisim.Output {
			return parseError(st.Pos, "unknown statement %q", kw)
		}
		n, exact := 1, k == trisim.Not || k == trisim.Buffer
		id, args, err := p.name(s, st, n, exact)
		if err != nil {
			return err
		}
		typ := sim.TypeLogicGate
		if k == trisim.Buffer {
			typ = sim.TypeBuffer
		}
		it := sim.Item{ID: id, Type: typ, Subtype: k.String()}
		for i := range args {
			pid := id + "." + strconv.Itoa(i)
			if err = p.declare(s, args[i].Pos, pid, sim.Port{Type: sim.PortInput}); err != nil {
				return err
			}
			it.PortIDs = append(it.PortIDs, pid)
			p.connect(s, args[i], pid)
		}
		if err = p.declare(s, st.Pos, id, sim.Port{Type: sim.PortOutput}); err != nil {
			return err
		}
		it.PortIDs = append(it.PortIDs, id)
		s.drivers[id] = true
		s.items = append(s.items, it)
	}
	return nil
}

func (p *parser) instance(s *scope, st *statement, c *chip) error {
	if p.active[c.name] {
		return parseError(st.Pos, "recursive instantiation of chip %q", c.name)
	}
	p.active[c.name] = true
	defer delete(p.active, c.name)
	id, args, err := p.name(s, st, len(c.ins), true)
	if err != nil {
		return err
	}
	inner := newScope(id+".", c)
	it := sim.Item{ID: id, Type: sim.TypeIntegratedCircuit}
	for i, in := range c.ins {
		pid := inner.prefix + in
		if err = p.declare(inner, st.Pos, pid, sim.Port{Type: sim.PortOutput}); err != nil {
			return err
		}
		inner.drivers[pid] = true
		inner.items = append(inner.items, sim.Item{ID: pid, Type: sim.TypeInput, PortIDs: []string{pid}})
		it.PortIDs = append(it.PortIDs, pid)
		p.connect(s, args[i], pid)
	}
	for i := range c.body {
		if err = p.statement(inner, &c.body[i]); err != nil {
			return errors.Wrapf(err, "in chip %q instantiated at line %d", c.name, st.Line)
		}
	}
	if err = p.checkRefs(inner); err != nil {
		return errors.Wrapf(err, "in chip %q instantiated at line %d", c.name, st.Line)
	}
	for _, out := range c.outs {
		if !inner.outputs[out] {
			return parseError(c.Pos, "chip %q: output %q is not driven", c.name, out)
		}
		pid := inner.prefix + out
		it.PortIDs = append(it.PortIDs, pid)
		s.drivers[pid] = true
	}
	it.Circuit = &sim.IntegratedCircuit{
		Items:       inner.items,
		Connections: inner.conns,
		Ports:       inner.ports,
	}
	s.items = append(s.items, it)
	return nil
}

func parseValue(s string) (trisim.Value, error) {
	switch s {
	case "0", "false", "FALSE":
		return trisim.False, nil
	case "1", "true", "TRUE":
		return trisim.True, nil
	case "x", "X":
		return trisim.Unknown, nil
	}
	return trisim.Unknown, errors.Errorf("invalid value %q", s)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Load adds the netlist to a simulation.
//
func (n *Netlist) Load(s *sim.Simulation) error {
	for _, it := range n.Items {
		if err := s.AddNode(it, n.Ports); err != nil {
			return err
		}
	}
	for _, c := range n.Connections {
		s.AddConnection(c)
	}
	for _, id := range n.Monitored {
		s.MonitorPort(id)
	}
	return nil
}
