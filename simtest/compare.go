// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/sim"
)

// maxExhaustive is the maximum number of inputs for which all input
// combinations are tried. Larger parts get that many random combinations.
const maxExhaustive = 12

// A Part is an item under test along with the descriptors of its ports.
// Inputs and Outputs list the port ids that CompareParts drives and checks,
// in order.
//
type Part struct {
	Item    sim.Item
	Ports   map[string]sim.Port
	Inputs  []string
	Outputs []string
}

func inputID(i int) string {
	return "simtest.in" + strconv.Itoa(i)
}

// load builds a simulation of p with one switch per input.
func load(t *testing.T, p Part) *sim.Simulation {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Log = nil
	cfg.OnError = func(err error) { t.Fatalf("%s: %+v", p.Item.ID, err) }
	s := sim.New(cfg)
	for i := range p.Inputs {
		id := inputID(i)
		err := s.AddNode(sim.Item{ID: id, Type: sim.TypeInput, Subtype: sim.SubtypeSwitch, PortIDs: []string{id}},
			map[string]sim.Port{id: {ID: id, Type: sim.PortOutput, Value: trisim.False}})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddNode(p.Item, p.Ports); err != nil {
		t.Fatalf("%+v", err)
	}
	for i, in := range p.Inputs {
		s.AddConnection(sim.Connection{Source: inputID(i), Target: in})
	}
	return s
}

// CompareParts drives two parts with identical inputs and reports any
// difference in their outputs. Both parts must have the same number of
// inputs and outputs.
//
func CompareParts(t *testing.T, ref, dut Part) {
	t.Helper()
	DemandEquality(t, len(dut.Inputs), len(ref.Inputs), "input count")
	DemandEquality(t, len(dut.Outputs), len(ref.Outputs), "output count")

	s1, s2 := load(t, ref), load(t, dut)
	inputs := make([]bool, len(ref.Inputs))

	errString := func(i int) string {
		var b strings.Builder
		for n, in := range inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ref.Inputs[n])
			b.WriteRune('=')
			b.WriteString(strconv.FormatBool(in))
		}
		return b.String() + " => " + ref.Outputs[i]
	}

	check := func() {
		t.Helper()
		for i, v := range inputs {
			s1.SetPortValue(inputID(i), trisim.FromBool(v))
			s2.SetPortValue(inputID(i), trisim.FromBool(v))
		}
		for i := range ref.Outputs {
			v1, v2 := s1.Value(ref.Outputs[i]), s2.Value(dut.Outputs[i])
			if v1 != v2 {
				t.Fatalf("%s\nexpected %v, got %v", errString(i), v1, v2)
			}
		}
	}

	if len(inputs) <= maxExhaustive {
		for n := 0; n < 1<<uint(len(inputs)); n++ {
			for bit := range inputs {
				inputs[len(inputs)-bit-1] = n&(1<<uint(bit)) != 0
			}
			check()
		}
		return
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for n := 0; n < 1<<maxExhaustive; n++ {
		for i := range inputs {
			inputs[i] = rnd.Int63()&(1<<62) != 0
		}
		check()
	}
}
