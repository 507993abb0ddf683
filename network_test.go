package trisim_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/simtest"
	"github.com/pkg/errors"
)

func settle(t *testing.T, n *trisim.Network) {
	t.Helper()
	for i := 0; n.Pending() > 0; i++ {
		if i > 100 {
			t.Fatal("network did not settle")
		}
		if err := n.Next(); err != nil {
			t.Fatalf("%+v", err)
		}
	}
}

func set(n *trisim.Network, id trisim.NodeID, v trisim.Value) {
	n.SetValue(id, v)
	n.Enqueue(id)
}

// orCircuit builds a -> or.a, b -> or.b, or -> out.
func orCircuit() (n *trisim.Network, a, b, or, out trisim.NodeID) {
	n = trisim.NewNetwork()
	a = n.AddNode(trisim.NewNode("a", trisim.Input))
	b = n.AddNode(trisim.NewNode("b", trisim.Input))
	or = n.AddNode(trisim.NewNode("or", trisim.Or, "a", "b"))
	out = n.AddNode(trisim.NewNode("out", trisim.Output, "in"))
	n.AddConnection(a, or, "a", U)
	n.AddConnection(b, or, "b", U)
	n.AddConnection(or, out, "in", U)
	return
}

func TestNetwork_or(t *testing.T) {
	n, a, b, or, out := orCircuit()
	data := []struct {
		a, b, out trisim.Value
	}{
		{T, U, T},
		{F, U, U},
		{F, F, F},
		{T, F, T},
	}
	for _, d := range data {
		set(n, a, d.a)
		set(n, b, d.b)
		settle(t, n)
		if v := n.Projected(out); v != d.out {
			t.Errorf("a=%v, b=%v: out = %v, expected %v", d.a, d.b, v, d.out)
		}
		if v := n.Value(or); v != d.out {
			t.Errorf("a=%v, b=%v: or = %v, expected %v", d.a, d.b, v, d.out)
		}
		if !n.IsComplete() {
			t.Error("settled network not complete")
		}
	}
}

func TestNetwork_idempotent(t *testing.T) {
	n, a, _, or, out := orCircuit()
	set(n, a, T)
	settle(t, n)

	var notified int
	n.SetObserver(trisim.ObserverFunc(func(trisim.NodeID, trisim.Value) { notified++ }))
	n.Enqueue(a)
	if err := n.Next(); err != nil {
		t.Fatal(err)
	}
	if n.Pending() != 0 {
		t.Errorf("%d nodes pending after settled tick", n.Pending())
	}
	if n.Value(or) != T || n.Value(out) != T {
		t.Error("values changed by a settled tick")
	}
	if notified != 0 {
		t.Errorf("%d notifications from a settled tick", notified)
	}
	if n.Node(a).Changed() {
		t.Error("input reported as changed")
	}
}

func TestNetwork_incomplete(t *testing.T) {
	n, a, _, _, _ := orCircuit()
	settle(t, n)
	set(n, a, T)
	if n.IsComplete() {
		t.Fatal("network with a pending input change reported complete")
	}
	settle(t, n)
	if !n.IsComplete() {
		t.Fatal("settled network not complete")
	}
}

func TestNetwork_forced(t *testing.T) {
	n := trisim.NewNetwork()
	a := n.AddNode(trisim.NewNode("a", trisim.Input))
	b1 := n.AddNode(trisim.NewNode("b1", trisim.Buffer, "in"))
	b2 := n.AddNode(trisim.NewNode("b2", trisim.Buffer, "in"))
	not := n.AddNode(trisim.NewNode("not", trisim.Not, "in"))
	n.AddConnection(a, b1, "in", U)
	n.AddConnection(b1, b2, "in", U)
	n.AddConnection(b2, not, "in", U)
	settle(t, n)

	set(n, a, T)
	if err := n.Next(); err != nil {
		t.Fatal(err)
	}
	if v := n.Value(b2); v != T {
		t.Errorf("forced chain not resolved in one tick: b2 = %v", v)
	}
	// the ordinary successor sees its new input within the same tick but
	// only commits on the next one.
	simtest.ExpectEquality(t, n.Node(not).Input("in"), T, "not input")
	simtest.ExpectEquality(t, n.Projected(not), F, "not projected")
	simtest.ExpectEquality(t, n.Value(not), U, "not committed")
	simtest.ExpectEquality(t, n.Pending(), 1, "pending")
	settle(t, n)
	simtest.ExpectEquality(t, n.Value(not), F, "not settled")
}

func TestNetwork_ticks(t *testing.T) {
	n := trisim.NewNetwork()
	a := n.AddNode(trisim.NewNode("a", trisim.Input))
	n1 := n.AddNode(trisim.NewNode("n1", trisim.Not, "in"))
	n2 := n.AddNode(trisim.NewNode("n2", trisim.Not, "in"))
	n.AddConnection(a, n1, "in", U)
	n.AddConnection(n1, n2, "in", U)
	settle(t, n)

	set(n, a, T)
	exp := [][2]trisim.Value{{U, U}, {F, U}, {F, T}}
	for i, e := range exp {
		if err := n.Next(); err != nil {
			t.Fatal(err)
		}
		if v1, v2 := n.Value(n1), n.Value(n2); v1 != e[0] || v2 != e[1] {
			t.Errorf("tick %d: n1, n2 = %v, %v, expected %v, %v", i, v1, v2, e[0], e[1])
		}
	}

	// a forcing input flushes its successors into the current tick.
	n.Node(a).ForceContinue = true
	set(n, a, F)
	if err := n.Next(); err != nil {
		t.Fatal(err)
	}
	if v1, v2 := n.Value(n1), n.Value(n2); v1 != T || v2 != T {
		t.Errorf("n1, n2 = %v, %v, expected TRUE, TRUE", v1, v2)
	}
}

func TestNetwork_RemoveConnection(t *testing.T) {
	n, a, _, or, _ := orCircuit()
	set(n, a, T)
	settle(t, n)

	n.RemoveConnection(a, or, "a", U)
	if v := n.Node(or).Input("a"); v != U {
		t.Errorf("input not reset: %v", v)
	}
	// not yet evaluated: projection falls back to the committed value
	if v := n.Projected(or); v != T {
		t.Errorf("projected = %v, expected TRUE", v)
	}
	settle(t, n)
	if v := n.Value(or); v != U {
		t.Errorf("or = %v, expected UNKNOWN", v)
	}
	if len(n.Node(a).Outputs()) != 0 {
		t.Error("edge not removed")
	}
}

func TestNetwork_RemoveNode(t *testing.T) {
	n, a, b, or, out := orCircuit()
	set(n, a, T)
	settle(t, n)

	if err := n.RemoveNode(or); err != nil {
		t.Fatal(err)
	}
	settle(t, n)
	if n.Node(or) != nil {
		t.Fatal("node still present")
	}
	if n.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", n.Len())
	}
	for _, id := range []trisim.NodeID{a, b} {
		if len(n.Node(id).Outputs()) != 0 {
			t.Errorf("dangling edge from %s", n.Node(id).Name)
		}
	}
	if v := n.Value(out); v != U {
		t.Errorf("out = %v, expected UNKNOWN", v)
	}

	// ids are not reused
	id := n.AddNode(trisim.NewNode("and", trisim.And, "a", "b"))
	if id == or {
		t.Error("node id reused")
	}
	if err := n.RemoveNode(a); err != nil {
		t.Fatal(err)
	}
	if ins := n.Inputs(); len(ins) != 1 || ins[0] != b {
		t.Errorf("Inputs() = %v", ins)
	}
}

func TestNetwork_infiniteLoop(t *testing.T) {
	n := trisim.NewNetwork()
	n.MaxEvaluations = 100
	a := n.AddNode(trisim.NewNode("a", trisim.Input))
	nand := trisim.NewNode("nand", trisim.Nand, "a", "y")
	nand.ForceContinue = true
	id := n.AddNode(nand)
	n.AddConnection(a, id, "a", U)
	n.AddConnection(id, id, "y", U)
	set(n, a, T)

	err := n.Next()
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Cause(err) != trisim.ErrInfiniteLoop {
		t.Fatalf("unexpected error %v", err)
	}
	if n.Pending() == 0 {
		t.Error("queue drained after runaway tick")
	}
}

func TestNetwork_Reset(t *testing.T) {
	n, a, _, or, out := orCircuit()
	set(n, a, T)
	settle(t, n)

	got := make(map[trisim.NodeID]trisim.Value)
	n.SetObserver(trisim.ObserverFunc(func(id trisim.NodeID, v trisim.Value) { got[id] = v }))
	n.Reset()
	for _, id := range []trisim.NodeID{a, or, out} {
		if n.Value(id) != U || n.Node(id).Pending() != U {
			t.Errorf("%s not reset", n.Node(id).Name)
		}
		if v, ok := got[id]; !ok || v != U {
			t.Errorf("%s: reset not notified", n.Node(id).Name)
		}
	}
}

func TestNetwork_Dump(t *testing.T) {
	n, a, _, _, _ := orCircuit()
	set(n, a, T)
	settle(t, n)
	var b bytes.Buffer
	n.Dump(&b)
	if !strings.Contains(b.String(), "digraph") {
		t.Errorf("unexpected dump output:\n%s", b.String())
	}
}
