// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trisim

// NodeID is the stable index of a node in a Network. IDs are never reused.
//
type NodeID int

// None is an invalid NodeID.
//
const None NodeID = -1

// bufferSlot is the single input slot of Buffer nodes.
const bufferSlot = ""

// An Edge connects a node's output to the input port Port of node Target.
//
type Edge struct {
	Target NodeID
	Port   string
}

// A Node is the unit of simulation state: a set of input values, a committed
// output value and a pending one.
//
// The committed value only changes when the network propagates the node.
//
type Node struct {
	Name string
	Kind Kind
	// ForceContinue makes the network evaluate this node's successors in the
	// same tick instead of deferring them to the next one.
	ForceContinue bool

	inputs   map[string]Value
	value    Value
	newValue Value
	changed  bool
	outputs  []Edge
}

// NewNode returns a new node of the given kind with its input ports set to
// Unknown. Buffer nodes always force continuation and ignore port names.
//
func NewNode(name string, k Kind, inputs ...string) *Node {
	n := &Node{
		Name:   name,
		Kind:   k,
		inputs: make(map[string]Value, len(inputs)),
	}
	if k == Buffer {
		n.ForceContinue = true
		if len(inputs) > 0 {
			n.inputs[bufferSlot] = Unknown
		}
		return n
	}
	for _, in := range inputs {
		n.inputs[in] = Unknown
	}
	return n
}

// Value returns the committed value of n.
//
func (n *Node) Value() Value { return n.value }

// Pending returns the value staged for the next commit.
//
func (n *Node) Pending() Value { return n.newValue }

// Changed reports whether the last propagation of n committed a new value.
//
func (n *Node) Changed() bool { return n.changed }

// Input returns the value currently present on input port.
//
func (n *Node) Input(port string) Value {
	if n.Kind == Buffer {
		port = bufferSlot
	}
	return n.inputs[port]
}

// Outputs returns a copy of the outgoing edges of n.
//
func (n *Node) Outputs() []Edge {
	return append([]Edge(nil), n.outputs...)
}

// Eval applies the node's rule to its current inputs.
//
func (n *Node) Eval() Value {
	return n.Kind.Eval(n.inputs)
}

// Projected returns the value n would settle to if evaluated now: the result
// of Eval if known, else the pending value if known, else the committed one.
//
func (n *Node) Projected() Value {
	if v := n.Eval(); v.Known() {
		return v
	}
	if n.newValue.Known() {
		return n.newValue
	}
	return n.value
}

func (n *Node) setInput(port string, v Value) {
	if n.Kind == Buffer {
		port = bufferSlot
	}
	n.inputs[port] = v
}
