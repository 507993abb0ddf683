// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trisim

import (
	"github.com/pkg/errors"
)

// ErrInfiniteLoop is the cause of errors reported when a network does not
// settle within the configured evaluation bounds.
//
var ErrInfiniteLoop = errors.New("INFINITE_LOOP")

// Default evaluation bounds of a new Network.
//
const (
	DefaultMaxEvaluations = 1 << 16
	DefaultMaxForceDepth  = 256
)

// An Observer is notified whenever a node's projected or committed value is
// recomputed.
//
type Observer interface {
	NodeChanged(id NodeID, v Value)
}

// ObserverFunc adapts a function to the Observer interface.
//
type ObserverFunc func(id NodeID, v Value)

// NodeChanged implements Observer.
//
func (f ObserverFunc) NodeChanged(id NodeID, v Value) { f(id, v) }

// Network is a graph of nodes evaluated under tri-state logic.
//
// Nodes are stored in an arena and addressed by NodeID. Pending evaluations
// are kept in a de-duplicated FIFO queue that Next drains one tick at a time.
//
// A Network is not safe for concurrent use.
//
type Network struct {
	// MaxEvaluations bounds the number of node evaluations within a single
	// call to Next. Values <= 0 disable the check.
	MaxEvaluations int
	// MaxForceDepth bounds the recursion into force-continue successors.
	// Successors beyond this depth are deferred like ordinary nodes.
	MaxForceDepth int

	nodes  []*Node // removed nodes leave a nil slot
	inputs []NodeID
	queue  []NodeID
	queued map[NodeID]bool
	obs    Observer
	dirty  bool // a node committed a new value during the current tick
}

// NewNetwork returns a new empty network with default evaluation bounds.
//
func NewNetwork() *Network {
	return &Network{
		MaxEvaluations: DefaultMaxEvaluations,
		MaxForceDepth:  DefaultMaxForceDepth,
		queued:         make(map[NodeID]bool),
	}
}

// SetObserver sets the observer notified of node value changes. A nil
// observer disables notifications.
//
func (n *Network) SetObserver(o Observer) {
	n.obs = o
}

func (n *Network) notify(id NodeID, v Value) {
	if n.obs != nil {
		n.obs.NodeChanged(id, v)
	}
}

// Node returns the node with the given id or nil if there is no such node.
//
func (n *Network) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(n.nodes) {
		return nil
	}
	return n.nodes[id]
}

// Len returns the number of live nodes.
//
func (n *Network) Len() int {
	cnt := 0
	for _, nd := range n.nodes {
		if nd != nil {
			cnt++
		}
	}
	return cnt
}

// IDs returns the ids of all live nodes in creation order.
//
func (n *Network) IDs() []NodeID {
	ids := make([]NodeID, 0, len(n.nodes))
	for i, nd := range n.nodes {
		if nd != nil {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Inputs returns the ids of externally driven nodes.
//
func (n *Network) Inputs() []NodeID {
	return append([]NodeID(nil), n.inputs...)
}

// AddNode adds nd to the network and returns its id. Input nodes are
// enqueued so that they get evaluated at least once.
//
func (n *Network) AddNode(nd *Node) NodeID {
	if nd.inputs == nil {
		nd.inputs = make(map[string]Value)
	}
	if nd.Kind == Buffer {
		nd.ForceContinue = true
	}
	id := NodeID(len(n.nodes))
	n.nodes = append(n.nodes, nd)
	if nd.Kind == Input {
		n.inputs = append(n.inputs, id)
		n.Enqueue(id)
	}
	return id
}

// RemoveNode disconnects and removes a node, then runs one tick so that the
// removal propagates.
//
func (n *Network) RemoveNode(id NodeID) error {
	nd := n.Node(id)
	if nd == nil {
		return nil
	}
	for len(nd.outputs) > 0 {
		e := nd.outputs[0]
		n.RemoveConnection(id, e.Target, e.Port, Unknown)
	}
	// drop dangling edges into nd
	for _, src := range n.nodes {
		if src == nil || src == nd {
			continue
		}
		kept := src.outputs[:0]
		for _, e := range src.outputs {
			if e.Target != id {
				kept = append(kept, e)
			}
		}
		src.outputs = kept
	}
	for i, in := range n.inputs {
		if in == id {
			n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
			break
		}
	}
	n.unqueue(id)
	n.nodes[id] = nil
	return n.Next()
}

// AddConnection connects the output of src to the input port of dst.
//
// The committed value of src is reset to v. If v is Unknown, src is
// enqueued so that its current value gets pushed through the new edge.
// Connections referring to missing nodes are ignored.
//
func (n *Network) AddConnection(src, dst NodeID, port string, v Value) {
	s, t := n.Node(src), n.Node(dst)
	if s == nil || t == nil {
		return
	}
	s.outputs = append(s.outputs, Edge{Target: dst, Port: port})
	if t.Kind == Buffer {
		port = bufferSlot
	}
	if _, ok := t.inputs[port]; !ok {
		t.inputs[port] = Unknown
	}
	s.value = v
	if !v.Known() {
		n.Enqueue(src)
	}
}

// RemoveConnection removes the edges from src to the input port of dst. An
// empty port matches all edges from src to dst. The affected inputs of dst
// are reset to v and dst is enqueued.
//
func (n *Network) RemoveConnection(src, dst NodeID, port string, v Value) {
	s, t := n.Node(src), n.Node(dst)
	if s == nil || t == nil {
		return
	}
	removed := false
	kept := s.outputs[:0]
	for _, e := range s.outputs {
		if e.Target == dst && (port == "" || e.Port == port) {
			n.update(dst, v, e.Port)
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.outputs = kept
	if removed {
		n.Enqueue(dst)
	}
}

// SetValue stages v as the pending value of node id. It has no other side
// effect: the node must be enqueued for the value to propagate.
//
func (n *Network) SetValue(id NodeID, v Value) {
	if nd := n.Node(id); nd != nil {
		nd.newValue = v
	}
}

// Value returns the committed value of node id.
//
func (n *Network) Value(id NodeID) Value {
	if nd := n.Node(id); nd != nil {
		return nd.value
	}
	return Unknown
}

// Projected returns the projected value of node id. See Node.Projected.
//
func (n *Network) Projected(id NodeID) Value {
	if nd := n.Node(id); nd != nil {
		return nd.Projected()
	}
	return Unknown
}

// update records v on the input port of node id, recomputes its pending
// value and notifies the observer.
//
func (n *Network) update(id NodeID, v Value, port string) {
	nd := n.nodes[id]
	nd.setInput(port, v)
	if nd.Kind != Input {
		nd.newValue = nd.Eval()
	}
	n.notify(id, nd.newValue)
}

// propagate commits the pending value of node id and pushes it to its
// successors. It returns the nodes that still need evaluation: successors
// that force continuation are propagated recursively, the others are
// returned as is.
//
func (n *Network) propagate(id NodeID, depth int) []NodeID {
	nd := n.nodes[id]
	if nd.value == nd.newValue {
		nd.changed = false
		return nil
	}
	nd.value = nd.newValue
	nd.changed = true
	n.dirty = true
	n.notify(id, nd.value)

	var pending []NodeID
	for _, e := range nd.outputs {
		n.update(e.Target, nd.value, e.Port)
		if n.nodes[e.Target].ForceContinue && depth < n.MaxForceDepth {
			pending = append(pending, n.propagate(e.Target, depth+1)...)
		} else {
			pending = append(pending, e.Target)
		}
	}
	return pending
}

// Enqueue adds node id to the evaluation queue unless already queued.
//
func (n *Network) Enqueue(id NodeID) {
	if n.Node(id) == nil || n.queued[id] {
		return
	}
	n.queued[id] = true
	n.queue = append(n.queue, id)
}

func (n *Network) dequeue() NodeID {
	id := n.queue[0]
	n.queue = n.queue[1:]
	delete(n.queued, id)
	return id
}

func (n *Network) unqueue(id NodeID) {
	if !n.queued[id] {
		return
	}
	delete(n.queued, id)
	for i, q := range n.queue {
		if q == id {
			n.queue = append(n.queue[:i], n.queue[i+1:]...)
			return
		}
	}
}

func (n *Network) clearQueue() {
	n.queue = n.queue[:0]
	for id := range n.queued {
		delete(n.queued, id)
	}
}

// Pending returns the number of queued nodes.
//
func (n *Network) Pending() int {
	return len(n.queue)
}

// Next runs one settle tick.
//
// The queue is drained in FIFO order and each node propagated. Successors
// returned by propagation are collected in a tick-local list. When the node
// just propagated forces continuation, that list is flushed back into the
// queue immediately so that forced chains resolve within the tick. Once the
// queue is empty, the remaining list is enqueued for the next tick if any
// node changed.
//
// Next returns an error with cause ErrInfiniteLoop if the tick exceeds
// MaxEvaluations node evaluations. The queue is left as is in that case.
//
func (n *Network) Next() error {
	var pending []NodeID
	n.dirty = false
	evals := 0
	for len(n.queue) > 0 {
		id := n.dequeue()
		nd := n.nodes[id]
		evals++
		if n.MaxEvaluations > 0 && evals > n.MaxEvaluations {
			n.Enqueue(id)
			return errors.Wrapf(ErrInfiniteLoop, "node %q evaluated after %d evaluations", nd.Name, n.MaxEvaluations)
		}
		pending = append(pending, n.propagate(id, 0)...)
		if nd.ForceContinue {
			for _, p := range pending {
				n.Enqueue(p)
			}
			pending = pending[:0]
		}
	}
	if n.dirty {
		for _, p := range pending {
			n.Enqueue(p)
		}
	}
	return nil
}

// IsComplete returns true if the network has settled, that is if every
// queued node already projects its committed value. Output nodes are not
// checked. If the network has settled, the queue is cleared.
//
func (n *Network) IsComplete() bool {
	for _, id := range n.queue {
		nd := n.nodes[id]
		if nd.Kind == Output {
			continue
		}
		if nd.Projected() != nd.value {
			return false
		}
	}
	n.clearQueue()
	return true
}

// ResetNode forces the committed and pending values of node id to Unknown.
//
func (n *Network) ResetNode(id NodeID) {
	nd := n.Node(id)
	if nd == nil {
		return
	}
	nd.value = Unknown
	nd.newValue = Unknown
	n.notify(id, Unknown)
}

// Reset resets every node to Unknown.
//
func (n *Network) Reset() {
	for i, nd := range n.nodes {
		if nd != nil {
			n.ResetNode(NodeID(i))
		}
	}
}
