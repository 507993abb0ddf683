// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trisim

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// dumpNode is the shape of a node in graphviz dumps. Edges become pointers so
// that memviz draws them as arrows.
type dumpNode struct {
	ID      NodeID
	Name    string
	Kind    string
	Value   string
	Pending string
	Force   bool
	Inputs  map[string]string
	Outputs []*dumpNode
}

// Dump writes a graphviz (dot) rendering of the network to w.
//
func (n *Network) Dump(w io.Writer) {
	ds := make(map[NodeID]*dumpNode, len(n.nodes))
	var roots []*dumpNode
	for _, id := range n.IDs() {
		nd := n.nodes[id]
		d := &dumpNode{
			ID:      id,
			Name:    nd.Name,
			Kind:    nd.Kind.String(),
			Value:   nd.value.String(),
			Pending: nd.newValue.String(),
			Force:   nd.ForceContinue,
			Inputs:  make(map[string]string, len(nd.inputs)),
		}
		for p, v := range nd.inputs {
			d.Inputs[p] = v.String()
		}
		ds[id] = d
		roots = append(roots, d)
	}
	for id, d := range ds {
		for _, e := range n.nodes[id].outputs {
			d.Outputs = append(d.Outputs, ds[e.Target])
		}
	}
	memviz.Map(w, &roots)
}
