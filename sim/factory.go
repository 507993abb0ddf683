// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"github.com/db47h/trisim"
	"github.com/pkg/errors"
)

// A Factory builds the network node of an item. ports holds the descriptors
// of the item's ports.
//
type Factory func(item *Item, ports map[string]Port) (*trisim.Node, error)

// DefaultFactory maps item types to node kinds:
//
//	Input:     trisim.Input (switches and clocks)
//	Output:    trisim.Output
//	Buffer:    trisim.Buffer
//	LogicGate: the gate kind named by the item's subtype
//
// The node gets one input slot per input port of the item.
//
func DefaultFactory(item *Item, ports map[string]Port) (*trisim.Node, error) {
	var k trisim.Kind
	switch item.Type {
	case TypeInput:
		k = trisim.Input
	case TypeOutput:
		k = trisim.Output
	case TypeBuffer:
		k = trisim.Buffer
	case TypeLogicGate:
		var err error
		if k, err = trisim.ParseKind(item.Subtype); err != nil {
			return nil, errors.Wrapf(err, "item %q", item.ID)
		}
		switch k {
		case trisim.Input, trisim.Output, trisim.Buffer:
			return nil, errors.Errorf("item %q: %s is not a logic gate", item.ID, k)
		}
	default:
		return nil, errors.Errorf("item %q: unsupported item type %q", item.ID, item.Type)
	}
	return trisim.NewNode(item.ID, k, inputPorts(item, ports)...), nil
}

func inputPorts(item *Item, ports map[string]Port) []string {
	var ins []string
	for _, id := range item.PortIDs {
		if p, ok := ports[id]; ok && p.Type == PortInput {
			ins = append(ins, id)
		}
	}
	return ins
}
