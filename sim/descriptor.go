// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import "github.com/db47h/trisim"

// PortType is the direction of a port.
//
type PortType uint8

// Port directions.
//
const (
	PortInput PortType = iota
	PortOutput
)

func (t PortType) String() string {
	if t == PortOutput {
		return "Output"
	}
	return "Input"
}

// Port describes a connection point of an item.
//
type Port struct {
	ID          string
	Type        PortType
	Value       trisim.Value
	IsMonitored bool
	Hue         int
}

// Connection is a wire from an output port to an input port.
//
type Connection struct {
	Source string
	Target string
}

// Item types understood by DefaultFactory.
//
const (
	TypeInput             = "Input"
	TypeOutput            = "Output"
	TypeBuffer            = "Buffer"
	TypeLogicGate         = "LogicGate"
	TypeIntegratedCircuit = "IntegratedCircuit"
)

// Input item subtypes. Other input subtypes behave like switches.
//
const (
	SubtypeSwitch = "Switch"
	SubtypeClock  = "Clock"
)

// PropInterval is the Properties key holding the period of a clock item in
// milliseconds.
//
const PropInterval = "interval"

// Item describes a circuit element. For logic gates, Subtype holds the gate
// name ("AND", "NOR", ...).
//
// If Circuit is not nil, the item is an integrated circuit. Its PortIDs must
// be the port ids of the boundary pins of the circuit, that is of the Input
// and Output items found in Circuit.Items.
//
type Item struct {
	ID         string
	Type       string
	Subtype    string
	PortIDs    []string
	Properties map[string]string
	Circuit    *IntegratedCircuit
}

// IntegratedCircuit is a nested circuit definition. Ports holds the
// descriptors of every port of every item in Items.
//
type IntegratedCircuit struct {
	Items       []Item
	Connections []Connection
	Ports       map[string]Port
}

// portIDs returns the port ids of item and, recursively, of all the items
// nested in it.
func (item *Item) portIDs() []string {
	ids := append([]string(nil), item.PortIDs...)
	if item.Circuit != nil {
		for i := range item.Circuit.Items {
			ids = append(ids, item.Circuit.Items[i].portIDs()...)
		}
	}
	return ids
}

// isPin reports whether item is a boundary pin when found in a nested
// circuit. Clocks are never pins.
func (item *Item) isPin() bool {
	return item.Type == TypeOutput || item.Type == TypeInput && item.Subtype != SubtypeClock
}
