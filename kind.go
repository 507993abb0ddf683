// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trisim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the evaluation rule of a node.
//
type Kind uint8

// Node kinds.
//
const (
	// Input nodes are driven externally through Network.SetValue.
	Input Kind = iota
	// Output nodes mirror their single input. They drive nothing and are
	// ignored when checking whether a network has settled.
	Output
	// Buffer nodes hold a single input slot shared by every incoming wire.
	// They always force continuation and mark the boundary pins of
	// flattened sub-circuits.
	Buffer
	And
	Or
	Nand
	Nor
	Not
	Xor
	Xnor

	kindCount
)

var kindNames = [kindCount]string{
	Input:  "INPUT",
	Output: "OUTPUT",
	Buffer: "BUFFER",
	And:    "AND",
	Or:     "OR",
	Nand:   "NAND",
	Nor:    "NOR",
	Not:    "NOT",
	Xor:    "XOR",
	Xnor:   "XNOR",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the Kind with the given name. The match is case
// insensitive.
//
func ParseKind(name string) (Kind, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n {
			return Kind(k), nil
		}
	}
	return 0, errors.Errorf("unknown node kind %q", name)
}

// Eval applies the evaluation rule of k to the given input values.
//
// Truth tables for multi-input gates:
//
//	AND:  True if all inputs are True, else False.
//	OR:   True if any input is True, else Unknown if any input is Unknown,
//	      else False.
//	NAND: True if any input is False, else False.
//	NOR:  False if any input is True, else True.
//	XOR:  Unknown if any input is Unknown, else True on an odd number of
//	      True inputs.
//	XNOR: Unknown if any input is Unknown, else True on an even number of
//	      True inputs.
//
// Only OR, XOR and XNOR let Unknown through. AND, NAND and NOR resolve it
// to a known value.
//
// Input nodes have no rule and always evaluate to Unknown.
//
func (k Kind) Eval(inputs map[string]Value) Value {
	switch k {
	case Input:
		return Unknown
	case Output, Buffer, Not:
		for _, v := range inputs {
			if k == Not {
				return v.Not()
			}
			return v
		}
		return Unknown
	case And:
		if len(inputs) == 0 {
			return False
		}
		for _, v := range inputs {
			if v != True {
				return False
			}
		}
		return True
	case Or:
		r := False
		for _, v := range inputs {
			switch v {
			case True:
				return True
			case Unknown:
				r = Unknown
			}
		}
		return r
	case Nand:
		for _, v := range inputs {
			if v == False {
				return True
			}
		}
		return False
	case Nor:
		for _, v := range inputs {
			if v == True {
				return False
			}
		}
		return True
	case Xor, Xnor:
		odd := false
		for _, v := range inputs {
			switch v {
			case Unknown:
				return Unknown
			case True:
				odd = !odd
			}
		}
		if k == Xnor {
			return FromBool(!odd)
		}
		return FromBool(odd)
	}
	panic("invalid node kind " + k.String())
}
