// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trisim

// Value is a tri-state logic value.
//
// The zero value is Unknown, which is also the state of unconnected inputs
// (high impedance).
//
type Value uint8

// Logic values.
//
const (
	Unknown Value = iota
	False
	True
)

// FromBool converts a bool to False or True.
//
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Known returns true if v is either True or False.
//
func (v Value) Known() bool {
	return v == True || v == False
}

// Not inverts v. Unknown stays Unknown.
//
func (v Value) Not() Value {
	switch v {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

// Rune returns '1', '0' or 'x'.
//
func (v Value) Rune() rune {
	switch v {
	case True:
		return '1'
	case False:
		return '0'
	}
	return 'x'
}

func (v Value) String() string {
	switch v {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return "UNKNOWN"
}
