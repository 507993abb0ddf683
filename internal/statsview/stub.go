// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

//go:build !statsview
// +build !statsview

// Package statsview serves runtime statistics of the simulator over HTTP.
// Build with the statsview tag to enable it.
//
package statsview

import "io"

// Launch does nothing without the statsview build tag.
//
func Launch(output io.Writer) {}

// Available reports whether the stats server can be launched.
//
func Available() bool {
	return false
}
