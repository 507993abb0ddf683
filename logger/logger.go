// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logger is the central log of trisim.
//
// Entries are tagged with the name of the component that emits them and kept
// in a fixed size ring; when full, the oldest entries are overwritten. An
// entry identical to the previous one only bumps a repeat counter.
//
// Callers pass a Permission with each request so that a component can be
// silenced without touching its call sites.
//
package logger

import (
	"fmt"
	"io"
)

// Permission controls whether a log request creates an entry.
//
type Permission interface {
	AllowLogging() bool
}

type perm bool

func (p perm) AllowLogging() bool { return bool(p) }

// Constant permissions. A nil Permission behaves like Deny.
//
var (
	Allow Permission = perm(true)
	Deny  Permission = perm(false)
)

// Capacity is the number of entries kept by the central log.
//
const Capacity = 256

var central ring

func allowed(p Permission) bool {
	return p != nil && p.AllowLogging()
}

// Log adds an entry to the central log if p allows it.
//
func Log(p Permission, tag, detail string) {
	if allowed(p) {
		central.add(tag, detail)
	}
}

// Logf is like Log with a formatted detail.
//
func Logf(p Permission, tag, format string, args ...interface{}) {
	if allowed(p) {
		central.add(tag, fmt.Sprintf(format, args...))
	}
}

// Clear empties the central log.
//
func Clear() { central.reset() }

// Write writes every entry, oldest first, to w.
//
func Write(w io.Writer) { central.dump(w, Capacity) }

// Tail writes the n most recent entries to w.
//
func Tail(w io.Writer, n int) { central.dump(w, n) }

// SetEcho makes the log write new entries to w as they arrive. A nil w
// disables echo.
//
func SetEcho(w io.Writer) { central.setEcho(w) }

// Entries returns a snapshot of the log, oldest first.
//
func Entries() []Entry { return central.snapshot() }
