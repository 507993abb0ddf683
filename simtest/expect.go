// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing circuits.
//
package simtest

import (
	"fmt"
	"testing"
)

func tag(tags []interface{}) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprint(tags...) + ": "
}

// ExpectSuccess tests v for a success value: true for a bool, nil for an
// error. A nil interface is a success. It returns false on failure.
//
func ExpectSuccess(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		if !v {
			t.Errorf("%sexpected success (bool)", tag(tags))
			return false
		}
	case error:
		if v != nil {
			t.Errorf("%sexpected success (error: %v)", tag(tags), v)
			return false
		}
	default:
		t.Fatalf("%sunsupported type %T for expectation testing", tag(tags), v)
	}
	return true
}

// ExpectFailure tests v for a failure value: false for a bool, a non-nil
// error. A nil interface is not a failure.
//
func ExpectFailure(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()
	switch v := v.(type) {
	case nil:
		t.Errorf("%sexpected failure (nil)", tag(tags))
		return false
	case bool:
		if v {
			t.Errorf("%sexpected failure (bool)", tag(tags))
			return false
		}
	case error:
		if v == nil {
			t.Errorf("%sexpected failure (error)", tag(tags))
			return false
		}
	default:
		t.Fatalf("%sunsupported type %T for expectation testing", tag(tags), v)
	}
	return true
}

// ExpectEquality reports an error if v != expected.
//
func ExpectEquality[T comparable](t *testing.T, v, expected T, tags ...interface{}) bool {
	t.Helper()
	if v != expected {
		t.Errorf("%sgot %v, expected %v", tag(tags), v, expected)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality but stops the test on failure. Use it
// for values that further checks depend on.
//
func DemandEquality[T comparable](t *testing.T, v, expected T, tags ...interface{}) {
	t.Helper()
	if v != expected {
		t.Fatalf("%sgot %v, expected %v", tag(tags), v, expected)
	}
}
