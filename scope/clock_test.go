package scope_test

import (
	"testing"
	"time"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/scope"
)

func TestClock(t *testing.T) {
	var toggles []trisim.Value
	c := scope.NewClock(10*time.Millisecond, func(v trisim.Value) { toggles = append(toggles, v) })
	if c.Signal() != trisim.False {
		t.Fatal("clock does not start low")
	}
	for _, ms := range []int{5, 10, 15, 20, 29, 30} {
		c.Update(time.Duration(ms) * time.Millisecond)
	}
	exp := []trisim.Value{trisim.True, trisim.False, trisim.True}
	if len(toggles) != len(exp) {
		t.Fatalf("toggles = %v, expected %v", toggles, exp)
	}
	for i := range exp {
		if toggles[i] != exp[i] {
			t.Fatalf("toggles = %v, expected %v", toggles, exp)
		}
	}

	c.Stop()
	c.Update(time.Second)
	if len(toggles) != 3 || !c.Stopped() {
		t.Fatal("stopped clock toggled")
	}
	c.Start()
	c.Update(time.Second)
	if len(toggles) != 4 || c.Signal() != trisim.False {
		t.Fatal("restarted clock did not toggle")
	}

	c.Reset(2 * time.Second)
	c.Update(2*time.Second + 5*time.Millisecond)
	if len(toggles) != 4 || c.Signal() != trisim.False {
		t.Fatal("reset clock toggled early")
	}
}
