package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/db47h/trisim"
)

const oscillator = `
clock clk 100
not n clk
lamp out n
monitor clk out
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "osc.net")
	if err := os.WriteFile(name, []byte(oscillator), 0644); err != nil {
		t.Fatal(err)
	}
	o := &options{ticks: 4, dt: 50 * time.Millisecond, wav: dir, dot: filepath.Join(dir, "osc.dot")}
	if err := run(name, o); err != nil {
		t.Fatalf("%+v", err)
	}
	for _, f := range []string{"clk.wav", "out.wav", "osc.dot"} {
		fi, err := os.Stat(filepath.Join(dir, f))
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Errorf("%s is empty", f)
		}
	}
	if err := run(filepath.Join(dir, "missing.net"), o); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPrintValues(t *testing.T) {
	var b strings.Builder
	printValues(&b, "   1", map[string]trisim.Value{"a": trisim.True, "b": trisim.False}, []string{"a", "b", "c"})
	if s := b.String(); s != "   1 a=1 b=0 c=x\n" {
		t.Errorf("got %q", s)
	}
}
