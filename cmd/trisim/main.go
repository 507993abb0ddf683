// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command trisim runs a circuit described by a netlist file.
//
// Usage:
//
//	trisim [flags] circuit.net
//
// The circuit is run for a number of clock ticks and port values are printed
// after each tick. With -debug, the simulation is stepped one network tick
// at a time with the keyboard: space or enter advances, c resumes normal
// execution and q quits.
//
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/db47h/trisim"
	"github.com/db47h/trisim/internal/console"
	"github.com/db47h/trisim/internal/netlist"
	"github.com/db47h/trisim/internal/statsview"
	"github.com/db47h/trisim/logger"
	"github.com/db47h/trisim/sim"
	"github.com/pkg/errors"
)

const wavRate = 8000

var errQuit = errors.New("quit")

type options struct {
	ticks     int
	dt        time.Duration
	debug     bool
	monitor   string
	wav       string
	dot       string
	verbose   bool
	statsview bool
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("trisim: ")

	var o options
	flag.IntVar(&o.ticks, "ticks", 10, "number of clock ticks to run")
	flag.DurationVar(&o.dt, "dt", 100*time.Millisecond, "elapsed time per tick")
	flag.BoolVar(&o.debug, "debug", false, "step through network ticks interactively")
	flag.StringVar(&o.monitor, "monitor", "", "comma separated list of additional ports to monitor")
	flag.StringVar(&o.wav, "wav", "", "write the trace of each monitored port as a WAV file in `dir`")
	flag.StringVar(&o.dot, "dot", "", "write a graphviz dump of the network to `file` after the run")
	flag.BoolVar(&o.verbose, "v", false, "echo log entries to stderr")
	if statsview.Available() {
		flag.BoolVar(&o.statsview, "statsview", false, "launch the runtime stats server")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), &o); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(name string, o *options) error {
	if o.verbose {
		logger.SetEcho(os.Stderr)
	}
	if o.statsview {
		statsview.Launch(os.Stderr)
	}

	f, err := os.Open(name)
	if err != nil {
		return err
	}
	n, err := netlist.Parse(f)
	f.Close()
	if err != nil {
		return errors.Wrap(err, name)
	}

	cfg := sim.DefaultConfig()
	cfg.OnError = func(err error) { log.Print(err) }
	s := sim.New(cfg)
	if err = n.Load(s); err != nil {
		return err
	}
	monitored := n.Monitored
	if o.monitor != "" {
		for _, id := range strings.Split(o.monitor, ",") {
			id = strings.TrimSpace(id)
			s.MonitorPort(id)
			monitored = append(monitored, id)
		}
	}

	ports := make([]string, 0, len(n.Ports))
	for id := range n.Ports {
		ports = append(ports, id)
	}
	sort.Strings(ports)

	if o.debug {
		if err = debug(s, ports); err == errQuit {
			return nil
		}
		if err != nil {
			return err
		}
	}
	printValues(os.Stdout, "init", s.Values(), ports)
	for i := 1; i <= o.ticks; i++ {
		s.Tick(o.dt)
		printValues(os.Stdout, fmt.Sprintf("%4d", i), s.Values(), ports)
	}

	if o.wav != "" {
		if err = writeWAVs(s, o.wav, monitored); err != nil {
			return err
		}
	}
	if o.dot != "" {
		if err = dump(s, o.dot); err != nil {
			return err
		}
	}
	return nil
}

func printValues(w io.Writer, prefix string, values map[string]trisim.Value, ports []string) {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ports {
		b.WriteByte(' ')
		b.WriteString(id)
		b.WriteByte('=')
		b.WriteRune(values[id].Rune())
	}
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}

func debug(s *sim.Simulation, ports []string) error {
	c, err := console.New(os.Stdin)
	if err != nil {
		return err
	}
	if err = c.CBreakMode(); err != nil {
		return err
	}
	defer c.CanonicalMode()

	s.StartDebugging()
	for step := 0; ; step++ {
		printValues(os.Stdout, fmt.Sprintf("step %d", step), s.Values(), ports)
		if next := s.NextState(); next != nil {
			printValues(os.Stdout, "  next", next, ports)
		} else if !s.CanContinue() {
			fmt.Println("  settled")
		}
		k, err := c.ReadKey()
		if err != nil {
			return err
		}
		switch k {
		case ' ', '\n':
			s.Advance()
		case 'c':
			s.StopDebugging()
			return nil
		case 'q':
			return errQuit
		}
	}
}

func writeWAVs(s *sim.Simulation, dir string, ports []string) error {
	for _, id := range ports {
		w := s.Wave(id)
		if w == nil {
			continue
		}
		f, err := os.Create(filepath.Join(dir, id+".wav"))
		if err != nil {
			return err
		}
		err = w.WriteWAV(f, wavRate, wavRate/100)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "trace of %s", id)
		}
	}
	return nil
}

func dump(s *sim.Simulation, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	s.Dump(f)
	return f.Close()
}
