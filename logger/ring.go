// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logger

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Entry is a log entry.
//
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Count     int // number of identical requests folded into this entry
}

func (e *Entry) String() string {
	s := e.Tag + ": " + e.Detail
	if e.Count > 1 {
		s += " (repeat x" + strconv.Itoa(e.Count) + ")"
	}
	return s + "\n"
}

// ring is a bounded, mutex protected list of entries.
type ring struct {
	sync.Mutex
	buf   [Capacity]Entry
	first int // index of the oldest entry
	n     int
	echo  io.Writer
}

// at returns the i-th oldest entry.
func (r *ring) at(i int) *Entry {
	return &r.buf[(r.first+i)%Capacity]
}

func (r *ring) add(tag, detail string) {
	// entries are single line
	tag = strings.Replace(tag, "\n", " ", -1)
	detail = strings.Replace(detail, "\n", " ", -1)
	now := time.Now()

	r.Lock()
	defer r.Unlock()
	var e *Entry
	if r.n > 0 {
		if last := r.at(r.n - 1); last.Tag == tag && last.Detail == detail {
			e = last
			e.Count++
			e.Timestamp = now
		}
	}
	if e == nil {
		if r.n == Capacity {
			r.first = (r.first + 1) % Capacity
			r.n--
		}
		e = r.at(r.n)
		*e = Entry{Timestamp: now, Tag: tag, Detail: detail, Count: 1}
		r.n++
	}
	if r.echo != nil {
		io.WriteString(r.echo, e.String())
	}
}

func (r *ring) reset() {
	r.Lock()
	r.first, r.n = 0, 0
	r.Unlock()
}

func (r *ring) dump(w io.Writer, last int) {
	r.Lock()
	defer r.Unlock()
	if last < 0 || last > r.n {
		last = r.n
	}
	for i := r.n - last; i < r.n; i++ {
		io.WriteString(w, r.at(i).String())
	}
}

func (r *ring) snapshot() []Entry {
	r.Lock()
	defer r.Unlock()
	es := make([]Entry, r.n)
	for i := range es {
		es[i] = *r.at(i)
	}
	return es
}

func (r *ring) setEcho(w io.Writer) {
	r.Lock()
	r.echo = w
	r.Unlock()
}
