// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"strconv"
	"strings"
	"time"

	"github.com/db47h/trisim"
)

// A Point is a vertex of a waveform polyline. Y is 0 for an asserted (True)
// level and 1 otherwise.
//
type Point struct {
	X, Y int
}

func level(v trisim.Value) int {
	if v == trisim.True {
		return 0
	}
	return 1
}

// Wave records the history of a logic signal as a step polyline.
//
type Wave struct {
	step   int
	width  int
	points []Point
}

// NewWave returns a new waveform starting at the level of initial. Each
// Update extends the wave by step pixels.
//
func NewWave(initial trisim.Value, step int) *Wave {
	if step <= 0 {
		step = 1
	}
	return &Wave{
		step:   step,
		points: []Point{{0, level(initial)}},
	}
}

// Update implements Pulse. The current level is extended by one step;
// a trailing horizontal segment is stretched rather than given a new point.
//
func (w *Wave) Update(time.Duration) {
	w.width += w.step
	n := len(w.points)
	last := w.points[n-1]
	if n > 1 && w.points[n-2].Y == last.Y {
		w.points[n-1].X = w.width
		return
	}
	w.points = append(w.points, Point{w.width, last.Y})
}

// DrawPulseChange draws a transition to the level of v at the current x.
//
func (w *Wave) DrawPulseChange(v trisim.Value) {
	y := level(v)
	n := len(w.points)
	last := w.points[n-1]
	if last.Y == y {
		return
	}
	if n > 1 && last.X == w.width && w.points[n-2].X == w.width {
		// back and forth at the same x: drop the vertical segment
		w.points = w.points[:n-1]
		return
	}
	w.points = append(w.points, Point{w.width, y})
}

// Truncate implements Renderable. History older than the trailing width
// pixels is dropped and the remaining points are shifted so that the wave
// starts at x = 0.
//
func (w *Wave) Truncate(width int) {
	if width < 0 {
		width = 0
	}
	if w.width <= width {
		return
	}
	cut := w.width - width
	y := w.points[0].Y
	i := 0
	for ; i < len(w.points) && w.points[i].X <= cut; i++ {
		y = w.points[i].Y
	}
	pts := make([]Point, 0, len(w.points)-i+1)
	pts = append(pts, Point{0, y})
	for _, p := range w.points[i:] {
		pts = append(pts, Point{p.X - cut, p.Y})
	}
	w.points = pts
	w.width = width
}

// Width implements Renderable.
//
func (w *Wave) Width() int { return w.width }

// Segments returns a copy of the polyline vertices.
//
func (w *Wave) Segments() []Point {
	return append([]Point(nil), w.points...)
}

// Points implements Renderable.
//
func (w *Wave) Points() string {
	var b strings.Builder
	for i, p := range w.points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Y))
	}
	return b.String()
}

// levelAt returns the level of the wave at pixel x.
func (w *Wave) levelAt(x int) int {
	y := w.points[0].Y
	for _, p := range w.points {
		if p.X > x {
			break
		}
		y = p.Y
	}
	return y
}
