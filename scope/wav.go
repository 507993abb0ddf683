// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"io"

	"github.com/pkg/errors"
	"github.com/youpy/go-wav"
)

// PCM levels used by WriteWAV.
const (
	wavHigh = 0xff
	wavLow  = 0x00
)

// WriteWAV writes the recorded wave as 8 bit mono PCM, each pixel being
// rendered as samplesPerPixel samples at the given sample rate. Asserted
// levels are written as full scale samples.
//
func (w *Wave) WriteWAV(out io.Writer, rate uint32, samplesPerPixel int) error {
	if samplesPerPixel <= 0 {
		return errors.Errorf("invalid samples per pixel count %d", samplesPerPixel)
	}
	samples := make([]wav.Sample, 0, w.width*samplesPerPixel)
	for x := 0; x < w.width; x++ {
		s := wav.Sample{}
		if w.levelAt(x) == 0 {
			s.Values[0] = wavHigh
		} else {
			s.Values[0] = wavLow
		}
		for i := 0; i < samplesPerPixel; i++ {
			samples = append(samples, s)
		}
	}

	enc := wav.NewWriter(out, uint32(len(samples)), 1, rate, 8)
	if enc == nil {
		return errors.New("bad parameters for wav encoding")
	}
	return errors.Wrap(enc.WriteSamples(samples), "write wav samples")
}
