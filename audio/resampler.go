// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmgr/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples and preserves the channel count. A one-pole
// low-pass is applied to the input when downsampling.
type Resampler struct {
	src      Source
	srcRate  int64
	dstRate  int64
	channels int

	// hist[1] and hist[2] bracket the current position; hist[0] and hist[3]
	// are the outer neighbours. real marks frames that came from src rather
	// than edge duplication.
	hist [4][]float32
	real [4]bool
	cur  int64 // source frame index held in hist[1]
	out  int64 // output frames produced so far

	in     []float32
	inPos  int
	inLen  int
	srcEOF bool
	primed bool
	done   bool
	err    error

	filter []float32 // nil unless downsampling
	alpha  float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	r := &Resampler{
		src:      src,
		srcRate:  int64(src.SampleRate()),
		dstRate:  int64(dstRate),
		channels: channels,
		in:       make([]float32, 4096-4096%channels),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	if r.srcRate > r.dstRate {
		r.filter = make([]float32, channels)
		r.alpha = 0.5
	}
	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// fetch copies the next source frame into dst. It returns false once the
// source is exhausted or failed.
func (r *Resampler) fetch(dst []float32) bool {
	for empty := 0; r.inPos+r.channels > r.inLen; empty++ {
		if r.srcEOF || r.err != nil {
			return false
		}
		if empty == maxEmptyReads {
			r.err = io.ErrNoProgress
			return false
		}
		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		if errors.Is(err, io.EOF) {
			r.srcEOF = true
		} else if err != nil {
			r.err = fmt.Errorf("%w", err)
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.filter != nil {
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.filter[c]
			r.filter[c] = dst[c]
		}
	}
	return true
}

func (r *Resampler) prime() {
	r.primed = true
	if !r.fetch(r.hist[1]) {
		r.done = true
		return
	}
	if r.filter != nil {
		// Start the filter from the first frame to avoid a ramp-in.
		copy(r.filter, r.hist[1])
	}
	copy(r.hist[0], r.hist[1])
	r.real[1] = true

	for i := 2; i < 4; i++ {
		r.real[i] = r.fetch(r.hist[i])
		if !r.real[i] {
			copy(r.hist[i], r.hist[i-1])
		}
	}
}

func (r *Resampler) shift() {
	oldest := r.hist[0]
	copy(r.hist[:3], r.hist[1:])
	r.hist[3] = oldest
	copy(r.real[:3], r.real[1:])

	r.real[3] = r.fetch(r.hist[3])
	if !r.real[3] {
		copy(r.hist[3], r.hist[2])
	}
}

// ReadSamples produces dst samples at the target rate.
// len(dst) must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		r.prime()
	}

	frames := len(dst) / r.channels
	written := 0
	for !r.done && written < frames {
		// Integer stepping keeps the output length exact for any rate pair.
		num := r.out * r.srcRate
		for target := num / r.dstRate; r.cur < target; r.cur++ {
			r.shift()
		}
		if !r.real[1] {
			r.done = true
			break
		}

		x := float32(num%r.dstRate) / float32(r.dstRate)
		frame := dst[written*r.channels : (written+1)*r.channels]
		for c := range frame {
			frame[c] = utils.CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}
		written++
		r.out++
	}

	n := written * r.channels
	if r.done {
		if r.err != nil {
			return n, r.err
		}
		return n, io.EOF
	}
	return n, nil
}
