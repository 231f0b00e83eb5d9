// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// maxEmptyReads bounds how many (0, nil) reads are tolerated in a row.
const maxEmptyReads = 64

// ReadAll drains src and returns every sample it produced.
// bufferSize is rounded down to a whole number of frames.
func ReadAll(src Source, bufferSize int) ([]float32, error) {
	channels := max(src.Channels(), 1)
	bufferSize = max(bufferSize-bufferSize%channels, channels)

	out := make([]float32, 0, bufferSize)
	buf := make([]float32, bufferSize)
	empty := 0
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}

		if n > 0 {
			empty = 0
		} else if empty++; empty == maxEmptyReads {
			return out, io.ErrNoProgress
		}
	}
}

// ToMono resamples src to rate, folds it to one channel and collects it.
func ToMono(src Source, rate, bufferSize int) ([]float32, error) {
	var pipeline Source = src
	if src.SampleRate() != rate {
		pipeline = NewResampler(pipeline, rate)
	}
	return ReadAll(NewMonoMixer(pipeline), bufferSize)
}
