// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// IntPCMReader is the part of the go-audio decoders (wav, aiff) the
// IntPCMSource needs.
type IntPCMReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// IntPCMFormat describes the integer stream an IntPCMReader produces.
type IntPCMFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Unsigned8 marks 8-bit data stored as unsigned bytes (WAV does this).
	Unsigned8 bool
}

// IntPCMSource adapts a go-audio integer decoder to Source.
type IntPCMSource struct {
	dec    IntPCMReader
	format IntPCMFormat
	scale  float32
	offset int
	buf    *goaudio.IntBuffer
	closer io.Closer
}

// NewIntPCMSource wraps dec. closer may be nil.
func NewIntPCMSource(dec IntPCMReader, format IntPCMFormat, closer io.Closer) (*IntPCMSource, error) {
	if format.Channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFrameSize, format.Channels)
	}

	s := &IntPCMSource{dec: dec, format: format, closer: closer}
	switch format.BitDepth {
	case 8:
		s.scale = 128
		if format.Unsigned8 {
			s.offset = 128
		}
	case 16:
		s.scale = 32768
	case 24:
		s.scale = 8388608
	case 32:
		s.scale = 2147483648
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidBitDepth, format.BitDepth)
	}

	s.buf = &goaudio.IntBuffer{
		Data:           make([]int, 4096-4096%format.Channels),
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		SourceBitDepth: format.BitDepth,
	}
	return s, nil
}

func (s *IntPCMSource) SampleRate() int { return s.format.SampleRate }
func (s *IntPCMSource) Channels() int   { return s.format.Channels }
func (s *IntPCMSource) BufSize() int    { return cap(s.buf.Data) }

func (s *IntPCMSource) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *IntPCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) - len(dst)%s.format.Channels
	if want == 0 {
		return 0, ErrInvalidDstSize
	}
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.offset) / s.scale
	}

	// go-audio signals the end with a short read
	if n < want || err != nil {
		return n, io.EOF
	}
	return n, nil
}
