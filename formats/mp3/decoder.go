// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audmgr/audio"
)

const channels = 2

var Extensions = []string{"mp3"}

// mp3Reader is the part of gomp3.Decoder the source uses.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec    mp3Reader
	buf    []byte
	rem    []byte // odd trailing byte of the previous read
	closer io.Closer
}

func newSource(dec mp3Reader, closer io.Closer) *source {
	return &source{dec: dec, buf: make([]byte, 8192), closer: closer}
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst)*2 - len(s.rem)
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w", err)
	}

	data := append(s.rem, s.buf[:n]...)
	samples := len(data) / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768
	}
	s.rem = append(s.rem[:0], data[samples*2:]...)

	if err == io.EOF {
		return samples, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}
	return newSource(dec, closer), nil
}

func Register(reg *audio.Registry) {
	reg.Register(Decoder{}, Extensions...)
}
