// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"
	"github.com/ik5/audmgr/audio"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Extensions handled by this decoder.
var Extensions = []string{"wav", "wave"}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio needs to seek between chunks
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", ErrOnlyPCMSupported, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}

	format := dec.Format()
	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}

	src, err := audio.NewIntPCMSource(dec, audio.IntPCMFormat{
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   int(dec.BitDepth),
		Unsigned8:  true,
	}, closer)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return src, nil
}

// Register adds the decoder to reg under Extensions.
func Register(reg *audio.Registry) {
	reg.Register(Decoder{}, Extensions...)
}
