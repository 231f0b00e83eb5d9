// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package mixer

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Output streams a mixer to the default sound device.
type Output struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

// Open starts playback of m on the sound card. oto allows a single
// context per process, so Open may only succeed once.
func Open(m *Mixer, opts OutputOptions) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.buffer(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	o := &Output{ctx: ctx, player: ctx.NewPlayer(m)}
	o.player.Play()
	return o, nil
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("closing audio player: %w", err)
	}
	return nil
}
