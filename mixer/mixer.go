// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/ik5/audmgr/clip"
	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/ik5/audmgr/utils"
)

const Channels = 2

var ErrInvalidBuffer = errors.New("buffer is not a whole number of stereo frames")

// ClipSource supplies decoded clips. *clip.Store implements it.
type ClipSource interface {
	Clip(profile.ClipID) (*clip.Clip, error)
}

type Option func(*Mixer)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mixer) { m.log = logging.Module(l, "mixer") }
}

// Mixer sums every playing voice into one stereo stream.
type Mixer struct {
	mu       sync.Mutex
	clips    ClipSource
	rate     int
	voices   map[*voice]struct{}
	groups   map[profile.Group]float32
	master   float32
	listener Vec3
	log      *slog.Logger

	scratch []float32
}

// New returns a mixer producing audio at rate Hz.
func New(clips ClipSource, rate int, opts ...Option) *Mixer {
	m := &Mixer{
		clips:  clips,
		rate:   rate,
		voices: make(map[*voice]struct{}),
		groups: make(map[profile.Group]float32),
		master: 1,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mixer) SampleRate() int { return m.rate }

func (m *Mixer) NewVoice() pool.Voice {
	v := newVoice(m)
	m.mu.Lock()
	m.voices[v] = struct{}{}
	m.mu.Unlock()
	return v
}

func (m *Mixer) DestroyVoice(pv pool.Voice) {
	v, ok := pv.(*voice)
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.voices, v)
	m.mu.Unlock()
}

// Voices is the number of live voices.
func (m *Mixer) Voices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// SetGroupVolume sets the gain of a channel group. Groups default to 1.
func (m *Mixer) SetGroupVolume(g profile.Group, gain float32) {
	m.mu.Lock()
	m.groups[g] = max(0, gain)
	m.mu.Unlock()
}

func (m *Mixer) GroupVolume(g profile.Group) float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupGainLocked(g)
}

func (m *Mixer) groupGainLocked(g profile.Group) float32 {
	if gain, ok := m.groups[g]; ok {
		return gain
	}
	return 1
}

func (m *Mixer) SetMasterVolume(gain float32) {
	m.mu.Lock()
	m.master = max(0, gain)
	m.mu.Unlock()
}

func (m *Mixer) SetListener(p Vec3) {
	m.mu.Lock()
	m.listener = p
	m.mu.Unlock()
}

// Mix overwrites dst with the next len(dst)/2 interleaved stereo frames.
func (m *Mixer) Mix(dst []float32) error {
	if len(dst)%Channels != 0 {
		return ErrInvalidBuffer
	}
	clear(dst)

	m.mu.Lock()
	defer m.mu.Unlock()

	for v := range m.voices {
		if v.state != voicePlaying {
			continue
		}
		gl, gr := v.gains(m.groupGainLocked(v.group)*m.master, m.listener)
		step := float64(v.pitch)
		if v.clip != nil && v.clip.SampleRate > 0 {
			step *= float64(v.clip.SampleRate) / float64(m.rate)
		}
		v.render(dst, step, gl, gr)
	}
	return nil
}

// Read fills p with signed 16-bit little-endian stereo. Partial frames
// at the end of p are left untouched.
func (m *Mixer) Read(p []byte) (int, error) {
	samples := len(p) / 2
	samples -= samples % Channels
	if cap(m.scratch) < samples {
		m.scratch = make([]float32, samples)
	}
	buf := m.scratch[:samples]

	if err := m.Mix(buf); err != nil {
		return 0, err
	}
	return utils.PutInt16LE(p, buf), nil
}
