// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"encoding/binary"
	"testing"

	"github.com/ik5/audmgr/clip"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 48000

func newTestMixer(t *testing.T) *Mixer {
	t.Helper()

	store := clip.NewStore(clip.Config{SampleRate: rate, TTL: -1}, nil)
	require.NoError(t, store.Put(&clip.Clip{ID: "ones", Samples: fill(10, 1), SampleRate: rate}))

	ramp := make([]float32, 10)
	for i := range ramp {
		ramp[i] = float32(i) / 10
	}
	require.NoError(t, store.Put(&clip.Clip{ID: "ramp", Samples: ramp, SampleRate: rate}))
	return New(store, rate)
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func start(m *Mixer, id profile.ClipID, setup func(pool.Voice)) pool.Voice {
	v := m.NewVoice()
	v.SetClip(id)
	if setup != nil {
		setup(v)
	}
	v.Play()
	return v
}

func left(buf []float32, frame int) float32  { return buf[2*frame] }
func right(buf []float32, frame int) float32 { return buf[2*frame+1] }

func TestMix_VolumeAndPan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		volume, pan float32
		wantL       float32
		wantR       float32
	}{
		{"center", 0.5, 0, 0.5, 0.5},
		{"hard left", 1, -1, 1, 0},
		{"half right", 1, 0.5, 0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestMixer(t)
			start(m, "ones", func(v pool.Voice) {
				v.SetVolume(tt.volume)
				v.SetPan(tt.pan)
			})

			buf := make([]float32, 8)
			require.NoError(t, m.Mix(buf))
			assert.InDelta(t, tt.wantL, left(buf, 0), 1e-6)
			assert.InDelta(t, tt.wantR, right(buf, 3), 1e-6)
		})
	}
}

func TestMix_ClipEnds(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	v := start(m, "ones", nil)

	buf := make([]float32, 2*16)
	require.NoError(t, m.Mix(buf))
	assert.InDelta(t, 1, left(buf, 9), 1e-6)
	assert.Zero(t, left(buf, 10))
	assert.False(t, v.Playing(), "non-looping clip finished")
}

func TestMix_Loop(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	v := start(m, "ramp", func(v pool.Voice) { v.SetLoop(true) })

	buf := make([]float32, 2*25)
	require.NoError(t, m.Mix(buf))
	assert.True(t, v.Playing())
	assert.InDelta(t, 0.3, left(buf, 13), 1e-6)
	assert.InDelta(t, 0.4, left(buf, 24), 1e-6)
}

func TestMix_Pitch(t *testing.T) {
	t.Parallel()

	t.Run("double speed", func(t *testing.T) {
		t.Parallel()

		m := newTestMixer(t)
		v := start(m, "ramp", func(v pool.Voice) { v.SetPitch(2) })
		buf := make([]float32, 2*8)
		require.NoError(t, m.Mix(buf))

		assert.InDelta(t, 0.2, left(buf, 1), 1e-6)
		assert.InDelta(t, 0.8, left(buf, 4), 1e-6)
		assert.Zero(t, left(buf, 5))
		assert.False(t, v.Playing())
	})

	t.Run("reverse", func(t *testing.T) {
		t.Parallel()

		m := newTestMixer(t)
		start(m, "ramp", func(v pool.Voice) { v.SetPitch(-1) })
		buf := make([]float32, 2*10)
		require.NoError(t, m.Mix(buf))

		assert.InDelta(t, 0.9, left(buf, 0), 1e-6)
		assert.InDelta(t, 0.5, left(buf, 4), 1e-6)
		assert.InDelta(t, 0, left(buf, 9), 1e-6)
	})
}

func TestMix_PauseHoldsPosition(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	v := start(m, "ramp", nil)

	buf := make([]float32, 2*3)
	require.NoError(t, m.Mix(buf))

	v.Pause()
	assert.False(t, v.Playing())
	require.NoError(t, m.Mix(buf))
	assert.Equal(t, make([]float32, 6), buf)

	v.Resume()
	require.NoError(t, m.Mix(buf))
	assert.InDelta(t, 0.3, left(buf, 0), 1e-6)
}

func TestMix_GroupAndMasterVolume(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	start(m, "ones", func(v pool.Voice) { v.SetGroup("music") })
	start(m, "ones", func(v pool.Voice) { v.SetGroup("sfx") })

	m.SetGroupVolume("music", 0)
	m.SetGroupVolume("sfx", 0.5)
	m.SetMasterVolume(0.5)
	assert.EqualValues(t, 1, m.GroupVolume("ui"))

	buf := make([]float32, 2)
	require.NoError(t, m.Mix(buf))
	assert.InDelta(t, 0.25, left(buf, 0), 1e-6)
}

func TestMix_Spatial(t *testing.T) {
	t.Parallel()

	spatial := profile.SpatialSettings{
		Doppler:     1,
		SpreadMode:  profile.SpreadConstant,
		MinDistance: 0,
		MaxDistance: 10,
		Rolloff:     profile.RolloffLinear,
	}

	tests := []struct {
		name         string
		spread       float32
		blend        float32
		wantL, wantR float32
	}{
		{"point source", 0, 1, 0, 0.5},
		{"half spread", 180, 1, 0.25, 0.5},
		{"2D", 0, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestMixer(t)
			m.SetListener(Vec3{X: 1})
			e := NewEmitter("bell", Vec3{X: 6})

			s := spatial
			s.Spread = tt.spread
			start(m, "ones", func(v pool.Voice) {
				v.Attach(e)
				v.SetSpatial(s)
				v.SetSpatialBlend(tt.blend)
			})

			buf := make([]float32, 2)
			require.NoError(t, m.Mix(buf))
			assert.InDelta(t, tt.wantL, left(buf, 0), 1e-6)
			assert.InDelta(t, tt.wantR, right(buf, 0), 1e-6)
		})
	}
}

func TestMix_MissingClipFinishes(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	v := start(m, "nope.wav", nil)
	assert.True(t, v.Playing())

	require.NoError(t, m.Mix(make([]float32, 4)))
	assert.False(t, v.Playing())
}

func TestMix_InvalidBuffer(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, newTestMixer(t).Mix(make([]float32, 3)), ErrInvalidBuffer)
}

func TestRead_Int16Stereo(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	start(m, "ones", func(v pool.Voice) {
		v.SetVolume(0.5)
		v.SetPan(1)
	})

	p := make([]byte, 4*2+3)
	n, err := m.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(p[0:])))
	assert.Equal(t, int16(16383), int16(binary.LittleEndian.Uint16(p[2:])))
}

func TestVoice_ResetAndPool(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	p, err := pool.New(m, pool.Config{Capacity: 1, Policy: pool.PolicyGrow})
	require.NoError(t, err)

	a, err := p.Acquire(NewEmitter("a", Vec3{}))
	require.NoError(t, err)
	b, err := p.Acquire(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Voices())

	params := pool.NeutralParams()
	params.Clip = "ones"
	params.Loop = true
	a.Apply(params)
	a.Play()

	require.NoError(t, p.Release(a))
	require.NoError(t, p.Release(b))
	assert.Equal(t, 1, m.Voices(), "overflow voice destroyed")

	buf := make([]float32, 4)
	require.NoError(t, m.Mix(buf))
	assert.Equal(t, make([]float32, 4), buf, "released voice is silent")
}
