// SPDX-License-Identifier: EPL-2.0

package pool_test

import (
	"testing"

	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/pool/pooltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, cfg pool.Config) (*pool.Pool, *pooltest.Backend) {
	t.Helper()

	b := pooltest.NewBackend()
	p, err := pool.New(b, cfg)
	require.NoError(t, err)
	return p, b
}

func TestNew_Config(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     pool.Config
		wantErr bool
	}{
		{"zero uses default", pool.Config{}, false},
		{"prewarm", pool.Config{Capacity: 4, Prewarm: 4}, false},
		{"prewarm above capacity", pool.Config{Capacity: 2, Prewarm: 3}, true},
		{"negative capacity", pool.Config{Capacity: -1}, true},
		{"unknown policy", pool.Config{Capacity: 1, Policy: 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := pool.New(pooltest.NewBackend(), tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, pool.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Prewarm, p.Stats().Idle)
		})
	}

	p, err := pool.New(pooltest.NewBackend(), pool.Config{})
	require.NoError(t, err)
	assert.Equal(t, pool.DefaultCapacity, p.Capacity())

	_, err = pool.New(nil, pool.Config{})
	assert.ErrorIs(t, err, pool.ErrInvalidConfig)
}

func TestAcquire_RecyclesLIFO(t *testing.T) {
	t.Parallel()

	p, b := newPool(t, pool.Config{Capacity: 4})
	owner := pooltest.Anchor("door")

	h1, err := p.Acquire(owner)
	require.NoError(t, err)
	h2, err := p.Acquire(nil)
	require.NoError(t, err)

	assert.Equal(t, pool.StateActive, h1.State())
	assert.Equal(t, owner, h1.Owner())
	assert.Equal(t, owner, pooltest.VoiceOf(h1).Anchor)

	require.NoError(t, p.Release(h1))
	require.NoError(t, p.Release(h2))

	again, err := p.Acquire(nil)
	require.NoError(t, err)
	assert.Same(t, h2, again, "most recently released handle is reused first")
	assert.Len(t, b.Voices(), 2)
}

func TestRelease_ResetsToNeutral(t *testing.T) {
	t.Parallel()

	p, _ := newPool(t, pool.Config{Capacity: 1})
	h, err := p.Acquire(pooltest.Anchor("npc"))
	require.NoError(t, err)

	params := pool.NeutralParams()
	params.Clip = "growl.ogg"
	params.Group = "sfx"
	params.Volume = 0.3
	params.Pitch = -1
	params.Pan = 0.5
	params.Loop = true
	params.SpatialBlend = 1
	h.Apply(params)
	h.Play()
	require.True(t, h.Playing())

	require.NoError(t, p.Release(h))

	v := pooltest.VoiceOf(h)
	assert.Equal(t, pool.StateIdle, h.State())
	assert.Nil(t, h.Owner())
	assert.Nil(t, v.Anchor)
	assert.False(t, v.Playing())
	assert.Equal(t, pool.NeutralParams(), h.Params())
	assert.Empty(t, v.Clip)
	assert.Empty(t, v.Group)
	assert.EqualValues(t, 1, v.Volume)
	assert.EqualValues(t, 1, v.Pitch)
	assert.Zero(t, v.Pan)
	assert.Zero(t, v.SpatialBlend)
	assert.False(t, v.Loop)
}

func TestRelease_Double(t *testing.T) {
	t.Parallel()

	p, _ := newPool(t, pool.Config{Capacity: 2})
	h, err := p.Acquire(nil)
	require.NoError(t, err)
	require.NoError(t, p.Release(h))

	before := p.Stats()
	err = p.Release(h)
	assert.ErrorIs(t, err, pool.ErrDoubleRelease)

	after := p.Stats()
	assert.Equal(t, before.Idle, after.Idle, "no duplicate idle entry")
	assert.Equal(t, before.Active, after.Active)
	assert.Equal(t, before.DoubleReleases+1, after.DoubleReleases)

	// the duplicate must not be handed out twice
	a, err := p.Acquire(nil)
	require.NoError(t, err)
	b, err := p.Acquire(nil)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRelease_Foreign(t *testing.T) {
	t.Parallel()

	p1, _ := newPool(t, pool.Config{Capacity: 1})
	p2, _ := newPool(t, pool.Config{Capacity: 1})

	h, err := p1.Acquire(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, p2.Release(h), pool.ErrForeignHandle)
	assert.ErrorIs(t, p2.Release(nil), pool.ErrForeignHandle)
}

func TestAcquire_Reject(t *testing.T) {
	t.Parallel()

	p, b := newPool(t, pool.Config{Capacity: 2, Policy: pool.PolicyReject})
	for range 2 {
		_, err := p.Acquire(nil)
		require.NoError(t, err)
	}

	_, err := p.Acquire(nil)
	require.ErrorIs(t, err, pool.ErrPoolExhausted)

	s := p.Stats()
	assert.Equal(t, 2, s.Active)
	assert.EqualValues(t, 1, s.Exhausted)
	assert.Equal(t, 2, b.Live())
}

func TestAcquire_GrowThenShrink(t *testing.T) {
	t.Parallel()

	p, b := newPool(t, pool.Config{Capacity: 2, Policy: pool.PolicyGrow})

	var hs []*pool.Handle
	for range 3 {
		h, err := p.Acquire(nil)
		require.NoError(t, err)
		hs = append(hs, h)
	}
	s := p.Stats()
	assert.Equal(t, 3, s.Active)
	assert.EqualValues(t, 1, s.Overflow)

	for _, h := range hs {
		require.NoError(t, p.Release(h))
	}

	s = p.Stats()
	assert.Equal(t, 2, s.Idle)
	assert.Zero(t, s.Active)
	assert.EqualValues(t, 1, s.Destroyed)
	assert.Equal(t, 2, b.Live())
}

func TestClose(t *testing.T) {
	t.Parallel()

	p, b := newPool(t, pool.Config{Capacity: 3, Prewarm: 2})
	h, err := p.Acquire(nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, b.Live())

	_, err = p.Acquire(nil)
	assert.ErrorIs(t, err, pool.ErrPoolClosed)

	require.NoError(t, p.Release(h))
	assert.Zero(t, b.Live())
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for _, want := range []pool.Policy{pool.PolicyGrow, pool.PolicyReject} {
		got, err := pool.ParsePolicy(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := pool.ParsePolicy("block")
	assert.ErrorIs(t, err, pool.ErrInvalidConfig)
}
