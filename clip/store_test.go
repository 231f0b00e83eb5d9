// SPDX-License-Identifier: EPL-2.0

package clip

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ik5/audmgr/formats"
	"github.com/ik5/audmgr/formats/wav"
	"github.com/ik5/audmgr/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWav(t *testing.T, dir, name string, rate, channels int, samples []float32) {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, rate, channels, samples))
	require.NoError(t, f.Close())
}

func constant(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newTestStore(t *testing.T, rate int) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	writeWav(t, dir, "tone.wav", 8000, 1, constant(800, 0.5))
	writeWav(t, dir, "sfx/stereo.wav", 16000, 2, []float32{0.5, -0.5, 0.25, 0.75})
	return NewStore(Config{Root: dir, SampleRate: rate, TTL: -1}, formats.NewRegistry()), dir
}

func TestStore_LoadsAndResamples(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, 16000)
	c, err := s.Clip("tone.wav")
	require.NoError(t, err)

	assert.Equal(t, 16000, c.SampleRate)
	assert.Equal(t, 1600, c.Frames())
	assert.Equal(t, 100*time.Millisecond, c.Duration())
	assert.InDelta(t, 0.5, c.Samples[c.Frames()/2], 0.01)
}

func TestStore_FoldsToMono(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, 16000)
	c, err := s.Clip("sfx/stereo.wav")
	require.NoError(t, err)

	require.Equal(t, 2, c.Frames())
	assert.InDelta(t, 0, c.Samples[0], 1e-3)
	assert.InDelta(t, 0.5, c.Samples[1], 1e-3)
}

func TestStore_Caches(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, 8000)
	a, err := s.Clip("tone.wav")
	require.NoError(t, err)
	b, err := s.Clip("tone.wav")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())

	s.Evict("tone.wav")
	assert.Zero(t, s.Len())
	c, err := s.Clip("tone.wav")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestStore_ConcurrentLoadsShareResult(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, 22050)

	var wg sync.WaitGroup
	got := make([]*Clip, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := s.Clip("tone.wav")
			assert.NoError(t, err)
			got[i] = c
		}()
	}
	wg.Wait()

	for _, c := range got[1:] {
		assert.Same(t, got[0], c)
	}
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, 8000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wav"), []byte("junk"), 0o644))

	tests := []struct {
		id   profile.ClipID
		want error
	}{
		{"../outside.wav", ErrInvalidClipID},
		{"/abs.wav", ErrInvalidClipID},
		{"", ErrInvalidClipID},
		{"music.flac", ErrUnsupportedFormat},
		{"missing.wav", ErrClipNotFound},
		{"bad.wav", wav.ErrNotWavFile},
	}
	for _, tt := range tests {
		_, err := s.Clip(tt.id)
		assert.ErrorIs(t, err, tt.want, "clip %q", tt.id)
	}
	assert.Equal(t, 0, s.Len(), "failures are not cached")
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{SampleRate: 48000}, nil)
	assert.ErrorIs(t, s.Put(&Clip{ID: "beep", SampleRate: 44100}), ErrUnsupportedFormat)
	assert.ErrorIs(t, s.Put(&Clip{}), ErrInvalidClipID)

	beep := &Clip{ID: "beep", Samples: constant(48, 1), SampleRate: 48000}
	require.NoError(t, s.Put(beep))

	c, err := s.Clip("beep")
	require.NoError(t, err)
	assert.Same(t, beep, c)

	_, err = s.Clip("other.wav")
	assert.ErrorIs(t, err, ErrClipNotFound)
}

func TestStore_Preload(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, 8000)
	require.NoError(t, s.Preload(context.Background(), []profile.ClipID{"tone.wav", "sfx/stereo.wav"}))
	assert.Equal(t, 2, s.Len())

	err := s.Preload(context.Background(), []profile.ClipID{"tone.wav", "missing.wav"})
	assert.ErrorIs(t, err, ErrClipNotFound)
}
