// SPDX-License-Identifier: EPL-2.0

// Package pooltest provides an in-memory Backend whose voices record every
// parameter they receive. Playback never ends on its own; call Finish to
// simulate a clip reaching its end.
package pooltest

import (
	"sync"

	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
)

type Voice struct {
	mu sync.Mutex

	Clip         profile.ClipID
	Group        profile.Group
	Loop         bool
	Volume       float32
	Pitch        float32
	Pan          float32
	SpatialBlend float32
	Spatial      profile.SpatialSettings
	Anchor       pool.Anchor

	started   bool
	paused    bool
	finished  bool
	Plays     int
	Destroyed bool
}

func (v *Voice) lock() func() {
	v.mu.Lock()
	return v.mu.Unlock
}

func (v *Voice) SetClip(c profile.ClipID)             { defer v.lock()(); v.Clip = c }
func (v *Voice) SetLoop(b bool)                       { defer v.lock()(); v.Loop = b }
func (v *Voice) SetVolume(f float32)                  { defer v.lock()(); v.Volume = f }
func (v *Voice) SetPitch(f float32)                   { defer v.lock()(); v.Pitch = f }
func (v *Voice) SetPan(f float32)                     { defer v.lock()(); v.Pan = f }
func (v *Voice) SetGroup(g profile.Group)             { defer v.lock()(); v.Group = g }
func (v *Voice) SetSpatialBlend(f float32)            { defer v.lock()(); v.SpatialBlend = f }
func (v *Voice) SetSpatial(s profile.SpatialSettings) { defer v.lock()(); v.Spatial = s }
func (v *Voice) Attach(a pool.Anchor)                 { defer v.lock()(); v.Anchor = a }

func (v *Voice) Play() {
	defer v.lock()()
	v.started, v.paused, v.finished = true, false, false
	v.Plays++
}

func (v *Voice) Stop() {
	defer v.lock()()
	v.started, v.paused = false, false
}

func (v *Voice) Pause() {
	defer v.lock()()
	if v.started {
		v.paused = true
	}
}

func (v *Voice) Resume() {
	defer v.lock()()
	v.paused = false
}

func (v *Voice) Playing() bool {
	defer v.lock()()
	return v.started && !v.paused && !v.finished
}

// Paused reports whether the voice holds a paused playback position.
func (v *Voice) Paused() bool {
	defer v.lock()()
	return v.started && v.paused && !v.finished
}

func (v *Voice) Reset() {
	defer v.lock()()
	v.started, v.paused, v.finished = false, false, false
}

// Finish ends playback as if the clip ran out. Looping voices ignore it.
func (v *Voice) Finish() {
	defer v.lock()()
	if !v.Loop {
		v.finished = true
	}
}

// Backend hands out *Voice values and tracks which are alive.
type Backend struct {
	mu      sync.Mutex
	created []*Voice
	live    int
}

func NewBackend() *Backend { return &Backend{} }

func (b *Backend) NewVoice() pool.Voice {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := &Voice{}
	b.created = append(b.created, v)
	b.live++
	return v
}

func (b *Backend) DestroyVoice(pv pool.Voice) {
	v := pv.(*Voice)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !v.Destroyed {
		v.Destroyed = true
		b.live--
	}
}

// Live is the number of created voices not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Voices returns every voice created so far.
func (b *Backend) Voices() []*Voice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Voice(nil), b.created...)
}

// FinishAll ends playback on every voice.
func (b *Backend) FinishAll() {
	for _, v := range b.Voices() {
		v.Finish()
	}
}

// Anchor is a comparable named anchor.
type Anchor string

func (a Anchor) AnchorName() string { return string(a) }

// VoiceOf unwraps the fake voice behind h.
func VoiceOf(h *pool.Handle) *Voice {
	return h.Voice().(*Voice)
}
