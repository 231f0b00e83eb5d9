// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ik5/audmgr/profile"
)

type State int

const (
	StateIdle State = iota
	StateActive
	StatePendingRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePendingRelease:
		return "pending-release"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Params mirrors what was last applied to a handle's voice.
type Params struct {
	Clip         profile.ClipID
	Group        profile.Group
	Volume       float32
	Pitch        float32
	Pan          float32
	Loop         bool
	SpatialBlend float32
	Spatial      profile.SpatialSettings
}

// NeutralParams is the state of every idle handle.
func NeutralParams() Params {
	return Params{
		Volume:  1,
		Pitch:   1,
		Spatial: profile.NeutralSpatial(),
	}
}

// Spatialized reports whether the emission follows its anchor in 3D.
func (p Params) Spatialized() bool { return p.SpatialBlend > 0 }

// Handle is a pooled voice lent out by Acquire.
type Handle struct {
	id     uuid.UUID
	voice  Voice
	state  State
	owner  Anchor
	params Params
	pool   *Pool
}

func (h *Handle) ID() uuid.UUID  { return h.id }
func (h *Handle) State() State   { return h.state }
func (h *Handle) Owner() Anchor  { return h.owner }
func (h *Handle) Params() Params { return h.params }
func (h *Handle) Voice() Voice   { return h.voice }

// Apply configures the voice with p.
func (h *Handle) Apply(p Params) {
	v := h.voice
	v.SetClip(p.Clip)
	v.SetGroup(p.Group)
	v.SetLoop(p.Loop)
	v.SetVolume(p.Volume)
	v.SetPitch(p.Pitch)
	v.SetPan(p.Pan)
	v.SetSpatial(p.Spatial)
	v.SetSpatialBlend(p.SpatialBlend)
	h.params = p
}

func (h *Handle) Play()         { h.voice.Play() }
func (h *Handle) Stop()         { h.voice.Stop() }
func (h *Handle) Pause()        { h.voice.Pause() }
func (h *Handle) Resume()       { h.voice.Resume() }
func (h *Handle) Playing() bool { return h.voice.Playing() }

// MarkPending moves an active handle into the pending-release state.
func (h *Handle) MarkPending() {
	if h.state == StateActive {
		h.state = StatePendingRelease
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("handle %s (%s, clip %q)", h.id, h.state, h.params.Clip)
}

func (h *Handle) reset() {
	h.voice.Stop()
	h.voice.Reset()
	h.voice.Attach(nil)
	h.Apply(NeutralParams())
	h.owner = nil
	h.state = StateIdle
}
