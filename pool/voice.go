// SPDX-License-Identifier: EPL-2.0

package pool

import "github.com/ik5/audmgr/profile"

// Anchor is the entity an emission is attached to. Implementations must
// be comparable since anchors key the dispatcher's active set.
type Anchor interface {
	AnchorName() string
}

// Voice is one emission unit of the mixing backend.
type Voice interface {
	SetClip(profile.ClipID)
	SetLoop(bool)
	SetVolume(float32)
	SetPitch(float32)
	SetPan(float32)
	SetGroup(profile.Group)
	// SetSpatialBlend moves between 2D (0) and fully positioned (1) output.
	SetSpatialBlend(float32)
	SetSpatial(profile.SpatialSettings)
	// Attach parents the voice to an anchor; nil detaches it.
	Attach(Anchor)

	Play()
	Stop()
	Pause()
	Resume()
	// Playing is false once the clip ends, after Stop, and while paused.
	Playing() bool

	Reset()
}

// Backend creates and destroys voices.
type Backend interface {
	NewVoice() Voice
	DestroyVoice(Voice)
}
