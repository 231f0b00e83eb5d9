// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"

	"github.com/ik5/audmgr/clip"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/ik5/audmgr/utils"
)

type voiceState int

const (
	voiceStopped voiceState = iota
	voicePlaying
	voicePaused
	voiceFinished
)

// voice state is guarded by the owning mixer's lock.
type voice struct {
	m *Mixer

	clipID  profile.ClipID
	clip    *clip.Clip
	loop    bool
	volume  float32
	pitch   float32
	pan     float32
	group   profile.Group
	blend   float32
	spatial profile.SpatialSettings
	anchor  pool.Anchor

	state voiceState
	pos   float64 // read position in clip frames
}

func newVoice(m *Mixer) *voice {
	v := &voice{m: m}
	v.resetLocked()
	return v
}

func (v *voice) resetLocked() {
	v.clipID, v.clip = "", nil
	v.loop = false
	v.volume, v.pitch, v.pan = 1, 1, 0
	v.group = ""
	v.blend = 0
	v.spatial = profile.NeutralSpatial()
	v.anchor = nil
	v.state = voiceStopped
	v.pos = 0
}

// SetClip loads the clip outside the mixer lock. A clip that fails to
// load leaves the voice silent, so it finishes as soon as it is played.
func (v *voice) SetClip(id profile.ClipID) {
	var c *clip.Clip
	if id != "" && v.m.clips != nil {
		var err error
		if c, err = v.m.clips.Clip(id); err != nil {
			v.m.log.Warn("clip unavailable", "clip", id, "error", err)
		}
	}

	v.m.mu.Lock()
	v.clipID, v.clip = id, c
	v.m.mu.Unlock()
}

func (v *voice) set(fn func()) {
	v.m.mu.Lock()
	fn()
	v.m.mu.Unlock()
}

func (v *voice) SetLoop(b bool)                       { v.set(func() { v.loop = b }) }
func (v *voice) SetVolume(f float32)                  { v.set(func() { v.volume = f }) }
func (v *voice) SetPitch(f float32)                   { v.set(func() { v.pitch = f }) }
func (v *voice) SetPan(f float32)                     { v.set(func() { v.pan = f }) }
func (v *voice) SetGroup(g profile.Group)             { v.set(func() { v.group = g }) }
func (v *voice) SetSpatialBlend(f float32)            { v.set(func() { v.blend = utils.Clamp(f, 0, 1) }) }
func (v *voice) SetSpatial(s profile.SpatialSettings) { v.set(func() { v.spatial = s }) }
func (v *voice) Attach(a pool.Anchor)                 { v.set(func() { v.anchor = a }) }

// Play starts from the beginning, or from the end when pitch is negative.
func (v *voice) Play() {
	v.set(func() {
		v.pos = 0
		if v.pitch < 0 && v.clip != nil {
			v.pos = float64(v.clip.Frames() - 1)
		}
		v.state = voicePlaying
	})
}

func (v *voice) Stop() {
	v.set(func() {
		v.state = voiceStopped
		v.pos = 0
	})
}

func (v *voice) Pause() {
	v.set(func() {
		if v.state == voicePlaying {
			v.state = voicePaused
		}
	})
}

func (v *voice) Resume() {
	v.set(func() {
		if v.state == voicePaused {
			v.state = voicePlaying
		}
	})
}

func (v *voice) Playing() bool {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.state == voicePlaying
}

func (v *voice) Reset() { v.set(v.resetLocked) }

// sample returns clip frame i, wrapping when looping and clamping to the
// edges otherwise.
func (v *voice) sample(i int) float32 {
	s := v.clip.Samples
	n := len(s)
	if v.loop {
		i %= n
		if i < 0 {
			i += n
		}
		return s[i]
	}
	return s[max(0, min(i, n-1))]
}

// gains combines volume, group gain, pan and spatial attenuation into the
// left and right multipliers for this block.
func (v *voice) gains(groupGain float32, listener Vec3) (l, r float32) {
	gain := v.volume * groupGain
	pan := v.pan

	if v.blend > 0 {
		if p, ok := v.anchor.(Positioner); ok {
			sPan, sGain := spatialPan(v.spatial, p.Position().Sub(listener))
			pan = utils.Lerp(pan, sPan, v.blend)
			gain *= utils.Lerp(1, sGain, v.blend)
		}
	}

	l, r = panGains(pan)
	return l * gain, r * gain
}

// render adds up to len(dst)/2 stereo frames into dst. It marks the voice
// finished when a non-looping clip runs out.
func (v *voice) render(dst []float32, step float64, gl, gr float32) {
	if v.clip == nil || len(v.clip.Samples) == 0 {
		v.state = voiceFinished
		return
	}

	n := float64(len(v.clip.Samples))
	for i := 0; i+1 < len(dst); i += 2 {
		if v.loop {
			v.pos = math.Mod(v.pos, n)
			if v.pos < 0 {
				v.pos += n
			}
		} else if v.pos < 0 || v.pos > n-1 {
			v.state = voiceFinished
			return
		}

		base := math.Floor(v.pos)
		k := int(base)
		x := float32(v.pos - base)
		s := utils.CubicInterpolate(v.sample(k-1), v.sample(k), v.sample(k+1), v.sample(k+2), x)

		dst[i] += s * gl
		dst[i+1] += s * gr
		v.pos += step
	}
}
