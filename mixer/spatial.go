// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"sync"

	"github.com/ik5/audmgr/profile"
	"github.com/ik5/audmgr/utils"
)

type Vec3 struct{ X, Y, Z float32 }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Len() float32 {
	return float32(math.Sqrt(float64(a.X*a.X + a.Y*a.Y + a.Z*a.Z)))
}

// Positioner is implemented by anchors that exist in world space.
type Positioner interface {
	Position() Vec3
}

// Emitter is a named anchor with a movable position.
type Emitter struct {
	name string

	mu  sync.RWMutex
	pos Vec3
}

func NewEmitter(name string, pos Vec3) *Emitter {
	return &Emitter{name: name, pos: pos}
}

func (e *Emitter) AnchorName() string { return e.name }

func (e *Emitter) Position() Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

func (e *Emitter) SetPosition(p Vec3) {
	e.mu.Lock()
	e.pos = p
	e.mu.Unlock()
}

// normalizedDistance maps d onto [0,1] between the min and max distance.
func normalizedDistance(s profile.SpatialSettings, d float32) float32 {
	span := s.MaxDistance - s.MinDistance
	if span <= 0 {
		if d >= s.MaxDistance {
			return 1
		}
		return 0
	}
	return utils.Clamp((d-s.MinDistance)/span, 0, 1)
}

// Attenuation is the distance gain for d under s.
func Attenuation(s profile.SpatialSettings, d float32) float32 {
	switch s.Rolloff {
	case profile.RolloffConstant:
		return 1
	case profile.RolloffLinear:
		return 1 - normalizedDistance(s, d)
	case profile.RolloffCurve:
		return utils.Clamp(s.RolloffCurve.Evaluate(normalizedDistance(s, d)), 0, 1)
	default:
		// inverse distance, flat inside min and beyond max
		if s.MinDistance <= 0 {
			return 1
		}
		d = utils.Clamp(d, s.MinDistance, max(s.MinDistance, s.MaxDistance))
		return s.MinDistance / d
	}
}

// spatialPan returns the pan and gain of a source at offset from the
// listener. Wider spread pulls the pan toward the center.
func spatialPan(s profile.SpatialSettings, offset Vec3) (pan, gain float32) {
	d := offset.Len()
	gain = Attenuation(s, d)
	if d > 0 {
		pan = utils.Clamp(offset.X/d, -1, 1)
	}
	spread := utils.Clamp(s.SpreadAt(normalizedDistance(s, d)), 0, profile.MaxSpread)
	return pan * (1 - spread/profile.MaxSpread), gain
}

// panGains is the linear pan law: the far side fades, the near side stays
// at unity.
func panGains(pan float32) (l, r float32) {
	pan = utils.Clamp(pan, -1, 1)
	return min(1, 1-pan), min(1, 1+pan)
}
