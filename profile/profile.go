// SPDX-License-Identifier: EPL-2.0

package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

type (
	// ID is the catalog key of a profile.
	ID string
	// ClipID references a clip in the clip store. The playback core
	// never looks inside it.
	ClipID string
	// Group is an output channel group of the mixer.
	Group string
)

// Range is a closed interval [Min, Max].
type Range struct {
	Min float32 `yaml:"min" json:"min"`
	Max float32 `yaml:"max" json:"max"`
}

// Fixed returns the degenerate range [v, v].
func Fixed(v float32) Range { return Range{Min: v, Max: v} }

func (r Range) Contains(v float32) bool { return v >= r.Min && v <= r.Max }

// Within reports whether r is ordered and lies inside [lo, hi].
func (r Range) Within(lo, hi float32) bool {
	return r.Min <= r.Max && r.Min >= lo && r.Max <= hi
}

// inside is false for NaN.
func inside(v, lo, hi float32) bool { return v >= lo && v <= hi }

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Pick maps u in [0,1) onto the range.
func (r Range) Pick(u float32) float32 {
	return min(r.Min+(r.Max-r.Min)*u, r.Max)
}

const (
	MinVolume, MaxVolume = 0, 1
	MinPitch, MaxPitch   = -3, 3
	MinPan, MaxPan       = -1, 1
)

// PlaybackConfig is one layer of a profile: a clip and how to play it.
type PlaybackConfig struct {
	Clip   ClipID
	Volume Range
	Pitch  Range
	Pan    float32
	Loop   bool
}

// NewPlaybackConfig returns a config for clip with unit volume and pitch,
// centered and not looping.
func NewPlaybackConfig(clip ClipID) PlaybackConfig {
	return PlaybackConfig{
		Clip:   clip,
		Volume: Fixed(1),
		Pitch:  Fixed(1),
	}
}

func (c PlaybackConfig) Validate() error {
	var errs []error
	if c.Clip == "" {
		errs = append(errs, fmt.Errorf("%w: empty clip", ErrInvalidProfile))
	}
	if !c.Volume.Within(MinVolume, MaxVolume) {
		errs = append(errs, fmt.Errorf("%w: volume %v outside [0,1]", ErrInvalidRange, c.Volume))
	}
	if !c.Pitch.Within(MinPitch, MaxPitch) {
		errs = append(errs, fmt.Errorf("%w: pitch %v outside [-3,3]", ErrInvalidRange, c.Pitch))
	}
	if !inside(c.Pan, MinPan, MaxPan) {
		errs = append(errs, fmt.Errorf("%w: pan %v outside [-1,1]", ErrInvalidRange, c.Pan))
	}
	return errors.Join(errs...)
}

// Profile is a named, immutable sound definition.
type Profile struct {
	ID      ID
	Group   Group
	Configs []PlaybackConfig
	// Spatial is nil when the profile relies on DefaultSpatial.
	Spatial *SpatialSettings
}

// Validate checks every config and the spatial settings and joins all
// violations into one error.
func (p *Profile) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, fmt.Errorf("%w: empty id", ErrInvalidProfile))
	}
	for i, c := range p.Configs {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config %d: %w", i, err))
		}
	}
	if p.Spatial != nil {
		if err := p.Spatial.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("profile %q: %w", p.ID, err)
	}
	return nil
}

// SpatialOrDefault returns the profile's spatial settings or DefaultSpatial.
func (p *Profile) SpatialOrDefault() SpatialSettings {
	if p.Spatial != nil {
		return *p.Spatial
	}
	return DefaultSpatial()
}

// UsesClip reports whether any config of p plays clip.
func (p *Profile) UsesClip(clip ClipID) bool {
	return slices.ContainsFunc(p.Configs, func(c PlaybackConfig) bool {
		return c.Clip == clip
	})
}

// Clips lists the distinct clips of p in config order.
func (p *Profile) Clips() []ClipID {
	out := make([]ClipID, 0, len(p.Configs))
	for _, c := range p.Configs {
		if !slices.Contains(out, c.Clip) {
			out = append(out, c.Clip)
		}
	}
	return out
}
