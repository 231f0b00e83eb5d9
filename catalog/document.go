// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"fmt"

	"github.com/ik5/audmgr/profile"
	"gopkg.in/yaml.v3"
)

// rangeDoc accepts a scalar, a [lo, hi] pair or a {min, max} mapping.
type rangeDoc profile.Range

func (r *rangeDoc) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var v float32
		if err := n.Decode(&v); err != nil {
			return err
		}
		*r = rangeDoc{Min: v, Max: v}
	case yaml.SequenceNode:
		var v []float32
		if err := n.Decode(&v); err != nil {
			return err
		}
		if len(v) != 2 {
			return fmt.Errorf("%w: line %d: range needs 2 values, got %d", ErrBadDocument, n.Line, len(v))
		}
		*r = rangeDoc{Min: v[0], Max: v[1]}
	case yaml.MappingNode:
		var v profile.Range
		if err := n.Decode(&v); err != nil {
			return err
		}
		*r = rangeDoc(v)
	default:
		return fmt.Errorf("%w: line %d: bad range", ErrBadDocument, n.Line)
	}
	return nil
}

// keyframeDoc accepts [time, value] or {time, value}.
type keyframeDoc profile.Keyframe

func (k *keyframeDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var v []float32
		if err := n.Decode(&v); err != nil {
			return err
		}
		if len(v) != 2 {
			return fmt.Errorf("%w: line %d: keyframe needs [time, value]", ErrBadDocument, n.Line)
		}
		*k = keyframeDoc{Time: v[0], Value: v[1]}
		return nil
	}

	var v profile.Keyframe
	if err := n.Decode(&v); err != nil {
		return err
	}
	*k = keyframeDoc(v)
	return nil
}

func toCurve(in []keyframeDoc) profile.Curve {
	if in == nil {
		return nil
	}
	out := make(profile.Curve, len(in))
	for i, k := range in {
		out[i] = profile.Keyframe(k)
	}
	return out
}

type configDoc struct {
	Clip   string    `yaml:"clip"`
	Volume *rangeDoc `yaml:"volume"`
	Pitch  *rangeDoc `yaml:"pitch"`
	Pan    float32   `yaml:"pan"`
	Loop   bool      `yaml:"loop"`
}

type spatialDoc struct {
	Doppler      *float32      `yaml:"doppler"`
	SpreadMode   string        `yaml:"spread_mode"`
	Spread       *float32      `yaml:"spread"`
	SpreadCurve  []keyframeDoc `yaml:"spread_curve"`
	MinDistance  *float32      `yaml:"min_distance"`
	MaxDistance  *float32      `yaml:"max_distance"`
	Rolloff      string        `yaml:"rolloff"`
	RolloffCurve []keyframeDoc `yaml:"rolloff_curve"`
}

type profileDoc struct {
	ID      string      `yaml:"id"`
	Group   string      `yaml:"group"`
	Configs []configDoc `yaml:"configs"`
	Spatial *spatialDoc `yaml:"spatial"`
}

type fileDoc struct {
	profileDoc `yaml:",inline"`
	Profiles   []profileDoc `yaml:"profiles"`
}

func (d configDoc) build() profile.PlaybackConfig {
	c := profile.NewPlaybackConfig(profile.ClipID(d.Clip))
	if d.Volume != nil {
		c.Volume = profile.Range(*d.Volume)
	}
	if d.Pitch != nil {
		c.Pitch = profile.Range(*d.Pitch)
	}
	c.Pan = d.Pan
	c.Loop = d.Loop
	return c
}

// build starts from DefaultSpatial and overrides what the document sets.
// A constant spread or a named mode switches the spread away from the
// default curve.
func (d *spatialDoc) build() (*profile.SpatialSettings, error) {
	s := profile.DefaultSpatial()
	if d.Doppler != nil {
		s.Doppler = *d.Doppler
	}
	if d.MinDistance != nil {
		s.MinDistance = *d.MinDistance
	}
	if d.MaxDistance != nil {
		s.MaxDistance = *d.MaxDistance
	}

	switch {
	case d.SpreadMode != "":
		m, err := profile.ParseSpreadMode(d.SpreadMode)
		if err != nil {
			return nil, err
		}
		s.SpreadMode = m
	case d.Spread != nil:
		s.SpreadMode = profile.SpreadConstant
	}
	if d.Spread != nil {
		s.Spread = *d.Spread
	}
	if d.SpreadCurve != nil {
		s.SpreadCurve = toCurve(d.SpreadCurve)
	}

	if d.Rolloff != "" {
		m, err := profile.ParseRolloffMode(d.Rolloff)
		if err != nil {
			return nil, err
		}
		s.Rolloff = m
	}
	if d.RolloffCurve != nil {
		s.RolloffCurve = toCurve(d.RolloffCurve)
	}
	return &s, nil
}

func (d *profileDoc) build(defaultID string) (*profile.Profile, error) {
	id := d.ID
	if id == "" {
		id = defaultID
	}

	p := &profile.Profile{
		ID:      profile.ID(id),
		Group:   profile.Group(d.Group),
		Configs: make([]profile.PlaybackConfig, 0, len(d.Configs)),
	}
	for _, c := range d.Configs {
		p.Configs = append(p.Configs, c.build())
	}
	if d.Spatial != nil {
		s, err := d.Spatial.build()
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", id, err)
		}
		p.Spatial = s
	}
	return p, p.Validate()
}

// isEmpty reports whether the inline single-profile form is unused.
func (d *profileDoc) isEmpty() bool {
	return d.ID == "" && d.Group == "" && len(d.Configs) == 0 && d.Spatial == nil
}
