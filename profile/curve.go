// SPDX-License-Identifier: EPL-2.0

package profile

import (
	"fmt"
	"sort"
)

type Keyframe struct {
	Time  float32 `yaml:"time" json:"time"`
	Value float32 `yaml:"value" json:"value"`
}

// Curve is a piecewise linear function over sorted keyframes.
type Curve []Keyframe

// Evaluate interpolates at t, holding the first and last values outside
// the keyed interval. An empty curve evaluates to 0.
func (c Curve) Evaluate(t float32) float32 {
	switch {
	case len(c) == 0:
		return 0
	case t <= c[0].Time:
		return c[0].Value
	case t >= c[len(c)-1].Time:
		return c[len(c)-1].Value
	}

	i := sort.Search(len(c), func(i int) bool { return c[i].Time > t })
	a, b := c[i-1], c[i]
	if b.Time == a.Time {
		return b.Value
	}
	x := (t - a.Time) / (b.Time - a.Time)
	return a.Value + (b.Value-a.Value)*x
}

func (c Curve) Validate() error {
	for i, k := range c {
		if !finite(k.Time) || !finite(k.Value) {
			return fmt.Errorf("%w: keyframe %d is not finite", ErrInvalidCurve, i)
		}
	}
	for i := 1; i < len(c); i++ {
		if c[i].Time < c[i-1].Time {
			return fmt.Errorf("%w: keyframe %d at %v before %v", ErrInvalidCurve, i, c[i].Time, c[i-1].Time)
		}
	}
	return nil
}
