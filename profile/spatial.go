// SPDX-License-Identifier: EPL-2.0

package profile

import (
	"errors"
	"fmt"
	"strings"
)

type SpreadMode int

const (
	SpreadConstant SpreadMode = iota
	SpreadCurve
)

var spreadNames = [...]string{"constant", "curve"}

func (m SpreadMode) String() string {
	if int(m) < len(spreadNames) && m >= 0 {
		return spreadNames[m]
	}
	return fmt.Sprintf("SpreadMode(%d)", int(m))
}

func ParseSpreadMode(s string) (SpreadMode, error) {
	for i, n := range spreadNames {
		if strings.EqualFold(s, n) {
			return SpreadMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: spread %q", ErrUnknownMode, s)
}

type RolloffMode int

const (
	RolloffLogarithmic RolloffMode = iota
	RolloffLinear
	RolloffConstant
	RolloffCurve
)

var rolloffNames = [...]string{"logarithmic", "linear", "constant", "curve"}

func (m RolloffMode) String() string {
	if int(m) < len(rolloffNames) && m >= 0 {
		return rolloffNames[m]
	}
	return fmt.Sprintf("RolloffMode(%d)", int(m))
}

func ParseRolloffMode(s string) (RolloffMode, error) {
	for i, n := range rolloffNames {
		if strings.EqualFold(s, n) {
			return RolloffMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: rolloff %q", ErrUnknownMode, s)
}

const (
	MaxDoppler = 5
	MaxSpread  = 360
)

// SpatialSettings parameterize the 3D backend for anchored emissions.
type SpatialSettings struct {
	Doppler      float32
	SpreadMode   SpreadMode
	Spread       float32 // degrees, used with SpreadConstant
	SpreadCurve  Curve   // spread over normalized distance, used with SpreadCurve
	MinDistance  float32
	MaxDistance  float32
	Rolloff      RolloffMode
	RolloffCurve Curve // gain over normalized distance, used with RolloffCurve
}

// DefaultSpatial is applied to anchored emissions of profiles without
// their own settings.
func DefaultSpatial() SpatialSettings {
	return SpatialSettings{
		Doppler:      1,
		SpreadMode:   SpreadCurve,
		SpreadCurve:  Curve{{0, 0.5}, {1, 0}},
		MinDistance:  1,
		MaxDistance:  500,
		Rolloff:      RolloffCurve,
		RolloffCurve: Curve{{0, 1}, {1, 0}},
	}
}

// NeutralSpatial is the state of a voice that carries no profile.
func NeutralSpatial() SpatialSettings {
	return SpatialSettings{
		Doppler:     1,
		SpreadMode:  SpreadConstant,
		MinDistance: 1,
		MaxDistance: 500,
		Rolloff:     RolloffLogarithmic,
	}
}

func (s SpatialSettings) Validate() error {
	var errs []error
	if !inside(s.Doppler, 0, MaxDoppler) {
		errs = append(errs, fmt.Errorf("%w: doppler %v outside [0,5]", ErrInvalidSpatial, s.Doppler))
	}
	if !finite(s.MaxDistance) || !inside(s.MinDistance, 0, s.MaxDistance) {
		errs = append(errs, fmt.Errorf("%w: distance bounds [%v,%v]", ErrInvalidSpatial, s.MinDistance, s.MaxDistance))
	}

	switch s.SpreadMode {
	case SpreadConstant:
		if !inside(s.Spread, 0, MaxSpread) {
			errs = append(errs, fmt.Errorf("%w: spread %v outside [0,360]", ErrInvalidSpatial, s.Spread))
		}
	case SpreadCurve:
		if len(s.SpreadCurve) == 0 {
			errs = append(errs, fmt.Errorf("%w: spread curve is empty", ErrInvalidSpatial))
		} else if err := s.SpreadCurve.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %v", ErrUnknownMode, s.SpreadMode))
	}

	switch s.Rolloff {
	case RolloffLogarithmic, RolloffLinear, RolloffConstant:
	case RolloffCurve:
		if len(s.RolloffCurve) == 0 {
			errs = append(errs, fmt.Errorf("%w: rolloff curve is empty", ErrInvalidSpatial))
		} else if err := s.RolloffCurve.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %v", ErrUnknownMode, s.Rolloff))
	}
	return errors.Join(errs...)
}

// SpreadAt returns the spread angle in degrees at normalized distance d.
func (s SpatialSettings) SpreadAt(d float32) float32 {
	if s.SpreadMode == SpreadCurve {
		// curve values are fractions of a full circle
		return s.SpreadCurve.Evaluate(d) * MaxSpread
	}
	return s.Spread
}
