// SPDX-License-Identifier: EPL-2.0

package profile

import "errors"

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidRange   = errors.New("invalid range")
	ErrInvalidSpatial = errors.New("invalid spatial settings")
	ErrInvalidCurve   = errors.New("invalid curve")
	ErrUnknownMode    = errors.New("unknown mode")
)
