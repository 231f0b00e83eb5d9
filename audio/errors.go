// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize   = errors.New("dst size must be multiple of channels")
	ErrUnknownFormat    = errors.New("no decoder registered for format")
	ErrInvalidBitDepth  = errors.New("unsupported PCM bit depth")
	ErrInvalidFrameSize = errors.New("source returned a partial frame")
)
