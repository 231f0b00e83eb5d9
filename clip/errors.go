// SPDX-License-Identifier: EPL-2.0

package clip

import "errors"

var (
	ErrInvalidClipID     = errors.New("invalid clip id")
	ErrUnsupportedFormat = errors.New("unsupported clip format")
	ErrClipNotFound      = errors.New("clip not found")
)
