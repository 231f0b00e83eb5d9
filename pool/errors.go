// SPDX-License-Identifier: EPL-2.0

package pool

import "errors"

var (
	ErrPoolExhausted = errors.New("pool exhausted")
	ErrDoubleRelease = errors.New("handle already released")
	ErrForeignHandle = errors.New("handle does not belong to this pool")
	ErrPoolClosed    = errors.New("pool closed")
	ErrInvalidConfig = errors.New("invalid pool config")
)
