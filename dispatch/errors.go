// SPDX-License-Identifier: EPL-2.0

package dispatch

import (
	"errors"

	"github.com/ik5/audmgr/catalog"
	"github.com/ik5/audmgr/pool"
)

var (
	ErrProfileNotFound = catalog.ErrProfileNotFound
	ErrPoolExhausted   = pool.ErrPoolExhausted
	ErrLoopStopped     = errors.New("dispatch loop stopped")
	ErrLoopRunning     = errors.New("dispatch loop already running")
)
