// SPDX-License-Identifier: EPL-2.0

// Package clip loads audio clips from disk into memory for the mixer.
//
// Clips are decoded with the format registry, resampled to the store's
// rate, folded to mono and cached. Concurrent requests for the same clip
// share one decode.
package clip

import (
	"time"

	"github.com/ik5/audmgr/profile"
)

// Clip is decoded mono PCM.
type Clip struct {
	ID         profile.ClipID
	Samples    []float32
	SampleRate int
}

func (c *Clip) Frames() int { return len(c.Samples) }

func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}
