// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into one registry.
package formats

import (
	"github.com/ik5/audmgr/audio"
	"github.com/ik5/audmgr/formats/aiff"
	"github.com/ik5/audmgr/formats/mp3"
	"github.com/ik5/audmgr/formats/vorbis"
	"github.com/ik5/audmgr/formats/wav"
)

// NewRegistry returns a registry with the wav, aiff, mp3 and vorbis
// decoders registered under their usual extensions.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	wav.Register(reg)
	aiff.Register(reg)
	mp3.Register(reg)
	vorbis.Register(reg)
	return reg
}
