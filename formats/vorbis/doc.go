// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams using
// github.com/jfreymuth/oggvorbis. The decoder already yields float32, so
// samples pass through unchanged.
package vorbis
