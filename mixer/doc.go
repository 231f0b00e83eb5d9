// SPDX-License-Identifier: EPL-2.0

// Package mixer is a software backend for the handle pool. Each voice
// plays one mono clip with cubic interpolation at its pitch, is panned
// into stereo and scaled by its group volume. Voices bound to an anchor
// that has a position are attenuated and panned relative to the listener.
//
// The Mixer is an io.Reader of interleaved signed 16-bit stereo, which is
// what Output feeds to the sound card. Built with -tags headless, Output
// drains the mixer on a timer instead so playback still advances on
// machines without audio hardware.
package mixer
