// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 or 32 bits is accepted, with any channel count
// and sample rate. Samples come out as float32 in [-1, 1].
package aiff
