// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE files on top of go-audio/wav.
//
// The decoder accepts integer PCM at 8, 16, 24 and 32 bits, any channel
// count and any sample rate, and does not assume the canonical 44-byte
// header: extra chunks before "data" are skipped.
//
//	src, err := wav.Decoder{}.Decode(file)
//
// Encode writes interleaved float32 samples as 16-bit PCM; the render
// command uses it to bounce a mixed profile to disk:
//
//	err := wav.Encode(file, 48000, 2, samples)
package wav
