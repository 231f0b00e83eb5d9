// SPDX-License-Identifier: EPL-2.0

// Package utils holds small numeric helpers shared by the decoders and the mixer.
package utils

// Float32ToInt16 converts a normalised sample to 16-bit PCM, clamping to [-1, 1].
func Float32ToInt16(x float32) int16 {
	x = Clamp(x, -1, 1)

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp blends a toward b by t. t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// PutInt16LE writes samples as little-endian 16-bit PCM into dst and returns
// the number of bytes written. dst must hold 2 bytes per sample.
func PutInt16LE(dst []byte, samples []float32) int {
	n := 0
	for _, s := range samples {
		v := uint16(Float32ToInt16(s))
		dst[n] = byte(v)
		dst[n+1] = byte(v >> 8)
		n += 2
	}
	return n
}
