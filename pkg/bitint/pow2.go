/*
Package bitint holds the integer helpers used to size FFT workspaces and
capture buffers.

A real-input FFT of N points yields N/2+1 magnitude bins. The analysis
pipeline requires N to be a power of two so the capture buffer length maps
directly onto the transform size:

	size := bitint.NextPowerOfTwo(framesPerBuffer) // 256 -> 256, 300 -> 512
	bins := bitint.SpectrumBins(size)              // 256 -> 129

NextPowerOfTwo subtracts one before taking the bit length so exact powers of
two are preserved: Len(8-1) = Len(0b0111) = 3 and 1<<3 = 8. Without the
subtraction Len(0b1000) = 4 and the size would double.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Non-positive sizes return 1.
//
//	Input  Output
//	256    256
//	257    512
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
// A power of two has a single bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// SpectrumBins returns the number of magnitude bins produced by a real
// FFT of size points.
func SpectrumBins(size int) int {
	if size <= 0 {
		return 0
	}
	return size/2 + 1
}
