// Package safeconv provides checked integer conversions that panic on
// overflow instead of silently wrapping.
package safeconv

import "math"

// MaxInt is the maximum value for int on this platform.
const MaxInt = int(^uint(0) >> 1)

// MaxUint32 is the maximum value for uint32.
const MaxUint32 = uint32(math.MaxUint32)

// MustUintToInt converts uint to int, panicking on overflow.
// Use only where overflow is logically impossible, such as byte offsets
// into an in-memory buffer.
func MustUintToInt(v uint) int {
	if v > uint(MaxInt) {
		panic("safeconv: uint to int overflow")
	}

	return int(v)
}

// MustIntToUint converts int to uint, panicking on negative input.
func MustIntToUint(v int) uint {
	if v < 0 {
		panic("safeconv: negative int to uint conversion")
	}

	return uint(v)
}

// MustIntToUint32 converts int to uint32, panicking on bounds violation.
// Use only where the value is known to fit, such as line and column
// numbers of an in-memory document.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > int(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}
