package primitives

import "math/bits"

// IsPowerOfTwo reports whether n is 1, 2, 4, 8, ...
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)). n must be non-zero.
func Log2(n uint64) int {
	return bits.Len64(n) - 1
}

// PowerOfTwoRatio returns the exponent k such that the larger of a and b
// equals the smaller shifted left by k. It reports false when no such k
// exists, including when either value is zero.
func PowerOfTwoRatio(a, b uint64) (int, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	lo, hi := min(a, b), max(a, b)
	if hi%lo != 0 {
		return 0, false
	}
	q := hi / lo
	if !IsPowerOfTwo(q) {
		return 0, false
	}
	return Log2(q), true
}
