package memutils

import (
	"math/bits"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// CheckPow2 returns an error wrapping PowerOfTwoError if number is not a power of two.
// Zero is not a power of two.
func CheckPow2[T constraints.Integer](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two.
func AlignUp[T constraints.Integer](value T, alignment uint) T {
	return (value + T(alignment) - 1) & ^(T(alignment) - 1)
}

// AlignDown rounds value down to a multiple of alignment, which must be a power of two.
func AlignDown[T constraints.Integer](value T, alignment uint) T {
	return value & ^(T(alignment) - 1)
}

// AlignPointer returns the first address at or after ptr that is a multiple of alignment.
func AlignPointer(ptr unsafe.Pointer, alignment uint) unsafe.Pointer {
	addr := uintptr(ptr)
	return unsafe.Add(ptr, AlignUp(addr, alignment)-addr)
}

// IsAligned reports whether ptr is a multiple of alignment
func IsAligned(ptr unsafe.Pointer, alignment uint) bool {
	return uintptr(ptr)&uintptr(alignment-1) == 0
}

// NextPowerOfTwo returns the smallest power of two greater than or equal to value.
// NextPowerOfTwo(0) is 1.
func NextPowerOfTwo(value uint) uint {
	if value <= 1 {
		return 1
	}
	return 1 << bits.Len(value-1)
}

// PowerOfTwoBitIndex returns log2(value) for a power of two value
func PowerOfTwoBitIndex(value uint) int {
	return bits.TrailingZeros(value)
}

// Bytes views size bytes starting at ptr as a byte slice. It returns nil when ptr is nil.
func Bytes(ptr unsafe.Pointer, size int) []byte {
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}
