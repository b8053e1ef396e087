package arena

import (
	"unsafe"
)

// Alloc returns a zeroed T stored inside the pool. T must not contain Go pointers: the garbage
// collector does not see references held in pool memory that came from outside the Go heap.
// It returns nil when the pool's zone is exhausted.
func Alloc[T any](p *ForwardPool) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T)
	}

	ptr := p.AlignedAllocate(size, uint(unsafe.Alignof(zero)), p.Category())
	if ptr == nil {
		return nil
	}

	clear(unsafe.Slice((*byte)(ptr), size))
	return (*T)(ptr)
}

// AllocSlice returns a zeroed slice of n elements of T stored inside the pool. The same restriction
// on Go pointers applies as for Alloc. It returns nil when n is not positive or the zone is exhausted.
func AllocSlice[T any](p *ForwardPool, n int) []T {
	if n <= 0 {
		return nil
	}

	var zero T
	size := int(unsafe.Sizeof(zero)) * n
	if size == 0 {
		return make([]T, n)
	}

	ptr := p.AlignedAllocate(size, uint(unsafe.Alignof(zero)), p.Category())
	if ptr == nil {
		return nil
	}

	clear(unsafe.Slice((*byte)(ptr), size))
	return unsafe.Slice((*T)(ptr), n)
}
