package pool

import (
	"math"
	"sync/atomic"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memzone/memutils"
)

const (
	// invalidHead marks the end of a free list. A bucket whose head is invalidHead is exhausted.
	invalidHead uint64 = math.MaxUint64
	// headerSize is the size of the link word at the start of every free slot
	headerSize = 8
	// maximumBucketBytes is the largest buffer a bucket can lay out, since slot offsets are
	// stored in 32 bits
	maximumBucketBytes = math.MaxUint32
)

// packHead builds a free list link word. The offset is stored in the high 32 bits and the tag in the
// low 32 bits, and the two are always compared and swapped together.
func packHead(tag uint32, offset uint32) uint64 {
	return uint64(offset)<<32 | uint64(tag)
}

func headOffset(head uint64) uint32 {
	return uint32(head >> 32)
}

func headTag(head uint64) uint32 {
	return uint32(head)
}

// Bucket hands out fixed-size slots from a buffer it does not own, using a lock-free singly
// linked free list threaded through the free slots themselves. Every free slot starts with an
// 8-byte link word holding the offset of the next free slot and a tag. The tag changes each time a
// slot is pushed, so a stale head observed by a slow goroutine can never compare equal to the
// current head and the list is safe from ABA under concurrent allocate and deallocate.
//
// The first 8 bytes of a slot are reused for the link word once the slot is freed. Callers may
// use the entire slot while it is allocated.
type Bucket struct {
	buffer      []byte
	base        unsafe.Pointer
	elementSize int
	slotCount   int

	head      atomic.Uint64
	globalTag atomic.Uint32
	liveCount atomic.Int64
}

var _ memutils.Validatable = &Bucket{}

// NewBucket creates a bucket over buffer. See Init.
func NewBucket(elementSize int, buffer []byte) *Bucket {
	bucket := &Bucket{}
	bucket.Init(elementSize, buffer)
	return bucket
}

// Init lays out a free list of elementSize slots across buffer. elementSize must be a multiple
// of 8 and at least 8, the buffer must start on an 8-byte boundary and be smaller than 4 GiB.
// A buffer too small for a single element produces a bucket that never allocates.
//
// Init must not be called while other goroutines use the bucket.
func (b *Bucket) Init(elementSize int, buffer []byte) {
	memutils.Assertf(elementSize >= headerSize && elementSize%headerSize == 0,
		"bucket element size must be a positive multiple of %d, got %d", headerSize, elementSize)
	memutils.Assertf(uint64(len(buffer)) < maximumBucketBytes,
		"bucket buffer must be smaller than 4 GiB, got %d bytes", len(buffer))

	b.buffer = buffer
	b.base = unsafe.Pointer(unsafe.SliceData(buffer))
	b.elementSize = elementSize
	b.slotCount = len(buffer) / elementSize
	b.globalTag.Store(0)
	b.liveCount.Store(0)

	memutils.Assertf(b.base == nil || memutils.IsAligned(b.base, headerSize),
		"bucket buffer %p is not %d-byte aligned", b.base, headerSize)

	if b.slotCount == 0 {
		b.head.Store(invalidHead)
		return
	}

	for i := 0; i < b.slotCount; i++ {
		slot := b.slot(uint32(i * elementSize))

		if i == b.slotCount-1 {
			atomic.StoreUint64((*uint64)(slot), invalidHead)
		} else {
			tag := b.globalTag.Add(1) - 1
			atomic.StoreUint64((*uint64)(slot), packHead(tag, uint32((i+1)*elementSize)))
		}

		if memutils.DebugChecks {
			memutils.WriteMagicValue(slot, headerSize, elementSize-headerSize)
		}
	}

	b.head.Store(packHead(0, 0))
}

func (b *Bucket) slot(offset uint32) unsafe.Pointer {
	return unsafe.Add(b.base, offset)
}

func (b *Bucket) offsetOf(ptr unsafe.Pointer) uint32 {
	return uint32(uintptr(ptr) - uintptr(b.base))
}

// ElementSize returns the size of every slot in the bucket
func (b *Bucket) ElementSize() int {
	return b.elementSize
}

// SlotCount returns the number of slots laid out across the buffer
func (b *Bucket) SlotCount() int {
	return b.slotCount
}

// LiveCount returns the number of slots currently allocated
func (b *Bucket) LiveCount() int {
	return int(b.liveCount.Load())
}

// Contains reports whether ptr points into the slots of this bucket
func (b *Bucket) Contains(ptr unsafe.Pointer) bool {
	if b.base == nil {
		return false
	}
	address := uintptr(ptr)
	start := uintptr(b.base)
	return address >= start && address < start+uintptr(b.slotCount*b.elementSize)
}

func (b *Bucket) assertSlot(ptr unsafe.Pointer) {
	memutils.Assertf(b.Contains(ptr), "pointer %p does not belong to this bucket", ptr)
	memutils.Assertf(int(b.offsetOf(ptr))%b.elementSize == 0,
		"pointer %p is not at the start of a bucket slot", ptr)
}

// Allocate pops a slot off the free list, or returns nil when the bucket is exhausted. It is safe to
// call concurrently with Allocate and any of the deallocation methods.
func (b *Bucket) Allocate() unsafe.Pointer {
	for {
		head := b.head.Load()
		if head == invalidHead {
			return nil
		}

		slot := b.slot(headOffset(head))
		// The slot may already belong to another goroutine at this point, in which case the
		// word read here is meaningless and the swap below fails because the head has changed
		next := atomic.LoadUint64((*uint64)(slot))

		if b.head.CompareAndSwap(head, next) {
			b.liveCount.Add(1)

			if memutils.DebugChecks && !memutils.ValidateMagicValue(slot, headerSize, b.elementSize-headerSize) {
				panic(cerrors.AssertionFailedf("bucket slot %p was written to after it was freed", slot))
			}
			return slot
		}
	}
}

// Link writes a free list link from slot to next, so that a chain of slots can be handed to
// DeallocateInterval. Both slots must be allocated from this bucket.
func (b *Bucket) Link(slot, next unsafe.Pointer) {
	b.assertSlot(slot)
	b.assertSlot(next)

	tag := b.globalTag.Add(1) - 1
	atomic.StoreUint64((*uint64)(slot), packHead(tag, b.offsetOf(next)))
}

// DeallocateInterval pushes an already linked chain of allocated slots, from head to tail, back
// onto the free list with a single swap of the list head. head and tail are the same pointer when a
// single slot is returned.
func (b *Bucket) DeallocateInterval(head, tail unsafe.Pointer) {
	b.assertSlot(head)
	b.assertSlot(tail)

	count := 1
	for current := head; current != tail; count++ {
		memutils.Assertf(count <= b.slotCount, "bucket interval starting at %p never reaches %p", head, tail)

		if memutils.DebugChecks {
			memutils.WriteMagicValue(current, headerSize, b.elementSize-headerSize)
		}

		link := atomic.LoadUint64((*uint64)(current))
		memutils.Assertf(link != invalidHead, "bucket interval starting at %p never reaches %p", head, tail)
		current = b.slot(headOffset(link))
		b.assertSlot(current)
	}

	if memutils.DebugChecks {
		memutils.WriteMagicValue(tail, headerSize, b.elementSize-headerSize)
	}

	tag := b.globalTag.Add(1) - 1
	newHead := packHead(tag, b.offsetOf(head))

	b.liveCount.Add(-int64(count))
	for {
		current := b.head.Load()
		atomic.StoreUint64((*uint64)(tail), current)

		if b.head.CompareAndSwap(current, newHead) {
			return
		}
	}
}

// Deallocate returns a single slot to the free list
func (b *Bucket) Deallocate(ptr unsafe.Pointer) {
	b.DeallocateInterval(ptr, ptr)
}

// DeallocateBatch links every slot in ptrs together and returns them to the free list with a
// single swap of the list head
func (b *Bucket) DeallocateBatch(ptrs []unsafe.Pointer) {
	if len(ptrs) == 0 {
		return
	}

	for i := 0; i < len(ptrs)-1; i++ {
		b.Link(ptrs[i], ptrs[i+1])
	}
	b.DeallocateInterval(ptrs[0], ptrs[len(ptrs)-1])
}

// FreeCount walks the free list and returns the number of free slots. The result is only
// meaningful while no other goroutine is using the bucket.
func (b *Bucket) FreeCount() int {
	count := 0
	for head := b.head.Load(); head != invalidHead && count <= b.slotCount; count++ {
		head = atomic.LoadUint64((*uint64)(b.slot(headOffset(head))))
	}
	return count
}

// Validate checks the free list for out-of-range links, cycles, and a free count that does
// not match the live count. It must only be called while no other goroutine is using the bucket.
func (b *Bucket) Validate() error {
	free := 0
	for head := b.head.Load(); head != invalidHead; free++ {
		if free >= b.slotCount {
			return cerrors.Newf("bucket free list is longer than its %d slots", b.slotCount)
		}

		offset := int(headOffset(head))
		if offset%b.elementSize != 0 || offset >= b.slotCount*b.elementSize {
			return cerrors.Newf("bucket free list links to invalid offset %d (tag %d)", offset, headTag(head))
		}

		slot := b.slot(uint32(offset))
		if memutils.DebugChecks && !memutils.ValidateMagicValue(slot, headerSize, b.elementSize-headerSize) {
			return cerrors.Newf("free bucket slot at offset %d was written to after it was freed", offset)
		}
		head = atomic.LoadUint64((*uint64)(slot))
	}

	live := b.LiveCount()
	if free+live != b.slotCount {
		return cerrors.Newf("bucket has %d free and %d live slots, but %d slots in total", free, live, b.slotCount)
	}

	return nil
}

// AddStatistics adds this bucket's usage to stats. Each bucket counts as a single block.
func (b *Bucket) AddStatistics(stats *memutils.Statistics) {
	live := b.LiveCount()

	stats.BlockCount++
	stats.BlockBytes += b.slotCount * b.elementSize
	stats.AllocationCount += live
	stats.AllocationBytes += live * b.elementSize
}

// WriteJSON populates a json object with this bucket's layout and usage
func (b *Bucket) WriteJSON(json *jwriter.ObjectState) {
	json.Name("ElementSize").Int(b.elementSize)
	json.Name("SlotCount").Int(b.slotCount)
	json.Name("LiveCount").Int(b.LiveCount())
}
