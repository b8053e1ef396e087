package zone

import (
	"log/slog"
	"math"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/memzone/internal/utils"
	"github.com/vkngwrapper/memzone/memutils"
)

var heapZoneIdentity = DeclareZone("heap")

// HeapZoneOptions contains optional settings when creating a HeapZone
type HeapZoneOptions struct {
	// Flags indicates specific zone behaviors to activate or deactivate
	Flags CreateFlags
	// Limit is the maximum number of live bytes the zone will hand out before allocations
	// start returning nil. 0 means no limit.
	Limit int
}

type heapAllocation struct {
	buffer []byte
	size   int
}

// HeapZone is a zone with explicit ownership: every allocation stays live until it is
// deallocated, and deallocating a pointer the zone did not hand out panics.
type HeapZone struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	limit     int
	liveBytes int
	live      *swiss.Map[uintptr, heapAllocation]
}

var _ Zone = &HeapZone{}
var _ Owner = &HeapZone{}

func NewHeapZone(logger *slog.Logger, options HeapZoneOptions) *HeapZone {
	memutils.Assertf(options.Limit >= 0, "heap zone limit must not be negative, got %d", options.Limit)

	return &HeapZone{
		logger: utils.LoggerOrDiscard(logger),
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
		limit: options.Limit,
		live:  swiss.NewMap[uintptr, heapAllocation](16),
	}
}

func (z *HeapZone) ID() ZoneID {
	return heapZoneIdentity.ID()
}

func (z *HeapZone) Allocate(size int, category CategoryID) unsafe.Pointer {
	return z.AlignedAllocate(size, DefaultAlignment, category)
}

func (z *HeapZone) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	z.AlignedDeallocate(ptr, category)
}

func (z *HeapZone) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")

	if size > math.MaxInt-int(alignment) {
		z.logger.Debug("HeapZone::AlignedAllocate size out of range", slog.Int("Size", size))
		return nil
	}

	z.mutex.Lock()
	defer z.mutex.Unlock()

	if z.limit > 0 && size > z.limit-z.liveBytes {
		z.logger.Debug("HeapZone::AlignedAllocate limit reached",
			slog.Int("Size", size),
			slog.Int("LiveBytes", z.liveBytes),
			slog.Int("Limit", z.limit),
		)
		return nil
	}

	buffer := make([]byte, size+int(alignment)-1)
	ptr := memutils.AlignPointer(unsafe.Pointer(unsafe.SliceData(buffer)), alignment)

	z.live.Put(uintptr(ptr), heapAllocation{buffer: buffer, size: size})
	z.liveBytes += size

	TrackAllocated(ptr, size, heapZoneIdentity.ID(), category)
	return ptr
}

func (z *HeapZone) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	if ptr == nil {
		return
	}

	z.mutex.Lock()
	defer z.mutex.Unlock()

	allocation, ok := z.live.Get(uintptr(ptr))
	memutils.Assertf(ok, "pointer %p was not allocated by this heap zone", ptr)

	z.live.Delete(uintptr(ptr))
	z.liveBytes -= allocation.size

	TrackDeallocated(ptr, heapZoneIdentity.ID(), category)
}

// Owns reports whether ptr is a live allocation of this zone
func (z *HeapZone) Owns(ptr unsafe.Pointer) bool {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.live.Has(uintptr(ptr))
}

// LiveCount returns the number of allocations that have not been deallocated
func (z *HeapZone) LiveCount() int {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.live.Count()
}

// LiveBytes returns the number of requested bytes across all live allocations
func (z *HeapZone) LiveBytes() int {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.liveBytes
}

func (z *HeapZone) AddStatistics(stats *memutils.Statistics) {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	count := z.live.Count()
	stats.BlockCount += count
	stats.AllocationCount += count
	stats.AllocationBytes += z.liveBytes
	z.live.Iter(func(_ uintptr, allocation heapAllocation) bool {
		stats.BlockBytes += len(allocation.buffer)
		return false
	})
}
