//go:build linux || darwin || freebsd || netbsd || openbsd

package zone

import (
	"log/slog"
	"math"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/memzone/internal/utils"
	"github.com/vkngwrapper/memzone/memutils"
	"golang.org/x/sys/unix"
)

type mapping struct {
	region []byte
	size   int
}

// MmapZone hands out anonymous private memory mappings. Every allocation is rounded up to
// whole pages and lives outside the Go heap until it is deallocated or the zone is closed.
type MmapZone struct {
	logger   *slog.Logger
	mutex    utils.OptionalMutex
	pageSize int

	liveBytes int
	live      *swiss.Map[uintptr, mapping]
}

var _ Zone = &MmapZone{}
var _ Owner = &MmapZone{}

func NewMmapZone(logger *slog.Logger, options MmapZoneOptions) (*MmapZone, error) {
	logger = utils.LoggerOrDiscard(logger)
	pageSize := unix.Getpagesize()

	logger.Debug("MmapZone::New", slog.Int("PageSize", pageSize))

	return &MmapZone{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
		pageSize: pageSize,
		live:     swiss.NewMap[uintptr, mapping](16),
	}, nil
}

func (z *MmapZone) ID() ZoneID {
	return mmapZoneIdentity.ID()
}

// PageSize returns the granularity mappings are rounded to
func (z *MmapZone) PageSize() int {
	return z.pageSize
}

func (z *MmapZone) Allocate(size int, category CategoryID) unsafe.Pointer {
	return z.AlignedAllocate(size, DefaultAlignment, category)
}

func (z *MmapZone) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	z.AlignedDeallocate(ptr, category)
}

func (z *MmapZone) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")

	if size > math.MaxInt-z.pageSize-int(alignment) {
		return nil
	}

	length := memutils.AlignUp(size, uint(z.pageSize))
	if alignment > uint(z.pageSize) {
		length += int(alignment)
	}

	region, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		z.logger.Debug("MmapZone::AlignedAllocate mapping failed",
			slog.Int("Size", size),
			slog.Int("Length", length),
			slog.Any("error", err),
		)
		return nil
	}

	ptr := memutils.AlignPointer(unsafe.Pointer(unsafe.SliceData(region)), alignment)

	z.mutex.Lock()
	defer z.mutex.Unlock()

	z.live.Put(uintptr(ptr), mapping{region: region, size: size})
	z.liveBytes += size

	TrackAllocated(ptr, size, mmapZoneIdentity.ID(), category)
	return ptr
}

func (z *MmapZone) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	if ptr == nil {
		return
	}

	z.mutex.Lock()
	defer z.mutex.Unlock()

	m, ok := z.live.Get(uintptr(ptr))
	memutils.Assertf(ok, "pointer %p was not allocated by this mmap zone", ptr)

	z.live.Delete(uintptr(ptr))
	z.liveBytes -= m.size
	TrackDeallocated(ptr, mmapZoneIdentity.ID(), category)

	if err := unix.Munmap(m.region); err != nil {
		z.logger.Error("MmapZone::AlignedDeallocate failed to unmap region", slog.Any("error", err))
	}
}

func (z *MmapZone) Owns(ptr unsafe.Pointer) bool {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.live.Has(uintptr(ptr))
}

func (z *MmapZone) LiveCount() int {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.live.Count()
}

func (z *MmapZone) LiveBytes() int {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	return z.liveBytes
}

// Close unmaps every live mapping. Pointers handed out by the zone are invalid afterward.
func (z *MmapZone) Close() error {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	var firstErr error
	z.live.Iter(func(_ uintptr, m mapping) bool {
		if err := unix.Munmap(m.region); err != nil && firstErr == nil {
			firstErr = err
		}
		return false
	})

	z.logger.Debug("MmapZone::Close", slog.Int("Mappings", z.live.Count()))

	z.live.Clear()
	z.liveBytes = 0
	return firstErr
}
