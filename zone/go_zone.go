package zone

import (
	"math"
	"unsafe"

	"github.com/vkngwrapper/memzone/memutils"
)

var goZoneIdentity = DeclareZone("go")

// GoZone allocates from the Go heap. It is stateless, so the zero value is ready to use and
// can be wrapped with StaticProxy. Memory is reclaimed by the garbage collector once the
// caller drops every reference to it, so deallocation only reports to the tracker.
type GoZone struct{}

var _ Zone = GoZone{}

func (GoZone) ID() ZoneID {
	return goZoneIdentity.ID()
}

func (z GoZone) Allocate(size int, category CategoryID) unsafe.Pointer {
	return z.AlignedAllocate(size, DefaultAlignment, category)
}

func (z GoZone) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	z.AlignedDeallocate(ptr, category)
}

func (GoZone) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")

	if size > math.MaxInt-int(alignment) {
		return nil
	}

	buffer := make([]byte, size+int(alignment)-1)
	ptr := memutils.AlignPointer(unsafe.Pointer(unsafe.SliceData(buffer)), alignment)

	TrackAllocated(ptr, size, goZoneIdentity.ID(), category)
	return ptr
}

func (GoZone) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	TrackDeallocated(ptr, goZoneIdentity.ID(), category)
}
