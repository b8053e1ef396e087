package zone

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

var voidZoneIdentity = DeclareZone("void")

// VoidZone is a zone that must never be called. It backs pools that are not allowed to
// fall back, and panics on every allocation or deallocation.
type VoidZone struct{}

var _ Zone = VoidZone{}

func (VoidZone) ID() ZoneID {
	return voidZoneIdentity.ID()
}

func (VoidZone) Allocate(size int, category CategoryID) unsafe.Pointer {
	panic(cerrors.AssertionFailedf("void zone cannot allocate %d bytes", size))
}

func (VoidZone) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	panic(cerrors.AssertionFailedf("void zone cannot deallocate %p", ptr))
}

func (VoidZone) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	panic(cerrors.AssertionFailedf("void zone cannot allocate %d bytes aligned to %d", size, alignment))
}

func (VoidZone) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	panic(cerrors.AssertionFailedf("void zone cannot deallocate %p", ptr))
}
