package zone

//go:generate mockgen -source zone.go -destination ./mocks/zone.go -package mock_zone

import (
	"unsafe"
)

// DefaultAlignment is the alignment used by Allocate on zones that do not have a more
// specific notion of natural alignment
const DefaultAlignment uint = 16

// Zone is a source of raw memory. Allocation failure is reported with a nil pointer.
// Contract violations such as a non-positive size, an alignment that is not a power of two,
// or a pointer the zone did not hand out, panic.
//
// category is threaded through for accounting only and never changes where memory comes from.
type Zone interface {
	ID() ZoneID
	Allocate(size int, category CategoryID) unsafe.Pointer
	Deallocate(ptr unsafe.Pointer, category CategoryID)
	AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer
	AlignedDeallocate(ptr unsafe.Pointer, category CategoryID)
}

// Owner is implemented by zones that can tell whether they handed out a pointer. Chain uses
// it to route deallocations.
type Owner interface {
	Owns(ptr unsafe.Pointer) bool
}

// Default returns the zone used when no zone is configured
func Default() Zone {
	return GoZone{}
}

// OrDefault returns z, or the default zone when z is nil
func OrDefault(z Zone) Zone {
	if z == nil {
		return Default()
	}
	return z
}
