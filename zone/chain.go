package zone

import (
	"unsafe"

	"github.com/vkngwrapper/memzone/memutils"
)

var chainZoneIdentity = DeclareZone("chain")

// Chain is an ordered list of zones tried one after another. Allocation returns the first
// non-nil result. Deallocation goes to the first zone that reports owning the pointer, or to
// the last zone in the chain when no zone claims it.
type Chain struct {
	zones []Zone
}

var _ Zone = &Chain{}
var _ Owner = &Chain{}

func NewChain(zones ...Zone) *Chain {
	memutils.Assertf(len(zones) > 0, "a zone chain needs at least one zone")
	for i, z := range zones {
		memutils.Assertf(z != nil, "zone %d in chain is nil", i)
	}

	return &Chain{
		zones: append([]Zone(nil), zones...),
	}
}

func (c *Chain) ID() ZoneID {
	return chainZoneIdentity.ID()
}

// Zones returns the zones of the chain in the order they are tried
func (c *Chain) Zones() []Zone {
	return c.zones
}

func (c *Chain) Allocate(size int, category CategoryID) unsafe.Pointer {
	for _, z := range c.zones {
		if ptr := z.Allocate(size, category); ptr != nil {
			return ptr
		}
	}
	return nil
}

func (c *Chain) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	for _, z := range c.zones {
		if ptr := z.AlignedAllocate(size, alignment, category); ptr != nil {
			return ptr
		}
	}
	return nil
}

func (c *Chain) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	if ptr == nil {
		return
	}
	c.owner(ptr).Deallocate(ptr, category)
}

func (c *Chain) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	if ptr == nil {
		return
	}
	c.owner(ptr).AlignedDeallocate(ptr, category)
}

// Owns reports whether any zone of the chain claims ptr
func (c *Chain) Owns(ptr unsafe.Pointer) bool {
	for _, z := range c.zones {
		if owner, isOwner := z.(Owner); isOwner && owner.Owns(ptr) {
			return true
		}
	}
	return false
}

func (c *Chain) owner(ptr unsafe.Pointer) Zone {
	for _, z := range c.zones {
		if owner, isOwner := z.(Owner); isOwner && owner.Owns(ptr) {
			return z
		}
	}
	return c.zones[len(c.zones)-1]
}
