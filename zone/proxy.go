package zone

import (
	"unsafe"
)

// Proxy is a copyable handle to a zone. It holds the zone's operations as function values,
// the zone instance as opaque data, and the zone's id. A Proxy owns nothing: the zone it
// refers to must outlive it.
//
// The zero Proxy is not valid and panics if used.
type Proxy struct {
	allocate          func(size int, category CategoryID) unsafe.Pointer
	deallocate        func(ptr unsafe.Pointer, category CategoryID)
	alignedAllocate   func(size int, alignment uint, category CategoryID) unsafe.Pointer
	alignedDeallocate func(ptr unsafe.Pointer, category CategoryID)

	data Zone
	id   ZoneID
}

var _ Zone = Proxy{}

// NewProxy binds a proxy to a zone instance. Wrapping a Proxy returns it unchanged.
func NewProxy(z Zone) Proxy {
	if proxy, isProxy := z.(Proxy); isProxy {
		return proxy
	}

	return Proxy{
		allocate:          z.Allocate,
		deallocate:        z.Deallocate,
		alignedAllocate:   z.AlignedAllocate,
		alignedDeallocate: z.AlignedDeallocate,
		data:              z,
		id:                z.ID(),
	}
}

// StaticProxy binds a proxy to a stateless zone type. Every call goes through the zero value
// of Z and the proxy carries no instance data. Z must be a value type whose zero value is a
// usable zone, such as GoZone.
func StaticProxy[Z Zone]() Proxy {
	var z Z
	return Proxy{
		allocate: func(size int, category CategoryID) unsafe.Pointer {
			var z Z
			return z.Allocate(size, category)
		},
		deallocate: func(ptr unsafe.Pointer, category CategoryID) {
			var z Z
			z.Deallocate(ptr, category)
		},
		alignedAllocate: func(size int, alignment uint, category CategoryID) unsafe.Pointer {
			var z Z
			return z.AlignedAllocate(size, alignment, category)
		},
		alignedDeallocate: func(ptr unsafe.Pointer, category CategoryID) {
			var z Z
			z.AlignedDeallocate(ptr, category)
		},
		id: z.ID(),
	}
}

// Valid reports whether the proxy is bound to a zone
func (p Proxy) Valid() bool {
	return p.allocate != nil
}

// IsStatic reports whether the proxy was built by StaticProxy
func (p Proxy) IsStatic() bool {
	return p.Valid() && p.data == nil
}

// Data returns the zone instance the proxy was built from, or nil for static proxies
func (p Proxy) Data() Zone {
	return p.data
}

func (p Proxy) ID() ZoneID {
	if !p.Valid() {
		return InvalidZone
	}
	return p.id
}

func (p Proxy) Allocate(size int, category CategoryID) unsafe.Pointer {
	return p.allocate(size, category)
}

func (p Proxy) Deallocate(ptr unsafe.Pointer, category CategoryID) {
	p.deallocate(ptr, category)
}

func (p Proxy) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	return p.alignedAllocate(size, alignment, category)
}

func (p Proxy) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {
	p.alignedDeallocate(ptr, category)
}

// Owns forwards to the wrapped zone when it implements Owner. Static proxies and zones
// without ownership information report false.
func (p Proxy) Owns(ptr unsafe.Pointer) bool {
	owner, isOwner := p.data.(Owner)
	return isOwner && owner.Owns(ptr)
}
