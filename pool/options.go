package pool

import (
	"log/slog"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/zone"
)

// CreateOptions contains optional settings when creating a SmallPool or ObjectPool
type CreateOptions struct {
	// Zone supplies the pool's buffer when Buffer is too small, and serves every request the pool's
	// buckets cannot. When nil, the Go heap is used.
	Zone zone.Zone
	// Category is the accounting category used for the pool buffer and for fallback allocations.
	// When 0, zone.DefaultCategory is used.
	Category zone.CategoryID
	// Buffer is an optional caller-provided buffer. When it is large enough to hold every bucket
	// after its start is aligned, the pool lays out its buckets inside it and never returns it to
	// the zone. The caller must keep it alive, and must not use it, for as long as the pool is used.
	Buffer []byte
}

func (o CreateOptions) backingZone() zone.Proxy {
	if o.Zone == nil {
		return zone.StaticProxy[zone.GoZone]()
	}
	return zone.NewProxy(o.Zone)
}

// poolBuffer is the memory a pool lays its buckets out across
type poolBuffer struct {
	data  []byte
	owned bool
}

// acquireBuffer borrows the caller's buffer when it can hold size bytes aligned to alignment, and
// otherwise allocates the buffer from the backing zone
func acquireBuffer(logger *slog.Logger, backing zone.Proxy, category zone.CategoryID, buffer []byte, size int, alignment uint) (poolBuffer, error) {
	if len(buffer) > 0 {
		start := unsafe.Pointer(unsafe.SliceData(buffer))
		padding := int(uintptr(memutils.AlignPointer(start, alignment)) - uintptr(start))

		if len(buffer)-padding >= size {
			return poolBuffer{data: buffer[padding : padding+size : padding+size]}, nil
		}

		logger.Debug("Pool::acquireBuffer provided buffer is too small",
			slog.Int("BufferSize", len(buffer)),
			slog.Int("RequiredSize", size),
			slog.Int("Alignment", int(alignment)),
		)
	}

	ptr := backing.AlignedAllocate(size, alignment, category)
	if ptr == nil {
		return poolBuffer{}, cerrors.Newf("zone %s could not supply a %d-byte pool buffer", backing.ID(), size)
	}

	return poolBuffer{data: memutils.Bytes(ptr, size), owned: true}, nil
}

func (b *poolBuffer) base() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b.data))
}

func (b *poolBuffer) release(backing zone.Proxy, category zone.CategoryID) bool {
	if b.data == nil {
		return false
	}

	owned := b.owned
	if owned {
		backing.AlignedDeallocate(b.base(), category)
	}

	b.data = nil
	b.owned = false
	return owned
}
