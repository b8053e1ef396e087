package pool

import (
	"log/slog"
	"sync/atomic"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memzone/internal/utils"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/zone"
)

var objectPoolIdentity = zone.DeclareZone("object-pool")

// ObjectPool is a pool with a single size class: a fixed number of slots big enough for one
// object of a known size and alignment. Requests that do not fit in a slot, and requests made
// while every slot is taken, go to the backing zone.
type ObjectPool struct {
	logger   *slog.Logger
	zone     zone.Proxy
	category zone.CategoryID

	alignment uint
	buffer    poolBuffer
	bucket    Bucket

	fallbackLive  atomic.Int64
	fallbackTotal atomic.Int64
	released      atomic.Bool
}

var _ zone.Zone = &ObjectPool{}
var _ zone.Owner = &ObjectPool{}
var _ memutils.Validatable = &ObjectPool{}

// NewObjectPool builds a pool of count slots, each able to hold elementSize bytes aligned to alignment
func NewObjectPool(logger *slog.Logger, elementSize int, alignment uint, count int, options CreateOptions) (*ObjectPool, error) {
	logger = utils.LoggerOrDiscard(logger)

	if elementSize <= 0 {
		return nil, cerrors.Newf("element size must be positive, got %d", elementSize)
	}
	if count <= 0 {
		return nil, cerrors.Newf("object count must be positive, got %d", count)
	}
	if err := memutils.CheckPow2(alignment, "alignment"); err != nil {
		return nil, err
	}

	if alignment < headerSize {
		alignment = headerSize
	}
	slotSize := memutils.AlignUp(elementSize, alignment)

	pool := &ObjectPool{
		logger:    logger,
		zone:      options.backingZone(),
		category:  options.Category.OrDefault(),
		alignment: alignment,
	}

	logger.Debug("ObjectPool::New",
		slog.Int("SlotSize", slotSize),
		slog.Int("Count", count),
		slog.Int("Alignment", int(alignment)),
		slog.String("Zone", pool.zone.ID().String()),
	)

	var err error
	pool.buffer, err = acquireBuffer(logger, pool.zone, pool.category, options.Buffer, slotSize*count, alignment)
	if err != nil {
		return nil, err
	}

	pool.bucket.Init(slotSize, pool.buffer.data)
	return pool, nil
}

func (p *ObjectPool) ID() zone.ZoneID {
	return objectPoolIdentity.ID()
}

// SlotSize returns the size of every slot in the pool
func (p *ObjectPool) SlotSize() int {
	return p.bucket.ElementSize()
}

// Bucket returns the pool's only bucket
func (p *ObjectPool) Bucket() *Bucket {
	return &p.bucket
}

func (p *ObjectPool) OwnsBuffer() bool {
	return p.buffer.owned
}

func (p *ObjectPool) FallbackCount() int {
	return int(p.fallbackLive.Load())
}

func (p *ObjectPool) FallbackTotal() int {
	return int(p.fallbackTotal.Load())
}

func (p *ObjectPool) Allocate(size int, category zone.CategoryID) unsafe.Pointer {
	return p.AlignedAllocate(size, 1, category)
}

func (p *ObjectPool) Deallocate(ptr unsafe.Pointer, category zone.CategoryID) {
	p.AlignedDeallocate(ptr, category)
}

func (p *ObjectPool) AlignedAllocate(size int, alignment uint, category zone.CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")
	memutils.Assertf(!p.released.Load(), "object pool was used after it was released")

	if size <= p.bucket.ElementSize() && alignment <= p.alignment {
		if ptr := p.bucket.Allocate(); ptr != nil {
			zone.TrackAllocated(ptr, size, objectPoolIdentity.ID(), category)
			return ptr
		}
	}

	p.logger.Debug("ObjectPool::AlignedAllocate falling back to zone",
		slog.Int("Size", size),
		slog.Int("Alignment", int(alignment)),
	)

	ptr := p.zone.AlignedAllocate(size, alignment, category)
	if ptr != nil {
		p.fallbackLive.Add(1)
		p.fallbackTotal.Add(1)
	}
	return ptr
}

func (p *ObjectPool) AlignedDeallocate(ptr unsafe.Pointer, category zone.CategoryID) {
	if ptr == nil {
		return
	}
	memutils.Assertf(!p.released.Load(), "object pool was used after it was released")

	if p.bucket.Contains(ptr) {
		zone.TrackDeallocated(ptr, objectPoolIdentity.ID(), category)
		p.bucket.Deallocate(ptr)
		return
	}

	p.zone.AlignedDeallocate(ptr, category)
	p.fallbackLive.Add(-1)
}

func (p *ObjectPool) Owns(ptr unsafe.Pointer) bool {
	return p.bucket.Contains(ptr)
}

// Release returns the pool buffer to the backing zone when the pool allocated it
func (p *ObjectPool) Release() {
	if p.released.Swap(true) {
		return
	}

	memutils.DebugValidate(p)
	owned := p.buffer.release(p.zone, p.category)
	p.logger.Debug("ObjectPool::Release", slog.Bool("OwnedBuffer", owned))
}

func (p *ObjectPool) AddStatistics(stats *memutils.Statistics) {
	p.bucket.AddStatistics(stats)
	stats.FallbackCount += p.FallbackCount()
}

func (p *ObjectPool) Validate() error {
	return p.bucket.Validate()
}

func (p *ObjectPool) BuildStatsString() string {
	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Zone").String(p.zone.ID().String())
	obj.Name("Alignment").Int(int(p.alignment))
	obj.Name("OwnsBuffer").Bool(p.buffer.owned)
	obj.Name("FallbackTotal").Int(p.FallbackTotal())

	var stats memutils.Statistics
	p.AddStatistics(&stats)
	totalObj := obj.Name("Total").Object()
	stats.WriteJSON(&totalObj)
	totalObj.End()

	bucketObj := obj.Name("Bucket").Object()
	p.bucket.WriteJSON(&bucketObj)
	bucketObj.End()

	obj.End()
	return string(writer.Bytes())
}
