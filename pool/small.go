package pool

import (
	"log/slog"
	"strconv"
	"sync/atomic"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memzone/internal/utils"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/zone"
)

const (
	// MinimumAlignment is the size class step between buckets. Bucket i serves (i+1)*MinimumAlignment bytes.
	MinimumAlignment uint = 16
	// MaximumAlignment is the largest alignment a SmallPool accepts
	MaximumAlignment uint = 512
	// MaximumBucketCount is the largest number of buckets a SmallPool can have
	MaximumBucketCount = 8
)

var minimumAlignmentBitIndex = memutils.PowerOfTwoBitIndex(MinimumAlignment)

var smallPoolIdentity = zone.DeclareZone("small-pool")

// SmallPool is a size-classed allocator for small objects. It divides one buffer into up to
// MaximumBucketCount equally sized buckets, where bucket i hands out (i+1)*16-byte slots. A request
// is served by the first bucket, starting from the smallest that fits, that has a free slot and
// whose slots honor the requested alignment. Requests no bucket can serve go to the backing zone.
//
// Allocation and deallocation are lock-free and safe for concurrent use once the pool is built.
type SmallPool struct {
	logger   *slog.Logger
	zone     zone.Proxy
	category zone.CategoryID

	alignment  uint
	bucketSize int
	buffer     poolBuffer
	buckets    []Bucket

	fallbackLive  atomic.Int64
	fallbackTotal atomic.Int64
	released      atomic.Bool
}

var _ zone.Zone = &SmallPool{}
var _ zone.Owner = &SmallPool{}
var _ memutils.Validatable = &SmallPool{}

// NewSmallPool builds a pool of bucketCount buckets of bucketSize bytes each. bucketSize is rounded up
// to the pool alignment, which is the smallest power of two at or above 16*bucketCount.
func NewSmallPool(logger *slog.Logger, bucketCount int, bucketSize int, options CreateOptions) (*SmallPool, error) {
	logger = utils.LoggerOrDiscard(logger)

	if bucketCount <= 0 || bucketCount > MaximumBucketCount {
		return nil, cerrors.Newf("bucket count must be between 1 and %d, got %d", MaximumBucketCount, bucketCount)
	}
	if bucketSize <= 0 {
		return nil, cerrors.Newf("bucket size must be positive, got %d", bucketSize)
	}

	alignment := memutils.NextPowerOfTwo(MinimumAlignment * uint(bucketCount))
	bucketSize = memutils.AlignUp(bucketSize, alignment)
	totalSize := bucketSize * bucketCount

	pool := &SmallPool{
		logger:     logger,
		zone:       options.backingZone(),
		category:   options.Category.OrDefault(),
		alignment:  alignment,
		bucketSize: bucketSize,
		buckets:    make([]Bucket, bucketCount),
	}

	logger.Debug("SmallPool::New",
		slog.Int("BucketCount", bucketCount),
		slog.Int("BucketSize", bucketSize),
		slog.Int("Alignment", int(alignment)),
		slog.String("Zone", pool.zone.ID().String()),
	)

	var err error
	pool.buffer, err = acquireBuffer(logger, pool.zone, pool.category, options.Buffer, totalSize, alignment)
	if err != nil {
		return nil, err
	}

	for i := range pool.buckets {
		elementSize := (i + 1) * int(MinimumAlignment)
		offset := i * bucketSize
		pool.buckets[i].Init(elementSize, pool.buffer.data[offset:offset+bucketSize:offset+bucketSize])
	}

	return pool, nil
}

func (p *SmallPool) ID() zone.ZoneID {
	return smallPoolIdentity.ID()
}

// BucketCount returns the number of size classes in the pool
func (p *SmallPool) BucketCount() int {
	return len(p.buckets)
}

// BucketSize returns the number of buffer bytes given to each bucket
func (p *SmallPool) BucketSize() int {
	return p.bucketSize
}

// BucketElementSize returns the slot size of bucket index
func (p *SmallPool) BucketElementSize(index int) int {
	return p.buckets[index].ElementSize()
}

// Bucket returns the bucket at index
func (p *SmallPool) Bucket(index int) *Bucket {
	return &p.buckets[index]
}

// Alignment returns the alignment of the pool buffer
func (p *SmallPool) Alignment() uint {
	return p.alignment
}

// OwnsBuffer reports whether the pool buffer came from the backing zone rather than the caller
func (p *SmallPool) OwnsBuffer() bool {
	return p.buffer.owned
}

// FallbackCount returns the number of live allocations that were served by the backing zone
func (p *SmallPool) FallbackCount() int {
	return int(p.fallbackLive.Load())
}

// FallbackTotal returns the number of allocations ever served by the backing zone
func (p *SmallPool) FallbackTotal() int {
	return int(p.fallbackTotal.Load())
}

func (p *SmallPool) Allocate(size int, category zone.CategoryID) unsafe.Pointer {
	return p.AlignedAllocate(size, 1, category)
}

func (p *SmallPool) Deallocate(ptr unsafe.Pointer, category zone.CategoryID) {
	p.AlignedDeallocate(ptr, category)
}

func (p *SmallPool) AlignedAllocate(size int, alignment uint, category zone.CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")
	memutils.Assertf(alignment <= MaximumAlignment, "alignment %d is larger than the maximum pool alignment %d", alignment, MaximumAlignment)
	memutils.Assertf(!p.released.Load(), "small pool was used after it was released")

	request := uint(size)
	if alignment > request {
		request = alignment
	}

	for index := int((request - 1) >> minimumAlignmentBitIndex); index < len(p.buckets); index++ {
		bucket := &p.buckets[index]
		if uint(bucket.ElementSize())%alignment != 0 {
			continue
		}

		if ptr := bucket.Allocate(); ptr != nil {
			zone.TrackAllocated(ptr, size, smallPoolIdentity.ID(), category)
			return ptr
		}
	}

	p.logger.Debug("SmallPool::AlignedAllocate falling back to zone",
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

func (p *SmallPool) AlignedDeallocate(ptr unsafe.Pointer, category zone.CategoryID) {
	if ptr == nil {
		return
	}
	memutils.Assertf(!p.released.Load(), "small pool was used after it was released")

	if index, inPool := p.findBucket(ptr); inPool {
		zone.TrackDeallocated(ptr, smallPoolIdentity.ID(), category)
		p.buckets[index].Deallocate(ptr)
		return
	}

	p.zone.AlignedDeallocate(ptr, category)
	p.fallbackLive.Add(-1)
}

func (p *SmallPool) findBucket(ptr unsafe.Pointer) (int, bool) {
	if p.buffer.data == nil {
		return 0, false
	}

	offset := uintptr(ptr) - uintptr(p.buffer.base())
	index := offset / uintptr(p.bucketSize)
	return int(index), index < uintptr(len(p.buckets))
}

// Owns reports whether ptr lies inside the pool's buckets. Fallback allocations are not owned by the pool.
func (p *SmallPool) Owns(ptr unsafe.Pointer) bool {
	_, inPool := p.findBucket(ptr)
	return inPool
}

// Release returns the pool buffer to the backing zone when the pool allocated it. Slots handed out by the
// pool must not be used afterward, and the pool itself must not be used again.
func (p *SmallPool) Release() {
	if p.released.Swap(true) {
		return
	}

	memutils.DebugValidate(p)
	owned := p.buffer.release(p.zone, p.category)
	p.logger.Debug("SmallPool::Release", slog.Bool("OwnedBuffer", owned))
}

func (p *SmallPool) AddStatistics(stats *memutils.Statistics) {
	for i := range p.buckets {
		p.buckets[i].AddStatistics(stats)
	}
	stats.FallbackCount += p.FallbackCount()
}

// Validate checks every bucket's free list. It must only be called while no other goroutine uses the pool.
func (p *SmallPool) Validate() error {
	for i := range p.buckets {
		if err := p.buckets[i].Validate(); err != nil {
			return cerrors.Wrapf(err, "bucket %d", i)
		}
	}
	return nil
}

// BuildStatsString returns a json document describing the pool's layout and usage
func (p *SmallPool) BuildStatsString() string {
	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Zone").String(p.zone.ID().String())
	obj.Name("Alignment").Int(int(p.alignment))
	obj.Name("BucketSize").Int(p.bucketSize)
	obj.Name("OwnsBuffer").Bool(p.buffer.owned)
	obj.Name("FallbackTotal").Int(p.FallbackTotal())

	var stats memutils.Statistics
	p.AddStatistics(&stats)
	totalObj := obj.Name("Total").Object()
	stats.WriteJSON(&totalObj)
	totalObj.End()

	bucketsObj := obj.Name("Buckets").Object()
	for i := range p.buckets {
		bucketObj := bucketsObj.Name(strconv.Itoa(i)).Object()
		p.buckets[i].WriteJSON(&bucketObj)
		bucketObj.End()
	}
	bucketsObj.End()

	obj.End()
	return string(writer.Bytes())
}
