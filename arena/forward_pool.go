package arena

import (
	"log/slog"
	"math"
	"sync/atomic"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memzone/internal/utils"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/zone"
)

var forwardPoolIdentity = zone.DeclareZone("forward-pool")

// sharedData is the state every handle of a pool points at
type sharedData struct {
	logger     *slog.Logger
	mutex      utils.OptionalMutex
	references atomic.Int32
	flags      CreateFlags

	zone          zone.Proxy
	category      zone.CategoryID
	chunkCapacity int

	// chunks are ordered oldest first; allocations only ever come from the newest chunk
	chunks          []*chunk
	allocationCount int
}

// ForwardPool is an arena: it bumps allocations off the end of its newest chunk, and requests a
// new chunk from its zone when the newest chunk runs out of room. Individual deallocations do
// nothing. Memory comes back all at once through Clear, or when the last handle is released.
//
// A ForwardPool is a handle to shared pool state. Clone creates another handle to the same
// pool and Release drops a handle; the chunks are returned to the zone when the last handle
// is released. A released handle must not be used again.
type ForwardPool struct {
	shared *sharedData
}

var _ zone.Zone = &ForwardPool{}
var _ zone.Owner = &ForwardPool{}
var _ memutils.Validatable = &ForwardPool{}

func newSharedData(logger *slog.Logger, options CreateOptions) *sharedData {
	chunkCapacity := options.ChunkCapacity
	if chunkCapacity == 0 {
		chunkCapacity = DefaultChunkCapacity
	}
	memutils.Assertf(chunkCapacity > 0, "chunk capacity must be positive, got %d", chunkCapacity)

	backing := zone.StaticProxy[zone.GoZone]()
	if options.Zone != nil {
		backing = zone.NewProxy(options.Zone)
	}

	shared := &sharedData{
		logger: utils.LoggerOrDiscard(logger),
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateExternallySynchronized == 0,
		},
		flags:         options.Flags,
		zone:          backing,
		category:      options.Category.OrDefault(),
		chunkCapacity: chunkCapacity,
	}
	shared.references.Store(1)
	return shared
}

// New creates a pool that requests chunks of options.ChunkCapacity bytes from options.Zone. The
// first chunk is requested on the first allocation unless CreateEagerFirstChunk is set.
func New(logger *slog.Logger, options CreateOptions) (*ForwardPool, error) {
	shared := newSharedData(logger, options)

	shared.logger.Debug("ForwardPool::New",
		slog.Int("ChunkCapacity", shared.chunkCapacity),
		slog.String("Flags", options.Flags.String()),
		slog.String("Zone", shared.zone.ID().String()),
	)

	if options.Flags&CreateEagerFirstChunk != 0 {
		if shared.pushChunk(shared.chunkCapacity) == nil {
			return nil, cerrors.Newf("zone %s could not supply the first %d-byte chunk", shared.zone.ID(), shared.chunkCapacity)
		}
	}

	return &ForwardPool{shared: shared}, nil
}

// NewWithBuffer creates a pool whose first chunk is carved out of buffer. The buffer is never
// handed to the zone, and it survives Clear. The caller must keep the buffer alive, and must not
// use it, until the pool is released. Later chunks come from options.Zone as they do for New.
func NewWithBuffer(logger *slog.Logger, buffer []byte, options CreateOptions) *ForwardPool {
	shared := newSharedData(logger, options)

	if len(buffer) > 0 {
		start := unsafe.Pointer(unsafe.SliceData(buffer))
		padding := int(uintptr(memutils.AlignPointer(start, ChunkAlignment)) - uintptr(start))

		if padding < len(buffer) {
			shared.chunks = append(shared.chunks, &chunk{data: buffer[padding:len(buffer):len(buffer)]})
		}
	}

	shared.logger.Debug("ForwardPool::NewWithBuffer",
		slog.Int("BufferSize", len(buffer)),
		slog.Int("ChunkCapacity", shared.chunkCapacity),
		slog.String("Flags", options.Flags.String()),
	)

	return &ForwardPool{shared: shared}
}

func (p *ForwardPool) data() *sharedData {
	memutils.Assertf(p.shared != nil, "forward pool handle was used after it was released")
	return p.shared
}

// pushChunk requests a chunk of capacity bytes from the zone and makes it the newest chunk. It
// must be called with the mutex held.
func (s *sharedData) pushChunk(capacity int) *chunk {
	ptr := s.zone.AlignedAllocate(capacity, ChunkAlignment, s.category)
	if ptr == nil {
		s.logger.Debug("ForwardPool::pushChunk zone is exhausted", slog.Int("Capacity", capacity))
		return nil
	}

	c := &chunk{
		data:  memutils.Bytes(ptr, capacity),
		owned: true,
	}
	s.chunks = append(s.chunks, c)

	s.logger.Debug("ForwardPool::pushChunk",
		slog.Int("Capacity", capacity),
		slog.Int("ChunkCount", len(s.chunks)),
	)
	return c
}

func (s *sharedData) freeChunk(c *chunk) {
	if c.owned {
		s.zone.AlignedDeallocate(c.base(), s.category)
	}
}

func (p *ForwardPool) ID() zone.ZoneID {
	return forwardPoolIdentity.ID()
}

// Clone returns a new handle to this pool. Both handles must be released.
func (p *ForwardPool) Clone() *ForwardPool {
	shared := p.data()
	shared.references.Add(1)
	return &ForwardPool{shared: shared}
}

// Move returns a new handle that takes over this handle's share of the pool. This handle is
// left released.
func (p *ForwardPool) Move() *ForwardPool {
	moved := &ForwardPool{shared: p.data()}
	p.shared = nil
	return moved
}

// Assign drops this handle's share of its pool and makes it share other's pool instead
func (p *ForwardPool) Assign(other *ForwardPool) {
	shared := other.data()
	if p.shared == shared {
		return
	}

	shared.references.Add(1)
	p.Release()
	p.shared = shared
}

// Release drops this handle. When it was the last handle to the pool, every chunk the pool
// requested from its zone is returned to it. Releasing a handle more than once does nothing.
func (p *ForwardPool) Release() {
	shared := p.shared
	if shared == nil {
		return
	}
	p.shared = nil

	if shared.references.Add(-1) > 0 {
		return
	}

	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	shared.logger.Debug("ForwardPool::Release", slog.Int("ChunkCount", len(shared.chunks)))

	for _, c := range shared.chunks {
		shared.freeChunk(c)
	}
	shared.chunks = nil
	shared.allocationCount = 0
}

// IsReleased reports whether this handle was released or moved from
func (p *ForwardPool) IsReleased() bool {
	return p.shared == nil
}

// IsShared reports whether another handle refers to this pool
func (p *ForwardPool) IsShared() bool {
	return p.References() > 1
}

// References returns the number of handles that refer to this pool
func (p *ForwardPool) References() int {
	return int(p.data().references.Load())
}

// Flags returns the flags the pool was created with
func (p *ForwardPool) Flags() CreateFlags {
	return p.data().flags
}

// Category returns the category the pool reports its chunks and typed allocations under
func (p *ForwardPool) Category() zone.CategoryID {
	return p.data().category
}

func (p *ForwardPool) Allocate(size int, category zone.CategoryID) unsafe.Pointer {
	return p.AlignedAllocate(size, ChunkAlignment, category)
}

// AlignedAllocate bumps size bytes off the newest chunk, requesting a new chunk from the zone when
// they do not fit. Older chunks are never revisited. It returns nil when the zone is exhausted.
func (p *ForwardPool) AlignedAllocate(size int, alignment uint, category zone.CategoryID) unsafe.Pointer {
	memutils.AssertSize(size)
	memutils.AssertPow2(alignment, "alignment")

	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	if len(shared.chunks) > 0 {
		if ptr := shared.chunks[len(shared.chunks)-1].allocate(size, alignment); ptr != nil {
			shared.allocationCount++
			return ptr
		}
	}

	required := size
	if alignment > ChunkAlignment {
		padding := int(alignment - ChunkAlignment)
		if size > math.MaxInt-padding {
			return nil
		}
		required += padding
	}

	capacity := shared.chunkCapacity
	if required > capacity {
		capacity = required
	}

	c := shared.pushChunk(capacity)
	if c == nil {
		return nil
	}

	ptr := c.allocate(size, alignment)
	memutils.Assertf(ptr != nil, "new %d-byte chunk could not hold %d bytes aligned to %d", capacity, size, alignment)
	shared.allocationCount++
	return ptr
}

// Deallocate does nothing. Memory is reclaimed by Clear or Release.
func (p *ForwardPool) Deallocate(ptr unsafe.Pointer, category zone.CategoryID) {}

// AlignedDeallocate does nothing. Memory is reclaimed by Clear or Release.
func (p *ForwardPool) AlignedDeallocate(ptr unsafe.Pointer, category zone.CategoryID) {}

// Bytes allocates size bytes aligned to alignment and returns them as a slice, or nil when the zone
// is exhausted
func (p *ForwardPool) Bytes(size int, alignment uint) []byte {
	return memutils.Bytes(p.AlignedAllocate(size, alignment, p.Category()), size)
}

// Clear returns every chunk except the oldest to the zone and empties the oldest chunk. Every
// allocation made from the pool is invalid afterward.
func (p *ForwardPool) Clear() {
	memutils.DebugValidate(p)

	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	if len(shared.chunks) == 0 {
		return
	}

	shared.logger.Debug("ForwardPool::Clear", slog.Int("ChunkCount", len(shared.chunks)))

	for _, c := range shared.chunks[1:] {
		shared.freeChunk(c)
	}

	first := shared.chunks[0]
	first.size = 0
	clear(shared.chunks[1:])
	shared.chunks = shared.chunks[:1]
	shared.allocationCount = 0
}

// Capacity returns the total size of every chunk in the pool
func (p *ForwardPool) Capacity() int {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	capacity := 0
	for _, c := range shared.chunks {
		capacity += c.capacity()
	}
	return capacity
}

// Size returns the number of bytes used across every chunk in the pool, including alignment padding
func (p *ForwardPool) Size() int {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	size := 0
	for _, c := range shared.chunks {
		size += c.size
	}
	return size
}

func (p *ForwardPool) ChunkCount() int {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	return len(shared.chunks)
}

// Owns reports whether ptr lies inside one of the pool's chunks
func (p *ForwardPool) Owns(ptr unsafe.Pointer) bool {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	for _, c := range shared.chunks {
		if c.contains(ptr) {
			return true
		}
	}
	return false
}

func (p *ForwardPool) AddStatistics(stats *memutils.Statistics) {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	shared.addStatistics(stats)
}

func (s *sharedData) addStatistics(stats *memutils.Statistics) {
	stats.BlockCount += len(s.chunks)
	stats.AllocationCount += s.allocationCount
	for _, c := range s.chunks {
		stats.BlockBytes += c.capacity()
		stats.AllocationBytes += c.size
	}
}

func (p *ForwardPool) Validate() error {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	if shared.references.Load() <= 0 {
		return cerrors.Newf("forward pool has %d references but is still reachable", shared.references.Load())
	}

	for i, c := range shared.chunks {
		if c.size < 0 || c.size > c.capacity() {
			return cerrors.Newf("chunk %d has size %d but capacity %d", i, c.size, c.capacity())
		}
		if !memutils.IsAligned(c.base(), ChunkAlignment) {
			return cerrors.Newf("chunk %d starts at %p, which is not %d-byte aligned", i, c.base(), ChunkAlignment)
		}
		if i > 0 && !c.owned {
			return cerrors.Newf("chunk %d is borrowed, but only the first chunk may be", i)
		}
	}

	return nil
}

// BuildStatsString returns a json document describing the pool's chunks and usage
func (p *ForwardPool) BuildStatsString() string {
	shared := p.data()
	shared.mutex.Lock()
	defer shared.mutex.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Zone").String(shared.zone.ID().String())
	obj.Name("Flags").String(shared.flags.String())
	obj.Name("ChunkCapacity").Int(shared.chunkCapacity)
	obj.Name("References").Int(int(shared.references.Load()))

	var stats memutils.Statistics
	shared.addStatistics(&stats)
	totalObj := obj.Name("Total").Object()
	stats.WriteJSON(&totalObj)
	totalObj.End()

	chunksArr := obj.Name("Chunks").Array()
	for _, c := range shared.chunks {
		chunkObj := chunksArr.Object()
		c.writeJSON(&chunkObj)
		chunkObj.End()
	}
	chunksArr.End()

	obj.End()
	return string(writer.Bytes())
}
