package arena_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memzone/arena"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/zone"
	mock_zone "github.com/vkngwrapper/memzone/zone/mocks"
	"go.uber.org/mock/gomock"
)

var backingZoneIdentity = zone.DeclareZone("arena-test-backing")

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// alignedBuffer returns size bytes starting on an alignment boundary
func alignedBuffer(size int, alignment uint) []byte {
	buffer := make([]byte, size+int(alignment))
	ptr := memutils.AlignPointer(unsafe.Pointer(&buffer[0]), alignment)
	return unsafe.Slice((*byte)(ptr), size)
}

// chunkZone is a mock zone that hands out fresh chunks and records them by address
type chunkZone struct {
	*mock_zone.MockZone
	chunks map[unsafe.Pointer]int
}

func newChunkZone(ctrl *gomock.Controller) *chunkZone {
	z := &chunkZone{
		MockZone: mock_zone.NewMockZone(ctrl),
		chunks:   make(map[unsafe.Pointer]int),
	}
	z.EXPECT().ID().Return(backingZoneIdentity.ID()).AnyTimes()
	return z
}

func (z *chunkZone) expectChunk(size int, category zone.CategoryID) *gomock.Call {
	return z.EXPECT().AlignedAllocate(size, arena.ChunkAlignment, category).
		DoAndReturn(func(size int, alignment uint, category zone.CategoryID) unsafe.Pointer {
			buffer := alignedBuffer(size, alignment)
			ptr := unsafe.Pointer(&buffer[0])
			z.chunks[ptr] = size
			return ptr
		})
}

func TestForwardPoolLazyFirstChunk(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	defer pool.Release()

	require.Equal(t, 0, pool.Capacity())
	require.Equal(t, 0, pool.ChunkCount())
	require.Equal(t, 0, pool.Size())
}

func TestForwardPoolEagerFirstChunk(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{Flags: arena.CreateEagerFirstChunk})
	require.NoError(t, err)
	defer pool.Release()

	require.Equal(t, arena.DefaultChunkCapacity, pool.Capacity())
	require.NotNil(t, pool.Allocate(32, zone.DefaultCategory.ID()))
	require.Equal(t, arena.DefaultChunkCapacity, pool.Capacity())
	require.Equal(t, 1, pool.ChunkCount())
}

func TestForwardPoolEagerFirstChunkFailure(t *testing.T) {
	_, err := arena.New(testLogger(), arena.CreateOptions{
		Flags: arena.CreateEagerFirstChunk,
		Zone:  zone.NewHeapZone(testLogger(), zone.HeapZoneOptions{Limit: 1024}),
	})
	require.Error(t, err)
}

func TestForwardPoolGrowth(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	defer pool.Release()

	require.False(t, pool.IsShared())
	clone := pool.Clone()
	require.True(t, pool.IsShared())
	clone.Release()
	require.False(t, pool.IsShared())

	category := zone.DefaultCategory.ID()
	require.NotNil(t, pool.Allocate(32, category))
	require.Equal(t, arena.DefaultChunkCapacity, pool.Capacity())

	require.NotNil(t, pool.Allocate(32, category))
	require.Equal(t, arena.DefaultChunkCapacity, pool.Capacity())

	require.NotNil(t, pool.Allocate(64*1024, category))
	require.Equal(t, 2*arena.DefaultChunkCapacity, pool.Capacity())
	require.Equal(t, 2, pool.ChunkCount())
}

func TestForwardPoolOversizedRequest(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 256})
	require.NoError(t, err)
	defer pool.Release()

	ptr := pool.AlignedAllocate(1000, 128, zone.DefaultCategory.ID())
	require.NotNil(t, ptr)
	require.True(t, memutils.IsAligned(ptr, 128))
	require.Equal(t, 1000+128-int(arena.ChunkAlignment), pool.Capacity())
}

func TestForwardPoolMonotonicGrowth(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 4096})
	require.NoError(t, err)
	defer pool.Release()

	random := rand.New(rand.NewSource(7))
	capacity := 0
	for i := 0; i < 500; i++ {
		size := random.Intn(3000) + 1
		alignment := uint(1) << random.Intn(8)

		ptr := pool.AlignedAllocate(size, alignment, zone.DefaultCategory.ID())
		require.NotNil(t, ptr)
		require.True(t, memutils.IsAligned(ptr, alignment))
		require.True(t, pool.Owns(ptr))

		require.GreaterOrEqual(t, pool.Capacity(), capacity)
		capacity = pool.Capacity()
		require.LessOrEqual(t, pool.Size(), capacity)
	}

	require.NoError(t, pool.Validate())
}

func TestForwardPoolUserBuffer(t *testing.T) {
	buffer := alignedBuffer(1024, arena.ChunkAlignment)
	pool := arena.NewWithBuffer(testLogger(), buffer, arena.CreateOptions{})
	defer pool.Release()

	require.Equal(t, 1024, pool.Capacity())
	require.Equal(t, 0, pool.Size())

	ptr := pool.Allocate(32, zone.DefaultCategory.ID())
	require.Equal(t, unsafe.Pointer(&buffer[0]), ptr)
	require.Equal(t, 32, pool.Size())
	require.Equal(t, 1024, pool.Capacity())

	aligned := pool.AlignedAllocate(32, 64, zone.DefaultCategory.ID())
	require.True(t, memutils.IsAligned(aligned, 64))
	require.Equal(t, 1024, pool.Capacity())

	require.NotNil(t, pool.Allocate(64*1024, zone.DefaultCategory.ID()))
	require.Equal(t, arena.DefaultChunkCapacity+1024, pool.Capacity())
}

func TestForwardPoolUnalignedUserBuffer(t *testing.T) {
	buffer := alignedBuffer(1024, arena.ChunkAlignment)[3:]
	pool := arena.NewWithBuffer(testLogger(), buffer, arena.CreateOptions{})
	defer pool.Release()

	require.Equal(t, 1024-16, pool.Capacity())

	ptr := pool.Allocate(8, zone.DefaultCategory.ID())
	require.True(t, memutils.IsAligned(ptr, arena.ChunkAlignment))
	require.Equal(t, unsafe.Pointer(&buffer[13]), ptr)

	tiny := arena.NewWithBuffer(testLogger(), buffer[:5], arena.CreateOptions{})
	defer tiny.Release()
	require.Equal(t, 0, tiny.ChunkCount())
}

func TestForwardPoolUserBufferNeverReachesZone(t *testing.T) {
	ctrl := gomock.NewController(t)
	backing := newChunkZone(ctrl)
	category := zone.DeclareCategory("arena-user-buffer").ID()

	buffer := alignedBuffer(512, arena.ChunkAlignment)
	pool := arena.NewWithBuffer(testLogger(), buffer, arena.CreateOptions{
		Zone:          backing,
		Category:      category,
		ChunkCapacity: 1024,
	})

	require.NotNil(t, pool.Allocate(500, category))

	backing.expectChunk(1024, category)
	require.NotNil(t, pool.Allocate(100, category))
	require.Equal(t, 2, pool.ChunkCount())

	// Clear keeps the user buffer and returns the zone chunk
	var zoneChunk unsafe.Pointer
	for ptr := range backing.chunks {
		zoneChunk = ptr
	}
	backing.EXPECT().AlignedDeallocate(zoneChunk, category)
	pool.Clear()
	require.Equal(t, 1, pool.ChunkCount())
	require.Equal(t, 512, pool.Capacity())
	require.Equal(t, unsafe.Pointer(&buffer[0]), pool.Allocate(16, category))

	backing.expectChunk(1024, category)
	require.NotNil(t, pool.Allocate(600, category))

	for ptr := range backing.chunks {
		if ptr != zoneChunk {
			backing.EXPECT().AlignedDeallocate(ptr, category)
		}
	}
	pool.Release()
}

func TestForwardPoolClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	backing := newChunkZone(ctrl)
	category := zone.DefaultCategory.ID()

	var chunks []unsafe.Pointer
	record := func(size int, alignment uint, category zone.CategoryID) unsafe.Pointer {
		buffer := alignedBuffer(size, alignment)
		ptr := unsafe.Pointer(&buffer[0])
		chunks = append(chunks, ptr)
		return ptr
	}
	backing.EXPECT().AlignedAllocate(256, arena.ChunkAlignment, category).DoAndReturn(record).Times(3)

	pool, err := arena.New(testLogger(), arena.CreateOptions{Zone: backing, ChunkCapacity: 256})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NotNil(t, pool.Allocate(200, category))
	}
	require.Equal(t, 3, pool.ChunkCount())
	require.Equal(t, 768, pool.Capacity())

	backing.EXPECT().AlignedDeallocate(chunks[1], category)
	backing.EXPECT().AlignedDeallocate(chunks[2], category)
	pool.Clear()

	require.Equal(t, 1, pool.ChunkCount())
	require.Equal(t, 256, pool.Capacity())
	require.Equal(t, 0, pool.Size())
	require.Equal(t, chunks[0], pool.Allocate(16, category))

	backing.EXPECT().AlignedDeallocate(chunks[0], category)
	pool.Release()
}

func TestForwardPoolClearEmpty(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	defer pool.Release()

	pool.Clear()
	require.Equal(t, 0, pool.ChunkCount())
}

func TestForwardPoolSharedOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	backing := newChunkZone(ctrl)
	category := zone.DefaultCategory.ID()

	backing.expectChunk(arena.DefaultChunkCapacity, category)
	pool, err := arena.New(testLogger(), arena.CreateOptions{Zone: backing, Flags: arena.CreateEagerFirstChunk})
	require.NoError(t, err)

	clone := pool.Clone()
	require.Equal(t, 2, clone.References())

	ptr := clone.Allocate(64, category)
	require.True(t, pool.Owns(ptr))
	require.Equal(t, 64, pool.Size())

	// Releasing one handle leaves the chunks with the other
	pool.Release()
	require.True(t, pool.IsReleased())
	require.False(t, clone.IsShared())
	require.Equal(t, 64, clone.Size())
	pool.Release()

	require.Panics(t, func() {
		pool.Allocate(16, category)
	})

	for chunk := range backing.chunks {
		backing.EXPECT().AlignedDeallocate(chunk, category)
	}
	clone.Release()
	clone.Release()
}

func TestForwardPoolMoveAndAssign(t *testing.T) {
	first, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	second, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 1024})
	require.NoError(t, err)

	moved := first.Move()
	require.True(t, first.IsReleased())
	require.Equal(t, 1, moved.References())

	moved.Assign(second)
	require.Equal(t, 2, second.References())
	require.NotNil(t, moved.Allocate(16, zone.DefaultCategory.ID()))
	require.Equal(t, 1024, second.Capacity())

	moved.Assign(second)
	require.Equal(t, 2, second.References())

	moved.Release()
	require.Equal(t, 1, second.References())
	second.Release()
}

func TestForwardPoolDeallocateIsNoOp(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	defer pool.Release()

	ptr := pool.Allocate(128, zone.DefaultCategory.ID())
	pool.Deallocate(ptr, zone.DefaultCategory.ID())
	pool.AlignedDeallocate(ptr, zone.DefaultCategory.ID())

	require.Equal(t, 128, pool.Size())
}

func TestForwardPoolZoneExhaustion(t *testing.T) {
	heap := zone.NewHeapZone(testLogger(), zone.HeapZoneOptions{Limit: 2048})
	pool, err := arena.New(testLogger(), arena.CreateOptions{Zone: heap, ChunkCapacity: 1024})
	require.NoError(t, err)

	require.NotNil(t, pool.Allocate(1000, zone.DefaultCategory.ID()))
	require.NotNil(t, pool.Allocate(1000, zone.DefaultCategory.ID()))
	require.Nil(t, pool.Allocate(1000, zone.DefaultCategory.ID()))
	require.Nil(t, pool.Bytes(1000, 16))
	require.Equal(t, 2, heap.LiveCount())

	pool.Release()
	require.Equal(t, 0, heap.LiveCount())
}

func TestForwardPoolHugeRequest(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 1024, Flags: arena.CreateEagerFirstChunk})
	require.NoError(t, err)
	defer pool.Release()

	category := zone.DefaultCategory.ID()
	require.NotNil(t, pool.AlignedAllocate(32, 16, category))
	require.Equal(t, 32, pool.Size())

	require.Nil(t, pool.AlignedAllocate(math.MaxInt-8, 16, category))
	require.Nil(t, pool.AlignedAllocate(math.MaxInt-8, 64, category))
	require.Nil(t, pool.AlignedAllocate(math.MaxInt, 16, category))
	require.Nil(t, pool.Bytes(math.MaxInt-1, 512))

	require.Equal(t, 32, pool.Size())
	require.Equal(t, 1024, pool.Capacity())
	require.Equal(t, 1, pool.ChunkCount())
	require.NoError(t, pool.Validate())

	require.NotNil(t, pool.AlignedAllocate(32, 16, category))
	require.Equal(t, 64, pool.Size())
}

func TestForwardPoolTypedAllocationsUseCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	backing := newChunkZone(ctrl)
	category := zone.DeclareCategory("arena-test-typed").ID()

	backing.expectChunk(1024, category).Times(1)
	backing.EXPECT().AlignedDeallocate(gomock.Any(), category).Times(1)

	pool, err := arena.New(testLogger(), arena.CreateOptions{Zone: backing, ChunkCapacity: 1024, Category: category})
	require.NoError(t, err)
	require.Equal(t, category, pool.Category())

	require.NotNil(t, arena.Alloc[uint64](pool))
	require.Len(t, arena.AllocSlice[uint32](pool, 4), 4)
	require.Len(t, pool.Bytes(16, 16), 16)
	require.Equal(t, 1, pool.ChunkCount())

	pool.Release()
}

func TestForwardPoolConcurrent(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 4096})
	require.NoError(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	results := make([][][]byte, 8)
	for worker := range results {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			handle := pool.Clone()
			defer handle.Release()

			for i := 0; i < 200; i++ {
				data := handle.Bytes(48, 16)
				for j := range data {
					data[j] = byte(worker)
				}
				results[worker] = append(results[worker], data)
			}
		}(worker)
	}
	wg.Wait()

	for worker, allocations := range results {
		for _, data := range allocations {
			for _, b := range data {
				require.Equal(t, byte(worker), b)
			}
		}
	}

	require.Equal(t, 1, pool.References())
	require.Equal(t, 8*200*48, pool.Size())
	require.NoError(t, pool.Validate())
}

func TestForwardPoolAlloc(t *testing.T) {
	type vertex struct {
		X, Y, Z float32
		Index   uint64
	}

	pool, err := arena.New(testLogger(), arena.CreateOptions{Flags: arena.CreateExternallySynchronized})
	require.NoError(t, err)
	defer pool.Release()

	v := arena.Alloc[vertex](pool)
	require.NotNil(t, v)
	require.Equal(t, vertex{}, *v)
	require.True(t, memutils.IsAligned(unsafe.Pointer(v), uint(unsafe.Alignof(*v))))
	v.Index = 12

	vertices := arena.AllocSlice[vertex](pool, 10)
	require.Len(t, vertices, 10)
	require.True(t, pool.Owns(unsafe.Pointer(&vertices[9])))
	require.Nil(t, arena.AllocSlice[vertex](pool, 0))

	require.Equal(t, uint64(12), v.Index)
	require.NotNil(t, arena.Alloc[struct{}](pool))
}

func TestForwardPoolStatsString(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: 1024, Flags: arena.CreateEagerFirstChunk})
	require.NoError(t, err)
	defer pool.Release()

	pool.Allocate(100, zone.DefaultCategory.ID())
	pool.Allocate(2000, zone.DefaultCategory.ID())

	var stats struct {
		Zone          string
		Flags         string
		ChunkCapacity int
		References    int
		Total         struct {
			BlockCount      int
			BlockBytes      int
			AllocationCount int
			AllocationBytes int
		}
		Chunks []struct {
			Capacity int
			Size     int
			Owned    bool
		}
	}
	require.NoError(t, json.Unmarshal([]byte(pool.BuildStatsString()), &stats))

	require.Equal(t, "go", stats.Zone)
	require.Equal(t, "CreateEagerFirstChunk", stats.Flags)
	require.Equal(t, 1024, stats.ChunkCapacity)
	require.Equal(t, 1, stats.References)
	require.Equal(t, 2, stats.Total.BlockCount)
	require.Equal(t, 3024, stats.Total.BlockBytes)
	require.Equal(t, 2, stats.Total.AllocationCount)
	require.Equal(t, 2100, stats.Total.AllocationBytes)
	require.Len(t, stats.Chunks, 2)
	require.Equal(t, 100, stats.Chunks[0].Size)
	require.True(t, stats.Chunks[1].Owned)
}

func TestForwardPoolContractViolations(t *testing.T) {
	pool, err := arena.New(testLogger(), arena.CreateOptions{})
	require.NoError(t, err)
	defer pool.Release()

	require.Panics(t, func() {
		pool.Allocate(0, zone.DefaultCategory.ID())
	})
	require.Panics(t, func() {
		pool.AlignedAllocate(16, 48, zone.DefaultCategory.ID())
	})
	require.Panics(t, func() {
		arena.New(testLogger(), arena.CreateOptions{ChunkCapacity: -1})
	})
}
