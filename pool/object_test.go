package pool_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/pool"
	"github.com/vkngwrapper/memzone/zone"
	"go.uber.org/mock/gomock"
)

func TestObjectPoolSlots(t *testing.T) {
	objectPool, err := pool.NewObjectPool(testLogger(), 24, 8, 4, pool.CreateOptions{})
	require.NoError(t, err)
	defer objectPool.Release()

	require.Equal(t, 24, objectPool.SlotSize())
	require.Equal(t, 4, objectPool.Bucket().SlotCount())

	category := zone.DefaultCategory.ID()
	ptrs := make([]unsafe.Pointer, 0, 4)
	for i := 0; i < 4; i++ {
		ptr := objectPool.Allocate(24, category)
		require.True(t, objectPool.Owns(ptr))
		ptrs = append(ptrs, ptr)
	}

	fallback := objectPool.Allocate(24, category)
	require.NotNil(t, fallback)
	require.False(t, objectPool.Owns(fallback))
	require.Equal(t, 1, objectPool.FallbackCount())

	objectPool.Deallocate(fallback, category)
	require.Equal(t, 0, objectPool.FallbackCount())

	for _, ptr := range ptrs {
		objectPool.Deallocate(ptr, category)
	}
	require.NoError(t, objectPool.Validate())
	require.Equal(t, 4, objectPool.Bucket().FreeCount())
}

func TestObjectPoolAlignment(t *testing.T) {
	objectPool, err := pool.NewObjectPool(testLogger(), 40, 32, 3, pool.CreateOptions{})
	require.NoError(t, err)

	require.Equal(t, 64, objectPool.SlotSize())
	for i := 0; i < 3; i++ {
		ptr := objectPool.AlignedAllocate(40, 32, zone.DefaultCategory.ID())
		require.True(t, objectPool.Owns(ptr))
		require.True(t, memutils.IsAligned(ptr, 32))
	}
}

func TestObjectPoolFallsBackForUnfitRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	backing := newMockZone(ctrl)

	category := zone.DefaultCategory.ID()
	objectPool, err := pool.NewObjectPool(testLogger(), 16, 8, 2, pool.CreateOptions{
		Zone:   backing,
		Buffer: make([]byte, 64),
	})
	require.NoError(t, err)
	require.False(t, objectPool.OwnsBuffer())

	external := alignedBuffer(64)
	externalPtr := unsafe.Pointer(&external[0])

	backing.EXPECT().AlignedAllocate(17, uint(1), category).Return(externalPtr)
	require.Equal(t, externalPtr, objectPool.Allocate(17, category))

	backing.EXPECT().AlignedAllocate(8, uint(16), category).Return(externalPtr)
	require.Equal(t, externalPtr, objectPool.AlignedAllocate(8, 16, category))

	require.Equal(t, 2, objectPool.FallbackCount())
	require.Equal(t, 2, objectPool.FallbackTotal())

	backing.EXPECT().AlignedDeallocate(externalPtr, category).Times(2)
	objectPool.Deallocate(externalPtr, category)
	objectPool.Deallocate(externalPtr, category)

	var stats memutils.Statistics
	objectPool.AddStatistics(&stats)
	require.Equal(t, 0, stats.FallbackCount)
	require.Equal(t, 32, stats.BlockBytes)
}

func TestObjectPoolInvalidOptions(t *testing.T) {
	_, err := pool.NewObjectPool(testLogger(), 16, 12, 2, pool.CreateOptions{})
	require.ErrorIs(t, err, memutils.PowerOfTwoError)

	_, err = pool.NewObjectPool(testLogger(), 0, 8, 2, pool.CreateOptions{})
	require.Error(t, err)

	_, err = pool.NewObjectPool(testLogger(), 16, 8, 0, pool.CreateOptions{})
	require.Error(t, err)
}

func TestObjectPoolSmallElements(t *testing.T) {
	objectPool, err := pool.NewObjectPool(testLogger(), 1, 1, 4, pool.CreateOptions{})
	require.NoError(t, err)

	require.Equal(t, 8, objectPool.SlotSize())
	require.Contains(t, objectPool.BuildStatsString(), `"SlotCount":4`)
}
