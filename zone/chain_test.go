package zone_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memzone/zone"
	mock_zone "github.com/vkngwrapper/memzone/zone/mocks"
	"go.uber.org/mock/gomock"
)

func TestChainAllocatesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mock_zone.NewMockZone(ctrl)
	second := mock_zone.NewMockZone(ctrl)

	buffer := make([]byte, 64)
	ptr := unsafe.Pointer(&buffer[0])
	category := zone.DefaultCategory.ID()

	gomock.InOrder(
		first.EXPECT().AlignedAllocate(48, uint(16), category).Return(unsafe.Pointer(nil)),
		second.EXPECT().AlignedAllocate(48, uint(16), category).Return(ptr),
	)

	chain := zone.NewChain(first, second)
	require.Equal(t, ptr, chain.AlignedAllocate(48, 16, category))
}

func TestChainExhausted(t *testing.T) {
	limited := zone.NewHeapZone(testLogger(), zone.HeapZoneOptions{Limit: 64})
	chain := zone.NewChain(limited)

	require.NotNil(t, chain.Allocate(64, zone.DefaultCategory.ID()))
	require.Nil(t, chain.Allocate(1, zone.DefaultCategory.ID()))
}

func TestChainRoutesDeallocationToOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	fallback := mock_zone.NewMockZone(ctrl)

	limited := zone.NewHeapZone(testLogger(), zone.HeapZoneOptions{Limit: 64})
	chain := zone.NewChain(limited, fallback)

	buffer := make([]byte, 128)
	fallbackPtr := unsafe.Pointer(&buffer[0])
	category := zone.DefaultCategory.ID()

	fallback.EXPECT().Allocate(100, category).Return(fallbackPtr)
	fallback.EXPECT().Deallocate(fallbackPtr, category)

	owned := chain.Allocate(32, category)
	require.True(t, limited.Owns(owned))
	require.True(t, chain.Owns(owned))

	spilled := chain.Allocate(100, category)
	require.Equal(t, fallbackPtr, spilled)
	require.False(t, chain.Owns(spilled))

	chain.Deallocate(owned, category)
	require.Equal(t, 0, limited.LiveCount())

	chain.Deallocate(spilled, category)
	chain.Deallocate(nil, category)
}

func TestChainRequiresZones(t *testing.T) {
	require.Panics(t, func() {
		zone.NewChain()
	})
	require.Panics(t, func() {
		zone.NewChain(zone.GoZone{}, nil)
	})
	require.Len(t, zone.NewChain(zone.GoZone{}, zone.VoidZone{}).Zones(), 2)
}
