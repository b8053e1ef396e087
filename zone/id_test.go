package zone_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memzone/zone"
)

var (
	testZoneA     = zone.DeclareZone("test-zone-a")
	testZoneB     = zone.DeclareZone("test-zone-b")
	testCategoryA = zone.DeclareCategory("test-category-a")
	testCategoryB = zone.DeclareCategory("test-category-b")
)

func TestZoneIdentity(t *testing.T) {
	idA := testZoneA.ID()
	idB := testZoneB.ID()

	require.NotEqual(t, idA, idB)
	require.NotEqual(t, zone.ZoneID(0), idA)
	require.NotEqual(t, zone.InvalidZone, idA)
	require.Equal(t, idA, testZoneA.ID())

	name, ok := zone.ZoneName(idA)
	require.True(t, ok)
	require.Equal(t, "test-zone-a", name)
	require.Equal(t, "test-zone-b", idB.String())
	require.Equal(t, "test-zone-a", testZoneA.Name())
}

func TestCategoryIdentity(t *testing.T) {
	idA := testCategoryA.ID()
	idB := testCategoryB.ID()

	require.NotEqual(t, idA, idB)
	require.NotEqual(t, zone.CategoryID(0), idA)
	require.NotEqual(t, zone.DefaultCategory.ID(), idA)

	name, ok := zone.CategoryName(idB)
	require.True(t, ok)
	require.Equal(t, "test-category-b", name)
	require.Equal(t, "default", zone.DefaultCategory.ID().String())
}

func TestIdentityConcurrentFirstUse(t *testing.T) {
	identity := zone.DeclareZone("test-zone-concurrent")

	var wg sync.WaitGroup
	ids := make([]zone.ZoneID, 16)
	for i := range ids {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			ids[index] = identity.ID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestInvalidIdentityStrings(t *testing.T) {
	require.Equal(t, "InvalidZone", zone.InvalidZone.String())
	require.Equal(t, "InvalidCategory", zone.InvalidCategory.String())

	_, ok := zone.ZoneName(zone.InvalidZone)
	require.False(t, ok)
}

func TestCategoryOrDefault(t *testing.T) {
	require.Equal(t, zone.DefaultCategory.ID(), zone.CategoryID(0).OrDefault())
	require.Equal(t, testCategoryA.ID(), testCategoryA.ID().OrDefault())
}

func TestConcreteZoneIDsAreDistinct(t *testing.T) {
	mmap := &zone.MmapZone{}
	ids := []zone.ZoneID{
		zone.GoZone{}.ID(),
		zone.VoidZone{}.ID(),
		zone.NewHeapZone(nil, zone.HeapZoneOptions{}).ID(),
		mmap.ID(),
		zone.NewChain(zone.GoZone{}).ID(),
	}

	seen := make(map[zone.ZoneID]bool)
	for _, id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}

	require.Equal(t, zone.NewHeapZone(nil, zone.HeapZoneOptions{}).ID(), ids[2])
}
