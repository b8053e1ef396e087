package zone

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dolthub/swiss"
)

// ZoneID identifies a kind of zone: every instance of a zone type reports the same id
type ZoneID uint64

// CategoryID is an accounting label attached to allocation requests. It never changes
// where memory comes from.
type CategoryID uint64

const (
	InvalidZone     ZoneID     = math.MaxUint64
	InvalidCategory CategoryID = math.MaxUint64
)

var (
	// Ids are handed out starting at 1, so the zero value of ZoneID and CategoryID never
	// aliases a declared identity
	zoneCounter     atomic.Uint64
	categoryCounter atomic.Uint64

	namesMutex    sync.RWMutex
	zoneNames     = swiss.NewMap[ZoneID, string](16)
	categoryNames = swiss.NewMap[CategoryID, string](16)
)

// DefaultCategory is the category used when no other category is provided
var DefaultCategory = DeclareCategory("default")

// ZoneIdentity is the identity of a zone type. Declare one per zone type as a package variable
// with DeclareZone; the id is assigned on the first call to ID and never changes afterward.
type ZoneIdentity struct {
	name string
	once sync.Once
	id   ZoneID
}

// DeclareZone declares a new zone identity with the provided name
func DeclareZone(name string) *ZoneIdentity {
	return &ZoneIdentity{name: name}
}

func (z *ZoneIdentity) ID() ZoneID {
	z.once.Do(func() {
		z.id = ZoneID(zoneCounter.Add(1))

		namesMutex.Lock()
		defer namesMutex.Unlock()
		zoneNames.Put(z.id, z.name)
	})
	return z.id
}

func (z *ZoneIdentity) Name() string { return z.name }

// CategoryIdentity is the identity of an allocation category. It behaves like ZoneIdentity.
type CategoryIdentity struct {
	name string
	once sync.Once
	id   CategoryID
}

// DeclareCategory declares a new category identity with the provided name
func DeclareCategory(name string) *CategoryIdentity {
	return &CategoryIdentity{name: name}
}

func (c *CategoryIdentity) ID() CategoryID {
	c.once.Do(func() {
		c.id = CategoryID(categoryCounter.Add(1))

		namesMutex.Lock()
		defer namesMutex.Unlock()
		categoryNames.Put(c.id, c.name)
	})
	return c.id
}

func (c *CategoryIdentity) Name() string { return c.name }

// ZoneName returns the name a zone id was declared with, if the id has been assigned
func ZoneName(id ZoneID) (string, bool) {
	namesMutex.RLock()
	defer namesMutex.RUnlock()

	return zoneNames.Get(id)
}

// CategoryName returns the name a category id was declared with, if the id has been assigned
func CategoryName(id CategoryID) (string, bool) {
	namesMutex.RLock()
	defer namesMutex.RUnlock()

	return categoryNames.Get(id)
}

func (id ZoneID) String() string {
	if id == InvalidZone {
		return "InvalidZone"
	}
	if name, ok := ZoneName(id); ok {
		return name
	}
	return fmt.Sprintf("ZoneID(%d)", uint64(id))
}

func (id CategoryID) String() string {
	if id == InvalidCategory {
		return "InvalidCategory"
	}
	if name, ok := CategoryName(id); ok {
		return name
	}
	return fmt.Sprintf("CategoryID(%d)", uint64(id))
}

// OrDefault returns the default category's id in place of the zero CategoryID
func (id CategoryID) OrDefault() CategoryID {
	if id == 0 {
		return DefaultCategory.ID()
	}
	return id
}
