package zone

//go:generate mockgen -source tracker.go -destination ./mocks/tracker.go -package mock_zone

import (
	"sync/atomic"
	"unsafe"
)

// Tracker receives allocation events from every zone, tagged with the zone and the
// category of the request. It is the accounting hook for profilers and leak checkers, and
// must be safe for concurrent use.
type Tracker interface {
	Allocated(ptr unsafe.Pointer, size int, zone ZoneID, category CategoryID)
	Deallocated(ptr unsafe.Pointer, zone ZoneID, category CategoryID)
	Moved(ptr unsafe.Pointer, zone ZoneID, from, to CategoryID)
}

type trackerHolder struct {
	tracker Tracker
}

var currentTracker atomic.Pointer[trackerHolder]

// SetTracker installs the process-wide Tracker and returns the previous one. Passing nil
// removes the tracker.
func SetTracker(tracker Tracker) Tracker {
	var holder *trackerHolder
	if tracker != nil {
		holder = &trackerHolder{tracker: tracker}
	}

	previous := currentTracker.Swap(holder)
	if previous == nil {
		return nil
	}
	return previous.tracker
}

// TrackAllocated reports an allocation to the installed Tracker. Nil pointers are not reported.
func TrackAllocated(ptr unsafe.Pointer, size int, zone ZoneID, category CategoryID) {
	if ptr == nil {
		return
	}
	if holder := currentTracker.Load(); holder != nil {
		holder.tracker.Allocated(ptr, size, zone, category)
	}
}

// TrackDeallocated reports a deallocation to the installed Tracker
func TrackDeallocated(ptr unsafe.Pointer, zone ZoneID, category CategoryID) {
	if ptr == nil {
		return
	}
	if holder := currentTracker.Load(); holder != nil {
		holder.tracker.Deallocated(ptr, zone, category)
	}
}

// MoveAllocation relabels a live allocation from one category to another. Only accounting is
// affected; the memory stays where it is.
func MoveAllocation(ptr unsafe.Pointer, zone ZoneID, from, to CategoryID) {
	if ptr == nil {
		return
	}
	if holder := currentTracker.Load(); holder != nil {
		holder.tracker.Moved(ptr, zone, from, to)
	}
}
