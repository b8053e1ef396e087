package memutils

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// Statistics summarizes the memory held by a pool or arena. Blocks are the
// large regions the allocator carves up (pool buckets, arena chunks); allocations are
// the live pieces handed out from them.
type Statistics struct {
	BlockCount      int
	BlockBytes      int
	AllocationCount int
	AllocationBytes int
	// FallbackCount is the number of live allocations that were served by a backing
	// zone instead of the allocator's own blocks
	FallbackCount int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.BlockBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
	s.FallbackCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.BlockBytes += other.BlockBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
	s.FallbackCount += other.FallbackCount
}

// UnusedBytes is the number of block bytes not currently handed out
func (s *Statistics) UnusedBytes() int {
	return s.BlockBytes - s.AllocationBytes
}

// WriteJSON populates a json object with these statistics
func (s *Statistics) WriteJSON(json *jwriter.ObjectState) {
	json.Name("BlockCount").Int(s.BlockCount)
	json.Name("BlockBytes").Int(s.BlockBytes)
	json.Name("AllocationCount").Int(s.AllocationCount)
	json.Name("AllocationBytes").Int(s.AllocationBytes)
	json.Name("UnusedBytes").Int(s.UnusedBytes())
	json.Name("FallbackCount").Int(s.FallbackCount)
}
