package arena

import (
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memzone/memutils"
)

// chunk is one contiguous region the pool bumps allocations out of. The bookkeeping lives
// in a Go struct rather than inside the region, so regions can come from memory the garbage
// collector does not scan.
type chunk struct {
	data  []byte
	size  int
	owned bool
}

func (c *chunk) base() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(c.data))
}

func (c *chunk) capacity() int {
	return len(c.data)
}

// allocate bumps size bytes aligned to alignment off the end of the chunk, or returns nil
// when they do not fit
func (c *chunk) allocate(size int, alignment uint) unsafe.Pointer {
	memutils.DebugCheckPow2(alignment, "alignment")

	base := uintptr(c.base())
	start := int(memutils.AlignUp(base+uintptr(c.size), alignment) - base)
	if start > len(c.data) || size > len(c.data)-start {
		return nil
	}

	c.size = start + size
	return unsafe.Add(c.base(), start)
}

func (c *chunk) contains(ptr unsafe.Pointer) bool {
	address := uintptr(ptr)
	base := uintptr(c.base())
	return address >= base && address < base+uintptr(len(c.data))
}

func (c *chunk) writeJSON(json *jwriter.ObjectState) {
	json.Name("Capacity").Int(c.capacity())
	json.Name("Size").Int(c.size)
	json.Name("Owned").Bool(c.owned)
}
