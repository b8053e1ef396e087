package arena

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/memzone/zone"
)

// CreateFlags indicate specific forward pool behaviors to activate or deactivate
type CreateFlags int32

var createFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	createFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return createFlagsMapping.FlagsToString(f)
}

const (
	// CreateExternallySynchronized ensures that the pool, and every handle sharing it, will not be
	// synchronized internally. The consumer must guarantee that the pool is used from only one
	// goroutine at a time across all of its handles.
	CreateExternallySynchronized CreateFlags = 1 << iota
	// CreateEagerFirstChunk allocates the first chunk when the pool is created instead of on the
	// first allocation
	CreateEagerFirstChunk
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
	CreateEagerFirstChunk.Register("CreateEagerFirstChunk")
}

const (
	// DefaultChunkCapacity is the chunk capacity used when CreateOptions does not provide one.
	// It is equal to 64KiB.
	DefaultChunkCapacity int = 64 * 1024
	// ChunkAlignment is the alignment of the start of every chunk
	ChunkAlignment uint = 16
)

// CreateOptions contains optional settings when creating a ForwardPool
type CreateOptions struct {
	// Flags indicates specific pool behaviors to activate or deactivate
	Flags CreateFlags
	// ChunkCapacity is the size of the chunks the pool requests from its zone. Requests larger
	// than this get a chunk of their own size. If 0, DefaultChunkCapacity is used.
	ChunkCapacity int
	// Zone supplies the pool's chunks. When nil, the Go heap is used.
	Zone zone.Zone
	// Category is the accounting category used for chunk allocations. When 0, zone.DefaultCategory is used.
	Category zone.CategoryID
}
