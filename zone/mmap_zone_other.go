//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package zone

import (
	"log/slog"
	"runtime"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// MmapZone is not available on this platform. NewMmapZone always fails.
type MmapZone struct{}

var _ Zone = &MmapZone{}

func NewMmapZone(logger *slog.Logger, options MmapZoneOptions) (*MmapZone, error) {
	return nil, cerrors.Newf("mmap zone is not supported on %s", runtime.GOOS)
}

func (z *MmapZone) ID() ZoneID                                            { return mmapZoneIdentity.ID() }
func (z *MmapZone) PageSize() int                                         { return 0 }
func (z *MmapZone) Allocate(size int, category CategoryID) unsafe.Pointer { return nil }
func (z *MmapZone) Deallocate(ptr unsafe.Pointer, category CategoryID)    {}
func (z *MmapZone) AlignedAllocate(size int, alignment uint, category CategoryID) unsafe.Pointer {
	return nil
}
func (z *MmapZone) AlignedDeallocate(ptr unsafe.Pointer, category CategoryID) {}
func (z *MmapZone) Owns(ptr unsafe.Pointer) bool                              { return false }
func (z *MmapZone) LiveCount() int                                            { return 0 }
func (z *MmapZone) LiveBytes() int                                            { return 0 }
func (z *MmapZone) Close() error                                              { return nil }
