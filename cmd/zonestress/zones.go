package main

import (
	"fmt"
	"log/slog"

	"github.com/vkngwrapper/memzone/zone"
)

// openZone builds the backing zone selected with --zone. The returned close function must be
// called once every pool built on the zone has been released.
func openZone(logger *slog.Logger) (zone.Zone, func() error, error) {
	noClose := func() error { return nil }

	switch zoneName {
	case "go", "":
		return zone.StaticProxy[zone.GoZone](), noClose, nil
	case "heap":
		heap := zone.NewHeapZone(logger, zone.HeapZoneOptions{})
		return heap, func() error {
			if live := heap.LiveCount(); live != 0 {
				return fmt.Errorf("heap zone still holds %d allocations (%d bytes)", live, heap.LiveBytes())
			}
			return nil
		}, nil
	case "mmap":
		mmap, err := zone.NewMmapZone(logger, zone.MmapZoneOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open mmap zone: %w", err)
		}
		return mmap, func() error {
			live := mmap.LiveCount()
			if err := mmap.Close(); err != nil {
				return fmt.Errorf("failed to close mmap zone: %w", err)
			}
			if live != 0 {
				return fmt.Errorf("mmap zone still held %d mappings", live)
			}
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown zone %q (expected go, heap or mmap)", zoneName)
	}
}
