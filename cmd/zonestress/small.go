package main

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/pool"
)

var (
	smallBuckets    int
	smallBucketSize int
	smallMaxSize    int
	smallHold       int
)

func init() {
	cmd := newSmallCmd()
	cmd.Flags().IntVar(&smallBuckets, "buckets", pool.MaximumBucketCount, "Number of size classes")
	cmd.Flags().IntVar(&smallBucketSize, "bucket-size", 16*1024, "Bytes given to each size class")
	cmd.Flags().IntVar(&smallMaxSize, "max-size", 160, "Largest request size")
	cmd.Flags().IntVar(&smallHold, "hold", 32, "Allocations each goroutine holds at most")
	rootCmd.AddCommand(cmd)
}

func newSmallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "small",
		Short: "Stress a size-classed small memory pool",
		Long: `The small command builds a small memory pool on the backing zone and has
every goroutine allocate random sizes up to --max-size, fill them, and check the
contents before freeing them. Requests no bucket can serve fall back to the zone.

Example:
  zonestress small --buckets 4 --bucket-size 1024
  zonestress small --zone heap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmall()
		},
	}
	return cmd
}

type heldAllocation struct {
	ptr  unsafe.Pointer
	size int
}

func runSmall() error {
	if err := checkWorkload(); err != nil {
		return err
	}
	if smallMaxSize <= 0 || smallHold <= 0 {
		return fmt.Errorf("--max-size and --hold must be positive")
	}

	logger := newLogger()
	backing, closeZone, err := openZone(logger)
	if err != nil {
		return err
	}

	smallPool, err := pool.NewSmallPool(logger, smallBuckets, smallBucketSize, pool.CreateOptions{
		Zone:     backing,
		Category: stressCategory.ID(),
	})
	if err != nil {
		return fmt.Errorf("failed to create small pool: %w", err)
	}

	var corrupted []error
	errs := make([]error, workers)
	runWorkers(func(worker int, random *rand.Rand) {
		pattern := byte(worker + 1)
		held := make([]heldAllocation, 0, smallHold)

		free := func(index int) {
			allocation := held[index]
			held[index] = held[len(held)-1]
			held = held[:len(held)-1]

			data := memutils.Bytes(allocation.ptr, allocation.size)
			for j := 8; j < len(data); j++ {
				if data[j] != pattern && errs[worker] == nil {
					errs[worker] = fmt.Errorf("worker %d found allocation %p overwritten", worker, allocation.ptr)
				}
			}
			smallPool.Deallocate(allocation.ptr, stressCategory.ID())
		}

		for i := 0; i < iterations; i++ {
			size := random.Intn(smallMaxSize) + 1
			ptr := smallPool.Allocate(size, stressCategory.ID())
			if ptr != nil {
				// The first 8 bytes of a freed slot hold its free list link, which other goroutines
				// may still read, so only the rest of the allocation is filled
				data := memutils.Bytes(ptr, size)
				for j := 8; j < len(data); j++ {
					data[j] = pattern
				}
				held = append(held, heldAllocation{ptr: ptr, size: size})
			}

			if len(held) > 0 && (len(held) == smallHold || random.Intn(2) == 0) {
				free(random.Intn(len(held)))
			}
		}

		for len(held) > 0 {
			free(len(held) - 1)
		}
	})

	for _, err := range errs {
		if err != nil {
			corrupted = append(corrupted, err)
		}
	}
	if len(corrupted) > 0 {
		return corrupted[0]
	}
	if err := smallPool.Validate(); err != nil {
		return fmt.Errorf("small pool failed validation: %w", err)
	}

	var stats memutils.Statistics
	smallPool.AddStatistics(&stats)
	printStats(fmt.Sprintf("Small pool of %d size classes (%d fallback allocations)", smallPool.BucketCount(), smallPool.FallbackTotal()),
		stats, smallPool.BuildStatsString())

	smallPool.Release()
	return closeZone()
}
