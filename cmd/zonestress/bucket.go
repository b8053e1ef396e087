package main

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/memzone/memutils"
	"github.com/vkngwrapper/memzone/pool"
)

var (
	bucketElementSize int
	bucketSlots       int
	bucketHold        int
)

func init() {
	cmd := newBucketCmd()
	cmd.Flags().IntVar(&bucketElementSize, "element-size", 64, "Slot size in bytes (a multiple of 8)")
	cmd.Flags().IntVar(&bucketSlots, "slots", 256, "Number of slots in the bucket")
	cmd.Flags().IntVar(&bucketHold, "hold", 4, "Slots each goroutine holds at most")
	rootCmd.AddCommand(cmd)
}

func newBucketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Stress a single lock-free pool bucket",
		Long: `The bucket command lays a single bucket over a buffer from the backing zone
and has every goroutine allocate and free slots as fast as it can, while a shadow
ownership map checks that no slot is ever handed out twice.

Example:
  zonestress bucket --slots 64 --workers 16
  zonestress bucket --element-size 32 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBucket()
		},
	}
	return cmd
}

func runBucket() error {
	if err := checkWorkload(); err != nil {
		return err
	}
	if bucketElementSize < 8 || bucketElementSize%8 != 0 {
		return fmt.Errorf("--element-size must be a positive multiple of 8, got %d", bucketElementSize)
	}
	if bucketSlots <= 0 || bucketHold <= 0 {
		return fmt.Errorf("--slots and --hold must be positive")
	}

	logger := newLogger()
	backing, closeZone, err := openZone(logger)
	if err != nil {
		return err
	}

	size := bucketElementSize * bucketSlots
	ptr := backing.AlignedAllocate(size, 16, stressCategory.ID())
	if ptr == nil {
		return fmt.Errorf("zone %s could not supply a %d-byte bucket buffer", backing.ID(), size)
	}

	buffer := memutils.Bytes(ptr, size)
	bucket := pool.NewBucket(bucketElementSize, buffer)
	owners := newOwnership(bucket.SlotCount())

	slotOf := func(slot unsafe.Pointer) int {
		return int(uintptr(slot)-uintptr(ptr)) / bucketElementSize
	}

	runWorkers(func(worker int, random *rand.Rand) {
		held := make([]unsafe.Pointer, 0, bucketHold)
		for i := 0; i < iterations; i++ {
			if len(held) < bucketHold {
				if slot := bucket.Allocate(); slot != nil {
					if owners.acquire(slotOf(slot), worker) {
						held = append(held, slot)
					}
				}
			}

			if len(held) > 0 && (len(held) == bucketHold || random.Intn(2) == 0) {
				index := random.Intn(len(held))
				slot := held[index]
				held[index] = held[len(held)-1]
				held = held[:len(held)-1]

				owners.release(slotOf(slot), worker)
				bucket.Deallocate(slot)
			}
		}

		for _, slot := range held {
			owners.release(slotOf(slot), worker)
		}
		bucket.DeallocateBatch(held)
	})

	if conflicts := owners.conflicts.Load(); conflicts != 0 {
		return fmt.Errorf("%d slots were handed to more than one goroutine", conflicts)
	}
	if err := bucket.Validate(); err != nil {
		return fmt.Errorf("bucket failed validation: %w", err)
	}

	var stats memutils.Statistics
	bucket.AddStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	bucket.WriteJSON(&obj)
	obj.Name("FreeCount").Int(bucket.FreeCount())
	totalObj := obj.Name("Total").Object()
	stats.WriteJSON(&totalObj)
	totalObj.End()
	obj.End()

	printStats(fmt.Sprintf("Bucket of %d x %d bytes", bucket.SlotCount(), bucket.ElementSize()), stats, string(writer.Bytes()))

	backing.AlignedDeallocate(ptr, stressCategory.ID())
	return closeZone()
}
