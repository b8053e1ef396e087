package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/memzone/arena"
	"github.com/vkngwrapper/memzone/memutils"
)

var (
	arenaChunkCapacity int
	arenaMaxSize       int
	arenaClearEvery    int
)

func init() {
	cmd := newArenaCmd()
	cmd.Flags().IntVar(&arenaChunkCapacity, "chunk-capacity", arena.DefaultChunkCapacity, "Bytes requested from the zone per chunk")
	cmd.Flags().IntVar(&arenaMaxSize, "max-size", 512, "Largest request size")
	cmd.Flags().IntVar(&arenaClearEvery, "clear-every", 0, "Clear the arena after this many rounds (0 never clears)")
	rootCmd.AddCommand(cmd)
}

func newArenaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arena",
		Short: "Stress a shared forward arena",
		Long: `The arena command builds a forward memory pool on the backing zone, gives
every goroutine its own shared handle, and bump-allocates random sizes with random
alignments from all of them at once.

Example:
  zonestress arena --chunk-capacity 4096
  zonestress arena --zone mmap --clear-every 4 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArena()
		},
	}
	return cmd
}

func runArena() error {
	if err := checkWorkload(); err != nil {
		return err
	}
	if arenaMaxSize <= 0 || arenaChunkCapacity <= 0 {
		return fmt.Errorf("--max-size and --chunk-capacity must be positive")
	}

	logger := newLogger()
	backing, closeZone, err := openZone(logger)
	if err != nil {
		return err
	}

	forwardPool, err := arena.New(logger, arena.CreateOptions{
		ChunkCapacity: arenaChunkCapacity,
		Zone:          backing,
		Category:      stressCategory.ID(),
	})
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}

	rounds := 1
	if arenaClearEvery > 0 {
		rounds = arenaClearEvery
	}

	failures := make([]int, workers)
	for round := 0; round < rounds; round++ {
		if round > 0 {
			forwardPool.Clear()
		}

		runWorkers(func(worker int, random *rand.Rand) {
			handle := forwardPool.Clone()
			defer handle.Release()

			for i := 0; i < iterations; i++ {
				alignment := uint(1) << random.Intn(8)
				if handle.Bytes(random.Intn(arenaMaxSize)+1, alignment) == nil {
					failures[worker]++
				}
			}
		})
	}

	if err := forwardPool.Validate(); err != nil {
		return fmt.Errorf("arena failed validation: %w", err)
	}

	failed := 0
	for _, count := range failures {
		failed += count
	}

	var stats memutils.Statistics
	forwardPool.AddStatistics(&stats)
	printStats(fmt.Sprintf("Arena of %d chunks (%d failed allocations)", forwardPool.ChunkCount(), failed),
		stats, forwardPool.BuildStatsString())

	forwardPool.Release()
	return closeZone()
}
