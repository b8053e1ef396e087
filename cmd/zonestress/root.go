package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/memzone/memutils"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	zoneName   string
	workers    int
	iterations int
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "zonestress",
	Short: "Stress memory zones, pools and arenas",
	Long: `zonestress drives the lock-free pool buckets, small memory pools and
forward arenas from many goroutines at once, validates their internal state
afterward, and prints their statistics.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output statistics in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&zoneName, "zone", "go", "Backing zone: go, heap or mmap")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 8, "Number of concurrent goroutines")
	rootCmd.PersistentFlags().
		IntVarP(&iterations, "iterations", "n", 10000, "Operations performed by each goroutine")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "Seed for the random request sizes")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// newLogger returns the logger handed to every zone and pool
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printStats prints a stats document as-is in JSON mode and a summary of the totals otherwise
func printStats(name string, stats memutils.Statistics, document string) {
	if jsonOut {
		printInfo("%s\n", document)
		return
	}

	printInfo("%s\n", name)
	printInfo("  Blocks:       %d (%d bytes)\n", stats.BlockCount, stats.BlockBytes)
	printInfo("  Allocations:  %d (%d bytes)\n", stats.AllocationCount, stats.AllocationBytes)
	printInfo("  Unused bytes: %d\n", stats.UnusedBytes())
	printInfo("  Fallbacks:    %d\n", stats.FallbackCount)
}

func checkWorkload() error {
	if workers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", workers)
	}
	if iterations <= 0 {
		return fmt.Errorf("--iterations must be positive, got %d", iterations)
	}
	return nil
}
