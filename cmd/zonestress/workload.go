package main

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/vkngwrapper/memzone/zone"
)

var stressCategory = zone.DeclareCategory("zonestress")

// runWorkers calls work once from each of workers goroutines and waits for them all. Every
// goroutine gets its own random source derived from --seed.
func runWorkers(work func(worker int, random *rand.Rand)) {
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			work(worker, rand.New(rand.NewSource(seed+int64(worker))))
		}(worker)
	}
	wg.Wait()
}

// ownership is a shadow map of which worker holds each slot, used to catch a slot being handed
// to two goroutines at once
type ownership struct {
	owners    []atomic.Int32
	conflicts atomic.Int64
}

func newOwnership(slots int) *ownership {
	return &ownership{owners: make([]atomic.Int32, slots)}
}

func (o *ownership) acquire(slot, worker int) bool {
	if !o.owners[slot].CompareAndSwap(0, int32(worker)+1) {
		o.conflicts.Add(1)
		return false
	}
	return true
}

func (o *ownership) release(slot, worker int) {
	if !o.owners[slot].CompareAndSwap(int32(worker)+1, 0) {
		o.conflicts.Add(1)
	}
}
