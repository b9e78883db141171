package solver

import (
	"runtime"
	"sync"
)

// maxWorkers bounds the goroutine pool the same way this codebase's
// particle-emitter collection step bounds its worker count: a fixed cap of
// 8 goroutines per kernel, applied both to an explicit worker count and to
// the GOMAXPROCS default. On machines with 8 or fewer procs the default
// uses all of them.
const maxWorkers = 8

// ForEachChunk is the CPU re-expression of the GPU SIMT model spec.md §5
// describes ("one thread per particle, indices beyond N return
// immediately"): it partitions [0,n) into contiguous chunks and runs fn
// over each chunk on its own goroutine, blocking until every chunk
// completes — the same barrier a GPU kernel launch gives the host before
// the next kernel in the stream may run.
//
// Grounded on this codebase's particle-collection worker pool (bounded
// goroutine count, WaitGroup join over per-job buffers), generalized from
// "one job per emitter" to "one job per contiguous index range" since
// per-particle kernels here have no per-goroutine scratch state to pool.
func ForEachChunk(n, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// ForEachCluster runs fn once per rigid cluster, one goroutine-task per
// cluster — the CPU analogue of "one workgroup per cluster" in spec.md
// §4.H.
func ForEachCluster(numClusters, workers int, fn func(cluster int)) {
	ForEachChunk(numClusters, workers, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			fn(c)
		}
	})
}
