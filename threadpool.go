// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import (
	"runtime"
	"sync"
)

// StageFunc runs one cycle stage (integrate-and-fire or STDP accumulate)
// over the partition [start, end) of local neuron indices.
type StageFunc func(start, end int)

// ThreadPool is a fixed worker pool started once at Finalize and
// signalled once per cycle per stage, generalizing
// leabra.NetworkBase.{BuildThreads,StartThreads,ThrWorker,ThrLayFun} from
// per-layer closures to per-partition closures (spec.md §9's "MAY create
// the pool once... and signal workers per cycle" design note, SPEC_FULL
// §2 item 13). The observable per-cycle result does not depend on how
// work is divided among workers, since the integrate stage writes only
// each neuron's own state and STDP accumulation writes only each
// target's own pending deltas (spec.md §5). Gather and scatter run on
// the calling goroutine, not through the pool.
type ThreadPool struct {
	nWorkers int
	chans    []chan StageFunc
	wg       sync.WaitGroup
	mapper   *Mapper
}

// NewThreadPool starts nWorkers goroutines (0 or 1 selects
// single-threaded execution, matching leabra's NThreads<=1 fallthrough in
// ThrLayFun), each worker covering an equal share of mapper's neurons.
func NewThreadPool(nWorkers int, mapper *Mapper) *ThreadPool {
	if nWorkers < 1 {
		nWorkers = 1
	}
	tp := &ThreadPool{nWorkers: nWorkers, mapper: mapper}
	if nWorkers > 1 {
		tp.chans = make([]chan StageFunc, nWorkers)
		for i := range tp.chans {
			tp.chans[i] = make(chan StageFunc)
			go tp.worker(i)
		}
	}
	return tp
}

// worker is the per-goroutine loop, analogous to ThrWorker: it blocks on
// its channel, runs the received stage function over its assigned
// partition range, and signals the WaitGroup.
func (tp *ThreadPool) worker(idx int) {
	start, end := tp.partitionRange(idx)
	for fn := range tp.chans[idx] {
		fn(start, end)
		tp.wg.Done()
	}
}

// partitionRange divides the full neuron range evenly across workers,
// independent of the Mapper's own partition size.
func (tp *ThreadPool) partitionRange(worker int) (start, end int) {
	n := tp.mapper.NeuronCount()
	chunk := (n + tp.nWorkers - 1) / tp.nWorkers
	start = worker * chunk
	end = start + chunk
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	return
}

// Run executes fn over every neuron, dividing work across the pool when
// nWorkers > 1 and otherwise running fn directly (analogous to
// ThrLayFun's NThreads<=1 branch).
func (tp *ThreadPool) Run(fn StageFunc) {
	if tp.nWorkers <= 1 {
		fn(0, tp.mapper.NeuronCount())
		return
	}
	for i := range tp.chans {
		tp.wg.Add(1)
		tp.chans[i] <- fn
	}
	tp.wg.Wait()
}

// Stop closes every worker channel, analogous to StopThreads.
func (tp *ThreadPool) Stop() {
	for _, ch := range tp.chans {
		close(ch)
	}
}

// DefaultWorkerCount returns a worker count derived from the host's
// available CPUs, matching leabra.NetworkBase's use of
// runtime.GOMAXPROCS/runtime.NumCPU when sizing NThreads.
func DefaultWorkerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
