// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// CyclePipeline orchestrates gather -> integrate -> fire -> scatter ->
// STDP-accumulate once per millisecond cycle (spec.md §2 item 10, §4.1).
// It owns every hot-path structure and is the only component that
// mutates more than one of them within a single Step call.
type CyclePipeline struct {
	mapper   *Mapper
	fcm      *ForwardConnectivityMatrix
	rcm      *ReverseConnectivityMatrix
	outgoing *OutgoingIndex
	incoming *IncomingQueue
	neurons  *NeuronState
	recent   *RecentFiringRing
	stdp     *STDPEngine
	firing   FiringBuffer
	pool     *ThreadPool

	cycle         int64
	current       []Fix
	fired         []bool
	overflowCount uint64
	scatterErr    error
}

// NewCyclePipeline assembles a pipeline from its already-finalized
// components. Called by Network.Finalize.
func NewCyclePipeline(mapper *Mapper, fcm *ForwardConnectivityMatrix, rcm *ReverseConnectivityMatrix,
	outgoing *OutgoingIndex, incoming *IncomingQueue, neurons *NeuronState, stdp *STDPEngine, pool *ThreadPool) *CyclePipeline {
	n := mapper.NeuronCount()
	return &CyclePipeline{
		mapper:   mapper,
		fcm:      fcm,
		rcm:      rcm,
		outgoing: outgoing,
		incoming: incoming,
		neurons:  neurons,
		recent:   NewRecentFiringRing(n),
		stdp:     stdp,
		pool:     pool,
		current:  make([]Fix, n),
		fired:    make([]bool, n),
	}
}

// Cycle returns the number of cycles committed so far.
func (cp *CyclePipeline) Cycle() int64 {
	return cp.cycle
}

// OverflowCount returns the running count of saturating-add overflows
// observed during gather, across all cycles (spec.md §7 diagnostic,
// SPEC_FULL §3 supplement).
func (cp *CyclePipeline) OverflowCount() uint64 {
	return cp.overflowCount
}

// Step advances the simulation by one cycle, implementing spec.md §4.1's
// eight-step algorithm in order. externalFirings are local indices forced
// to fire this cycle regardless of natural integration; invalid indices
// fail with InvalidInput and leave state unmodified.
func (cp *CyclePipeline) Step(externalFirings []int) ([]int, error) {
	n := cp.mapper.NeuronCount()
	for _, idx := range externalFirings {
		if idx < 0 || idx >= n {
			return nil, newErr(InvalidInput, "external firing index %d out of range [0,%d)", idx, n)
		}
	}
	if cp.cycle == 1<<62 {
		return nil, newErr(Logic, "cycle counter overflow")
	}

	cp.gather()
	cp.noise()
	extFire := make([]bool, n)
	for _, idx := range externalFirings {
		extFire[idx] = true
	}
	cp.integrateAndFire(extFire)
	cp.scatterErr = nil
	cp.scatter()
	if cp.scatterErr != nil {
		return nil, cp.scatterErr
	}
	cp.accumulateStdp()

	firedLocal := make([]int, 0, 16)
	for i := 0; i < n; i++ {
		if cp.fired[i] {
			firedLocal = append(firedLocal, i)
			cp.firing.Push(cp.cycle, i)
		}
	}

	cp.recent.Swap()
	cp.cycle++
	return firedLocal, nil
}

// gather implements spec.md §4.1 step 1: read and clear the current
// cycle's bin, stream each referenced forward row, and saturating-add
// every terminal's weight into its target's current accumulator.
func (cp *CyclePipeline) gather() {
	for i := range cp.current {
		cp.current[i] = 0
	}
	cp.neurons.ClearOverflow()
	bin := cp.incoming.Bin(cp.cycle)
	for _, ref := range bin {
		row := cp.fcm.GetRow(ref.source, ref.delay)
		for _, term := range row {
			sum, overflowed := SaturatingAdd(cp.current[term.Target], term.Weight)
			cp.current[term.Target] = sum
			if overflowed {
				cp.neurons.SetOverflow(term.Target, true)
				cp.overflowCount++
			}
		}
	}
	cp.incoming.Clear(cp.cycle)
}

// noise implements spec.md §4.1 step 2: add a scaled Gaussian sample to
// every neuron's accumulator. NeuronState.Noise already skips the draw
// for sigma==0, so determinism holds without any RNG state when noise is
// disabled (spec.md §8 boundary condition).
func (cp *CyclePipeline) noise() {
	fbits := cp.fcm.FractionalBits()
	for n := range cp.current {
		g := cp.neurons.Noise(n)
		if g != 0 {
			cp.current[n], _ = SaturatingAdd(cp.current[n], ToFix(g, fbits))
		}
	}
}

// integrateAndFire implements spec.md §4.1 steps 3-5: convert each
// neuron's accumulator to float, run the four-substep Izhikevich
// integration, OR in any forced external firing, apply the post-fire
// reset, and write the new firing bit into the recent-firing ring's
// write buffer.
func (cp *CyclePipeline) integrateAndFire(extFire []bool) {
	fbits := cp.fcm.FractionalBits()
	run := func(start, end int) {
		for n := start; n < end; n++ {
			I := ToFloat(cp.current[n], fbits)
			fired := cp.neurons.Integrate(n, I)
			fired = fired || extFire[n]
			cp.fired[n] = fired
			if fired {
				cp.neurons.Reset(n, cp.cycle)
			}
			cp.recent.UpdateHistory(n, fired)
		}
	}
	cp.pool.Run(run)
}

// scatter implements spec.md §4.1 step 6: for every neuron that fired
// this cycle, enqueue a reference for each delay it has outgoing
// synapses for, into the bin that will be consumed cycle+delay cycles
// from now.
func (cp *CyclePipeline) scatter() {
	for n := 0; n < len(cp.fired); n++ {
		if !cp.fired[n] {
			continue
		}
		for _, delay := range cp.outgoing.bySource[n] {
			if err := cp.incoming.Enqueue(cp.cycle, n, delay.delay); err != nil {
				cp.scatterErr = err
				return
			}
		}
	}
}

// accumulateStdp implements spec.md §4.1 step 7: for every neuron whose
// just-written recent-firing bit at position PostFireWindow is set,
// accumulate pending weight deltas for its plastic incoming synapses.
func (cp *CyclePipeline) accumulateStdp() {
	if cp.stdp == nil || !cp.stdp.Enabled() {
		return
	}
	pivot := cp.stdp.Function().PostFireWindow()
	mask := uint64(1) << uint(pivot)
	run := func(start, end int) {
		for t := start; t < end; t++ {
			if cp.recent.Write(t)&mask != 0 {
				cp.stdp.AccumulateTarget(cp.rcm, t, cp.recent)
			}
		}
	}
	cp.pool.Run(run)
}

// ReadFiring returns every firing event recorded since the last call,
// draining the FiringBuffer (spec.md §4.7).
func (cp *CyclePipeline) ReadFiring() []FiringEntry {
	return cp.firing.ReadFiring()
}
