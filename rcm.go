// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// ReverseEntry points back at one plastic synapse's weight slot in the
// forward matrix and carries its pending weight-delta accumulator
// (spec.md §3). Source/Delay/Slot together identify the Terminal this
// entry mirrors: ForwardConnectivityMatrix.GetRow(Source, Delay)[Slot].
type ReverseEntry struct {
	Source     int
	Delay      int
	Slot       int
	Delta      Fix
	Excitatory bool // sign fixed at construction; plastic synapses never change sign
}

// ReverseConnectivityMatrix indexes plastic synapses by target neuron,
// for the per-postsynaptic STDP lookup of spec.md §2 item 4, §4.3. It is
// laid out as a pitched 2D region -- rows maxIncomingPlastic wide,
// padded -- mirroring the forward matrix's row[source*MaxDelay+...]
// addressing so that a target's incoming plastic synapses are
// contiguous, matching the "no per-row allocation in the hot path"
// design note (spec.md §9).
type ReverseConnectivityMatrix struct {
	neuronCount int
	pitch       int
	entries     []ReverseEntry // len == neuronCount*pitch
	counts      []int          // live entries per target
}

// NewReverseConnectivityMatrix allocates a pitched region for n neurons
// with room for up to maxIncomingPlastic plastic synapses per target.
func NewReverseConnectivityMatrix(n, maxIncomingPlastic int) *ReverseConnectivityMatrix {
	if maxIncomingPlastic < 1 {
		maxIncomingPlastic = 1
	}
	return &ReverseConnectivityMatrix{
		neuronCount: n,
		pitch:       maxIncomingPlastic,
		entries:     make([]ReverseEntry, n*maxIncomingPlastic),
		counts:      make([]int, n),
	}
}

// Add appends one plastic synapse's reverse entry under target, growing
// the pitch (and reallocating) if the target's row is already full.
// Returns AllocationError only if growth itself cannot proceed, which
// cannot happen for a slice-backed store; kept for interface symmetry
// with the fixed-capacity components.
func (r *ReverseConnectivityMatrix) Add(target, source, delay, slot int, excitatory bool) error {
	if r.counts[target] >= r.pitch {
		r.grow(r.pitch * 2)
	}
	base := target * r.pitch
	r.entries[base+r.counts[target]] = ReverseEntry{Source: source, Delay: delay, Slot: slot, Excitatory: excitatory}
	r.counts[target]++
	return nil
}

// grow reallocates the pitched region to a wider pitch, preserving every
// target's existing entries. Called only during construction.
func (r *ReverseConnectivityMatrix) grow(newPitch int) {
	newEntries := make([]ReverseEntry, r.neuronCount*newPitch)
	for t := 0; t < r.neuronCount; t++ {
		copy(newEntries[t*newPitch:t*newPitch+r.counts[t]], r.entries[t*r.pitch:t*r.pitch+r.counts[t]])
	}
	r.entries = newEntries
	r.pitch = newPitch
}

// Incoming returns the live reverse entries for target, as a slice
// backed directly by the pitched region (no copy).
func (r *ReverseConnectivityMatrix) Incoming(target int) []ReverseEntry {
	base := target * r.pitch
	return r.entries[base : base+r.counts[target]]
}

// AccumulateDelta adds delta into the pending accumulator of the i'th
// incoming entry of target (index into the slice Incoming returns).
func (r *ReverseConnectivityMatrix) AccumulateDelta(target, i int, delta Fix) {
	idx := target*r.pitch + i
	sum, _ := SaturatingAdd(r.entries[idx].Delta, delta)
	r.entries[idx].Delta = sum
}

// ApplyStdp flushes every plastic synapse's pending delta into its live
// weight in fcm, scaled by reward, clamping to [0, maxWeight] for
// excitatory synapses (weight >= 0 at construction) and [minWeight, 0]
// for inhibitory ones, and zeroing the delta (spec.md §4.3). When reward
// is 0 only the accumulator is cleared, matching the spec's explicit
// "reward = 0 only clears" case.
func (r *ReverseConnectivityMatrix) ApplyStdp(fcm *ForwardConnectivityMatrix, reward, minWeight, maxWeight float32) {
	fbits := fcm.FractionalBits()
	for target := 0; target < r.neuronCount; target++ {
		base := target * r.pitch
		for i := 0; i < r.counts[target]; i++ {
			e := &r.entries[base+i]
			if reward != 0 && e.Delta != 0 {
				term := fcm.GetRow(e.Source, e.Delay)[e.Slot]
				w := ToFloat(term.Weight, fbits)
				w += reward * ToFloat(e.Delta, fbits)
				if e.Excitatory {
					if w < 0 {
						w = 0
					} else if w > maxWeight {
						w = maxWeight
					}
				} else {
					if w > 0 {
						w = 0
					} else if w < minWeight {
						w = minWeight
					}
				}
				fcm.SetWeight(e.Source, e.Delay, e.Slot, ToFix(w, fbits))
			}
			e.Delta = 0
		}
	}
}
