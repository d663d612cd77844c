// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "github.com/nico202/nemosim/rng"

// substeps and substepMult implement the four-sub-step Euler integration
// of spec.md §4.1 step 3, mirroring original_source's SUBSTEPS/SUBSTEP_MULT
// (libnemo/nemo/cpu/Simulation.cpp).
const (
	substeps    = 4
	substepMult = 0.25
)

// fireThreshold is the membrane potential (mV) at which a neuron is
// considered to have fired, per the Izhikevich model.
const fireThreshold = 30.0

// NeuronStats carries read-only diagnostic counters supplementing the
// construction/simulation interface (spec.md §3 supplement, grounded on
// original_source's RuntimeData firing statistics and leabra.Neuron's
// ISI/ISIAvg rate-coded analogue).
type NeuronStats struct {
	FiredCount  uint64
	LastFireCyc int64 // -1 if the neuron has never fired
}

// NeuronState holds the per-neuron Izhikevich parameters and integration
// state for every neuron in a finalized network (spec.md §3, §4.5). All
// slices are indexed by local index and sized once at Finalize; there is
// no per-neuron allocation on the hot path.
type NeuronState struct {
	sigma    []float32
	u, v     []float32
	rngState []rng.State
	stats    []NeuronStats

	// aParam etc hold per-neuron copies since the Izhikevich model allows
	// heterogeneous a/b/c/d across a population even though a single
	// *model* (not a single parameterization) is assumed (spec.md §1).
	aParam, bParam, cParam, dParam []float32

	overflow []bool // per-neuron saturation bit, diagnostics only (spec.md §7)
}

// NewNeuronState allocates per-neuron state for n neurons, all zeroed;
// callers fill in parameters via Set before Finalize.
func NewNeuronState(n int) *NeuronState {
	return &NeuronState{
		aParam:   make([]float32, n),
		bParam:   make([]float32, n),
		cParam:   make([]float32, n),
		dParam:   make([]float32, n),
		sigma:    make([]float32, n),
		u:        make([]float32, n),
		v:        make([]float32, n),
		rngState: make([]rng.State, n),
		stats:    make([]NeuronStats, n),
		overflow: make([]bool, n),
	}
}

// Set installs the immutable parameters and initial state for neuron n
// (spec.md §6, addNeuron). sigma must be >= 0.
func (ns *NeuronState) Set(n int, a, b, c, d, u, v, sigma float32, seed uint64) error {
	if sigma < 0 {
		return newErr(InvalidInput, "neuron %d: sigma must be >= 0, got %v", n, sigma)
	}
	ns.aParam[n], ns.bParam[n], ns.cParam[n], ns.dParam[n] = a, b, c, d
	ns.u[n], ns.v[n], ns.sigma[n] = u, v, sigma
	ns.rngState[n] = rng.Seed(seed, n)
	ns.stats[n] = NeuronStats{LastFireCyc: -1}
	return nil
}

// Get returns the current (u, v) state of neuron n.
func (ns *NeuronState) Get(n int) (u, v float32) {
	return ns.u[n], ns.v[n]
}

// Stats returns the read-only diagnostic counters for neuron n.
func (ns *NeuronState) Stats(n int) NeuronStats {
	return ns.stats[n]
}

// Overflow reports whether neuron n's current accumulator saturated
// during the most recent gather stage (spec.md §7 diagnostic bit).
func (ns *NeuronState) Overflow(n int) bool {
	return ns.overflow[n]
}

// SetOverflow is called by the gather stage when SaturatingAdd reports
// saturation for neuron n's accumulator.
func (ns *NeuronState) SetOverflow(n int, ov bool) {
	ns.overflow[n] = ov
}

// ClearOverflow resets every neuron's overflow bit, called once at the
// start of each cycle's gather stage so the bit reflects only the
// current cycle's accumulation.
func (ns *NeuronState) ClearOverflow() {
	for i := range ns.overflow {
		ns.overflow[i] = false
	}
}

// Noise draws one Gaussian sample scaled by sigma for neuron n, advancing
// its RNG state. Returns 0 without drawing if sigma is 0, so determinism
// is independent of RNG state when noise is disabled (spec.md §8 boundary
// condition) -- per spec.md §9's design note, the RNG is advanced lazily
// (only when used), since this implementation does not need
// reproducibility across sigma-reconfigurations mid-run.
func (ns *NeuronState) Noise(n int) float32 {
	if ns.sigma[n] == 0 {
		return 0
	}
	s := ns.rngState[n]
	g := s.Gaussian()
	ns.rngState[n] = s
	return ns.sigma[n] * g
}

// Integrate runs the four-substep Euler integration of the Izhikevich
// model for neuron n given total input current I (already converted to
// float32), freezing v and u as soon as the neuron fires within the
// cycle (spec.md §4.1 step 3). Returns true iff the neuron fired
// naturally this cycle.
func (ns *NeuronState) Integrate(n int, current float32) bool {
	a, b := ns.aParam[n], ns.bParam[n]
	v, u := ns.v[n], ns.u[n]
	fired := false
	for s := 0; s < substeps && !fired; s++ {
		v += substepMult * ((0.04*v+5.0)*v + 140.0 - u + current)
		u += substepMult * (a * (b*v - u))
		fired = v >= fireThreshold
	}
	ns.v[n], ns.u[n] = v, u
	return fired
}

// Reset applies the post-fire reset v <- c, u <- u + d for neuron n
// (spec.md §4.1 step 4) and updates its firing-count diagnostics.
func (ns *NeuronState) Reset(n int, cycle int64) {
	ns.v[n] = ns.cParam[n]
	ns.u[n] += ns.dParam[n]
	ns.stats[n].FiredCount++
	ns.stats[n].LastFireCyc = cycle
}

// NeuronCount returns the number of neurons this state covers.
func (ns *NeuronState) NeuronCount() int {
	return len(ns.aParam)
}
