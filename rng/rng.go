// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rng implements the per-neuron deterministic random stream used
// for thalamic noise (spec.md §4.5). Each neuron owns a single uint64
// state word rather than an interface-typed generator, so that the state
// can be stored inline in NeuronState and advanced independently of how
// many worker goroutines execute a cycle's integrate stage -- the pattern
// emer/emergent/erand.RndParams.Gen(idx) follows for per-index generation,
// reworked here as a flat scalar (see DESIGN.md).
package rng

import "github.com/chewxy/math32"

// State is a per-neuron RNG state. The zero value is a valid, if
// poor, seed; callers should use Seed to derive a state from a user seed
// and neuron index so that reseeding the simulation reproduces identical
// noise streams regardless of thread scheduling.
type State uint64

// Seed derives a neuron-specific seed from a simulation-wide seed and the
// neuron's local index, so that every neuron gets an independent stream
// even though all streams trace back to one user-supplied seed.
func Seed(simSeed uint64, localIdx int) State {
	s := simSeed ^ (uint64(localIdx)*0x9E3779B97F4A7C15 + 0x2545F4914F6CDD1D)
	if s == 0 {
		s = 0x853C49E6748FEA9B
	}
	return State(s)
}

// next advances the splitmix64 generator in place and returns the next
// raw 64-bit output. splitmix64 is used for its small state (a single
// uint64, matching spec.md §3's "RNG state (scalar of sufficient width)")
// and good statistical properties for a non-cryptographic noise source.
func (s *State) next() uint64 {
	x := uint64(*s) + 0x9E3779B97F4A7C15
	*s = State(x)
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// Float64 returns a uniform sample in [0, 1), advancing the state.
func (s *State) Float64() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

// Gaussian draws one standard-normal sample via the Box-Muller transform,
// advancing the state by two draws. Used by the integrate stage's
// thalamic noise term (spec.md §4.1 step 2) scaled by each neuron's sigma.
// Returns float32 to match the float32-throughout convention carried by
// fixedpoint.go and neuron.go (see DESIGN.md).
func (s *State) Gaussian() float32 {
	u1 := float32(s.Float64())
	for u1 <= 0 {
		u1 = float32(s.Float64())
	}
	u2 := float32(s.Float64())
	return math32.Sqrt(-2*math32.Log(u1)) * math32.Cos(2*math32.Pi*u2)
}
