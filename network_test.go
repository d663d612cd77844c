// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import (
	"reflect"
	"testing"
)

// ringWeight is deliberately large (rather than the spec's illustrative
// "> 30 mV") so that delivery of a single spike crosses fireThreshold
// within the first Euler substep regardless of the neuron's resting
// state, making the propagation scenarios below exact without needing
// to tune Izhikevich biophysics (spec.md §8 scenarios 1-3).
const ringWeight = float32(1000)

func buildRing(t *testing.T, n, delay int) *Simulation {
	t.Helper()
	net := NewNetwork()
	for i := 0; i < n; i++ {
		if err := net.AddNeuron(i, 0.02, 0.2, -65, 8, -13, -65, 0); err != nil {
			t.Fatalf("AddNeuron(%d) failed: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		target := (i + 1) % n
		if _, err := net.AddSynapse(i, target, delay, ringWeight, false); err != nil {
			t.Fatalf("AddSynapse(%d->%d) failed: %v", i, target, err)
		}
	}
	sim, err := net.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

// TestRingDelay1 reproduces spec.md §8 scenario 1: readFiring must return
// exactly [(c mod n)] every cycle.
func TestRingDelay1(t *testing.T) {
	const n = 5
	sim := buildRing(t, n, 1)

	for c := 0; c < 3*n; c++ {
		var ext []int
		if c == 0 {
			ext = []int{0}
		}
		if _, err := sim.Step(ext); err != nil {
			t.Fatalf("Step(%d) failed: %v", c, err)
		}
		fired := globalsOf(sim.ReadFiring())
		want := []int{c % n}
		if !reflect.DeepEqual(fired, want) {
			t.Fatalf("cycle %d: fired = %v, want %v", c, fired, want)
		}
	}
}

// TestRingDelay3 reproduces spec.md §8 scenario 2: with delay 3,
// readFiring returns [(c/3 mod n)] when c mod 3 == 0, else [].
func TestRingDelay3(t *testing.T) {
	const n = 5
	sim := buildRing(t, n, 3)

	for c := 0; c < 4*3*n; c++ {
		var ext []int
		if c == 0 {
			ext = []int{0}
		}
		if _, err := sim.Step(ext); err != nil {
			t.Fatalf("Step(%d) failed: %v", c, err)
		}
		fired := globalsOf(sim.ReadFiring())
		want := []int{}
		if c%3 == 0 {
			want = []int{(c / 3) % n}
		}
		if !reflect.DeepEqual(fired, want) {
			t.Fatalf("cycle %d: fired = %v, want %v", c, fired, want)
		}
	}
}

// TestRingImpulseOffset reproduces spec.md §8 scenario 3: an impulse
// injected at a neuron other than 0 must produce [(impulse+c) mod n]
// every cycle at delay 1.
func TestRingImpulseOffset(t *testing.T) {
	const n = 7
	const impulse = 4
	sim := buildRing(t, n, 1)

	for c := 0; c < 3*n; c++ {
		var ext []int
		if c == 0 {
			ext = []int{impulse}
		}
		if _, err := sim.Step(ext); err != nil {
			t.Fatalf("Step(%d) failed: %v", c, err)
		}
		fired := globalsOf(sim.ReadFiring())
		want := []int{(impulse + c) % n}
		if !reflect.DeepEqual(fired, want) {
			t.Fatalf("cycle %d: fired = %v, want %v", c, fired, want)
		}
	}
}

// TestRepeatedRunDeterminism reproduces spec.md §8 scenario 4: two
// independently constructed networks with identical seeds and identical
// external firing schedules must produce identical concatenated firing
// traces, including thalamic noise draws.
func TestRepeatedRunDeterminism(t *testing.T) {
	const n = 6
	build := func() *Simulation {
		net := NewNetwork()
		net.Seed = 42
		for i := 0; i < n; i++ {
			if err := net.AddNeuron(i, 0.02, 0.2, -65, 8, -13, -65, 3); err != nil {
				t.Fatalf("AddNeuron(%d) failed: %v", i, err)
			}
		}
		for i := 0; i < n; i++ {
			if _, err := net.AddSynapse(i, (i+2)%n, 1, ringWeight, false); err != nil {
				t.Fatalf("AddSynapse failed: %v", err)
			}
			if _, err := net.AddSynapse(i, (i+1)%n, 2, ringWeight/2, false); err != nil {
				t.Fatalf("AddSynapse failed: %v", err)
			}
		}
		sim, err := net.Finalize()
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		t.Cleanup(sim.Close)
		return sim
	}

	run := func(sim *Simulation) []FiringEntry {
		var trace []FiringEntry
		for c := 0; c < 50; c++ {
			var ext []int
			if c == 0 {
				ext = []int{0}
			}
			if _, err := sim.Step(ext); err != nil {
				t.Fatalf("Step(%d) failed: %v", c, err)
			}
			trace = append(trace, sim.ReadFiring()...)
		}
		return trace
	}

	trace1 := run(build())
	trace2 := run(build())
	if !reflect.DeepEqual(trace1, trace2) {
		t.Fatalf("firing traces diverged between identically-seeded runs:\n%v\n%v", trace1, trace2)
	}
}

func globalsOf(entries []FiringEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Local
	}
	return out
}

func TestAddSynapseUnknownNeuron(t *testing.T) {
	net := NewNetwork()
	if err := net.AddNeuron(0, 0.02, 0.2, -65, 8, -13, -65, 0); err != nil {
		t.Fatalf("AddNeuron failed: %v", err)
	}
	if _, err := net.AddSynapse(0, 1, 1, 10, false); KindOf(err) != InvalidInput {
		t.Errorf("AddSynapse to unknown target kind = %v, want InvalidInput", KindOf(err))
	}
}

func TestAddSynapseDuplicate(t *testing.T) {
	net := NewNetwork()
	for i := 0; i < 2; i++ {
		if err := net.AddNeuron(i, 0.02, 0.2, -65, 8, -13, -65, 0); err != nil {
			t.Fatalf("AddNeuron(%d) failed: %v", i, err)
		}
	}
	if _, err := net.AddSynapse(0, 1, 1, 10, false); err != nil {
		t.Fatalf("first AddSynapse failed: %v", err)
	}
	if _, err := net.AddSynapse(0, 1, 1, 20, false); KindOf(err) != InvalidInput {
		t.Errorf("duplicate AddSynapse kind = %v, want InvalidInput", KindOf(err))
	}
}

func TestStepUnknownExternalFiring(t *testing.T) {
	sim := buildRing(t, 3, 1)
	if _, err := sim.Step([]int{999}); KindOf(err) != InvalidInput {
		t.Errorf("Step with unknown global index kind = %v, want InvalidInput", KindOf(err))
	}
}
