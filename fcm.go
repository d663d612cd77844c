// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "sort"

// Terminal is one {target, weight} pair in a ForwardRow, grounded on
// original_source's FAxonTerminal<fix_t> (libnemo/nemo/ConnectivityMatrix.cpp).
type Terminal struct {
	Target int
	Weight Fix
}

// Row is a read-only view into the finalized forward matrix's flat
// buffer for one (source, delay) pair. A nil/empty Row represents an
// absent pair, per spec.md §4.2 "absent rows represented as length-0".
type Row []Terminal

// ForwardConnectivityMatrix holds, for every (source, delay) pair, the
// contiguous row of outgoing {target, weight} terminals, addressed as
// row[source*MaxDelay+(delay-1)] after Finalize (spec.md §2 item 3,
// §4.2). It is read-only once finalized; the hot gather stage streams
// rows without any per-row allocation.
type ForwardConnectivityMatrix struct {
	maxDelay       int
	neuronCount    int
	fractionalBits int
	finalized      bool

	// building holds insertion-ordered terminals per (source,delay) key
	// until Finalize flattens them, grounded on the "lazy-structured
	// construction... accumulate by (source,delay) then flatten" pattern
	// called out in spec.md §9, re-expressed as an explicit builder.
	building map[int][]synapseSpec
	rows     []Row // flattened after Finalize, len == neuronCount*MaxDelay
}

// NewForwardConnectivityMatrix creates an empty builder for n neurons.
func NewForwardConnectivityMatrix(n int) *ForwardConnectivityMatrix {
	return &ForwardConnectivityMatrix{
		neuronCount: n,
		building:    make(map[int][]synapseSpec),
	}
}

func fcmKey(source, delay int) int {
	return source*MaxDelay + (delay - 1)
}

// AddSynapse inserts one synapse spec into the (source, delay) row being
// built. Double insertion of the identical (source, target, delay) tuple
// fails with InvalidInput per spec.md's Synapse invariant; delay outside
// [1, MaxDelay] fails with InvalidInput per spec.md §4.2.
func (f *ForwardConnectivityMatrix) AddSynapse(spec synapseSpec) (slot int, err error) {
	if f.finalized {
		return 0, newErr(InvalidInput, "cannot add synapses after finalize")
	}
	if spec.delay < 1 || spec.delay > MaxDelay {
		return 0, newErr(InvalidInput, "synapse delay %d out of range [1,%d]", spec.delay, MaxDelay)
	}
	key := fcmKey(spec.source, spec.delay)
	for _, existing := range f.building[key] {
		if existing.target == spec.target {
			return 0, newErr(InvalidInput,
				"double insertion of synapse (%d->%d, delay %d)", spec.source, spec.target, spec.delay)
		}
	}
	f.building[key] = append(f.building[key], spec)
	if spec.delay > f.maxDelay {
		f.maxDelay = spec.delay
	}
	return len(f.building[key]) - 1, nil
}

// MaxAbsWeight scans all inserted synapses for the largest absolute
// weight, used by Finalize to choose the fractional-bit count.
func (f *ForwardConnectivityMatrix) MaxAbsWeight() float32 {
	var maxAbs float32
	for _, specs := range f.building {
		for _, s := range specs {
			w := s.weight
			if w < 0 {
				w = -w
			}
			if w > maxAbs {
				maxAbs = w
			}
		}
	}
	return maxAbs
}

// Finalize computes maxDelay, chooses the fractional-bit count per
// spec.md §4.2's rule (overridable via fbitsOverride >= 0), and copies
// the insertion-ordered rows into a contiguous neuronCount*MaxDelay array
// with absent rows left as length-0 Rows (spec.md §4.2).
func (f *ForwardConnectivityMatrix) Finalize(fbitsOverride int) error {
	if f.finalized {
		return newErr(Logic, "forward connectivity matrix already finalized")
	}
	if fbitsOverride >= 0 {
		f.fractionalBits = fbitsOverride
	} else {
		f.fractionalBits = ChooseFractionalBits(f.MaxAbsWeight())
	}
	f.rows = make([]Row, f.neuronCount*MaxDelay)
	for key, specs := range f.building {
		row := make(Row, len(specs))
		for i, s := range specs {
			row[i] = Terminal{Target: s.target, Weight: ToFix(s.weight, f.fractionalBits)}
		}
		f.rows[key] = row
	}
	f.building = nil
	f.finalized = true
	return nil
}

// FractionalBits returns the fixed-point fractional-bit count chosen (or
// overridden) at Finalize.
func (f *ForwardConnectivityMatrix) FractionalBits() int {
	return f.fractionalBits
}

// MaxDelayUsed returns the largest delay of any inserted synapse.
func (f *ForwardConnectivityMatrix) MaxDelayUsed() int {
	return f.maxDelay
}

// GetRow returns the Row for (source, delay) in O(1); it is empty if no
// synapse was inserted for that pair (spec.md §4.2).
func (f *ForwardConnectivityMatrix) GetRow(source, delay int) Row {
	return f.rows[fcmKey(source, delay)]
}

// GetSynapses returns parallel arrays (targets, delays, weights, plastic)
// for every synapse from source, in the order originally inserted within
// each delay and ascending by delay, with weights converted back to
// float32 (spec.md §4.2 "user weight queries stable").
func (f *ForwardConnectivityMatrix) GetSynapses(source int) (targets, delays []int, weights []float32, plastic []bool) {
	ds := make([]int, 0, MaxDelay)
	for d := 1; d <= MaxDelay; d++ {
		row := f.GetRow(source, d)
		if len(row) > 0 {
			ds = append(ds, d)
		}
	}
	sort.Ints(ds)
	for _, d := range ds {
		row := f.GetRow(source, d)
		for _, t := range row {
			targets = append(targets, t.Target)
			delays = append(delays, d)
			weights = append(weights, ToFloat(t.Weight, f.fractionalBits))
			plastic = append(plastic, false) // overwritten by caller using ReverseConnectivityMatrix
		}
	}
	return
}

// SetWeight overwrites the weight at a specific forward address, used by
// ReverseConnectivityMatrix.ApplyStdp to commit plastic weight updates
// in place (spec.md §4.3).
func (f *ForwardConnectivityMatrix) SetWeight(source, delay, slot int, w Fix) {
	f.rows[fcmKey(source, delay)][slot] = Terminal{Target: f.rows[fcmKey(source, delay)][slot].Target, Weight: w}
}
