// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "sort"

// RecentFiringRing holds, per neuron, a 64-bit shift register of recent
// firing history: bit 0 is "fired this cycle", bit k is "fired k cycles
// ago" (spec.md §3). It is double-buffered so that stages reading the
// pre-cycle history (gather, integrate) never observe the bit this
// cycle's fire stage is in the process of writing; the STDP stage reads
// the write buffer deliberately, since it needs the just-written bit
// (spec.md §4.1 invariants).
type RecentFiringRing struct {
	read  []uint64
	write []uint64
}

// NewRecentFiringRing allocates a ring for n neurons, all-zero history.
func NewRecentFiringRing(n int) *RecentFiringRing {
	return &RecentFiringRing{
		read:  make([]uint64, n),
		write: make([]uint64, n),
	}
}

// Read returns the pre-cycle firing history word for neuron n.
func (r *RecentFiringRing) Read(n int) uint64 {
	return r.read[n]
}

// Write returns the in-progress (just-updated) firing history word for
// neuron n, as written by UpdateHistory this cycle.
func (r *RecentFiringRing) Write(n int) uint64 {
	return r.write[n]
}

// UpdateHistory shifts neuron n's history left by one and ORs in the
// firing bit, writing the result to the write buffer (spec.md §4.1
// step 5).
func (r *RecentFiringRing) UpdateHistory(n int, fired bool) {
	w := r.write[n] << 1
	if fired {
		w |= 1
	}
	r.write[n] = w
}

// Swap promotes the write buffer to the read buffer for the next cycle.
// Called once per cycle after the STDP stage has consumed the write
// buffer.
func (r *RecentFiringRing) Swap() {
	copy(r.read, r.write)
}

// FiringEntry is one (cycle, localIndex) pair recorded by FiringBuffer.
type FiringEntry struct {
	Cycle int64
	Local int
}

// FiringBuffer is an append-only producer/consumer buffer of firing
// events (spec.md §3, §4.7). Push appends an entry; ReadFiring returns
// and clears everything pushed since the previous read, ordered by cycle
// then by local index.
type FiringBuffer struct {
	pending []FiringEntry
}

// Push appends one (cycle, local) firing event.
func (fb *FiringBuffer) Push(cycle int64, local int) {
	fb.pending = append(fb.pending, FiringEntry{Cycle: cycle, Local: local})
}

// ReadFiring returns all entries pushed since the last call, in
// cycle-then-local-index order, and advances the read cursor.
func (fb *FiringBuffer) ReadFiring() []FiringEntry {
	if len(fb.pending) == 0 {
		return nil
	}
	out := fb.pending
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cycle != out[j].Cycle {
			return out[i].Cycle < out[j].Cycle
		}
		return out[i].Local < out[j].Local
	})
	fb.pending = nil
	return out
}

// Len reports the number of entries pending since the last read, without
// consuming them.
func (fb *FiringBuffer) Len() int {
	return len(fb.pending)
}
