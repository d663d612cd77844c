// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "testing"

func TestRecentFiringRingShiftAndSwap(t *testing.T) {
	r := NewRecentFiringRing(2)
	r.UpdateHistory(0, true)
	r.UpdateHistory(1, false)
	if r.Write(0) != 1 {
		t.Errorf("Write(0) = %d, want 1", r.Write(0))
	}
	if r.Write(1) != 0 {
		t.Errorf("Write(1) = %d, want 0", r.Write(1))
	}
	if r.Read(0) != 0 {
		t.Errorf("Read(0) before Swap = %d, want 0", r.Read(0))
	}
	r.Swap()
	if r.Read(0) != 1 {
		t.Errorf("Read(0) after Swap = %d, want 1", r.Read(0))
	}

	r.UpdateHistory(0, true)
	if r.Write(0) != 3 { // 0b1 << 1 | 1 == 3
		t.Errorf("Write(0) after second update = %d, want 3", r.Write(0))
	}
}

func TestFiringBufferOrdering(t *testing.T) {
	var fb FiringBuffer
	fb.Push(2, 5)
	fb.Push(1, 9)
	fb.Push(1, 3)

	if got := fb.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	entries := fb.ReadFiring()
	want := []FiringEntry{{Cycle: 1, Local: 3}, {Cycle: 1, Local: 9}, {Cycle: 2, Local: 5}}
	if len(entries) != len(want) {
		t.Fatalf("ReadFiring() returned %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, want[i])
		}
	}
	if got := fb.Len(); got != 0 {
		t.Errorf("Len() after ReadFiring = %d, want 0", got)
	}
}
