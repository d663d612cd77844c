// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "testing"

func TestMapperAddAndLookup(t *testing.T) {
	m := NewMapper(4)
	globals := []int{100, 7, 42, 3}
	for i, g := range globals {
		local, err := m.Add(g)
		if err != nil {
			t.Fatalf("Add(%d) failed: %v", g, err)
		}
		if local != i {
			t.Errorf("Add(%d) = local %d, want %d", g, local, i)
		}
	}
	for i, g := range globals {
		local, err := m.LocalIdx(g)
		if err != nil {
			t.Fatalf("LocalIdx(%d) failed: %v", g, err)
		}
		if local != i {
			t.Errorf("LocalIdx(%d) = %d, want %d", g, local, i)
		}
		if got := m.GlobalIdx(local); got != g {
			t.Errorf("GlobalIdx(%d) = %d, want %d", local, got, g)
		}
	}
}

func TestMapperDuplicateGlobal(t *testing.T) {
	m := NewMapper(4)
	if _, err := m.Add(5); err != nil {
		t.Fatalf("Add(5) failed: %v", err)
	}
	if _, err := m.Add(5); KindOf(err) != InvalidInput {
		t.Errorf("duplicate Add(5) kind = %v, want InvalidInput", KindOf(err))
	}
}

func TestMapperUnknownGlobal(t *testing.T) {
	m := NewMapper(4)
	if _, err := m.LocalIdx(999); KindOf(err) != InvalidInput {
		t.Errorf("LocalIdx(unknown) kind = %v, want InvalidInput", KindOf(err))
	}
}

func TestMapperPartitioning(t *testing.T) {
	m := NewMapper(4)
	for i := 0; i < 10; i++ {
		if _, err := m.Add(i); err != nil {
			t.Fatalf("Add(%d) failed: %v", i, err)
		}
	}
	if got := m.PartitionCount(); got != 3 {
		t.Errorf("PartitionCount() = %d, want 3", got)
	}
	start, end := m.PartitionRange(2)
	if start != 8 || end != 10 {
		t.Errorf("PartitionRange(2) = (%d,%d), want (8,10)", start, end)
	}
	if got := m.PartitionOf(9); got != 2 {
		t.Errorf("PartitionOf(9) = %d, want 2", got)
	}
}
