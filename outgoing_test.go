// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import (
	"reflect"
	"testing"
)

func TestBuildOutgoingIndexSkipsEmptyRows(t *testing.T) {
	fcm := NewForwardConnectivityMatrix(3)
	if _, err := fcm.AddSynapse(synapseSpec{source: 0, target: 1, delay: 1, weight: 5}); err != nil {
		t.Fatalf("AddSynapse failed: %v", err)
	}
	if _, err := fcm.AddSynapse(synapseSpec{source: 0, target: 2, delay: 4, weight: 5}); err != nil {
		t.Fatalf("AddSynapse failed: %v", err)
	}
	if err := fcm.Finalize(-1); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	oi := BuildOutgoingIndex(fcm)
	if got := oi.Delays(0); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("Delays(0) = %v, want [1 4]", got)
	}
	if got := oi.Delays(1); len(got) != 0 {
		t.Errorf("Delays(1) = %v, want empty", got)
	}
}
