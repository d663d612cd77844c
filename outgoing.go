// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// outAddr is one (source, delay) key with a non-empty forward row, built
// once at Finalize by scanning the forward matrix (spec.md §4.4).
type outAddr struct {
	delay int
}

// OutgoingIndex maps a firing source neuron to the set of delays it must
// scatter through, skipping delays whose forward row is empty so the
// scatter stage never streams a zero-length row (spec.md §2 item 5,
// §4.4). It is built once at Finalize and read-only thereafter.
type OutgoingIndex struct {
	bySource [][]outAddr // indexed by local source index
}

// BuildOutgoingIndex scans fcm's rows for every (source, delay) pair and
// records the non-empty ones, per source.
func BuildOutgoingIndex(fcm *ForwardConnectivityMatrix) *OutgoingIndex {
	n := fcm.neuronCount
	oi := &OutgoingIndex{bySource: make([][]outAddr, n)}
	for src := 0; src < n; src++ {
		for d := 1; d <= MaxDelay; d++ {
			if len(fcm.GetRow(src, d)) > 0 {
				oi.bySource[src] = append(oi.bySource[src], outAddr{delay: d})
			}
		}
	}
	return oi
}

// Delays returns the ascending list of delays source has at least one
// outgoing synapse for.
func (oi *OutgoingIndex) Delays(source int) []int {
	addrs := oi.bySource[source]
	out := make([]int, len(addrs))
	for i, a := range addrs {
		out[i] = a.delay
	}
	return out
}
