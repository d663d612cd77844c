// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// MaxDelay is the hard ceiling on synaptic delay and on the STDP window,
// fixed by the width of the RecentFiringRing and IncomingQueue: both are
// addressed by 64-bit words, so 64 is the largest delay that can ever be
// represented (spec.md §9, "the recent-firing word is exactly 64 bits").
const MaxDelay = 64

// SynapseID identifies a synapse by construction order, returned from
// Network.AddSynapse and usable with Simulation.SynapseWeight for a
// by-id weight query that supplements getSynapsesFrom (spec.md §3
// supplement, original_source's per-id nemo_c.cpp lookup).
type SynapseID int

// synapseSpec is the builder-time record of one addSynapse call, kept in
// insertion order until Finalize flattens it into the ForwardRow terminals
// and ReverseConnectivityMatrix entries that back the hot path.
type synapseSpec struct {
	id      SynapseID
	source  int
	target  int
	delay   int
	weight  float32
	plastic bool
}
