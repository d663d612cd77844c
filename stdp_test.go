// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "testing"

// TestSTDPRoundTrip reproduces spec.md §8 scenario 5: an asymmetric
// STDP function with prefire = [-1,-2,-3] (depression) and
// postfire = [+5,+4,+3] (potentiation), a plastic synapse s->t with
// delay 1, s firing 4 cycles before the accumulation point so the
// post-fire dt works out to 0. Expect postfire[0] == +5 to be the
// accumulated delta, applied at reward 1.0.
func TestSTDPRoundTrip(t *testing.T) {
	const weight = float32(10)
	fbits := ChooseFractionalBits(weight)

	fcm := NewForwardConnectivityMatrix(2)
	if _, err := fcm.AddSynapse(synapseSpec{source: 0, target: 1, delay: 1, weight: weight, plastic: true}); err != nil {
		t.Fatalf("AddSynapse failed: %v", err)
	}
	if err := fcm.Finalize(fbits); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	rcm := NewReverseConnectivityMatrix(2, 1)
	if err := rcm.Add(1, 0, 1, 0, true); err != nil {
		t.Fatalf("rcm.Add failed: %v", err)
	}

	var eng STDPEngine
	if err := eng.Enable([]float32{-1, -2, -3}, []float32{5, 4, 3}, 0, 100, fbits); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	// source fired 4 cycles before the accumulation point: bit 4 set.
	ring := NewRecentFiringRing(2)
	ring.write[0] = 1 << 4

	eng.AccumulateTarget(rcm, 1, ring)

	entries := rcm.Incoming(1)
	if len(entries) != 1 {
		t.Fatalf("Incoming(1) has %d entries, want 1", len(entries))
	}
	wantDelta := ToFix(5, fbits)
	if entries[0].Delta != wantDelta {
		t.Errorf("accumulated delta = %v, want %v (postfire[0])", entries[0].Delta, wantDelta)
	}

	if err := eng.ApplyStdp(rcm, fcm, 1.0); err != nil {
		t.Fatalf("ApplyStdp failed: %v", err)
	}
	got := ToFloat(fcm.GetRow(0, 1)[0].Weight, fbits)
	want := weight + 5
	if diff := got - want; diff > 0.5 || diff < -0.5 {
		t.Errorf("weight after ApplyStdp(1.0) = %v, want ~%v", got, want)
	}
	if entries := rcm.Incoming(1); entries[0].Delta != 0 {
		t.Errorf("delta after ApplyStdp = %v, want 0", entries[0].Delta)
	}
}

// TestSTDPPreFireCausalPairing checks the classic pre-before-post pairing:
// source s fires at cycle 9, synapse delay 1 so the spike arrives at
// cycle 10, target t fires at cycle 11 -- the arrival precedes t's firing
// by one cycle (dt = -1 relative to the fire cycle), which must select
// prefireAt(1) = fn[0] = prefire[0], not the postfire table.
func TestSTDPPreFireCausalPairing(t *testing.T) {
	const weight = float32(10)
	fbits := ChooseFractionalBits(weight)

	fcm := NewForwardConnectivityMatrix(2)
	if _, err := fcm.AddSynapse(synapseSpec{source: 0, target: 1, delay: 1, weight: weight, plastic: true}); err != nil {
		t.Fatalf("AddSynapse failed: %v", err)
	}
	if err := fcm.Finalize(fbits); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	rcm := NewReverseConnectivityMatrix(2, 1)
	if err := rcm.Add(1, 0, 1, 0, true); err != nil {
		t.Fatalf("rcm.Add failed: %v", err)
	}

	var eng STDPEngine
	if err := eng.Enable([]float32{-1, -2, -3}, []float32{5, 4, 3}, -100, 100, fbits); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	// t fires at cycle 11, postFireWindow=3, so accumulation runs at
	// cycle 14. s fired at cycle 9, i.e. 14-9=5 cycles before "now".
	ring := NewRecentFiringRing(2)
	ring.write[0] = 1 << 5

	eng.AccumulateTarget(rcm, 1, ring)

	entries := rcm.Incoming(1)
	wantDelta := ToFix(-1, fbits) // prefire[0]
	if entries[0].Delta != wantDelta {
		t.Errorf("accumulated delta = %v, want %v (prefire[0], the causal pre-before-post pairing)",
			entries[0].Delta, wantDelta)
	}
}

// TestSTDPApplyZeroOnlyClearsAccumulator checks spec.md §8's invariant
// that applyStdp(0) clears the pending delta without moving the weight.
func TestSTDPApplyZeroOnlyClearsAccumulator(t *testing.T) {
	const weight = float32(10)
	fbits := ChooseFractionalBits(weight)

	fcm := NewForwardConnectivityMatrix(1)
	if _, err := fcm.AddSynapse(synapseSpec{source: 0, target: 0, delay: 1, weight: weight, plastic: true}); err != nil {
		t.Fatalf("AddSynapse failed: %v", err)
	}
	if err := fcm.Finalize(fbits); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	rcm := NewReverseConnectivityMatrix(1, 1)
	if err := rcm.Add(0, 0, 1, 0, true); err != nil {
		t.Fatalf("rcm.Add failed: %v", err)
	}
	rcm.AccumulateDelta(0, 0, ToFix(7, fbits))

	var eng STDPEngine
	if err := eng.Enable([]float32{-1}, []float32{1}, 0, 100, fbits); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if err := eng.ApplyStdp(rcm, fcm, 0); err != nil {
		t.Fatalf("ApplyStdp(0) failed: %v", err)
	}
	if got := ToFloat(fcm.GetRow(0, 1)[0].Weight, fbits); got != weight {
		t.Errorf("weight after ApplyStdp(0) = %v, want unchanged %v", got, weight)
	}
	if entries := rcm.Incoming(0); entries[0].Delta != 0 {
		t.Errorf("delta after ApplyStdp(0) = %v, want 0", entries[0].Delta)
	}
}

// TestSTDPUnsupportedWhenNotEnabled checks the Unsupported error path
// required by spec.md §8's "STDP on an unsupported path" case.
func TestSTDPUnsupportedWhenNotEnabled(t *testing.T) {
	var eng STDPEngine
	fcm := NewForwardConnectivityMatrix(1)
	if err := fcm.Finalize(-1); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	rcm := NewReverseConnectivityMatrix(1, 1)
	if err := eng.ApplyStdp(rcm, fcm, 1.0); KindOf(err) != Unsupported {
		t.Errorf("ApplyStdp on disabled engine kind = %v, want Unsupported", KindOf(err))
	}
}
