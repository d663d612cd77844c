// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// noApplication marks "no table entry applies" for a pre-fire or
// post-fire distance computation, mirroring original_source's
// STDP_NO_APPLICATION sentinel.
const noApplication = -1

// STDPFunction is the fixed-length table of signed weight deltas sampled
// around a postsynaptic firing (spec.md §3). fn[0:preFireWindow] covers
// pre-fire arrivals (dt = 1..preFireWindow cycles before the post fired);
// fn[preFireWindow:preFireWindow+postFireWindow] covers post-fire
// arrivals (dt = 0..postFireWindow-1 cycles at-or-after the post fired).
type STDPFunction struct {
	preFireWindow  int
	postFireWindow int
	fn             []Fix // length preFireWindow+postFireWindow

	// potentiationMask/depressionMask select, by table position, which
	// entries are potentiating (positive) or depressing (negative),
	// derived from the sign of each configured value (spec.md §4.6).
	// Retained for diagnostics (PotentiationMask/DepressionMask);
	// findClosest below resolves windows via direct cycle arithmetic and
	// does not consult them.
	potentiationMask uint64
	depressionMask   uint64
}

// PreFireWindow returns the number of pre-fire table entries.
func (f *STDPFunction) PreFireWindow() int { return f.preFireWindow }

// PostFireWindow returns the number of post-fire table entries.
func (f *STDPFunction) PostFireWindow() int { return f.postFireWindow }

// PotentiationMask returns the derived potentiation bitmask.
func (f *STDPFunction) PotentiationMask() uint64 { return f.potentiationMask }

// DepressionMask returns the derived depression bitmask.
func (f *STDPFunction) DepressionMask() uint64 { return f.depressionMask }

// prefireAt returns the table value for a pre-fire distance dt in
// [1, preFireWindow].
func (f *STDPFunction) prefireAt(dt int) Fix {
	return f.fn[dt-1]
}

// postfireAt returns the table value for a post-fire distance dt in
// [0, postFireWindow-1].
func (f *STDPFunction) postfireAt(dt int) Fix {
	return f.fn[f.preFireWindow+dt]
}

// STDPEngine configures and runs the plasticity rule (spec.md §2 item 8,
// §4.6). Enable derives the potentiation/depression masks from the sign
// of each configured table entry.
type STDPEngine struct {
	fn               STDPFunction
	minWeight        float32
	maxWeight        float32
	enabled          bool
	cyclesSinceApply uint64
}

// Enable configures the STDP rule with the given pre-fire and post-fire
// tables and weight clamp bounds. prefire.length+postfire.length must be
// <= MaxDelay (spec.md §6).
func (e *STDPEngine) Enable(prefire, postfire []float32, minWeight, maxWeight float32, fbits int) error {
	if len(prefire)+len(postfire) > MaxDelay {
		return newErr(InvalidInput, "prefire+postfire window %d exceeds MaxDelay %d",
			len(prefire)+len(postfire), MaxDelay)
	}
	f := STDPFunction{
		preFireWindow:  len(prefire),
		postFireWindow: len(postfire),
		fn:             make([]Fix, len(prefire)+len(postfire)),
	}
	for i, v := range prefire {
		f.fn[i] = ToFix(v, fbits)
		setSignMask(&f.potentiationMask, &f.depressionMask, i, v)
	}
	for i, v := range postfire {
		idx := len(prefire) + i
		f.fn[idx] = ToFix(v, fbits)
		setSignMask(&f.potentiationMask, &f.depressionMask, idx, v)
	}
	e.fn = f
	e.minWeight = minWeight
	e.maxWeight = maxWeight
	e.enabled = true
	return nil
}

func setSignMask(pot, dep *uint64, pos int, v float32) {
	if v > 0 {
		*pot |= 1 << uint(pos)
	} else if v < 0 {
		*dep |= 1 << uint(pos)
	}
}

// Enabled reports whether Enable has been called.
func (e *STDPEngine) Enabled() bool { return e.enabled }

// Function returns the configured STDP table.
func (e *STDPEngine) Function() *STDPFunction { return &e.fn }

// MinWeight and MaxWeight return the clamp bounds passed to Enable.
func (e *STDPEngine) MinWeight() float32 { return e.minWeight }
func (e *STDPEngine) MaxWeight() float32 { return e.maxWeight }

// CyclesSinceApply returns the number of accumulate passes run since the
// last ApplyStdp, a diagnostic supplementing the construction interface
// (SPEC_FULL §3, grounded on original_source's ConnectivityMatrix epoch
// tracking). It never affects correctness.
func (e *STDPEngine) CyclesSinceApply() uint64 { return e.cyclesSinceApply }

// findClosest scans sourceRecent (the source's write-buffer recent-firing
// word, bit k meaning "fired k cycles before the cycle this word was
// captured at") for the arrival closest to the postsynaptic fire cycle,
// given synaptic delay and the configured window. postFireWindow is the
// pivot distance (in cycles) between "now" and the postsynaptic fire
// cycle (spec.md §4.1 step 7, §4.6). dt is the arrival cycle relative to
// the postsynaptic fire cycle: dt < 0 means the spike arrived before the
// post fired (the causal pre-before-post pairing, scored against the
// prefire table with distance -dt); dt >= 0 means it arrived at or after
// the post fired (scored against the postfire table with distance dt).
// Returns the table value to accumulate, or 0 if no window entry applies
// or the two candidates are equidistant.
func (e *STDPEngine) findClosest(sourceRecent uint64, delay int) Fix {
	pre, post := e.fn.preFireWindow, e.fn.postFireWindow
	bestPreDt := noApplication
	bestPostDt := noApplication
	for k := 0; k < 64; k++ {
		if sourceRecent&(uint64(1)<<uint(k)) == 0 {
			continue
		}
		dt := post - k + delay
		switch {
		case dt < 0 && -dt <= pre:
			d := -dt
			if bestPreDt == noApplication || d < bestPreDt {
				bestPreDt = d
			}
		case dt >= 0 && dt < post:
			if bestPostDt == noApplication || dt < bestPostDt {
				bestPostDt = dt
			}
		}
	}
	switch {
	case bestPreDt == noApplication && bestPostDt == noApplication:
		return 0
	case bestPreDt == noApplication:
		return e.fn.postfireAt(bestPostDt)
	case bestPostDt == noApplication:
		return e.fn.prefireAt(bestPreDt)
	case bestPreDt == bestPostDt:
		return 0 // equidistant: no update (spec.md §4.1 step 7)
	case bestPreDt < bestPostDt:
		return e.fn.prefireAt(bestPreDt)
	default:
		return e.fn.postfireAt(bestPostDt)
	}
}

// AccumulateTarget runs the STDP accumulation for one target neuron whose
// write-buffer recent-firing bit at position postFireWindow is set
// (spec.md §4.1 step 7). For every plastic incoming synapse it computes
// the closest pre/post-fire arrival and adds the resulting table value
// into that synapse's pending delta.
func (e *STDPEngine) AccumulateTarget(rcm *ReverseConnectivityMatrix, target int, recent *RecentFiringRing) {
	incoming := rcm.Incoming(target)
	for i, entry := range incoming {
		sourceRecent := recent.Write(entry.Source)
		delta := e.findClosest(sourceRecent, entry.Delay)
		if delta != 0 {
			rcm.AccumulateDelta(target, i, delta)
		}
	}
	e.cyclesSinceApply++
}

// ApplyStdp flushes every plastic synapse's pending delta into its live
// weight, scaled by reward, and resets the epoch counter (spec.md §4.3,
// §6). Calling with reward 0 clears every accumulator without changing
// any weight, satisfying the "applyStdp(0) leaves pending delta at 0"
// invariant (spec.md §8).
func (e *STDPEngine) ApplyStdp(rcm *ReverseConnectivityMatrix, fcm *ForwardConnectivityMatrix, reward float32) error {
	if !e.enabled {
		return newErr(Unsupported, "STDP is not enabled on this network")
	}
	rcm.ApplyStdp(fcm, reward, e.minWeight, e.maxWeight)
	e.cyclesSinceApply = 0
	return nil
}
