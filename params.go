// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import (
	"strconv"

	"github.com/emer/emergent/v2/params"
)

// ParamSet overrides named scalar fields of the core's tunable
// components, grounded on the params.Sets/params.Params selector pattern
// used throughout leabra/examples (e.g. basic_test.go's ParamSets) to
// retune fields without touching code (SPEC_FULL §2 item 12, §4.3). The
// recognized keys are "Queue.SizeMultiplier" and "Queue.MaxOutgoingWarps"
// under the "Queue" selector and "STDP.MinWeight" and "STDP.MaxWeight"
// under the "STDP" selector; no neuron parameter can be overridden.
type ParamSet struct {
	Sets params.Sets
}

// applyFloat looks up sel.key in the named param set and, if present,
// parses it as a float32 into dst. Returns false if the key is absent so
// the caller's compiled-in default is left untouched.
func (p *ParamSet) applyFloat(setName, sel, key string, dst *float32) bool {
	val, ok := p.lookup(setName, sel, key)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return false
	}
	*dst = float32(f)
	return true
}

// applyInt is the integer analogue of applyFloat.
func (p *ParamSet) applyInt(setName, sel, key string, dst *int) bool {
	val, ok := p.lookup(setName, sel, key)
	if !ok {
		return false
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return false
	}
	*dst = i
	return true
}

func (p *ParamSet) lookup(setName, sel, key string) (string, bool) {
	set, ok := p.Sets[setName]
	if !ok {
		return "", false
	}
	for _, sh := range set {
		if sh.Sel != sel {
			continue
		}
		if v, ok := sh.Params[key]; ok {
			return v, true
		}
	}
	return "", false
}

// QueueConfig holds the IncomingQueue sizing knobs that a ParamSet may
// override via the "Queue" selector (spec.md §4.4).
type QueueConfig struct {
	MaxOutgoingWarps int
	SizeMultiplier   float64
}

// ApplyQueueParams overrides cfg's fields from the "Queue" selector of
// setName, mirroring leabra's ApplyParams-at-Defaults-time convention.
func (p *ParamSet) ApplyQueueParams(setName string, cfg *QueueConfig) {
	if p == nil {
		return
	}
	var mult float32 = float32(cfg.SizeMultiplier)
	if p.applyFloat(setName, "Queue", "Queue.SizeMultiplier", &mult) {
		cfg.SizeMultiplier = float64(mult)
	}
	p.applyInt(setName, "Queue", "Queue.MaxOutgoingWarps", &cfg.MaxOutgoingWarps)
}

// ApplySTDPParams overrides minWeight/maxWeight from the "STDP" selector
// of setName, so a caller can retune the plasticity clamp bounds the way
// leabra/examples retune Path.WtScale.Rel.
func (p *ParamSet) ApplySTDPParams(setName string, minWeight, maxWeight *float32) {
	if p == nil {
		return
	}
	p.applyFloat(setName, "STDP", "STDP.MinWeight", minWeight)
	p.applyFloat(setName, "STDP", "STDP.MaxWeight", maxWeight)
}
