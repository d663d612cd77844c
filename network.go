// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

// Following original_source's nemo::Simulation boundary (libnemo's
// nemo_c.cpp / Simulation.cpp, where every public call takes or returns
// the network's user-assigned global neuron indices and Mapper performs
// the translation to the dense local indices the hot path uses
// internally), Network and Simulation's public methods below operate on
// global indices; CyclePipeline operates purely on local indices. This
// resolves spec.md §4.1/§6's "local indices" wording in favor of the
// grounding source -- see DESIGN.md.

type neuronSpec struct {
	a, b, c, d, u, v, sigma float32
}

type pendingSTDP struct {
	prefire, postfire    []float32
	minWeight, maxWeight float32
}

// Network is the construction-time builder: addNeuron/addSynapse/
// setStdpFunction accumulate a description that Finalize locks into an
// immutable, cache-friendly Simulation (spec.md §6, §9's "explicit
// finalize() transition" design note).
type Network struct {
	mapper        *Mapper
	neurons       map[int]neuronSpec // keyed by local index
	fcmBuilder    *ForwardConnectivityMatrix
	synapses      []synapseSpec // insertion order, local indices
	slots         []int         // forward-row slot assigned to synapses[i] at insertion
	nextSynapseID SynapseID
	stdpPending   *pendingSTDP
	finalized     bool

	// Seed is the simulation-wide RNG seed each neuron's stream is
	// derived from (spec.md §9 "RNG state per neuron").
	Seed uint64
	// NThreads selects the worker pool size used by Finalize; 0 or 1
	// runs single-threaded.
	NThreads int
	// FractionalBitsOverride, if >= 0, bypasses the automatic
	// fixed-point format selection rule of spec.md §9.
	FractionalBitsOverride int
	// SizeMultiplier overrides the IncomingQueue sizing fraction of
	// spec.md §4.4; <= 0 selects DefaultSizeMultiplier.
	SizeMultiplier float64
	// Params, if non-nil, overrides tunable fields at Finalize time via
	// the "Queue"/"STDP" selectors (SPEC_FULL §2 item 12).
	Params    *ParamSet
	ParamsSet string
}

// NewNetwork creates an empty builder with default partition size.
func NewNetwork() *Network {
	return &Network{
		mapper:                 NewMapper(DefaultPartitionSize),
		neurons:                make(map[int]neuronSpec),
		fcmBuilder:             nil,
		FractionalBitsOverride: -1,
	}
}

// AddNeuron installs a neuron's Izhikevich parameters and initial state
// under global index, assigning it the next dense local index
// (spec.md §6). sigma must be >= 0; a duplicate global index fails with
// InvalidInput.
func (net *Network) AddNeuron(global int, a, b, c, d, u, v, sigma float32) error {
	if net.finalized {
		return newErr(InvalidInput, "cannot add neurons after finalize")
	}
	if sigma < 0 {
		return newErr(InvalidInput, "neuron %d: sigma must be >= 0, got %v", global, sigma)
	}
	local, err := net.mapper.Add(global)
	if err != nil {
		return err
	}
	net.neurons[local] = neuronSpec{a: a, b: b, c: c, d: d, u: u, v: v, sigma: sigma}
	return nil
}

// AddSynapse inserts a synapse from sourceGlobal to targetGlobal with the
// given delay (in [1, MaxDelay]) and fixed-point weight, returning a
// SynapseID stable for the lifetime of the Simulation (spec.md §6).
// Unknown global indices, or a duplicate (source, target, delay) tuple,
// fail with InvalidInput.
func (net *Network) AddSynapse(sourceGlobal, targetGlobal, delay int, weight float32, plastic bool) (SynapseID, error) {
	if net.finalized {
		return 0, newErr(InvalidInput, "cannot add synapses after finalize")
	}
	source, err := net.mapper.LocalIdx(sourceGlobal)
	if err != nil {
		return 0, err
	}
	target, err := net.mapper.LocalIdx(targetGlobal)
	if err != nil {
		return 0, err
	}
	if net.fcmBuilder == nil {
		net.fcmBuilder = NewForwardConnectivityMatrix(net.mapper.NeuronCount())
	}
	id := net.nextSynapseID
	spec := synapseSpec{id: id, source: source, target: target, delay: delay, weight: weight, plastic: plastic}
	slot, err := net.fcmBuilder.AddSynapse(spec)
	if err != nil {
		return 0, err
	}
	net.synapses = append(net.synapses, spec)
	net.slots = append(net.slots, slot)
	net.nextSynapseID++
	return id, nil
}

// SetStdpFunction enables STDP with the given pre-fire/post-fire tables
// and weight clamp bounds (spec.md §6). prefire.length+postfire.length
// must be <= MaxDelay.
func (net *Network) SetStdpFunction(prefire, postfire []float32, minWeight, maxWeight float32) error {
	if net.finalized {
		return newErr(InvalidInput, "cannot configure STDP after finalize")
	}
	if len(prefire)+len(postfire) > MaxDelay {
		return newErr(InvalidInput, "prefire+postfire window %d exceeds MaxDelay %d",
			len(prefire)+len(postfire), MaxDelay)
	}
	net.stdpPending = &pendingSTDP{
		prefire: append([]float32(nil), prefire...), postfire: append([]float32(nil), postfire...),
		minWeight: minWeight, maxWeight: maxWeight,
	}
	return nil
}

// forwardAddr identifies a synapse's slot in the finalized forward
// matrix, used to answer SynapseWeight by id (SPEC_FULL §3 supplement).
type forwardAddr struct {
	source, delay, slot int
}

// Finalize locks the network and returns the Simulation that runs it.
// Subsequent Add*/SetStdpFunction calls on net fail. Finalize computes
// the fixed-point format (spec.md §4.2), builds the reverse matrix and
// outgoing index, sizes the incoming queue, and starts the worker pool.
func (net *Network) Finalize() (*Simulation, error) {
	if net.finalized {
		return nil, newErr(Logic, "network already finalized")
	}
	net.finalized = true
	n := net.mapper.NeuronCount()

	if net.fcmBuilder == nil {
		net.fcmBuilder = NewForwardConnectivityMatrix(n)
	}
	if err := net.fcmBuilder.Finalize(net.FractionalBitsOverride); err != nil {
		return nil, err
	}
	fbits := net.fcmBuilder.FractionalBits()

	neurons := NewNeuronState(n)
	for local, spec := range net.neurons {
		if err := neurons.Set(local, spec.a, spec.b, spec.c, spec.d, spec.u, spec.v, spec.sigma, net.Seed); err != nil {
			return nil, err
		}
	}

	outgoing := BuildOutgoingIndex(net.fcmBuilder)

	maxIncoming := make([]int, n)
	addrByID := make(map[SynapseID]forwardAddr, len(net.synapses))
	for i, s := range net.synapses {
		addrByID[s.id] = forwardAddr{source: s.source, delay: s.delay, slot: net.slots[i]}
		if s.plastic {
			maxIncoming[s.target]++
		}
	}
	maxPlastic := 1
	for _, c := range maxIncoming {
		if c > maxPlastic {
			maxPlastic = c
		}
	}

	rcm := NewReverseConnectivityMatrix(n, maxPlastic)
	for _, s := range net.synapses {
		if !s.plastic {
			continue
		}
		addr := addrByID[s.id]
		if err := rcm.Add(s.target, s.source, s.delay, addr.slot, s.weight >= 0); err != nil {
			return nil, err
		}
	}

	maxOutgoingWarps := 0
	for src := 0; src < n; src++ {
		maxOutgoingWarps += len(outgoing.bySource[src])
	}
	queueCfg := QueueConfig{MaxOutgoingWarps: maxOutgoingWarps, SizeMultiplier: net.SizeMultiplier}
	if net.Params != nil {
		net.Params.ApplyQueueParams(net.ParamsSet, &queueCfg)
	}
	incoming := NewIncomingQueue(queueCfg.MaxOutgoingWarps, queueCfg.SizeMultiplier)

	stdp := &STDPEngine{}
	if net.stdpPending != nil {
		minW, maxW := net.stdpPending.minWeight, net.stdpPending.maxWeight
		if net.Params != nil {
			net.Params.ApplySTDPParams(net.ParamsSet, &minW, &maxW)
		}
		if err := stdp.Enable(net.stdpPending.prefire, net.stdpPending.postfire, minW, maxW, fbits); err != nil {
			return nil, err
		}
	}

	nThreads := net.NThreads
	if nThreads < 1 {
		nThreads = 1
	}
	pool := NewThreadPool(nThreads, net.mapper)
	pipeline := NewCyclePipeline(net.mapper, net.fcmBuilder, rcm, outgoing, incoming, neurons, stdp, pool)

	return &Simulation{
		mapper:      net.mapper,
		fcm:         net.fcmBuilder,
		rcm:         rcm,
		incoming:    incoming,
		neurons:     neurons,
		stdp:        stdp,
		pipeline:    pipeline,
		pool:        pool,
		synapseAddr: addrByID,
	}, nil
}

// Simulation is the finalized, immutable-topology core returned by
// Network.Finalize (spec.md §6 simulation interface). All methods are
// single-producer single-consumer: concurrent calls on the same
// Simulation are not supported (spec.md §5).
type Simulation struct {
	mapper      *Mapper
	fcm         *ForwardConnectivityMatrix
	rcm         *ReverseConnectivityMatrix
	incoming    *IncomingQueue
	neurons     *NeuronState
	stdp        *STDPEngine
	pipeline    *CyclePipeline
	pool        *ThreadPool
	clock       Clock
	synapseAddr map[SynapseID]forwardAddr
}

// Step advances the simulation by one millisecond, forcing every neuron
// named in externalFirings (global indices) to fire regardless of
// natural integration, and returns every neuron that fired this cycle
// (global indices, in ascending local-index order, i.e. the order the
// neurons were added) -- the union of forced and natural firings
// (spec.md §4.1, §9 Open Question resolution).
func (s *Simulation) Step(externalFirings []int) ([]int, error) {
	local := make([]int, 0, len(externalFirings))
	seen := make(map[int]bool, len(externalFirings))
	for _, g := range externalFirings {
		l, err := s.mapper.LocalIdx(g)
		if err != nil {
			return nil, err
		}
		if !seen[l] {
			seen[l] = true
			local = append(local, l)
		}
	}
	s.clock.Start()
	firedLocal, err := s.pipeline.Step(local)
	s.clock.Stop()
	if err != nil {
		return nil, err
	}
	fired := make([]int, len(firedLocal))
	for i, l := range firedLocal {
		fired[i] = s.mapper.GlobalIdx(l)
	}
	return fired, nil
}

// ReadFiring returns every firing event recorded since the last call, as
// (cycle, globalIndex) pairs ordered by cycle then by local index, i.e.
// the order the neurons were added (spec.md §4.7).
func (s *Simulation) ReadFiring() []FiringEntry {
	entries := s.pipeline.ReadFiring()
	out := make([]FiringEntry, len(entries))
	for i, e := range entries {
		out[i] = FiringEntry{Cycle: e.Cycle, Local: s.mapper.GlobalIdx(e.Local)}
	}
	return out
}

// ApplyStdp flushes every plastic synapse's pending weight delta,
// scaled by reward, into its live weight (spec.md §6). Fails with
// Unsupported if STDP was never configured.
func (s *Simulation) ApplyStdp(reward float32) error {
	return s.stdp.ApplyStdp(s.rcm, s.fcm, reward)
}

// GetSynapsesFrom returns parallel arrays (targets, delays, weights,
// plastic) for every synapse from sourceGlobal, targets translated back
// to global indices (spec.md §6).
func (s *Simulation) GetSynapsesFrom(sourceGlobal int) (targets, delays []int, weights []float32, plastic []bool, err error) {
	source, err := s.mapper.LocalIdx(sourceGlobal)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	locals, delays, weights, _ := s.fcm.GetSynapses(source)
	targets = make([]int, len(locals))
	for i, l := range locals {
		targets[i] = s.mapper.GlobalIdx(l)
	}
	plastic = s.plasticFlags(source, locals, delays)
	return targets, delays, weights, plastic, nil
}

// plasticFlags resolves, for each (local target, delay) pair returned by
// GetSynapses in row order, whether that synapse is plastic, by checking
// whether its forward slot appears in the reverse matrix for that
// target.
func (s *Simulation) plasticFlags(source int, locals, delays []int) []bool {
	out := make([]bool, len(locals))
	slotByDelay := make(map[int]int)
	for i, target := range locals {
		slot := slotByDelay[delays[i]]
		slotByDelay[delays[i]] = slot + 1
		for _, e := range s.rcm.Incoming(target) {
			if e.Source == source && e.Delay == delays[i] && e.Slot == slot {
				out[i] = true
				break
			}
		}
	}
	return out
}

// SynapseWeight returns the current weight of the synapse identified by
// id, supplementing GetSynapsesFrom with a direct by-id lookup
// (SPEC_FULL §3, grounded on original_source's nemo_c.cpp per-id query).
func (s *Simulation) SynapseWeight(id SynapseID) (float32, error) {
	addr, ok := s.synapseAddr[id]
	if !ok {
		return 0, newErr(InvalidInput, "unknown synapse id %d", id)
	}
	row := s.fcm.GetRow(addr.source, addr.delay)
	if addr.slot >= len(row) {
		return 0, newErr(Logic, "synapse id %d: forward address out of range", id)
	}
	return ToFloat(row[addr.slot].Weight, s.fcm.FractionalBits()), nil
}

// ElapsedSimulation returns the number of cycles committed so far.
func (s *Simulation) ElapsedSimulation() int64 {
	return s.clock.ElapsedSimulation()
}

// ElapsedWallclock returns total wall-clock seconds spent inside Step
// calls since the last ResetTimer.
func (s *Simulation) ElapsedWallclock() float64 {
	return s.clock.ElapsedWallclock()
}

// ResetTimer zeroes both the simulated-cycle counter and the wall-clock
// accumulator.
func (s *Simulation) ResetTimer() {
	s.clock.Reset()
}

// OverflowCount returns the running count of current-accumulator
// saturations observed across all cycles (spec.md §7 diagnostic).
func (s *Simulation) OverflowCount() uint64 {
	return s.pipeline.OverflowCount()
}

// NeuronStats returns the firing-count/last-fire-cycle diagnostics for
// the neuron at globalIdx (SPEC_FULL §3 supplement).
func (s *Simulation) NeuronStats(globalIdx int) (NeuronStats, error) {
	local, err := s.mapper.LocalIdx(globalIdx)
	if err != nil {
		return NeuronStats{}, err
	}
	return s.neurons.Stats(local), nil
}

// Close stops the Simulation's worker pool. A Simulation whose pool has
// more than one worker should be Closed once it is no longer needed to
// release its goroutines.
func (s *Simulation) Close() {
	s.pool.Stop()
}
