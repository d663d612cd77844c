// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package nemo is a cycle-driven simulator for large spiking neural networks
using the Izhikevich point-neuron model with conductance-delayed synapses
and spike-timing-dependent plasticity (STDP).

A caller builds a Network by adding neurons and synapses, optionally
configures an STDP rule, and calls Finalize to obtain a Simulation. The
Simulation advances one millisecond at a time via Step, which runs the
gather, integrate, fire, scatter and STDP-accumulate stages implemented
across the following components:

  - FixedPoint: Qm.n fixed-point conversions and saturating arithmetic used
    for deterministic current accumulation.
  - Mapper: local/global neuron index bijection and partitioning.
  - ForwardConnectivityMatrix / ReverseConnectivityMatrix: source-indexed and
    target-indexed views of the same synapse set.
  - IncomingQueue / OutgoingIndex: the delay-line of pending spikes.
  - RecentFiringRing / FiringBuffer: per-neuron firing history and the
    user-facing firing trace.
  - STDPEngine: the plasticity window and pending weight-delta accumulator.
  - NeuronState: per-neuron Izhikevich parameters, state and RNG.
  - CyclePipeline: orchestrates all of the above once per cycle.

cmd/nemosim is a small command-line front end that builds a ring or
small-world network and drives it for a configurable number of cycles.
*/
package nemo
