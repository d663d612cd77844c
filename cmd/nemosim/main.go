// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command nemosim builds a ring or small-world network and drives it for
// a configurable number of cycles, printing the firing trace. It exists
// to exercise the nemo simulation core from the command line, in the
// style of leabra/examples/ra25's flag-driven main() (SPEC_FULL §6).
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/nico202/nemosim"
)

func main() {
	neurons := flag.Int("neurons", 1000, "number of neurons in the network")
	delay := flag.Int("delay", 1, "synaptic delay in cycles")
	topology := flag.String("topology", "ring", "network topology: ring or smallworld")
	cycles := flag.Int("cycles", 2000, "number of cycles to run")
	seed := flag.Uint64("seed", 1, "RNG seed")
	weight := flag.Float64("weight", 40, "excitatory synapse weight (mV)")
	impulse := flag.Int("impulse", 0, "global index of the neuron forced to fire at cycle 0")
	threads := flag.Int("threads", 1, "worker pool size")
	quiet := flag.Bool("quiet", false, "suppress per-cycle firing trace")
	flag.Parse()

	if err := run(*neurons, *delay, *topology, *cycles, *seed, float32(*weight), *impulse, *threads, *quiet); err != nil {
		kind := nemo.KindOf(err)
		log.Printf("nemosim: %v", err)
		os.Exit(exitCode(kind))
	}
}

// exitCode maps the spec.md §6 error taxonomy to a process exit status:
// OK -> 0, every other kind -> a distinct non-zero code for scripting.
func exitCode(kind nemo.ErrorKind) int {
	switch kind {
	case nemo.OK:
		return 0
	case nemo.InvalidInput:
		return 1
	case nemo.BufferOverflow:
		return 2
	case nemo.BufferUnderflow:
		return 3
	case nemo.Logic:
		return 4
	case nemo.AllocationError:
		return 5
	case nemo.Unsupported:
		return 6
	default:
		return 7
	}
}

func run(neurons, delay int, topology string, cycles int, seed uint64, weight float32, impulse, threads int, quiet bool) error {
	net := nemo.NewNetwork()
	net.Seed = seed
	net.NThreads = threads

	for i := 0; i < neurons; i++ {
		if err := net.AddNeuron(i, 0.02, 0.2, -65, 8, -13, -65, 0); err != nil {
			return err
		}
	}

	switch topology {
	case "ring":
		if err := wireRing(net, neurons, delay, weight); err != nil {
			return err
		}
	case "smallworld":
		if err := wireSmallWorld(net, neurons, delay, weight, seed); err != nil {
			return err
		}
	default:
		return &nemo.Error{Kind: nemo.InvalidInput, Msg: fmt.Sprintf("unknown topology %q", topology)}
	}

	sim, err := net.Finalize()
	if err != nil {
		return err
	}
	defer sim.Close()

	if _, err := sim.Step([]int{impulse}); err != nil {
		return err
	}
	if !quiet {
		printFiring(sim.ReadFiring())
	}

	for c := 1; c < cycles; c++ {
		if _, err := sim.Step(nil); err != nil {
			return err
		}
		if !quiet {
			printFiring(sim.ReadFiring())
		}
	}

	fmt.Println(sim.SizeReport())
	fmt.Printf("elapsed: %d cycles, %.3fs wallclock, %d overflow events\n",
		sim.ElapsedSimulation(), sim.ElapsedWallclock(), sim.OverflowCount())
	return nil
}

func printFiring(entries []nemo.FiringEntry) {
	for _, e := range entries {
		fmt.Printf("c%d: n%d fired\n", e.Cycle, e.Local)
	}
}

// wireRing connects neuron i to neuron (i+1 mod neurons) with the given
// delay and weight, the wiring of the end-to-end ring scenario of
// spec.md §8. It does not check that weight makes a target fire in the
// cycle its spike is delivered: with the neuron parameters used by run,
// the -weight default of 40 makes a resting target fire one cycle after
// delivery.
func wireRing(net *nemo.Network, neurons, delay int, weight float32) error {
	for i := 0; i < neurons; i++ {
		target := (i + 1) % neurons
		if _, err := net.AddSynapse(i, target, delay, weight, false); err != nil {
			return err
		}
	}
	return nil
}

// wireSmallWorld builds a Watts-Strogatz-style ring lattice with a small
// fraction of long-range rewires, giving the CLI a second topology to
// exercise beyond the pure ring (SPEC_FULL §6).
func wireSmallWorld(net *nemo.Network, neurons, delay int, weight float32, seed uint64) error {
	const k = 4 // neighbors per side in the base ring lattice
	const rewireProb = 0.1
	r := rand.New(rand.NewSource(int64(seed)))
	for i := 0; i < neurons; i++ {
		seen := make(map[int]bool, k)
		for j := 1; j <= k; j++ {
			target := (i + j) % neurons
			if r.Float64() < rewireProb {
				target = r.Intn(neurons)
			}
			if target == i || seen[target] {
				continue
			}
			seen[target] = true
			if _, err := net.AddSynapse(i, target, delay, weight, false); err != nil {
				return err
			}
		}
	}
	return nil
}
