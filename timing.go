// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "github.com/emer/emergent/v2/timer"

// Clock tracks both simulated and wall-clock elapsed time for a
// Simulation, backing elapsedSimulation()/elapsedWallclock()/resetTimer()
// (spec.md §6). Wall-clock accounting reuses timer.Time, the same type
// leabra.NetworkBase embeds per-thread and per-function
// (ThrTimes/FunTimes) to report timing breakdowns (SPEC_FULL §2 item 16).
type Clock struct {
	simCycles int64
	wall      timer.Time
	running   bool
}

// Start begins (or resumes) wall-clock accounting for the current cycle.
func (c *Clock) Start() {
	c.wall.Start()
	c.running = true
}

// Stop ends wall-clock accounting for the current cycle and advances the
// simulated-time counter by one.
func (c *Clock) Stop() {
	if c.running {
		c.wall.Stop()
		c.running = false
	}
	c.simCycles++
}

// ElapsedSimulation returns the number of cycles committed so far.
func (c *Clock) ElapsedSimulation() int64 {
	return c.simCycles
}

// ElapsedWallclock returns total wall-clock seconds spent inside Step
// calls since the last Reset.
func (c *Clock) ElapsedWallclock() float64 {
	return c.wall.TotalSecs()
}

// Reset zeroes both the simulated-cycle counter and the wall-clock
// accumulator (spec.md §6, resetTimer()).
func (c *Clock) Reset() {
	c.simCycles = 0
	c.wall.Reset()
	c.running = false
}
