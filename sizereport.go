// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
)

// SizeReport returns a human-readable memory footprint breakdown of a
// finalized Simulation's hot-path structures, grounded on
// leabra.Network.SizeReport's unsafe.Sizeof/datasize.ByteSize.HumanReadable
// pattern (SPEC_FULL §2 item 11).
func (s *Simulation) SizeReport() string {
	var b strings.Builder

	n := s.mapper.NeuronCount()
	neurMem := n * int(unsafe.Sizeof(float32(0))*3+unsafe.Sizeof(uint64(0))*2)
	fmt.Fprintf(&b, "Neurons: %d\tNeuronMem: %v\n", n, datasize.ByteSize(neurMem).HumanReadable())

	rowCount := 0
	termCount := 0
	for _, row := range s.fcm.rows {
		if len(row) > 0 {
			rowCount++
			termCount += len(row)
		}
	}
	fcmMem := termCount * int(unsafe.Sizeof(Terminal{}))
	fmt.Fprintf(&b, "ForwardRows: %d\tTerminals: %d\tFCMMem: %v\n",
		rowCount, termCount, datasize.ByteSize(fcmMem).HumanReadable())

	rcmMem := len(s.rcm.entries) * int(unsafe.Sizeof(ReverseEntry{}))
	fmt.Fprintf(&b, "ReverseEntrySlots: %d\tRCMMem: %v\n", len(s.rcm.entries), datasize.ByteSize(rcmMem).HumanReadable())

	queueMem := 0
	for _, bin := range s.incoming.bins {
		queueMem += cap(bin) * int(unsafe.Sizeof(spikeRef{}))
	}
	fmt.Fprintf(&b, "IncomingQueueMem: %v\n", datasize.ByteSize(queueMem).HumanReadable())

	return b.String()
}
