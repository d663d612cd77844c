// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "github.com/chewxy/math32"

// fixMax is the largest representable magnitude of a Fix value, one below
// the int32 range's true extreme so that saturation is symmetric for both
// excitatory and inhibitory accumulators.
const fixMax = int32(1<<31 - 1)

// Fix is a signed Qm.n fixed-point value packed into an int32. The number
// of fractional bits is fixed for the lifetime of a Simulation, chosen at
// Network.Finalize from the largest absolute synapse weight so that
// current accumulation saturates only under gross overload (spec.md §4.2).
type Fix int32

// fixedBitWidth is the total width of the accumulator, matching the
// int32-backed fix_t of the reference implementation.
const fixedBitWidth = 32

// reservedOverloadBits reserves headroom for roughly 2^5 = 32 simultaneous
// maximum-weight incoming spikes landing on a single neuron in one cycle,
// per spec.md §4.2's fractional-bit selection rule.
const reservedOverloadBits = 5

// ChooseFractionalBits implements the rule fixed in spec.md §9:
// fbits = 31 - ceil(log2(maxAbsWeight)) - reservedOverloadBits,
// with ceil(log2) taken as 0 for weights up to 1, which guarantees
// 2^(31-fbits) >= 2^reservedOverloadBits * maxAbsWeight (equality when
// maxAbsWeight is a power of two of at least 1).
// maxAbsWeight <= 0 yields the maximum usable precision.
func ChooseFractionalBits(maxAbsWeight float32) int {
	if maxAbsWeight <= 0 {
		return fixedBitWidth - 1 - reservedOverloadBits
	}
	intBits := 0
	for w := math32.Ceil(maxAbsWeight); w > 1; w /= 2 {
		intBits++
	}
	fbits := fixedBitWidth - 1 - reservedOverloadBits - intBits
	if fbits < 0 {
		fbits = 0
	}
	if fbits > fixedBitWidth-1 {
		fbits = fixedBitWidth - 1
	}
	return fbits
}

// ToFix converts a float32 to Fix using fbits fractional bits, rounding to
// nearest and saturating to the representable range rather than wrapping.
func ToFix(f float32, fbits int) Fix {
	scaled := f * float32(int64(1)<<uint(fbits))
	if scaled >= float32(fixMax) {
		return Fix(fixMax)
	}
	if scaled <= -float32(fixMax) {
		return Fix(-fixMax)
	}
	if scaled >= 0 {
		return Fix(scaled + 0.5)
	}
	return Fix(scaled - 0.5)
}

// ToFloat converts a Fix back to float32 using fbits fractional bits.
func ToFloat(x Fix, fbits int) float32 {
	return float32(x) / float32(int64(1)<<uint(fbits))
}

// SaturatingAdd adds b into a, clamping to the int32 range instead of
// wrapping on overflow. The second return value reports whether saturation
// occurred, used by the gather stage to set a per-target overflow bit
// (spec.md §4.1 step 1, §7) without making overflow fatal.
func SaturatingAdd(a, b Fix) (Fix, bool) {
	sum := int64(a) + int64(b)
	if sum > int64(fixMax) {
		return Fix(fixMax), true
	}
	if sum < -int64(fixMax) {
		return Fix(-fixMax), true
	}
	return Fix(sum), false
}
