// Copyright (c) 2022-2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package radiomodel

import (
	"math"

	"github.com/loramesh/meshsim/units"
)

// HeaderSizeBytes is the constant on-air size of every packet header
//.
const HeaderSizeBytes = 16

// CalculateAirtime returns the on-air duration of a transmission with the
// given payload size (bytes), spreading factor, bandwidth and coding-rate
// denominator, per the LoRa airtime formula.
func CalculateAirtime(payloadSize int, sf int, bandwidth units.Frequency, codingRate int) units.Time {
	ts := math.Pow(2, float64(sf)) / float64(bandwidth)

	l := 0.0
	if ts > 0.016 {
		l = 1
	}
	const h = 0.0 // header enabled

	preambleTime := (16 + 4.25) * ts

	numerator := math.Max(0, 8*float64(payloadSize)+16+28-4*float64(sf)-20*h)
	denom := 4 * (float64(sf) - 2*l)
	nSymbols := math.Ceil(numerator * float64(codingRate) / denom)

	payloadTime := nSymbols*ts + 8*ts

	return units.Seconds(preambleTime + payloadTime)
}
