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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loramesh/meshsim/units"
)

// TestCalculateAirtimeMatchesReferenceFormula pins sf=11, bw=250 kHz,
// payload=16 B, CR=5 against the LoRa airtime formula worked by hand: 15
// payload symbols (ceil(128*5/44)) plus the fixed 8-symbol tail, atop a
// 20.25-symbol preamble, each symbol 2^11/250000 s long.
func TestCalculateAirtimeMatchesReferenceFormula(t *testing.T) {
	got := CalculateAirtime(16, 11, 250000, 5)
	assert.InDelta(t, 0.354304, float64(got), 1e-6)
}

func TestCalculateAirtimeNeverNegative(t *testing.T) {
	got := CalculateAirtime(1, 7, 500000, 4)
	assert.Greater(t, float64(got), 0.0)
}

func TestReadThresholdMatchesFormula(t *testing.T) {
	cases := map[int]float64{7: -7.5, 8: -10, 9: -12.5, 10: -15, 11: -17.5, 12: -20}
	for sf, want := range cases {
		assert.InDelta(t, want, float64(ReadThreshold(sf)), 1e-9)
	}
}

func TestDetectThresholdEqualsReadThreshold(t *testing.T) {
	for sf := 7; sf <= 12; sf++ {
		assert.Equal(t, ReadThreshold(sf), DetectThreshold(sf))
	}
}

func TestSirThresholdsBoundaryValues(t *testing.T) {
	assert.Equal(t, float64(1), SirThresholds[0][0])
	assert.Equal(t, float64(-25), SirThresholds[5][0])
}

// TestNoisePowerSpecialCaseBandwidth checks the 249-251 kHz window pins the
// bandwidth term to the hard-coded constant rather than a recomputed log.
func TestNoisePowerSpecialCaseBandwidth(t *testing.T) {
	dbNoiseEnergy := 10 * math.Log10(float64(units.Boltzmann)*290)
	want := dbNoiseEnergy + noisePinnedBandwidthDb + 30

	n := NoisePower(250000, 290)
	assert.InDelta(t, want, float64(n), 1e-6)
}

// TestNoisePowerPinnedWindowIgnoresExactBandwidth checks that any bandwidth
// in the 249-251 kHz window yields the identical noise power, since the term
// is pinned rather than recomputed from the exact value.
func TestNoisePowerPinnedWindowIgnoresExactBandwidth(t *testing.T) {
	a := NoisePower(249500, 293)
	b := NoisePower(250500, 293)
	assert.Equal(t, a, b)
}

// TestNoisePowerOutsideWindowUsesExactBandwidth checks the general branch
// recomputes 10*log10(bandwidth) rather than pinning it.
func TestNoisePowerOutsideWindowUsesExactBandwidth(t *testing.T) {
	dbNoiseEnergy := 10 * math.Log10(float64(units.Boltzmann)*293)
	want := dbNoiseEnergy + 10*math.Log10(500000.0) + 30

	n := NoisePower(500000, 293)
	assert.InDelta(t, want, float64(n), 1e-6)
}
