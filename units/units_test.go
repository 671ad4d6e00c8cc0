// Copyright (c) 2020-2023, The OTNS Authors.
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

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDbFromLinearRoundTrips(t *testing.T) {
	d := FromLinear(1000) // 30 dB
	require.InDelta(t, 30.0, d.Float64(), 1e-9)
	assert.InDelta(t, 1000.0, d.Linear(), 1e-6)
}

func TestDbAddSubCorrespondToMulDiv(t *testing.T) {
	a := FromLinear(10)  // 10 dB
	b := FromLinear(100) // 20 dB
	sum := a.Add(b)
	assert.InDelta(t, 30.0, sum.Float64(), 1e-9)
	assert.InDelta(t, 1000.0, sum.Linear(), 1e-6)

	diff := b.Sub(a)
	assert.InDelta(t, 10.0, diff.Float64(), 1e-9)
}

func TestDbClamp(t *testing.T) {
	d := Db[float64](25)
	assert.Equal(t, Db[float64](20), d.Clamp(-15, 20))
	d = Db[float64](-30)
	assert.Equal(t, Db[float64](-15), d.Clamp(-15, 20))
}

func TestFrequencyWavelength(t *testing.T) {
	wl := LightspeedAir.WavelengthAt(868e6)
	// 868 MHz carrier wavelength is roughly 34.5 cm.
	assert.InDelta(t, 0.3453, float64(wl), 0.001)
}

func TestWattsToDbm(t *testing.T) {
	// 1 W = 0 dBW = +30 dBm.
	assert.InDelta(t, 30.0, WattsToDbm(1).Float64(), 1e-6)
}
