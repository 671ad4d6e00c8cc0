// Copyright (c) 2020-2024, The OTNS Authors.
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

package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampedSizeEnforcesLoraEnvelope(t *testing.T) {
	assert.Equal(t, minPayloadSize, UserMessage{Size: 0}.ClampedSize())
	assert.Equal(t, maxPayloadSize, UserMessage{Size: 9000}.ClampedSize())
	assert.Equal(t, 50, UserMessage{Size: 50}.ClampedSize())
}

func TestUniformNodesReplicatesSetup(t *testing.T) {
	setup := DefaultNodeSetup()
	setup.Sf = 9
	nodes := UniformNodes(4, setup)
	require.Len(t, nodes, 4)
	for _, n := range nodes {
		assert.Equal(t, 9, n.Sf)
	}
}

func TestNodeSetupSettingsCarriesCarrierFrequency(t *testing.T) {
	setup := DefaultNodeSetup()
	setup.CarrierBand = Band433
	s := setup.Settings()
	assert.Equal(t, Band433.CarrierFreq(), s.CarrierFreq)
}

func TestFixturesBuildWithoutPanicking(t *testing.T) {
	fixtures := []func() Scenario{
		SingleBroadcastNoInterference,
		TwoOverlappingCapturePicksStronger,
		EmergencyReachesGatewayWithinHorizon,
		IsolatedMessageNeverDelivered,
		RetransmitFloodCancellation,
		HighDensityProbabilisticFloodSuccess,
	}
	for _, f := range fixtures {
		sc := f()
		assert.NotZero(t, len(sc.Nodes))
		assert.NotEmpty(t, sc.Messages)
		assert.Equal(t, len(sc.Nodes), sc.Topology.Len())
	}
}

func TestIsolatedMessageFixtureHasNoConnectivity(t *testing.T) {
	sc := IsolatedMessageNeverDelivered()
	_, ok := sc.Topology.DistanceTo(0, 0, 1)
	assert.False(t, ok, "the isolated fixture must have no path between its two nodes")
}
