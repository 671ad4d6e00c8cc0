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

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loramesh/meshsim/kernel"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/nodemodel"
	"github.com/loramesh/meshsim/scenario"
)

func runAndAnalyze(t *testing.T, sc scenario.Scenario, newModel func() node.Model) Result {
	t.Helper()
	models := make([]node.Model, len(sc.Nodes))
	for i := range models {
		models[i] = newModel()
	}
	sim := kernel.New(kernel.DefaultConfig(), sc, models)
	out := sim.Run()
	res, err := Analyze(sc, out)
	require.NoError(t, err)
	return res
}

func TestSingleBroadcastIsFullyReceivedWithBoundedLatency(t *testing.T) {
	sc := scenario.SingleBroadcastNoInterference()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewNoRouting() })

	require.Len(t, res.Reception.WantedMessages[1], 1)
	assert.True(t, res.Reception.WantedMessages[1][0].Received)
	assert.Equal(t, 1.0, res.Reception.ReceptionRate[1])
	assert.Equal(t, 1.0, res.Reception.GlobalReceptionRate)
	assert.Equal(t, 1.0, res.Reception.T6000Reception)
}

func TestIsolatedScenarioScoresZeroReception(t *testing.T) {
	sc := scenario.IsolatedMessageNeverDelivered()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewNoRouting() })

	require.Len(t, res.Reception.WantedMessages[1], 1)
	assert.False(t, res.Reception.WantedMessages[1][0].Received)
	assert.Equal(t, 0.0, res.Reception.ReceptionRate[1])
	assert.Equal(t, 0.0, res.Reception.GlobalReceptionRate)
	assert.Equal(t, 0.0, res.Reception.T6000Reception)
}

func TestEmergencyScenarioReachesGatewayWithinHorizon(t *testing.T) {
	sc := scenario.EmergencyReachesGatewayWithinHorizon()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewBasicFlood() })

	require.Equal(t, EmergencyDelivered, res.Reception.Emergency.Kind)
	assert.Less(t, res.Reception.Emergency.Latency.Seconds(), 600.0)
}

func TestNonEmergencyScenarioReportsNoEmergency(t *testing.T) {
	sc := scenario.SingleBroadcastNoInterference()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewNoRouting() })

	assert.Equal(t, NoEmergency, res.Reception.Emergency.Kind)
}

func TestDirectnessAndUniquenessStayWithinUnitRange(t *testing.T) {
	sc := scenario.HighDensityProbabilisticFloodSuccess()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewProbabilisticFlood() })

	for _, v := range []float64{
		res.Reception.AllPacketUniqueness,
		res.Reception.MessagePacketUniqueness,
		res.Reception.ReceptionDirectness,
		res.Reception.TransmissionDirectness,
	} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	assert.Equal(t, res.TransmissionSentEvents, len(res.Transmissions))
}

func TestGatewaySliceRestrictsToGatewayNodes(t *testing.T) {
	sc := scenario.EmergencyReachesGatewayWithinHorizon()
	res := runAndAnalyze(t, sc, func() node.Model { return nodemodel.NewBasicFlood() })

	assert.Equal(t, 1.0, res.Reception.GatewayReception)
}
