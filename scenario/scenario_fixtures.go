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
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/radiomodel"
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// The six fixtures below reproduce a fixed set of seeded end-to-end
// scenarios. Each returns a ready-to-run Scenario; the routing model is a
// caller choice, not part of the fixture, except where the scenario's name
// identifies one.

// SingleBroadcastNoInterference is two nodes 1000 m apart: node 0 broadcasts once, node 1 is the sole receiver,
// nothing else is on the channel.
func SingleBroadcastNoInterference() Scenario {
	topo := topology.NewPointSequence([]topology.Frame{{
		Time: 0,
		Positions: []topology.Point{
			{X: 0, Y: 0},
			{X: 1000, Y: 0},
		},
	}})
	setup := DefaultNodeSetup()
	setup.MaxPower = 22
	setup.UsePower = 22
	return Scenario{
		Topology: topo,
		Nodes:    UniformNodes(2, setup),
		Messages: []UserMessage{
			{Sender: 0, Targets: []node.Id{1}, GenerateTime: 0, Size: 16},
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        1,
	}
}

// TwoOverlappingCapturePicksStronger places two transmitters equidistant
// from a shared receiver but at different power levels, generating their
// messages close enough in time that the resulting transmissions overlap;
// the capture-effect test should pick the stronger (node 0's) transmission.
func TwoOverlappingCapturePicksStronger() Scenario {
	topo := topology.NewPointSequence([]topology.Frame{{
		Time: 0,
		Positions: []topology.Point{
			{X: -500, Y: 0},
			{X: 500, Y: 0},
			{X: 0, Y: 0},
		},
	}})
	strong := DefaultNodeSetup()
	strong.MaxPower = 22
	strong.UsePower = 22
	weak := DefaultNodeSetup()
	weak.UsePower = 14
	receiver := DefaultNodeSetup()
	return Scenario{
		Topology: topo,
		Nodes:    []NodeSetup{strong, weak, receiver},
		Messages: []UserMessage{
			{Sender: 0, Targets: []node.Id{2}, GenerateTime: 0, Size: 16},
			{Sender: 1, Targets: []node.Id{2}, GenerateTime: units.Seconds(0.001), Size: 16},
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        2,
	}
}

// EmergencyReachesGatewayWithinHorizon is a two-hop chain (sender, relay,
// gateway, 800 m apart in a line) with an Emergency-marked message generated
// at t=0; under the default pathloss every link, including sender to
// gateway, is above the read threshold, so the gateway also hears the sender
// directly, and delivery should land well inside the 600 s
// penalised-latency horizon.
func EmergencyReachesGatewayWithinHorizon() Scenario {
	topo := topology.NewPointSequence([]topology.Frame{{
		Time: 0,
		Positions: []topology.Point{
			{X: 0, Y: 0},
			{X: 800, Y: 0},
			{X: 1600, Y: 0},
		},
	}})
	setup := DefaultNodeSetup()
	setup.UsePower = 20
	gateway := setup
	gateway.IsGateway = true
	return Scenario{
		Topology: topo,
		Nodes:    []NodeSetup{setup, setup, gateway},
		Messages: []UserMessage{
			{Sender: 0, Targets: []node.Id{2}, GenerateTime: 0, Size: 32, Emergency: true},
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        3,
	}
}

// IsolatedMessageNeverDelivered is a two-node Graph topology with no edge
// between its nodes at all, so the target is never reachable (DistanceTo
// always reports false and received power floors at -infinity): the
// generated message can never be delivered regardless of routing model.
func IsolatedMessageNeverDelivered() Scenario {
	topo := topology.NewGraph(2, [][]topology.Edge{
		{}, // node 0 has no edges
		{}, // node 1 has no edges
	})
	setup := DefaultNodeSetup()
	return Scenario{
		Topology: topo,
		Nodes:    UniformNodes(2, setup),
		Messages: []UserMessage{
			{Sender: 0, Targets: []node.Id{1}, GenerateTime: 0, Size: 16},
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        4,
	}
}

// RetransmitFloodCancellation is a fully-meshed triangle intended for
// SimpleManagedFlooding: all three nodes hear each other directly, so node
// 0's broadcast reaches both 1 and 2 simultaneously, and each of 1 and 2
// should observe the other's rebroadcast before their own queued one fires,
// exercising radiointerface.CancelSending.
func RetransmitFloodCancellation() Scenario {
	topo := topology.NewPointSequence([]topology.Frame{{
		Time: 0,
		Positions: []topology.Point{
			{X: 0, Y: 0},
			{X: 400, Y: 0},
			{X: 200, Y: 300},
		},
	}})
	setup := DefaultNodeSetup()
	setup.UsePower = 20
	return Scenario{
		Topology: topo,
		Nodes:    UniformNodes(3, setup),
		Messages: []UserMessage{
			{Sender: 0, Targets: nil, GenerateTime: 0, Size: 16}, // nil targets => broadcast
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        5,
	}
}

// HighDensityProbabilisticFloodSuccess is a dense, fully-connected mesh of
// ten nodes sized so that ProbabilisticFlood's default parameters (min-hops
// 2, rebroadcast probability 0.65) deliver the broadcast message to upwards
// of 95% of the other nodes.
func HighDensityProbabilisticFloodSuccess() Scenario {
	const n = 10
	positions := make([]topology.Point, n)
	for i := 0; i < n; i++ {
		positions[i] = topology.Point{X: float64(i%4) * 150, Y: float64(i/4) * 150}
	}
	topo := topology.NewPointSequence([]topology.Frame{{Time: 0, Positions: positions}})
	setup := DefaultNodeSetup()
	setup.UsePower = 20
	return Scenario{
		Topology: topo,
		Nodes:    UniformNodes(n, setup),
		Messages: []UserMessage{
			{Sender: 0, Targets: nil, GenerateTime: 0, Size: 16},
		},
		RadioParams: radiomodel.DefaultParams(),
		Seed:        6,
	}
}
