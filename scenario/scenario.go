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

// Package scenario holds the immutable input structures a simulation run
// consumes: topology, per-node radio settings and the set of
// user-generated messages. It is intentionally thin -- a full scenario
// *generator* is a collaborator concern -- and exists mainly to
// give tests (here and in kernel/analysis/verify) a shared, typed way to
// build the fixtures the scenario-level properties are checked against.
package scenario

import (
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/radiomodel"
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// CarrierBand is the closed set of carrier frequencies a scenario may select
//.
type CarrierBand int

const (
	Band433 CarrierBand = iota
	Band868
)

// CarrierFreq returns the centre frequency of the band.
func (b CarrierBand) CarrierFreq() units.Frequency {
	if b == Band433 {
		return 433e6
	}
	return 868e6
}

// MovementIndicator records whether a node is expected to move during a run
//; it is informational only and has no
// direct effect on the simulation beyond whatever the topology itself
// encodes.
type MovementIndicator int

const (
	Stationary MovementIndicator = iota
	Mobile
)

// NodeSetup is one node's configuration as supplied by a scenario, before the kernel derives the mutable,
// Context-visible node.NodeSettings from it at t=0.
type NodeSetup struct {
	Sf           int
	Bandwidth    units.Frequency
	CodingRate   int
	CarrierBand  CarrierBand
	MaxPower     units.Dbm
	UsePower     units.Dbm
	IsGateway    bool
	Movement     MovementIndicator
	ReactionTime units.Time
	ClockOffset  units.Time
}

// Settings converts this setup into the mutable radio settings a node's
// Context exposes at t=0.
func (n NodeSetup) Settings() node.NodeSettings {
	return node.NodeSettings{
		Sf:          n.Sf,
		CodingRate:  n.CodingRate,
		Bandwidth:   n.Bandwidth,
		Power:       n.UsePower,
		MaxPower:    n.MaxPower,
		CarrierFreq: n.CarrierBand.CarrierFreq(),
	}
}

// DefaultNodeSetup returns a representative EU868 configuration: sf7,
// 125 kHz bandwidth, coding rate 4/5, 868 MHz, 20 dBm max power used at
// 14 dBm, stationary, negligible reaction time.
func DefaultNodeSetup() NodeSetup {
	return NodeSetup{
		Sf:           7,
		Bandwidth:    125000,
		CodingRate:   5,
		CarrierBand:  Band868,
		MaxPower:     20,
		UsePower:     14,
		Movement:     Stationary,
		ReactionTime: units.Seconds(0.01),
	}
}

// UniformNodes returns n copies of setup, the common case of every node in a
// scenario sharing one radio configuration.
func UniformNodes(n int, setup NodeSetup) []NodeSetup {
	out := make([]NodeSetup, n)
	for i := range out {
		out[i] = setup
	}
	return out
}

const (
	minPayloadSize = 1
	maxPayloadSize = 237
)

// UserMessage is one user-generated message a scenario schedules:
// sender, target list (single = unicast, many = broadcast), generation time,
// payload size, an optional Emergency marker, and an optional repeat
// schedule.
type UserMessage struct {
	Sender       node.Id
	Targets      []node.Id
	GenerateTime units.Time
	Size         int
	Emergency    bool

	// RepeatCount is the number of additional generations beyond the first;
	// 0 means single-shot. RepeatSpacing is the interval between them.
	RepeatCount   int
	RepeatSpacing units.Time
}

// ClampedSize returns Size clamped to LoRa's 1..=237-byte payload envelope
//.
func (m UserMessage) ClampedSize() int {
	if m.Size < minPayloadSize {
		return minPayloadSize
	}
	if m.Size > maxPayloadSize {
		return maxPayloadSize
	}
	return m.Size
}

// Scenario is the immutable input a simulation run consumes: a
// topology, per-node radio settings, the propagation model parameters, the
// set of user messages, and the run's seed.
type Scenario struct {
	Topology    topology.Topology
	Nodes       []NodeSetup
	Messages    []UserMessage
	RadioParams radiomodel.Params
	Seed        int64
}
