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

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loramesh/meshsim/emfield"
	"github.com/loramesh/meshsim/kernel"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/nodemodel"
	"github.com/loramesh/meshsim/scenario"
	"github.com/loramesh/meshsim/units"
)

func run(t *testing.T, sc scenario.Scenario, newModel func() node.Model) kernel.SimOutput {
	t.Helper()
	models := make([]node.Model, len(sc.Nodes))
	for i := range models {
		models[i] = newModel()
	}
	sim := kernel.New(kernel.DefaultConfig(), sc, models)
	return sim.Run()
}

func TestSingleBroadcastPassesAllChecks(t *testing.T) {
	out := run(t, scenario.SingleBroadcastNoInterference(), func() node.Model { return nodemodel.NewNoRouting() })
	assert.Empty(t, Check(out))
}

func TestRetransmitFloodCancellationPassesAllChecks(t *testing.T) {
	out := run(t, scenario.RetransmitFloodCancellation(), func() node.Model { return nodemodel.NewSimpleManagedFlooding() })
	assert.Empty(t, Check(out))
}

func TestHighDensityFloodPassesAllChecks(t *testing.T) {
	out := run(t, scenario.HighDensityProbabilisticFloodSuccess(), func() node.Model { return nodemodel.NewProbabilisticFlood() })
	assert.Empty(t, Check(out))
}

func TestCheckEMFieldOrderedCatchesOutOfOrderTransmission(t *testing.T) {
	out := kernel.SimOutput{
		Transmissions: []kernel.TransmissionRecord{
			mkTransmission(1, 0, 0, 10),
			mkTransmission(2, 0, 5, 6),
		},
	}
	violations := Check(out)
	require := assertHasCheck(t, violations, "em_field_ordered")
	assert.True(t, require)
}

func TestCheckNoOverlappingTransmissionCatchesSameSenderOverlap(t *testing.T) {
	out := kernel.SimOutput{
		Transmissions: []kernel.TransmissionRecord{
			mkTransmission(1, 3, 0, 10),
			mkTransmission(2, 3, 5, 15),
		},
	}
	violations := Check(out)
	assert.True(t, assertHasCheck(t, violations, "no_overlapping_transmission"))
}

func assertHasCheck(t *testing.T, violations []Violation, check string) bool {
	t.Helper()
	for _, v := range violations {
		if v.Check == check {
			return true
		}
	}
	t.Logf("violations: %v", violations)
	return false
}

func mkTransmission(id uint64, transmitter node.Id, start, end float64) kernel.TransmissionRecord {
	return kernel.TransmissionRecord{
		Transmission: emfield.Transmission{
			Id:          id,
			Transmitter: transmitter,
			StartTime:   units.Seconds(start),
			EndTime:     units.Seconds(end),
		},
	}
}
