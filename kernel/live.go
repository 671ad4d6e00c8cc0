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

package kernel

import (
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/scenario"
	"github.com/loramesh/meshsim/units"
)

// ModelFactory builds one fresh node model per scenario node, in node-id
// order; LiveSimulation calls it whenever it needs to rebuild a run from
// t=0 (node models are stateful, so replaying requires fresh instances, not
// a deep-copy of the mutated ones).
type ModelFactory func() []node.Model

// LiveSimulation supports stepping a simulation to an arbitrary query time
// and inspecting a node's state there, rewinding and replaying from t=0
// when the query time precedes the current position.
type LiveSimulation struct {
	cfg       Config
	sc        scenario.Scenario
	newModels ModelFactory

	current *Simulation
}

// NewLive builds a LiveSimulation already initialised at t=0.
func NewLive(cfg Config, sc scenario.Scenario, newModels ModelFactory) *LiveSimulation {
	ls := &LiveSimulation{cfg: cfg, sc: sc, newModels: newModels}
	ls.current = New(cfg, sc, newModels())
	ls.current.Initialise()
	return ls
}

// CurrentTime returns the simulated time the live simulation is currently
// positioned at.
func (ls *LiveSimulation) CurrentTime() units.Time {
	return ls.current.simTime
}

// StepTo advances the current run, dispatching events one at a time, while
// the next pending event's time does not exceed t.
func (ls *LiveSimulation) StepTo(t units.Time) {
	for {
		e := ls.current.queue.Peek()
		if e == nil || units.Time(e.Time) > t {
			return
		}
		ls.current.Step()
	}
}

// InspectNode reports node id's settings as of time t. If t lies before the
// live simulation's current position, the run is rebuilt from a fresh
// snapshot (t=0) and replayed forward to t; otherwise the existing run is
// simply advanced.
func (ls *LiveSimulation) InspectNode(id node.Id, t units.Time) node.NodeSettings {
	if t < ls.current.simTime {
		ls.current = New(ls.cfg, ls.sc, ls.newModels())
		ls.current.Initialise()
	}
	ls.StepTo(t)
	return ls.current.settings[id]
}

// Output returns the output accumulated by the current run so far.
func (ls *LiveSimulation) Output() SimOutput {
	return ls.current.Output()
}
