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
	"github.com/loramesh/meshsim/emfield"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
)

// LogLevel mirrors the four severities a log entry may carry.
type LogLevel int

const (
	LogError LogLevel = iota
	LogInfo
	LogDebug
	LogTrace
)

// LogKind distinguishes a free-text entry from the three transmission-
// tagged entries the kernel itself emits.
type LogKind int

const (
	LogText LogKind = iota
	LogTransmissionSent
	LogTransmissionReceived
	LogTransmissionBlocked
)

// LogSource identifies whether a log entry originated from the kernel
// itself or from a specific node's Context.Log call.
type LogSource struct {
	IsSimulation bool
	Node         node.Id
}

// LogEntry is one (time, level, source, content) record.
type LogEntry struct {
	Time   units.Time
	Level  LogLevel
	Source LogSource
	Kind   LogKind

	// Text holds the rendered message for Kind == LogText.
	Text string

	// The following apply only to the three TransmissionX kinds.
	NodeID         node.Id
	TransmissionID uint64
	BlockerID      uint64
}

// TransmissionRecord pairs an EM-field physical-layer record with the
// packet header and content it carried, as required by the outputs
//").
type TransmissionRecord struct {
	emfield.Transmission
	Header      node.Header
	Content     node.MessageContent
	MessageSize int
}

// OutputIdentity tags a SimOutput with enough information to tell two runs
// apart and to say whether two runs should be expected to match.
type OutputIdentity struct {
	ModelIdentity string
	Seed          int64
	Version       string
}

// SimulatorVersion is the opaque string stamped on every output;
// bump it whenever a numerically significant behavior changes.
const SimulatorVersion = "meshsim-1.0"

// SimOutput is everything a simulation run produces for its collaborators
//: the full log stream, every transmission (in-flight or
// completed) with its header and content, and the output's identity.
type SimOutput struct {
	Logs          []LogEntry
	Transmissions []TransmissionRecord
	Identity      OutputIdentity
}
