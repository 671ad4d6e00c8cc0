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

// Package nodemodel implements the seven routing-protocol state machines
//: NoRouting, BasicFlood, StackFlood, SimpleManagedFlooding,
// ProbabilisticFlood, AcknowledgedOrRepeatFlood and Meshtastic. Six of the
// seven share the radiointerface component; each is grounded on the
// corresponding file in the original Rust implementation's node/ directory.
package nodemodel

import "github.com/loramesh/meshsim/node"

// RoutingThread is the cooperative-thread tag for periodic routing-layer
// logic, used by AcknowledgedOrRepeatFlood and Meshtastic; the other five
// models need no thread beyond Radio.
const RoutingThread = "Routing"

// defaultHopLimit is the Meshtastic-style starting hop budget.
const defaultHopLimit = 3

// basicHeader builds a plain flooding header addressed per info's targets.
func basicHeader(sender node.Id, id node.PacketId, info node.MessageInfo) node.Header {
	return node.Header{
		Kind:   node.HeaderSimple,
		Id:     node.GlobalPacketId{Origin: sender, Local: id},
		Sender: sender,
		Dest:   stdDestination(info),
	}
}

// meshtasticHeader builds a Meshtastic-style header with the default hop
// accounting and acknowledgment request.
func meshtasticHeader(sender node.Id, id node.PacketId, info node.MessageInfo) node.Header {
	return node.Header{
		Kind:     node.HeaderMeshtastic,
		Id:       node.GlobalPacketId{Origin: sender, Local: id},
		Sender:   sender,
		Dest:     stdDestination(info),
		HopStart: defaultHopLimit,
		HopLimit: defaultHopLimit,
		WantAck:  true,
	}
}

// stdDestination maps a MessageInfo's target list to a Destination: a
// single target is a unicast, anything else (including zero, which never
// happens in practice) is a broadcast.
func stdDestination(info node.MessageInfo) node.Destination {
	if len(info.Targets) == 1 {
		return node.Unicast(info.Targets[0])
	}
	return node.Broadcast
}

// isToNode reports whether d addresses id specifically (a broadcast is
// never "to" any single node in this sense).
func isToNode(d node.Destination, id node.Id) bool {
	return !d.Broadcast && d.Node == id
}
