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

package nodemodel

import (
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/radiointerface"
	"github.com/loramesh/meshsim/units"
)

// minHops is the number of hops a packet must already have travelled before
// ProbabilisticFlood starts rolling the dice on rebroadcasting it; below
// this it always rebroadcasts.
const minHops = 2

// rebroadcastProb is the chance (once minHops is reached) that a packet is
// rebroadcast rather than silently dropped.
const rebroadcastProb = 0.65

// ProbabilisticFlood decrements the Meshtastic-style hop limit on every
// rebroadcast and, once a packet has travelled minHops, only forwards it
// with probability rebroadcastProb.
type ProbabilisticFlood struct {
	seen         map[node.GlobalPacketId]struct{}
	radio        *radiointerface.Interface
	nextPacketId node.PacketId
}

func NewProbabilisticFlood() *ProbabilisticFlood {
	return &ProbabilisticFlood{
		seen:  make(map[node.GlobalPacketId]struct{}),
		radio: radiointerface.New(radiointerface.FIFO),
	}
}

func (m *ProbabilisticFlood) Initialise(ctx node.Context) {
	m.radio.OnInitialise(ctx)
}

func (m *ProbabilisticFlood) ReceiveMessage(ctx node.Context, h node.Header, content node.MessageContent, payloadSize int, snr units.Dbm) {
	key := h.Id
	if _, ok := m.seen[key]; ok {
		m.seen[key] = struct{}{}
		return
	}

	if !isToNode(h.Dest, ctx.NodeId()) {
		dropDraw := 0.0
		if h.HopStart-h.HopLimit >= minHops {
			dropDraw = ctx.Rng(0, 1)
		}
		if dropDraw < rebroadcastProb {
			fwd := h
			fwd.HopLimit--
			s := snr
			m.radio.Send(ctx, radiointerface.Packet{Header: fwd, Content: content, Size: payloadSize, Snr: &s})
		}
	}

	m.seen[key] = struct{}{}
}

func (m *ProbabilisticFlood) GenerateMessage(ctx node.Context, content node.MessageContent, info node.MessageInfo) {
	h := meshtasticHeader(ctx.NodeId(), m.nextId(), info)
	m.radio.Send(ctx, radiointerface.Packet{Header: h, Content: content, Size: info.Size})
}

func (m *ProbabilisticFlood) HandleError(ctx node.Context, err error) {
	ctx.Log("error", func() string { return "packet dropped: " + err.Error() })
}

func (m *ProbabilisticFlood) GetNotified(ctx node.Context, n node.Notification, thread string) {
	m.radio.OnGetNotified(ctx, n)
}

func (m *ProbabilisticFlood) IdentityStr() string { return "Probabilistic Flood 1.0" }

func (m *ProbabilisticFlood) nextId() node.PacketId {
	id := m.nextPacketId
	m.nextPacketId++
	return id
}
