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

// SimpleManagedFlooding adds a per-packet "sent" set on top of BasicFlood's
// "seen" set: a node only ever queues one rebroadcast of a
// given packet, and a duplicate reception arriving while that rebroadcast
// is still queued cancels it rather than queuing a second one.
type SimpleManagedFlooding struct {
	seen         map[node.GlobalPacketId]struct{}
	sent         map[node.GlobalPacketId]struct{}
	radio        *radiointerface.Interface
	nextPacketId node.PacketId
}

func NewSimpleManagedFlooding() *SimpleManagedFlooding {
	return &SimpleManagedFlooding{
		seen:  make(map[node.GlobalPacketId]struct{}),
		sent:  make(map[node.GlobalPacketId]struct{}),
		radio: radiointerface.New(radiointerface.FIFO),
	}
}

func (m *SimpleManagedFlooding) Initialise(ctx node.Context) {
	m.radio.OnInitialise(ctx)
}

func (m *SimpleManagedFlooding) ReceiveMessage(ctx node.Context, h node.Header, content node.MessageContent, payloadSize int, snr units.Dbm) {
	key := h.Id

	if _, ok := m.seen[key]; ok {
		m.radio.CancelSending(key)
		return
	}

	if !isToNode(h.Dest, ctx.NodeId()) {
		if _, alreadySent := m.sent[key]; !alreadySent {
			m.sent[key] = struct{}{}
			s := snr
			m.radio.Send(ctx, radiointerface.Packet{Header: h, Content: content, Size: payloadSize, Snr: &s})
		}
	}

	m.seen[key] = struct{}{}
}

func (m *SimpleManagedFlooding) GenerateMessage(ctx node.Context, content node.MessageContent, info node.MessageInfo) {
	h := basicHeader(ctx.NodeId(), m.nextId(), info)
	key := h.Id
	m.radio.Send(ctx, radiointerface.Packet{Header: h, Content: content, Size: info.Size})
	m.sent[key] = struct{}{}
	m.seen[key] = struct{}{}
}

func (m *SimpleManagedFlooding) HandleError(ctx node.Context, err error) {
	ctx.Log("error", func() string { return "packet dropped: " + err.Error() })
}

func (m *SimpleManagedFlooding) GetNotified(ctx node.Context, n node.Notification, thread string) {
	m.radio.OnGetNotified(ctx, n)
}

func (m *SimpleManagedFlooding) IdentityStr() string { return "Simple Managed Flooding 1.0" }

func (m *SimpleManagedFlooding) nextId() node.PacketId {
	id := m.nextPacketId
	m.nextPacketId++
	return id
}
