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

// maxRebroadcasts bounds how many times a queued packet is re-queued for
// rebroadcast before AcknowledgedOrRepeatFlood gives up on it.
const maxRebroadcasts = 3

// ackRepeatEntry is one packet waiting on the routing thread, either for its
// first send or for a repeat because no further acknowledgment displaced it.
type ackRepeatEntry struct {
	packet    radiointerface.Packet
	remaining int
}

// AcknowledgedOrRepeatFlood keeps every unacknowledged packet on a routing
// queue and periodically re-sends the front of it until an acknowledgment
// (its own GlobalPacketId seen again, from any direction) removes it, or
// its repeat budget runs out. Acknowledgments are themselves
// broadcast, letting any neighbour's ack suppress a node's own pending
// rebroadcast of the same packet.
type AcknowledgedOrRepeatFlood struct {
	rebroadcasts []ackRepeatEntry
	acknowledged map[node.GlobalPacketId]struct{}
	radio        *radiointerface.Interface
	nextPacketId node.PacketId
}

func NewAcknowledgedOrRepeatFlood() *AcknowledgedOrRepeatFlood {
	return &AcknowledgedOrRepeatFlood{
		acknowledged: make(map[node.GlobalPacketId]struct{}),
		radio:        radiointerface.New(radiointerface.FIFO),
	}
}

// routingTick is the notification that drives the routing thread's
// periodic dequeue-and-resend cycle.
type routingTick struct{}

func (m *AcknowledgedOrRepeatFlood) Initialise(ctx node.Context) {
	m.radio.OnInitialise(ctx)
	ctx.RegisterThread(RoutingThread)
	m.setRoutingDelay(ctx)
}

func (m *AcknowledgedOrRepeatFlood) setRoutingDelay(ctx node.Context) {
	delay := units.Seconds(ctx.Rng(1, 20))
	ctx.NotifyLater(delay, routingTick{}, RoutingThread, true)
}

func (m *AcknowledgedOrRepeatFlood) ReceiveMessage(ctx node.Context, h node.Header, content node.MessageContent, payloadSize int, snr units.Dbm) {
	key := h.Id

	if isToNode(h.Dest, ctx.NodeId()) {
		ack := m.buildAck(ctx, key)
		m.acknowledge(ack.Header.Id)
		m.radio.Send(ctx, ack)
		m.acknowledge(key)
		return
	}

	if _, done := m.acknowledged[key]; done {
		return
	}

	if h.IsRouting {
		m.removeFromRebroadcasts(h.RoutingOf)
		m.acknowledge(h.RoutingOf)
	}

	if m.removeFromRebroadcasts(key) {
		m.acknowledge(key)
		return
	}

	s := snr
	m.addToRebroadcasts(radiointerface.Packet{Header: h, Content: content, Size: payloadSize, Snr: &s})
}

func (m *AcknowledgedOrRepeatFlood) GenerateMessage(ctx node.Context, content node.MessageContent, info node.MessageInfo) {
	h := basicHeader(ctx.NodeId(), m.nextId(), info)
	m.addToRebroadcasts(radiointerface.Packet{Header: h, Content: content, Size: info.Size})
}

func (m *AcknowledgedOrRepeatFlood) HandleError(ctx node.Context, err error) {
	ctx.Log("error", func() string { return "packet dropped: " + err.Error() })
}

func (m *AcknowledgedOrRepeatFlood) GetNotified(ctx node.Context, n node.Notification, thread string) {
	m.radio.OnGetNotified(ctx, n)
	if thread != RoutingThread {
		return
	}
	if _, ok := n.(routingTick); ok {
		m.runRoutingThread(ctx)
	}
}

func (m *AcknowledgedOrRepeatFlood) IdentityStr() string { return "Acknowledged Or Repeat Flood 1.1" }

func (m *AcknowledgedOrRepeatFlood) runRoutingThread(ctx node.Context) {
	if len(m.rebroadcasts) > 0 {
		e := m.rebroadcasts[0]
		m.rebroadcasts = m.rebroadcasts[1:]
		m.handleDequeued(ctx, e)
	}
	m.setRoutingDelay(ctx)
}

func (m *AcknowledgedOrRepeatFlood) handleDequeued(ctx node.Context, e ackRepeatEntry) {
	m.radio.Send(ctx, e.packet)

	if e.packet.Content.Kind == node.ContentGenerated && e.remaining > 0 {
		m.rebroadcasts = append(m.rebroadcasts, ackRepeatEntry{packet: e.packet, remaining: e.remaining - 1})
		return
	}
	m.acknowledge(e.packet.Header.Id)
}

func (m *AcknowledgedOrRepeatFlood) addToRebroadcasts(p radiointerface.Packet) {
	m.rebroadcasts = append([]ackRepeatEntry{{packet: p, remaining: maxRebroadcasts}}, m.rebroadcasts...)
}

func (m *AcknowledgedOrRepeatFlood) removeFromRebroadcasts(key node.GlobalPacketId) bool {
	for i, e := range m.rebroadcasts {
		if e.packet.Header.Id == key {
			m.rebroadcasts = append(m.rebroadcasts[:i], m.rebroadcasts[i+1:]...)
			m.radio.CancelSending(key)
			return true
		}
	}
	return false
}

func (m *AcknowledgedOrRepeatFlood) acknowledge(key node.GlobalPacketId) {
	m.acknowledged[key] = struct{}{}
}

// buildAck constructs the broadcast acknowledgment packet for a received
// packet, represented as a routing header referring back to it.
func (m *AcknowledgedOrRepeatFlood) buildAck(ctx node.Context, of node.GlobalPacketId) radiointerface.Packet {
	h := node.Header{
		Kind:          node.HeaderSimple,
		Id:            node.GlobalPacketId{Origin: ctx.NodeId(), Local: m.nextId()},
		Sender:        ctx.NodeId(),
		Dest:          node.Broadcast,
		IsRouting:     true,
		RoutingStatus: node.RoutingStatusOK,
		RoutingOf:     of,
	}
	return radiointerface.Packet{Header: h, Content: node.MessageContent{Kind: node.ContentEmpty}, Size: 8}
}

func (m *AcknowledgedOrRepeatFlood) nextId() node.PacketId {
	id := m.nextPacketId
	m.nextPacketId++
	return id
}
