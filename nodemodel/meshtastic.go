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
	"math"

	"github.com/simonlingoogle/go-simplelogger"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/radiointerface"
	"github.com/loramesh/meshsim/radiomodel"
	"github.com/loramesh/meshsim/units"
)

// numRetransmissions is how many times in all Meshtastic transmits an
// acknowledgment-requesting packet before giving up on it: the first send
// plus numRetransmissions-1 retries.
const numRetransmissions = 3

// processingTime matches the fixed 4.5 s processing allowance that
// radiointerface.RetransmissionDelay adds; nothing in this package reads it.
const processingTime = 4.5 // seconds

// pendingTransmission tracks one of this node's own packets awaiting
// acknowledgment: when it is next due for a retransmission attempt and how
// many attempts remain.
type pendingTransmission struct {
	packet    radiointerface.Packet
	nextTx    units.Time
	remaining int
}

// routingTickMesh is Meshtastic's own routing-thread notification; kept
// distinct from AcknowledgedOrRepeatFlood's routingTick so the two models'
// notification types never collide if ever compared by a shared dispatcher.
type routingTickMesh struct{}

// Meshtastic implements the store-and-forward, hop-limited, acknowledged
// flooding protocol used by the real Meshtastic firmware: every
// acknowledgment-requesting packet is sent up to numRetransmissions times
// on a delay derived from channel utilisation, overheard retransmissions of
// the same packet push back a node's own retry schedule, and a first-hop
// rebroadcast happens automatically for anything not addressed to this node.
type Meshtastic struct {
	radio          *radiointerface.Interface
	fromRadioQueue []radiointerface.Packet
	pending        map[node.GlobalPacketId]*pendingTransmission
	seenRecently   map[node.GlobalPacketId]struct{}
	nextPacketId   node.PacketId
}

func NewMeshtastic() *Meshtastic {
	return &Meshtastic{
		radio:        radiointerface.New(radiointerface.FIFO),
		pending:      make(map[node.GlobalPacketId]*pendingTransmission),
		seenRecently: make(map[node.GlobalPacketId]struct{}),
	}
}

func (m *Meshtastic) Initialise(ctx node.Context) {
	m.radio.OnInitialise(ctx)
	ctx.RegisterThread(RoutingThread)
}

func (m *Meshtastic) ReceiveMessage(ctx node.Context, h node.Header, content node.MessageContent, payloadSize int, snr units.Dbm) {
	s := snr
	m.fromRadioQueue = append(m.fromRadioQueue, radiointerface.Packet{Header: h, Content: content, Size: payloadSize, Snr: &s})
	ctx.NotifyLater(units.Seconds(0.001), routingTickMesh{}, RoutingThread, true)
}

func (m *Meshtastic) GenerateMessage(ctx node.Context, content node.MessageContent, info node.MessageInfo) {
	h := meshtasticHeader(ctx.NodeId(), m.nextId(), info)
	m.sendLocal(ctx, radiointerface.Packet{Header: h, Content: content, Size: info.Size})
}

func (m *Meshtastic) HandleError(ctx node.Context, err error) {
	ctx.Log("error", func() string { return "packet dropped: " + err.Error() })
}

func (m *Meshtastic) GetNotified(ctx node.Context, n node.Notification, thread string) {
	m.radio.OnGetNotified(ctx, n)
	if thread != RoutingThread {
		return
	}
	if _, ok := n.(routingTickMesh); ok {
		m.runRoutingThread(ctx)
	}
}

func (m *Meshtastic) IdentityStr() string { return "Meshtastic 1.2" }

func (m *Meshtastic) nextId() node.PacketId {
	id := m.nextPacketId
	m.nextPacketId++
	return id
}

// hopLimitForResponse mirrors the hop budget given to an acknowledgment so
// it is likely, but not certain, to make it back to the original sender
//.
func hopLimitForResponse(hopStart, hopLimit int) int {
	if hopStart == 0 {
		return defaultHopLimit
	}
	hopsUsed := defaultHopLimit
	if hopStart >= hopLimit {
		hopsUsed = hopStart - hopLimit
	}
	if hopsUsed > defaultHopLimit {
		return hopsUsed
	}
	if hopsUsed+2 < defaultHopLimit {
		return hopsUsed + 2
	}
	return defaultHopLimit
}

func (m *Meshtastic) airtimeOf(ctx node.Context, p radiointerface.Packet) units.Time {
	s := ctx.Settings()
	return radiomodel.CalculateAirtime(p.Size+radiomodel.HeaderSizeBytes, s.Sf, s.Bandwidth, s.CodingRate)
}

// runRoutingThread is the periodic Routing-thread cycle: process due
// retransmissions, then drain every packet the radio layer handed up since
// the last cycle.
func (m *Meshtastic) runRoutingThread(ctx node.Context) {
	delay := m.doRetransmissions(ctx)

	for len(m.fromRadioQueue) > 0 {
		p := m.fromRadioQueue[0]
		m.fromRadioQueue = m.fromRadioQueue[1:]
		m.perhapsHandleReceived(ctx, p)
	}

	const maxDelay = 48 * 3600.0
	if float64(delay) < maxDelay {
		ctx.NotifyLater(delay, routingTickMesh{}, RoutingThread, true)
	}
}

// doRetransmissions sends every pending entry whose nextTx has arrived,
// reports exhausted entries with a MaxRetransmit ack, and returns the delay
// until the earliest remaining entry is next due.
func (m *Meshtastic) doRetransmissions(ctx node.Context) units.Time {
	now := ctx.ClockTime()
	delay := units.Time(math.MaxFloat64)

	var toSend []radiointerface.Packet
	var exhausted []node.GlobalPacketId

	for key, e := range m.pending {
		if float64(e.nextTx) > float64(now) {
			d := e.nextTx - now
			if d < delay {
				delay = d
			}
			continue
		}
		if e.remaining == 0 {
			exhausted = append(exhausted, key)
			continue
		}
		toSend = append(toSend, e.packet)
		e.remaining--
		m.setNextTxForPending(ctx, e)
		if e.nextTx-now < delay {
			delay = e.nextTx - now
		}
	}

	for _, p := range toSend {
		m.floodSend(ctx, p)
	}
	for _, key := range exhausted {
		e := m.pending[key]
		m.sendAckNak(ctx, node.RoutingStatusMaxRetransmit, node.Unicast(e.packet.Header.Sender), key, 0)
		m.stopRetransmission(key)
	}

	return delay
}

func (m *Meshtastic) setNextTxForPending(ctx node.Context, e *pendingTransmission) {
	e.nextTx = ctx.ClockTime() + radiointerface.RetransmissionDelay(ctx, m.airtimeOf(ctx, e.packet))
}

func (m *Meshtastic) startRetransmission(ctx node.Context, p radiointerface.Packet) {
	key := p.Header.Id
	m.stopRetransmission(key)
	e := &pendingTransmission{packet: p, remaining: numRetransmissions - 1}
	m.setNextTxForPending(ctx, e)
	m.pending[key] = e
}

func (m *Meshtastic) stopRetransmission(key node.GlobalPacketId) bool {
	if _, ok := m.pending[key]; !ok {
		return false
	}
	m.radio.CancelSending(key)
	delete(m.pending, key)
	return true
}

func (m *Meshtastic) sendAckNak(ctx node.Context, status node.RoutingStatus, dest node.Destination, aboutId node.GlobalPacketId, hopLimit int) {
	h := node.Header{
		Kind:          node.HeaderMeshtastic,
		Id:            node.GlobalPacketId{Origin: ctx.NodeId(), Local: m.nextId()},
		Sender:        ctx.NodeId(),
		Dest:          dest,
		HopStart:      hopLimit,
		HopLimit:      hopLimit,
		IsRouting:     true,
		RoutingStatus: status,
		RoutingOf:     aboutId,
	}
	m.sendLocal(ctx, radiointerface.Packet{Header: h, Content: node.MessageContent{Kind: node.ContentEmpty}, Size: 8})
}

// sendLocal is the single entry point for anything this node originates,
// whether a user-generated message or an ack/nak: local deliveries go
// straight to the routing queue, broadcasts are processed locally before
// also going out over the air.
func (m *Meshtastic) sendLocal(ctx node.Context, p radiointerface.Packet) {
	if isToNode(p.Header.Dest, ctx.NodeId()) {
		m.fromRadioQueue = append(m.fromRadioQueue, p)
		ctx.NotifyLater(units.Seconds(0.001), routingTickMesh{}, RoutingThread, true)
		return
	}
	if p.Header.Dest.Broadcast {
		m.handleReceived(ctx, p)
	}
	m.reliableSend(ctx, p)
}

func (m *Meshtastic) reliableSend(ctx node.Context, p radiointerface.Packet) {
	if p.Header.WantAck {
		if p.Header.HopLimit == 0 {
			p.Header.HopLimit = defaultHopLimit
		}
		m.startRetransmission(ctx, p)
	}

	airtime := m.airtimeOf(ctx, p)
	for key, e := range m.pending {
		if key != p.Header.Id {
			e.nextTx += airtime
		}
	}

	m.floodSend(ctx, p)
}

func (m *Meshtastic) floodSend(ctx node.Context, p radiointerface.Packet) {
	m.wasSeenRecently(p.Header.Id)
	m.baseSend(ctx, p)
}

// baseSend hands a packet to the radio interface. dest must never be this
// node: every caller routes self-addressed packets through sendLocal
// instead, so this would indicate a routing-logic bug upstream.
func (m *Meshtastic) baseSend(ctx node.Context, p radiointerface.Packet) {
	simplelogger.AssertTrue(!isToNode(p.Header.Dest, ctx.NodeId()), "meshtastic: base_send targeted self")

	if p.Header.Dest.Broadcast {
		p.Header.WantAck = false
	}
	if p.Header.Sender == ctx.NodeId() {
		p.Header.HopStart = p.Header.HopLimit
	}
	m.radio.Send(ctx, p)
}

func (m *Meshtastic) wasSeenRecently(key node.GlobalPacketId) bool {
	_, was := m.seenRecently[key]
	m.seenRecently[key] = struct{}{}
	return was
}

func (m *Meshtastic) perhapsHandleReceived(ctx node.Context, p radiointerface.Packet) {
	if m.shouldFilterReceived(ctx, p) {
		return
	}
	m.handleReceived(ctx, p)
}

// shouldFilterReceived applies overhearing bookkeeping (stopping our own
// retransmission if this is an ack for it, pushing back every other pending
// entry's schedule by the overheard packet's airtime) and then the
// duplicate-suppression/first-hop-rebroadcast logic, returning true when
// the caller should not process the packet any further.
func (m *Meshtastic) shouldFilterReceived(ctx node.Context, p radiointerface.Packet) bool {
	key := p.Header.Id

	if p.Header.Sender == ctx.NodeId() {
		if _, ok := m.pending[key]; ok {
			m.sendAckNak(ctx, node.RoutingStatusOK, node.Unicast(p.Header.Sender), key, 0)
			m.stopRetransmission(key)
		}
	}

	overheard := m.airtimeOf(ctx, p)
	for otherKey, e := range m.pending {
		if otherKey != key {
			e.nextTx += overheard
		}
	}

	if !m.wasSeenRecently(key) {
		return false
	}

	m.radio.CancelSending(key)

	isFirstHop := p.Header.HopStart > 0 && p.Header.HopStart == p.Header.HopLimit
	if isFirstHop {
		rebroadcast := m.perhapsRebroadcast(ctx, p)
		if !rebroadcast && isToNode(p.Header.Dest, ctx.NodeId()) && p.Header.WantAck {
			m.sendAckNak(ctx, node.RoutingStatusOK, node.Unicast(p.Header.Sender), key, 0)
		}
	}
	return true
}

// perhapsRebroadcast forwards a packet one hop further if it is neither
// from nor addressed to this node and still has hop budget left.
func (m *Meshtastic) perhapsRebroadcast(ctx node.Context, p radiointerface.Packet) bool {
	toUs := isToNode(p.Header.Dest, ctx.NodeId())
	fromUs := p.Header.Sender == ctx.NodeId()
	if !toUs && !fromUs && p.Header.HopLimit > 0 {
		fwd := p
		fwd.Header.HopLimit--
		m.baseSend(ctx, fwd)
		return true
	}
	return false
}

func (m *Meshtastic) handleReceived(ctx node.Context, p radiointerface.Packet) {
	m.reliableSniffReceived(ctx, p)
}

// reliableSniffReceived sends any acknowledgment this node owes for a
// packet addressed to it, and stops our own retransmission if the packet is
// itself a routing ack/nak about one of our pending entries.
func (m *Meshtastic) reliableSniffReceived(ctx node.Context, p radiointerface.Packet) {
	isToUs := isToNode(p.Header.Dest, ctx.NodeId())

	if isToUs {
		if p.Header.WantAck && !p.Header.IsRouting {
			m.sendAckNak(ctx, node.RoutingStatusOK, node.Unicast(p.Header.Sender), p.Header.Id,
				hopLimitForResponse(p.Header.HopStart, p.Header.HopLimit))
		} else if p.Header.IsRouting && p.Header.HopStart > 0 && p.Header.HopStart == p.Header.HopLimit {
			m.sendAckNak(ctx, node.RoutingStatusOK, node.Unicast(p.Header.Sender), p.Header.Id, 0)
		}

		if p.Header.IsRouting {
			m.stopRetransmission(p.Header.RoutingOf)
		}
	}

	m.floodSniffReceived(ctx, p, p.Header.IsRouting)
}

// floodSniffReceived cancels a stale queued send this packet has made moot
// (an ack/reply not addressed to us and not broadcast) and otherwise tries
// to rebroadcast it onward.
func (m *Meshtastic) floodSniffReceived(ctx node.Context, p radiointerface.Packet, wasAckOrReply bool) {
	isToUs := isToNode(p.Header.Dest, ctx.NodeId())
	if wasAckOrReply && !isToUs && !p.Header.Dest.Broadcast {
		m.radio.CancelSending(p.Header.Id)
	}
	m.perhapsRebroadcast(ctx, p)
}
