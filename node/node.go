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

// Package node defines the node-model contract every routing protocol
// implements: the five kernel-invoked operations, the Context
// capability surface the kernel hands them, and the wire-ish header/content
// types every protocol reads and writes.
package node

import (
	"fmt"

	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// Id is a node identifier, aliasing the topology package's node id space.
type Id = topology.NodeId

// PacketId is a per-origin sequence number a node assigns its own packets.
type PacketId uint32

// GlobalPacketId uniquely identifies a packet across rebroadcasts: the
// (origin, local id) pair.
type GlobalPacketId struct {
	Origin Id
	Local  PacketId
}

func (g GlobalPacketId) String() string {
	return fmt.Sprintf("%d:%d", g.Origin, g.Local)
}

// Destination is either a specific node or a broadcast to all adjacent nodes.
type Destination struct {
	Broadcast bool
	Node      Id
}

// Broadcast is the shared broadcast destination value.
var Broadcast = Destination{Broadcast: true}

// Unicast builds a Destination targeting a single node.
func Unicast(n Id) Destination {
	return Destination{Node: n}
}

// HeaderKind distinguishes the two header shapes a packet may carry.
type HeaderKind int

const (
	// HeaderSimple is the plain flooding header used by NoRouting, BasicFlood,
	// StackFlood, SimpleManagedFlooding and AcknowledgedOrRepeatFlood.
	HeaderSimple HeaderKind = iota
	// HeaderMeshtastic is the Meshtastic-style header with hop accounting,
	// used by ProbabilisticFlood and the Meshtastic model.
	HeaderMeshtastic
)

// RoutingStatus tags a Meshtastic or AcknowledgedOrRepeatFlood
// acknowledgment/routing packet.
type RoutingStatus int

const (
	RoutingStatusNone RoutingStatus = iota
	RoutingStatusOK
	RoutingStatusMaxRetransmit
)

// Header carries addressing and, for Meshtastic-style protocols, hop
// accounting and acknowledgment metadata.
type Header struct {
	Kind   HeaderKind
	Id     GlobalPacketId
	Sender Id
	Dest   Destination

	// The hop fields are Meshtastic-only; the routing fields are also set on
	// HeaderSimple by AcknowledgedOrRepeatFlood's acknowledgments.
	HopStart      int
	HopLimit      int
	WantAck       bool
	IsRouting     bool
	RoutingStatus RoutingStatus
	// RoutingOf names the packet a routing (ack/nak) header refers to, valid
	// only when IsRouting is true.
	RoutingOf GlobalPacketId
}

// IsBroadcast reports whether h addresses every adjacent node.
func (h Header) IsBroadcast() bool { return h.Dest.Broadcast }

// ContentKind distinguishes the payload carried by a packet.
type ContentKind int

const (
	ContentUser ContentKind = iota
	ContentGenerated
	ContentEmpty
)

// MessageContent is the payload of a packet: a reference to a registered
// user message, a freshly generated message marker, or nothing (e.g. a pure
// routing ack/nak).
type MessageContent struct {
	Kind      ContentKind
	MessageId uint64
}

// Clone returns a value copy; MessageContent carries no pointers, so this is
// the identity function, but callers rely on "clone" semantics so the name
// documents the intent.
func (c MessageContent) Clone() MessageContent { return c }

// MessageInfo snapshots the metadata a GenerateMessage dispatch hands the
// node model.
type MessageInfo struct {
	MessageId uint64
	Targets   []Id
	Size      int
}

// Notification is the payload a node model stores via Context.NotifyLater
// and receives back via GetNotified; protocols define their own concrete
// types and type-assert it.
type Notification interface{}

// Model is the interface every routing protocol implements; the kernel
// dispatches to it by these five operations.
type Model interface {
	Initialise(ctx Context)
	ReceiveMessage(ctx Context, h Header, content MessageContent, payloadSize int, snr units.Dbm)
	GenerateMessage(ctx Context, content MessageContent, info MessageInfo)
	HandleError(ctx Context, err error)
	GetNotified(ctx Context, n Notification, thread string)
	IdentityStr() string
}

// Transmission is a read-only view of one in-flight or completed
// transmission, as exposed to node models via Context.ActiveTransmissions.
type Transmission struct {
	Id          uint64
	Transmitter Id
	StartTime   units.Time
	EndTime     units.Time
	Sf          int
	Bandwidth   units.Frequency
	CarrierHz   units.Frequency
}

// Context is the capability surface the kernel exposes to a node model
// during a dispatch; it is the node model's only way to observe or affect
// simulation state.
type Context interface {
	NodeId() Id
	Settings() NodeSettings
	SetSettings(NodeSettings) error

	ClockTime() units.Time
	Location() (topology.Point, bool)

	EnqueueSend(h Header, content MessageContent)
	Log(level string, lazy func() string)

	RegisterThread(thread string)
	NotifyLater(delay units.Time, n Notification, thread string, shouldOverride bool)

	IsTransmitting() bool
	ChannelInUse() bool
	ChannelUtilisation() float64

	Rng(min, max float64) float64

	// ActiveTransmissions iterates currently in-flight transmissions newest
	// first.
	ActiveTransmissions() []Transmission
}

// NodeSettings are the mutable per-node radio parameters a Context exposes;
// SetSettings validates and rejects out-of-range values with
// NodeUpdateError.
type NodeSettings struct {
	Sf          int
	CodingRate  int
	Bandwidth   units.Frequency
	Power       units.Dbm
	MaxPower    units.Dbm
	CarrierFreq units.Frequency
}
