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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loramesh/meshsim/node"
)

func TestAckRepeatFloodInitialiseArmsRoutingThread(t *testing.T) {
	ctx := newFakeContext(1)
	m := NewAcknowledgedOrRepeatFlood()

	m.Initialise(ctx)

	require.Len(t, ctx.notified, 1)
	assert.Equal(t, RoutingThread, ctx.notified[0].thread)
	assert.True(t, ctx.notified[0].shouldOverride)
}

func TestAckRepeatFloodAcksPacketAddressedToSelf(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewAcknowledgedOrRepeatFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 9}, Sender: 1, Dest: node.Unicast(2)}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)

	_, acked := m.acknowledged[h.Id]
	assert.True(t, acked, "a packet delivered to this node must be immediately acknowledged")
	assert.Empty(t, m.rebroadcasts, "an acked packet is never queued for rebroadcast")
}

func TestAckRepeatFloodQueuesForeignPacketForRebroadcast(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewAcknowledgedOrRepeatFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 9}, Sender: 1, Dest: node.Broadcast}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)

	require.Len(t, m.rebroadcasts, 1)
	assert.Equal(t, maxRebroadcasts, m.rebroadcasts[0].remaining)
}

func TestAckRepeatFloodAckRemovesPendingRebroadcast(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewAcknowledgedOrRepeatFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 9}, Sender: 1, Dest: node.Broadcast}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)
	require.Len(t, m.rebroadcasts, 1)

	ack := node.Header{
		Id: node.GlobalPacketId{Origin: 3, Local: 1}, Sender: 3, Dest: node.Broadcast,
		IsRouting: true, RoutingStatus: node.RoutingStatusOK, RoutingOf: h.Id,
	}
	m.ReceiveMessage(ctx, ack, node.MessageContent{Kind: node.ContentEmpty}, 8, -5)

	// The original packet's own rebroadcast is cancelled by the ack; the ack
	// itself, having never been seen before, is queued for rebroadcast in turn.
	require.Len(t, m.rebroadcasts, 1)
	assert.Equal(t, ack.Id, m.rebroadcasts[0].packet.Header.Id)
	_, acked := m.acknowledged[h.Id]
	assert.True(t, acked)
}
