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

func TestStackFloodRebroadcastsFirstReceptionOfForeignPacket(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewStackFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 5}, Sender: 1, Dest: node.Broadcast}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)

	require.Len(t, ctx.notified, 1, "rebroadcast should arm the radio interface")
}

func TestStackFloodDropsDuplicateReception(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewStackFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 5}, Sender: 1, Dest: node.Broadcast}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)
	firstCount := len(ctx.notified)

	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)
	assert.Len(t, ctx.notified, firstCount, "a duplicate reception must not queue a second rebroadcast")
}

func TestStackFloodDoesNotRebroadcastPacketAddressedToSelf(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewStackFlood()
	m.Initialise(ctx)

	h := node.Header{Id: node.GlobalPacketId{Origin: 1, Local: 5}, Sender: 1, Dest: node.Unicast(2)}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)

	assert.Empty(t, ctx.notified, "a packet delivered to this node needs no rebroadcast")
}

func TestStackFloodGeneratesOwnMessageWithoutSelfDuplicate(t *testing.T) {
	ctx := newFakeContext(2)
	m := NewStackFlood()
	m.Initialise(ctx)

	m.GenerateMessage(ctx, node.MessageContent{}, node.MessageInfo{Size: 10})
	require.Len(t, ctx.notified, 1, "generating a message should arm the radio interface")

	h := node.Header{Id: node.GlobalPacketId{Origin: 2, Local: 0}, Sender: 2, Dest: node.Broadcast}
	m.ReceiveMessage(ctx, h, node.MessageContent{}, 10, -5)
	assert.Len(t, ctx.notified, 1, "hearing an echo of a self-generated packet must not rebroadcast again")
}
