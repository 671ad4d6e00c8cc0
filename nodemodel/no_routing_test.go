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

func TestNoRoutingGeneratesDirectSendWithoutRadioInterface(t *testing.T) {
	ctx := newFakeContext(1)
	m := NewNoRouting()

	m.GenerateMessage(ctx, node.MessageContent{Kind: node.ContentGenerated}, node.MessageInfo{Targets: []node.Id{2}, Size: 10})

	require.Len(t, ctx.sent, 1)
	assert.Empty(t, ctx.notified, "NoRouting must never arm a radio-interface backoff")
	assert.Equal(t, node.Unicast(2), ctx.sent[0].h.Dest)
}

func TestNoRoutingAssignsIncrementingPacketIds(t *testing.T) {
	ctx := newFakeContext(1)
	m := NewNoRouting()

	m.GenerateMessage(ctx, node.MessageContent{}, node.MessageInfo{Targets: []node.Id{2}})
	m.GenerateMessage(ctx, node.MessageContent{}, node.MessageInfo{Targets: []node.Id{2}})

	require.Len(t, ctx.sent, 2)
	assert.Equal(t, node.PacketId(0), ctx.sent[0].h.Id.Local)
	assert.Equal(t, node.PacketId(1), ctx.sent[1].h.Id.Local)
}
