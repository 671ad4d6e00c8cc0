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
	"fmt"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
)

// NoRouting sends every generated message directly, once, with no
// forwarding, retry or radio-interface backoff of any kind:
// the baseline against which every other model is compared.
type NoRouting struct {
	nextPacketId node.PacketId
}

func NewNoRouting() *NoRouting {
	return &NoRouting{}
}

func (m *NoRouting) Initialise(ctx node.Context) {}

func (m *NoRouting) ReceiveMessage(ctx node.Context, h node.Header, content node.MessageContent, payloadSize int, snr units.Dbm) {
}

func (m *NoRouting) GenerateMessage(ctx node.Context, content node.MessageContent, info node.MessageInfo) {
	h := basicHeader(ctx.NodeId(), m.nextId(), info)
	ctx.EnqueueSend(h, content)
}

func (m *NoRouting) HandleError(ctx node.Context, err error) {
	ctx.Log("error", func() string { return fmt.Sprintf("packet dropped: %v", err) })
}

func (m *NoRouting) GetNotified(ctx node.Context, n node.Notification, thread string) {}

func (m *NoRouting) IdentityStr() string { return "No Routing 1.0" }

func (m *NoRouting) nextId() node.PacketId {
	id := m.nextPacketId
	m.nextPacketId++
	return id
}
