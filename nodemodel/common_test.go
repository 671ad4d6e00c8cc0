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
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// fakeContext is a minimal node.Context double for exercising node models
// without a kernel.
type fakeContext struct {
	id          node.Id
	now         units.Time
	settings    node.NodeSettings
	utilisation float64
	rngValue    float64

	notified []notifyCall
	sent     []sentPacket
}

type notifyCall struct {
	delay          units.Time
	n              node.Notification
	thread         string
	shouldOverride bool
}

type sentPacket struct {
	h node.Header
	c node.MessageContent
}

func newFakeContext(id node.Id) *fakeContext {
	return &fakeContext{
		id:       id,
		settings: node.NodeSettings{Sf: 7, Bandwidth: 125000, CodingRate: 5, Power: 14, MaxPower: 20},
	}
}

func (f *fakeContext) NodeId() node.Id                      { return f.id }
func (f *fakeContext) Settings() node.NodeSettings          { return f.settings }
func (f *fakeContext) SetSettings(s node.NodeSettings) error { f.settings = s; return nil }
func (f *fakeContext) ClockTime() units.Time                { return f.now }
func (f *fakeContext) Location() (topology.Point, bool)     { return topology.Point{}, false }
func (f *fakeContext) EnqueueSend(h node.Header, c node.MessageContent) {
	f.sent = append(f.sent, sentPacket{h, c})
}
func (f *fakeContext) Log(level string, lazy func() string) {}
func (f *fakeContext) RegisterThread(thread string)         {}
func (f *fakeContext) NotifyLater(delay units.Time, n node.Notification, thread string, shouldOverride bool) {
	f.notified = append(f.notified, notifyCall{delay, n, thread, shouldOverride})
}
func (f *fakeContext) IsTransmitting() bool                     { return false }
func (f *fakeContext) ChannelInUse() bool                       { return false }
func (f *fakeContext) ChannelUtilisation() float64              { return f.utilisation }
func (f *fakeContext) Rng(min, max float64) float64             { return f.rngValue }
func (f *fakeContext) ActiveTransmissions() []node.Transmission { return nil }

// deliverFront delivers every queued notification to the model's
// GetNotified, oldest first, including any armed during delivery, until none
// remain, simulating the kernel dispatching them.
func deliverFront(ctx *fakeContext, notifyFn func(ctx node.Context, n node.Notification, thread string)) {
	for len(ctx.notified) > 0 {
		call := ctx.notified[0]
		ctx.notified = ctx.notified[1:]
		notifyFn(ctx, call.n, call.thread)
	}
}
