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

package kernel

import (
	"github.com/loramesh/meshsim/event"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// Context is the Simulation's implementation of node.Context: the only way
// a node model observes or affects simulation state during a dispatch. One
// is built fresh per dispatch; it holds no state of its own.
type Context struct {
	sim *Simulation
	id  node.Id
}

func (s *Simulation) contextFor(id node.Id) *Context {
	return &Context{sim: s, id: id}
}

func (c *Context) NodeId() node.Id { return c.id }

func (c *Context) Settings() node.NodeSettings {
	return c.sim.settings[c.id]
}

// SetSettings validates and applies a radio-setting mutation:
// spreading factor in [7,12], coding rate denominator >= 4, power not above
// the node's configured maximum.
func (c *Context) SetSettings(s node.NodeSettings) error {
	if s.Sf < 7 || s.Sf > 12 {
		return newNodeUpdateError("node %d: spreading factor %d out of range [7,12]", c.id, s.Sf)
	}
	if s.CodingRate < 4 {
		return newNodeUpdateError("node %d: coding rate denominator %d below minimum 4", c.id, s.CodingRate)
	}
	if s.Power > s.MaxPower {
		return newNodeUpdateError("node %d: power %v exceeds max power %v", c.id, s.Power, s.MaxPower)
	}
	c.sim.settings[c.id] = s
	return nil
}

// ClockTime returns the node's own notion of time: simulated time offset by
// its configured clock skew.
func (c *Context) ClockTime() units.Time {
	return c.sim.simTime + c.sim.clockOffset[c.id]
}

func (c *Context) Location() (topology.Point, bool) {
	return c.sim.topo.Location(c.sim.simTime, topology.NodeId(c.id))
}

// EnqueueSend schedules a SendMessage event after the node's configured
// reaction time; the actual transmission attempt
// (and the radio-busy check) happens when that event dispatches.
func (c *Context) EnqueueSend(h node.Header, content node.MessageContent) {
	at := c.sim.simTime + c.sim.reactionTime[c.id]
	c.sim.queue.Push(&event.Event{
		Time:    float64(at),
		Action:  event.ActionSendMessage,
		Node:    event.NodeId(c.id),
		Payload: sendPayload{header: h, content: content},
	})
}

func (c *Context) Log(level string, lazy func() string) {
	c.sim.appendLog(LogEntry{
		Time:   c.sim.simTime,
		Level:  parseLogLevel(level),
		Source: LogSource{Node: c.id},
		Kind:   LogText,
		Text:   lazy(),
	})
}

func parseLogLevel(level string) LogLevel {
	switch level {
	case "error":
		return LogError
	case "debug":
		return LogDebug
	case "trace":
		return LogTrace
	default:
		return LogInfo
	}
}

func (c *Context) RegisterThread(thread string) {
	c.sim.notify.RegisterThread(event.NodeId(c.id), thread)
}

// NotifyLater schedules a GetNotified callback delay seconds from now on the
// given thread, unless a still-live, not-yet-fired notification is already
// pending on it and shouldOverride is false. A pending notification whose
// own scheduled time has already passed is re-armed regardless, since it is
// stale rather than genuinely still pending.
func (c *Context) NotifyLater(delay units.Time, n node.Notification, thread string, shouldOverride bool) {
	c.sim.notify.RegisterThread(event.NodeId(c.id), thread)
	cur := c.sim.notify.Get(event.NodeId(c.id), thread)

	if cur.Live && !shouldOverride && cur.AtTime >= float64(c.sim.simTime) {
		return
	}

	at := c.sim.simTime + delay
	c.sim.notify.Set(event.NodeId(c.id), thread, n, float64(at))
	c.sim.queue.Push(&event.Event{
		Time:   float64(at),
		Action: event.ActionMaybeNotify,
		Node:   event.NodeId(c.id),
		Thread: thread,
	})
}

func (c *Context) IsTransmitting() bool {
	return c.sim.isTransmitting(c.id)
}

func (c *Context) ChannelInUse() bool {
	return c.sim.radio.DetectingAny(c.id, c.sim.simTime)
}

func (c *Context) ChannelUtilisation() float64 {
	return c.sim.channelUtilisation(c.id)
}

func (c *Context) Rng(min, max float64) float64 {
	return c.sim.rng.Float64(min, max)
}

func (c *Context) ActiveTransmissions() []node.Transmission {
	active := c.sim.field.ActiveAt(c.sim.simTime)
	out := make([]node.Transmission, len(active))
	for i, tx := range active {
		out[i] = node.Transmission{
			Id:          tx.Id,
			Transmitter: tx.Transmitter,
			StartTime:   tx.StartTime,
			EndTime:     tx.EndTime,
			Sf:          tx.Sf,
			Bandwidth:   tx.Bandwidth,
			CarrierHz:   tx.CarrierHz,
		}
	}
	return out
}
