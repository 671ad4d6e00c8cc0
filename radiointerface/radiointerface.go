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

// Package radiointerface implements the channel-access component shared by
// every node model except NoRouting: a FIFO or LIFO queue of
// packets awaiting transmission, a CAD-style busy/in-use check, and the
// SNR-weighted slotted backoff used to pick the next transmit attempt.
package radiointerface

import (
	"math"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
)

// Thread is the cooperative-thread tag this component registers and drives.
const Thread = "Radio"

// cwMin and cwMax bound the contention window exponent; also
// used directly in the multiplier formulas.
const (
	cwMin = 2
	cwMax = 7
	cwDiff = cwMax - cwMin
)

const (
	snrMin = -15.0
	snrMax = 20.0
	snrDiff = snrMax - snrMin
)

// slotTimeFixedMs is slot_time's fixed adjustment: CAD (0.2ms)
// + RX-to-TX turnaround (0.4ms) + radio processing (7ms).
const slotTimeFixedMs = 0.2 + 0.4 + 7.0

// slotTime computes 8.5*2^sf/bandwidth + fixed adjustment.
func slotTime(bandwidth units.Frequency, sf int) units.Time {
	seconds := 8.5*math.Pow(2, float64(sf))/float64(bandwidth) + slotTimeFixedMs/1000
	return units.Seconds(seconds)
}

// transmitDelayCompleted is the sole notification this component schedules
// on the Radio thread; node models never construct it directly.
type transmitDelayCompleted struct{}

// Discipline selects the queue-pop order.
type Discipline int

const (
	// FIFO pops the oldest queued packet first (BasicFlood and most models).
	FIFO Discipline = iota
	// LIFO pops the most recently queued packet first: "newer messages
	// preempt older ones".
	LIFO
)

// Packet is one packet awaiting transmission. Snr is non-nil when the
// packet originated as a received-and-forwarded packet: its
// presence selects the weighted backoff branch.
type Packet struct {
	Header  node.Header
	Content node.MessageContent
	Size    int
	Snr     *units.Dbm
}

// Interface is the shared radio-interface component.
type Interface struct {
	discipline Discipline
	queue      []Packet
}

// New returns an empty Interface using the given pop discipline.
func New(discipline Discipline) *Interface {
	return &Interface{discipline: discipline}
}

// OnInitialise registers the Radio thread; call from a node model's
// Initialise.
func (r *Interface) OnInitialise(ctx node.Context) {
	ctx.RegisterThread(Thread)
}

// Send enqueues p at the back and arms the transmit-delay notification.
func (r *Interface) Send(ctx node.Context, p Packet) {
	r.queue = append(r.queue, p)
	r.setTransmitDelay(ctx)
}

// PrioritySend enqueues p at the front, ahead of everything already queued.
func (r *Interface) PrioritySend(ctx node.Context, p Packet) {
	r.queue = append([]Packet{p}, r.queue...)
	r.setTransmitDelay(ctx)
}

// CancelSending removes the first queued packet whose header carries id,
// reporting whether one was found.
func (r *Interface) CancelSending(id node.GlobalPacketId) bool {
	for i, p := range r.queue {
		if p.Header.Id == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return true
		}
	}
	return false
}

// OnGetNotified handles the TransmitDelayCompleted notification; call from
// a node model's GetNotified for the Radio thread.
func (r *Interface) OnGetNotified(ctx node.Context, n node.Notification) {
	if _, ok := n.(transmitDelayCompleted); !ok {
		return
	}
	if len(r.queue) == 0 {
		return
	}

	if ctx.IsTransmitting() || ctx.ChannelInUse() {
		r.setTransmitDelay(ctx)
		return
	}

	p := r.pop()
	ctx.EnqueueSend(p.Header, p.Content)
	// Always reschedule after a successful dispatch, even though this
	// deviates from the reference firmware:
	// otherwise a non-empty queue with no further sends would stall.
	r.setTransmitDelay(ctx)
}

// front returns the packet this interface would pop next, and whether the
// queue is non-empty.
func (r *Interface) front() (Packet, bool) {
	if len(r.queue) == 0 {
		return Packet{}, false
	}
	if r.discipline == LIFO {
		return r.queue[len(r.queue)-1], true
	}
	return r.queue[0], true
}

func (r *Interface) pop() Packet {
	if r.discipline == LIFO {
		i := len(r.queue) - 1
		p := r.queue[i]
		r.queue = r.queue[:i]
		return p
	}
	p := r.queue[0]
	r.queue = r.queue[1:]
	return p
}

// setTransmitDelay computes the backoff delay for the next queued packet and
// arms the Radio thread, without overriding an already-pending delay.
func (r *Interface) setTransmitDelay(ctx node.Context) {
	p, ok := r.front()
	if !ok {
		return
	}

	var delay units.Time
	if p.Snr != nil {
		delay = weightedDelay(*p.Snr, ctx)
	} else {
		delay = unweightedDelay(ctx)
	}
	ctx.NotifyLater(delay, transmitDelayCompleted{}, Thread, false)
}

// weightedDelay is the backoff used for a forwarded packet carrying a
// recorded reception SNR.
func weightedDelay(snr units.Dbm, ctx node.Context) units.Time {
	unitySnr := clamp01((float64(snr) - snrMin) / snrDiff)
	cw := math.Floor(unitySnr*cwDiff) + cwMin
	multiplier := 2*float64(cwMax) + math.Floor(ctx.Rng(0, math.Pow(2, cw)))

	s := ctx.Settings()
	return units.Seconds(multiplier * float64(slotTime(s.Bandwidth, s.Sf)))
}

// unweightedDelay is the backoff used for an originally-generated packet
//, derived from channel utilisation.
func unweightedDelay(ctx node.Context) units.Time {
	cw := math.Floor(ctx.ChannelUtilisation()*cwDiff) + cwMin
	multiplier := math.Floor(ctx.Rng(0, math.Pow(2, cw)))

	s := ctx.Settings()
	return units.Seconds(multiplier * float64(slotTime(s.Bandwidth, s.Sf)))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// RetransmissionDelay computes the Meshtastic retransmission-thread delay
//: twice the packet's airtime, plus a contention-window term
// derived from channel utilisation, plus a fixed processing time.
func RetransmissionDelay(ctx node.Context, airtime units.Time) units.Time {
	cw := math.Floor(ctx.ChannelUtilisation()*cwDiff) + cwMin
	s := ctx.Settings()

	windowMs := math.Pow(2, cw) + 2*float64(cwMax)
	slotTerm := math.Pow(2, float64(cwMax)+float64(cwMin)/2) * float64(slotTime(s.Bandwidth, s.Sf))
	const processingTime = 4.5 // seconds (4500 ms fixed processing allowance)

	return units.Seconds(2*float64(airtime) + windowMs/1000 + slotTerm + processingTime)
}
