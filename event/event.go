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

// Package event implements the kernel's single global event queue: a
// min-heap keyed on (time, insertion order) so that equal-time events
// dispatch in FIFO order, preserving determinism.
package event

import "container/heap"

// Action identifies which of the kernel's four dispatch routines an Event
// triggers.
type Action int

const (
	ActionSendMessage Action = iota
	ActionReceiveMessage
	ActionMaybeNotify
	ActionGenerateMessage
)

func (a Action) String() string {
	switch a {
	case ActionSendMessage:
		return "SendMessage"
	case ActionReceiveMessage:
		return "ReceiveMessage"
	case ActionMaybeNotify:
		return "MaybeNotify"
	case ActionGenerateMessage:
		return "GenerateMessage"
	default:
		return "Unknown"
	}
}

// NodeId identifies the node an Event concerns, i.e. the sender for
// SendMessage/GenerateMessage, the receiver for ReceiveMessage/MaybeNotify.
type NodeId int

// Event is one scheduled occurrence on the kernel's timeline.
type Event struct {
	Time   float64
	Action Action
	Node   NodeId

	// TransmissionId identifies the Transmission a ReceiveMessage event
	// concerns; zero for SendMessage/MaybeNotify/GenerateMessage (a send's
	// transmission id is assigned only when it is dispatched).
	TransmissionId uint64

	// Thread identifies which registered thread a MaybeNotify event targets.
	Thread string

	// MessageId identifies the user message a GenerateMessage event concerns.
	MessageId uint64

	// Payload carries the (header, content) pair for a SendMessage event;
	// the kernel is the only reader, type-asserting it back to its own
	// pending-send type. Unused by the other three actions.
	Payload interface{}

	seq   uint64 // insertion order, the FIFO tie-break
	index int    // heap.Interface bookkeeping
}

// queue is the underlying container/heap.Interface implementation; Queue
// wraps it so callers never touch heap mechanics directly.
type queue []*Event

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].Time != q[j].Time {
		return q[i].Time < q[j].Time
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}

func (q *queue) Push(x interface{}) {
	e := x.(*Event)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Queue is the kernel's event queue: a deterministic min-heap over (Time, seq).
type Queue struct {
	q       queue
	nextSeq uint64
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.q)
	return q
}

// Push schedules e, stamping it with the next insertion-order sequence
// number so ties at e.Time resolve FIFO.
func (eq *Queue) Push(e *Event) {
	e.seq = eq.nextSeq
	eq.nextSeq++
	heap.Push(&eq.q, e)
}

// Pop removes and returns the earliest-scheduled event, or nil if empty.
func (eq *Queue) Pop() *Event {
	if eq.q.Len() == 0 {
		return nil
	}
	return heap.Pop(&eq.q).(*Event)
}

// Peek returns the earliest-scheduled event without removing it, or nil.
func (eq *Queue) Peek() *Event {
	if eq.q.Len() == 0 {
		return nil
	}
	return eq.q[0]
}

// Len returns the number of pending events.
func (eq *Queue) Len() int {
	return eq.q.Len()
}

// Notification is the pending state of one cooperative "thread":
// a (thread, notification value, scheduled time) tuple. Threads are data,
// not goroutines.
type Notification struct {
	Value  interface{}
	AtTime float64
	Live   bool
}

// NotificationTable tracks, per node, the pending notification of each
// registered thread tag.
type NotificationTable struct {
	byNode map[NodeId]map[string]*Notification
}

// NewNotificationTable returns an empty NotificationTable.
func NewNotificationTable() *NotificationTable {
	return &NotificationTable{byNode: make(map[NodeId]map[string]*Notification)}
}

// RegisterThread ensures a (node, thread) slot exists, initially not live.
func (t *NotificationTable) RegisterThread(node NodeId, thread string) {
	m, ok := t.byNode[node]
	if !ok {
		m = make(map[string]*Notification)
		t.byNode[node] = m
	}
	if _, ok := m[thread]; !ok {
		m[thread] = &Notification{}
	}
}

// Get returns the current notification slot for (node, thread), or nil if
// the thread was never registered.
func (t *NotificationTable) Get(node NodeId, thread string) *Notification {
	m, ok := t.byNode[node]
	if !ok {
		return nil
	}
	return m[thread]
}

// Set overwrites the (node, thread) notification unconditionally.
func (t *NotificationTable) Set(node NodeId, thread string, value interface{}, atTime float64) {
	t.RegisterThread(node, thread)
	n := t.byNode[node][thread]
	n.Value = value
	n.AtTime = atTime
	n.Live = true
}

// Clear marks the (node, thread) notification consumed.
func (t *NotificationTable) Clear(node NodeId, thread string) {
	if m, ok := t.byNode[node]; ok {
		if n, ok := m[thread]; ok {
			n.Live = false
		}
	}
}
