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

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePopsByTimeAscending(t *testing.T) {
	q := NewQueue()
	q.Push(&Event{Time: 5})
	q.Push(&Event{Time: 1})
	q.Push(&Event{Time: 3})

	var times []float64
	for e := q.Pop(); e != nil; e = q.Pop() {
		times = append(times, e.Time)
	}
	assert.Equal(t, []float64{1, 3, 5}, times)
}

func TestQueueBreaksTiesByInsertionOrder(t *testing.T) {
	q := NewQueue()
	q.Push(&Event{Time: 1, Node: 10})
	q.Push(&Event{Time: 1, Node: 20})
	q.Push(&Event{Time: 1, Node: 30})

	require.Equal(t, NodeId(10), q.Pop().Node)
	require.Equal(t, NodeId(20), q.Pop().Node)
	require.Equal(t, NodeId(30), q.Pop().Node)
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := NewQueue()
	q.Push(&Event{Time: 2})
	require.Equal(t, 1, q.Len())
	e := q.Peek()
	require.NotNil(t, e)
	assert.Equal(t, 1, q.Len())
}

func TestNotificationTableSetAndClear(t *testing.T) {
	nt := NewNotificationTable()
	nt.RegisterThread(1, "Radio")
	assert.False(t, nt.Get(1, "Radio").Live)

	nt.Set(1, "Radio", "payload", 4.0)
	n := nt.Get(1, "Radio")
	require.True(t, n.Live)
	assert.Equal(t, "payload", n.Value)
	assert.Equal(t, 4.0, n.AtTime)

	nt.Clear(1, "Radio")
	assert.False(t, nt.Get(1, "Radio").Live)
}
