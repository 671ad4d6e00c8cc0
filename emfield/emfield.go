// Copyright (c) 2022-2024, The OTNS Authors.
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

// Package emfield holds the simulator's electromagnetic field: the ordered
// list of every transmission, in flight or completed, that the transmission
// model consults for interference analysis. The kernel is the sole writer
// (append at sorted position); the transmission model only reads.
package emfield

import (
	"sort"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
	"github.com/simonlingoogle/go-simplelogger"
)

// Transmission is one transmitted packet's physical-layer footprint.
type Transmission struct {
	Id          uint64
	Transmitter node.Id
	StartTime   units.Time
	EndTime     units.Time
	Sf          int
	Bandwidth   units.Frequency
	CarrierHz   units.Frequency
	TxPower     units.Dbm
}

// Field is the append-only, end-time-sorted list of transmissions.
type Field struct {
	txs []Transmission
}

// New returns an empty Field.
func New() *Field {
	return &Field{}
}

// Insert appends t at the position that keeps txs sorted by EndTime
// ascending.
func (f *Field) Insert(t Transmission) {
	i := sort.Search(len(f.txs), func(i int) bool {
		return f.txs[i].EndTime >= t.EndTime
	})
	f.txs = append(f.txs, Transmission{})
	copy(f.txs[i+1:], f.txs[i:])
	f.txs[i] = t
}

// ById locates a transmission by id, scanning from the most recent (highest
// EndTime) backward, so the most recent retransmission of a reused id wins.
func (f *Field) ById(id uint64) (Transmission, bool) {
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].Id == id {
			return f.txs[i], true
		}
	}
	return Transmission{}, false
}

// Len returns the number of recorded transmissions.
func (f *Field) Len() int { return len(f.txs) }

// All returns every recorded transmission, end-time ascending. Callers must
// not mutate the returned slice.
func (f *Field) All() []Transmission {
	return f.txs
}

// ActiveAt returns every transmission whose [StartTime, EndTime) interval
// contains t, newest (latest EndTime) first -- the reverse-iterator view
// Context.ActiveTransmissions exposes to node models.
func (f *Field) ActiveAt(t units.Time) []Transmission {
	var out []Transmission
	for i := len(f.txs) - 1; i >= 0; i-- {
		tx := f.txs[i]
		if tx.StartTime <= t && t < tx.EndTime {
			out = append(out, tx)
		}
	}
	return out
}

// WalkBackFrom calls visit for every transmission with EndTime >= since,
// newest-first, stopping early if visit returns false. This is the sweep
// the transmission model's capture-effect interference scan and the
// kernel's channel-utilisation computation both use.
func (f *Field) WalkBackFrom(since units.Time, visit func(Transmission) bool) {
	for i := len(f.txs) - 1; i >= 0; i-- {
		tx := f.txs[i]
		if tx.EndTime < since {
			return
		}
		if !visit(tx) {
			return
		}
	}
}

// assertSorted is a debug aid exercised only by tests: verifies the
// end-time-ascending invariant the EM field is required to maintain.
func (f *Field) assertSorted() {
	for i := 1; i < len(f.txs); i++ {
		simplelogger.AssertTrue(f.txs[i].EndTime >= f.txs[i-1].EndTime, "EM field out of order at %d", i)
	}
}
