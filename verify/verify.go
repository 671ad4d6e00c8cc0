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

// Package verify turns the simulation's core physical-layer invariants into
// runnable checks over a completed kernel.SimOutput, rather than leaving
// them as informal prose. Every Check is a pure, read-only scan; none of
// this package mutates a simulation.
package verify

import (
	"fmt"
	"sort"

	"github.com/loramesh/meshsim/kernel"
	"github.com/loramesh/meshsim/node"
)

// Violation is one invariant that failed to hold, naming which check found it
// and a human-readable detail.
type Violation struct {
	Check string
	Detail string
}

func (v Violation) String() string { return fmt.Sprintf("%s: %s", v.Check, v.Detail) }

// Check runs every invariant check over out and returns every violation
// found; an empty result means out is internally consistent.
func Check(out kernel.SimOutput) []Violation {
	var violations []Violation
	violations = append(violations, checkEMFieldOrdered(out)...)
	violations = append(violations, checkNoOverlappingTransmission(out)...)
	violations = append(violations, checkNoOverlappingReception(out)...)
	violations = append(violations, checkNoSendWhileReceiving(out)...)
	violations = append(violations, checkReceptionHasMatchingSend(out)...)
	return violations
}

func overlaps(a, b kernel.TransmissionRecord) bool {
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

// checkEMFieldOrdered verifies the recorded transmissions are end-time
// ascending, the invariant emfield.Field.Insert is responsible for
// maintaining.
func checkEMFieldOrdered(out kernel.SimOutput) []Violation {
	var violations []Violation
	for i := 1; i < len(out.Transmissions); i++ {
		if out.Transmissions[i].EndTime < out.Transmissions[i-1].EndTime {
			violations = append(violations, Violation{
				Check:  "em_field_ordered",
				Detail: fmt.Sprintf("transmission %d (end %v) precedes %d (end %v) out of order", out.Transmissions[i].Id, out.Transmissions[i].EndTime, out.Transmissions[i-1].Id, out.Transmissions[i-1].EndTime),
			})
		}
	}
	return violations
}

// checkNoOverlappingTransmission verifies no node ever has two transmissions
// in flight at once: a node cannot
// begin sending again before its previous send's airtime has elapsed.
func checkNoOverlappingTransmission(out kernel.SimOutput) []Violation {
	var violations []Violation
	txs := out.Transmissions
	for i := range txs {
		for j := range txs {
			if i == j {
				continue
			}
			if txs[i].Transmitter == txs[j].Transmitter && overlaps(txs[i], txs[j]) {
				violations = append(violations, Violation{
					Check:  "no_overlapping_transmission",
					Detail: fmt.Sprintf("node %d transmissions %d and %d overlap", txs[i].Transmitter, txs[i].Id, txs[j].Id),
				})
			}
		}
	}
	return violations
}

// checkNoOverlappingReception verifies no node ever receives two
// transmissions at once: the radio
// model's capture effect always picks at most one winner per overlapping
// group, per receiver.
func checkNoOverlappingReception(out kernel.SimOutput) []Violation {
	var violations []Violation
	type reception struct {
		node node.Id
		tx   kernel.TransmissionRecord
	}
	var receptions []reception
	byId := indexById(out.Transmissions)

	for _, l := range out.Logs {
		if l.Kind != kernel.LogTransmissionReceived {
			continue
		}
		tx, ok := byId[l.TransmissionID]
		if !ok {
			continue
		}
		receptions = append(receptions, reception{node: l.NodeID, tx: tx})
	}

	for i := range receptions {
		for j := range receptions {
			if i == j {
				continue
			}
			if receptions[i].node != receptions[j].node {
				continue
			}
			if receptions[i].tx.Id == receptions[j].tx.Id {
				continue
			}
			if overlaps(receptions[i].tx, receptions[j].tx) {
				violations = append(violations, Violation{
					Check:  "no_overlapping_reception",
					Detail: fmt.Sprintf("node %d received overlapping transmissions %d and %d", receptions[i].node, receptions[i].tx.Id, receptions[j].tx.Id),
				})
			}
		}
	}
	return violations
}

// checkNoSendWhileReceiving verifies that no two overlapping transmissions
// are recorded where either one's transmitter also received the other --
// the radio is half-duplex.
func checkNoSendWhileReceiving(out kernel.SimOutput) []Violation {
	var violations []Violation
	txs := out.Transmissions
	receivers := receiversByTransmission(out)

	for i := range txs {
		for j := range txs {
			if i >= j || !overlaps(txs[i], txs[j]) {
				continue
			}
			if contains(receivers[txs[i].Id], txs[j].Transmitter) || contains(receivers[txs[j].Id], txs[i].Transmitter) {
				violations = append(violations, Violation{
					Check:  "no_send_while_receiving",
					Detail: fmt.Sprintf("transmissions %d and %d overlap while one transmitter also received the other", txs[i].Id, txs[j].Id),
				})
			}
		}
	}
	return violations
}

// checkReceptionHasMatchingSend verifies every TransmissionReceived and
// TransmissionBlocked log entry names a transmission id that was actually
// recorded -- a basic sanity check that the kernel never fabricates a
// reception. It does not check that the receiving node is adjacent to the
// sender: SimOutput carries no topology.
func checkReceptionHasMatchingSend(out kernel.SimOutput) []Violation {
	var violations []Violation
	byId := indexById(out.Transmissions)
	for _, l := range out.Logs {
		if l.Kind != kernel.LogTransmissionReceived && l.Kind != kernel.LogTransmissionBlocked {
			continue
		}
		if _, ok := byId[l.TransmissionID]; !ok {
			violations = append(violations, Violation{
				Check:  "reception_has_matching_send",
				Detail: fmt.Sprintf("node %d log entry references unknown transmission %d", l.NodeID, l.TransmissionID),
			})
		}
	}
	return violations
}

func indexById(txs []kernel.TransmissionRecord) map[uint64]kernel.TransmissionRecord {
	m := make(map[uint64]kernel.TransmissionRecord, len(txs))
	for _, tx := range txs {
		m[tx.Id] = tx
	}
	return m
}

func receiversByTransmission(out kernel.SimOutput) map[uint64][]node.Id {
	m := make(map[uint64][]node.Id)
	for _, l := range out.Logs {
		if l.Kind != kernel.LogTransmissionReceived {
			continue
		}
		m[l.TransmissionID] = append(m[l.TransmissionID], l.NodeID)
	}
	return m
}

func contains(ids []node.Id, id node.Id) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// SortedViolations returns violations ordered by check name then detail, for
// deterministic test assertions and log output.
func SortedViolations(violations []Violation) []Violation {
	out := append([]Violation(nil), violations...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Check != out[j].Check {
			return out[i].Check < out[j].Check
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}
