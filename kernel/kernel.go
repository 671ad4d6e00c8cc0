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

// Package kernel is the discrete-event simulation core: the
// event queue, the EM field, the transmission model and the registered node
// models are all driven from here, one event at a time, in strict
// (time, insertion-order) sequence.
package kernel

import (
	"math"
	"sort"
	"strings"

	"github.com/simonlingoogle/go-simplelogger"

	"github.com/loramesh/meshsim/emfield"
	"github.com/loramesh/meshsim/event"
	"github.com/loramesh/meshsim/logger"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/prng"
	"github.com/loramesh/meshsim/radiomodel"
	"github.com/loramesh/meshsim/scenario"
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// Config holds the ambient, scenario-independent knobs a run is built with
//.
type Config struct {
	// CutoffTime is SIM_END: once an event's time reaches or passes it, the
	// remainder of the queue is drained unprocessed.
	CutoffTime units.Time
	// Seed is not read by New: the run's random stream and
	// OutputIdentity.Seed both come from the scenario's Seed.
	Seed int64
	// NodeLogging enables Context.Log entries in the output; off by default
	// because most callers only want the transmission log.
	NodeLogging bool
}

// DefaultConfig returns a 4-hour cutoff, seed 0, node logging off.
func DefaultConfig() Config {
	return Config{CutoffTime: units.Seconds(4 * 3600)}
}

// sendPayload is the (header, content) pair an EnqueueSend carries through
// the generic event queue to the kernel's own SendMessage dispatch.
type sendPayload struct {
	header  node.Header
	content node.MessageContent
}

// registeredMessage is one user message's kernel-visible bookkeeping, keyed
// by the MessageId the node models receive.
type registeredMessage struct {
	size    int
	targets []node.Id
}

const (
	utilPeriods   = 6
	utilPeriodLen = units.Time(10.0)
)

// Simulation drives one scenario from t=0 to completion or cutoff. It is
// the sole owner of the event queue, the EM field and every node model.
type Simulation struct {
	cfg Config
	sc  scenario.Scenario

	simTime units.Time
	queue   *event.Queue
	notify  *event.NotificationTable
	field   *emfield.Field
	radio   *radiomodel.Model
	topo    topology.Topology
	rng     *prng.Stream

	models       []node.Model
	settings     []node.NodeSettings
	reactionTime []units.Time
	clockOffset  []units.Time
	isGateway    []bool

	nextTransId uint64
	records     []TransmissionRecord
	recordIndex map[uint64]int

	messages []registeredMessage

	logs []LogEntry

	identity string

	initialised bool
}

// New builds a Simulation over sc, one models[i] per sc.Nodes[i]. Panics (via
// simplelogger.AssertTrue) if the lengths disagree: scenario/model pairing is
// a caller-verified precondition, not a runtime error.
func New(cfg Config, sc scenario.Scenario, models []node.Model) *Simulation {
	simplelogger.AssertTrue(len(models) == len(sc.Nodes), "one model required per scenario node: got %d models for %d nodes", len(models), len(sc.Nodes))

	field := emfield.New()
	rng := prng.NewStream(sc.Seed)
	radio := radiomodel.New(sc.RadioParams, sc.Topology, field, rng)

	s := &Simulation{
		cfg:         cfg,
		sc:          sc,
		queue:       event.NewQueue(),
		notify:      event.NewNotificationTable(),
		field:       field,
		radio:       radio,
		topo:        sc.Topology,
		rng:         rng,
		models:      models,
		recordIndex: make(map[uint64]int),
	}

	for _, n := range sc.Nodes {
		s.settings = append(s.settings, n.Settings())
		s.reactionTime = append(s.reactionTime, n.ReactionTime)
		s.clockOffset = append(s.clockOffset, n.ClockOffset)
		s.isGateway = append(s.isGateway, n.IsGateway)
	}

	s.registerMessages(sc.Messages)
	return s
}

func (s *Simulation) registerMessages(msgs []scenario.UserMessage) {
	for i, m := range msgs {
		id := uint64(i)
		s.messages = append(s.messages, registeredMessage{size: m.ClampedSize(), targets: m.Targets})

		generations := 1 + m.RepeatCount
		for g := 0; g < generations; g++ {
			at := m.GenerateTime + units.Time(g)*m.RepeatSpacing
			s.queue.Push(&event.Event{
				Time:      float64(at),
				Action:    event.ActionGenerateMessage,
				Node:      event.NodeId(m.Sender),
				MessageId: id,
			})
		}
	}
}

// Initialise calls Initialise on every node model and derives the run's
// identity string: every distinct
// node.Model.IdentityStr(), deduplicated, joined with "; ".
func (s *Simulation) Initialise() {
	if s.initialised {
		return
	}
	s.initialised = true

	seen := make(map[string]bool)
	var distinct []string
	for i, m := range s.models {
		m.Initialise(s.contextFor(node.Id(i)))
		id := m.IdentityStr()
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Strings(distinct)
	s.identity = strings.Join(distinct, "; ")

	logger.Infof("simulation initialised: %d nodes, %d messages, identity=%q", len(s.models), len(s.messages), s.identity)
}

// Finished reports whether the event queue has nothing left to process.
func (s *Simulation) Finished() bool {
	return s.queue.Len() == 0
}

// Run initialises the simulation (if not already) and steps it to
// completion, returning the full output.
func (s *Simulation) Run() SimOutput {
	s.Initialise()
	for !s.Finished() {
		s.Step()
	}
	logger.Infof("simulation finished at t=%.6f: %d transmissions, %d log entries", s.simTime.Seconds(), len(s.records), len(s.logs))
	return s.Output()
}

// Output snapshots everything the run has produced so far, with the
// transmissions in end-time ascending order, as the EM field holds them.
func (s *Simulation) Output() SimOutput {
	txs := append([]TransmissionRecord(nil), s.records...)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].EndTime < txs[j].EndTime })
	return SimOutput{
		Logs:          append([]LogEntry(nil), s.logs...),
		Transmissions: txs,
		Identity: OutputIdentity{
			ModelIdentity: s.identity,
			Seed:          s.sc.Seed,
			Version:       SimulatorVersion,
		},
	}
}

// Step pops and dispatches the single earliest-scheduled event, or drains
// the rest of the queue unprocessed once the cutoff time is reached.
func (s *Simulation) Step() {
	e := s.queue.Pop()
	if e == nil {
		return
	}
	s.simTime = units.Time(e.Time)

	if s.simTime >= s.cfg.CutoffTime {
		for s.queue.Pop() != nil {
		}
		return
	}

	switch e.Action {
	case event.ActionGenerateMessage:
		s.dispatchGenerateMessage(e)
	case event.ActionSendMessage:
		s.dispatchSendMessage(e)
	case event.ActionReceiveMessage:
		s.dispatchReceiveMessage(e)
	case event.ActionMaybeNotify:
		s.dispatchMaybeNotify(e)
	}
}

func (s *Simulation) dispatchGenerateMessage(e *event.Event) {
	id := node.Id(e.Node)
	msg := s.messages[e.MessageId]
	content := node.MessageContent{Kind: node.ContentGenerated, MessageId: e.MessageId}
	info := node.MessageInfo{MessageId: e.MessageId, Targets: msg.targets, Size: msg.size}
	s.models[id].GenerateMessage(s.contextFor(id), content, info)
}

func (s *Simulation) dispatchSendMessage(e *event.Event) {
	id := node.Id(e.Node)
	p := e.Payload.(sendPayload)

	if s.isTransmitting(id) {
		s.models[id].HandleError(s.contextFor(id), &RadioBusyError{Header: p.header, Content: p.content})
		return
	}

	settings := s.settings[id]
	msgSize := s.messageSize(p.content)
	airtime := radiomodel.CalculateAirtime(msgSize+radiomodel.HeaderSizeBytes, settings.Sf, settings.Bandwidth, settings.CodingRate)

	transId := s.nextTransId
	s.nextTransId++

	tx := emfield.Transmission{
		Id:          transId,
		Transmitter: id,
		StartTime:   s.simTime,
		EndTime:     s.simTime + airtime,
		Sf:          settings.Sf,
		Bandwidth:   settings.Bandwidth,
		CarrierHz:   settings.CarrierFreq,
		TxPower:     settings.Power,
	}
	s.field.Insert(tx)

	s.recordIndex[transId] = len(s.records)
	s.records = append(s.records, TransmissionRecord{
		Transmission: tx,
		Header:       p.header,
		Content:      p.content,
		MessageSize:  msgSize,
	})

	for _, adj := range s.topo.Adjacent(topology.NodeId(id)) {
		s.queue.Push(&event.Event{
			Time:           float64(tx.EndTime),
			Action:         event.ActionReceiveMessage,
			Node:           event.NodeId(adj),
			TransmissionId: transId,
		})
	}

	s.appendLog(LogEntry{Time: s.simTime, Level: LogInfo, Source: LogSource{IsSimulation: true}, Kind: LogTransmissionSent, NodeID: id, TransmissionID: transId})
}

func (s *Simulation) dispatchReceiveMessage(e *event.Event) {
	id := node.Id(e.Node)
	tx, ok := s.field.ById(e.TransmissionId)
	if !ok {
		return
	}

	outcome := s.radio.ReceptionAt(id, tx)
	switch outcome.Kind {
	case radiomodel.OutcomeBlocked:
		s.appendLog(LogEntry{Time: s.simTime, Level: LogDebug, Source: LogSource{IsSimulation: true}, Kind: LogTransmissionBlocked, NodeID: id, TransmissionID: tx.Id, BlockerID: outcome.Blocker})
		return
	case radiomodel.OutcomeTooWeak:
		return
	}

	record := s.records[s.recordIndex[tx.Id]]
	s.models[id].ReceiveMessage(s.contextFor(id), record.Header, record.Content.Clone(), record.MessageSize, outcome.Snr)
	s.appendLog(LogEntry{Time: s.simTime, Level: LogInfo, Source: LogSource{IsSimulation: true}, Kind: LogTransmissionReceived, NodeID: id, TransmissionID: tx.Id})
}

func (s *Simulation) dispatchMaybeNotify(e *event.Event) {
	id := node.Id(e.Node)
	n := s.notify.Get(event.NodeId(id), e.Thread)
	if n == nil || !n.Live || n.AtTime != e.Time {
		return
	}
	val := n.Value
	s.notify.Clear(event.NodeId(id), e.Thread)
	s.models[id].GetNotified(s.contextFor(id), val, e.Thread)
}

func (s *Simulation) appendLog(l LogEntry) {
	if l.Kind == LogText && !s.cfg.NodeLogging {
		return
	}
	s.logs = append(s.logs, l)
}

// isTransmitting reports whether id currently has a transmission in flight.
// Any transmission present in the EM field by the time a later event is
// dispatched necessarily already started (events dispatch in time order), so
// the StartTime<=t<EndTime membership ActiveAt checks is equivalent to the
// Rust end_time>=sim_time scan.
func (s *Simulation) isTransmitting(id node.Id) bool {
	for _, tx := range s.field.ActiveAt(s.simTime) {
		if tx.Transmitter == id {
			return true
		}
	}
	return false
}

// messageSize resolves a MessageContent to its on-air payload size: the
// clamped size of the registered user message for ContentGenerated, or the
// fixed 8-byte envelope for a routing/ack packet carrying no payload.
func (s *Simulation) messageSize(c node.MessageContent) int {
	switch c.Kind {
	case node.ContentGenerated, node.ContentUser:
		return s.messages[c.MessageId].size
	default: // ContentEmpty
		return 8
	}
}

// channelUtilisation computes the rolling, 6-bucket-of-10s observed channel
// utilisation at node id, reverse-sweeping the EM field and keeping only
// transmissions id would actually have detected.
func (s *Simulation) channelUtilisation(id node.Id) float64 {
	fullPeriods := units.Time(utilPeriods - 1)
	mod := units.Time(math.Mod(s.simTime.Seconds(), utilPeriodLen.Seconds()))
	lookBack := fullPeriods*utilPeriodLen + mod

	limitTime := s.simTime - lookBack
	endClamp := s.simTime
	startClamp := limitTime
	total := units.Time(0)

	s.field.WalkBackFrom(limitTime, func(tx emfield.Transmission) bool {
		if !s.radio.DetectedAt(id, tx) {
			return true
		}
		if tx.StartTime < endClamp {
			lo := tx.StartTime
			if lo < startClamp {
				lo = startClamp
			}
			hi := tx.EndTime
			if hi > endClamp {
				hi = endClamp
			}
			total += hi - lo
			endClamp = tx.StartTime
			if endClamp < startClamp {
				return false
			}
		}
		return true
	})

	out := float64(total) / float64(lookBack)
	simplelogger.AssertTrue(out >= 0 && out <= 1.00001, "channel utilisation %f out of range for node %d", out, id)
	return out
}

// NodeCount returns the number of nodes in the underlying scenario.
func (s *Simulation) NodeCount() int { return len(s.sc.Nodes) }

// IsGateway reports whether id is marked as a gateway by the scenario.
func (s *Simulation) IsGateway(id node.Id) bool { return s.isGateway[id] }

// Scenario returns the scenario this run was built from.
func (s *Simulation) Scenario() scenario.Scenario { return s.sc }
