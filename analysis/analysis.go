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

// Package analysis derives post-hoc delivery metrics over a completed
// simulation run: reception rate, latency scores, packet/transmission
// directness, packet uniqueness, the emergency result and the gateway slice
// of all of the above. Nothing here affects the simulation itself; it is a
// pure function of a kernel.SimOutput and the scenario.Scenario that
// produced it.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/loramesh/meshsim/kernel"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/scenario"
	"github.com/loramesh/meshsim/units"
)

// Horizons for the latency score and the threshold-reception metrics.
var (
	latencyHorizons   = []units.Time{units.Seconds(120), units.Seconds(600), units.Seconds(6000)}
	receptionHorizons = []units.Time{units.Seconds(120), units.Seconds(600), units.Seconds(1800), units.Seconds(6000)}
)

// WantedMessage is one node's interest in one message: whether it received
// it at all, and if so, the lowest latency across every transmission that
// delivered it.
type WantedMessage struct {
	MessageId  uint64
	Received   bool
	Latency    units.Time
	HasLatency bool
}

// EmergencyOutcome is the scenario-wide emergency result: no emergency message existed, one existed but never
// reached a gateway, or one reached a gateway after Latency.
type EmergencyOutcome struct {
	Kind    EmergencyKind
	Latency units.Time
}

type EmergencyKind int

const (
	NoEmergency EmergencyKind = iota
	EmergencyNotReceived
	EmergencyDelivered
)

// Reception holds every metric §4.9 defines over the scenario's wanted
// messages.
type Reception struct {
	WantedMessages   [][]WantedMessage // indexed by node id
	ReceivedMessages [][]uint64        // indexed by node id, sorted ascending

	AvgLatencyPerNode []units.Time
	AvgAvgLatency     units.Time
	MinAvgLatency     units.Time
	MaxAvgLatency     units.Time
	GlobalLatency     units.Time

	L120Score  units.Time
	L600Score  units.Time
	L6000Score units.Time

	T120Reception  float64
	T600Reception  float64
	T1800Reception float64
	T6000Reception float64

	Emergency EmergencyOutcome

	AllPacketUniqueness     float64
	MessagePacketUniqueness float64
	PhantomUniqueness       float64

	ReceptionRate        []float64
	GlobalReceptionRate  float64
	AverageReceptionRate float64
	MaxReceptionRate     float64
	MinReceptionRate     float64

	MessageReceptionDirectness       float64
	ReceptionDirectness              float64
	MessageReceptionUniqueDirectness float64
	ReceptionUniqueDirectness        float64

	MessageTransmissionDirectness       float64
	TransmissionDirectness              float64
	MessageTransmissionUniqueDirectness float64
	TransmissionUniqueDirectness        float64

	GatewayReception float64
	GatewayLatency   units.Time
}

// Result is everything derived from a single simulation run.
type Result struct {
	NodeEvents [][]kernel.LogEntry // indexed by node id
	SimEvents  []kernel.LogEntry   // kernel-sourced entries, time-ordered

	TransmissionSentEvents     int
	TransmissionReceivedEvents int
	TransmissionBlockedEvents  int

	Transmissions []kernel.TransmissionRecord // start-time ordered
	TotalAirtime  units.Time
	EndTime       units.Time

	Reception Reception
	Identity  kernel.OutputIdentity
}

// Analyze derives Result from out, the product of running sc through the
// kernel. The independent Reception sub-metrics (latency scores, threshold
// reception, uniqueness, directness, emergency, gateway slice) are fanned out
// over an errgroup.Group once their shared precursors (per-node received-set
// and best-latency maps) are built, and joined on the first error.
func Analyze(sc scenario.Scenario, out kernel.SimOutput) (Result, error) {
	nodeCount := len(sc.Nodes)

	nodeEvents := make([][]kernel.LogEntry, nodeCount)
	var simEvents []kernel.LogEntry
	for _, e := range out.Logs {
		if e.Source.IsSimulation {
			simEvents = append(simEvents, e)
		} else {
			nodeEvents[e.Source.Node] = append(nodeEvents[e.Source.Node], e)
		}
	}
	sort.SliceStable(simEvents, func(i, j int) bool { return simEvents[i].Time < simEvents[j].Time })
	for _, list := range nodeEvents {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Time < list[j].Time })
	}

	endTime := units.Seconds(1)
	if n := len(simEvents); n > 0 {
		endTime = simEvents[n-1].Time
	}

	var sentN, recvN, blockedN int
	for _, e := range simEvents {
		switch e.Kind {
		case kernel.LogTransmissionSent:
			sentN++
		case kernel.LogTransmissionReceived:
			recvN++
		case kernel.LogTransmissionBlocked:
			blockedN++
		}
	}

	transmissions := append([]kernel.TransmissionRecord(nil), out.Transmissions...)
	sort.SliceStable(transmissions, func(i, j int) bool {
		return transmissions[i].StartTime < transmissions[j].StartTime
	})

	var totalAirtime units.Time
	idByTransId := make(map[uint64]int, len(transmissions))
	for i, tx := range transmissions {
		totalAirtime += tx.EndTime - tx.StartTime
		idByTransId[tx.Id] = i
	}

	reception, err := analyzeReception(sc, transmissions, idByTransId, simEvents, nodeCount)
	if err != nil {
		return Result{}, err
	}

	return Result{
		NodeEvents:                 nodeEvents,
		SimEvents:                  simEvents,
		TransmissionSentEvents:     sentN,
		TransmissionReceivedEvents: recvN,
		TransmissionBlockedEvents:  blockedN,
		Transmissions:              transmissions,
		TotalAirtime:               totalAirtime,
		EndTime:                    endTime,
		Reception:                  reception,
		Identity:                   out.Identity,
	}, nil
}

func analyzeReception(
	sc scenario.Scenario,
	transmissions []kernel.TransmissionRecord,
	idByTransId map[uint64]int,
	simEvents []kernel.LogEntry,
	nodeCount int,
) (Reception, error) {
	receivedSet := make([]map[uint64]struct{}, nodeCount)
	latencyPerNode := make([]map[uint64]units.Time, nodeCount)
	bestTransPerNode := make([]map[uint64]uint64, nodeCount)
	for i := range receivedSet {
		receivedSet[i] = make(map[uint64]struct{})
		latencyPerNode[i] = make(map[uint64]units.Time)
		bestTransPerNode[i] = make(map[uint64]uint64)
	}

	for _, e := range simEvents {
		if e.Kind != kernel.LogTransmissionReceived {
			continue
		}
		tx := transmissions[idByTransId[e.TransmissionID]]
		if tx.Content.Kind != node.ContentGenerated {
			continue
		}
		msgId := tx.Content.MessageId
		receiver := e.NodeID
		receivedSet[receiver][msgId] = struct{}{}

		latency := tx.EndTime - sc.Messages[msgId].GenerateTime
		if prev, ok := latencyPerNode[receiver][msgId]; !ok || latency < prev {
			latencyPerNode[receiver][msgId] = latency
			bestTransPerNode[receiver][msgId] = e.TransmissionID
		}
	}

	wantedMessages := make([][]WantedMessage, nodeCount)
	for msgId, m := range sc.Messages {
		for _, target := range m.Targets {
			_, received := receivedSet[target][uint64(msgId)]
			lat, hasLat := latencyPerNode[target][uint64(msgId)]
			wantedMessages[target] = append(wantedMessages[target], WantedMessage{
				MessageId:  uint64(msgId),
				Received:   received,
				Latency:    lat,
				HasLatency: hasLat,
			})
		}
	}

	receivedMessages := make([][]uint64, nodeCount)
	for i, set := range receivedSet {
		for id := range set {
			receivedMessages[i] = append(receivedMessages[i], id)
		}
		sort.Slice(receivedMessages[i], func(a, b int) bool { return receivedMessages[i][a] < receivedMessages[i][b] })
	}

	var (
		l120, l600, l6000          units.Time
		t120, t600, t1800, t6000   float64
		allUniq, msgUniq, phantom  float64
		msgRecDirect, recDirect    float64
		msgRecUDirect, recUDirect  float64
		msgTxDirect, txDirect      float64
		msgTxUDirect, txUDirect    float64
		emergency                  EmergencyOutcome
		globalLatency              units.Time
		globalRate                 float64
		gatewayRate                float64
		gatewayLatency             units.Time
	)

	var g errgroup.Group

	g.Go(func() error {
		l120 = latencyScore(wantedMessages, latencyHorizons[0])
		l600 = latencyScore(wantedMessages, latencyHorizons[1])
		l6000 = latencyScore(wantedMessages, latencyHorizons[2])
		return nil
	})

	g.Go(func() error {
		t120 = thresholdReception(wantedMessages, receptionHorizons[0])
		t600 = thresholdReception(wantedMessages, receptionHorizons[1])
		t1800 = thresholdReception(wantedMessages, receptionHorizons[2])
		t6000 = thresholdReception(wantedMessages, receptionHorizons[3])
		return nil
	})

	g.Go(func() error {
		var err error
		allUniq, msgUniq, phantom, err = packetUniqueness(simEvents, transmissions, idByTransId, receivedSet)
		return err
	})

	g.Go(func() error {
		msgRecDirect, recDirect, msgRecUDirect, recUDirect = receptionDirectness(simEvents, transmissions, idByTransId, wantedMessages)
		return nil
	})

	g.Go(func() error {
		msgTxDirect, txDirect, msgTxUDirect, txUDirect = transmissionDirectness(simEvents, transmissions, idByTransId, wantedMessages, bestTransPerNode)
		return nil
	})

	g.Go(func() error {
		emergency = emergencyResult(sc, simEvents, transmissions, idByTransId)
		return nil
	})

	g.Go(func() error {
		globalLatency = globalAvgLatency(wantedMessages)
		globalRate = globalReceptionRate(wantedMessages)
		return nil
	})

	g.Go(func() error {
		gatewayRate, gatewayLatency = gatewaySlice(sc, wantedMessages)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Reception{}, err
	}

	avgLatencyPerNode := make([]units.Time, nodeCount)
	for i, list := range wantedMessages {
		var sum units.Time
		var count int
		for _, w := range list {
			if w.HasLatency {
				sum += w.Latency
				count++
			}
		}
		avgLatencyPerNode[i] = sum / units.Time(math.Max(float64(count), 1))
	}

	avgAvg, minAvg, maxAvg, err := summarizeTimes(avgLatencyPerNode)
	if err != nil {
		return Reception{}, err
	}

	receptionRate := make([]float64, nodeCount)
	for i, list := range wantedMessages {
		if len(list) == 0 {
			receptionRate[i] = 1.0
			continue
		}
		var received float64
		for _, w := range list {
			if w.Received {
				received++
			}
		}
		receptionRate[i] = received / float64(len(list))
	}
	avgRate, minRate, maxRate := summarizeRates(receptionRate)

	return Reception{
		WantedMessages:    wantedMessages,
		ReceivedMessages:  receivedMessages,
		AvgLatencyPerNode: avgLatencyPerNode,
		AvgAvgLatency:     avgAvg,
		MinAvgLatency:     minAvg,
		MaxAvgLatency:     maxAvg,
		GlobalLatency:     globalLatency,

		L120Score:  l120,
		L600Score:  l600,
		L6000Score: l6000,

		T120Reception:  t120,
		T600Reception:  t600,
		T1800Reception: t1800,
		T6000Reception: t6000,

		Emergency: emergency,

		AllPacketUniqueness:     allUniq,
		MessagePacketUniqueness: msgUniq,
		PhantomUniqueness:       phantom,

		ReceptionRate:        receptionRate,
		GlobalReceptionRate:  globalRate,
		AverageReceptionRate: avgRate,
		MinReceptionRate:     minRate,
		MaxReceptionRate:     maxRate,

		MessageReceptionDirectness:       msgRecDirect,
		ReceptionDirectness:              recDirect,
		MessageReceptionUniqueDirectness: msgRecUDirect,
		ReceptionUniqueDirectness:        recUDirect,

		MessageTransmissionDirectness:       msgTxDirect,
		TransmissionDirectness:              txDirect,
		MessageTransmissionUniqueDirectness: msgTxUDirect,
		TransmissionUniqueDirectness:        txUDirect,

		GatewayReception: gatewayRate,
		GatewayLatency:   gatewayLatency,
	}, nil
}

// latencyScore averages, per node, the clamped-to-penalty latency across
// its wanted messages (unreceived messages are penalised at the horizon
// itself), then averages across nodes.
func latencyScore(wanted [][]WantedMessage, penalty units.Time) units.Time {
	var total units.Time
	for _, list := range wanted {
		if len(list) == 0 {
			continue
		}
		var sum units.Time
		for _, w := range list {
			lat := penalty
			if w.HasLatency && w.Latency < penalty {
				lat = w.Latency
			}
			sum += lat / units.Time(len(list))
		}
		total += sum
	}
	return total / units.Time(math.Max(float64(len(wanted)), 1))
}

// thresholdReception is the fraction of wanted messages received within
// threshold.
func thresholdReception(wanted [][]WantedMessage, threshold units.Time) float64 {
	var total, within float64
	for _, list := range wanted {
		for _, w := range list {
			total++
			if w.HasLatency && w.Latency <= threshold {
				within++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return within / total
}

func packetUniqueness(
	simEvents []kernel.LogEntry,
	transmissions []kernel.TransmissionRecord,
	idByTransId map[uint64]int,
	receivedSet []map[uint64]struct{},
) (all, msgOnly, phantom float64, err error) {
	var msgReceptions, nonMsgReceptions, blockedReceptions float64
	for _, e := range simEvents {
		switch e.Kind {
		case kernel.LogTransmissionReceived:
			tx := transmissions[idByTransId[e.TransmissionID]]
			if tx.Content.Kind == node.ContentGenerated {
				msgReceptions++
			} else {
				nonMsgReceptions++
			}
		case kernel.LogTransmissionBlocked:
			blockedReceptions++
		}
	}

	var uniqueReceptions float64
	for _, set := range receivedSet {
		uniqueReceptions += float64(len(set))
	}

	if msgReceptions+nonMsgReceptions == 0 {
		return 0, 0, 0, nil
	}
	all = uniqueReceptions / (msgReceptions + nonMsgReceptions)
	if msgReceptions == 0 {
		msgOnly = 0
	} else {
		msgOnly = uniqueReceptions / msgReceptions
	}
	if msgReceptions+blockedReceptions == 0 {
		phantom = 0
	} else {
		phantom = uniqueReceptions / (msgReceptions + blockedReceptions)
	}
	return all, msgOnly, phantom, nil
}

func isWanted(wanted [][]WantedMessage, nodeId node.Id, msgId uint64) bool {
	for _, w := range wanted[nodeId] {
		if w.MessageId == msgId {
			return true
		}
	}
	return false
}

// receptionDirectness measures what fraction of message receptions landed at
// a node that actually wanted the message -- a
// reception can be indirect when e.g. a flooding model rebroadcasts a message
// past nodes that never asked for it.
func receptionDirectness(
	simEvents []kernel.LogEntry,
	transmissions []kernel.TransmissionRecord,
	idByTransId map[uint64]int,
	wanted [][]WantedMessage,
) (msgDirect, direct, msgUDirect, uDirect float64) {
	var directReceptions, msgReceptions, nonMsgReceptions float64
	for _, e := range simEvents {
		if e.Kind != kernel.LogTransmissionReceived {
			continue
		}
		tx := transmissions[idByTransId[e.TransmissionID]]
		if tx.Content.Kind != node.ContentGenerated {
			nonMsgReceptions++
			continue
		}
		msgReceptions++
		if isWanted(wanted, e.NodeID, tx.Content.MessageId) {
			directReceptions++
		}
	}

	var directUniqueReceptions float64
	for _, list := range wanted {
		for _, w := range list {
			if w.Received {
				directUniqueReceptions++
			}
		}
	}

	if msgReceptions > 0 {
		msgDirect = directReceptions / msgReceptions
		msgUDirect = directUniqueReceptions / msgReceptions
	}
	if total := msgReceptions + nonMsgReceptions; total > 0 {
		direct = directReceptions / total
		uDirect = directUniqueReceptions / total
	}
	return
}

// transmissionDirectness is the per-transmission analogue: a transmission is
// "direct" if at least one node that wants its message receives it, and
// "unique-direct" ("green") if that reception is also the best (lowest
// latency) one recorded for that node/message pair.
func transmissionDirectness(
	simEvents []kernel.LogEntry,
	transmissions []kernel.TransmissionRecord,
	idByTransId map[uint64]int,
	wanted [][]WantedMessage,
	bestTransPerNode []map[uint64]uint64,
) (msgDirect, direct, msgUDirect, uDirect float64) {
	isMessageTx := make([]bool, len(transmissions))
	isDirectTx := make([]bool, len(transmissions))
	isUniqueDirectTx := make([]bool, len(transmissions))

	for _, e := range simEvents {
		if e.Kind != kernel.LogTransmissionReceived {
			continue
		}
		idx := idByTransId[e.TransmissionID]
		tx := transmissions[idx]
		if tx.Content.Kind != node.ContentGenerated {
			continue
		}
		isMessageTx[idx] = true

		if isWanted(wanted, e.NodeID, tx.Content.MessageId) {
			isDirectTx[idx] = true
			if bestTransPerNode[e.NodeID][tx.Content.MessageId] == e.TransmissionID {
				isUniqueDirectTx[idx] = true
			}
		}
	}

	var messageTxN, directTxN, uDirectTxN float64
	for i := range transmissions {
		if isMessageTx[i] {
			messageTxN++
		}
		if isDirectTx[i] {
			directTxN++
		}
		if isUniqueDirectTx[i] {
			uDirectTxN++
		}
	}

	total := float64(len(transmissions))
	if total > 0 {
		direct = directTxN / total
		uDirect = uDirectTxN / total
	}
	if messageTxN > 0 {
		msgDirect = directTxN / messageTxN
		msgUDirect = uDirectTxN / messageTxN
	}
	return
}

// emergencyResult reports how long the scenario's first emergency message
// took to reach any gateway node, or that it never did. Assumes a scenario carries at most one emergency.
func emergencyResult(
	sc scenario.Scenario,
	simEvents []kernel.LogEntry,
	transmissions []kernel.TransmissionRecord,
	idByTransId map[uint64]int,
) EmergencyOutcome {
	var emergencyStart units.Time
	haveEmergency := false
	for _, m := range sc.Messages {
		if m.Emergency && (!haveEmergency || m.GenerateTime < emergencyStart) {
			emergencyStart = m.GenerateTime
			haveEmergency = true
		}
	}
	if !haveEmergency {
		return EmergencyOutcome{Kind: NoEmergency}
	}

	haveArrival := false
	var arrival units.Time
	for _, e := range simEvents {
		if e.Kind != kernel.LogTransmissionReceived {
			continue
		}
		if !sc.Nodes[e.NodeID].IsGateway {
			continue
		}
		tx := transmissions[idByTransId[e.TransmissionID]]
		if tx.Content.Kind != node.ContentGenerated {
			continue
		}
		if !sc.Messages[tx.Content.MessageId].Emergency {
			continue
		}
		if !haveArrival || tx.EndTime < arrival {
			arrival = tx.EndTime
			haveArrival = true
		}
	}

	if !haveArrival {
		return EmergencyOutcome{Kind: EmergencyNotReceived}
	}
	return EmergencyOutcome{Kind: EmergencyDelivered, Latency: arrival - emergencyStart}
}

func globalAvgLatency(wanted [][]WantedMessage) units.Time {
	var sum units.Time
	var count int
	for _, list := range wanted {
		for _, w := range list {
			if w.HasLatency {
				sum += w.Latency
				count++
			}
		}
	}
	return sum / units.Time(math.Max(float64(count), 1))
}

func globalReceptionRate(wanted [][]WantedMessage) float64 {
	var total, received float64
	for _, list := range wanted {
		for _, w := range list {
			total++
			if w.Received {
				received++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return received / total
}

// gatewaySlice restricts reception rate and latency to the subset of nodes
// marked as gateways.
func gatewaySlice(sc scenario.Scenario, wanted [][]WantedMessage) (rate float64, latency units.Time) {
	var total, received float64
	var latSum units.Time
	var latCount int
	for id, setup := range sc.Nodes {
		if !setup.IsGateway {
			continue
		}
		for _, w := range wanted[id] {
			total++
			if w.Received {
				received++
			}
			if w.HasLatency {
				latSum += w.Latency
				latCount++
			}
		}
	}
	if total > 0 {
		rate = received / total
	}
	latency = latSum / units.Time(math.Max(float64(latCount), 1))
	return rate, latency
}

func summarizeTimes(vals []units.Time) (avg, min, max units.Time, err error) {
	if len(vals) == 0 {
		return 0, 0, 0, fmt.Errorf("analysis: cannot summarize an empty node set")
	}
	min, max = vals[0], vals[0]
	var sum units.Time
	for _, v := range vals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return sum / units.Time(len(vals)), min, max, nil
}

func summarizeRates(vals []float64) (avg, min, max float64) {
	if len(vals) == 0 {
		return 0, 0, 0
	}
	min, max = vals[0], vals[0]
	var sum float64
	for _, v := range vals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return sum / float64(len(vals)), min, max
}
