// Copyright (c) 2020-2023, The OTNS Authors.
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

// Package units gives the physical quantities the radio model computes with
// (distance, duration, power, frequency, temperature, speed) distinct Go
// types, so that a pathloss formula cannot accidentally add a Length to a
// Time. Each type is a distinct named float64 (mixing them is a compile-time
// type error; there are no runtime unit checks) with the small set of
// operators the physical model in
// radiomodel actually needs.
package units

import "math"

// Length is a distance in meters.
type Length float64

// Time is a duration in seconds.
type Time float64

// Mass is a mass in kilograms.
type Mass float64

// Temperature is a temperature in Kelvin.
type Temperature float64

// Power is a power in Watts.
type Power float64

// Frequency is a frequency in Hertz.
type Frequency float64

// Energy is an energy in Joules.
type Energy float64

// EnergyPerTemperature is an entropy-like quantity, Joules per Kelvin.
type EnergyPerTemperature float64

// Speed is a speed in meters per second.
type Speed float64

// DbPerLength is an attenuation rate in dB per meter (used by the Linear
// pathloss variant).
type DbPerLength float64

// Physical constants used by the noise-power computation (radiomodel) and
// by the adjusted-free-space pathloss model.
const (
	Boltzmann EnergyPerTemperature = 1.380649e-23 // J/K
	// LightspeedAir is the propagation speed used for carrier-wavelength
	// conversions: the speed of light in air at typical atmospheric
	// conditions, not the vacuum constant, since every pathloss computation
	// here models an actual-air radio link.
	LightspeedAir Speed = 299702547 // m/s
)

// Meters constructs a Length.
func Meters(m float64) Length { return Length(m) }

// Seconds constructs a Time.
func Seconds(s float64) Time { return Time(s) }

// Add returns a+b for same-unit values. Length supports it directly, and
// each other type below mirrors it so formulas read naturally.
func (a Length) Add(b Length) Length { return a + b }
func (a Length) Sub(b Length) Length { return a - b }
func (a Length) Scale(f float64) Length { return Length(float64(a) * f) }
func (a Length) Div(b Length) float64 { return float64(a) / float64(b) }
func (a Length) Min(b Length) Length {
	if a < b {
		return a
	}
	return b
}
func (a Length) Max(b Length) Length {
	if a > b {
		return a
	}
	return b
}
func (a Length) Meters() float64 { return float64(a) }

func (a Time) Add(b Time) Time { return a + b }
func (a Time) Sub(b Time) Time { return a - b }
func (a Time) Scale(f float64) Time { return Time(float64(a) * f) }
func (a Time) Div(b Time) float64 { return float64(a) / float64(b) }
func (a Time) Seconds() float64 { return float64(a) }

func (a Power) Add(b Power) Power { return a + b }
func (a Power) Sub(b Power) Power { return a - b }
func (a Power) Watts() float64 { return float64(a) }

func (a Frequency) Hertz() float64 { return float64(a) }

// WavelengthOf returns the free-space wavelength (Length) of a carrier at
// this Frequency: Speed/Frequency = Length.
func (f Frequency) WavelengthOf(speed Speed) Length {
	return Length(float64(speed) / float64(f))
}

// Period returns 1/Frequency = Time, i.e. the period of one cycle.
func (f Frequency) Period() Time {
	return Time(1.0 / float64(f))
}

// DistanceOver returns Speed*Time = Length.
func (s Speed) DistanceOver(t Time) Length {
	return Length(float64(s) * float64(t))
}

// WavelengthAt returns Speed/Frequency = Length.
func (s Speed) WavelengthAt(f Frequency) Length {
	return Length(float64(s) / float64(f))
}

// EnergyAt returns EnergyPerTemperature*Temperature = Energy.
func (e EnergyPerTemperature) EnergyAt(t Temperature) Energy {
	return Energy(float64(e) * float64(t))
}

// PowerAt returns Energy*Frequency = Power.
func (e Energy) PowerAt(f Frequency) Power {
	return Power(float64(e) * float64(f))
}

// PerLength returns Dbf/Length = DbPerLength, used to express a linear (dB/m)
// pathloss rate from a flat dB budget and a reference distance.
func PerLength(db Db[Power], over Length) DbPerLength {
	return DbPerLength(float64(db) / float64(over))
}

// Db is a logarithmic (decibel) quantity over an underlying linear unit T.
// Addition of two Db values corresponds to multiplication of the underlying
// linear quantities (e.g. Db[Power]+Db[Power] models a gain stacked onto a
// power level), and subtraction to division -- this is the entire point of
// working in the dB domain for the radio model: pathloss, antenna gain and
// fading all simply add.
type Db[T any] float64

// FromLinear converts a linear ratio/value x into its Db representation:
// Db(x) = 10*log10(x).
func FromLinear(x float64) Db[float64] {
	return Db[float64](10 * math.Log10(x))
}

// Linear converts a Db value back to its underlying linear ratio.
func (d Db[T]) Linear() float64 {
	return math.Pow(10, float64(d)/10)
}

func (d Db[T]) Add(o Db[T]) Db[T] { return d + o }
func (d Db[T]) Sub(o Db[T]) Db[T] { return d - o }
func (d Db[T]) Scale(f float64) Db[T] { return Db[T](float64(d) * f) }
func (d Db[T]) Float64() float64 { return float64(d) }

func (d Db[T]) Min(o Db[T]) Db[T] {
	if d < o {
		return d
	}
	return o
}

func (d Db[T]) Max(o Db[T]) Db[T] {
	if d > o {
		return d
	}
	return o
}

func (d Db[T]) Clamp(lo, hi Db[T]) Db[T] {
	return d.Max(lo).Min(hi)
}

// Dbm is Db[Power] referenced to 1 milliwatt -- the unit the whole radio
// model (received power, noise power, SIR thresholds) is expressed in.
type Dbm = Db[Power]

// WattsToDbm converts a Power in watts to Dbm (+30 dB offset for the
// watts-to-milliwatts reference shift).
func WattsToDbm(p Power) Dbm {
	return Dbm(10*math.Log10(float64(p)) + 30)
}
