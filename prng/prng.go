// Copyright (c) 2024, The OTNS Authors.
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

// Package prng provides the single reproducible source of randomness a
// simulation run draws from. Unlike a package-global generator, a Stream is
// an owned value: the kernel creates exactly one per run from the run seed
// and hands it out (via the node Context) to the radio model and every node
// model. Because many independent simulations run concurrently in the
// surrounding tooling, there must be no
// process-wide mutable RNG state; each Stream is self-contained and is never
// re-seeded mid-run.
package prng

import "math/rand"

// Stream is a reproducible, non-reseedable source of randomness for one
// simulation run.
type Stream struct {
	seed int64
	rnd  *rand.Rand
}

// NewStream creates a Stream seeded from the given run seed. A seed of 0
// still produces a deterministic (if unremarkable) sequence: the caller is
// expected to pick a meaningful seed when reproducibility across runs
// matters.
func NewStream(seed int64) *Stream {
	return &Stream{
		seed: seed,
		rnd:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed this Stream was constructed with.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Float64 draws a uniform random float64 in [min, max). This is the single
// entry point every node model and the radio model's fading distributions
// must use for non-determinism.
func (s *Stream) Float64(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.rnd.Float64()*(max-min)
}

// UnitFloat64 draws a uniform random float64 in [0, 1).
func (s *Stream) UnitFloat64() float64 {
	return s.rnd.Float64()
}

// Intn draws a uniform random int in [0, n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rnd.Intn(n)
}

// NormFloat64 draws a standard-normal-distributed random float64 (mean 0,
// stddev 1); callers scale it for their desired sigma.
func (s *Stream) NormFloat64() float64 {
	return s.rnd.NormFloat64()
}

// ExpFloat64 draws an exponentially-distributed (rate 1) random float64;
// callers scale it by their desired mean.
func (s *Stream) ExpFloat64() float64 {
	return s.rnd.ExpFloat64()
}

// Derive creates a new, independent Stream seeded deterministically from
// this Stream's construction seed (not its position in the sequence)
// combined with a caller-supplied salt. This
// lets a component (e.g. the fading model, keying fade values per radio
// link) build its own private, reproducible sub-streams without consuming
// from the shared stream in an order-dependent way.
func (s *Stream) Derive(salt int64) *Stream {
	return NewStream(s.seed ^ int64(uint64(salt)*0x9E3779B97F4A7C15))
}
