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

// Package topology provides the time-parameterised node-position model the
// radio model queries for distance. There are two variants: a PointSequence
// (nodes move through interpolated waypoints) and a Graph (nodes are fixed
// vertices of a weighted adjacency list, positions exist only for display).
package topology

import (
	"math"
	"sort"
	"sync"

	"github.com/loramesh/meshsim/prng"
	"github.com/loramesh/meshsim/units"
	"github.com/simonlingoogle/go-simplelogger"
)

// NodeId identifies a node within a topology, independent of any routing
// semantics layered on top.
type NodeId int

// Point is a 2D position, in meters.
type Point struct {
	X, Y float64
}

// Topology is the shared query surface both variants implement. All queries
// are w.r.t. a simulated time in seconds.
type Topology interface {
	// Len returns the number of nodes in the topology.
	Len() int
	// Location returns the position of a node at the given time, or false if
	// the topology variant has no concept of absolute position (Graph).
	Location(t units.Time, node NodeId) (Point, bool)
	// DistanceTo returns the distance between two nodes at the given time,
	// or false if they are not reachable from one another at all (e.g. no
	// edge in a Graph topology).
	DistanceTo(t units.Time, a, b NodeId) (units.Length, bool)
	// Adjacent returns the node ids adjacent to the given node. For a
	// PointSequence topology every pair of distinct nodes is "adjacent"
	// (the radio model decides reachability from distance); for a Graph
	// topology this is the edge list.
	Adjacent(node NodeId) []NodeId
	// DisplayLocations returns every node's position at the given time,
	// for rendering purposes only; never consulted by the simulation core.
	DisplayLocations(t units.Time) []Point
}

// minSeparation is the floor distance (meters) used to prevent a pathloss
// singularity when two nodes coincide.
const minSeparation = 0.05

func clampDistance(d float64) units.Length {
	if d < minSeparation {
		return units.Meters(minSeparation)
	}
	return units.Meters(d)
}

// Frame is one timestamped snapshot of every node's position, used by
// PointSequence.
type Frame struct {
	Time      units.Time
	Positions []Point
}

// PointSequence is a non-empty, time-sorted sequence of position frames,
// interpolated linearly between consecutive frames and clamped at the ends.
type PointSequence struct {
	frames []Frame
	cursor int // amortised-linear lookup hint for monotonically non-decreasing queries
}

// NewPointSequence builds a PointSequence from frames that must already be
// sorted ascending by Time and of uniform node count; both are asserted,
// since the caller is expected to pre-validate its own input.
func NewPointSequence(frames []Frame) *PointSequence {
	simplelogger.AssertTrue(len(frames) > 0, "PointSequence requires at least one frame")
	n := len(frames[0].Positions)
	for i, f := range frames {
		simplelogger.AssertTrue(len(f.Positions) == n, "frame %d has inconsistent node count", i)
		if i > 0 {
			simplelogger.AssertTrue(f.Time >= frames[i-1].Time, "frames must be time-sorted")
		}
	}
	return &PointSequence{frames: frames}
}

func (p *PointSequence) Len() int {
	return len(p.frames[0].Positions)
}

// locate finds the enclosing frame pair for time t, returning (lowIdx, highIdx, lerp).
// If t is at-or-before the first frame, or at-or-after the last, lowIdx==highIdx
// (clamp to the nearest frame).
func (p *PointSequence) locate(t units.Time) (int, int, float64) {
	n := len(p.frames)
	if t <= p.frames[0].Time {
		return 0, 0, 0
	}
	if t >= p.frames[n-1].Time {
		return n - 1, n - 1, 0
	}

	// amortised-linear: if the cached cursor is still a valid lower bound, scan forward from it.
	lo := 0
	if p.cursor > 0 && p.cursor < n && p.frames[p.cursor].Time <= t {
		lo = p.cursor
	}
	idx := sort.Search(n-lo, func(i int) bool {
		return p.frames[lo+i].Time > t
	})
	hi := lo + idx
	if hi >= n {
		hi = n - 1
	}
	if hi == 0 {
		return 0, 0, 0
	}
	low := hi - 1
	p.cursor = low

	span := float64(p.frames[hi].Time - p.frames[low].Time)
	var lerp float64
	if span > 0 {
		lerp = float64(t-p.frames[low].Time) / span
	}
	return low, hi, lerp
}

func lerpPoint(a, b Point, f float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
	}
}

func (p *PointSequence) Location(t units.Time, node NodeId) (Point, bool) {
	if int(node) < 0 || int(node) >= p.Len() {
		return Point{}, false
	}
	low, hi, f := p.locate(t)
	if low == hi {
		return p.frames[low].Positions[node], true
	}
	return lerpPoint(p.frames[low].Positions[node], p.frames[hi].Positions[node], f), true
}

func (p *PointSequence) DistanceTo(t units.Time, a, b NodeId) (units.Length, bool) {
	pa, ok := p.Location(t, a)
	if !ok {
		return 0, false
	}
	pb, ok := p.Location(t, b)
	if !ok {
		return 0, false
	}
	dx := pb.X - pa.X
	dy := pb.Y - pa.Y
	return clampDistance(math.Hypot(dx, dy)), true
}

// Adjacent returns every other node id: a PointSequence has no edge
// structure, so reachability is purely a function of distance (decided by
// the radio model), and every pair is a candidate.
func (p *PointSequence) Adjacent(node NodeId) []NodeId {
	n := p.Len()
	out := make([]NodeId, 0, n-1)
	for i := 0; i < n; i++ {
		if NodeId(i) != node {
			out = append(out, NodeId(i))
		}
	}
	return out
}

func (p *PointSequence) DisplayLocations(t units.Time) []Point {
	n := p.Len()
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i], _ = p.Location(t, NodeId(i))
	}
	return out
}

// Edge is one directed weighted edge of a Graph topology.
type Edge struct {
	To     NodeId
	Weight units.Length
}

const (
	layoutIterations  = 1000
	layoutRepelRadius = 1000.0 // meters; nodes closer than this repel each other
	layoutCircleR     = 300.0  // meters; initial placement radius
)

// Graph is a static, directed, weighted adjacency list. It has no notion of
// absolute node position: distance_to is defined purely by edge weight, and
// DisplayLocations derives a rendering-only layout lazily on first use.
type Graph struct {
	n     int
	edges [][]Edge // edges[a] = outgoing edges of node a

	layoutOnce sync.Once
	layout     []Point
	rng        *prng.Stream
}

// NewGraph builds a Graph over n nodes from a directed edge list. Edges are
// asserted to reference valid node ids and carry a non-negative weight; the
// graph need not be symmetric (distance_to(a,b) and distance_to(b,a) may
// differ or one may be absent while the other is present).
func NewGraph(n int, edgesByNode [][]Edge) *Graph {
	simplelogger.AssertTrue(n > 0, "Graph requires at least one node")
	simplelogger.AssertTrue(len(edgesByNode) == n, "edgesByNode must have one entry per node")
	for a, es := range edgesByNode {
		for _, e := range es {
			simplelogger.AssertTrue(int(e.To) >= 0 && int(e.To) < n, "edge from %d references invalid node %d", a, e.To)
			simplelogger.AssertTrue(e.Weight >= 0, "edge from %d to %d has negative weight", a, e.To)
		}
	}
	return &Graph{
		n:     n,
		edges: edgesByNode,
		rng:   prng.NewStream(1), // layout jitter only; never touches simulation determinism
	}
}

func (g *Graph) Len() int { return g.n }

// Location always returns false: a Graph has no absolute position, only
// edge-weight distances.
func (g *Graph) Location(units.Time, NodeId) (Point, bool) {
	return Point{}, false
}

func (g *Graph) DistanceTo(_ units.Time, a, b NodeId) (units.Length, bool) {
	if int(a) < 0 || int(a) >= g.n {
		return 0, false
	}
	for _, e := range g.edges[a] {
		if e.To == b {
			return e.Weight, true
		}
	}
	return 0, false
}

func (g *Graph) Adjacent(node NodeId) []NodeId {
	if int(node) < 0 || int(node) >= g.n {
		return nil
	}
	out := make([]NodeId, 0, len(g.edges[node]))
	for _, e := range g.edges[node] {
		out = append(out, e.To)
	}
	return out
}

// DisplayLocations computes (once, lazily) a force-directed layout for
// rendering: nodes start evenly spaced on a circle, then for
// layoutIterations rounds each node is pushed away from any node closer than
// layoutRepelRadius, attracted toward its graph neighbours, and repelled
// mildly (~1/r^2) from non-neighbours; jitter decays linearly to zero over
// the iterations. The simulated time argument is ignored: a Graph's layout
// is static.
func (g *Graph) DisplayLocations(units.Time) []Point {
	g.layoutOnce.Do(g.computeLayout)
	out := make([]Point, g.n)
	copy(out, g.layout)
	return out
}

func (g *Graph) computeLayout() {
	n := g.n
	pos := make([]Point, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pos[i] = Point{X: layoutCircleR * math.Cos(theta), Y: layoutCircleR * math.Sin(theta)}
	}

	neighbour := make([]map[int]bool, n)
	for i := range neighbour {
		neighbour[i] = make(map[int]bool)
	}
	for a, es := range g.edges {
		for _, e := range es {
			neighbour[a][int(e.To)] = true
			neighbour[int(e.To)][a] = true
		}
	}

	for iter := 0; iter < layoutIterations; iter++ {
		jitter := layoutCircleR * 0.05 * (1 - float64(iter)/float64(layoutIterations))
		disp := make([]Point, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dx := pos[i].X - pos[j].X
				dy := pos[i].Y - pos[j].Y
				d := math.Hypot(dx, dy)
				if d < 1e-6 {
					d = 1e-6
				}
				switch {
				case d < layoutRepelRadius:
					f := (layoutRepelRadius - d) / d
					disp[i].X += dx * f * 0.05
					disp[i].Y += dy * f * 0.05
				case neighbour[i][j]:
					f := (d - layoutRepelRadius) / d
					disp[i].X -= dx * f * 0.01
					disp[i].Y -= dy * f * 0.01
				default:
					f := 1.0 / (d * d)
					disp[i].X += dx * f * 1000
					disp[i].Y += dy * f * 1000
				}
			}
			disp[i].X += g.rng.Float64(-jitter, jitter)
			disp[i].Y += g.rng.Float64(-jitter, jitter)
		}
		for i := 0; i < n; i++ {
			pos[i].X += disp[i].X
			pos[i].Y += disp[i].Y
		}
	}

	g.layout = pos
}
