// Package contour traces iso-lines through a sampled field and picks the
// levels whose lines reach the top edge of the plot for labelling.
package contour

import (
	"math"

	"github.com/MikeSquared-Agency/KScore/internal/field"
)

// Point is a position in pixel space. Sample (x, y) of a field sits at
// (x+0.5, y+0.5); the field covers [0, Width] × [0, Height].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is a closed polyline; the last point repeats the first.
type Ring []Point

// Contour is every ring bounding the region where the field is at or above
// Value.
type Contour struct {
	Value float64 `json:"value"`
	Rings []Ring  `json:"rings"`
}

// levelEpsilon keeps a level that coincides exactly with the field minimum or
// maximum out of the level set.
const levelEpsilon = 2.220446049250313e-16

// Levels returns the multiples of step strictly inside (min, max). The result
// is empty when the range holds no multiple or step is not positive.
func Levels(min, max, step float64) []float64 {
	if step <= 0 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	start := math.Ceil((min+levelEpsilon)/step) * step
	stop := math.Floor((max-levelEpsilon)/step) * step
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > stop+step/2 {
			break
		}
		out = append(out, v)
	}
	return out
}

// Generate traces one Contour per level.
func Generate(f *field.Field, levels []float64) []Contour {
	t := newTracer(f)
	out := make([]Contour, 0, len(levels))
	for _, lv := range levels {
		out = append(out, Contour{Value: lv, Rings: t.trace(lv)})
	}
	return out
}

// Cell corner bits.
const (
	bitBL = 1
	bitBR = 2
	bitTR = 4
	bitTL = 8
)

// Cell edges.
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// segmentTable lists the edge pairs crossed in each non-saddle cell case.
var segmentTable = [16][][2]int{
	1:  {{edgeLeft, edgeBottom}},
	2:  {{edgeBottom, edgeRight}},
	3:  {{edgeLeft, edgeRight}},
	4:  {{edgeTop, edgeRight}},
	6:  {{edgeTop, edgeBottom}},
	7:  {{edgeTop, edgeLeft}},
	8:  {{edgeTop, edgeLeft}},
	9:  {{edgeTop, edgeBottom}},
	11: {{edgeTop, edgeRight}},
	12: {{edgeLeft, edgeRight}},
	13: {{edgeBottom, edgeRight}},
	14: {{edgeLeft, edgeBottom}},
}

// tracer runs marching squares over a lattice padded by one corner on every
// side. Padding corners are outside every level, so all rings are closed.
//
// Lattice corners are indexed (i, j) with i in [-1, W] and j in [-1, H].
// Edge h(i, j) joins corner (i, j) to (i+1, j); edge v(i, j) joins (i, j) to
// (i, j+1).
type tracer struct {
	f      *field.Field
	stride int // corners per lattice row

	// nb holds the two neighbouring edges of every crossed edge; -1 is empty.
	nb      [][2]int
	touched []int
}

func newTracer(f *field.Field) *tracer {
	stride := f.Width + 2
	n := stride * (f.Height + 2) * 2
	nb := make([][2]int, n)
	for i := range nb {
		nb[i] = [2]int{-1, -1}
	}
	return &tracer{f: f, stride: stride, nb: nb}
}

func (t *tracer) edgeID(i, j, dir int) int {
	return ((j+1)*t.stride+(i+1))*2 + dir
}

func (t *tracer) edgeCoords(id int) (i, j, dir int) {
	dir = id % 2
	c := id / 2
	return c%t.stride - 1, c/t.stride - 1, dir
}

func (t *tracer) inGrid(i, j int) bool {
	return i >= 0 && j >= 0 && i < t.f.Width && j < t.f.Height
}

func (t *tracer) inside(i, j int, level float64) bool {
	return t.inGrid(i, j) && t.f.At(i, j) >= level
}

// cellEdge maps a side of cell (i, j) to its lattice edge.
func (t *tracer) cellEdge(i, j, side int) int {
	switch side {
	case edgeTop:
		return t.edgeID(i, j, 0)
	case edgeRight:
		return t.edgeID(i+1, j, 1)
	case edgeBottom:
		return t.edgeID(i, j+1, 0)
	default:
		return t.edgeID(i, j, 1)
	}
}

func (t *tracer) link(a, b int) {
	for _, pair := range [][2]int{{a, b}, {b, a}} {
		e, other := pair[0], pair[1]
		if t.nb[e][0] < 0 {
			t.nb[e][0] = other
			t.touched = append(t.touched, e)
		} else {
			t.nb[e][1] = other
		}
	}
}

func (t *tracer) reset() {
	for _, e := range t.touched {
		t.nb[e] = [2]int{-1, -1}
	}
	t.touched = t.touched[:0]
}

func (t *tracer) trace(level float64) []Ring {
	defer t.reset()
	w, h := t.f.Width, t.f.Height
	for j := -1; j < h; j++ {
		for i := -1; i < w; i++ {
			tl := t.inside(i, j, level)
			tr := t.inside(i+1, j, level)
			br := t.inside(i+1, j+1, level)
			bl := t.inside(i, j+1, level)
			c := 0
			if tl {
				c |= bitTL
			}
			if tr {
				c |= bitTR
			}
			if br {
				c |= bitBR
			}
			if bl {
				c |= bitBL
			}
			for _, seg := range t.segments(i, j, c, level) {
				t.link(t.cellEdge(i, j, seg[0]), t.cellEdge(i, j, seg[1]))
			}
		}
	}
	return t.stitch(level)
}

func (t *tracer) segments(i, j, c int, level float64) [][2]int {
	switch c {
	case 5, 10:
		centre := t.centreInside(i, j, level)
		// Case 5 has TR and BL inside; case 10 has TL and BR inside.
		if (c == 5) == centre {
			return [][2]int{{edgeTop, edgeLeft}, {edgeBottom, edgeRight}}
		}
		return [][2]int{{edgeTop, edgeRight}, {edgeLeft, edgeBottom}}
	default:
		return segmentTable[c]
	}
}

// centreInside resolves a saddle by the mean of the four corners. A saddle on
// the padding ring never joins across the border.
func (t *tracer) centreInside(i, j int, level float64) bool {
	if !t.inGrid(i, j) || !t.inGrid(i+1, j+1) {
		return false
	}
	f := t.f
	mean := (f.At(i, j) + f.At(i+1, j) + f.At(i, j+1) + f.At(i+1, j+1)) / 4
	return mean >= level
}

// point places the crossing on edge id. Between two samples the position is
// interpolated linearly; against a padding corner it lies on the border.
func (t *tracer) point(id int, level float64) Point {
	i, j, dir := t.edgeCoords(id)
	i2, j2 := i+1, j
	if dir == 1 {
		i2, j2 = i, j+1
	}
	aIn, bIn := t.inGrid(i, j), t.inGrid(i2, j2)
	switch {
	case aIn && bIn:
		va, vb := t.f.At(i, j), t.f.At(i2, j2)
		s := (level - va) / (vb - va)
		return Point{
			X: float64(i) + 0.5 + s*float64(i2-i),
			Y: float64(j) + 0.5 + s*float64(j2-j),
		}
	case aIn:
		return t.borderPoint(i, j, i2, j2)
	default:
		return t.borderPoint(i2, j2, i, j)
	}
}

// borderPoint is the crossing between in-grid corner (i, j) and padding corner
// (oi, oj).
func (t *tracer) borderPoint(i, j, oi, oj int) Point {
	p := Point{X: float64(i) + 0.5, Y: float64(j) + 0.5}
	switch {
	case oi < 0:
		p.X = 0
	case oi >= t.f.Width:
		p.X = float64(t.f.Width)
	case oj < 0:
		p.Y = 0
	case oj >= t.f.Height:
		p.Y = float64(t.f.Height)
	}
	return p
}

func (t *tracer) stitch(level float64) []Ring {
	visited := make(map[int]bool, len(t.touched))
	var rings []Ring
	for _, start := range t.touched {
		if visited[start] {
			continue
		}
		var ring Ring
		prev, cur := -1, start
		for {
			visited[cur] = true
			ring = append(ring, t.point(cur, level))
			next := t.nb[cur][0]
			if next == prev || next < 0 {
				next = t.nb[cur][1]
			}
			if next < 0 || next == start {
				break
			}
			prev, cur = cur, next
		}
		ring = append(ring, ring[0])
		rings = append(rings, ring)
	}
	return rings
}
