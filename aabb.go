package surgsim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis aligned 3D bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

func NewAABB(min, max mgl64.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBForExtents constructs an AABB centered on c with the given half sizes.
func NewAABBForExtents(c, half mgl64.Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// NewAABBForSphere constructs an AABB for a sphere with the given position and radius.
func NewAABBForSphere(c mgl64.Vec3, r float64) AABB {
	return NewAABBForExtents(c, mgl64.Vec3{r, r, r})
}

// NewAABBForPoints returns the smallest AABB holding every point.
func NewAABBForPoints(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	bb := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		bb = bb.Expand(p)
	}
	return bb
}

// unboundedAABB is the box of shapes without finite extent.
func unboundedAABB() AABB {
	return NewAABBForExtents(mgl64.Vec3{}, mgl64.Vec3{maxExtent, maxExtent, maxExtent})
}

func (bb AABB) String() string {
	return fmt.Sprintf("%v %v", bb.Min, bb.Max)
}

// Intersects returns true if bb and b intersect.
func (bb AABB) Intersects(b AABB) bool {
	for i := range 3 {
		if bb.Min[i] > b.Max[i] || b.Min[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

// Contains returns true if other lies completely within bb.
func (bb AABB) Contains(other AABB) bool {
	for i := range 3 {
		if bb.Min[i] > other.Min[i] || bb.Max[i] < other.Max[i] {
			return false
		}
	}
	return true
}

// ContainsPoint returns true if bb contains p.
func (bb AABB) ContainsPoint(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < bb.Min[i] || p[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

// Merge returns a bounding box that holds both bounding boxes.
func (bb AABB) Merge(b AABB) AABB {
	var out AABB
	for i := range 3 {
		out.Min[i] = math.Min(bb.Min[i], b.Min[i])
		out.Max[i] = math.Max(bb.Max[i], b.Max[i])
	}
	return out
}

// Expand returns a bounding box that holds both bb and p.
func (bb AABB) Expand(p mgl64.Vec3) AABB {
	return bb.Merge(AABB{Min: p, Max: p})
}

// Inflate grows bb by margin on every side.
func (bb AABB) Inflate(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: bb.Min.Sub(m), Max: bb.Max.Add(m)}
}

func (bb AABB) Center() mgl64.Vec3 {
	return lerp(bb.Min, bb.Max, 0.5)
}

func (bb AABB) Size() mgl64.Vec3 {
	return bb.Max.Sub(bb.Min)
}

func (bb AABB) Volume() float64 {
	s := bb.Size()
	return s[0] * s[1] * s[2]
}

// MergedVolume returns the volume of the box holding bb and b.
func (bb AABB) MergedVolume(b AABB) float64 {
	return bb.Merge(b).Volume()
}

// Proximity is the Manhattan distance between the centers of bb and b, doubled.
func (bb AABB) Proximity(b AABB) float64 {
	var d float64
	for i := range 3 {
		d += math.Abs(bb.Min[i] + bb.Max[i] - b.Min[i] - b.Max[i])
	}
	return d
}

// Offset returns bb translated by d.
func (bb AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: bb.Min.Add(d), Max: bb.Max.Add(d)}
}

// SegmentQuery returns the fraction along the segment [a, b] where it enters
// bb, or +Inf when it misses.
func (bb AABB) SegmentQuery(a, b mgl64.Vec3) float64 {
	delta := b.Sub(a)
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for i := range 3 {
		if delta[i] == 0 {
			if a[i] < bb.Min[i] || bb.Max[i] < a[i] {
				return math.Inf(1)
			}
			continue
		}
		t1 := (bb.Min[i] - a[i]) / delta[i]
		t2 := (bb.Max[i] - a[i]) / delta[i]
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if tmin <= tmax && 0 <= tmax && tmin <= 1.0 {
		return math.Max(tmin, 0.0)
	}
	return math.Inf(1)
}

// transformAABB returns the box holding local once transformed by the
// rotation r and translation t.
func transformAABB(local AABB, r mgl64.Mat3, t mgl64.Vec3) AABB {
	center := r.Mul3x1(local.Center()).Add(t)
	half := local.Size().Mul(0.5)
	var extent mgl64.Vec3
	for i := range 3 {
		for j := range 3 {
			extent[i] += math.Abs(r.At(i, j)) * half[j]
		}
	}
	return NewAABBForExtents(center, extent)
}
