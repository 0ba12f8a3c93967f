package surgsim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DistanceEpsilon is the smallest distance contact calculations tell apart from zero.
	DistanceEpsilon = 1e-10
	// SquaredDistanceEpsilon is the squared counterpart of DistanceEpsilon.
	SquaredDistanceEpsilon = 1e-10

	// maxExtent bounds the boxes of unbounded shapes such as planes.
	maxExtent = 1e9
)

var (
	vecX = mgl64.Vec3{1, 0, 0}
	vecY = mgl64.Vec3{0, 1, 0}
	vecZ = mgl64.Vec3{0, 0, 1}
)

func clamp(f, min, max float64) float64 {
	if f < min {
		return min
	} else if f > max {
		return max
	}
	return f
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// closestT returns the parameter of the point of segment [a, b] closest to p.
func closestT(p, a, b mgl64.Vec3) float64 {
	delta := b.Sub(a)
	lenSq := delta.Dot(delta)
	if lenSq < SquaredDistanceEpsilon {
		return 0
	}
	return clamp01(p.Sub(a).Dot(delta) / lenSq)
}

func closestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	return lerp(a, b, closestT(p, a, b))
}

// anyPerpendicular returns a unit vector orthogonal to the unit vector n.
func anyPerpendicular(n mgl64.Vec3) mgl64.Vec3 {
	axis := vecX
	if math.Abs(n[0]) > 0.7 {
		axis = vecY
	}
	return n.Cross(axis).Normalize()
}

// tangentBasis returns two unit vectors that complete n into an orthonormal basis.
func tangentBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t1 := anyPerpendicular(n)
	return t1, n.Cross(t1)
}
