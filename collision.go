package surgsim

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

func addGlobalContact(pair *CollisionPair, depth float64, normal, first, second mgl64.Vec3) {
	pair.AddContact(depth, normal, [2]Location{NewGlobalLocation(first), NewGlobalLocation(second)})
}

// SphereToSphere adds a contact when the centers are closer than the sum of
// the radii. Concentric spheres get a normal along +Y.
func SphereToSphere(pair *CollisionPair) {
	r1 := pair.First().Shape().(*SphereShape).Radius
	r2 := pair.Second().Shape().(*SphereShape).Radius
	c1 := pair.First().Pose().Translation
	c2 := pair.Second().Pose().Translation

	normal := c1.Sub(c2)
	dist := normal.Len()
	maxDist := r1 + r2
	if dist >= maxDist {
		return
	}
	if dist < DistanceEpsilon {
		normal = vecY
	} else {
		normal = normal.Mul(1 / dist)
	}
	addGlobalContact(pair, maxDist-dist, normal, c1.Sub(normal.Mul(r1)), c2.Add(normal.Mul(r2)))
}

// SphereToPlane adds a contact when the center is closer than the radius to
// the plane or behind it.
func SphereToPlane(pair *CollisionPair) {
	r := pair.First().Shape().(*SphereShape).Radius
	center := pair.First().Pose().Translation
	normal, offset := worldPlane(pair.Second().Pose())

	dist := normal.Dot(center) + offset
	if dist >= r {
		return
	}
	addGlobalContact(pair, r-dist, normal, center.Sub(normal.Mul(r)), center.Sub(normal.Mul(dist)))
}

// SphereToDoubleSidedPlane adds a contact when the center is closer than the
// radius to the plane, pushing the sphere back to its side.
func SphereToDoubleSidedPlane(pair *CollisionPair) {
	r := pair.First().Shape().(*SphereShape).Radius
	center := pair.First().Pose().Translation
	normal, offset := worldPlane(pair.Second().Pose())

	dist := normal.Dot(center) + offset
	if math.Abs(dist) >= r {
		return
	}
	if dist < 0 {
		normal, dist = normal.Mul(-1), -dist
	}
	addGlobalContact(pair, r-dist, normal, center.Sub(normal.Mul(r)), center.Sub(normal.Mul(dist)))
}

// BoxToSphere clamps the sphere center into the box. When the center is
// inside, the contact pushes the sphere out of the closest face, ties going
// to x, then y, then z.
func BoxToSphere(pair *CollisionPair) {
	box := pair.First().Shape().(*BoxShape)
	r := pair.Second().Shape().(*SphereShape).Radius
	boxPose := pair.First().Pose()
	center := pair.Second().Pose().Translation

	local := boxPose.Inverse().Apply(center)
	half := box.HalfSize()
	closest := clampToBox(local, half)

	normal := closest.Sub(local)
	distSq := normal.Dot(normal)
	if distSq-r*r > SquaredDistanceEpsilon {
		return
	}

	var depth float64
	if distSq <= SquaredDistanceEpsilon {
		faces := [3]float64{}
		for i := range 3 {
			faces[i] = half[i] - math.Abs(local[i])
		}
		axis := indexOfMinimum(faces)
		direction := 1.0
		if local[axis] <= -DistanceEpsilon {
			direction = -1
		}
		normal = mgl64.Vec3{}
		normal[axis] = -direction
		closest[axis] = half[axis] * direction
		depth = faces[axis] + r
	} else {
		dist := math.Sqrt(distSq)
		normal = normal.Mul(1 / dist)
		depth = r - dist
	}

	normal = boxPose.ApplyVector(normal)
	addGlobalContact(pair, depth, normal, boxPose.Apply(closest), center.Add(normal.Mul(r)))
}

// BoxToPlane adds a single contact at the deepest vertex of the box.
func BoxToPlane(pair *CollisionPair) {
	box := pair.First().Shape().(*BoxShape)
	boxPose := pair.First().Pose()
	normal, offset := worldPlane(pair.Second().Pose())

	vertex, dist := deepestVertex(box, boxPose, normal, offset)
	if dist >= 0 {
		return
	}
	addGlobalContact(pair, -dist, normal, vertex, vertex.Sub(normal.Mul(dist)))
}

// BoxToDoubleSidedPlane adds a contact when the plane cuts the box. The box
// is pushed back to the side holding most of it.
func BoxToDoubleSidedPlane(pair *CollisionPair) {
	box := pair.First().Shape().(*BoxShape)
	boxPose := pair.First().Pose()
	normal, offset := worldPlane(pair.Second().Pose())

	below, minDist := deepestVertex(box, boxPose, normal, offset)
	above, maxDist := deepestVertex(box, boxPose, normal.Mul(-1), -offset)
	maxDist = -maxDist
	if minDist >= 0 || maxDist <= 0 {
		return
	}
	if -minDist <= maxDist {
		addGlobalContact(pair, -minDist, normal, below, below.Sub(normal.Mul(minDist)))
		return
	}
	addGlobalContact(pair, maxDist, normal.Mul(-1), above, above.Sub(normal.Mul(maxDist)))
}

// CapsuleToSphere compares the distance from the sphere center to the axis
// of the capsule with the sum of the radii.
func CapsuleToSphere(pair *CollisionPair) {
	capsule := pair.First().Shape().(*CapsuleShape)
	r := pair.Second().Shape().(*SphereShape).Radius
	top, bottom := capsule.segment(pair.First().Pose())
	center := pair.Second().Pose().Translation

	onAxis := closestPointOnSegment(center, top, bottom)
	normal := onAxis.Sub(center)
	dist := normal.Len()
	maxDist := capsule.Radius + r
	if dist >= maxDist {
		return
	}
	if dist < DistanceEpsilon {
		normal = anyPerpendicular(top.Sub(bottom).Normalize())
	} else {
		normal = normal.Mul(1 / dist)
	}
	addGlobalContact(pair, maxDist-dist, normal, onAxis.Sub(normal.Mul(capsule.Radius)), center.Add(normal.Mul(r)))
}

// CapsuleToPlane adds a contact at the end of the capsule deepest in the plane.
func CapsuleToPlane(pair *CollisionPair) {
	capsule := pair.First().Shape().(*CapsuleShape)
	top, bottom := capsule.segment(pair.First().Pose())
	normal, offset := worldPlane(pair.Second().Pose())

	end, dist := top, normal.Dot(top)+offset
	if d := normal.Dot(bottom) + offset; d < dist {
		end, dist = bottom, d
	}
	if dist >= capsule.Radius {
		return
	}
	addGlobalContact(pair, capsule.Radius-dist, normal, end.Sub(normal.Mul(capsule.Radius)), end.Sub(normal.Mul(dist)))
}

// BoxToCapsule finds the point of the capsule axis deepest in the box. When
// the axis stays outside, the contact goes along the shortest distance
// between the box and the axis. When it enters the box, the contact goes
// along the face normal that separates the shapes with the least motion.
func BoxToCapsule(pair *CollisionPair) {
	box := pair.First().Shape().(*BoxShape)
	capsule := pair.Second().Shape().(*CapsuleShape)
	boxPose := pair.First().Pose()
	inverse := boxPose.Inverse()
	top, bottom := capsule.segment(pair.Second().Pose())
	a, b := inverse.Apply(top), inverse.Apply(bottom)
	half := box.HalfSize()
	r := capsule.Radius

	t, _ := closestOnSegmentToBox(a, b, half)
	p := lerp(a, b, t)
	closest := clampToBox(p, half)
	dist := closest.Sub(p).Len()
	if dist >= r {
		return
	}

	if dist > DistanceEpsilon {
		// divided per component so a face normal comes out exactly unit
		normal := closest.Sub(p)
		for i := range 3 {
			normal[i] /= dist
		}
		worldNormal := boxPose.ApplyVector(normal)
		addGlobalContact(pair, r-dist, worldNormal, boxPose.Apply(closest), boxPose.Apply(p.Add(normal.Mul(r))))
		return
	}

	// The box moves along normal until its face on the other side clears
	// the capsule.
	offset := a.Add(b).Mul(-0.5)
	var normal mgl64.Vec3
	axis, depth, alignment := -1, math.Inf(1), math.Inf(-1)
	for i := range 3 {
		for _, sign := range []float64{1, -1} {
			var n mgl64.Vec3
			n[i] = sign
			d := math.Max(a.Dot(n), b.Dot(n)) + r + half[i]
			if d < depth-DistanceEpsilon || (d < depth+DistanceEpsilon && n.Dot(offset) > alignment) {
				normal, axis, depth, alignment = n, i, d, n.Dot(offset)
			}
		}
	}

	var deepest mgl64.Vec3
	switch pa, pb := a.Dot(normal), b.Dot(normal); {
	case pa > pb+DistanceEpsilon:
		deepest = a
	case pb > pa+DistanceEpsilon:
		deepest = b
	default:
		deepest = closestPointOnSegment(mgl64.Vec3{}, a, b)
	}
	boxPoint := clampToBox(deepest, half)
	boxPoint[axis] = -normal[axis] * half[axis]

	worldNormal := boxPose.ApplyVector(normal)
	addGlobalContact(pair, depth, worldNormal, boxPose.Apply(boxPoint), boxPose.Apply(deepest.Add(normal.Mul(r))))
}

func clampToBox(p, half mgl64.Vec3) mgl64.Vec3 {
	for i := range 3 {
		p[i] = clamp(p[i], -half[i], half[i])
	}
	return p
}

// closestOnSegmentToBox returns the parameter of the point of segment ab
// closest to the box of half extents half centered at the origin, and the
// squared distance from that point to the box. The squared distance is a
// piecewise quadratic of t with breaks where the segment crosses a face
// plane, so each piece is minimized exactly. A piece along which the
// distance does not change, such as a segment inside a face slab, is
// preferred and its middle point is returned.
func closestOnSegmentToBox(a, b, half mgl64.Vec3) (float64, float64) {
	d := b.Sub(a)
	breaks := []float64{0, 1}
	for i := range 3 {
		if d[i] == 0 {
			continue
		}
		for _, face := range []float64{half[i], -half[i]} {
			if t := (face - a[i]) / d[i]; t > 0 && t < 1 {
				breaks = append(breaks, t)
			}
		}
	}
	slices.Sort(breaks)

	bestT, best := 0.0, math.Inf(1)
	for k := 1; k < len(breaks); k++ {
		t0, t1 := breaks[k-1], breaks[k]
		if t1 <= t0 {
			continue
		}
		// coefficients of A·t² + B·t + C on this piece
		var qa, qb, qc float64
		mid := (t0 + t1) / 2
		for i := range 3 {
			x := a[i] + mid*d[i]
			var face float64
			switch {
			case x > half[i]:
				face = half[i]
			case x < -half[i]:
				face = -half[i]
			default:
				continue
			}
			e := a[i] - face
			qa += d[i] * d[i]
			qb += 2 * d[i] * e
			qc += e * e
		}
		t := mid
		if qa > 0 {
			t = clamp(-qb/(2*qa), t0, t1)
		}
		v := max((qa*t+qb)*t+qc, 0)
		if v < best-SquaredDistanceEpsilon || (qa == 0 && v <= best+SquaredDistanceEpsilon) {
			bestT, best = t, v
		}
	}
	return bestT, best
}

// deepestVertex returns the vertex of the box with the lowest signed
// distance to the plane n·p + offset = 0, and that distance.
func deepestVertex(box *BoxShape, pose linalg.RigidTransform, n mgl64.Vec3, offset float64) (mgl64.Vec3, float64) {
	var deepest mgl64.Vec3
	dist := math.Inf(1)
	for _, v := range box.Vertices() {
		w := pose.Apply(v)
		if d := n.Dot(w) + offset; d < dist {
			deepest, dist = w, d
		}
	}
	return deepest, dist
}

// indexOfMinimum returns the index of the smallest value, the first one on ties.
func indexOfMinimum(values [3]float64) int {
	index := 0
	for i := 1; i < len(values); i++ {
		if values[i] < values[index] {
			index = i
		}
	}
	return index
}
