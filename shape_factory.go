package surgsim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NewSphereShape returns a sphere of radius r.
func NewSphereShape(r float64) *SphereShape {
	if r <= 0 {
		panic(fmt.Sprintf("surgsim: invalid sphere radius %v", r))
	}
	return &SphereShape{Radius: r}
}

// NewBoxShape returns a box with full extents x, y and z.
func NewBoxShape(x, y, z float64) *BoxShape {
	if x <= 0 || y <= 0 || z <= 0 {
		panic(fmt.Sprintf("surgsim: invalid box size %v %v %v", x, y, z))
	}
	return &BoxShape{Size: mgl64.Vec3{x, y, z}}
}

// NewCylinderShape returns a cylinder along the local Y axis.
func NewCylinderShape(length, r float64) *CylinderShape {
	if length <= 0 || r <= 0 {
		panic(fmt.Sprintf("surgsim: invalid cylinder length %v radius %v", length, r))
	}
	return &CylinderShape{Length: length, Radius: r}
}

// NewCapsuleShape returns a capsule along the local Y axis. length is the
// distance between the centers of the two caps.
func NewCapsuleShape(length, r float64) *CapsuleShape {
	if length < 0 || r <= 0 {
		panic(fmt.Sprintf("surgsim: invalid capsule length %v radius %v", length, r))
	}
	return &CapsuleShape{Length: length, Radius: r}
}

// VolumeForSphere returns the volume of a sphere of radius r.
func VolumeForSphere(r float64) float64 {
	return 4.0 / 3.0 * math.Pi * r * r * r
}

// MomentForSphere returns the inertia of a solid sphere.
func MomentForSphere(mass, r float64) mgl64.Mat3 {
	i := 2.0 / 5.0 * mass * r * r
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

// MomentForBox returns the inertia of a solid box with full extents size.
func MomentForBox(mass float64, size mgl64.Vec3) mgl64.Mat3 {
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return mgl64.Diag3(mgl64.Vec3{y2 + z2, x2 + z2, x2 + y2}.Mul(mass / 12))
}

// MomentForCylinder returns the inertia of a solid cylinder along Y.
func MomentForCylinder(mass, length, r float64) mgl64.Mat3 {
	r2 := r * r
	side := mass * (3*r2 + length*length) / 12
	return mgl64.Diag3(mgl64.Vec3{side, mass * r2 / 2, side})
}

// MomentForCapsule returns the inertia of a solid capsule along Y with a
// uniform density.
func MomentForCapsule(density, length, r float64) mgl64.Mat3 {
	r2 := r * r
	cylinderMass := density * math.Pi * r2 * length
	capsMass := density * VolumeForSphere(r)

	axial := cylinderMass*r2/2 + capsMass*2*r2/5
	side := cylinderMass*(length*length/12+r2/4) +
		capsMass*(2*r2/5+length*length/4+3*length*r/8)
	return mgl64.Diag3(mgl64.Vec3{side, axial, side})
}
