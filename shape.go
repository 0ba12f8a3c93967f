package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// ShapeType tags the variants of Shape.
type ShapeType int

const (
	ShapeTypeNone ShapeType = iota - 1
	ShapeTypePlane
	ShapeTypeDoubleSidedPlane
	ShapeTypeSphere
	ShapeTypeBox
	ShapeTypeCylinder
	ShapeTypeCapsule
	ShapeTypeMesh
	ShapeTypeCount
)

var shapeTypeNames = [ShapeTypeCount]string{
	"Plane",
	"DoubleSidedPlane",
	"Sphere",
	"Box",
	"Cylinder",
	"Capsule",
	"Mesh",
}

func (t ShapeType) IsValid() bool {
	return t >= 0 && t < ShapeTypeCount
}

func (t ShapeType) String() string {
	if t == ShapeTypeNone {
		return "None"
	}
	if !t.IsValid() {
		return fmt.Sprintf("ShapeType(%d)", int(t))
	}
	return shapeTypeNames[t]
}

// Shape is an immutable volume described in its local frame.
type Shape interface {
	Type() ShapeType
	Volume() float64
	// Center is the center of volume in the local frame.
	Center() mgl64.Vec3
	// SecondMomentOfVolume is the inertia tensor about Center for a unit density.
	SecondMomentOfVolume() mgl64.Mat3
	// AABB returns the world bounding box of the shape placed at pose.
	AABB(pose linalg.RigidTransform) AABB
}

// MassOf returns the mass of shape filled with the given density.
func MassOf(shape Shape, density float64) float64 {
	return density * shape.Volume()
}

// InertiaOf returns the inertia tensor of shape filled with the given density.
func InertiaOf(shape Shape, density float64) mgl64.Mat3 {
	return shape.SecondMomentOfVolume().Mul(density)
}
