package surgsim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// CylinderShape is a cylinder along the local Y axis, centered on the origin.
type CylinderShape struct {
	Length, Radius float64
}

func (c *CylinderShape) Type() ShapeType { return ShapeTypeCylinder }

func (c *CylinderShape) Volume() float64 { return math.Pi * c.Radius * c.Radius * c.Length }

func (c *CylinderShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (c *CylinderShape) SecondMomentOfVolume() mgl64.Mat3 {
	return MomentForCylinder(c.Volume(), c.Length, c.Radius)
}

func (c *CylinderShape) AABB(pose linalg.RigidTransform) AABB {
	local := NewAABBForExtents(mgl64.Vec3{}, mgl64.Vec3{c.Radius, c.Length / 2, c.Radius})
	return transformAABB(local, pose.RotationMatrix(), pose.Translation)
}

// CapsuleShape is a cylinder along the local Y axis closed by two half
// spheres. Length is the length of the cylinder part.
type CapsuleShape struct {
	Length, Radius float64
}

func (c *CapsuleShape) Type() ShapeType { return ShapeTypeCapsule }

func (c *CapsuleShape) Volume() float64 {
	return math.Pi*c.Radius*c.Radius*c.Length + VolumeForSphere(c.Radius)
}

func (c *CapsuleShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (c *CapsuleShape) SecondMomentOfVolume() mgl64.Mat3 {
	return MomentForCapsule(1, c.Length, c.Radius)
}

// TopCentre is the center of the upper cap.
func (c *CapsuleShape) TopCentre() mgl64.Vec3 { return mgl64.Vec3{0, c.Length / 2, 0} }

// BottomCentre is the center of the lower cap.
func (c *CapsuleShape) BottomCentre() mgl64.Vec3 { return mgl64.Vec3{0, -c.Length / 2, 0} }

// segment returns the world ends of the axis of c placed at pose.
func (c *CapsuleShape) segment(pose linalg.RigidTransform) (mgl64.Vec3, mgl64.Vec3) {
	return pose.Apply(c.TopCentre()), pose.Apply(c.BottomCentre())
}

func (c *CapsuleShape) AABB(pose linalg.RigidTransform) AABB {
	top, bottom := c.segment(pose)
	return NewAABBForPoints(top, bottom).Inflate(c.Radius)
}
