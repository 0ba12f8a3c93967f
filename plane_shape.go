package surgsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// PlaneShape is the half space below the local XZ plane, its normal is +Y.
type PlaneShape struct{}

func (PlaneShape) Type() ShapeType { return ShapeTypePlane }

func (PlaneShape) Volume() float64 { return 0 }

func (PlaneShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (PlaneShape) SecondMomentOfVolume() mgl64.Mat3 { return mgl64.Mat3{} }

func (PlaneShape) AABB(linalg.RigidTransform) AABB { return unboundedAABB() }

// DoubleSidedPlaneShape is the local XZ plane, penetrable from either side.
type DoubleSidedPlaneShape struct{}

func (DoubleSidedPlaneShape) Type() ShapeType { return ShapeTypeDoubleSidedPlane }

func (DoubleSidedPlaneShape) Volume() float64 { return 0 }

func (DoubleSidedPlaneShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (DoubleSidedPlaneShape) SecondMomentOfVolume() mgl64.Mat3 { return mgl64.Mat3{} }

func (DoubleSidedPlaneShape) AABB(linalg.RigidTransform) AABB { return unboundedAABB() }

// worldPlane returns the normal n and offset d of a plane placed at pose,
// the plane holds the points p with n·p + d = 0.
func worldPlane(pose linalg.RigidTransform) (mgl64.Vec3, float64) {
	n := pose.ApplyVector(vecY)
	return n, -n.Dot(pose.Translation)
}
