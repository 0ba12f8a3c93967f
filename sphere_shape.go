package surgsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// SphereShape is a sphere centered on the local origin.
type SphereShape struct {
	Radius float64
}

func (s *SphereShape) Type() ShapeType { return ShapeTypeSphere }

func (s *SphereShape) Volume() float64 { return VolumeForSphere(s.Radius) }

func (s *SphereShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (s *SphereShape) SecondMomentOfVolume() mgl64.Mat3 {
	return MomentForSphere(s.Volume(), s.Radius)
}

func (s *SphereShape) AABB(pose linalg.RigidTransform) AABB {
	return NewAABBForSphere(pose.Translation, s.Radius)
}
