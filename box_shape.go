package surgsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// BoxShape is a box centered on the local origin.
type BoxShape struct {
	// Size holds the full extents along x, y and z.
	Size mgl64.Vec3
}

func (b *BoxShape) Type() ShapeType { return ShapeTypeBox }

func (b *BoxShape) Volume() float64 { return b.Size[0] * b.Size[1] * b.Size[2] }

func (b *BoxShape) Center() mgl64.Vec3 { return mgl64.Vec3{} }

func (b *BoxShape) SecondMomentOfVolume() mgl64.Mat3 {
	return MomentForBox(b.Volume(), b.Size)
}

func (b *BoxShape) HalfSize() mgl64.Vec3 { return b.Size.Mul(0.5) }

// Vertex returns corner i of the box, 0 <= i < 8. Bits 0, 1 and 2 of i pick
// the positive side along x, y and z.
func (b *BoxShape) Vertex(i int) mgl64.Vec3 {
	h := b.HalfSize()
	for axis := range 3 {
		if i&(1<<axis) == 0 {
			h[axis] = -h[axis]
		}
	}
	return h
}

// Vertices returns the 8 corners of the box.
func (b *BoxShape) Vertices() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		out[i] = b.Vertex(i)
	}
	return out
}

func (b *BoxShape) AABB(pose linalg.RigidTransform) AABB {
	return transformAABB(NewAABBForExtents(mgl64.Vec3{}, b.HalfSize()), pose.RotationMatrix(), pose.Translation)
}
