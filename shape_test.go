package surgsim_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim"
	"github.com/setanarut/surgsim/linalg"
	"github.com/stretchr/testify/assert"
)

func cubeMesh(size float64) *surgsim.MeshShape {
	h := size / 2
	vertices := []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	triangles := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // back
		{4, 5, 6}, {4, 6, 7}, // front
		{0, 1, 5}, {0, 5, 4}, // bottom
		{3, 7, 6}, {3, 6, 2}, // top
		{0, 4, 7}, {0, 7, 3}, // left
		{1, 2, 6}, {1, 6, 5}, // right
	}
	return surgsim.NewMeshShape(vertices, triangles)
}

func TestShapeVolumes(t *testing.T) {
	tests := []struct {
		name   string
		shape  surgsim.Shape
		kind   surgsim.ShapeType
		volume float64
	}{
		{"sphere", surgsim.NewSphereShape(2), surgsim.ShapeTypeSphere, 32 * math.Pi / 3},
		{"box", surgsim.NewBoxShape(1, 2, 3), surgsim.ShapeTypeBox, 6},
		{"cylinder", surgsim.NewCylinderShape(2, 1), surgsim.ShapeTypeCylinder, 2 * math.Pi},
		{"capsule", surgsim.NewCapsuleShape(2, 1), surgsim.ShapeTypeCapsule, 2*math.Pi + 4*math.Pi/3},
		{"mesh", cubeMesh(2), surgsim.ShapeTypeMesh, 8},
		{"plane", surgsim.PlaneShape{}, surgsim.ShapeTypePlane, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.shape.Type())
			assert.InDelta(t, tt.volume, tt.shape.Volume(), 1e-9)
		})
	}
}

func TestShapeInertia(t *testing.T) {
	sphere := surgsim.NewSphereShape(1)
	expected := 2.0 / 5.0 * surgsim.MassOf(sphere, 10)
	inertia := surgsim.InertiaOf(sphere, 10)
	for i := range 3 {
		assert.InDelta(t, expected, inertia.At(i, i), 1e-9)
	}

	// a closed cube mesh has the volume properties of the box
	box := surgsim.NewBoxShape(2, 2, 2)
	mesh := cubeMesh(2)
	assertVec3(t, mgl64.Vec3{}, mesh.Center(), 1e-12)
	boxInertia, meshInertia := box.SecondMomentOfVolume(), mesh.SecondMomentOfVolume()
	for i := range 3 {
		for j := range 3 {
			assert.InDelta(t, boxInertia.At(i, j), meshInertia.At(i, j), 1e-9, "(%d, %d)", i, j)
		}
	}
}

func TestInvalidShapes(t *testing.T) {
	assert.Panics(t, func() { surgsim.NewSphereShape(0) })
	assert.Panics(t, func() { surgsim.NewBoxShape(1, -1, 1) })
	assert.Panics(t, func() { surgsim.NewCapsuleShape(-1, 1) })
	assert.Panics(t, func() { surgsim.NewMeshShape([]mgl64.Vec3{{}}, [][3]int{{0, 1, 2}}) })
}

func TestShapeAABB(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	pose := linalg.NewRigidTransform(rotation, mgl64.Vec3{1, 2, 3})

	bb := surgsim.NewBoxShape(2, 4, 6).AABB(pose)
	assertVec3(t, mgl64.Vec3{-1, 1, 0}, bb.Min, 1e-9)
	assertVec3(t, mgl64.Vec3{3, 3, 6}, bb.Max, 1e-9)

	bb = surgsim.NewCapsuleShape(2, 0.5).AABB(pose)
	assertVec3(t, mgl64.Vec3{-0.5, 1.5, 2.5}, bb.Min, 1e-9)
	assertVec3(t, mgl64.Vec3{2.5, 2.5, 3.5}, bb.Max, 1e-9)

	bb = surgsim.NewSphereShape(1).AABB(pose)
	assertVec3(t, mgl64.Vec3{0, 1, 2}, bb.Min, 1e-12)

	bb = cubeMesh(2).AABB(linalg.NewRigidTransformTranslate(mgl64.Vec3{5, 0, 0}))
	assertVec3(t, mgl64.Vec3{4, -1, -1}, bb.Min, 1e-12)
	assertVec3(t, mgl64.Vec3{6, 1, 1}, bb.Max, 1e-12)

	plane := surgsim.PlaneShape{}.AABB(pose)
	assert.True(t, plane.ContainsPoint(mgl64.Vec3{1e6, -1e6, 1e6}))
}

func TestAABB(t *testing.T) {
	a := surgsim.NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := surgsim.NewAABB(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{2, 2, 2})
	c := surgsim.NewAABB(mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{2, 1, 1})

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
	assert.True(t, a.Merge(c).Contains(a))
	assert.InDelta(t, 2, a.MergedVolume(c), 1e-12)
	assert.True(t, a.Inflate(0.5).Intersects(c))
	assert.True(t, a.ContainsPoint(mgl64.Vec3{1, 1, 1}))
	assertVec3(t, mgl64.Vec3{0.5, 0.5, 0.5}, a.Center(), 1e-12)
}
