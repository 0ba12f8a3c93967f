package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// MeshShape is a closed triangle mesh. Triangles are wound counter clockwise
// seen from outside.
type MeshShape struct {
	vertices  []mgl64.Vec3
	triangles [][3]int

	volume       float64
	center       mgl64.Vec3
	secondMoment mgl64.Mat3
}

// NewMeshShape computes the volume properties of the mesh. It panics when a
// triangle refers to a missing vertex.
func NewMeshShape(vertices []mgl64.Vec3, triangles [][3]int) *MeshShape {
	for i, t := range triangles {
		for _, id := range t {
			if id < 0 || id >= len(vertices) {
				panic(fmt.Sprintf("surgsim: triangle %d refers to vertex %d of %d", i, id, len(vertices)))
			}
		}
	}
	m := &MeshShape{vertices: vertices, triangles: triangles}
	m.computeVolumeIntegrals()
	return m
}

func (m *MeshShape) Type() ShapeType { return ShapeTypeMesh }

func (m *MeshShape) Volume() float64 { return m.volume }

func (m *MeshShape) Center() mgl64.Vec3 { return m.center }

func (m *MeshShape) SecondMomentOfVolume() mgl64.Mat3 { return m.secondMoment }

func (m *MeshShape) Vertices() []mgl64.Vec3 { return m.vertices }

func (m *MeshShape) Triangles() [][3]int { return m.triangles }

func (m *MeshShape) AABB(pose linalg.RigidTransform) AABB {
	points := make([]mgl64.Vec3, len(m.vertices))
	for i, v := range m.vertices {
		points[i] = pose.Apply(v)
	}
	return NewAABBForPoints(points...)
}

// subexpressions of the polynomial integrals over one triangle along one axis.
func subexpressions(w0, w1, w2 float64) (f1, f2, f3, g0, g1, g2 float64) {
	temp0 := w0 + w1
	f1 = temp0 + w2
	temp1 := w0 * w0
	temp2 := temp1 + w1*temp0
	f2 = temp2 + w2*f1
	f3 = w0*temp1 + w1*temp2 + w2*f2
	g0 = f2 + w0*(f1+w0)
	g1 = f2 + w1*(f1+w1)
	g2 = f2 + w2*(f1+w2)
	return
}

// computeVolumeIntegrals integrates 1, x, y, z, x², y², z², xy, yz and zx
// over the enclosed volume with the divergence theorem.
func (m *MeshShape) computeVolumeIntegrals() {
	mult := [10]float64{1. / 6, 1. / 24, 1. / 24, 1. / 24, 1. / 60, 1. / 60, 1. / 60, 1. / 120, 1. / 120, 1. / 120}
	var intg [10]float64

	for _, t := range m.triangles {
		p0, p1, p2 := m.vertices[t[0]], m.vertices[t[1]], m.vertices[t[2]]
		d := p1.Sub(p0).Cross(p2.Sub(p0))

		f1x, f2x, f3x, g0x, g1x, g2x := subexpressions(p0[0], p1[0], p2[0])
		_, f2y, f3y, g0y, g1y, g2y := subexpressions(p0[1], p1[1], p2[1])
		_, f2z, f3z, g0z, g1z, g2z := subexpressions(p0[2], p1[2], p2[2])

		intg[0] += d[0] * f1x
		intg[1] += d[0] * f2x
		intg[2] += d[1] * f2y
		intg[3] += d[2] * f2z
		intg[4] += d[0] * f3x
		intg[5] += d[1] * f3y
		intg[6] += d[2] * f3z
		intg[7] += d[0] * (p0[1]*g0x + p1[1]*g1x + p2[1]*g2x)
		intg[8] += d[1] * (p0[2]*g0y + p1[2]*g1y + p2[2]*g2y)
		intg[9] += d[2] * (p0[0]*g0z + p1[0]*g1z + p2[0]*g2z)
	}
	for i := range intg {
		intg[i] *= mult[i]
	}

	m.volume = intg[0]
	if m.volume == 0 {
		return
	}
	c := mgl64.Vec3{intg[1], intg[2], intg[3]}.Mul(1 / m.volume)
	m.center = c

	xx := intg[5] + intg[6] - m.volume*(c[1]*c[1]+c[2]*c[2])
	yy := intg[4] + intg[6] - m.volume*(c[2]*c[2]+c[0]*c[0])
	zz := intg[4] + intg[5] - m.volume*(c[0]*c[0]+c[1]*c[1])
	xy := -(intg[7] - m.volume*c[0]*c[1])
	yz := -(intg[8] - m.volume*c[1]*c[2])
	xz := -(intg[9] - m.volume*c[2]*c[0])

	// column major, symmetric
	m.secondMoment = mgl64.Mat3{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	}
}
