package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"github.com/setanarut/vec"
	"gonum.org/v1/gonum/mat"
)

// FemElement2DTriangle is a thin shell triangle with 6 dof per node, 3
// translations then 3 rotations. In its plane it is a constant strain
// membrane, out of it a discrete Kirchhoff plate. The rotation around the
// normal carries no stiffness.
type FemElement2DTriangle struct {
	femElementBase
	Thickness float64

	// in plane rest coordinates of the nodes
	plane [3]vec.Vec2
	frame mgl64.Mat3
}

func NewFemElement2DTriangle(nodeIDs [3]int, thickness float64, material MaterialParameters) *FemElement2DTriangle {
	return &FemElement2DTriangle{
		femElementBase: femElementBase{nodeIDs: nodeIDs[:], dofPerNode: 6, material: material},
		Thickness:      thickness,
	}
}

func (e *FemElement2DTriangle) Initialize(rest *ode.State) error {
	if err := e.checkNodes(rest); err != nil {
		return err
	}
	if !(e.Thickness > 0) {
		return fmt.Errorf("triangle thickness %v: %w", e.Thickness, ErrInvalidParameters)
	}
	p0, p1, p2 := linalg.Vec3At(e.rest, 0), linalg.Vec3At(e.rest, 6), linalg.Vec3At(e.rest, 12)
	edge1, edge2 := p1.Sub(p0), p2.Sub(p0)
	normal := edge1.Cross(edge2)
	if normal.Len() < SquaredDistanceEpsilon {
		return fmt.Errorf("degenerate triangle %v: %w", e.nodeIDs, ErrInvalidParameters)
	}
	ex := edge1.Normalize()
	ey := normal.Normalize().Cross(ex)
	e.frame = mgl64.Mat3FromRows(ex, ey, normal.Normalize())

	e.plane = [3]vec.Vec2{
		{},
		{X: edge1.Dot(ex), Y: edge1.Dot(ey)},
		{X: edge2.Dot(ex), Y: edge2.Dot(ey)},
	}
	area := e.plane[1].Sub(e.plane[0]).Cross(e.plane[2].Sub(e.plane[0])) / 2
	e.volume = area

	local := e.membraneStiffness(area)
	plate := e.plateStiffness(area)
	for a := range 3 {
		for b := range 3 {
			for r := range 3 {
				for c := range 3 {
					local.Set(6*a+2+r, 6*b+2+c, plate.At(3*a+r, 3*b+c))
				}
			}
		}
	}
	r0 := mat.NewDense(18, 18, nil)
	for block := range 6 {
		linalg.SetMat3(r0, 3*block, 3*block, e.frame)
	}
	e.stiffness = rotateElementMatrix(local, r0)
	e.mass = e.computeMass(area)
	return nil
}

// Area is the rest area of the triangle.
func (e *FemElement2DTriangle) Area() float64 { return e.volume }

// planeStress is the plane stress elasticity of the material.
func (e *FemElement2DTriangle) planeStress() *mat.Dense {
	youngs, nu := e.material.YoungModulus, e.material.PoissonRatio
	c := youngs / (1 - nu*nu)
	return mat.NewDense(3, 3, []float64{
		c, c * nu, 0,
		c * nu, c, 0,
		0, 0, c * (1 - nu) / 2,
	})
}

// gradients returns the derivatives along x and y of the barycentric
// coordinates of the nodes.
func (e *FemElement2DTriangle) gradients(area float64) (dx, dy [3]float64) {
	for i := range 3 {
		pj, pk := e.plane[(i+1)%3], e.plane[(i+2)%3]
		dx[i] = (pj.Y - pk.Y) / (2 * area)
		dy[i] = (pk.X - pj.X) / (2 * area)
	}
	return dx, dy
}

// membraneStiffness is the 18x18 in plane stiffness in local dof, only
// u and v of every node being used.
func (e *FemElement2DTriangle) membraneStiffness(area float64) *mat.Dense {
	dx, dy := e.gradients(area)
	b := mat.NewDense(3, 18, nil)
	for i := range 3 {
		b.Set(0, 6*i, dx[i])
		b.Set(1, 6*i+1, dy[i])
		b.Set(2, 6*i, dy[i])
		b.Set(2, 6*i+1, dx[i])
	}
	return btdb(b, e.planeStress(), e.Thickness*area)
}

// slopeRow is a linear form over the plate dof w, θx, θy of the 3 nodes.
type slopeRow [9]float64

func (r slopeRow) add(o slopeRow, scale float64) slopeRow {
	for i := range r {
		r[i] += scale * o[i]
	}
	return r
}

// plateStiffness is the 9x9 discrete Kirchhoff plate stiffness, dof w, θx,
// θy per node.
//
// The slopes (w,x, w,y) are quadratic over the triangle. At the corners
// they follow the rotations, w,x = -θy and w,y = θx. At mid edges the slope
// along the edge is the one of the cubic w through the edge ends, and the
// slope across the edge is the mean of its ends.
func (e *FemElement2DTriangle) plateStiffness(area float64) *mat.Dense {
	// slopes at the 6 quadratic nodes, corners then mid edges 01, 12, 20
	var gx, gy [6]slopeRow
	for i := range 3 {
		gx[i][3*i+2] = -1
		gy[i][3*i+1] = 1
	}
	for k := range 3 {
		i, j := k, (k+1)%3
		edge := e.plane[j].Sub(e.plane[i])
		l := edge.Mag()
		s := edge.Unit()
		n := s.Perp()

		var alongI, alongJ, acrossI, acrossJ slopeRow
		alongI = alongI.add(gx[i], s.X).add(gy[i], s.Y)
		alongJ = alongJ.add(gx[j], s.X).add(gy[j], s.Y)
		acrossI = acrossI.add(gx[i], n.X).add(gy[i], n.Y)
		acrossJ = acrossJ.add(gx[j], n.X).add(gy[j], n.Y)

		var along slopeRow
		along[3*j] += 3 / (2 * l)
		along[3*i] -= 3 / (2 * l)
		along = along.add(alongI, -0.25).add(alongJ, -0.25)
		var across slopeRow
		across = across.add(acrossI, 0.5).add(acrossJ, 0.5)

		gx[3+k] = slopeRow{}.add(along, s.X).add(across, n.X)
		gy[3+k] = slopeRow{}.add(along, s.Y).add(across, n.Y)
	}

	dx, dy := e.gradients(area)
	d := e.planeStress()
	k := mat.NewDense(9, 9, nil)
	// the curvatures are linear, mid edge points integrate them exactly
	for _, l := range [][3]float64{{0.5, 0.5, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}} {
		var ndx, ndy [6]float64
		for i := range 3 {
			ndx[i] = (4*l[i] - 1) * dx[i]
			ndy[i] = (4*l[i] - 1) * dy[i]
			j := (i + 1) % 3
			ndx[3+i] = 4 * (l[j]*dx[i] + l[i]*dx[j])
			ndy[3+i] = 4 * (l[j]*dy[i] + l[i]*dy[j])
		}
		var kxx, kyy, kxy slopeRow
		for m := range 6 {
			kxx = kxx.add(gx[m], ndx[m])
			kyy = kyy.add(gy[m], ndy[m])
			kxy = kxy.add(gx[m], ndy[m]).add(gy[m], ndx[m])
		}
		b := mat.NewDense(3, 9, nil)
		b.SetRow(0, kxx[:])
		b.SetRow(1, kyy[:])
		b.SetRow(2, kxy[:])
		t := e.Thickness
		k.Add(k, btdb(b, d, t*t*t/12*area/3))
	}
	return k
}

// computeMass is the consistent mass of the translations with the rotary
// inertia of the plate on every rotation.
func (e *FemElement2DTriangle) computeMass(area float64) *mat.Dense {
	total := e.material.MassDensity * e.Thickness * area
	translations := simplexMass(total, 3)
	m := mat.NewDense(18, 18, nil)
	for a := range 3 {
		for b := range 3 {
			linalg.SetMat3(m, 6*a, 6*b, linalg.Mat3At(translations, 3*a, 3*b))
		}
		rotary := total / 3 * e.Thickness * e.Thickness / 12
		for axis := 3; axis < 6; axis++ {
			m.Set(6*a+axis, 6*a+axis, rotary)
		}
	}
	return m
}
