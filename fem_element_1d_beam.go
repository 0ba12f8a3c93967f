package surgsim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/mat"
)

// FemElement1DBeam is a 3D Euler-Bernoulli beam with a circular section
// between two nodes of 6 dof each, 3 translations then 3 rotations.
type FemElement1DBeam struct {
	femElementBase
	Radius float64

	restLength float64
	rotation   mgl64.Mat3
}

func NewFemElement1DBeam(nodeIDs [2]int, radius float64, material MaterialParameters) *FemElement1DBeam {
	return &FemElement1DBeam{
		femElementBase: femElementBase{nodeIDs: nodeIDs[:], dofPerNode: 6, material: material},
		Radius:         radius,
	}
}

func (e *FemElement1DBeam) RestLength() float64 { return e.restLength }

func (e *FemElement1DBeam) Initialize(rest *ode.State) error {
	if err := e.checkNodes(rest); err != nil {
		return err
	}
	if !(e.Radius > 0) {
		return fmt.Errorf("beam radius %v: %w", e.Radius, ErrInvalidParameters)
	}
	a := linalg.Vec3At(e.rest, 0)
	b := linalg.Vec3At(e.rest, 6)
	axis := b.Sub(a)
	e.restLength = axis.Len()
	if e.restLength < DistanceEpsilon {
		return fmt.Errorf("beam %v of zero length: %w", e.nodeIDs, ErrInvalidParameters)
	}

	// rows are the local axes in world coordinates
	x := axis.Mul(1 / e.restLength)
	y := anyPerpendicular(x)
	z := x.Cross(y)
	e.rotation = mgl64.Mat3FromRows(x, y, z)
	e.volume = math.Pi * e.Radius * e.Radius * e.restLength

	r0 := mat.NewDense(12, 12, nil)
	for block := range 4 {
		linalg.SetMat3(r0, 3*block, 3*block, e.rotation)
	}
	e.mass = rotateElementMatrix(e.localMass(), r0)
	e.stiffness = rotateElementMatrix(e.localStiffness(), r0)
	return nil
}

// rotateElementMatrix returns r0ᵀ·m·r0.
func rotateElementMatrix(m, r0 *mat.Dense) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(m, r0)
	out.Mul(r0.T(), &tmp)
	return &out
}

// setSymmetric sets m(i, j) and m(j, i).
func setSymmetric(m *mat.Dense, i, j int, v float64) {
	m.Set(i, j, v)
	m.Set(j, i, v)
}

func (e *FemElement1DBeam) localStiffness() *mat.Dense {
	l := e.restLength
	area := math.Pi * e.Radius * e.Radius
	iy := math.Pi * math.Pow(e.Radius, 4) / 4
	iz := iy
	j := iy + iz
	youngs := e.material.YoungModulus
	shear := e.material.shearModulus()

	k := mat.NewDense(12, 12, nil)

	axial := youngs * area / l
	setSymmetric(k, 0, 0, axial)
	setSymmetric(k, 6, 6, axial)
	setSymmetric(k, 0, 6, -axial)

	torsion := shear * j / l
	setSymmetric(k, 3, 3, torsion)
	setSymmetric(k, 9, 9, torsion)
	setSymmetric(k, 3, 9, -torsion)

	// bending in the local xy plane, dof v and θz
	b := youngs * iz
	setSymmetric(k, 1, 1, 12*b/(l*l*l))
	setSymmetric(k, 1, 5, 6*b/(l*l))
	setSymmetric(k, 1, 7, -12*b/(l*l*l))
	setSymmetric(k, 1, 11, 6*b/(l*l))
	setSymmetric(k, 5, 5, 4*b/l)
	setSymmetric(k, 5, 7, -6*b/(l*l))
	setSymmetric(k, 5, 11, 2*b/l)
	setSymmetric(k, 7, 7, 12*b/(l*l*l))
	setSymmetric(k, 7, 11, -6*b/(l*l))
	setSymmetric(k, 11, 11, 4*b/l)

	// bending in the local xz plane, dof w and θy
	b = youngs * iy
	setSymmetric(k, 2, 2, 12*b/(l*l*l))
	setSymmetric(k, 2, 4, -6*b/(l*l))
	setSymmetric(k, 2, 8, -12*b/(l*l*l))
	setSymmetric(k, 2, 10, -6*b/(l*l))
	setSymmetric(k, 4, 4, 4*b/l)
	setSymmetric(k, 4, 8, 6*b/(l*l))
	setSymmetric(k, 4, 10, 2*b/l)
	setSymmetric(k, 8, 8, 12*b/(l*l*l))
	setSymmetric(k, 8, 10, 6*b/(l*l))
	setSymmetric(k, 10, 10, 4*b/l)
	return k
}

// localMass is the consistent mass matrix, without rotary inertia except
// around the beam axis.
func (e *FemElement1DBeam) localMass() *mat.Dense {
	l := e.restLength
	area := math.Pi * e.Radius * e.Radius
	j := math.Pi * math.Pow(e.Radius, 4) / 2
	rho := e.material.MassDensity
	total := rho * area * l

	m := mat.NewDense(12, 12, nil)

	setSymmetric(m, 0, 0, total/3)
	setSymmetric(m, 6, 6, total/3)
	setSymmetric(m, 0, 6, total/6)

	setSymmetric(m, 3, 3, rho*j*l/3)
	setSymmetric(m, 9, 9, rho*j*l/3)
	setSymmetric(m, 3, 9, rho*j*l/6)

	c := total / 420
	setSymmetric(m, 1, 1, 156*c)
	setSymmetric(m, 1, 5, 22*l*c)
	setSymmetric(m, 1, 7, 54*c)
	setSymmetric(m, 1, 11, -13*l*c)
	setSymmetric(m, 5, 5, 4*l*l*c)
	setSymmetric(m, 5, 7, 13*l*c)
	setSymmetric(m, 5, 11, -3*l*l*c)
	setSymmetric(m, 7, 7, 156*c)
	setSymmetric(m, 7, 11, -22*l*c)
	setSymmetric(m, 11, 11, 4*l*l*c)

	setSymmetric(m, 2, 2, 156*c)
	setSymmetric(m, 2, 4, -22*l*c)
	setSymmetric(m, 2, 8, 54*c)
	setSymmetric(m, 2, 10, 13*l*c)
	setSymmetric(m, 4, 4, 4*l*l*c)
	setSymmetric(m, 4, 8, -13*l*c)
	setSymmetric(m, 4, 10, -3*l*l*c)
	setSymmetric(m, 8, 8, 156*c)
	setSymmetric(m, 8, 10, 22*l*c)
	setSymmetric(m, 10, 10, 4*l*l*c)
	return m
}
