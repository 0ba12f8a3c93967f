package surgsim

import (
	"fmt"
	"math"

	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/mat"
)

// FemElement3DTetrahedron is a linear tetrahedron, 3 translational dof per
// node. Its nodes must be ordered so that the rest volume is positive.
type FemElement3DTetrahedron struct {
	femElementBase

	// gradients of the shape functions, one row per node
	gradients *mat.Dense
}

func NewFemElement3DTetrahedron(nodeIDs [4]int, material MaterialParameters) *FemElement3DTetrahedron {
	return &FemElement3DTetrahedron{
		femElementBase: femElementBase{nodeIDs: nodeIDs[:], dofPerNode: 3, material: material},
	}
}

func (e *FemElement3DTetrahedron) Initialize(rest *ode.State) error {
	if err := e.checkNodes(rest); err != nil {
		return err
	}

	// rows [1 x y z] of every node, the inverse holds the shape functions
	v := mat.NewDense(4, 4, nil)
	for node := range 4 {
		p := linalg.Vec3At(e.rest, 3*node)
		v.SetRow(node, []float64{1, p[0], p[1], p[2]})
	}
	det := mat.Det(v)
	e.volume = det / 6
	if e.volume <= 0 || math.Abs(det) < 1e-18 {
		return fmt.Errorf("tetrahedron %v with volume %v: %w", e.nodeIDs, e.volume, ErrInvalidParameters)
	}

	var inv mat.Dense
	if err := inv.Inverse(v); err != nil {
		return fmt.Errorf("tetrahedron %v: %w", e.nodeIDs, err)
	}
	e.gradients = mat.NewDense(4, 3, nil)
	for node := range 4 {
		for axis := range 3 {
			e.gradients.Set(node, axis, inv.At(axis+1, node))
		}
	}

	b := mat.NewDense(6, 12, nil)
	for node := range 4 {
		dx, dy, dz := e.gradients.At(node, 0), e.gradients.At(node, 1), e.gradients.At(node, 2)
		col := 3 * node
		b.Set(0, col, dx)
		b.Set(1, col+1, dy)
		b.Set(2, col+2, dz)
		b.Set(3, col, dy)
		b.Set(3, col+1, dx)
		b.Set(4, col+1, dz)
		b.Set(4, col+2, dy)
		b.Set(5, col, dz)
		b.Set(5, col+2, dx)
	}
	e.stiffness = btdb(b, isotropicElasticity(e.material), e.volume)
	e.mass = simplexMass(e.material.MassDensity*e.volume, 4)
	return nil
}
