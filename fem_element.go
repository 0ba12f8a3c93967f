package surgsim

import (
	"fmt"

	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/mat"
)

// FemElement is a linear finite element. Its mass and stiffness matrices are
// computed once from the rest state and expressed in world coordinates.
type FemElement interface {
	NodeIDs() []int
	NumDofPerNode() int
	// Initialize computes the element matrices from the rest state.
	Initialize(rest *ode.State) error
	// Volume is the rest volume (or area, or length) of the element.
	Volume() float64
	Mass() *mat.Dense
	Stiffness() *mat.Dense
	// IsValidCoordinate reports whether coordinate holds barycentric weights
	// of the element nodes.
	IsValidCoordinate(coordinate []float64) bool
}

// MaterialParameters describe a linear elastic isotropic material.
type MaterialParameters struct {
	MassDensity  float64
	YoungModulus float64
	PoissonRatio float64
}

func (p MaterialParameters) Validate() error {
	if !(p.MassDensity > 0) || !(p.YoungModulus > 0) || p.PoissonRatio <= -1 || p.PoissonRatio >= 0.5 {
		return fmt.Errorf("material %+v: %w", p, ErrInvalidParameters)
	}
	return nil
}

func (p MaterialParameters) shearModulus() float64 {
	return p.YoungModulus / (2 * (1 + p.PoissonRatio))
}

// femElementBase holds what every linear element shares.
type femElementBase struct {
	nodeIDs    []int
	dofPerNode int
	material   MaterialParameters
	volume     float64
	rest       []float64
	mass       *mat.Dense
	stiffness  *mat.Dense
}

func (e *femElementBase) NodeIDs() []int { return e.nodeIDs }

func (e *femElementBase) NumDofPerNode() int { return e.dofPerNode }

func (e *femElementBase) Volume() float64 { return e.volume }

func (e *femElementBase) Mass() *mat.Dense { return e.mass }

func (e *femElementBase) Stiffness() *mat.Dense { return e.stiffness }

// IsValidCoordinate reports whether coordinate holds one non negative weight
// per node, summing to 1.
func (e *femElementBase) IsValidCoordinate(coordinate []float64) bool {
	if len(coordinate) != len(e.nodeIDs) {
		return false
	}
	var sum float64
	for _, w := range coordinate {
		if w < -1e-9 {
			return false
		}
		sum += w
	}
	return sum > 1-1e-9 && sum < 1+1e-9
}

// checkNodes verifies the element nodes exist in state and keeps their rest positions.
func (e *femElementBase) checkNodes(rest *ode.State) error {
	if err := e.material.Validate(); err != nil {
		return err
	}
	if rest.NumDofPerNode() != e.dofPerNode {
		return fmt.Errorf("element with %d dof per node in a state with %d: %w", e.dofPerNode, rest.NumDofPerNode(), ErrInvalidParameters)
	}
	for _, id := range e.nodeIDs {
		if id < 0 || id >= rest.NumNodes() {
			return fmt.Errorf("element node %d out of %d nodes: %w", id, rest.NumNodes(), ErrInvalidParameters)
		}
	}
	e.rest = linalg.SubVectorBlocks(rest.Positions(), e.nodeIDs, e.dofPerNode)
	return nil
}

// isotropicElasticity returns the 6x6 elasticity matrix of the material,
// strains ordered xx, yy, zz, xy, yz, zx with engineering shears.
func isotropicElasticity(p MaterialParameters) *mat.Dense {
	e, nu := p.YoungModulus, p.PoissonRatio
	c := e / ((1 + nu) * (1 - 2*nu))
	d := mat.NewDense(6, 6, nil)
	for i := range 3 {
		for j := range 3 {
			if i == j {
				d.Set(i, j, c*(1-nu))
			} else {
				d.Set(i, j, c*nu)
			}
		}
		d.Set(3+i, 3+i, c*(1-2*nu)/2)
	}
	return d
}

// btdb returns scale·Bᵀ·D·B.
func btdb(b, d *mat.Dense, scale float64) *mat.Dense {
	var db, k mat.Dense
	db.Mul(d, b)
	k.Mul(b.T(), &db)
	k.Scale(scale, &k)
	return &k
}

// simplexMass returns the consistent mass matrix of a simplex element with n
// nodes and 3 dof per node, m/(n(n+1))·(1 + δij) on every axis.
func simplexMass(mass float64, n int) *mat.Dense {
	m := mat.NewDense(3*n, 3*n, nil)
	unit := mass / float64(n*(n+1))
	for a := range n {
		for b := range n {
			w := unit
			if a == b {
				w *= 2
			}
			for axis := range 3 {
				m.Set(3*a+axis, 3*b+axis, w)
			}
		}
	}
	return m
}
