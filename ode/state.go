package ode

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// State is the continuous state of an ode: positions, velocities and
// accelerations stored as flat vectors of NumNodes()*NumDofPerNode() entries,
// plus the list of degrees of freedom held fixed by boundary conditions.
type State struct {
	numDofPerNode int
	numNodes      int

	x, v, a []float64

	boundaryConditionsPerDof []bool
	boundaryConditions       []int
}

// NewState allocates a zeroed state for numNodes nodes of numDofPerNode dof each.
func NewState(numDofPerNode, numNodes int) *State {
	s := &State{}
	s.SetNumDof(numDofPerNode, numNodes)
	return s
}

// SetNumDof resizes the state and clears every vector and boundary condition.
func (s *State) SetNumDof(numDofPerNode, numNodes int) {
	if numDofPerNode <= 0 || numNodes <= 0 {
		panic(fmt.Sprintf("ode: invalid state size %d nodes x %d dof", numNodes, numDofPerNode))
	}
	n := numDofPerNode * numNodes
	s.numDofPerNode = numDofPerNode
	s.numNodes = numNodes
	s.x = make([]float64, n)
	s.v = make([]float64, n)
	s.a = make([]float64, n)
	s.boundaryConditionsPerDof = make([]bool, n)
	s.boundaryConditions = s.boundaryConditions[:0]
}

func (s *State) NumDof() int        { return len(s.x) }
func (s *State) NumDofPerNode() int { return s.numDofPerNode }
func (s *State) NumNodes() int      { return s.numNodes }

func (s *State) Positions() []float64     { return s.x }
func (s *State) Velocities() []float64    { return s.v }
func (s *State) Accelerations() []float64 { return s.a }

// Position returns the translational part of node nodeID.
func (s *State) Position(nodeID int) mgl64.Vec3 {
	i := nodeID * s.numDofPerNode
	return mgl64.Vec3{s.x[i], s.x[i+1], s.x[i+2]}
}

// Velocity returns the translational velocity of node nodeID.
func (s *State) Velocity(nodeID int) mgl64.Vec3 {
	i := nodeID * s.numDofPerNode
	return mgl64.Vec3{s.v[i], s.v[i+1], s.v[i+2]}
}

// AddBoundaryCondition fixes every dof of nodeID.
func (s *State) AddBoundaryCondition(nodeID int) {
	for dof := range s.numDofPerNode {
		s.AddBoundaryConditionDof(nodeID, dof)
	}
}

// AddBoundaryConditionDof fixes a single dof of nodeID.
func (s *State) AddBoundaryConditionDof(nodeID, dofID int) {
	if nodeID < 0 || nodeID >= s.numNodes {
		panic(fmt.Sprintf("ode: boundary condition on invalid node %d (%d nodes)", nodeID, s.numNodes))
	}
	if dofID < 0 || dofID >= s.numDofPerNode {
		panic(fmt.Sprintf("ode: boundary condition on invalid dof %d (%d dof per node)", dofID, s.numDofPerNode))
	}
	i := nodeID*s.numDofPerNode + dofID
	if !s.boundaryConditionsPerDof[i] {
		s.boundaryConditionsPerDof[i] = true
		s.boundaryConditions = append(s.boundaryConditions, i)
	}
}

// BoundaryConditions returns the fixed dof indices in the order they were added.
func (s *State) BoundaryConditions() []int {
	return s.boundaryConditions
}

func (s *State) NumBoundaryConditions() int {
	return len(s.boundaryConditions)
}

func (s *State) IsBoundaryConditionDof(dof int) bool {
	return s.boundaryConditionsPerDof[dof]
}

// ApplyBoundaryConditionsToVector zeroes the fixed entries of v and returns it.
func (s *State) ApplyBoundaryConditionsToVector(v []float64) []float64 {
	if len(v) != s.NumDof() {
		panic(fmt.Sprintf("ode: vector of size %d for a state of %d dof", len(v), s.NumDof()))
	}
	for _, dof := range s.boundaryConditions {
		v[dof] = 0
	}
	return v
}

// ApplyBoundaryConditionsToMatrix zeroes the rows and columns of the fixed dof.
// With setDiagonal the diagonal entry is set to 1, which keeps a system matrix invertible.
func (s *State) ApplyBoundaryConditionsToMatrix(m *mat.Dense, setDiagonal bool) {
	r, c := m.Dims()
	if r != s.NumDof() || c != s.NumDof() {
		panic(fmt.Sprintf("ode: matrix of size %dx%d for a state of %d dof", r, c, s.NumDof()))
	}
	for _, dof := range s.boundaryConditions {
		for k := range r {
			m.Set(dof, k, 0)
			m.Set(k, dof, 0)
		}
		if setDiagonal {
			m.Set(dof, dof, 1)
		}
	}
}

// Reset zeroes every vector, keeping the size and boundary conditions.
func (s *State) Reset() {
	clear(s.x)
	clear(s.v)
	clear(s.a)
}

// CopyFrom makes s a deep copy of other.
func (s *State) CopyFrom(other *State) {
	s.numDofPerNode = other.numDofPerNode
	s.numNodes = other.numNodes
	s.x = append(s.x[:0], other.x...)
	s.v = append(s.v[:0], other.v...)
	s.a = append(s.a[:0], other.a...)
	s.boundaryConditionsPerDof = append(s.boundaryConditionsPerDof[:0], other.boundaryConditionsPerDof...)
	s.boundaryConditions = append(s.boundaryConditions[:0], other.boundaryConditions...)
}

func (s *State) Clone() *State {
	out := &State{}
	out.CopyFrom(s)
	return out
}

// IsValid reports whether positions and velocities hold only finite numbers.
func (s *State) IsValid() bool {
	for _, v := range [][]float64{s.x, s.v} {
		if floats.HasNaN(v) || slices.ContainsFunc(v, func(f float64) bool { return math.IsInf(f, 0) }) {
			return false
		}
	}
	return true
}
