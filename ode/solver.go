package ode

import (
	"fmt"

	"github.com/setanarut/surgsim/linalg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IntegrationScheme selects the ode solver of a representation.
type IntegrationScheme int

const (
	ExplicitEulerScheme IntegrationScheme = iota
	ModifiedExplicitEulerScheme
	LinearModifiedExplicitEulerScheme
	ImplicitEulerScheme
	LinearImplicitEulerScheme
)

func (s IntegrationScheme) String() string {
	switch s {
	case ExplicitEulerScheme:
		return "IntegrationSchemeExplicitEuler"
	case ModifiedExplicitEulerScheme:
		return "IntegrationSchemeModifiedExplicitEuler"
	case LinearModifiedExplicitEulerScheme:
		return "IntegrationSchemeLinearModifiedExplicitEuler"
	case ImplicitEulerScheme:
		return "IntegrationSchemeImplicitEuler"
	case LinearImplicitEulerScheme:
		return "IntegrationSchemeLinearImplicitEuler"
	}
	return fmt.Sprintf("IntegrationScheme(%d)", int(s))
}

// Solver advances the state of an Equation by one time step.
type Solver interface {
	Name() string

	// Solve integrates current over dt and writes the result into next.
	Solve(dt float64, current, next *State) error

	// SystemMatrix is the matrix inverted by the last Solve.
	SystemMatrix() *mat.Dense

	// Compliance is the inverse of SystemMatrix with the boundary condition
	// rows and columns zeroed. It maps a generalized force to a velocity change.
	Compliance() *mat.Dense

	LinearSolver() linalg.LinearSolveAndInverse
	SetLinearSolver(solver linalg.LinearSolveAndInverse)
}

// NewSolver returns the solver for scheme, using a dense linear solver.
func NewSolver(scheme IntegrationScheme, equation Equation) Solver {
	switch scheme {
	case ExplicitEulerScheme:
		return NewExplicitEuler(equation)
	case ModifiedExplicitEulerScheme:
		return NewModifiedExplicitEuler(equation)
	case LinearModifiedExplicitEulerScheme:
		return NewLinearModifiedExplicitEuler(equation)
	case ImplicitEulerScheme:
		return NewImplicitEuler(equation)
	case LinearImplicitEulerScheme:
		return NewLinearImplicitEuler(equation)
	}
	panic(fmt.Sprintf("ode: unknown integration scheme %v", scheme))
}

type solverBase struct {
	name         string
	equation     Equation
	linearSolver linalg.LinearSolveAndInverse
	systemMatrix *mat.Dense
	compliance   *mat.Dense
}

func (s *solverBase) Name() string              { return s.name }
func (s *solverBase) SystemMatrix() *mat.Dense { return s.systemMatrix }
func (s *solverBase) Compliance() *mat.Dense   { return s.compliance }

func (s *solverBase) LinearSolver() linalg.LinearSolveAndInverse { return s.linearSolver }

func (s *solverBase) SetLinearSolver(solver linalg.LinearSolveAndInverse) {
	s.linearSolver = solver
}

// solveSystem solves system·deltaV = f with the boundary conditions of state
// enforced, and caches the system matrix and its compliance.
func (s *solverBase) solveSystem(state *State, system *mat.Dense, f []float64) ([]float64, error) {
	state.ApplyBoundaryConditionsToMatrix(system, true)
	state.ApplyBoundaryConditionsToVector(f)

	deltaV, inverse, err := s.linearSolver.Solve(system, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	state.ApplyBoundaryConditionsToMatrix(inverse, false)

	s.systemMatrix = system
	s.compliance = inverse
	return deltaV, nil
}

// applyCompliance returns Compliance()·f with the boundary conditions of state enforced.
func (s *solverBase) applyCompliance(state *State, f []float64) []float64 {
	state.ApplyBoundaryConditionsToVector(f)
	deltaV := make([]float64, len(f))
	mat.NewVecDense(len(f), deltaV).MulVec(s.compliance, mat.NewVecDense(len(f), f))
	return deltaV
}

// massSystem returns M/dt.
func massSystem(m *mat.Dense, dt float64) *mat.Dense {
	var system mat.Dense
	system.Scale(1/dt, m)
	return &system
}

// commit writes the new velocity and acceleration derived from deltaV into next.
// Positions are integrated with the new velocity when symplectic is set, with
// the previous one otherwise. Fixed dof keep their position and have zero velocity.
func commit(dt float64, current, next *State, deltaV []float64, symplectic bool) {
	if next != current {
		next.CopyFrom(current)
	}
	x, v, a := next.Positions(), next.Velocities(), next.Accelerations()
	if !symplectic {
		floats.AddScaled(x, dt, v)
	}
	floats.Add(v, deltaV)
	floats.ScaleTo(a, 1/dt, deltaV)
	next.ApplyBoundaryConditionsToVector(v)
	next.ApplyBoundaryConditionsToVector(a)
	if symplectic {
		floats.AddScaled(x, dt, v)
	}
}

// ExplicitEuler integrates
//
//	x(t+dt) = x(t) + dt·v(t)
//	v(t+dt) = v(t) + dt·a(t)
type ExplicitEuler struct {
	solverBase
}

func NewExplicitEuler(equation Equation) *ExplicitEuler {
	return &ExplicitEuler{solverBase{name: "Ode Solver Euler Explicit", equation: equation, linearSolver: linalg.DenseMatrix{}}}
}

func (s *ExplicitEuler) Solve(dt float64, current, next *State) error {
	f := s.equation.ComputeF(current)
	m := s.equation.ComputeM(current)
	deltaV, err := s.solveSystem(current, massSystem(m, dt), f)
	if err != nil {
		return err
	}
	commit(dt, current, next, deltaV, false)
	return nil
}

// ModifiedExplicitEuler updates the velocity first and moves the positions with
// the new velocity (symplectic Euler).
type ModifiedExplicitEuler struct {
	solverBase
}

func NewModifiedExplicitEuler(equation Equation) *ModifiedExplicitEuler {
	return &ModifiedExplicitEuler{solverBase{name: "Ode Solver Euler Explicit Modified", equation: equation, linearSolver: linalg.DenseMatrix{}}}
}

func (s *ModifiedExplicitEuler) Solve(dt float64, current, next *State) error {
	f := s.equation.ComputeF(current)
	m := s.equation.ComputeM(current)
	deltaV, err := s.solveSystem(current, massSystem(m, dt), f)
	if err != nil {
		return err
	}
	commit(dt, current, next, deltaV, true)
	return nil
}

// LinearModifiedExplicitEuler is ModifiedExplicitEuler for a constant mass
// matrix: the compliance computed on the first call is reused afterwards and
// only the force vector is evaluated.
type LinearModifiedExplicitEuler struct {
	solverBase
	initialized bool
}

func NewLinearModifiedExplicitEuler(equation Equation) *LinearModifiedExplicitEuler {
	return &LinearModifiedExplicitEuler{solverBase: solverBase{name: "Ode Solver Linear Euler Explicit Modified", equation: equation, linearSolver: linalg.DenseMatrix{}}}
}

func (s *LinearModifiedExplicitEuler) Solve(dt float64, current, next *State) error {
	f := s.equation.ComputeF(current)
	var deltaV []float64
	if !s.initialized {
		var err error
		deltaV, err = s.solveSystem(current, massSystem(s.equation.ComputeM(current), dt), f)
		if err != nil {
			return err
		}
		s.initialized = true
	} else {
		deltaV = s.applyCompliance(current, f)
	}
	commit(dt, current, next, deltaV, true)
	return nil
}

// ImplicitEuler takes one Newton step of backward Euler:
//
//	(M/dt + D + dt·K)·deltaV = F - dt·K·v
type ImplicitEuler struct {
	solverBase
}

func NewImplicitEuler(equation Equation) *ImplicitEuler {
	return &ImplicitEuler{solverBase{name: "Ode Solver Euler Implicit", equation: equation, linearSolver: linalg.DenseMatrix{}}}
}

func (s *ImplicitEuler) Solve(dt float64, current, next *State) error {
	f, m, d, k := s.equation.ComputeFMDK(current)
	system := implicitSystem(dt, m, d, k)
	addStiffnessCorrection(f, k, current.Velocities(), dt)
	deltaV, err := s.solveSystem(current, system, f)
	if err != nil {
		return err
	}
	commit(dt, current, next, deltaV, true)
	return nil
}

// LinearImplicitEuler is ImplicitEuler for constant M, D and K. The compliance
// and K of the first call are cached.
type LinearImplicitEuler struct {
	solverBase
	stiffness *mat.Dense
}

func NewLinearImplicitEuler(equation Equation) *LinearImplicitEuler {
	return &LinearImplicitEuler{solverBase: solverBase{name: "Ode Solver Linear Euler Implicit", equation: equation, linearSolver: linalg.DenseMatrix{}}}
}

func (s *LinearImplicitEuler) Solve(dt float64, current, next *State) error {
	var deltaV []float64
	if s.stiffness == nil {
		f, m, d, k := s.equation.ComputeFMDK(current)
		system := implicitSystem(dt, m, d, k)
		addStiffnessCorrection(f, k, current.Velocities(), dt)
		var err error
		deltaV, err = s.solveSystem(current, system, f)
		if err != nil {
			return err
		}
		s.stiffness = mat.DenseCopyOf(k)
	} else {
		f := s.equation.ComputeF(current)
		addStiffnessCorrection(f, s.stiffness, current.Velocities(), dt)
		deltaV = s.applyCompliance(current, f)
	}
	commit(dt, current, next, deltaV, true)
	return nil
}

func implicitSystem(dt float64, m, d, k *mat.Dense) *mat.Dense {
	system := massSystem(m, dt)
	system.Add(system, d)
	var dtK mat.Dense
	dtK.Scale(dt, k)
	system.Add(system, &dtK)
	return system
}

// addStiffnessCorrection computes f -= dt·K·v in place.
func addStiffnessCorrection(f []float64, k *mat.Dense, v []float64, dt float64) {
	kv := make([]float64, len(v))
	mat.NewVecDense(len(v), kv).MulVec(k, mat.NewVecDense(len(v), v))
	floats.AddScaled(f, -dt, kv)
}
