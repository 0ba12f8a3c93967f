package ode_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const epsilon = 1e-10

// particles is a set of point masses pulled by gravity and tied to the origin
// by springs of the given stiffness.
type particles struct {
	initial   *ode.State
	mass      float64
	stiffness float64
	gravity   mgl64.Vec3
}

func newParticles(numNodes int, mass float64) *particles {
	state := ode.NewState(3, numNodes)
	for i := range numNodes {
		linalg.SetVec3(state.Positions(), 3*i, mgl64.Vec3{float64(i), 0.5, -1})
		linalg.SetVec3(state.Velocities(), 3*i, mgl64.Vec3{1, 2, 3})
	}
	return &particles{initial: state, mass: mass}
}

func (p *particles) InitialState() *ode.State { return p.initial }

func (p *particles) ComputeF(state *ode.State) []float64 {
	f := make([]float64, state.NumDof())
	for i := range state.NumNodes() {
		x := state.Position(i)
		linalg.SetVec3(f, 3*i, p.gravity.Mul(p.mass).Sub(x.Mul(p.stiffness)))
	}
	return f
}

func (p *particles) diagonal(state *ode.State, value float64) *mat.Dense {
	n := state.NumDof()
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, value)
	}
	return m
}

func (p *particles) ComputeM(state *ode.State) *mat.Dense { return p.diagonal(state, p.mass) }
func (p *particles) ComputeD(state *ode.State) *mat.Dense { return p.diagonal(state, 0) }
func (p *particles) ComputeK(state *ode.State) *mat.Dense { return p.diagonal(state, p.stiffness) }

func (p *particles) ComputeFMDK(state *ode.State) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	return p.ComputeF(state), p.ComputeM(state), p.ComputeD(state), p.ComputeK(state)
}

var allSchemes = []ode.IntegrationScheme{
	ode.ExplicitEulerScheme,
	ode.ModifiedExplicitEulerScheme,
	ode.LinearModifiedExplicitEulerScheme,
	ode.ImplicitEulerScheme,
	ode.LinearImplicitEulerScheme,
}

func TestInertialDrift(t *testing.T) {
	const dt = 1e-3
	for _, scheme := range allSchemes {
		t.Run(scheme.String(), func(t *testing.T) {
			eq := newParticles(2, 1.5)
			solver := ode.NewSolver(scheme, eq)
			current := eq.InitialState().Clone()
			next := current.Clone()
			initial := eq.InitialState()

			for step := 1; step <= 10; step++ {
				require.NoError(t, solver.Solve(dt, current, next))
				assert.InDeltaSlice(t, initial.Velocities(), next.Velocities(), epsilon)
				for i := range next.NumDof() {
					expected := initial.Positions()[i] + float64(step)*dt*initial.Velocities()[i]
					assert.InDelta(t, expected, next.Positions()[i], epsilon)
				}
				current, next = next, current
			}
		})
	}
}

func TestExplicitAndModifiedExplicitEuler(t *testing.T) {
	const dt = 0.01
	eq := newParticles(1, 2)
	eq.gravity = mgl64.Vec3{0, -9.81, 0}
	x0 := eq.initial.Position(0)
	v0 := eq.initial.Velocity(0)
	v1 := v0.Add(eq.gravity.Mul(dt))

	explicit := eq.initial.Clone()
	require.NoError(t, ode.NewExplicitEuler(eq).Solve(dt, eq.initial, explicit))
	assert.True(t, explicit.Position(0).ApproxEqualThreshold(x0.Add(v0.Mul(dt)), epsilon))
	assert.True(t, explicit.Velocity(0).ApproxEqualThreshold(v1, epsilon))

	modified := eq.initial.Clone()
	require.NoError(t, ode.NewModifiedExplicitEuler(eq).Solve(dt, eq.initial, modified))
	assert.True(t, modified.Position(0).ApproxEqualThreshold(x0.Add(v1.Mul(dt)), epsilon))
	assert.True(t, modified.Velocity(0).ApproxEqualThreshold(v1, epsilon))
	assert.InDelta(t, -9.81, modified.Accelerations()[1], 1e-9)
}

func TestBoundaryConditionsNeverMove(t *testing.T) {
	const dt = 1e-3
	for _, scheme := range allSchemes {
		t.Run(scheme.String(), func(t *testing.T) {
			eq := newParticles(3, 1)
			eq.gravity = mgl64.Vec3{0, -9.81, 0}
			eq.stiffness = 10
			eq.initial.AddBoundaryCondition(1)
			linalg.SetVec3(eq.initial.Velocities(), 3, mgl64.Vec3{})
			fixed := eq.initial.Position(1)

			solver := ode.NewSolver(scheme, eq)
			current, next := eq.initial.Clone(), eq.initial.Clone()
			for range 20 {
				require.NoError(t, solver.Solve(dt, current, next))
				assert.Equal(t, fixed, next.Position(1))
				assert.Equal(t, mgl64.Vec3{}, next.Velocity(1))
				current, next = next, current
			}
			assert.NotEqual(t, eq.initial.Position(0), current.Position(0))

			compliance := solver.Compliance()
			for dof := 3; dof < 6; dof++ {
				for k := range current.NumDof() {
					assert.Zero(t, compliance.At(dof, k))
					assert.Zero(t, compliance.At(k, dof))
				}
			}
		})
	}
}

func TestLinearSolversMatchTheirReference(t *testing.T) {
	const dt = 1e-3
	pairs := [][2]ode.IntegrationScheme{
		{ode.ModifiedExplicitEulerScheme, ode.LinearModifiedExplicitEulerScheme},
		{ode.ImplicitEulerScheme, ode.LinearImplicitEulerScheme},
	}
	for _, pair := range pairs {
		eq := newParticles(2, 3)
		eq.gravity = mgl64.Vec3{0, 0, -9.81}
		eq.stiffness = 50

		reference := ode.NewSolver(pair[0], eq)
		linear := ode.NewSolver(pair[1], eq)
		refState, linState := eq.initial.Clone(), eq.initial.Clone()
		for range 10 {
			refNext, linNext := refState.Clone(), linState.Clone()
			require.NoError(t, reference.Solve(dt, refState, refNext))
			require.NoError(t, linear.Solve(dt, linState, linNext))
			assert.InDeltaSlice(t, refNext.Positions(), linNext.Positions(), epsilon)
			assert.InDeltaSlice(t, refNext.Velocities(), linNext.Velocities(), epsilon)
			refState, linState = refNext, linNext
		}
		assert.True(t, mat.EqualApprox(reference.Compliance(), linear.Compliance(), epsilon))
	}
}

func TestImplicitEulerStep(t *testing.T) {
	const dt = 0.01
	eq := newParticles(1, 2)
	eq.stiffness = 100

	next := eq.initial.Clone()
	solver := ode.NewImplicitEuler(eq)
	require.NoError(t, solver.Solve(dt, eq.initial, next))

	x0, v0 := eq.initial.Position(0), eq.initial.Velocity(0)
	system := eq.mass/dt + dt*eq.stiffness
	for i := range 3 {
		f := -eq.stiffness*x0[i] - dt*eq.stiffness*v0[i]
		v := v0[i] + f/system
		assert.InDelta(t, v, next.Velocity(0)[i], epsilon)
		assert.InDelta(t, x0[i]+dt*v, next.Position(0)[i], epsilon)
	}
	assert.InDelta(t, 1/system, solver.Compliance().At(0, 0), epsilon)
	assert.InDelta(t, system, solver.SystemMatrix().At(2, 2), epsilon)
}

func TestSingularMassMatrix(t *testing.T) {
	eq := newParticles(1, 0)
	err := ode.NewExplicitEuler(eq).Solve(0.01, eq.initial, eq.initial.Clone())
	assert.ErrorIs(t, err, linalg.ErrSingularMatrix)
}

func TestTriDiagonalLinearSolver(t *testing.T) {
	eq := newParticles(4, 1)
	eq.gravity = mgl64.Vec3{0, -1, 0}
	dense := ode.NewModifiedExplicitEuler(eq)
	blocks := ode.NewModifiedExplicitEuler(eq)
	blocks.SetLinearSolver(linalg.TriDiagonalBlockMatrix{BlockSize: 3})
	assert.Equal(t, linalg.TriDiagonalBlockMatrix{BlockSize: 3}, blocks.LinearSolver())

	a, b := eq.initial.Clone(), eq.initial.Clone()
	require.NoError(t, dense.Solve(0.01, eq.initial, a))
	require.NoError(t, blocks.Solve(0.01, eq.initial, b))
	assert.InDeltaSlice(t, a.Positions(), b.Positions(), epsilon)
}

func TestState(t *testing.T) {
	state := ode.NewState(3, 4)
	assert.Equal(t, 12, state.NumDof())
	assert.Panics(t, func() { state.AddBoundaryCondition(4) })
	assert.Panics(t, func() { state.AddBoundaryConditionDof(0, 3) })
	assert.Panics(t, func() { ode.NewState(0, 3) })

	state.AddBoundaryConditionDof(2, 1)
	state.AddBoundaryConditionDof(2, 1)
	state.AddBoundaryCondition(0)
	assert.Equal(t, []int{7, 0, 1, 2}, state.BoundaryConditions())
	assert.True(t, state.IsBoundaryConditionDof(7))
	assert.False(t, state.IsBoundaryConditionDof(6))

	v := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	state.ApplyBoundaryConditionsToVector(v)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 1, 0, 1, 1, 1, 1}, v)

	m := mat.NewDense(12, 12, nil)
	for i := range 12 {
		for j := range 12 {
			m.Set(i, j, 2)
		}
	}
	state.ApplyBoundaryConditionsToMatrix(m, true)
	assert.Equal(t, 1.0, m.At(7, 7))
	assert.Equal(t, 0.0, m.At(7, 8))
	assert.Equal(t, 0.0, m.At(5, 0))
	assert.Equal(t, 2.0, m.At(5, 6))

	assert.True(t, state.IsValid())
	clone := state.Clone()
	clone.Positions()[3] = math.NaN()
	assert.False(t, clone.IsValid())
	assert.True(t, state.IsValid())
	clone.Positions()[3] = math.Inf(1)
	assert.False(t, clone.IsValid())
}
