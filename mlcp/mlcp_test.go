package mlcp_test

import (
	"math"
	"testing"

	"github.com/setanarut/surgsim/mlcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const epsilon = 1e-6

func newSolver() *mlcp.GaussSeidelSolver {
	s := mlcp.NewGaussSeidelSolver()
	s.MaxIterations = 1000
	s.Epsilon = 1e-12
	return s
}

func problem(a []float64, b []float64, types []mlcp.ConstraintType, mu []float64) *mlcp.Problem {
	n := len(b)
	return &mlcp.Problem{
		A:               mat.NewDense(n, n, a),
		B:               b,
		ConstraintTypes: types,
		Mu:              mu,
	}
}

func ax(p *mlcp.Problem, x []float64) []float64 {
	out := make([]float64, len(x))
	mat.NewVecDense(len(x), out).MulVec(p.A, mat.NewVecDense(len(x), x))
	return out
}

func TestConstraintTypeNames(t *testing.T) {
	for ct := mlcp.Bilateral1D; ct < mlcp.NumConstraintTypes; ct++ {
		assert.Equal(t, ct, mlcp.ParseConstraintType(ct.String()))
	}
	assert.Equal(t, "MLCP_UNILATERAL_3D_FRICTIONLESS_CONSTRAINT", mlcp.Unilateral3DFrictionless.String())
	assert.Equal(t, mlcp.Invalid, mlcp.ParseConstraintType("MLCP_NOT_A_CONSTRAINT"))
	assert.Equal(t, "", mlcp.Invalid.String())
	assert.Equal(t, "", mlcp.NumConstraintTypes.String())

	tests := []struct {
		ct   mlcp.ConstraintType
		rows int
	}{
		{mlcp.Bilateral1D, 1},
		{mlcp.Bilateral2D, 2},
		{mlcp.Bilateral3D, 3},
		{mlcp.Unilateral3DFrictionless, 1},
		{mlcp.Unilateral3DFrictional, 3},
		{mlcp.BilateralFrictionlessSliding, 2},
		{mlcp.BilateralFrictionalSliding, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rows, tt.ct.NumRows(), tt.ct.String())
	}
	assert.Panics(t, func() { mlcp.Invalid.NumRows() })
}

func TestBilateralSolve(t *testing.T) {
	p := problem(
		[]float64{
			4, 1, 0.5,
			1, 3, 0.2,
			0.5, 0.2, 2,
		},
		[]float64{1, -2, 0.5},
		[]mlcp.ConstraintType{mlcp.Bilateral3D},
		[]float64{0},
	)
	var solution mlcp.Solution
	newSolver().Solve(p, &solution)
	assert.True(t, solution.Converged)
	assert.InDeltaSlice(t, p.B, ax(p, solution.X), epsilon)
}

func TestUnilateralSolve(t *testing.T) {
	tests := []struct {
		name string
		b    []float64
	}{
		{"both penetrating", []float64{0.5, 0.2}},
		{"one separating", []float64{0.5, -0.8}},
		{"both separating", []float64{-0.1, -0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := problem(
				[]float64{2, 1.5, 1.5, 2},
				tt.b,
				[]mlcp.ConstraintType{mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictionless},
				[]float64{0, 0},
			)
			var solution mlcp.Solution
			newSolver().Solve(p, &solution)
			require.True(t, solution.Converged)
			w := ax(p, solution.X)
			for i := range w {
				w[i] -= p.B[i]
				assert.GreaterOrEqual(t, solution.X[i], 0.0)
				assert.GreaterOrEqual(t, w[i], -epsilon)
				assert.InDelta(t, 0, solution.X[i]*w[i], epsilon)
			}
		})
	}
}

func TestFrictionCone(t *testing.T) {
	a := []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	tests := []struct {
		name   string
		b      []float64
		mu     float64
		sticks bool
	}{
		{"sticking", []float64{1, 0.1, 0.1}, 0.5, true},
		{"sliding", []float64{1, 3, 4}, 0.5, false},
		{"frictionless", []float64{1, 3, 4}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := problem(a, tt.b, []mlcp.ConstraintType{mlcp.Unilateral3DFrictional}, []float64{tt.mu})
			var solution mlcp.Solution
			newSolver().Solve(p, &solution)
			x := solution.X
			assert.InDelta(t, 1, x[0], epsilon)
			tangent := math.Hypot(x[1], x[2])
			assert.LessOrEqual(t, tangent, tt.mu*x[0]+epsilon)
			if tt.sticks {
				assert.InDelta(t, tt.b[1], x[1], epsilon)
				assert.InDelta(t, tt.b[2], x[2], epsilon)
			} else {
				assert.InDelta(t, tt.mu*x[0], tangent, epsilon)
			}
		})
	}
}

func TestFrictionalSliding(t *testing.T) {
	p := problem(
		[]float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		[]float64{3, 4, 10},
		[]mlcp.ConstraintType{mlcp.BilateralFrictionalSliding},
		[]float64{0.2},
	)
	var solution mlcp.Solution
	newSolver().Solve(p, &solution)
	assert.InDelta(t, 3, solution.X[0], epsilon)
	assert.InDelta(t, 4, solution.X[1], epsilon)
	assert.InDelta(t, 1, solution.X[2], epsilon)
}

func TestRowsWithoutDofAreSkipped(t *testing.T) {
	p := problem([]float64{0, 0, 0, 1}, []float64{1, 1},
		[]mlcp.ConstraintType{mlcp.Unilateral3DFrictionless, mlcp.Bilateral1D}, []float64{0, 0})
	var solution mlcp.Solution
	newSolver().Solve(p, &solution)
	assert.Equal(t, []float64{0, 1}, solution.X)
}

func TestIterationCapReturnsEstimate(t *testing.T) {
	p := problem(
		[]float64{1, 0.99, 0.99, 1},
		[]float64{1, -1},
		[]mlcp.ConstraintType{mlcp.Bilateral2D},
		[]float64{0},
	)
	solver := mlcp.NewGaussSeidelSolver()
	solver.MaxIterations = 2
	var solution mlcp.Solution
	solver.Solve(p, &solution)
	assert.False(t, solution.Converged)
	assert.Equal(t, 2, solution.Iterations)
	assert.Len(t, solution.X, 2)
	assert.NotZero(t, solution.X[0])
}

func TestEmptyProblem(t *testing.T) {
	p := mlcp.NewProblem(0, 12)
	assert.True(t, p.IsEmpty())
	assert.Nil(t, p.H)
	p.ComputeSystem(nil)

	var solution mlcp.Solution
	mlcp.NewGaussSeidelSolver().Solve(p, &solution)
	assert.True(t, solution.Converged)
	assert.Empty(t, solution.X)
	solution.ComputeDofCorrection(p)
	assert.Empty(t, solution.DofCorrection)
}

func TestInconsistentProblem(t *testing.T) {
	p := problem([]float64{1, 0, 0, 1}, []float64{1, 1}, []mlcp.ConstraintType{mlcp.Bilateral3D}, []float64{0})
	assert.Panics(t, func() { mlcp.NewGaussSeidelSolver().Solve(p, &mlcp.Solution{}) })

	p = problem([]float64{1, 0, 0, 1}, []float64{1, 1}, []mlcp.ConstraintType{mlcp.Bilateral2D}, nil)
	assert.Panics(t, func() { mlcp.NewGaussSeidelSolver().Solve(p, &mlcp.Solution{}) })
}

func TestComputeSystem(t *testing.T) {
	p := mlcp.NewProblem(2, 5)
	assert.Equal(t, 2, p.NumRows())
	assert.Equal(t, 5, p.NumDof())

	// First representation owns dof 0..2, a fixed one owns none, the last owns 3..4.
	p.AddH(0, 0, 1)
	p.AddH(0, 1, 2)
	p.AddH(0, 3, -1)
	p.AddH(1, 2, 1)
	p.AddH(1, 4, 3)
	p.AddH(1, 4, -1)
	p.B[0], p.B[1] = 0.5, 0.1
	p.AddConstraint(mlcp.Bilateral1D, 0)
	p.AddConstraint(mlcp.Unilateral3DFrictionless, 0)

	c1 := mat.NewDense(3, 3, []float64{2, 0, 0, 0, 3, 0, 0, 0, 4})
	c2 := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 1})
	p.ComputeSystem([]mlcp.ComplianceBlock{
		{Offset: 0, Compliance: c1},
		{Offset: 3, Compliance: nil},
		{Offset: 3, Compliance: c2},
	})

	c := mat.NewDense(5, 5, nil)
	c.Slice(0, 3, 0, 3).(*mat.Dense).Copy(c1)
	c.Slice(3, 5, 3, 5).(*mat.Dense).Copy(c2)
	var cht, a mat.Dense
	cht.Mul(c, p.H.T())
	a.Mul(p.H, &cht)
	assert.True(t, mat.EqualApprox(&cht, p.CHt, 1e-12))
	assert.True(t, mat.EqualApprox(&a, p.A, 1e-12))

	var solution mlcp.Solution
	newSolver().Solve(p, &solution)
	solution.ComputeDofCorrection(p)
	expected := make([]float64, 5)
	mat.NewVecDense(5, expected).MulVec(&cht, mat.NewVecDense(2, solution.X))
	assert.InDeltaSlice(t, expected, solution.DofCorrection, 1e-12)

	assert.Panics(t, func() {
		p.ComputeSystem([]mlcp.ComplianceBlock{{Offset: 4, Compliance: c2}})
	})
}
