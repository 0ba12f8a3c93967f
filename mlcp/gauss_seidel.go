package mlcp

import (
	"fmt"
	"math"
)

// GaussSeidelSolver is a projected Gauss-Seidel solver with a friction cone.
//
// Every sweep relaxes the rows of each constraint in order, clamps unilateral
// normal multipliers to be non-negative and projects friction multipliers
// back onto the disk of radius Mu·normal. The solve stops when the largest
// change of a multiplier over a sweep drops below Epsilon, or after
// MaxIterations sweeps. Stopping on the iteration cap is not an error, the
// last estimate is returned.
type GaussSeidelSolver struct {
	// MaxIterations is the cap on the number of sweeps. Must be non-zero.
	MaxIterations int
	// Epsilon is the convergence threshold on the multipliers change.
	Epsilon float64
	// DiagonalEpsilon is the smallest diagonal entry of A a row needs to be
	// relaxed. Rows below it have no movable dof and keep a zero multiplier.
	DiagonalEpsilon float64
}

// NewGaussSeidelSolver returns a solver with 30 iterations and a 1e-8 tolerance.
func NewGaussSeidelSolver() *GaussSeidelSolver {
	return &GaussSeidelSolver{
		MaxIterations:   30,
		Epsilon:         1e-8,
		DiagonalEpsilon: 1e-14,
	}
}

type sweep struct {
	a       []float64
	stride  int
	b       []float64
	x       []float64
	diagEps float64
}

// residual returns b_i - (A·x)_i.
func (s *sweep) residual(i int) float64 {
	row := s.a[i*s.stride : i*s.stride+len(s.x)]
	r := s.b[i]
	for j, xj := range s.x {
		r -= row[j] * xj
	}
	return r
}

// relax runs one Gauss-Seidel update on row i and returns false when the row
// has no movable dof.
func (s *sweep) relax(i int) bool {
	d := s.a[i*s.stride+i]
	if d < s.diagEps {
		s.x[i] = 0
		return false
	}
	s.x[i] += s.residual(i) / d
	return true
}

func (s *sweep) relaxUnilateral(i int) {
	if s.relax(i) && s.x[i] < 0 {
		s.x[i] = 0
	}
}

// project clamps the multipliers of rows to the disk of the given radius.
func (s *sweep) project(radius float64, rows ...int) {
	var norm float64
	for _, i := range rows {
		norm += s.x[i] * s.x[i]
	}
	norm = math.Sqrt(norm)
	if norm <= radius {
		return
	}
	scale := 0.0
	if norm > 0 && radius > 0 {
		scale = radius / norm
	}
	for _, i := range rows {
		s.x[i] *= scale
	}
}

// Solve computes the multipliers of p. The previous content of solution is
// used as initial guess when it has the right size.
func (gs *GaussSeidelSolver) Solve(p *Problem, solution *Solution) {
	n := p.NumRows()
	if len(solution.X) != n {
		solution.X = make([]float64, n)
	}
	solution.Iterations = 0
	solution.Converged = n == 0
	if n == 0 {
		return
	}
	if len(p.Mu) != len(p.ConstraintTypes) {
		panic(fmt.Sprintf("mlcp: %d friction coefficients for %d constraints", len(p.Mu), len(p.ConstraintTypes)))
	}
	total := 0
	for _, t := range p.ConstraintTypes {
		total += t.NumRows()
	}
	if total != n {
		panic(fmt.Sprintf("mlcp: constraint types cover %d rows, problem has %d", total, n))
	}

	raw := p.A.RawMatrix()
	s := &sweep{a: raw.Data, stride: raw.Stride, b: p.B, x: solution.X, diagEps: gs.DiagonalEpsilon}

	previous := make([]float64, 3)
	for solution.Iterations < gs.MaxIterations {
		delta := 0.0
		row := 0
		for c, t := range p.ConstraintTypes {
			mu := p.Mu[c]
			rows := t.NumRows()
			copy(previous, s.x[row:row+rows])
			switch t {
			case Bilateral1D, Bilateral2D, Bilateral3D, BilateralFrictionlessSliding:
				for i := row; i < row+rows; i++ {
					s.relax(i)
				}
			case Unilateral3DFrictionless:
				s.relaxUnilateral(row)
			case Unilateral3DFrictional:
				s.relaxUnilateral(row)
				s.relax(row + 1)
				s.relax(row + 2)
				s.project(mu*s.x[row], row+1, row+2)
			case BilateralFrictionalSliding:
				s.relax(row)
				s.relax(row + 1)
				s.relax(row + 2)
				s.project(mu*math.Hypot(s.x[row], s.x[row+1]), row+2)
			default:
				panic(fmt.Sprintf("mlcp: invalid constraint type %d", int(t)))
			}
			for k := range rows {
				delta = math.Max(delta, math.Abs(s.x[row+k]-previous[k]))
			}
			row += rows
		}
		solution.Iterations++
		if delta < gs.Epsilon {
			solution.Converged = true
			break
		}
	}
}
