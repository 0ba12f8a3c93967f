package mlcp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Problem is the mixed linear complementarity problem of one physics step.
//
// H maps the velocity dof of every representation to the constraint rows,
// CHt = C·Hᵗ where C is the block diagonal of the representations' compliance
// matrices, and A = H·C·Hᵗ. Bilateral rows satisfy A·x = b, unilateral rows
// satisfy x >= 0, A·x - b >= 0 and x·(A·x - b) = 0.
type Problem struct {
	H   *mat.Dense
	CHt *mat.Dense
	A   *mat.Dense
	B   []float64

	// Mu holds one friction coefficient per constraint.
	Mu []float64
	// ConstraintTypes holds one entry per constraint, in row order.
	ConstraintTypes []ConstraintType
}

// ComplianceBlock is the compliance of one representation and the column
// where its dof start in H.
type ComplianceBlock struct {
	Offset     int
	Compliance mat.Matrix
}

// NewProblem allocates a problem of numRows constraint rows over numDof dof.
// H stays nil when either size is zero.
func NewProblem(numRows, numDof int) *Problem {
	p := &Problem{B: make([]float64, numRows)}
	if numRows > 0 && numDof > 0 {
		p.H = mat.NewDense(numRows, numDof, nil)
	}
	return p
}

func (p *Problem) NumRows() int { return len(p.B) }

func (p *Problem) NumDof() int {
	if p.H == nil {
		return 0
	}
	_, c := p.H.Dims()
	return c
}

func (p *Problem) IsEmpty() bool { return len(p.B) == 0 }

// AddH accumulates value into H at (row, col).
func (p *Problem) AddH(row, col int, value float64) {
	p.H.Set(row, col, p.H.At(row, col)+value)
}

// AddConstraint records the type and friction of the next constraint.
func (p *Problem) AddConstraint(t ConstraintType, mu float64) {
	p.ConstraintTypes = append(p.ConstraintTypes, t)
	p.Mu = append(p.Mu, mu)
}

// ComputeSystem fills CHt and A from H and the compliance of every representation.
func (p *Problem) ComputeSystem(blocks []ComplianceBlock) {
	rows := p.NumRows()
	if rows == 0 {
		p.CHt, p.A = nil, nil
		return
	}
	p.A = mat.NewDense(rows, rows, nil)
	if p.H == nil {
		p.CHt = nil
		return
	}

	dof := p.NumDof()
	p.CHt = mat.NewDense(dof, rows, nil)
	for _, block := range blocks {
		if block.Compliance == nil {
			continue
		}
		n, c := block.Compliance.Dims()
		if n != c || block.Offset+n > dof {
			panic(fmt.Sprintf("mlcp: compliance block %dx%d at %d does not fit %d dof", n, c, block.Offset, dof))
		}
		if n == 0 {
			continue
		}
		h := p.H.Slice(0, rows, block.Offset, block.Offset+n)
		cht := p.CHt.Slice(block.Offset, block.Offset+n, 0, rows).(*mat.Dense)
		cht.Mul(block.Compliance, h.T())
	}
	p.A.Mul(p.H, p.CHt)
}

// Solution is the result of solving a Problem.
type Solution struct {
	// X holds one multiplier per constraint row.
	X []float64
	// DofCorrection is CHt·X, the velocity correction of every dof.
	DofCorrection []float64

	Iterations int
	Converged  bool
}

// ComputeDofCorrection sets DofCorrection = CHt·X.
func (s *Solution) ComputeDofCorrection(p *Problem) {
	if len(s.X) == 0 || p.CHt == nil {
		s.DofCorrection = nil
		return
	}
	dof := p.NumDof()
	s.DofCorrection = make([]float64, dof)
	mat.NewVecDense(dof, s.DofCorrection).MulVec(p.CHt, mat.NewVecDense(len(s.X), s.X))
}
