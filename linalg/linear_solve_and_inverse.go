package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularMatrix is returned when a system matrix (or one of its diagonal blocks) cannot be inverted.
var ErrSingularMatrix = errors.New("linalg: singular matrix")

// LinearSolveAndInverse solves A·x = b and returns the inverse of A along with x.
//
// Implementations are specialized by the structure of A. Picking one that does not
// match the actual structure of A gives wrong results; picking the generic dense
// one is always correct but slower.
type LinearSolveAndInverse interface {
	Solve(a mat.Matrix, b []float64) (x []float64, inverse *mat.Dense, err error)
}

func checkSystem(a mat.Matrix, b []float64) int {
	r, c := a.Dims()
	if r != c {
		panic(fmt.Sprintf("linalg: system matrix is not square (%dx%d)", r, c))
	}
	if r == 0 {
		panic("linalg: empty system")
	}
	if len(b) != r {
		panic(fmt.Sprintf("linalg: rhs has %d entries, system has %d rows", len(b), r))
	}
	return r
}

// DenseMatrix solves systems without assuming any structure.
type DenseMatrix struct{}

func (DenseMatrix) Solve(a mat.Matrix, b []float64) ([]float64, *mat.Dense, error) {
	n := checkSystem(a, b)

	inverse := &mat.Dense{}
	if err := inverse.Inverse(a); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}

	x := make([]float64, n)
	mat.NewVecDense(n, x).MulVec(inverse, mat.NewVecDense(n, b))
	return x, inverse, nil
}

// DiagonalMatrix only reads the diagonal of A.
type DiagonalMatrix struct{}

func (DiagonalMatrix) Solve(a mat.Matrix, b []float64) ([]float64, *mat.Dense, error) {
	n := checkSystem(a, b)

	x := make([]float64, n)
	inverse := mat.NewDense(n, n, nil)
	for i := range n {
		d := a.At(i, i)
		if d == 0 {
			return nil, nil, fmt.Errorf("%w: zero diagonal entry at %d", ErrSingularMatrix, i)
		}
		inverse.Set(i, i, 1/d)
		x[i] = b[i] / d
	}
	return x, inverse, nil
}

// TriDiagonalBlockMatrix solves systems made of square blocks of size BlockSize
// where block (i, j) is zero whenever |i-j| >= 2.
//
// It runs a block Thomas elimination, which is linear in the number of blocks.
// Typical use is a chain of nodes where every node only couples to its
// neighbours (1D beams, BlockSize 6).
type TriDiagonalBlockMatrix struct {
	BlockSize int
}

func (t TriDiagonalBlockMatrix) Solve(a mat.Matrix, b []float64) ([]float64, *mat.Dense, error) {
	n := checkSystem(a, b)
	bs := t.BlockSize
	if bs <= 0 || n%bs != 0 {
		panic(fmt.Sprintf("linalg: matrix size %d is not a multiple of block size %d", n, bs))
	}

	// Solve for [I | b] at once, the first n columns of the solution are the inverse.
	rhs := mat.NewDense(n, n+1, nil)
	for i := range n {
		rhs.Set(i, i, 1)
		rhs.Set(i, n, b[i])
	}

	solution, err := t.solveBlocks(mat.DenseCopyOf(a), rhs)
	if err != nil {
		return nil, nil, err
	}

	x := mat.Col(nil, n, solution)
	inverse := mat.DenseCopyOf(solution.Slice(0, n, 0, n))
	return x, inverse, nil
}

func (t TriDiagonalBlockMatrix) solveBlocks(a, rhs *mat.Dense) (*mat.Dense, error) {
	bs := t.BlockSize
	n, cols := rhs.Dims()
	numBlocks := n / bs

	block := func(i, j int) mat.Matrix {
		return a.Slice(i*bs, (i+1)*bs, j*bs, (j+1)*bs)
	}
	rows := func(m *mat.Dense, i int) *mat.Dense {
		return m.Slice(i*bs, (i+1)*bs, 0, cols).(*mat.Dense)
	}

	diagonalInverses := make([]*mat.Dense, numBlocks)
	diagonalInverses[0] = &mat.Dense{}
	if err := diagonalInverses[0].Inverse(block(0, 0)); err != nil {
		return nil, fmt.Errorf("%w: diagonal block 0: %v", ErrSingularMatrix, err)
	}

	// Forward elimination of the lower blocks.
	for i := 1; i < numBlocks; i++ {
		var w, wu, d, wr mat.Dense
		w.Mul(block(i, i-1), diagonalInverses[i-1])
		wu.Mul(&w, block(i-1, i))
		d.Sub(block(i, i), &wu)

		diagonalInverses[i] = &mat.Dense{}
		if err := diagonalInverses[i].Inverse(&d); err != nil {
			return nil, fmt.Errorf("%w: diagonal block %d: %v", ErrSingularMatrix, i, err)
		}

		wr.Mul(&w, rows(rhs, i-1))
		r := rows(rhs, i)
		r.Sub(r, &wr)
	}

	// Back substitution.
	x := mat.NewDense(n, cols, nil)
	rows(x, numBlocks-1).Mul(diagonalInverses[numBlocks-1], rows(rhs, numBlocks-1))
	for i := numBlocks - 2; i >= 0; i-- {
		var ux, r mat.Dense
		ux.Mul(block(i, i+1), rows(x, i+1))
		r.Sub(rows(rhs, i), &ux)
		rows(x, i).Mul(diagonalInverses[i], &r)
	}
	return x, nil
}
