package linalg

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Skew returns the cross product matrix of v, Skew(v)·u == v×u.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	// column major
	return mgl64.Mat3{
		0, v[2], -v[1],
		-v[2], 0, v[0],
		v[1], -v[0], 0,
	}
}

// Vec3At reads three consecutive entries of a flat vector starting at i.
func Vec3At(v []float64, i int) mgl64.Vec3 {
	return mgl64.Vec3{v[i], v[i+1], v[i+2]}
}

// SetVec3 writes u into three consecutive entries of v starting at i.
func SetVec3(v []float64, i int, u mgl64.Vec3) {
	v[i] = u[0]
	v[i+1] = u[1]
	v[i+2] = u[2]
}

// AddVec3 adds u into three consecutive entries of v starting at i.
func AddVec3(v []float64, i int, u mgl64.Vec3) {
	v[i] += u[0]
	v[i+1] += u[1]
	v[i+2] += u[2]
}

// Mat3At reads the 3x3 block of m whose top left corner is (i, j).
func Mat3At(m mat.Matrix, i, j int) mgl64.Mat3 {
	var out mgl64.Mat3
	for r := range 3 {
		for c := range 3 {
			out.Set(r, c, m.At(i+r, j+c))
		}
	}
	return out
}

// SetMat3 writes b as the 3x3 block of m whose top left corner is (i, j).
func SetMat3(m *mat.Dense, i, j int, b mgl64.Mat3) {
	for r := range 3 {
		for c := range 3 {
			m.Set(i+r, j+c, b.At(r, c))
		}
	}
}

// AddMat3 adds scale·b into the 3x3 block of m whose top left corner is (i, j).
func AddMat3(m *mat.Dense, i, j int, b mgl64.Mat3, scale float64) {
	for r := range 3 {
		for c := range 3 {
			m.Set(i+r, j+c, m.At(i+r, j+c)+scale*b.At(r, c))
		}
	}
}

// AddSubMatrix adds scale·src into dst with src's top left corner placed at (i, j).
func AddSubMatrix(dst *mat.Dense, i, j int, src mat.Matrix, scale float64) {
	r, c := src.Dims()
	for row := range r {
		for col := range c {
			dst.Set(i+row, j+col, dst.At(i+row, j+col)+scale*src.At(row, col))
		}
	}
}

// AddSubMatrixBlocks scatters the square blocks of src (block size bs) into dst
// following nodeIDs, which is how element matrices are assembled into a
// system matrix. Block (a, b) of src lands at block (nodeIDs[a], nodeIDs[b]).
func AddSubMatrixBlocks(dst *mat.Dense, src mat.Matrix, nodeIDs []int, bs int, scale float64) {
	for a, na := range nodeIDs {
		for b, nb := range nodeIDs {
			for r := range bs {
				for c := range bs {
					i, j := na*bs+r, nb*bs+c
					dst.Set(i, j, dst.At(i, j)+scale*src.At(a*bs+r, b*bs+c))
				}
			}
		}
	}
}

// AddSubVectorBlocks scatters the blocks of src into dst following nodeIDs.
func AddSubVectorBlocks(dst, src []float64, nodeIDs []int, bs int, scale float64) {
	for a, na := range nodeIDs {
		for r := range bs {
			dst[na*bs+r] += scale * src[a*bs+r]
		}
	}
}

// SubVectorBlocks gathers the blocks of src selected by nodeIDs.
func SubVectorBlocks(src []float64, nodeIDs []int, bs int) []float64 {
	out := make([]float64, len(nodeIDs)*bs)
	for a, na := range nodeIDs {
		copy(out[a*bs:(a+1)*bs], src[na*bs:(na+1)*bs])
	}
	return out
}
