package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxTorqueCounts is the largest motor command of a grip axis.
	MaxTorqueCounts = 2000

	// Determinants of the joint basis below which the roll torque is faded
	// out and then dropped along with the yaw torque.
	mediumBasisDeterminant = 0.6
	smallBasisDeterminant  = 0.4
)

// Command counts per N·m for the roll, yaw and pitch motors.
var TorqueCountsPerNewtonMeter = mgl64.Vec3{
	MaxTorqueCounts / 17.6e-3,
	MaxTorqueCounts / 47.96e-3,
	MaxTorqueCounts / 47.96e-3,
}

// GripOrientation returns the orientation of a 3 axis grip from its roll, yaw
// and pitch joint angles. The joints are chained yaw, then pitch, then roll.
func GripOrientation(angles mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Rotate3DY(angles[1]).Mul3(mgl64.Rotate3DZ(angles[2])).Mul3(mgl64.Rotate3DX(angles[0]))
}

// JointBasis returns the world axes of the roll, yaw and pitch joints as the
// columns of a matrix.
func JointBasis(angles mgl64.Vec3) mgl64.Mat3 {
	rotationY := mgl64.Rotate3DY(angles[1])
	rotationZ := mgl64.Rotate3DZ(angles[2])
	axisX := rotationY.Mul3x1(rotationZ.Mul3x1(mgl64.Vec3{1, 0, 0}))
	axisY := mgl64.Vec3{0, 1, 0}
	axisZ := rotationY.Mul3x1(mgl64.Vec3{0, 0, 1})
	return mgl64.Mat3FromCols(axisX, axisY, axisZ)
}

// DecompositionMatrix maps a world torque to torques around the joint axes
// of basis.
//
// The roll axis lines up with the yaw axis when the pitch reaches ±90°, and
// the basis cannot be inverted there. Below a determinant of 0.6 the roll
// torque fades out linearly, using a basis whose roll axis is replaced by
// one orthogonal to the other two. Below 0.4 the yaw torque is dropped as
// well and only the pitch torque remains.
func DecompositionMatrix(basis mgl64.Mat3) mgl64.Mat3 {
	det := math.Abs(basis.Det())
	if det >= mediumBasisDeterminant {
		return basis.Inv()
	}

	axisY, axisZ := basis.Col(1), basis.Col(2)
	fake := mgl64.Mat3FromCols(axisY.Cross(axisZ).Normalize(), axisY, axisZ)
	fakeDecomposition := fake.Inv()
	fakeDecomposition.SetRow(0, mgl64.Vec3{})

	if det >= smallBasisDeterminant {
		ratio := (det - smallBasisDeterminant) / (mediumBasisDeterminant - smallBasisDeterminant)
		return basis.Inv().Mul(ratio).Add(fakeDecomposition.Mul(1 - ratio))
	}
	fakeDecomposition.SetRow(1, mgl64.Vec3{})
	return fakeDecomposition
}

// DecomposeTorque converts torque, in N·m, into roll, yaw and pitch motor
// commands for a grip at the given joint angles. scale multiplies each axis
// and every command is clamped to ±MaxTorqueCounts. reverseRoll flips the
// roll command, as left handed grips need.
func DecomposeTorque(angles, torque, scale mgl64.Vec3, reverseRoll bool) mgl64.Vec3 {
	axisTorque := DecompositionMatrix(JointBasis(angles)).Mul3x1(torque)
	var counts mgl64.Vec3
	for i := range 3 {
		counts[i] = mgl64.Clamp(TorqueCountsPerNewtonMeter[i]*scale[i]*axisTorque[i], -MaxTorqueCounts, MaxTorqueCounts)
	}
	if reverseRoll {
		counts[0] = -counts[0]
	}
	return counts
}
