package mlcp

import (
	"fmt"
	"log/slog"
)

// ConstraintType tags a group of rows of a Problem with the law the solver
// enforces on them.
type ConstraintType int

const (
	Invalid ConstraintType = iota - 1
	Bilateral1D
	Bilateral2D
	Bilateral3D
	// Unilateral3DFrictionless is a single normal row, x >= 0.
	Unilateral3DFrictionless
	// Unilateral3DFrictional is a normal row followed by two tangent rows
	// bounded by the friction cone of the normal multiplier.
	Unilateral3DFrictional
	// BilateralFrictionlessSliding keeps a point on a line: two bilateral rows.
	BilateralFrictionlessSliding
	// BilateralFrictionalSliding adds a tangent row along the line whose
	// multiplier is bounded by friction times the bilateral force.
	BilateralFrictionalSliding
	NumConstraintTypes
)

var constraintTypeNames = [NumConstraintTypes]string{
	"MLCP_BILATERAL_1D_CONSTRAINT",
	"MLCP_BILATERAL_2D_CONSTRAINT",
	"MLCP_BILATERAL_3D_CONSTRAINT",
	"MLCP_UNILATERAL_3D_FRICTIONLESS_CONSTRAINT",
	"MLCP_UNILATERAL_3D_FRICTIONAL_CONSTRAINT",
	"MLCP_BILATERAL_FRICTIONLESS_SLIDING_CONSTRAINT",
	"MLCP_BILATERAL_FRICTIONAL_SLIDING_CONSTRAINT",
}

var constraintTypeRows = [NumConstraintTypes]int{1, 2, 3, 1, 3, 2, 3}

// IsValid reports whether t names one of the known constraint types.
func (t ConstraintType) IsValid() bool {
	return t > Invalid && t < NumConstraintTypes
}

func (t ConstraintType) String() string {
	if !t.IsValid() {
		slog.Error("bad MLCP constraint type value", "value", int(t))
		return ""
	}
	return constraintTypeNames[t]
}

// NumRows is the number of scalar rows a constraint of type t occupies.
func (t ConstraintType) NumRows() int {
	if !t.IsValid() {
		panic(fmt.Sprintf("mlcp: invalid constraint type %d", int(t)))
	}
	return constraintTypeRows[t]
}

// ParseConstraintType maps a canonical name back to its type, Invalid if unknown.
func ParseConstraintType(name string) ConstraintType {
	for i, n := range constraintTypeNames {
		if n == name {
			return ConstraintType(i)
		}
	}
	slog.Warn("bad MLCP constraint type name", "name", name)
	return Invalid
}
