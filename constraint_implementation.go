package surgsim

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/mlcp"
)

// ConstraintSideSign tells on which side of a constraint a representation is.
type ConstraintSideSign float64

const (
	PositiveSide ConstraintSideSign = 1
	NegativeSide ConstraintSideSign = -1
)

// ConstraintData holds the parameters of a constraint shared by both sides.
type ConstraintData struct {
	// Normal of a contact, pointing from the negative side into the positive one.
	Normal mgl64.Vec3
	// Distance is the penetration a contact tolerates.
	Distance float64
	// FrictionCoefficient bounds the friction of frictional constraints.
	FrictionCoefficient float64
	// Direction is the line of a sliding constraint.
	Direction mgl64.Vec3
}

// ConstraintImplementation writes the rows of one side of a constraint into
// a MLCP problem.
type ConstraintImplementation interface {
	RepresentationType() RepresentationType
	ConstraintType() mlcp.ConstraintType
	// NumDof is the number of rows the constraint occupies.
	NumDof() int
	// Build adds the Jacobian of the localization into H at
	// (indexOfConstraint, indexOfRepresentation) and the side's share of
	// the violation into b.
	Build(dt float64, data ConstraintData, localization Localization, problem *mlcp.Problem,
		indexOfRepresentation, indexOfConstraint int, sign ConstraintSideSign)
}

// supportedConstraints lists the constraint types every representation type
// can build.
var supportedConstraints = [RepresentationTypeCount][]mlcp.ConstraintType{
	RepresentationTypeFixed: {
		mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D,
		mlcp.BilateralFrictionlessSliding, mlcp.BilateralFrictionalSliding,
	},
	RepresentationTypeRigid:    {mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D},
	RepresentationTypeVtcRigid: {mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D},
	RepresentationTypeFem1D: {
		mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D,
		mlcp.BilateralFrictionlessSliding, mlcp.BilateralFrictionalSliding,
	},
	RepresentationTypeFem2D: {
		mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D,
		mlcp.BilateralFrictionlessSliding, mlcp.BilateralFrictionalSliding,
	},
	RepresentationTypeFem3D: {
		mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional, mlcp.Bilateral3D,
		mlcp.BilateralFrictionlessSliding, mlcp.BilateralFrictionalSliding,
	},
	RepresentationTypeMassSpring: {mlcp.Unilateral3DFrictionless, mlcp.Bilateral3D},
}

// PointConstraintImplementation constrains a point given by a localization.
// The representation specific part, the Jacobian of the point, comes from
// the localization.
type PointConstraintImplementation struct {
	representationType RepresentationType
	constraintType     mlcp.ConstraintType
}

// NewPointConstraintImplementation panics when representations of type rt
// cannot build constraints of type ct.
func NewPointConstraintImplementation(rt RepresentationType, ct mlcp.ConstraintType) *PointConstraintImplementation {
	if !rt.IsValid() || !slices.Contains(supportedConstraints[rt], ct) {
		panic(fmt.Sprintf("surgsim: %v representations do not support %v", rt, ct))
	}
	return &PointConstraintImplementation{representationType: rt, constraintType: ct}
}

func (c *PointConstraintImplementation) RepresentationType() RepresentationType {
	return c.representationType
}

func (c *PointConstraintImplementation) ConstraintType() mlcp.ConstraintType { return c.constraintType }

func (c *PointConstraintImplementation) NumDof() int { return c.constraintType.NumRows() }

// Build writes rows whose H is sign·dt·directionᵀ·J. Position rows add
// -sign·direction·p to b, so that b is the gap the correction must close;
// friction rows add -sign·dt·direction·v, cancelling the relative sliding.
// The positive side of a contact removes the tolerated penetration.
func (c *PointConstraintImplementation) Build(dt float64, data ConstraintData, localization Localization, problem *mlcp.Problem,
	indexOfRepresentation, indexOfConstraint int, sign ConstraintSideSign) {
	if localization.Representation().Type() != c.representationType {
		panic(fmt.Sprintf("surgsim: %v constraint built on a localization of %v",
			c.representationType, localization.Representation().Type()))
	}
	s := float64(sign)
	position := func(row int, direction mgl64.Vec3) {
		localization.AddJacobian(problem, row, indexOfRepresentation, direction, s*dt)
		problem.B[row] -= s * direction.Dot(localization.Position())
	}
	velocity := func(row int, direction mgl64.Vec3) {
		localization.AddJacobian(problem, row, indexOfRepresentation, direction, s*dt)
		problem.B[row] -= s * dt * direction.Dot(localization.Velocity())
	}

	row := indexOfConstraint
	switch c.constraintType {
	case mlcp.Unilateral3DFrictionless, mlcp.Unilateral3DFrictional:
		position(row, data.Normal)
		if sign == PositiveSide {
			problem.B[row] -= data.Distance
		}
		if c.constraintType == mlcp.Unilateral3DFrictional {
			t1, t2 := tangentBasis(data.Normal)
			velocity(row+1, t1)
			velocity(row+2, t2)
		}
	case mlcp.Bilateral3D:
		for i, axis := range []mgl64.Vec3{vecX, vecY, vecZ} {
			position(row+i, axis)
		}
	case mlcp.BilateralFrictionlessSliding, mlcp.BilateralFrictionalSliding:
		direction := data.Direction.Normalize()
		t1, t2 := tangentBasis(direction)
		position(row, t1)
		position(row+1, t2)
		if c.constraintType == mlcp.BilateralFrictionalSliding {
			velocity(row+2, direction)
		}
	default:
		panic(fmt.Sprintf("surgsim: unsupported constraint type %v", c.constraintType))
	}
}
