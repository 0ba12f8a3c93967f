package surgsim

import (
	"fmt"

	"github.com/setanarut/surgsim/mlcp"
)

// Constraint binds a point of one representation to a point of another.
// Side 0 is the positive side.
type Constraint struct {
	Data            ConstraintData
	Implementations [2]ConstraintImplementation
	Localizations   [2]Localization
	Type            mlcp.ConstraintType
}

// NewConstraint panics when the two implementations do not build the same
// constraint type, or do not match the representation of their localization.
func NewConstraint(data ConstraintData, implementations [2]ConstraintImplementation, localizations [2]Localization) *Constraint {
	for i := range 2 {
		if implementations[i] == nil || localizations[i] == nil {
			panic(fmt.Sprintf("surgsim: constraint side %d is missing its implementation or localization", i))
		}
		if rt := localizations[i].Representation().Type(); rt != implementations[i].RepresentationType() {
			panic(fmt.Sprintf("surgsim: constraint side %d implements %v for a %v localization", i, implementations[i].RepresentationType(), rt))
		}
	}
	if implementations[0].ConstraintType() != implementations[1].ConstraintType() {
		panic(fmt.Sprintf("surgsim: constraint sides disagree, %v and %v",
			implementations[0].ConstraintType(), implementations[1].ConstraintType()))
	}
	return &Constraint{
		Data:            data,
		Implementations: implementations,
		Localizations:   localizations,
		Type:            implementations[0].ConstraintType(),
	}
}

// Representations returns the physics representation of each side.
func (c *Constraint) Representations() [2]Representation {
	return [2]Representation{c.Localizations[0].Representation(), c.Localizations[1].Representation()}
}

func (c *Constraint) NumDof() int { return c.Type.NumRows() }

// IsActive reports whether both sides take part in the step.
func (c *Constraint) IsActive() bool {
	for _, rep := range c.Representations() {
		if !rep.IsActive() {
			return false
		}
	}
	return true
}

// Build appends the constraint to problem at row indexOfConstraint, the dof
// of each side starting at indexOfRepresentation.
func (c *Constraint) Build(dt float64, problem *mlcp.Problem, indexOfRepresentation [2]int, indexOfConstraint int) {
	problem.AddConstraint(c.Type, c.Data.FrictionCoefficient)
	for i, sign := range [2]ConstraintSideSign{PositiveSide, NegativeSide} {
		c.Implementations[i].Build(dt, c.Data, c.Localizations[i], problem, indexOfRepresentation[i], indexOfConstraint, sign)
	}
}
