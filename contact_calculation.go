package surgsim

import "fmt"

// ContactFunc adds the contacts between the shapes of a pair whose shape
// types are in the order the function expects.
type ContactFunc func(pair *CollisionPair)

// ContactCalculation computes the contacts of pairs of shapes of types
// TypeA and TypeB.
type ContactCalculation struct {
	TypeA, TypeB ShapeType
	calculate    ContactFunc
}

func NewContactCalculation(typeA, typeB ShapeType, calculate ContactFunc) *ContactCalculation {
	return &ContactCalculation{TypeA: typeA, TypeB: typeB, calculate: calculate}
}

// DefaultContactCalculation adds no contact. With doAssert it panics
// instead, which finds pairs that should have a calculation.
func DefaultContactCalculation(doAssert bool) *ContactCalculation {
	return &ContactCalculation{
		TypeA: ShapeTypeNone,
		TypeB: ShapeTypeNone,
		calculate: func(pair *CollisionPair) {
			if doAssert {
				a, b := pair.ShapeTypes()
				panic(fmt.Sprintf("surgsim: no contact calculation for %v/%v", a, b))
			}
		},
	}
}

// CalculateContact swaps the pair when its shape types are the reverse of
// TypeA and TypeB, then computes its contacts.
func (c *ContactCalculation) CalculateContact(pair *CollisionPair) {
	first, second := pair.ShapeTypes()
	if first != second && first == c.TypeB && second == c.TypeA {
		pair.Swap()
	}
	c.calculate(pair)
}

// ContactCalculations dispatches a pair to the calculation of its shape types.
type ContactCalculations [ShapeTypeCount][ShapeTypeCount]*ContactCalculation

// NewContactCalculations returns the table of every built in calculation,
// the default one filling the other entries.
func NewContactCalculations() *ContactCalculations {
	table := &ContactCalculations{}
	none := DefaultContactCalculation(false)
	for i := range table {
		for j := range table[i] {
			table[i][j] = none
		}
	}
	for _, c := range []*ContactCalculation{
		NewContactCalculation(ShapeTypeSphere, ShapeTypeSphere, SphereToSphere),
		NewContactCalculation(ShapeTypeSphere, ShapeTypePlane, SphereToPlane),
		NewContactCalculation(ShapeTypeSphere, ShapeTypeDoubleSidedPlane, SphereToDoubleSidedPlane),
		NewContactCalculation(ShapeTypeBox, ShapeTypeSphere, BoxToSphere),
		NewContactCalculation(ShapeTypeBox, ShapeTypePlane, BoxToPlane),
		NewContactCalculation(ShapeTypeBox, ShapeTypeDoubleSidedPlane, BoxToDoubleSidedPlane),
		NewContactCalculation(ShapeTypeCapsule, ShapeTypeSphere, CapsuleToSphere),
		NewContactCalculation(ShapeTypeCapsule, ShapeTypePlane, CapsuleToPlane),
		NewContactCalculation(ShapeTypeBox, ShapeTypeCapsule, BoxToCapsule),
	} {
		table.Set(c)
	}
	return table
}

// Set registers c for both orders of its shape types.
func (t *ContactCalculations) Set(c *ContactCalculation) {
	if !c.TypeA.IsValid() || !c.TypeB.IsValid() {
		panic(fmt.Sprintf("surgsim: contact calculation for %v/%v", c.TypeA, c.TypeB))
	}
	t[c.TypeA][c.TypeB] = c
	t[c.TypeB][c.TypeA] = c
}

func (t *ContactCalculations) Get(a, b ShapeType) *ContactCalculation {
	return t[a][b]
}

// CalculateContact computes the contacts of pair with the calculation of
// its shape types.
func (t *ContactCalculations) CalculateContact(pair *CollisionPair) {
	a, b := pair.ShapeTypes()
	if !a.IsValid() || !b.IsValid() {
		panic(fmt.Sprintf("surgsim: pair %v has invalid shape types %v/%v", pair, a, b))
	}
	t[a][b].CalculateContact(pair)
}
