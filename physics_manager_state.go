package surgsim

import (
	"slices"

	"github.com/setanarut/surgsim/mlcp"
)

// ConstraintGroup separates the constraints added by the user from the ones
// generated from contacts every step.
type ConstraintGroup int

const (
	ConstraintGroupUser ConstraintGroup = iota
	ConstraintGroupContact
	ConstraintGroupCount
)

// PhysicsManagerState is everything a step reads and writes. Each
// computation takes the state of the previous one and returns the state the
// next one works on.
type PhysicsManagerState struct {
	Representations          []Representation
	CollisionRepresentations []CollisionRepresentation
	// CollisionPairs holds the pairs with contacts found this step.
	CollisionPairs []*CollisionPair
	Constraints    [ConstraintGroupCount][]*Constraint

	// RepresentationIndex maps every representation taking part in the
	// MLCP to the column where its dof start.
	RepresentationIndex map[Representation]int
	// ActiveConstraints lists the constraints built into Problem, in row order.
	ActiveConstraints []*Constraint
	// ConstraintIndex is the first row of each active constraint.
	ConstraintIndex []int

	Problem  *mlcp.Problem
	Solution mlcp.Solution
}

func NewPhysicsManagerState() *PhysicsManagerState {
	return &PhysicsManagerState{
		RepresentationIndex: map[Representation]int{},
		Problem:             mlcp.NewProblem(0, 0),
	}
}

// Clone returns a copy whose slices can be changed without touching s. The
// representations, pairs and constraints themselves are shared.
func (s *PhysicsManagerState) Clone() *PhysicsManagerState {
	c := *s
	c.Representations = slices.Clone(s.Representations)
	c.CollisionRepresentations = slices.Clone(s.CollisionRepresentations)
	c.CollisionPairs = slices.Clone(s.CollisionPairs)
	for i := range c.Constraints {
		c.Constraints[i] = slices.Clone(s.Constraints[i])
	}
	c.RepresentationIndex = make(map[Representation]int, len(s.RepresentationIndex))
	for rep, offset := range s.RepresentationIndex {
		c.RepresentationIndex[rep] = offset
	}
	c.ActiveConstraints = slices.Clone(s.ActiveConstraints)
	c.ConstraintIndex = slices.Clone(s.ConstraintIndex)
	c.Solution.X = slices.Clone(s.Solution.X)
	c.Solution.DofCorrection = slices.Clone(s.Solution.DofCorrection)
	return &c
}

// AllConstraints returns the user constraints followed by the contact ones.
func (s *PhysicsManagerState) AllConstraints() []*Constraint {
	var all []*Constraint
	for _, group := range s.Constraints {
		all = append(all, group...)
	}
	return all
}

// Contacts returns every contact found this step.
func (s *PhysicsManagerState) Contacts() []*Contact {
	var contacts []*Contact
	for _, pair := range s.CollisionPairs {
		contacts = append(contacts, pair.Contacts()...)
	}
	return contacts
}

// updating reports whether rep takes part in this step.
func updating(rep Representation) bool {
	return rep.IsActive() && rep.IsAwake()
}
