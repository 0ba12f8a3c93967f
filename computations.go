package surgsim

import (
	"log/slog"

	"github.com/setanarut/surgsim/mlcp"
)

// Computation is one stage of a physics step.
type Computation interface {
	Name() string
	Update(dt float64, state *PhysicsManagerState) *PhysicsManagerState
}

// DefaultComputations returns the stages of a step in order.
func DefaultComputations(config Config, logger *slog.Logger) []Computation {
	if logger == nil {
		logger = slog.Default()
	}
	return []Computation{
		&FreeMotion{},
		NewDcdCollision(config.BroadPhase),
		NewContactConstraintGeneration(config, logger),
		&BuildMlcp{},
		NewSolveMlcp(config, logger),
		&PushResults{},
		&PostUpdate{},
	}
}

// FreeMotion moves every representation under its own forces.
type FreeMotion struct{}

func (*FreeMotion) Name() string { return "FreeMotion" }

func (*FreeMotion) Update(dt float64, state *PhysicsManagerState) *PhysicsManagerState {
	for _, rep := range state.Representations {
		if updating(rep) {
			rep.BeforeUpdate(dt)
			rep.Update(dt)
		}
	}
	return state
}

// DcdCollision finds the contacts of the collision representations at the
// end of the free motion. The broad phase keeps its index between steps.
type DcdCollision struct {
	Calculations *ContactCalculations

	index   SpatialIndex
	indexed map[CollisionRepresentation]struct{}
}

// NewDcdCollision uses the broad phase named by kind, see NewSpatialIndex.
func NewDcdCollision(kind string) *DcdCollision {
	return &DcdCollision{
		Calculations: NewContactCalculations(),
		index:        NewSpatialIndex(kind),
		indexed:      map[CollisionRepresentation]struct{}{},
	}
}

func (*DcdCollision) Name() string { return "DcdCollision" }

func (c *DcdCollision) Update(_ float64, state *PhysicsManagerState) *PhysicsManagerState {
	present := make(map[CollisionRepresentation]struct{}, len(state.CollisionRepresentations))
	for _, rep := range state.CollisionRepresentations {
		present[rep] = struct{}{}
		if _, ok := c.indexed[rep]; ok {
			c.index.Update(rep, collisionAABB(rep))
		} else {
			c.index.Insert(rep, collisionAABB(rep))
			c.indexed[rep] = struct{}{}
		}
	}
	for rep := range c.indexed {
		if _, ok := present[rep]; !ok {
			c.index.Remove(rep)
			delete(c.indexed, rep)
		}
	}

	state.CollisionPairs = state.CollisionPairs[:0]
	c.index.Intersections(func(a, b CollisionRepresentation) {
		if !collides(a, b) {
			return
		}
		pair := NewCollisionPair(a, b)
		c.Calculations.CalculateContact(pair)
		if pair.HasContacts() {
			state.CollisionPairs = append(state.CollisionPairs, pair)
		}
	})
	return state
}

// collides filters the pairs worth a narrow phase: both sides need a physics
// representation, not the same one, and at least one of them has to move.
func collides(a, b CollisionRepresentation) bool {
	pa, pb := a.PhysicsRepresentation(), b.PhysicsRepresentation()
	if pa == nil || pb == nil || pa == pb {
		return false
	}
	if !pa.IsActive() || !pb.IsActive() {
		return false
	}
	return pa.NumDof() > 0 || pb.NumDof() > 0
}

// ContactConstraintGeneration turns every contact into a unilateral
// constraint, frictional when the friction coefficient is positive.
type ContactConstraintGeneration struct {
	Logger              *slog.Logger
	Factory             *ConstraintImplementationFactory
	ContactTolerance    float64
	FrictionCoefficient float64
}

func NewContactConstraintGeneration(config Config, logger *slog.Logger) *ContactConstraintGeneration {
	factory := NewDefaultConstraintImplementationFactory()
	factory.Logger = logger
	return &ContactConstraintGeneration{
		Logger:              logger,
		Factory:             factory,
		ContactTolerance:    config.ContactTolerance,
		FrictionCoefficient: config.FrictionCoefficient,
	}
}

func (*ContactConstraintGeneration) Name() string { return "ContactConstraintGeneration" }

func (g *ContactConstraintGeneration) constraintType() mlcp.ConstraintType {
	if g.FrictionCoefficient > 0 {
		return mlcp.Unilateral3DFrictional
	}
	return mlcp.Unilateral3DFrictionless
}

func (g *ContactConstraintGeneration) Update(_ float64, state *PhysicsManagerState) *PhysicsManagerState {
	ct := g.constraintType()
	contacts := state.Constraints[ConstraintGroupContact][:0]
	for _, pair := range state.CollisionPairs {
		reps := [2]Representation{pair.First().PhysicsRepresentation(), pair.Second().PhysicsRepresentation()}
		var implementations [2]ConstraintImplementation
		for i, rep := range reps {
			implementations[i] = g.Factory.Implementation(rep.Type(), ct)
		}
		if implementations[0] == nil || implementations[1] == nil {
			continue
		}
		for _, contact := range pair.Contacts() {
			var localizations [2]Localization
			for i, rep := range reps {
				localizations[i] = rep.CreateLocalization(contact.PenetrationPoints[i])
			}
			data := ConstraintData{
				Normal:              contact.Normal,
				Distance:            g.ContactTolerance,
				FrictionCoefficient: g.FrictionCoefficient,
			}
			contacts = append(contacts, NewConstraint(data, implementations, localizations))
		}
	}
	state.Constraints[ConstraintGroupContact] = contacts
	g.Logger.Debug("contact constraints", "pairs", len(state.CollisionPairs), "constraints", len(contacts))
	return state
}

// BuildMlcp lays out the dof of the updating representations and writes the
// active constraints into a new problem.
type BuildMlcp struct{}

func (*BuildMlcp) Name() string { return "BuildMlcp" }

func (*BuildMlcp) Update(dt float64, state *PhysicsManagerState) *PhysicsManagerState {
	clear(state.RepresentationIndex)
	numDof := 0
	var blocks []mlcp.ComplianceBlock
	for _, rep := range state.Representations {
		if !updating(rep) {
			continue
		}
		state.RepresentationIndex[rep] = numDof
		if compliance := rep.ComplianceMatrix(); compliance != nil {
			blocks = append(blocks, mlcp.ComplianceBlock{Offset: numDof, Compliance: compliance})
		}
		numDof += rep.NumDof()
	}

	state.ActiveConstraints = state.ActiveConstraints[:0]
	state.ConstraintIndex = state.ConstraintIndex[:0]
	numRows := 0
	for _, constraint := range state.AllConstraints() {
		if !constraint.IsActive() || !state.indexed(constraint) {
			continue
		}
		state.ActiveConstraints = append(state.ActiveConstraints, constraint)
		state.ConstraintIndex = append(state.ConstraintIndex, numRows)
		numRows += constraint.NumDof()
	}

	problem := mlcp.NewProblem(numRows, numDof)
	for i, constraint := range state.ActiveConstraints {
		reps := constraint.Representations()
		offsets := [2]int{state.RepresentationIndex[reps[0]], state.RepresentationIndex[reps[1]]}
		constraint.Build(dt, problem, offsets, state.ConstraintIndex[i])
	}
	problem.ComputeSystem(blocks)
	state.Problem = problem
	return state
}

// indexed reports whether both sides of constraint have a column offset.
func (s *PhysicsManagerState) indexed(constraint *Constraint) bool {
	for _, rep := range constraint.Representations() {
		if _, ok := s.RepresentationIndex[rep]; !ok {
			return false
		}
	}
	return true
}

// SolveMlcp solves the problem of the step with a projected Gauss-Seidel.
type SolveMlcp struct {
	Logger *slog.Logger
	Solver *mlcp.GaussSeidelSolver
}

func NewSolveMlcp(config Config, logger *slog.Logger) *SolveMlcp {
	solver := mlcp.NewGaussSeidelSolver()
	solver.MaxIterations = config.MlcpMaxIterations
	solver.Epsilon = config.MlcpEpsilon
	return &SolveMlcp{Logger: logger, Solver: solver}
}

func (*SolveMlcp) Name() string { return "SolveMlcp" }

func (s *SolveMlcp) Update(_ float64, state *PhysicsManagerState) *PhysicsManagerState {
	state.Solution = mlcp.Solution{}
	if state.Problem == nil || state.Problem.IsEmpty() {
		return state
	}
	s.Solver.Solve(state.Problem, &state.Solution)
	s.Logger.Debug("mlcp solved",
		"rows", state.Problem.NumRows(),
		"iterations", state.Solution.Iterations,
		"converged", state.Solution.Converged)
	return state
}

// PushResults hands every representation its share of the dof correction.
type PushResults struct{}

func (*PushResults) Name() string { return "PushResults" }

func (*PushResults) Update(dt float64, state *PhysicsManagerState) *PhysicsManagerState {
	if state.Problem == nil {
		return state
	}
	state.Solution.ComputeDofCorrection(state.Problem)
	correction := state.Solution.DofCorrection
	if len(correction) == 0 {
		return state
	}
	for rep, offset := range state.RepresentationIndex {
		if n := rep.NumDof(); n > 0 {
			rep.ApplyDofCorrection(dt, correction[offset:offset+n])
		}
	}
	return state
}

// PostUpdate ends the step of every updating representation.
type PostUpdate struct{}

func (*PostUpdate) Name() string { return "PostUpdate" }

func (*PostUpdate) Update(dt float64, state *PhysicsManagerState) *PhysicsManagerState {
	for _, rep := range state.Representations {
		if updating(rep) {
			rep.AfterUpdate(dt)
		}
	}
	return state
}
