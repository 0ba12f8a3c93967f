package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// odeRepresentation is the part shared by the representations whose dof are
// integrated by an ode.Solver: FEM and mass-spring.
type odeRepresentation struct {
	representationBase

	dofPerNode  int
	initialPose linalg.RigidTransform

	initialState  *ode.State
	previousState *ode.State
	currentState  *ode.State
	nextState     *ode.State

	scheme       ode.IntegrationScheme
	linearSolver linalg.LinearSolveAndInverse
	solver       ode.Solver

	externalForce []float64
}

func newOdeRepresentation(name string, dofPerNode int, scheme ode.IntegrationScheme) odeRepresentation {
	return odeRepresentation{
		representationBase: newRepresentationBase(name),
		dofPerNode:         dofPerNode,
		initialPose:        linalg.NewRigidTransformIdentity(),
		scheme:             scheme,
	}
}

func (r *odeRepresentation) NumDofPerNode() int { return r.dofPerNode }

func (r *odeRepresentation) NumDof() int {
	if r.initialState == nil {
		return 0
	}
	return r.initialState.NumDof()
}

func (r *odeRepresentation) NumNodes() int {
	if r.initialState == nil {
		return 0
	}
	return r.initialState.NumNodes()
}

// SetInitialState sets the rest state, expressed in the frame of the
// initial pose. It panics when the state does not have the representation's
// number of dof per node.
func (r *odeRepresentation) SetInitialState(state *ode.State) {
	r.assertSettable("initial state")
	if state.NumDofPerNode() != r.dofPerNode {
		panic(fmt.Sprintf("surgsim: %s has %d dof per node, got a state with %d", r.name, r.dofPerNode, state.NumDofPerNode()))
	}
	r.initialState = state.Clone()
	r.previousState = state.Clone()
	r.currentState = state.Clone()
	r.nextState = state.Clone()
	r.externalForce = make([]float64, state.NumDof())
	r.touch()
}

func (r *odeRepresentation) InitialState() *ode.State { return r.initialState }

func (r *odeRepresentation) PreviousState() *ode.State { return r.previousState }

func (r *odeRepresentation) CurrentState() *ode.State { return r.currentState }

// SetInitialPose places the initial state in the world. It is applied once,
// by Initialize.
func (r *odeRepresentation) SetInitialPose(pose linalg.RigidTransform) {
	r.assertSettable("initial pose")
	r.initialPose = pose
}

func (r *odeRepresentation) InitialPose() linalg.RigidTransform { return r.initialPose }

// Pose of a deformable object is its initial pose, the nodes carry the motion.
func (r *odeRepresentation) Pose() linalg.RigidTransform { return r.initialPose }

func (r *odeRepresentation) SetIntegrationScheme(scheme ode.IntegrationScheme) {
	r.assertSettable("integration scheme")
	r.scheme = scheme
}

func (r *odeRepresentation) IntegrationScheme() ode.IntegrationScheme { return r.scheme }

// SetLinearSolver overrides the default linear solver of the integration scheme.
func (r *odeRepresentation) SetLinearSolver(solver linalg.LinearSolveAndInverse) {
	r.assertSettable("linear solver")
	r.linearSolver = solver
}

// AddExternalForce applies f to the translational dof of node during the
// next update.
func (r *odeRepresentation) AddExternalForce(node int, f mgl64.Vec3) {
	if node < 0 || node >= r.NumNodes() {
		panic(fmt.Sprintf("surgsim: %s has no node %d", r.name, node))
	}
	linalg.AddVec3(r.externalForce, node*r.dofPerNode, f)
}

func (r *odeRepresentation) ExternalForce() []float64 { return r.externalForce }

// initializeStates moves the states into the world and creates the solver.
func (r *odeRepresentation) initializeStates(equation ode.Equation, defaultSolver linalg.LinearSolveAndInverse) error {
	if r.initialState == nil {
		return fmt.Errorf("%s has no initial state: %w", r.name, ErrInvalidParameters)
	}
	TransformState(r.initialState, r.initialPose)
	r.previousState.CopyFrom(r.initialState)
	r.currentState.CopyFrom(r.initialState)
	r.nextState.CopyFrom(r.initialState)

	r.solver = ode.NewSolver(r.scheme, equation)
	switch {
	case r.linearSolver != nil:
		r.solver.SetLinearSolver(r.linearSolver)
	case defaultSolver != nil:
		r.solver.SetLinearSolver(defaultSolver)
	}
	return nil
}

func (r *odeRepresentation) BeforeUpdate(float64) {
	if !r.canUpdate() {
		return
	}
	r.previousState.CopyFrom(r.currentState)
}

// update runs the ode solver over dt. A failed solve or a diverged state
// deactivates the representation and keeps the previous state.
func (r *odeRepresentation) update(dt float64) {
	if !r.canUpdate() {
		return
	}
	err := r.solver.Solve(dt, r.currentState, r.nextState)
	if err == nil && !r.nextState.IsValid() {
		err = fmt.Errorf("invalid state after %s", r.solver.Name())
	}
	if err != nil {
		r.deactivate("deformable representation deactivated", "err", err)
		return
	}
	r.currentState, r.nextState = r.nextState, r.currentState
	r.touch()
}

func (r *odeRepresentation) AfterUpdate(float64) {
	clear(r.externalForce)
}

// ComplianceMatrix is the compliance of the last solve, nil before the first one.
func (r *odeRepresentation) ComplianceMatrix() *mat.Dense {
	if r.solver == nil {
		return nil
	}
	return r.solver.Compliance()
}

// ApplyDofCorrection adds the correction to the velocities and dt times it to
// the positions. Fixed dof are left untouched.
func (r *odeRepresentation) ApplyDofCorrection(dt float64, correction []float64) {
	checkCorrection(r.name, r.NumDof(), correction)
	if !r.canUpdate() {
		return
	}
	delta := r.currentState.ApplyBoundaryConditionsToVector(append([]float64(nil), correction...))
	floats.Add(r.currentState.Velocities(), delta)
	floats.AddScaled(r.currentState.Positions(), dt, delta)
	if !r.currentState.IsValid() {
		r.deactivate("deformable representation deactivated", "err", "invalid state after correction")
	}
	r.touch()
}

// addGravity adds M·g to f, g being set on the translational dof of every node.
func (r *odeRepresentation) addGravity(f []float64, m mat.Matrix) {
	g := r.activeGravity()
	if g == (mgl64.Vec3{}) {
		return
	}
	acceleration := make([]float64, len(f))
	for node := range r.NumNodes() {
		linalg.SetVec3(acceleration, node*r.dofPerNode, g)
	}
	gravity := make([]float64, len(f))
	mat.NewVecDense(len(f), gravity).MulVec(m, mat.NewVecDense(len(f), acceleration))
	floats.Add(f, gravity)
}

// nearestNode returns the node of state closest to p.
func nearestNode(state *ode.State, p mgl64.Vec3) int {
	best, bestDistance := 0, -1.0
	for node := range state.NumNodes() {
		delta := state.Position(node).Sub(p)
		d := delta.Dot(delta)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = node, d
		}
	}
	return best
}

// TransformState applies pose to the translational part of every node of
// state: positions are transformed, velocities and accelerations rotated.
func TransformState(state *ode.State, pose linalg.RigidTransform) {
	x, v, a := state.Positions(), state.Velocities(), state.Accelerations()
	for node := range state.NumNodes() {
		i := node * state.NumDofPerNode()
		linalg.SetVec3(x, i, pose.Apply(linalg.Vec3At(x, i)))
		linalg.SetVec3(v, i, pose.ApplyVector(linalg.Vec3At(v, i)))
		linalg.SetVec3(a, i, pose.ApplyVector(linalg.Vec3At(a, i)))
	}
}
