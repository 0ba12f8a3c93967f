package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/mlcp"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/mat"
)

// LinearSpring links two nodes with a spring and a damper along their axis.
type LinearSpring struct {
	NodeIDs    [2]int
	Stiffness  float64
	Damping    float64
	RestLength float64
}

// NewLinearSpring returns a spring whose rest length is the current distance
// between the two nodes of state.
func NewLinearSpring(state *ode.State, node0, node1 int, stiffness, damping float64) LinearSpring {
	return LinearSpring{
		NodeIDs:    [2]int{node0, node1},
		Stiffness:  stiffness,
		Damping:    damping,
		RestLength: state.Position(node1).Sub(state.Position(node0)).Len(),
	}
}

// axis returns the unit vector from node 0 to node 1 and the current length.
func (s LinearSpring) axis(state *ode.State) (mgl64.Vec3, float64) {
	u := state.Position(s.NodeIDs[1]).Sub(state.Position(s.NodeIDs[0]))
	l := u.Len()
	if l < DistanceEpsilon {
		return mgl64.Vec3{}, l
	}
	return u.Mul(1 / l), l
}

// addForce adds the force of the spring on both nodes into f.
func (s LinearSpring) addForce(state *ode.State, f []float64) {
	u, l := s.axis(state)
	relative := state.Velocity(s.NodeIDs[1]).Sub(state.Velocity(s.NodeIDs[0]))
	force := u.Mul(s.Stiffness*(l-s.RestLength) + s.Damping*relative.Dot(u))
	dof := state.NumDofPerNode()
	linalg.AddVec3(f, s.NodeIDs[0]*dof, force)
	linalg.AddVec3(f, s.NodeIDs[1]*dof, force.Mul(-1))
}

// addDamping adds -dF/dv into d.
func (s LinearSpring) addDamping(state *ode.State, d *mat.Dense) {
	u, _ := s.axis(state)
	s.addBlocks(d, state.NumDofPerNode(), outer(u, u).Mul(s.Damping))
}

// addStiffness adds -dF/dx into k.
func (s LinearSpring) addStiffness(state *ode.State, k *mat.Dense) {
	u, l := s.axis(state)
	if l < DistanceEpsilon {
		return
	}
	uu := outer(u, u)
	block := uu.Add(mgl64.Ident3().Sub(uu).Mul(1 - s.RestLength/l)).Mul(s.Stiffness)
	s.addBlocks(k, state.NumDofPerNode(), block)
}

func (s LinearSpring) addBlocks(m *mat.Dense, dof int, block mgl64.Mat3) {
	i, j := s.NodeIDs[0]*dof, s.NodeIDs[1]*dof
	linalg.AddMat3(m, i, i, block, 1)
	linalg.AddMat3(m, j, j, block, 1)
	linalg.AddMat3(m, i, j, block, -1)
	linalg.AddMat3(m, j, i, block, -1)
}

func outer(a, b mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(a.Mul(b[0]), a.Mul(b[1]), a.Mul(b[2]))
}

// MassSpringRepresentation is a set of point masses linked by linear
// springs, 3 dof per node.
type MassSpringRepresentation struct {
	odeRepresentation

	masses              []float64
	springs             []LinearSpring
	rayleighDampingMass float64
}

// NewMassSpringRepresentation returns an empty model integrated with the
// modified explicit Euler scheme.
func NewMassSpringRepresentation(name string) *MassSpringRepresentation {
	return &MassSpringRepresentation{
		odeRepresentation: newOdeRepresentation(name, 3, ode.ModifiedExplicitEulerScheme),
	}
}

func (r *MassSpringRepresentation) Type() RepresentationType { return RepresentationTypeMassSpring }

// SetInitialState sets the nodes. Every node gets a zero mass until SetMass.
func (r *MassSpringRepresentation) SetInitialState(state *ode.State) {
	r.odeRepresentation.SetInitialState(state)
	r.masses = make([]float64, state.NumNodes())
}

func (r *MassSpringRepresentation) SetMass(node int, mass float64) {
	r.assertSettable("mass")
	r.masses[node] = mass
}

func (r *MassSpringRepresentation) Mass(node int) float64 { return r.masses[node] }

func (r *MassSpringRepresentation) AddSpring(spring LinearSpring) {
	r.assertSettable("springs")
	r.springs = append(r.springs, spring)
}

func (r *MassSpringRepresentation) NumSprings() int { return len(r.springs) }

func (r *MassSpringRepresentation) Spring(i int) LinearSpring { return r.springs[i] }

// SetRayleighDampingMass sets the damping proportional to the mass.
func (r *MassSpringRepresentation) SetRayleighDampingMass(c float64) { r.rayleighDampingMass = c }

func (r *MassSpringRepresentation) RayleighDampingMass() float64 { return r.rayleighDampingMass }

func (r *MassSpringRepresentation) TotalMass() float64 {
	var total float64
	for _, m := range r.masses {
		total += m
	}
	return total
}

// Init1D builds a chain of numNodes nodes evenly spread between the two
// extremities, sharing totalMass, each consecutive pair linked by a spring.
// boundaryNodes are fixed.
func (r *MassSpringRepresentation) Init1D(extremities [2]mgl64.Vec3, numNodes int, boundaryNodes []int, totalMass, stiffness, damping float64) {
	if numNodes < 2 {
		panic(fmt.Sprintf("surgsim: %s needs 2 nodes for a chain, got %d", r.name, numNodes))
	}
	state := ode.NewState(3, numNodes)
	for node := range numNodes {
		p := lerp(extremities[0], extremities[1], float64(node)/float64(numNodes-1))
		linalg.SetVec3(state.Positions(), 3*node, p)
	}
	for _, node := range boundaryNodes {
		state.AddBoundaryCondition(node)
	}
	r.SetInitialState(state)
	for node := range numNodes {
		r.masses[node] = totalMass / float64(numNodes)
	}
	for node := range numNodes - 1 {
		r.AddSpring(NewLinearSpring(state, node, node+1, stiffness, damping))
	}
}

// Initialize checks the masses and places the nodes with the initial pose.
// Explicit schemes use a diagonal linear solver, the mass matrix being
// diagonal.
func (r *MassSpringRepresentation) Initialize() error {
	if r.IsInitialized() {
		return fmt.Errorf("%s: %w", r.name, ErrAlreadyInitialized)
	}
	if r.initialState == nil {
		return fmt.Errorf("%s has no initial state: %w", r.name, ErrInvalidParameters)
	}
	for node, m := range r.masses {
		if !(m > 0) {
			return fmt.Errorf("%s node %d has mass %v: %w", r.name, node, m, ErrInvalidParameters)
		}
	}
	for i, s := range r.springs {
		for _, node := range s.NodeIDs {
			if node < 0 || node >= r.NumNodes() {
				return fmt.Errorf("%s spring %d on node %d: %w", r.name, i, node, ErrInvalidParameters)
			}
		}
	}
	var defaultSolver linalg.LinearSolveAndInverse = linalg.DenseMatrix{}
	switch r.scheme {
	case ode.ExplicitEulerScheme, ode.ModifiedExplicitEulerScheme, ode.LinearModifiedExplicitEulerScheme:
		defaultSolver = linalg.DiagonalMatrix{}
	}
	if err := r.initializeStates(r, defaultSolver); err != nil {
		return err
	}
	return r.initialize()
}

func (r *MassSpringRepresentation) Update(dt float64) {
	r.update(dt)
}

// ComputeF accumulates gravity, the Rayleigh mass damping, the springs and
// the external forces.
func (r *MassSpringRepresentation) ComputeF(state *ode.State) []float64 {
	f := make([]float64, state.NumDof())
	g := r.activeGravity()
	for node, m := range r.masses {
		linalg.AddVec3(f, 3*node, g.Mul(m))
	}
	if r.rayleighDampingMass != 0 {
		for node, m := range r.masses {
			linalg.AddVec3(f, 3*node, state.Velocity(node).Mul(-r.rayleighDampingMass*m))
		}
	}
	for _, s := range r.springs {
		s.addForce(state, f)
	}
	for i, e := range r.externalForce {
		f[i] += e
	}
	return state.ApplyBoundaryConditionsToVector(f)
}

func (r *MassSpringRepresentation) ComputeM(state *ode.State) *mat.Dense {
	m := mat.NewDense(state.NumDof(), state.NumDof(), nil)
	for node, mass := range r.masses {
		for axis := range 3 {
			m.Set(3*node+axis, 3*node+axis, mass)
		}
	}
	return m
}

func (r *MassSpringRepresentation) ComputeD(state *ode.State) *mat.Dense {
	d := mat.NewDense(state.NumDof(), state.NumDof(), nil)
	for node, mass := range r.masses {
		for axis := range 3 {
			d.Set(3*node+axis, 3*node+axis, r.rayleighDampingMass*mass)
		}
	}
	for _, s := range r.springs {
		s.addDamping(state, d)
	}
	return d
}

func (r *MassSpringRepresentation) ComputeK(state *ode.State) *mat.Dense {
	k := mat.NewDense(state.NumDof(), state.NumDof(), nil)
	for _, s := range r.springs {
		s.addStiffness(state, k)
	}
	return k
}

func (r *MassSpringRepresentation) ComputeFMDK(state *ode.State) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	return r.ComputeF(state), r.ComputeM(state), r.ComputeD(state), r.ComputeK(state)
}

// CreateLocalization localizes the node given by a mesh coordinate index or,
// without one, the node closest to the global position.
func (r *MassSpringRepresentation) CreateLocalization(location Location) Localization {
	var node int
	switch {
	case location.MeshCoordinate.HasValue():
		node = location.MeshCoordinate.Value().Index
		if node < 0 || node >= r.NumNodes() {
			panic(fmt.Sprintf("surgsim: %s has no node %d", r.name, node))
		}
	case location.GlobalPosition.HasValue():
		node = nearestNode(r.currentState, location.GlobalPosition.Value())
	default:
		panic(fmt.Sprintf("surgsim: %s cannot localize %v", r.name, location))
	}
	return &MassSpringLocalization{representation: r, node: node}
}

// MassSpringLocalization is a node of a MassSpringRepresentation.
type MassSpringLocalization struct {
	representation *MassSpringRepresentation
	node           int
}

func (l *MassSpringLocalization) Representation() Representation { return l.representation }

func (l *MassSpringLocalization) Node() int { return l.node }

func (l *MassSpringLocalization) Position() mgl64.Vec3 {
	return l.representation.CurrentState().Position(l.node)
}

func (l *MassSpringLocalization) Velocity() mgl64.Vec3 {
	return l.representation.CurrentState().Velocity(l.node)
}

func (l *MassSpringLocalization) AddJacobian(problem *mlcp.Problem, row, offset int, direction mgl64.Vec3, scale float64) {
	d := direction.Mul(scale)
	for axis := range 3 {
		problem.AddH(row, offset+3*l.node+axis, d[axis])
	}
}
