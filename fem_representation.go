package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"github.com/setanarut/surgsim/mlcp"
	"github.com/setanarut/surgsim/ode"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FemRepresentation is a linear finite element model. Its equation of motion
//
//	M·a = -K·(x - x0) - D·v + M·g + f_ext, D = α·M + β·K
//
// is integrated by an ode solver. The element matrices are computed once, in
// the rest configuration placed by the initial pose.
type FemRepresentation struct {
	odeRepresentation

	repType  RepresentationType
	elements []FemElement

	rayleighMass      float64
	rayleighStiffness float64

	mass      *mat.Dense
	stiffness *mat.Dense
	damping   *mat.Dense
}

func newFemRepresentation(name string, repType RepresentationType, dofPerNode int) *FemRepresentation {
	return &FemRepresentation{
		odeRepresentation: newOdeRepresentation(name, dofPerNode, ode.LinearImplicitEulerScheme),
		repType:           repType,
	}
}

// NewFem1DRepresentation returns a model made of beams, 6 dof per node.
func NewFem1DRepresentation(name string) *FemRepresentation {
	return newFemRepresentation(name, RepresentationTypeFem1D, 6)
}

// NewFem2DRepresentation returns a model made of shell triangles, 6 dof per node.
func NewFem2DRepresentation(name string) *FemRepresentation {
	return newFemRepresentation(name, RepresentationTypeFem2D, 6)
}

// NewFem3DRepresentation returns a model made of tetrahedra, 3 dof per node.
func NewFem3DRepresentation(name string) *FemRepresentation {
	return newFemRepresentation(name, RepresentationTypeFem3D, 3)
}

func (r *FemRepresentation) Type() RepresentationType { return r.repType }

// AddElement adds an element to the model. It panics when the element does
// not have the representation's number of dof per node.
func (r *FemRepresentation) AddElement(element FemElement) {
	r.assertSettable("elements")
	if element.NumDofPerNode() != r.dofPerNode {
		panic(fmt.Sprintf("surgsim: %s has %d dof per node, got an element with %d", r.name, r.dofPerNode, element.NumDofPerNode()))
	}
	r.elements = append(r.elements, element)
}

func (r *FemRepresentation) NumElements() int { return len(r.elements) }

func (r *FemRepresentation) Element(i int) FemElement { return r.elements[i] }

// SetRayleighDamping sets D = mass·M + stiffness·K.
func (r *FemRepresentation) SetRayleighDamping(mass, stiffness float64) {
	r.rayleighMass = mass
	r.rayleighStiffness = stiffness
}

func (r *FemRepresentation) RayleighDamping() (mass, stiffness float64) {
	return r.rayleighMass, r.rayleighStiffness
}

// TotalMass sums the translational mass of the first axis of every node.
func (r *FemRepresentation) TotalMass() float64 {
	if r.mass == nil {
		return 0
	}
	var total float64
	for a := range r.NumNodes() {
		for b := range r.NumNodes() {
			total += r.mass.At(a*r.dofPerNode, b*r.dofPerNode)
		}
	}
	return total
}

// Initialize places the rest state with the initial pose, initializes every
// element and assembles the mass and stiffness matrices.
func (r *FemRepresentation) Initialize() error {
	if r.IsInitialized() {
		return fmt.Errorf("%s: %w", r.name, ErrAlreadyInitialized)
	}
	if len(r.elements) == 0 {
		return fmt.Errorf("%s has no element: %w", r.name, ErrInvalidParameters)
	}
	var defaultSolver linalg.LinearSolveAndInverse
	if r.repType == RepresentationTypeFem1D {
		defaultSolver = linalg.TriDiagonalBlockMatrix{BlockSize: 6}
	}
	if err := r.initializeStates(r, defaultSolver); err != nil {
		return err
	}

	n := r.NumDof()
	r.mass = mat.NewDense(n, n, nil)
	r.stiffness = mat.NewDense(n, n, nil)
	for i, element := range r.elements {
		if err := element.Initialize(r.initialState); err != nil {
			return fmt.Errorf("%s element %d: %w", r.name, i, err)
		}
		linalg.AddSubMatrixBlocks(r.mass, element.Mass(), element.NodeIDs(), r.dofPerNode, 1)
		linalg.AddSubMatrixBlocks(r.stiffness, element.Stiffness(), element.NodeIDs(), r.dofPerNode, 1)
	}
	r.updateDamping()
	return r.initialize()
}

func (r *FemRepresentation) updateDamping() {
	var m, k mat.Dense
	m.Scale(r.rayleighMass, r.mass)
	k.Scale(r.rayleighStiffness, r.stiffness)
	r.damping = &mat.Dense{}
	r.damping.Add(&m, &k)
}

func (r *FemRepresentation) Update(dt float64) {
	r.update(dt)
}

func (r *FemRepresentation) ComputeF(state *ode.State) []float64 {
	n := state.NumDof()
	f := append([]float64(nil), r.externalForce...)
	r.addGravity(f, r.mass)

	displacement := make([]float64, n)
	floats.SubTo(displacement, state.Positions(), r.initialState.Positions())
	elastic := make([]float64, n)
	mat.NewVecDense(n, elastic).MulVec(r.stiffness, mat.NewVecDense(n, displacement))
	floats.Sub(f, elastic)

	damping := make([]float64, n)
	mat.NewVecDense(n, damping).MulVec(r.damping, mat.NewVecDense(n, state.Velocities()))
	floats.Sub(f, damping)

	return state.ApplyBoundaryConditionsToVector(f)
}

func (r *FemRepresentation) ComputeM(*ode.State) *mat.Dense { return mat.DenseCopyOf(r.mass) }

func (r *FemRepresentation) ComputeD(*ode.State) *mat.Dense {
	r.updateDamping()
	return mat.DenseCopyOf(r.damping)
}

func (r *FemRepresentation) ComputeK(*ode.State) *mat.Dense { return mat.DenseCopyOf(r.stiffness) }

func (r *FemRepresentation) ComputeFMDK(state *ode.State) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	d := r.ComputeD(state)
	return r.ComputeF(state), r.ComputeM(state), d, r.ComputeK(state)
}

// CreateLocalization localizes a mesh coordinate (an element and the
// barycentric weights of its nodes) or, without one, the node closest to the
// global position.
func (r *FemRepresentation) CreateLocalization(location Location) Localization {
	if location.MeshCoordinate.HasValue() {
		coordinate := location.MeshCoordinate.Value()
		if coordinate.Index < 0 || coordinate.Index >= len(r.elements) {
			panic(fmt.Sprintf("surgsim: %s has no element %d", r.name, coordinate.Index))
		}
		element := r.elements[coordinate.Index]
		weights := coordinate.Coordinate[:len(element.NodeIDs())]
		if !element.IsValidCoordinate(weights) {
			panic(fmt.Sprintf("surgsim: %s invalid coordinate %v for element %d", r.name, weights, coordinate.Index))
		}
		return NewFemLocalization(r, element.NodeIDs(), weights)
	}
	if !location.GlobalPosition.HasValue() {
		panic(fmt.Sprintf("surgsim: %s cannot localize %v", r.name, location))
	}
	node := nearestNode(r.currentState, location.GlobalPosition.Value())
	return NewFemLocalization(r, []int{node}, []float64{1})
}

// FemLocalization is a weighted combination of nodes of a FemRepresentation.
type FemLocalization struct {
	representation *FemRepresentation
	nodeIDs        []int
	weights        []float64
	cache          localizationCache
}

func NewFemLocalization(rep *FemRepresentation, nodeIDs []int, weights []float64) *FemLocalization {
	if len(nodeIDs) != len(weights) {
		panic(fmt.Sprintf("surgsim: %d nodes with %d weights", len(nodeIDs), len(weights)))
	}
	return &FemLocalization{
		representation: rep,
		nodeIDs:        append([]int(nil), nodeIDs...),
		weights:        append([]float64(nil), weights...),
	}
}

func (l *FemLocalization) Representation() Representation { return l.representation }

func (l *FemLocalization) NodeIDs() []int { return l.nodeIDs }

func (l *FemLocalization) Weights() []float64 { return l.weights }

func (l *FemLocalization) Position() mgl64.Vec3 {
	return l.cache.get(l.representation, func() mgl64.Vec3 {
		return l.interpolate(l.representation.CurrentState().Position)
	})
}

func (l *FemLocalization) Velocity() mgl64.Vec3 {
	return l.interpolate(l.representation.CurrentState().Velocity)
}

func (l *FemLocalization) interpolate(at func(int) mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i, node := range l.nodeIDs {
		p = p.Add(at(node).Mul(l.weights[i]))
	}
	return p
}

// AddJacobian adds w_i·scale·direction on the translational dof of every node.
func (l *FemLocalization) AddJacobian(problem *mlcp.Problem, row, offset int, direction mgl64.Vec3, scale float64) {
	dofPerNode := l.representation.NumDofPerNode()
	for i, node := range l.nodeIDs {
		d := direction.Mul(scale * l.weights[i])
		for axis := range 3 {
			problem.AddH(row, offset+node*dofPerNode+axis, d[axis])
		}
	}
}
