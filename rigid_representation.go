package surgsim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"gonum.org/v1/gonum/mat"
)

// RigidParameters are the physical parameters of a rigid body. Mass, inertia
// and mass center derive from the shape and the density.
type RigidParameters struct {
	Density        float64
	Shape          Shape
	LinearDamping  float64
	AngularDamping float64
}

func (p RigidParameters) Validate() error {
	if p.Shape == nil {
		return fmt.Errorf("rigid parameters without shape: %w", ErrInvalidParameters)
	}
	if !(p.Density > 0) || p.Shape.Volume() <= 0 {
		return fmt.Errorf("rigid parameters with density %v and volume %v: %w", p.Density, p.Shape.Volume(), ErrInvalidParameters)
	}
	if p.LinearDamping < 0 || p.AngularDamping < 0 {
		return fmt.Errorf("rigid parameters with negative damping: %w", ErrInvalidParameters)
	}
	return nil
}

// RigidState is the state of a rigid body. Velocities are expressed in world
// coordinates, the linear one at the mass center.
type RigidState struct {
	Pose            linalg.RigidTransform
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

func NewRigidState() RigidState {
	return RigidState{Pose: linalg.NewRigidTransformIdentity()}
}

func (s RigidState) isValid() bool {
	values := []float64{s.Pose.Rotation.W}
	for _, v := range []mgl64.Vec3{s.Pose.Rotation.V, s.Pose.Translation, s.LinearVelocity, s.AngularVelocity} {
		values = append(values, v[:]...)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// rigidLike is implemented by the representations built on RigidRepresentation.
type rigidLike interface {
	Representation
	rigid() *RigidRepresentation
}

// RigidRepresentation is a rigid body with 6 dof, the linear velocity of its
// mass center followed by its angular velocity.
type RigidRepresentation struct {
	representationBase

	parameters   RigidParameters
	mass         float64
	localInertia mgl64.Mat3
	massCenter   mgl64.Vec3

	initialState  RigidState
	previousState RigidState
	currentState  RigidState

	externalForce  mgl64.Vec3
	externalTorque mgl64.Vec3

	compliance *mat.Dense
}

func NewRigidRepresentation(name string) *RigidRepresentation {
	return &RigidRepresentation{
		representationBase: newRepresentationBase(name),
		initialState:       NewRigidState(),
		previousState:      NewRigidState(),
		currentState:       NewRigidState(),
		compliance:         mat.NewDense(6, 6, nil),
	}
}

func (r *RigidRepresentation) rigid() *RigidRepresentation { return r }

func (r *RigidRepresentation) Type() RepresentationType { return RepresentationTypeRigid }

func (r *RigidRepresentation) NumDof() int { return 6 }

// SetParameters sets the parameters and derives the mass properties. Invalid
// parameters are stored but refused by Initialize.
func (r *RigidRepresentation) SetParameters(p RigidParameters) {
	r.parameters = p
	if p.Shape == nil {
		r.mass, r.localInertia, r.massCenter = 0, mgl64.Mat3{}, mgl64.Vec3{}
		return
	}
	r.mass = MassOf(p.Shape, p.Density)
	r.localInertia = InertiaOf(p.Shape, p.Density)
	r.massCenter = p.Shape.Center()
}

func (r *RigidRepresentation) Parameters() RigidParameters { return r.parameters }

func (r *RigidRepresentation) Mass() float64 { return r.mass }

func (r *RigidRepresentation) LocalInertia() mgl64.Mat3 { return r.localInertia }

// GlobalInertia is the inertia tensor in world coordinates.
func (r *RigidRepresentation) GlobalInertia() mgl64.Mat3 {
	rot := r.currentState.Pose.RotationMatrix()
	return rot.Mul3(r.localInertia).Mul3(rot.Transpose())
}

func (r *RigidRepresentation) LocalMassCenter() mgl64.Vec3 { return r.massCenter }

// MassCenter is the world position of the mass center.
func (r *RigidRepresentation) MassCenter() mgl64.Vec3 {
	return r.currentState.Pose.Apply(r.massCenter)
}

// SetInitialState sets both the initial and the current state.
func (r *RigidRepresentation) SetInitialState(s RigidState) {
	r.initialState = s
	r.previousState = s
	r.currentState = s
	r.touch()
}

func (r *RigidRepresentation) InitialState() RigidState { return r.initialState }

func (r *RigidRepresentation) PreviousState() RigidState { return r.previousState }

func (r *RigidRepresentation) CurrentState() RigidState { return r.currentState }

// ResetState puts the representation back in its initial state.
func (r *RigidRepresentation) ResetState() {
	r.SetInitialState(r.initialState)
}

func (r *RigidRepresentation) Pose() linalg.RigidTransform { return r.currentState.Pose }

func (r *RigidRepresentation) SetPose(pose linalg.RigidTransform) {
	r.currentState.Pose = pose
	r.touch()
}

func (r *RigidRepresentation) SetLinearVelocity(v mgl64.Vec3) {
	r.currentState.LinearVelocity = v
	r.touch()
}

func (r *RigidRepresentation) SetAngularVelocity(w mgl64.Vec3) {
	r.currentState.AngularVelocity = w
	r.touch()
}

// AddExternalForce applies f at the mass center during the next update.
func (r *RigidRepresentation) AddExternalForce(f mgl64.Vec3) {
	r.externalForce = r.externalForce.Add(f)
}

// AddExternalTorque applies t during the next update.
func (r *RigidRepresentation) AddExternalTorque(t mgl64.Vec3) {
	r.externalTorque = r.externalTorque.Add(t)
}

func (r *RigidRepresentation) ExternalForce() mgl64.Vec3 { return r.externalForce }

func (r *RigidRepresentation) ExternalTorque() mgl64.Vec3 { return r.externalTorque }

func (r *RigidRepresentation) Initialize() error {
	if err := r.parameters.Validate(); err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	return r.initialize()
}

func (r *RigidRepresentation) BeforeUpdate(float64) {
	r.previousState = r.currentState
}

// Update integrates the free motion over dt, semi implicitly with implicit
// damping.
func (r *RigidRepresentation) Update(dt float64) {
	if !r.canUpdate() {
		return
	}
	s := &r.currentState
	inertia := r.GlobalInertia()

	force := r.activeGravity().Mul(r.mass).Add(r.externalForce)
	torque := r.externalTorque.Sub(s.AngularVelocity.Cross(inertia.Mul3x1(s.AngularVelocity)))
	r.integrate(dt, inertia, force, torque, rigidCoupling{})
}

// rigidCoupling is a spring and damper pulling a rigid body, linear and
// angular. It enters the implicit part of the step.
type rigidCoupling struct {
	linearStiffness, linearDamping   float64
	angularStiffness, angularDamping float64
}

// integrate steps the velocities with
//
//	(M/dt + D + dt·K)·δv = f - (D + dt·K)·v
//
// then the pose with the new velocities. D holds the damping of the body and
// of the coupling, K the stiffness of the coupling.
func (r *RigidRepresentation) integrate(dt float64, inertia mgl64.Mat3, force, torque mgl64.Vec3, c rigidCoupling) {
	s := &r.currentState
	linearResistance := r.parameters.LinearDamping + c.linearDamping + dt*c.linearStiffness
	angularResistance := r.parameters.AngularDamping + c.angularDamping + dt*c.angularStiffness
	r.computeCompliance(dt, inertia, linearResistance, angularResistance)

	linear := force.Sub(s.LinearVelocity.Mul(linearResistance))
	angular := torque.Sub(s.AngularVelocity.Mul(angularResistance))

	s.LinearVelocity = s.LinearVelocity.Add(linear.Mul(r.compliance.At(0, 0)))
	s.AngularVelocity = s.AngularVelocity.Add(linalg.Mat3At(r.compliance, 3, 3).Mul3x1(angular))
	r.integratePose(dt, s.LinearVelocity, s.AngularVelocity)
	r.checkValidity()
}

// computeCompliance sets the compliance to (M/dt + D)⁻¹, block diagonal.
func (r *RigidRepresentation) computeCompliance(dt float64, inertia mgl64.Mat3, linearResistance, angularResistance float64) {
	r.compliance.Zero()
	linear := 1 / (r.mass/dt + linearResistance)
	for i := range 3 {
		r.compliance.Set(i, i, linear)
	}
	angular := inertia.Mul(1 / dt).Add(mgl64.Ident3().Mul(angularResistance))
	linalg.SetMat3(r.compliance, 3, 3, angular.Inv())
}

// integratePose moves the mass center by dt·v and rotates the body by dt·w.
func (r *RigidRepresentation) integratePose(dt float64, v, w mgl64.Vec3) {
	s := &r.currentState
	center := s.Pose.Apply(r.massCenter).Add(v.Mul(dt))
	rotation := linalg.QuatFromRotationVector(w.Mul(dt)).Mul(s.Pose.Rotation).Normalize()
	s.Pose = linalg.RigidTransform{
		Rotation:    rotation,
		Translation: center.Sub(rotation.Rotate(r.massCenter)),
	}
	r.touch()
}

func (r *RigidRepresentation) checkValidity() {
	if !r.currentState.isValid() {
		r.deactivate("rigid representation diverged, deactivating")
	}
}

func (r *RigidRepresentation) AfterUpdate(float64) {
	r.externalForce = mgl64.Vec3{}
	r.externalTorque = mgl64.Vec3{}
}

func (r *RigidRepresentation) ComplianceMatrix() *mat.Dense { return r.compliance }

func (r *RigidRepresentation) ApplyDofCorrection(dt float64, correction []float64) {
	checkCorrection(r.name, 6, correction)
	if !r.canUpdate() {
		return
	}
	s := &r.currentState
	dv := linalg.Vec3At(correction, 0)
	dw := linalg.Vec3At(correction, 3)
	s.LinearVelocity = s.LinearVelocity.Add(dv)
	s.AngularVelocity = s.AngularVelocity.Add(dw)
	r.integratePose(dt, dv, dw)
	r.checkValidity()
}

func (r *RigidRepresentation) CreateLocalization(location Location) Localization {
	return newRigidLocalization(r, location)
}

func newRigidLocalization(rep rigidLike, location Location) *RigidLocalization {
	local, ok := location.localPosition(rep.Pose())
	if !ok {
		panic(fmt.Sprintf("surgsim: %s cannot localize %v", rep.Name(), location))
	}
	return &RigidLocalization{representation: rep, localPosition: local}
}
