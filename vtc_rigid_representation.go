package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// VtcParameters are the gains of the virtual coupling of a VtcRigidRepresentation.
type VtcParameters struct {
	LinearStiffness  float64
	LinearDamping    float64
	AngularStiffness float64
	AngularDamping   float64
}

func (p VtcParameters) Validate() error {
	if p.LinearStiffness < 0 || p.LinearDamping < 0 || p.AngularStiffness < 0 || p.AngularDamping < 0 {
		return fmt.Errorf("negative virtual coupling gains %+v: %w", p, ErrInvalidParameters)
	}
	return nil
}

// VtcRigidRepresentation is a rigid body pulled towards a target pose by a
// virtual spring and damper, the way a tool follows a haptic device. The
// coupling is integrated implicitly so stiff gains stay stable.
type VtcRigidRepresentation struct {
	*RigidRepresentation

	vtc VtcParameters

	target                linalg.RigidTransform
	targetLinearVelocity  mgl64.Vec3
	targetAngularVelocity mgl64.Vec3
	hasTarget             bool

	couplingForce  mgl64.Vec3
	couplingTorque mgl64.Vec3
}

func NewVtcRigidRepresentation(name string) *VtcRigidRepresentation {
	return &VtcRigidRepresentation{
		RigidRepresentation: NewRigidRepresentation(name),
		target:              linalg.NewRigidTransformIdentity(),
	}
}

func (r *VtcRigidRepresentation) Type() RepresentationType { return RepresentationTypeVtcRigid }

func (r *VtcRigidRepresentation) SetVtcParameters(p VtcParameters) { r.vtc = p }

func (r *VtcRigidRepresentation) VtcParameters() VtcParameters { return r.vtc }

func (r *VtcRigidRepresentation) Initialize() error {
	if err := r.vtc.Validate(); err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	return r.RigidRepresentation.Initialize()
}

// SetTarget sets the pose the body is pulled towards, with the velocities of
// the target. The coupling is idle until a target is set.
func (r *VtcRigidRepresentation) SetTarget(pose linalg.RigidTransform, linearVelocity, angularVelocity mgl64.Vec3) {
	r.target = pose
	r.targetLinearVelocity = linearVelocity
	r.targetAngularVelocity = angularVelocity
	r.hasTarget = true
}

func (r *VtcRigidRepresentation) Target() (linalg.RigidTransform, bool) {
	return r.target, r.hasTarget
}

// CouplingForce is the force the coupling applied on the body at the end of
// the last step.
func (r *VtcRigidRepresentation) CouplingForce() mgl64.Vec3 { return r.couplingForce }

// CouplingTorque is the torque the coupling applied on the body at the end of
// the last step.
func (r *VtcRigidRepresentation) CouplingTorque() mgl64.Vec3 { return r.couplingTorque }

// coupling returns the spring and damper force and torque towards the
// target, without the velocity terms of the body.
func (r *VtcRigidRepresentation) coupling() (mgl64.Vec3, mgl64.Vec3) {
	if !r.hasTarget {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	s := r.currentState
	targetCenter := r.target.Apply(r.massCenter)
	rotationError := linalg.RotationVector(r.target.Rotation.Mul(s.Pose.Rotation.Conjugate()))

	force := targetCenter.Sub(r.MassCenter()).Mul(r.vtc.LinearStiffness).
		Add(r.targetLinearVelocity.Mul(r.vtc.LinearDamping))
	torque := rotationError.Mul(r.vtc.AngularStiffness).
		Add(r.targetAngularVelocity.Mul(r.vtc.AngularDamping))
	return force, torque
}

func (r *VtcRigidRepresentation) Update(dt float64) {
	if !r.canUpdate() {
		return
	}
	s := &r.currentState
	inertia := r.GlobalInertia()

	couplingForce, couplingTorque := r.coupling()
	force := r.activeGravity().Mul(r.mass).Add(r.externalForce).Add(couplingForce)
	torque := r.externalTorque.Sub(s.AngularVelocity.Cross(inertia.Mul3x1(s.AngularVelocity))).Add(couplingTorque)

	var c rigidCoupling
	if r.hasTarget {
		c = rigidCoupling{
			linearStiffness:  r.vtc.LinearStiffness,
			linearDamping:    r.vtc.LinearDamping,
			angularStiffness: r.vtc.AngularStiffness,
			angularDamping:   r.vtc.AngularDamping,
		}
	}
	r.integrate(dt, inertia, force, torque, c)
}

// AfterUpdate records the coupling force and torque of the final state.
func (r *VtcRigidRepresentation) AfterUpdate(dt float64) {
	r.RigidRepresentation.AfterUpdate(dt)
	force, torque := r.coupling()
	s := r.currentState
	r.couplingForce = force.Sub(s.LinearVelocity.Mul(r.vtc.LinearDamping))
	r.couplingTorque = torque.Sub(s.AngularVelocity.Mul(r.vtc.AngularDamping))
	if !r.hasTarget {
		r.couplingForce, r.couplingTorque = mgl64.Vec3{}, mgl64.Vec3{}
	}
}

func (r *VtcRigidRepresentation) CreateLocalization(location Location) Localization {
	return newRigidLocalization(r, location)
}
