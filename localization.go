package surgsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/mlcp"
)

// Localization is a point attached to a representation.
type Localization interface {
	Representation() Representation
	// Position is the current world position of the point.
	Position() mgl64.Vec3
	// Velocity is the current world velocity of the point.
	Velocity() mgl64.Vec3
	// AddJacobian adds scale·directionᵀ·J into row of the problem's H,
	// starting at column offset, where J maps the dof velocities of the
	// representation to the velocity of the point.
	AddJacobian(problem *mlcp.Problem, row, offset int, direction mgl64.Vec3, scale float64)
}

// localizationCache recomputes a value only when the representation changed.
type localizationCache struct {
	version  uint64
	valid    bool
	position mgl64.Vec3
}

func (c *localizationCache) get(rep Representation, compute func() mgl64.Vec3) mgl64.Vec3 {
	if !c.valid || c.version != rep.Version() {
		c.position = compute()
		c.version = rep.Version()
		c.valid = true
	}
	return c.position
}

// FixedLocalization is a point of a FixedRepresentation.
type FixedLocalization struct {
	representation *FixedRepresentation
	localPosition  mgl64.Vec3
	cache          localizationCache
}

func (l *FixedLocalization) Representation() Representation { return l.representation }

func (l *FixedLocalization) LocalPosition() mgl64.Vec3 { return l.localPosition }

func (l *FixedLocalization) Position() mgl64.Vec3 {
	return l.cache.get(l.representation, func() mgl64.Vec3 {
		return l.representation.Pose().Apply(l.localPosition)
	})
}

func (l *FixedLocalization) Velocity() mgl64.Vec3 { return mgl64.Vec3{} }

func (l *FixedLocalization) AddJacobian(*mlcp.Problem, int, int, mgl64.Vec3, float64) {}

// RigidLocalization is a point of a rigid representation, fixed in its local frame.
type RigidLocalization struct {
	representation rigidLike
	localPosition  mgl64.Vec3
	cache          localizationCache
}

func (l *RigidLocalization) Representation() Representation { return l.representation }

func (l *RigidLocalization) LocalPosition() mgl64.Vec3 { return l.localPosition }

func (l *RigidLocalization) Position() mgl64.Vec3 {
	return l.cache.get(l.representation, func() mgl64.Vec3 {
		return l.representation.Pose().Apply(l.localPosition)
	})
}

// Velocity is v + ω×r, r going from the mass center to the point.
func (l *RigidLocalization) Velocity() mgl64.Vec3 {
	state := l.representation.rigid().CurrentState()
	r := l.Position().Sub(l.representation.rigid().MassCenter())
	return state.LinearVelocity.Add(state.AngularVelocity.Cross(r))
}

// AddJacobian adds [d, r×d] where d = scale·direction.
func (l *RigidLocalization) AddJacobian(problem *mlcp.Problem, row, offset int, direction mgl64.Vec3, scale float64) {
	d := direction.Mul(scale)
	r := l.Position().Sub(l.representation.rigid().MassCenter())
	angular := r.Cross(d)
	for i := range 3 {
		problem.AddH(row, offset+i, d[i])
		problem.AddH(row, offset+3+i, angular[i])
	}
}
