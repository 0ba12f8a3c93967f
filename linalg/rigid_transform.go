package linalg

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RigidTransform is a rotation followed by a translation.
//
//	p' = Rotation·p + Translation
type RigidTransform struct {
	Rotation    mgl64.Quat
	Translation mgl64.Vec3
}

// NewRigidTransformIdentity creates a transform that leaves points unchanged.
func NewRigidTransformIdentity() RigidTransform {
	return RigidTransform{Rotation: mgl64.QuatIdent()}
}

// NewRigidTransform returns a transform from a rotation and a translation.
// The rotation is normalized.
func NewRigidTransform(rotation mgl64.Quat, translation mgl64.Vec3) RigidTransform {
	return RigidTransform{Rotation: rotation.Normalize(), Translation: translation}
}

// NewRigidTransformTranslate returns a pure translation.
func NewRigidTransformTranslate(translation mgl64.Vec3) RigidTransform {
	return RigidTransform{Rotation: mgl64.QuatIdent(), Translation: translation}
}

// NewRigidTransformRotate returns a rotation of angle radians around axis.
func NewRigidTransformRotate(angle float64, axis mgl64.Vec3) RigidTransform {
	return RigidTransform{Rotation: mgl64.QuatRotate(angle, axis.Normalize())}
}

func (t RigidTransform) String() string {
	return fmt.Sprintf("{rotation: %v %v, translation: %v}", t.Rotation.W, t.Rotation.V, t.Translation)
}

// Apply transforms the point p.
func (t RigidTransform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Translation)
}

// ApplyVector rotates v, ignoring the translation.
func (t RigidTransform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

// Inverse returns the transform that undoes t.
func (t RigidTransform) Inverse() RigidTransform {
	inv := t.Rotation.Conjugate()
	return RigidTransform{Rotation: inv, Translation: inv.Rotate(t.Translation).Mul(-1)}
}

// Mul composes t and t2, t.Mul(t2).Apply(p) == t.Apply(t2.Apply(p)).
func (t RigidTransform) Mul(t2 RigidTransform) RigidTransform {
	return RigidTransform{
		Rotation:    t.Rotation.Mul(t2.Rotation).Normalize(),
		Translation: t.Rotation.Rotate(t2.Translation).Add(t.Translation),
	}
}

// RotationMatrix returns the rotation part as a 3x3 matrix.
func (t RigidTransform) RotationMatrix() mgl64.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

// ApproxEqual compares rotations (up to the quaternion sign) and translations.
func (t RigidTransform) ApproxEqual(t2 RigidTransform, threshold float64) bool {
	if !t.Translation.ApproxEqualThreshold(t2.Translation, threshold) {
		return false
	}
	return t.Rotation.ApproxEqualThreshold(t2.Rotation, threshold) ||
		t.Rotation.Scale(-1).ApproxEqualThreshold(t2.Rotation, threshold)
}

// Interpolate blends t towards t2, 0 returns t and 1 returns t2.
func (t RigidTransform) Interpolate(t2 RigidTransform, amount float64) RigidTransform {
	return RigidTransform{
		Rotation:    mgl64.QuatSlerp(t.Rotation, t2.Rotation, amount),
		Translation: t.Translation.Add(t2.Translation.Sub(t.Translation).Mul(amount)),
	}
}

// RotationVector returns the rotation of q as axis·angle with angle in [0, π].
func RotationVector(q mgl64.Quat) mgl64.Vec3 {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	sinHalf := q.V.Len()
	if sinHalf < 1e-12 {
		return q.V.Mul(2)
	}
	angle := 2 * math.Atan2(sinHalf, q.W)
	return q.V.Mul(angle / sinHalf)
}

// QuatFromRotationVector is the inverse of RotationVector.
func QuatFromRotationVector(v mgl64.Vec3) mgl64.Quat {
	angle := v.Len()
	if angle < 1e-12 {
		return mgl64.Quat{W: 1, V: v.Mul(0.5)}.Normalize()
	}
	return mgl64.QuatRotate(angle, v.Mul(1/angle))
}
