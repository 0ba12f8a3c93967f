package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// Draw flags
const (
	DrawShapes = 1 << iota
	DrawConstraints
	DrawContacts
)

type FColor struct {
	R, G, B, A float32
}

// Drawer renders the debug view of a physics state. Positions are in world
// coordinates.
type Drawer interface {
	DrawSphere(center mgl64.Vec3, radius float64, fill FColor)
	DrawBox(pose linalg.RigidTransform, halfSize mgl64.Vec3, fill FColor)
	DrawCapsule(a, b mgl64.Vec3, radius float64, fill FColor)
	DrawPlane(point, normal mgl64.Vec3, fill FColor)
	DrawTriangle(a, b, c mgl64.Vec3, fill FColor)
	DrawSegment(a, b mgl64.Vec3, fill FColor)
	DrawDot(size float64, pos mgl64.Vec3, fill FColor)

	Flags() uint
	ShapeColor(rep CollisionRepresentation) FColor
	ConstraintColor() FColor
	ContactColor() FColor
}

// DrawShape draws shape placed at pose.
func DrawShape(shape Shape, pose linalg.RigidTransform, fill FColor, drawer Drawer) {
	switch s := shape.(type) {
	case *SphereShape:
		drawer.DrawSphere(pose.Translation, s.Radius, fill)
	case *BoxShape:
		drawer.DrawBox(pose, s.HalfSize(), fill)
	case *CapsuleShape:
		a, b := s.segment(pose)
		drawer.DrawCapsule(a, b, s.Radius, fill)
	case *CylinderShape:
		axis := pose.ApplyVector(mgl64.Vec3{0, s.Length / 2, 0})
		drawer.DrawCapsule(pose.Translation.Sub(axis), pose.Translation.Add(axis), s.Radius, fill)
	case PlaneShape, *PlaneShape, DoubleSidedPlaneShape, *DoubleSidedPlaneShape:
		n, d := worldPlane(pose)
		drawer.DrawPlane(n.Mul(-d), n, fill)
	case *MeshShape:
		vertices := s.Vertices()
		for _, t := range s.Triangles() {
			drawer.DrawTriangle(pose.Apply(vertices[t[0]]), pose.Apply(vertices[t[1]]), pose.Apply(vertices[t[2]]), fill)
		}
	default:
		panic(fmt.Sprintf("surgsim: cannot draw shape %T", shape))
	}
}

// DrawConstraint draws the two points of constraint and the segment between them.
func DrawConstraint(constraint *Constraint, drawer Drawer) {
	color := drawer.ConstraintColor()
	a := constraint.Localizations[0].Position()
	b := constraint.Localizations[1].Position()
	drawer.DrawDot(5, a, color)
	drawer.DrawDot(5, b, color)
	drawer.DrawSegment(a, b, color)
}

// DrawContact draws the penetration of contact along its normal.
func DrawContact(contact *Contact, drawer Drawer) {
	color := drawer.ContactColor()
	for _, point := range contact.PenetrationPoints {
		if p, ok := point.GlobalPosition.Get(); ok {
			drawer.DrawDot(3, p, color)
		}
	}
	if p, ok := contact.PenetrationPoints[1].GlobalPosition.Get(); ok {
		drawer.DrawSegment(p, p.Add(contact.Normal.Mul(contact.Depth)), color)
	}
}

// drawState draws what the flags of drawer ask for.
func drawState(state *PhysicsManagerState, drawer Drawer) {
	flags := drawer.Flags()
	if flags&DrawShapes != 0 {
		for _, rep := range state.CollisionRepresentations {
			DrawShape(rep.Shape(), rep.Pose(), drawer.ShapeColor(rep), drawer)
		}
	}
	if flags&DrawConstraints != 0 {
		for _, constraint := range state.Constraints[ConstraintGroupUser] {
			DrawConstraint(constraint, drawer)
		}
	}
	if flags&DrawContacts != 0 {
		for _, contact := range state.Contacts() {
			DrawContact(contact, drawer)
		}
	}
}
