package surgsim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// IndexedCoordinate locates a point inside an element of a mesh: Index is
// the element and Coordinate holds the barycentric weights of its nodes.
type IndexedCoordinate struct {
	Index      int
	Coordinate mgl64.Vec4
}

// Location describes a point in one or more of the ways a representation
// can localize it.
type Location struct {
	GlobalPosition     Optional[mgl64.Vec3]
	RigidLocalPosition Optional[mgl64.Vec3]
	MeshCoordinate     Optional[IndexedCoordinate]
}

// NewGlobalLocation returns a location known by its world position.
func NewGlobalLocation(p mgl64.Vec3) Location {
	return Location{GlobalPosition: Some(p)}
}

func (l Location) String() string {
	s := "{"
	if l.GlobalPosition.HasValue() {
		s += fmt.Sprintf("global: %v ", l.GlobalPosition.Value())
	}
	if l.RigidLocalPosition.HasValue() {
		s += fmt.Sprintf("local: %v ", l.RigidLocalPosition.Value())
	}
	if l.MeshCoordinate.HasValue() {
		s += fmt.Sprintf("mesh: %v ", l.MeshCoordinate.Value())
	}
	return s + "}"
}

// localPosition returns the point in the frame of pose, preferring the rigid
// local position over the global one.
func (l Location) localPosition(pose linalg.RigidTransform) (mgl64.Vec3, bool) {
	if l.RigidLocalPosition.HasValue() {
		return l.RigidLocalPosition.Value(), true
	}
	if l.GlobalPosition.HasValue() {
		return pose.Inverse().Apply(l.GlobalPosition.Value()), true
	}
	return mgl64.Vec3{}, false
}

// Contact is an overlap between the two shapes of a CollisionPair. Normal is
// unit length and points from the second shape into the first: moving the
// first shape by Depth·Normal separates them.
type Contact struct {
	Depth             float64
	Normal            mgl64.Vec3
	PenetrationPoints [2]Location
}

func (c *Contact) String() string {
	return fmt.Sprintf("{depth: %v, normal: %v, points: %v %v}", c.Depth, c.Normal, c.PenetrationPoints[0], c.PenetrationPoints[1])
}
