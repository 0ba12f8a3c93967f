package surgsim

import (
	"fmt"

	"github.com/setanarut/surgsim/linalg"
)

// CollisionRepresentation is the shape of an object as seen by collision
// detection.
type CollisionRepresentation interface {
	Name() string
	Shape() Shape
	ShapeType() ShapeType
	// Pose is the world pose of the shape.
	Pose() linalg.RigidTransform
	// PhysicsRepresentation receives the constraints generated from the
	// contacts of this representation. Nil when it takes no part in the
	// constraint solve.
	PhysicsRepresentation() Representation
}

// collisionAABB returns the world bounding box of a collision representation.
func collisionAABB(c CollisionRepresentation) AABB {
	return c.Shape().AABB(c.Pose())
}

// ShapeCollisionRepresentation is a shape placed by a local pose, relative
// to its physics representation when it has one.
type ShapeCollisionRepresentation struct {
	name      string
	shape     Shape
	localPose linalg.RigidTransform
	physics   Representation
}

func NewShapeCollisionRepresentation(name string, shape Shape, pose linalg.RigidTransform) *ShapeCollisionRepresentation {
	if shape == nil {
		panic(fmt.Sprintf("surgsim: collision representation %s without shape", name))
	}
	return &ShapeCollisionRepresentation{name: name, shape: shape, localPose: pose}
}

func (c *ShapeCollisionRepresentation) Name() string { return c.name }

func (c *ShapeCollisionRepresentation) Shape() Shape { return c.shape }

func (c *ShapeCollisionRepresentation) ShapeType() ShapeType { return c.shape.Type() }

func (c *ShapeCollisionRepresentation) LocalPose() linalg.RigidTransform { return c.localPose }

func (c *ShapeCollisionRepresentation) SetLocalPose(pose linalg.RigidTransform) { c.localPose = pose }

func (c *ShapeCollisionRepresentation) Pose() linalg.RigidTransform {
	if c.physics == nil {
		return c.localPose
	}
	return c.physics.Pose().Mul(c.localPose)
}

func (c *ShapeCollisionRepresentation) PhysicsRepresentation() Representation { return c.physics }

func (c *ShapeCollisionRepresentation) SetPhysicsRepresentation(rep Representation) { c.physics = rep }

// RigidCollisionRepresentation collides with the shape a rigid
// representation uses for its mass properties, following its pose.
type RigidCollisionRepresentation struct {
	name      string
	rigid     rigidLike
	localPose linalg.RigidTransform
}

// NewRigidCollisionRepresentation attaches a collision representation to
// rep, which must be a *RigidRepresentation or a *VtcRigidRepresentation.
func NewRigidCollisionRepresentation(name string, rep Representation) *RigidCollisionRepresentation {
	rigid, ok := rep.(rigidLike)
	if !ok {
		panic(fmt.Sprintf("surgsim: %s is not a rigid representation", rep.Name()))
	}
	return &RigidCollisionRepresentation{name: name, rigid: rigid, localPose: linalg.NewRigidTransformIdentity()}
}

func (c *RigidCollisionRepresentation) Name() string { return c.name }

func (c *RigidCollisionRepresentation) Shape() Shape { return c.rigid.rigid().Parameters().Shape }

func (c *RigidCollisionRepresentation) ShapeType() ShapeType { return c.Shape().Type() }

func (c *RigidCollisionRepresentation) LocalPose() linalg.RigidTransform { return c.localPose }

// SetLocalPose offsets the shape from the rigid representation's frame.
func (c *RigidCollisionRepresentation) SetLocalPose(pose linalg.RigidTransform) { c.localPose = pose }

func (c *RigidCollisionRepresentation) Pose() linalg.RigidTransform {
	return c.rigid.Pose().Mul(c.localPose)
}

func (c *RigidCollisionRepresentation) PhysicsRepresentation() Representation { return c.rigid }
