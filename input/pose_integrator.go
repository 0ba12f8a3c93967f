package input

import (
	"sync"

	"github.com/setanarut/surgsim/linalg"
)

// PoseIntegrator treats the pose of every input as a pose change and
// replaces it with the accumulated pose. The linear and angular velocity
// entries, when present, are set from the change and the time step.
type PoseIntegrator struct {
	mu   sync.Mutex
	pose linalg.RigidTransform
}

func NewPoseIntegrator() *PoseIntegrator {
	return &PoseIntegrator{pose: linalg.NewRigidTransformIdentity()}
}

// Integrate adds delta to the accumulated pose and returns the result.
// Translations add up, rotations compose on the left.
func (p *PoseIntegrator) Integrate(delta linalg.RigidTransform) linalg.RigidTransform {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pose = linalg.RigidTransform{
		Rotation:    delta.Rotation.Mul(p.pose.Rotation).Normalize(),
		Translation: p.pose.Translation.Add(delta.Translation),
	}
	return p.pose
}

func (p *PoseIntegrator) Pose() linalg.RigidTransform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pose
}

// Reset sets the accumulated pose back to pose.
func (p *PoseIntegrator) Reset(pose linalg.RigidTransform) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pose = pose
}

func (p *PoseIntegrator) Filter(dt float64, data *DataGroup) {
	delta, ok := data.Poses.Get(NamePose)
	if !ok {
		return
	}
	data.Poses.Set(NamePose, p.Integrate(delta))
	data.Vectors.Set(NameLinearVelocity, delta.Translation.Mul(1/dt))
	data.Vectors.Set(NameAngularVelocity, linalg.RotationVector(delta.Rotation).Mul(1/dt))
}
