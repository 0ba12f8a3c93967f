package surgsim

import (
	"fmt"

	"github.com/setanarut/surgsim/linalg"
	"gonum.org/v1/gonum/mat"
)

// FixedRepresentation is an object without dof. It only moves when its pose
// is set.
type FixedRepresentation struct {
	representationBase
	pose linalg.RigidTransform
}

func NewFixedRepresentation(name string) *FixedRepresentation {
	return &FixedRepresentation{
		representationBase: newRepresentationBase(name),
		pose:               linalg.NewRigidTransformIdentity(),
	}
}

func (r *FixedRepresentation) Type() RepresentationType { return RepresentationTypeFixed }

func (r *FixedRepresentation) NumDof() int { return 0 }

func (r *FixedRepresentation) Initialize() error { return r.initialize() }

func (r *FixedRepresentation) Pose() linalg.RigidTransform { return r.pose }

func (r *FixedRepresentation) SetPose(pose linalg.RigidTransform) {
	r.pose = pose
	r.touch()
}

func (r *FixedRepresentation) BeforeUpdate(float64) {}

func (r *FixedRepresentation) Update(float64) {}

func (r *FixedRepresentation) AfterUpdate(float64) {}

func (r *FixedRepresentation) ComplianceMatrix() *mat.Dense { return nil }

func (r *FixedRepresentation) ApplyDofCorrection(_ float64, correction []float64) {
	checkCorrection(r.name, 0, correction)
}

// CreateLocalization uses the rigid local position of location when set,
// the global position otherwise.
func (r *FixedRepresentation) CreateLocalization(location Location) Localization {
	local, ok := location.localPosition(r.pose)
	if !ok {
		panic(fmt.Sprintf("surgsim: %s cannot localize %v", r.name, location))
	}
	return &FixedLocalization{representation: r, localPosition: local}
}
