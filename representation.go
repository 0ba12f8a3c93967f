package surgsim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidParameters  = errors.New("surgsim: invalid parameters")
	ErrAlreadyInitialized = errors.New("surgsim: already initialized")
)

// RepresentationType tags the variants of Representation.
type RepresentationType int

const (
	RepresentationTypeInvalid RepresentationType = iota - 1
	RepresentationTypeFixed
	RepresentationTypeRigid
	RepresentationTypeVtcRigid
	RepresentationTypeFem1D
	RepresentationTypeFem2D
	RepresentationTypeFem3D
	RepresentationTypeMassSpring
	RepresentationTypeCount
)

var representationTypeNames = [RepresentationTypeCount]string{
	"Fixed",
	"Rigid",
	"VtcRigid",
	"Fem1D",
	"Fem2D",
	"Fem3D",
	"MassSpring",
}

func (t RepresentationType) IsValid() bool {
	return t >= 0 && t < RepresentationTypeCount
}

func (t RepresentationType) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("RepresentationType(%d)", int(t))
	}
	return representationTypeNames[t]
}

// DefaultGravity is the gravity every representation starts with.
var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// Representation is a simulated object owning a set of degrees of freedom.
//
// A representation goes through Initialize then WakeUp before it takes part
// in a step. Every step the manager calls BeforeUpdate, Update (free
// motion), then ApplyDofCorrection with the constraint correction and
// finally AfterUpdate.
type Representation interface {
	Name() string
	Type() RepresentationType
	NumDof() int

	IsActive() bool
	SetActive(active bool)

	Initialize() error
	WakeUp() error
	IsInitialized() bool
	IsAwake() bool

	Pose() linalg.RigidTransform

	IsGravityEnabled() bool
	SetGravityEnabled(enabled bool)
	Gravity() mgl64.Vec3
	SetGravity(gravity mgl64.Vec3)

	BeforeUpdate(dt float64)
	Update(dt float64)
	AfterUpdate(dt float64)

	// ComplianceMatrix maps a generalized force on the dof to their velocity
	// change over the last step. Nil for representations without dof.
	ComplianceMatrix() *mat.Dense
	// ApplyDofCorrection adds the velocity correction and integrates it
	// into the positions over dt.
	ApplyDofCorrection(dt float64, correction []float64)

	// CreateLocalization returns a point of the representation. It panics
	// when the location does not describe a point of this representation.
	CreateLocalization(location Location) Localization

	// Version changes every time the state of the representation changes.
	Version() uint64

	// SetLogger sets where the representation reports being deactivated.
	SetLogger(logger *slog.Logger)
}

type lifecycle int

const (
	uninitialized lifecycle = iota
	initialized
	awake
)

// representationBase carries the state shared by every representation.
type representationBase struct {
	name           string
	active         bool
	lifecycle      lifecycle
	gravityEnabled bool
	gravity        mgl64.Vec3
	version        uint64
	logger         *slog.Logger
}

func newRepresentationBase(name string) representationBase {
	return representationBase{
		name:           name,
		active:         true,
		gravityEnabled: true,
		gravity:        DefaultGravity,
		logger:         slog.Default(),
	}
}

func (r *representationBase) Name() string { return r.name }

func (r *representationBase) String() string { return r.name }

func (r *representationBase) IsActive() bool { return r.active }

func (r *representationBase) SetActive(active bool) { r.active = active }

func (r *representationBase) IsInitialized() bool { return r.lifecycle >= initialized }

func (r *representationBase) IsAwake() bool { return r.lifecycle == awake }

func (r *representationBase) IsGravityEnabled() bool { return r.gravityEnabled }

func (r *representationBase) SetGravityEnabled(enabled bool) { r.gravityEnabled = enabled }

func (r *representationBase) Gravity() mgl64.Vec3 { return r.gravity }

func (r *representationBase) SetGravity(gravity mgl64.Vec3) { r.gravity = gravity }

// activeGravity is the gravity acceleration applied this step.
func (r *representationBase) activeGravity() mgl64.Vec3 {
	if !r.gravityEnabled {
		return mgl64.Vec3{}
	}
	return r.gravity
}

func (r *representationBase) Version() uint64 { return r.version }

func (r *representationBase) SetLogger(logger *slog.Logger) { r.logger = logger }

// deactivate takes the representation out of the steps.
func (r *representationBase) deactivate(msg string, args ...any) {
	r.logger.Warn(msg, append([]any{"representation", r.name}, args...)...)
	r.active = false
}

func (r *representationBase) touch() { r.version++ }

// canUpdate reports whether the representation takes part in a step.
func (r *representationBase) canUpdate() bool {
	return r.active && r.lifecycle == awake
}

// initialize moves the base to the initialized stage.
func (r *representationBase) initialize() error {
	if r.lifecycle != uninitialized {
		return fmt.Errorf("%s: %w", r.name, ErrAlreadyInitialized)
	}
	r.lifecycle = initialized
	return nil
}

func (r *representationBase) WakeUp() error {
	switch r.lifecycle {
	case uninitialized:
		panic(fmt.Sprintf("surgsim: %s woken up before being initialized", r.name))
	case awake:
		return nil
	}
	r.lifecycle = awake
	r.touch()
	return nil
}

// assertSettable panics when the representation is already initialized.
func (r *representationBase) assertSettable(what string) {
	if r.lifecycle != uninitialized {
		panic(fmt.Sprintf("surgsim: %s of %s cannot change once initialized", what, r.name))
	}
}

func checkCorrection(name string, numDof int, correction []float64) {
	if len(correction) != numDof {
		panic(fmt.Sprintf("surgsim: %s got a correction of %d dof, has %d", name, len(correction), numDof))
	}
}
