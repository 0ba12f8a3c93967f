package surgsim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/setanarut/surgsim/framework"
	"github.com/setanarut/surgsim/input"
)

// PhysicsManager owns the simulated scene and advances it one fixed step at a
// time. A step runs its computations strictly in order, the state returned
// by one being the input of the next.
//
// The manager is safe for concurrent use: a step holds the lock for its
// whole duration, so the scene is never changed in the middle of a step.
type PhysicsManager struct {
	Logger *slog.Logger

	config       Config
	mu           sync.Mutex
	state        *PhysicsManagerState
	computations []Computation
	bindings     []*VtcInputBinding
	drawer       Drawer
	thread       *framework.BasicThread
	steps        uint64
}

// NewPhysicsManager returns a manager running the default computations.
func NewPhysicsManager(config Config) (*PhysicsManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	m := &PhysicsManager{
		Logger: slog.Default(),
		config: config,
		state:  NewPhysicsManagerState(),
	}
	m.computations = DefaultComputations(config, m.Logger)
	return m, nil
}

// WithLogger sets the logger of the manager, of its default computations,
// of its representations and of its thread. It must not be called while the
// thread runs.
func (m *PhysicsManager) WithLogger(logger *slog.Logger) *PhysicsManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logger = logger
	for _, rep := range m.state.Representations {
		rep.SetLogger(logger)
	}
	if m.thread != nil {
		m.thread.Logger = logger
	}
	for _, c := range m.computations {
		switch c := c.(type) {
		case *ContactConstraintGeneration:
			c.Logger = logger
			c.Factory.Logger = logger
		case *SolveMlcp:
			c.Logger = logger
		}
	}
	return m
}

func (m *PhysicsManager) Config() Config { return m.config }

// SetComputations replaces the stages of a step.
func (m *PhysicsManager) SetComputations(computations ...Computation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computations = computations
}

func (m *PhysicsManager) Computations() []Computation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.computations)
}

// AddRepresentation initializes rep when needed, wakes it up and gives it
// the configured gravity and the manager's logger.
func (m *PhysicsManager) AddRepresentation(rep Representation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.state.Representations, rep) {
		return fmt.Errorf("%s already added: %w", rep.Name(), ErrInvalidParameters)
	}
	if !rep.IsInitialized() {
		if err := rep.Initialize(); err != nil {
			return err
		}
	}
	if err := rep.WakeUp(); err != nil {
		return err
	}
	rep.SetGravity(m.config.GravityVector())
	rep.SetLogger(m.Logger)
	m.state.Representations = append(m.state.Representations, rep)
	m.Logger.Debug("representation added", "name", rep.Name(), "type", rep.Type(), "dof", rep.NumDof())
	return nil
}

// RemoveRepresentation removes rep, with the collision representations and
// the constraints that use it.
func (m *PhysicsManager) RemoveRepresentation(rep Representation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Representations = slices.DeleteFunc(s.Representations, func(r Representation) bool { return r == rep })
	s.CollisionRepresentations = slices.DeleteFunc(s.CollisionRepresentations, func(c CollisionRepresentation) bool {
		return c.PhysicsRepresentation() == rep
	})
	for i := range s.Constraints {
		s.Constraints[i] = slices.DeleteFunc(s.Constraints[i], func(c *Constraint) bool {
			reps := c.Representations()
			return reps[0] == rep || reps[1] == rep
		})
	}
	delete(s.RepresentationIndex, rep)
}

func (m *PhysicsManager) AddCollisionRepresentation(rep CollisionRepresentation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.state.CollisionRepresentations, rep) {
		return fmt.Errorf("collision %s already added: %w", rep.Name(), ErrInvalidParameters)
	}
	m.state.CollisionRepresentations = append(m.state.CollisionRepresentations, rep)
	return nil
}

func (m *PhysicsManager) RemoveCollisionRepresentation(rep CollisionRepresentation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CollisionRepresentations = slices.DeleteFunc(m.state.CollisionRepresentations,
		func(c CollisionRepresentation) bool { return c == rep })
}

// AddConstraint adds a user constraint. It is solved every step in which both
// of its representations are updating.
func (m *PhysicsManager) AddConstraint(constraint *Constraint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group := &m.state.Constraints[ConstraintGroupUser]
	if slices.Contains(*group, constraint) {
		return fmt.Errorf("constraint already added: %w", ErrInvalidParameters)
	}
	*group = append(*group, constraint)
	return nil
}

func (m *PhysicsManager) RemoveConstraint(constraint *Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group := &m.state.Constraints[ConstraintGroupUser]
	*group = slices.DeleteFunc(*group, func(c *Constraint) bool { return c == constraint })
}

// AddInputBinding couples a device to a VTC representation around each step.
func (m *PhysicsManager) AddInputBinding(binding *VtcInputBinding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = append(m.bindings, binding)
}

// Step advances the scene by dt.
func (m *PhysicsManager) Step(dt float64) {
	if dt <= 0 {
		panic(fmt.Sprintf("surgsim: physics step of %v", dt))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.bindings {
		b.BeforeStep()
	}
	state := m.state
	for _, c := range m.computations {
		state = c.Update(dt, state)
	}
	m.state = state
	for _, b := range m.bindings {
		b.AfterStep()
	}
	m.steps++
	if m.drawer != nil {
		drawState(m.state, m.drawer)
	}
}

// Steps returns the number of steps run so far.
func (m *PhysicsManager) Steps() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}

// State returns a copy of the state left by the last step.
func (m *PhysicsManager) State() *PhysicsManagerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// SetDrawer sets a drawer called at the end of every step, nil disables it.
func (m *PhysicsManager) SetDrawer(drawer Drawer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawer = drawer
}

// DrawState draws the current state with drawer.
func (m *PhysicsManager) DrawState(drawer Drawer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drawState(m.state, drawer)
}

// Thread returns the thread stepping the manager at the configured rate. It
// can be added to a framework.Runtime or started with Run.
func (m *PhysicsManager) Thread() *framework.BasicThread {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.thread == nil {
		m.thread = framework.NewBasicThread("physics", physicsThread{m})
		m.thread.Logger = m.Logger
		m.thread.SetRate(m.config.Rate)
	}
	return m.thread
}

// Run steps the manager until ctx is cancelled or the thread is stopped.
func (m *PhysicsManager) Run(ctx context.Context) error {
	return m.Thread().Start(ctx, nil)
}

// physicsThread is the delegate of the manager's thread.
type physicsThread struct {
	manager *PhysicsManager
}

func (t physicsThread) Initialize() bool {
	m := t.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rep := range m.state.Representations {
		if !rep.IsInitialized() {
			m.Logger.Error("representation not initialized", "name", rep.Name())
			return false
		}
	}
	return true
}

func (t physicsThread) Startup() bool { return true }

func (t physicsThread) Update(dt float64) bool {
	t.manager.Step(dt)
	return true
}

// VtcInputBinding drives a VTC representation with the pose of a device and
// sends the coupling force back to the device.
type VtcInputBinding struct {
	Device         *input.Device
	Representation *VtcRigidRepresentation
}

func NewVtcInputBinding(device *input.Device, rep *VtcRigidRepresentation) *VtcInputBinding {
	if device == nil || rep == nil {
		panic("surgsim: input binding without device or representation")
	}
	return &VtcInputBinding{Device: device, Representation: rep}
}

// BeforeStep sets the target of the representation to the latest pose of the
// device. Nothing changes until the device published a pose.
func (b *VtcInputBinding) BeforeStep() {
	data, ok := b.Device.Input()
	if !ok {
		return
	}
	pose, ok := data.Poses.Get(input.NamePose)
	if !ok {
		return
	}
	linear, _ := data.Vectors.Get(input.NameLinearVelocity)
	angular, _ := data.Vectors.Get(input.NameAngularVelocity)
	b.Representation.SetTarget(pose, linear, angular)
}

// AfterStep publishes the reaction of the coupling, the force the device has
// to render.
func (b *VtcInputBinding) AfterStep() {
	if _, ok := b.Representation.Target(); !ok {
		return
	}
	force := b.Representation.CouplingForce().Mul(-1)
	torque := b.Representation.CouplingTorque().Mul(-1)
	b.Device.SetOutput(input.ForceOutput(force, torque))
}
