package input

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// Filter transforms the input of a device before it is published.
type Filter interface {
	Filter(dt float64, data *DataGroup)
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(dt float64, data *DataGroup)

func (f FilterFunc) Filter(dt float64, data *DataGroup) { f(dt, data) }

// Listener is called with every input snapshot a device publishes.
type Listener func(device string, data DataGroup)

// Device is the meeting point of a device driver and the simulation. The
// driver calls PushInput at its own rate and reads Output, the simulation
// reads Input and calls SetOutput. Neither side ever blocks the other for
// longer than a snapshot copy.
type Device struct {
	Logger *slog.Logger

	name string

	mu               sync.Mutex
	positionScale    float64
	orientationScale float64
	filters          []Filter
	listeners        []Listener

	layout DataGroup
	input  SnapshotBuffer
	output SnapshotBuffer
}

// NewDevice returns a device publishing inputs laid out like layout.
func NewDevice(name string, layout DataGroup) *Device {
	return &Device{
		Logger:           slog.Default(),
		name:             name,
		positionScale:    1,
		orientationScale: 1,
		layout:           layout.Clone(),
	}
}

func (d *Device) Name() string { return d.name }

// NewInputData returns an empty DataGroup with the input layout of d.
func (d *Device) NewInputData() DataGroup {
	g := d.layout.Clone()
	g.Reset()
	return g
}

// SetPositionScale scales the translation of the published pose.
func (d *Device) SetPositionScale(scale float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positionScale = scale
}

func (d *Device) PositionScale() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionScale
}

// SetOrientationScale scales the rotation angle of the published pose.
func (d *Device) SetOrientationScale(scale float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orientationScale = scale
}

func (d *Device) OrientationScale() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orientationScale
}

// AddFilter appends a filter run on every input, in insertion order.
func (d *Device) AddFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = append(d.filters, f)
}

func (d *Device) AddListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// PushInput scales the pose of data, runs the filters and publishes the
// result. dt is the time since the previous push.
func (d *Device) PushInput(dt float64, data DataGroup) {
	if dt <= 0 {
		panic(fmt.Sprintf("input: %s pushed with dt %v", d.name, dt))
	}
	d.mu.Lock()
	positionScale, orientationScale := d.positionScale, d.orientationScale
	filters := d.filters
	listeners := d.listeners
	d.mu.Unlock()

	data = data.Clone()
	if pose, ok := data.Poses.Get(NamePose); ok {
		data.Poses.Set(NamePose, scalePose(pose, positionScale, orientationScale))
	}
	for _, f := range filters {
		f.Filter(dt, &data)
	}
	d.input.Publish(data)
	for _, l := range listeners {
		l(d.name, data)
	}
}

// Input returns the latest published input.
func (d *Device) Input() (DataGroup, bool) {
	return d.input.Latest()
}

// SetOutput publishes the output the driver sends to the hardware.
func (d *Device) SetOutput(data DataGroup) {
	d.output.Publish(data)
}

// Output returns the latest output, false before the first SetOutput.
func (d *Device) Output() (DataGroup, bool) {
	return d.output.Latest()
}

func scalePose(pose linalg.RigidTransform, positionScale, orientationScale float64) linalg.RigidTransform {
	if orientationScale != 1 {
		pose.Rotation = linalg.QuatFromRotationVector(linalg.RotationVector(pose.Rotation).Mul(orientationScale))
	}
	pose.Translation = pose.Translation.Mul(positionScale)
	return pose
}

// ForceOutput returns an output group with force and torque set.
func ForceOutput(force, torque mgl64.Vec3) DataGroup {
	g := NewHapticOutput()
	g.Vectors.Set(NameForce, force)
	g.Vectors.Set(NameTorque, torque)
	return g
}
