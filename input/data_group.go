package input

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/linalg"
)

// Common entry names.
const (
	NamePose                = "pose"
	NameForce               = "force"
	NameTorque              = "torque"
	NameLinearVelocity      = "linearVelocity"
	NameAngularVelocity     = "angularVelocity"
	NameButton1             = "button1"
	NameButton2             = "button2"
	NameButton3             = "button3"
	NameButton4             = "button4"
	NameIsHomed             = "isHomed"
	NameGravityCompensation = "gravityCompensation"
)

// NamedData is a fixed set of named values of one type. The set of names is
// decided when the group is built, values may be unset.
type NamedData[T any] struct {
	names  []string
	index  map[string]int
	values []T
	valid  []bool
}

func newNamedData[T any](names []string) NamedData[T] {
	d := NamedData[T]{
		names:  slices.Clone(names),
		index:  make(map[string]int, len(names)),
		values: make([]T, len(names)),
		valid:  make([]bool, len(names)),
	}
	for i, name := range names {
		if _, ok := d.index[name]; ok {
			panic(fmt.Sprintf("input: duplicate entry %q", name))
		}
		d.index[name] = i
	}
	return d
}

// Get returns the value of name and whether it is set.
func (d *NamedData[T]) Get(name string) (T, bool) {
	i, ok := d.index[name]
	if !ok || !d.valid[i] {
		var zero T
		return zero, false
	}
	return d.values[i], true
}

// Set stores value under name. It returns false when name is not an entry.
func (d *NamedData[T]) Set(name string, value T) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.values[i] = value
	d.valid[i] = true
	return true
}

// Reset unsets name.
func (d *NamedData[T]) Reset(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	var zero T
	d.values[i] = zero
	d.valid[i] = false
	return true
}

// ResetAll unsets every entry.
func (d *NamedData[T]) ResetAll() {
	var zero T
	for i := range d.values {
		d.values[i] = zero
		d.valid[i] = false
	}
}

func (d *NamedData[T]) HasEntry(name string) bool {
	_, ok := d.index[name]
	return ok
}

// HasData reports whether name is an entry holding a value.
func (d *NamedData[T]) HasData(name string) bool {
	i, ok := d.index[name]
	return ok && d.valid[i]
}

func (d *NamedData[T]) Names() []string { return d.names }

func (d *NamedData[T]) Len() int { return len(d.names) }

func (d NamedData[T]) clone() NamedData[T] {
	return NamedData[T]{
		names:  d.names,
		index:  d.index,
		values: slices.Clone(d.values),
		valid:  slices.Clone(d.valid),
	}
}

// DataGroup carries the values exchanged with a device, one NamedData per
// value type. Groups built by the same builder share their layout.
type DataGroup struct {
	Poses    NamedData[linalg.RigidTransform]
	Vectors  NamedData[mgl64.Vec3]
	Scalars  NamedData[float64]
	Integers NamedData[int]
	Booleans NamedData[bool]
	Strings  NamedData[string]
}

// Clone returns a copy of g whose values can be changed independently.
func (g DataGroup) Clone() DataGroup {
	return DataGroup{
		Poses:    g.Poses.clone(),
		Vectors:  g.Vectors.clone(),
		Scalars:  g.Scalars.clone(),
		Integers: g.Integers.clone(),
		Booleans: g.Booleans.clone(),
		Strings:  g.Strings.clone(),
	}
}

// Reset unsets every value of g.
func (g *DataGroup) Reset() {
	g.Poses.ResetAll()
	g.Vectors.ResetAll()
	g.Scalars.ResetAll()
	g.Integers.ResetAll()
	g.Booleans.ResetAll()
	g.Strings.ResetAll()
}

func (g *DataGroup) IsEmpty() bool {
	return g.Poses.Len()+g.Vectors.Len()+g.Scalars.Len()+g.Integers.Len()+g.Booleans.Len()+g.Strings.Len() == 0
}

// DataGroupBuilder collects entry names before building a DataGroup.
type DataGroupBuilder struct {
	poses, vectors, scalars, integers, booleans, strings []string
}

func NewDataGroupBuilder() *DataGroupBuilder {
	return &DataGroupBuilder{}
}

func (b *DataGroupBuilder) AddPose(name string) *DataGroupBuilder {
	b.poses = append(b.poses, name)
	return b
}

func (b *DataGroupBuilder) AddVector(name string) *DataGroupBuilder {
	b.vectors = append(b.vectors, name)
	return b
}

func (b *DataGroupBuilder) AddScalar(name string) *DataGroupBuilder {
	b.scalars = append(b.scalars, name)
	return b
}

func (b *DataGroupBuilder) AddInteger(name string) *DataGroupBuilder {
	b.integers = append(b.integers, name)
	return b
}

func (b *DataGroupBuilder) AddBoolean(name string) *DataGroupBuilder {
	b.booleans = append(b.booleans, name)
	return b
}

func (b *DataGroupBuilder) AddString(name string) *DataGroupBuilder {
	b.strings = append(b.strings, name)
	return b
}

// Build returns an empty DataGroup with the collected entries. It panics on
// duplicate names within one value type.
func (b *DataGroupBuilder) Build() DataGroup {
	return DataGroup{
		Poses:    newNamedData[linalg.RigidTransform](b.poses),
		Vectors:  newNamedData[mgl64.Vec3](b.vectors),
		Scalars:  newNamedData[float64](b.scalars),
		Integers: newNamedData[int](b.integers),
		Booleans: newNamedData[bool](b.booleans),
		Strings:  newNamedData[string](b.strings),
	}
}

// NewHapticInput returns the layout a 6 dof haptic device publishes.
func NewHapticInput() DataGroup {
	return NewDataGroupBuilder().
		AddPose(NamePose).
		AddVector(NameLinearVelocity).
		AddVector(NameAngularVelocity).
		AddBoolean(NameButton1).
		AddBoolean(NameButton2).
		AddBoolean(NameButton3).
		AddBoolean(NameButton4).
		AddBoolean(NameIsHomed).
		Build()
}

// NewHapticOutput returns the layout a 6 dof haptic device consumes.
func NewHapticOutput() DataGroup {
	return NewDataGroupBuilder().
		AddVector(NameForce).
		AddVector(NameTorque).
		AddBoolean(NameGravityCompensation).
		Build()
}
