package input_test

import (
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim/input"
	"github.com/setanarut/surgsim/linalg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataGroup(t *testing.T) {
	g := input.NewDataGroupBuilder().
		AddPose(input.NamePose).
		AddVector(input.NameForce).
		AddScalar("ratio").
		AddInteger("count").
		AddBoolean(input.NameButton1).
		AddString("label").
		Build()

	assert.True(t, g.Poses.HasEntry(input.NamePose))
	assert.False(t, g.Poses.HasData(input.NamePose))
	_, ok := g.Vectors.Get(input.NameForce)
	assert.False(t, ok)

	assert.True(t, g.Vectors.Set(input.NameForce, mgl64.Vec3{1, 2, 3}))
	assert.False(t, g.Vectors.Set(input.NameTorque, mgl64.Vec3{1, 2, 3}))
	assert.True(t, g.Scalars.Set("ratio", 0.5))
	assert.True(t, g.Integers.Set("count", 4))
	assert.True(t, g.Booleans.Set(input.NameButton1, true))
	assert.True(t, g.Strings.Set("label", "tool"))

	force, ok := g.Vectors.Get(input.NameForce)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, force)

	clone := g.Clone()
	clone.Scalars.Set("ratio", 2)
	ratio, _ := g.Scalars.Get("ratio")
	assert.Equal(t, 0.5, ratio)

	assert.True(t, g.Vectors.Reset(input.NameForce))
	assert.False(t, g.Vectors.Reset(input.NameTorque))
	assert.False(t, g.Vectors.HasData(input.NameForce))

	g.Reset()
	_, ok = g.Strings.Get("label")
	assert.False(t, ok)
	assert.Equal(t, []string{"label"}, g.Strings.Names())
	label, ok := clone.Strings.Get("label")
	assert.True(t, ok)
	assert.Equal(t, "tool", label)

	assert.Panics(t, func() { input.NewDataGroupBuilder().AddScalar("a").AddScalar("a").Build() })
	empty := input.NewDataGroupBuilder().Build()
	assert.True(t, empty.IsEmpty())
}

func TestSnapshotBuffer(t *testing.T) {
	var buffer input.SnapshotBuffer
	_, ok := buffer.Latest()
	assert.False(t, ok)

	g := input.NewHapticOutput()
	g.Vectors.Set(input.NameForce, mgl64.Vec3{1, 0, 0})
	buffer.Publish(g)
	g.Vectors.Set(input.NameForce, mgl64.Vec3{2, 0, 0})

	latest, ok := buffer.Latest()
	require.True(t, ok)
	force, _ := latest.Vectors.Get(input.NameForce)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, force)
	assert.Equal(t, uint64(1), buffer.Count())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := input.NewHapticOutput()
			s.Vectors.Set(input.NameForce, mgl64.Vec3{float64(i), 0, 0})
			buffer.Publish(s)
		}()
		go func() {
			defer wg.Done()
			latest, ok := buffer.Latest()
			if assert.True(t, ok) {
				assert.True(t, latest.Vectors.HasData(input.NameForce))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(9), buffer.Count())
}

func TestDevice(t *testing.T) {
	device := input.NewDevice("falcon", input.NewHapticInput())
	_, ok := device.Input()
	assert.False(t, ok)
	_, ok = device.Output()
	assert.False(t, ok)

	device.SetPositionScale(2)
	device.SetOrientationScale(0.5)
	assert.Equal(t, 2.0, device.PositionScale())
	assert.Equal(t, 0.5, device.OrientationScale())

	var heard []string
	device.AddListener(func(name string, data input.DataGroup) {
		heard = append(heard, name)
		assert.True(t, data.Poses.HasData(input.NamePose))
	})

	data := device.NewInputData()
	data.Poses.Set(input.NamePose, linalg.NewRigidTransform(
		mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
		mgl64.Vec3{1, 2, 3}))
	data.Booleans.Set(input.NameButton1, true)
	device.PushInput(0.001, data)

	got, ok := device.Input()
	require.True(t, ok)
	pose, _ := got.Poses.Get(input.NamePose)
	expected := linalg.NewRigidTransform(mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{2, 4, 6})
	assert.True(t, pose.ApproxEqual(expected, 1e-12), "%v", pose)
	button, _ := got.Booleans.Get(input.NameButton1)
	assert.True(t, button)
	assert.Equal(t, []string{"falcon"}, heard)

	original, _ := data.Poses.Get(input.NamePose)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, original.Translation)

	device.SetOutput(input.ForceOutput(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}))
	out, ok := device.Output()
	require.True(t, ok)
	torque, _ := out.Vectors.Get(input.NameTorque)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, torque)

	assert.Panics(t, func() { device.PushInput(0, data) })
}

func TestPoseIntegrator(t *testing.T) {
	integrator := input.NewPoseIntegrator()
	device := input.NewDevice("integrated", input.NewHapticInput())
	device.AddFilter(integrator)

	step := linalg.NewRigidTransform(mgl64.QuatRotate(0.1, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0.01, 0, 0})
	for range 10 {
		data := device.NewInputData()
		data.Poses.Set(input.NamePose, step)
		device.PushInput(0.01, data)
	}

	got, ok := device.Input()
	require.True(t, ok)
	pose, _ := got.Poses.Get(input.NamePose)
	expected := linalg.NewRigidTransform(mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0.1, 0, 0})
	assert.True(t, pose.ApproxEqual(expected, 1e-9), "%v", pose)
	assert.True(t, integrator.Pose().ApproxEqual(expected, 1e-9))

	linear, _ := got.Vectors.Get(input.NameLinearVelocity)
	angular, _ := got.Vectors.Get(input.NameAngularVelocity)
	assert.True(t, linear.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9))
	assert.True(t, angular.ApproxEqualThreshold(mgl64.Vec3{0, 10, 0}, 1e-9))

	integrator.Reset(linalg.NewRigidTransformIdentity())
	after := integrator.Integrate(step)
	assert.True(t, after.ApproxEqual(step, 1e-12))
}

func TestDecompositionMatrix(t *testing.T) {
	tests := []struct {
		name        string
		pitch       float64
		rollZeroed  bool
		yawZeroed   bool
		exactInvert bool
	}{
		{"home", 0, false, false, true},
		{"medium determinant", math.Acos(0.7), false, false, true},
		{"blended", math.Acos(0.5), false, false, false},
		{"degenerate", math.Acos(0.2), true, true, false},
		{"singular", math.Pi / 2, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis := input.JointBasis(mgl64.Vec3{0.3, 0.2, tt.pitch})
			assert.InDelta(t, math.Abs(math.Cos(tt.pitch)), math.Abs(basis.Det()), 1e-12)

			decomposition := input.DecompositionMatrix(basis)
			if tt.exactInvert {
				assert.True(t, decomposition.Mul3(basis).ApproxEqualThreshold(mgl64.Ident3(), 1e-9))
			}
			assert.Equal(t, tt.rollZeroed, decomposition.Row(0).Len() == 0)
			assert.Equal(t, tt.yawZeroed, decomposition.Row(1).Len() == 0)
			assert.NotZero(t, decomposition.Row(2).Len())
		})
	}
}

func TestDecompositionBlend(t *testing.T) {
	basis := input.JointBasis(mgl64.Vec3{0, 0, math.Acos(0.5)})
	decomposition := input.DecompositionMatrix(basis)

	axisY, axisZ := basis.Col(1), basis.Col(2)
	fake := mgl64.Mat3FromCols(axisY.Cross(axisZ).Normalize(), axisY, axisZ).Inv()
	fake.SetRow(0, mgl64.Vec3{})
	expected := basis.Inv().Mul(0.5).Add(fake.Mul(0.5))
	assert.True(t, decomposition.ApproxEqualThreshold(expected, 1e-9))
}

func TestDecomposeTorque(t *testing.T) {
	one := mgl64.Vec3{1, 1, 1}

	counts := input.DecomposeTorque(mgl64.Vec3{}, mgl64.Vec3{0.0088, 0, 0}, one, false)
	assert.InDelta(t, 1000, counts[0], 1e-9)
	assert.InDelta(t, 0, counts[1], 1e-9)

	counts = input.DecomposeTorque(mgl64.Vec3{}, mgl64.Vec3{0.0088, 0, 0}, one, true)
	assert.InDelta(t, -1000, counts[0], 1e-9)

	counts = input.DecomposeTorque(mgl64.Vec3{}, mgl64.Vec3{0, 0.02398, -1}, one, false)
	assert.InDelta(t, 1000, counts[1], 1e-9)
	assert.Equal(t, -float64(input.MaxTorqueCounts), counts[2])

	counts = input.DecomposeTorque(mgl64.Vec3{}, mgl64.Vec3{0, 0.02398, 0}, mgl64.Vec3{1, 0.5, 1}, false)
	assert.InDelta(t, 500, counts[1], 1e-9)

	orientation := input.GripOrientation(mgl64.Vec3{0, 0, math.Pi / 2})
	assert.True(t, orientation.Mul3x1(mgl64.Vec3{1, 0, 0}).ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-12))
}
