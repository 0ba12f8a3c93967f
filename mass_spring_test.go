package surgsim_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim"
	"github.com/setanarut/surgsim/ode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRope(t *testing.T, scheme ode.IntegrationScheme) *surgsim.MassSpringRepresentation {
	t.Helper()
	rep := surgsim.NewMassSpringRepresentation("suture")
	rep.SetIntegrationScheme(scheme)
	rep.Init1D([2]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, 5, []int{0}, 0.5, 100, 1)
	return rep
}

func TestMassSpringChain(t *testing.T) {
	rep := newRope(t, ode.ImplicitEulerScheme)
	assert.Equal(t, 5, rep.NumNodes())
	assert.Equal(t, 15, rep.NumDof())
	assert.Equal(t, 4, rep.NumSprings())
	assert.InDelta(t, 0.5, rep.TotalMass(), 1e-12)
	assert.InDelta(t, 0.1, rep.Mass(2), 1e-12)
	assert.InDelta(t, 0.25, rep.Spring(0).RestLength, 1e-12)
	assert.Equal(t, [2]int{3, 4}, rep.Spring(3).NodeIDs)
	assertVec3(t, mgl64.Vec3{0.75, 0, 0}, rep.InitialState().Position(3), 1e-12)
	assert.Equal(t, surgsim.RepresentationTypeMassSpring, rep.Type())

	assert.Panics(t, func() { rep.Init1D([2]mgl64.Vec3{}, 1, nil, 1, 1, 1) })
}

func TestMassSpringHangs(t *testing.T) {
	for _, scheme := range []ode.IntegrationScheme{ode.ExplicitEulerScheme, ode.ImplicitEulerScheme, ode.LinearImplicitEulerScheme} {
		t.Run(scheme.String(), func(t *testing.T) {
			rep := newRope(t, scheme)
			require.NoError(t, rep.Initialize())
			require.NoError(t, rep.WakeUp())

			const dt = 1e-3
			for range 300 {
				rep.BeforeUpdate(dt)
				rep.Update(dt)
				rep.AfterUpdate(dt)
			}
			require.True(t, rep.IsActive())
			assertVec3(t, mgl64.Vec3{}, rep.CurrentState().Position(0), 0)
			tip := rep.CurrentState().Position(4)
			assert.Less(t, tip.Y(), 0.0)
			assert.Less(t, tip.Y(), rep.CurrentState().Position(1).Y())
		})
	}
}

func TestMassSpringForces(t *testing.T) {
	state := ode.NewState(3, 2)
	state.Positions()[3] = 2
	rep := surgsim.NewMassSpringRepresentation("pair")
	rep.SetInitialState(state)
	rep.SetMass(0, 1)
	rep.SetMass(1, 1)
	rep.AddSpring(surgsim.LinearSpring{NodeIDs: [2]int{0, 1}, Stiffness: 10, Damping: 0, RestLength: 1})
	rep.SetGravityEnabled(false)
	require.NoError(t, rep.Initialize())

	// stretched by 1, the spring pulls the nodes together
	f := rep.ComputeF(rep.CurrentState())
	assert.InDeltaSlice(t, []float64{10, 0, 0, -10, 0, 0}, f, 1e-12)

	k := rep.ComputeK(rep.CurrentState())
	assert.InDelta(t, 10, k.At(0, 0), 1e-12)
	assert.InDelta(t, -10, k.At(0, 3), 1e-12)
	m := rep.ComputeM(rep.CurrentState())
	assert.InDelta(t, 1, m.At(4, 4), 0)

	rep.AddExternalForce(1, mgl64.Vec3{0, 3, 0})
	f = rep.ComputeF(rep.CurrentState())
	assert.InDelta(t, 3, f[4], 1e-12)
	rep.AfterUpdate(0)
	assert.Equal(t, make([]float64, 6), rep.ExternalForce())
}

func TestMassSpringInitializeErrors(t *testing.T) {
	assert.ErrorIs(t, surgsim.NewMassSpringRepresentation("empty").Initialize(), surgsim.ErrInvalidParameters)

	massless := surgsim.NewMassSpringRepresentation("massless")
	massless.SetInitialState(ode.NewState(3, 2))
	assert.ErrorIs(t, massless.Initialize(), surgsim.ErrInvalidParameters)

	dangling := surgsim.NewMassSpringRepresentation("dangling")
	dangling.SetInitialState(ode.NewState(3, 1))
	dangling.SetMass(0, 1)
	dangling.AddSpring(surgsim.LinearSpring{NodeIDs: [2]int{0, 7}, Stiffness: 1})
	assert.ErrorIs(t, dangling.Initialize(), surgsim.ErrInvalidParameters)

	rope := newRope(t, ode.LinearImplicitEulerScheme)
	require.NoError(t, rope.Initialize())
	assert.ErrorIs(t, rope.Initialize(), surgsim.ErrAlreadyInitialized)
}

func TestMassSpringLocalization(t *testing.T) {
	rep := newRope(t, ode.LinearImplicitEulerScheme)
	require.NoError(t, rep.Initialize())

	loc := rep.CreateLocalization(surgsim.NewGlobalLocation(mgl64.Vec3{0.6, 0.2, 0}))
	require.IsType(t, &surgsim.MassSpringLocalization{}, loc)
	assert.Equal(t, 2, loc.(*surgsim.MassSpringLocalization).Node())
	assertVec3(t, mgl64.Vec3{0.5, 0, 0}, loc.Position(), 1e-12)

	byIndex := rep.CreateLocalization(surgsim.Location{MeshCoordinate: surgsim.Some(surgsim.IndexedCoordinate{Index: 4})})
	assertVec3(t, mgl64.Vec3{1, 0, 0}, byIndex.Position(), 1e-12)

	assert.Panics(t, func() {
		rep.CreateLocalization(surgsim.Location{MeshCoordinate: surgsim.Some(surgsim.IndexedCoordinate{Index: 5})})
	})
	assert.Panics(t, func() { rep.CreateLocalization(surgsim.Location{}) })

	// a correction on a fixed node is dropped
	require.NoError(t, rep.WakeUp())
	correction := make([]float64, rep.NumDof())
	correction[1], correction[4*3+1] = 1, 1
	rep.ApplyDofCorrection(0.5, correction)
	assertVec3(t, mgl64.Vec3{}, rep.CurrentState().Position(0), 0)
	assertVec3(t, mgl64.Vec3{1, 0.5, 0}, byIndex.Position(), 1e-12)
	assertVec3(t, mgl64.Vec3{0, 1, 0}, byIndex.Velocity(), 1e-12)
}
