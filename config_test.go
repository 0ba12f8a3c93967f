package surgsim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/surgsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := surgsim.DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, 1000.0, config.Rate)
	assert.Equal(t, surgsim.DefaultGravity, config.GravityVector())
	assert.Equal(t, 30, config.MlcpMaxIterations)
	assert.Equal(t, surgsim.BroadPhaseTree, config.BroadPhase)
}

func TestParseConfig(t *testing.T) {
	config, err := surgsim.ParseConfig([]byte(`
rate: 500
gravity: [0, 0, -9.81]
friction_coefficient: 0.3
broad_phase: brute
`))
	require.NoError(t, err)
	assert.Equal(t, 500.0, config.Rate)
	assert.Equal(t, mgl64.Vec3{0, 0, -9.81}, config.GravityVector())
	assert.Equal(t, 0.3, config.FrictionCoefficient)
	assert.Equal(t, surgsim.BroadPhaseBruteForce, config.BroadPhase)
	// unset keys keep their default
	assert.Equal(t, 1e-8, config.MlcpEpsilon)
}

func TestParseInvalidConfig(t *testing.T) {
	for name, document := range map[string]string{
		"rate":        "rate: 0",
		"iterations":  "mlcp_max_iterations: -1",
		"epsilon":     "mlcp_epsilon: 0",
		"tolerance":   "contact_tolerance: -0.1",
		"friction":    "friction_coefficient: -1",
		"broad phase": "broad_phase: octree",
		"gravity":     "gravity: [0, .nan, 0]",
		"syntax":      "rate: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := surgsim.ParseConfig([]byte(document))
			assert.ErrorIs(t, err, surgsim.ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate: 250\ncontact_tolerance: 0.001\n"), 0o600))

	config, err := surgsim.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250.0, config.Rate)
	assert.Equal(t, 0.001, config.ContactTolerance)

	_, err = surgsim.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
