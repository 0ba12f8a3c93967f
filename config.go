package surgsim

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("surgsim: invalid config")

// Broad phase choices of Config.BroadPhase.
const (
	BroadPhaseTree       = "tree"
	BroadPhaseBruteForce = "brute"
)

// Config holds the parameters of a PhysicsManager.
type Config struct {
	// Rate is the frequency of the physics thread in Hz.
	Rate    float64    `yaml:"rate"`
	Gravity [3]float64 `yaml:"gravity"`

	MlcpMaxIterations int     `yaml:"mlcp_max_iterations"`
	MlcpEpsilon       float64 `yaml:"mlcp_epsilon"`

	// ContactTolerance is the penetration contacts tolerate.
	ContactTolerance float64 `yaml:"contact_tolerance"`
	// FrictionCoefficient makes contacts frictional when positive.
	FrictionCoefficient float64 `yaml:"friction_coefficient"`

	BroadPhase string `yaml:"broad_phase"`
}

func DefaultConfig() Config {
	return Config{
		Rate:              1000,
		Gravity:           [3]float64(DefaultGravity),
		MlcpMaxIterations: 30,
		MlcpEpsilon:       1e-8,
		BroadPhase:        BroadPhaseTree,
	}
}

// GravityVector returns Gravity as a vector.
func (c Config) GravityVector() mgl64.Vec3 { return mgl64.Vec3(c.Gravity) }

// Validate returns an error wrapping ErrInvalidConfig for the first invalid field.
func (c Config) Validate() error {
	switch {
	case !(c.Rate > 0) || math.IsInf(c.Rate, 0):
		return fmt.Errorf("%w: rate %v", ErrInvalidConfig, c.Rate)
	case c.MlcpMaxIterations <= 0:
		return fmt.Errorf("%w: mlcp_max_iterations %d", ErrInvalidConfig, c.MlcpMaxIterations)
	case !(c.MlcpEpsilon > 0):
		return fmt.Errorf("%w: mlcp_epsilon %v", ErrInvalidConfig, c.MlcpEpsilon)
	case c.ContactTolerance < 0:
		return fmt.Errorf("%w: contact_tolerance %v", ErrInvalidConfig, c.ContactTolerance)
	case c.FrictionCoefficient < 0:
		return fmt.Errorf("%w: friction_coefficient %v", ErrInvalidConfig, c.FrictionCoefficient)
	case c.BroadPhase != BroadPhaseTree && c.BroadPhase != BroadPhaseBruteForce:
		return fmt.Errorf("%w: broad_phase %q", ErrInvalidConfig, c.BroadPhase)
	}
	for _, g := range c.Gravity {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
		}
	}
	return nil
}

// ParseConfig reads a yaml document over DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig parses the yaml file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}
