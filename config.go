// Package solver implements a real-time unified Position-Based Dynamics
// particle solver: fluids, rigid shape-matched clusters, and granular
// solids share one constraint-projection pipeline over a uniform spatial
// hash grid.
package solver

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FrictionConfig holds the global static/dynamic friction coefficients used
// by plane collision (§4.E) and particle contacts (§4.F).
type FrictionConfig struct {
	Static  float32 `yaml:"static"`
	Dynamic float32 `yaml:"dynamic"`
}

// SCorrConfig holds the anti-clustering sCorr parameters (§4.G).
type SCorrConfig struct {
	K float32 `yaml:"k"`
	N float32 `yaml:"n"`
}

// Config holds every scalar named in spec.md §6, plus the ambient scalars
// (worker pool size, iteration counts) a concrete implementation needs but
// the distilled spec leaves as "configuration with defaults shown".
type Config struct {
	Friction                      FrictionConfig `yaml:"friction"`
	MassScalingConstant           float32        `yaml:"mass_scaling_constant"`
	ParticleSleepingEpsilon       float32        `yaml:"particle_sleeping_epsilon"`
	NumMaxParticlePerCell         int            `yaml:"num_max_particle_per_cell"`
	NumMaxParticlePerRigidBody    int            `yaml:"num_max_particle_per_rigid_body"`
	RelaxationEpsilon             float32        `yaml:"relaxation_epsilon"`
	SCorr                         SCorrConfig    `yaml:"s_corr"`
	VorticityScale                float32        `yaml:"vorticity_scale"`
	SurfaceTension                float32        `yaml:"surface_tension"`
	XSPHC                         float32        `yaml:"xsph_c"`
	UseAkinciCohesionTension      bool           `yaml:"use_akinci_cohesion_tension"`
	WorkerCount                   int            `yaml:"worker_count"`
	RotationExtractionMaxIterations int          `yaml:"rotation_extraction_max_iterations"`
	StabilizationPasses           int            `yaml:"stabilization_passes"`
	OuterProjectionIterations     int            `yaml:"outer_projection_iterations"`
	InnerProjectionPasses         int            `yaml:"inner_projection_passes"`
	MaxArenaBytes                 int64          `yaml:"max_arena_bytes"`
}

// DefaultConfig returns the configuration baked into defaults.yaml.
func DefaultConfig() Config {
	cfg, err := parseConfig(defaultsYAML)
	if err != nil {
		// defaults.yaml is embedded at build time; a parse failure here is a
		// build-time programming error, not a runtime condition callers
		// should handle.
		panic(fmt.Sprintf("solver: embedded defaults.yaml is invalid: %v", err))
	}
	return cfg
}

// LoadConfig reads a YAML configuration file, using DefaultConfig for any
// field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("solver: reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("solver: parsing config %q: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
