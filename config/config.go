// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Boundary modes for the world edge.
const (
	BoundaryTorus   = "torus"
	BoundaryBounded = "bounded"
)

// Controller kinds.
const (
	ControllerFNN = "fnn"
	ControllerRNN = "rnn"
)

// Network topology constants. The controller and the genome weight-gene
// mapping both depend on these; changing them changes the gene layout.
const (
	NumSectors = 5
	BaseInputs = 24 // 5 sectors x 3 signals + 9 internal scalars
	HiddenSize = 8
	OutputSize = 6
)

// Config holds all simulation configuration parameters.
// It is immutable for the duration of a run: the simulation receives it at
// construction and never reads it from a global.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Energy       EnergyConfig       `yaml:"energy"`
	Hydration    HydrationConfig    `yaml:"hydration"`
	Food         FoodConfig         `yaml:"food"`
	Combat       CombatConfig       `yaml:"combat"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Aging        AgingConfig        `yaml:"aging"`
	Disease      DiseaseConfig      `yaml:"disease"`
	Events       EventsConfig       `yaml:"events"`
	Neural       NeuralConfig       `yaml:"neural"`
	Sensors      SensorsConfig      `yaml:"sensors"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world dimensions and topology.
type WorldConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Boundary     string  `yaml:"boundary"`       // "torus" or "bounded"
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial index cell size
	DT           float64 `yaml:"dt"`             // seconds per tick
	WaterSources int     `yaml:"water_sources"`
	WaterRadius  float64 `yaml:"water_radius"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
	Max     int `yaml:"max"`
	Min     int `yaml:"min"` // respawn when below
}

// EnergyConfig holds metabolic energy parameters.
type EnergyConfig struct {
	Max          float64 `yaml:"max"`
	Initial      float64 `yaml:"initial"`
	BaseDrain    float64 `yaml:"base_drain"`    // per second for existing
	MoveCost     float64 `yaml:"move_cost"`     // per unit speed per second
	SizeCost     float64 `yaml:"size_cost"`     // per size^size_exponent per second
	SizeExponent float64 `yaml:"size_exponent"` // superlinear when > 1
}

// HydrationConfig holds water balance parameters.
type HydrationConfig struct {
	Max        float64 `yaml:"max"`
	Initial    float64 `yaml:"initial"`
	Drain      float64 `yaml:"drain"`       // per second
	RefillRate float64 `yaml:"refill_rate"` // per second when near water
	DrinkRange float64 `yaml:"drink_range"` // distance beyond water edge that still refills
}

// FoodConfig holds food spawning and feeding parameters.
type FoodConfig struct {
	EnergyValue  float64 `yaml:"energy_value"`
	LifetimeSec  float64 `yaml:"lifetime_sec"`
	SpawnPerSec  float64 `yaml:"spawn_per_sec"`
	InitialCount int     `yaml:"initial_count"`
	MaxCount     int     `yaml:"max_count"`
	Clusters     int     `yaml:"clusters"`
	ClusterSigma float64 `yaml:"cluster_sigma"`
	DriftSpeed   float64 `yaml:"drift_speed"` // cluster drift in world units per second
	FeedRadius   float64 `yaml:"feed_radius"`
	FeedRate     float64 `yaml:"feed_rate"` // energy per second while in range
}

// CombatConfig holds attack resolution parameters.
type CombatConfig struct {
	AttackDistance float64 `yaml:"attack_distance"`
	BaseDamage     float64 `yaml:"base_damage"`
	KillBonus      float64 `yaml:"kill_bonus"`    // energy gained on lethal hit
	DamageJitter   float64 `yaml:"damage_jitter"` // +/- fraction of damage
}

// ReproductionConfig holds mating parameters.
type ReproductionConfig struct {
	MaturityAge    float64 `yaml:"maturity_age"`    // seconds
	MinEnergyFrac  float64 `yaml:"min_energy_frac"` // of max energy
	MatingDistance float64 `yaml:"mating_distance"`
	EnergyCost     float64 `yaml:"energy_cost"` // paid by each parent
	Cooldown       float64 `yaml:"cooldown"`    // seconds
	CrossoverRate  float64 `yaml:"crossover_rate"`
}

// MutationConfig holds genetic mutation parameters.
type MutationConfig struct {
	Rate           float64 `yaml:"rate"`            // per gene
	PointSigma     float64 `yaml:"point_sigma"`     // stddev of point mutation
	LargeChance    float64 `yaml:"large_chance"`    // chance a mutation is large
	LargeSigma     float64 `yaml:"large_sigma"`     // stddev of large mutation
	DominanceRate  float64 `yaml:"dominance_rate"`  // chance a mutation hits dominance
	DominanceSigma float64 `yaml:"dominance_sigma"` // stddev of dominance perturbation
	SomaticRate    float64 `yaml:"somatic_rate"`    // per agent per tick
}

// AgingConfig holds lifespan parameters.
type AgingConfig struct {
	GlobalMaxAge float64 `yaml:"global_max_age"` // seconds; genetic max age caps below this
}

// DiseaseConfig holds infection parameters.
type DiseaseConfig struct {
	TransmissionRadius float64 `yaml:"transmission_radius"`
	BaseProbability    float64 `yaml:"base_probability"` // per tick per nearby infected
	RecoveryChance     float64 `yaml:"recovery_chance"`  // per tick
	EnergyPenalty      float64 `yaml:"energy_penalty"`   // per second while infected
	InitialInfected    int     `yaml:"initial_infected"`
}

// EventsConfig holds population-wide event parameters.
type EventsConfig struct {
	IntervalTicks    int     `yaml:"interval_ticks"`
	DensityThreshold float64 `yaml:"density_threshold"` // population / max population
	EpidemicDuration int     `yaml:"epidemic_duration"` // ticks
	EpidemicInfect   float64 `yaml:"epidemic_infect"`   // fraction of population infected at onset
	EpidemicSpread   float64 `yaml:"epidemic_spread"`   // transmission multiplier during epidemic
}

// NeuralConfig holds controller parameters.
type NeuralConfig struct {
	Kind        string `yaml:"kind"`         // "fnn" or "rnn"
	MemorySteps int    `yaml:"memory_steps"` // N previous hidden states appended to inputs (rnn only)
}

// SensorsConfig holds sensing parameters.
type SensorsConfig struct {
	NoiseSigma    float64 `yaml:"noise_sigma"`    // 0 disables Gaussian jitter
	SectorDropout float64 `yaml:"sector_dropout"` // 0 disables per-sector dropout
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
}

// DerivedConfig holds values computed after loading.
type DerivedConfig struct {
	DT32      float32
	WorldW32  float32
	WorldH32  float32
	NumInputs int // base sensor inputs plus memory concatenation
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated;
// an invalid configuration never reaches the tick loop.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// ComputeDerived calculates values derived from loaded config. Load calls
// this automatically; callers that mutate a Config by hand (tests, the tuner)
// must call it again before use.
func (c *Config) ComputeDerived() {
	c.Derived.DT32 = float32(c.World.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.NumInputs = BaseInputs + HiddenSize*c.Neural.MemorySteps
}

// Validate checks the configuration for values that would corrupt the
// simulation. It returns a descriptive error for the first problem found.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world dimensions must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.World.Boundary != BoundaryTorus && c.World.Boundary != BoundaryBounded {
		return fmt.Errorf("config: unknown boundary mode %q", c.World.Boundary)
	}
	if c.World.GridCellSize <= 0 {
		return fmt.Errorf("config: grid_cell_size must be positive, got %g", c.World.GridCellSize)
	}
	if c.World.DT <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.World.DT)
	}
	if c.World.WaterRadius < 0 {
		return fmt.Errorf("config: water_radius must be non-negative, got %g", c.World.WaterRadius)
	}
	if c.Population.Initial <= 0 {
		return fmt.Errorf("config: initial population must be positive, got %d", c.Population.Initial)
	}
	if c.Population.Max < c.Population.Initial {
		return fmt.Errorf("config: max population %d below initial %d", c.Population.Max, c.Population.Initial)
	}
	if c.Energy.Max <= 0 {
		return fmt.Errorf("config: max energy must be positive, got %g", c.Energy.Max)
	}
	if c.Energy.Initial < 0 || c.Energy.Initial > c.Energy.Max {
		return fmt.Errorf("config: initial energy %g outside [0, %g]", c.Energy.Initial, c.Energy.Max)
	}
	if c.Hydration.Max <= 0 {
		return fmt.Errorf("config: max hydration must be positive, got %g", c.Hydration.Max)
	}
	if c.Food.FeedRadius < 0 {
		return fmt.Errorf("config: feed_radius must be non-negative, got %g", c.Food.FeedRadius)
	}
	if c.Food.Clusters <= 0 {
		return fmt.Errorf("config: food clusters must be positive, got %d", c.Food.Clusters)
	}
	if c.Combat.AttackDistance < 0 {
		return fmt.Errorf("config: attack_distance must be non-negative, got %g", c.Combat.AttackDistance)
	}
	if c.Disease.TransmissionRadius < 0 {
		return fmt.Errorf("config: transmission_radius must be non-negative, got %g", c.Disease.TransmissionRadius)
	}
	probs := []struct {
		name string
		v    float64
	}{
		{"mutation.rate", c.Mutation.Rate},
		{"mutation.large_chance", c.Mutation.LargeChance},
		{"mutation.dominance_rate", c.Mutation.DominanceRate},
		{"mutation.somatic_rate", c.Mutation.SomaticRate},
		{"reproduction.crossover_rate", c.Reproduction.CrossoverRate},
		{"reproduction.min_energy_frac", c.Reproduction.MinEnergyFrac},
		{"disease.base_probability", c.Disease.BaseProbability},
		{"disease.recovery_chance", c.Disease.RecoveryChance},
		{"events.density_threshold", c.Events.DensityThreshold},
		{"events.epidemic_infect", c.Events.EpidemicInfect},
		{"sensors.sector_dropout", c.Sensors.SectorDropout},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %g", p.name, p.v)
		}
	}
	if c.Neural.Kind != ControllerFNN && c.Neural.Kind != ControllerRNN {
		return fmt.Errorf("config: unknown neural kind %q", c.Neural.Kind)
	}
	if c.Neural.MemorySteps < 0 {
		return fmt.Errorf("config: memory_steps must be non-negative, got %d", c.Neural.MemorySteps)
	}
	if c.Neural.MemorySteps > 0 && c.Neural.Kind != ControllerRNN {
		return fmt.Errorf("config: memory_steps requires neural kind %q", ControllerRNN)
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("config: stats_window must be positive, got %g", c.Telemetry.StatsWindow)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
