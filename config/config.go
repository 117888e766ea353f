// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Agents     AgentsConfig     `yaml:"agents"`
	Steering   SteeringConfig   `yaml:"steering"`
	Field      FieldConfig      `yaml:"field"`
	Simulation SimulationConfig `yaml:"simulation"`
	Screen     ScreenConfig     `yaml:"screen"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Stream     StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and edge handling.
type WorldConfig struct {
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	Boundary  Boundary `yaml:"boundary"`  // toroidal or clamped
	Collision bool     `yaml:"collision"` // at most one agent per cell
}

// AgentsConfig holds population size and per-agent motion parameters.
// Angles are given in degrees; use the *Rad helpers in simulation code.
type AgentsConfig struct {
	Count            int     `yaml:"count"`
	StepSize         float64 `yaml:"step_size"`
	SensorOffset     float64 `yaml:"sensor_offset"`
	SensorAngleDeg   float64 `yaml:"sensor_angle_deg"`   // half-angle between front and side sensors
	RotationAngleDeg float64 `yaml:"rotation_angle_deg"` // heading change per turn
	Deposit          float64 `yaml:"deposit"`
	Spawn            Spawn   `yaml:"spawn"`
	SpawnRadius      float64 `yaml:"spawn_radius"` // disk spawn radius as a fraction of min(w,h)/2
}

// SensorAngleRad returns the sensor half-angle in radians.
func (a AgentsConfig) SensorAngleRad() float64 {
	return a.SensorAngleDeg * math.Pi / 180
}

// RotationAngleRad returns the rotation step in radians.
func (a AgentsConfig) RotationAngleRad() float64 {
	return a.RotationAngleDeg * math.Pi / 180
}

// SteeringConfig selects the sensing policy.
type SteeringConfig struct {
	Policy Policy `yaml:"policy"`
}

// FieldConfig holds trail processing parameters.
type FieldConfig struct {
	DecayRate       float64 `yaml:"decay_rate"`        // subtracted from every cell per step, floored at 0
	DiffusionRate   float64 `yaml:"diffusion_rate"`    // blend toward box mean, in [0,1]
	KernelHalfWidth int     `yaml:"kernel_half_width"` // 1 = 3x3 box
	Order           Order   `yaml:"order"`
	Workers         int     `yaml:"workers"` // row workers for diffusion (0 = GOMAXPROCS)
}

// SimulationConfig holds step scheduling parameters.
type SimulationConfig struct {
	Deposit           DepositMode `yaml:"deposit"`
	Workers           int         `yaml:"workers"`            // agent workers in deferred mode (0 = GOMAXPROCS)
	ParallelThreshold int         `yaml:"parallel_threshold"` // below this population, deferred mode stays single-threaded
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	TargetFPS   int  `yaml:"target_fps"`
	ShowAgents  bool `yaml:"show_agents"`
	ShowSensors bool `yaml:"show_sensors"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int     `yaml:"stats_window"` // ticks per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	CoverageThreshold   float64 `yaml:"coverage_threshold"` // cells above this count as covered
}

// StreamConfig holds websocket frame parameters.
type StreamConfig struct {
	Downsample    int `yaml:"downsample"`     // cells per frame pixel along each axis
	FrameInterval int `yaml:"frame_interval"` // ticks between broadcast frames
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells        int     // World.Width * World.Height
	CellScaleX   float32 // screen pixels per grid cell (x)
	CellScaleY   float32 // screen pixels per grid cell (y)
	AgentDensity float64 // agents per cell
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
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
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks ranges that would make a simulation meaningless or unsafe.
func (c *Config) Validate() error {
	w, a, f := c.World, c.Agents, c.Field
	switch {
	case w.Width <= 0 || w.Height <= 0:
		return fmt.Errorf("%w: world size %dx%d must be positive", ErrInvalid, w.Width, w.Height)
	case a.Count <= 0:
		return fmt.Errorf("%w: agent count %d must be positive", ErrInvalid, a.Count)
	case w.Collision && a.Count > w.Width*w.Height:
		return fmt.Errorf("%w: %d agents do not fit %d cells with collision enabled",
			ErrInvalid, a.Count, w.Width*w.Height)
	case a.StepSize < 0:
		return fmt.Errorf("%w: step_size %g is negative", ErrInvalid, a.StepSize)
	case a.SensorOffset < 0:
		return fmt.Errorf("%w: sensor_offset %g is negative", ErrInvalid, a.SensorOffset)
	case a.Deposit < 0:
		return fmt.Errorf("%w: deposit %g is negative", ErrInvalid, a.Deposit)
	case a.SpawnRadius < 0 || a.SpawnRadius > 1:
		return fmt.Errorf("%w: spawn_radius %g outside [0,1]", ErrInvalid, a.SpawnRadius)
	case f.DecayRate < 0:
		return fmt.Errorf("%w: decay_rate %g is negative", ErrInvalid, f.DecayRate)
	case f.DiffusionRate < 0 || f.DiffusionRate > 1:
		return fmt.Errorf("%w: diffusion_rate %g outside [0,1]", ErrInvalid, f.DiffusionRate)
	case f.KernelHalfWidth < 0:
		return fmt.Errorf("%w: kernel_half_width %d is negative", ErrInvalid, f.KernelHalfWidth)
	case f.Workers < 0 || c.Simulation.Workers < 0:
		return fmt.Errorf("%w: worker counts must not be negative", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height
	c.Derived.AgentDensity = float64(c.Agents.Count) / float64(c.Derived.Cells)

	// Screen defaults to one pixel per cell
	sw, sh := c.Screen.Width, c.Screen.Height
	if sw == 0 {
		sw = c.World.Width
	}
	if sh == 0 {
		sh = c.World.Height
	}
	c.Derived.CellScaleX = float32(sw) / float32(c.World.Width)
	c.Derived.CellScaleY = float32(sh) / float32(c.World.Height)
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
