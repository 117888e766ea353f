package main

import (
	"github.com/pthm-cable/physarum/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of steering and trail parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "sensor_offset", Path: "agents.sensor_offset", Min: 1, Max: 30, Default: 9},
			{Name: "sensor_angle_deg", Path: "agents.sensor_angle_deg", Min: 5, Max: 90, Default: 45},
			{Name: "rotation_angle_deg", Path: "agents.rotation_angle_deg", Min: 5, Max: 90, Default: 45},
			{Name: "step_size", Path: "agents.step_size", Min: 0.25, Max: 3, Default: 1},
			{Name: "deposit", Path: "agents.deposit", Min: 0.5, Max: 20, Default: 5},
			{Name: "decay_rate", Path: "field.decay_rate", Min: 0, Max: 1, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Agents.SensorOffset = c[0]
	cfg.Agents.SensorAngleDeg = c[1]
	cfg.Agents.RotationAngleDeg = c[2]
	cfg.Agents.StepSize = c[3]
	cfg.Agents.Deposit = c[4]
	cfg.Field.DecayRate = c[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Agents.SensorOffset,
		cfg.Agents.SensorAngleDeg,
		cfg.Agents.RotationAngleDeg,
		cfg.Agents.StepSize,
		cfg.Agents.Deposit,
		cfg.Field.DecayRate,
	}
}

// LogRow is one evaluation in tune_log.csv.
type LogRow struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	TopDecileShare   float64 `csv:"top_decile_share"`
	Coverage         float64 `csv:"coverage"`
	SensorOffset     float64 `csv:"sensor_offset"`
	SensorAngleDeg   float64 `csv:"sensor_angle_deg"`
	RotationAngleDeg float64 `csv:"rotation_angle_deg"`
	StepSize         float64 `csv:"step_size"`
	Deposit          float64 `csv:"deposit"`
	DecayRate        float64 `csv:"decay_rate"`
}

// NewLogRow builds a log row from clamped parameter values.
func NewLogRow(eval int, fitness float64, r Result, values []float64) LogRow {
	return LogRow{
		Eval:             eval,
		Fitness:          fitness,
		TopDecileShare:   r.TopDecileShare,
		Coverage:         r.Coverage,
		SensorOffset:     values[0],
		SensorAngleDeg:   values[1],
		RotationAngleDeg: values[2],
		StepSize:         values[3],
		Deposit:          values[4],
		DecayRate:        values[5],
	}
}
