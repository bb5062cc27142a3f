// Package main provides CMA-ES search over simulation parameters for
// configurations that keep the population alive and healthy.
package main

import "github.com/pthm-cable/vivarium/config"

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. The
// bounds are generous on purpose; the fitness landscape decides.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "energy_base_drain", Min: 0.1, Max: 3.0, Default: 0.8},
			{Name: "energy_move_cost", Min: 0.001, Max: 0.08, Default: 0.02},
			{Name: "energy_size_cost", Min: 0.05, Max: 2.0, Default: 0.5},
			{Name: "food_energy_value", Min: 10, Max: 80, Default: 35},
			{Name: "food_spawn_per_sec", Min: 1, Max: 40, Default: 12},
			{Name: "food_feed_rate", Min: 5, Max: 60, Default: 25},
			{Name: "combat_base_damage", Min: 1, Max: 30, Default: 8},
			{Name: "combat_kill_bonus", Min: 5, Max: 60, Default: 28},
			{Name: "repro_energy_cost", Min: 5, Max: 40, Default: 20},
			{Name: "repro_cooldown", Min: 4, Max: 40, Default: 15},
			{Name: "repro_min_energy_frac", Min: 0.3, Max: 0.9, Default: 0.6},
			{Name: "mutation_rate", Min: 0.005, Max: 0.15, Default: 0.04},
			{Name: "hydration_drain", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "disease_base_probability", Min: 0.001, Max: 0.1, Default: 0.02},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1].
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

// Clamp bounds all values to their specs.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into a Config. Order must
// match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	v := pv.Clamp(values)
	i := 0

	cfg.Energy.BaseDrain = v[i]
	i++
	cfg.Energy.MoveCost = v[i]
	i++
	cfg.Energy.SizeCost = v[i]
	i++

	cfg.Food.EnergyValue = v[i]
	i++
	cfg.Food.SpawnPerSec = v[i]
	i++
	cfg.Food.FeedRate = v[i]
	i++

	cfg.Combat.BaseDamage = v[i]
	i++
	cfg.Combat.KillBonus = v[i]
	i++

	cfg.Reproduction.EnergyCost = v[i]
	i++
	cfg.Reproduction.Cooldown = v[i]
	i++
	cfg.Reproduction.MinEnergyFrac = v[i]
	i++

	cfg.Mutation.Rate = v[i]
	i++

	cfg.Hydration.Drain = v[i]
	i++

	cfg.Disease.BaseProbability = v[i]

	cfg.ComputeDerived()
}
