// Package telemetry aggregates per-window simulation statistics and writes
// them to CSV and structured logs.
package telemetry

import "gonum.org/v1/gonum/stat"

// DeathCause classifies why an agent was removed.
type DeathCause int

const (
	DeathStarved DeathCause = iota
	DeathDehydrated
	DeathKilled
	DeathOldAge

	numDeathCauses
)

// Collector accumulates event counts over a stats window. The simulation is
// single-threaded, so no locking.
type Collector struct {
	windowStart int64

	births     int
	deaths     [numDeathCauses]int
	attacks    int
	kills      int
	feeds      int
	drinks     int
	infections int
	recoveries int
	mutations  int // somatic
	padded     int // malformed-genome weight pads observed
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordBirth()                 { c.births++ }
func (c *Collector) RecordDeath(cause DeathCause) { c.deaths[cause]++ }
func (c *Collector) RecordAttack()                { c.attacks++ }
func (c *Collector) RecordKill()                  { c.kills++ }
func (c *Collector) RecordFeed()                  { c.feeds++ }
func (c *Collector) RecordDrink()                 { c.drinks++ }
func (c *Collector) RecordInfection()             { c.infections++ }
func (c *Collector) RecordRecovery()              { c.recoveries++ }
func (c *Collector) RecordSomaticMutation()       { c.mutations++ }
func (c *Collector) RecordPaddedGenome(n int)     { c.padded += n }

// PopulationSample carries the per-agent values sampled at window end.
type PopulationSample struct {
	Energy    []float64
	Hydration []float64
	Age       []float64
	Speed     []float64 // speed trait

	Population int
	Infected   int
	FoodCount  int
	Generation int // highest generation seen
}

// FlushWindow produces the stats for the closing window and resets the
// event counters. sample is taken at window end by the caller.
func (c *Collector) FlushWindow(windowEnd int64, simTime float64, sample PopulationSample) WindowStats {
	s := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   windowEnd,
		SimTimeSec:      simTime,

		Population: sample.Population,
		Infected:   sample.Infected,
		FoodCount:  sample.FoodCount,
		Generation: sample.Generation,

		Births:          c.births,
		DeathsStarved:   c.deaths[DeathStarved],
		DeathsDehydated: c.deaths[DeathDehydrated],
		DeathsKilled:    c.deaths[DeathKilled],
		DeathsOldAge:    c.deaths[DeathOldAge],
		Attacks:         c.attacks,
		Kills:           c.kills,
		Feeds:           c.feeds,
		Infections:      c.infections,
		Recoveries:      c.recoveries,
		SomaticMuts:     c.mutations,
		PaddedGenomes:   c.padded,
	}

	s.EnergyMean, s.EnergyStd, s.EnergyP10, s.EnergyP50, s.EnergyP90 = distribution(sample.Energy)
	s.HydrationMean, _, _, s.HydrationP50, _ = distribution(sample.Hydration)
	s.AgeMean, _, _, s.AgeP50, _ = distribution(sample.Age)
	s.SpeedMean, s.SpeedStd, _, _, _ = distribution(sample.Speed)

	*c = Collector{windowStart: windowEnd}
	return s
}

// distribution computes mean/std and the p10/p50/p90 quantiles. values is
// sorted in place.
func distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	sortFloat64s(values)
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	return mean, std, p10, p50, p90
}
