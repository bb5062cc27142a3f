package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/sim"
	"github.com/pthm-cable/vivarium/telemetry"
)

// Functional-extinction criteria for evaluation runs. Respawning is
// disabled during evaluation so a collapse actually registers.
const (
	minViablePop       = 4
	extinctionGraceSec = 30.0
)

// FitnessEvaluator runs headless simulations and scores parameter vectors.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int64
	seeds    []int64
	baseCfg  *config.Config

	mu          sync.Mutex
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:   params,
		maxTicks: maxTicks,
		seeds:    seeds,
		baseCfg:  baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Survival dominates; ecosystem quality adds up to a 20% bonus.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	type seedResult struct {
		fitness float64
		quality float64
	}

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			survival, windows := fe.runSimulation(x, s)
			quality := computeQuality(windows, float64(fe.baseCfg.Energy.Max))
			results[idx] = seedResult{
				fitness: -(float64(survival) * (1 + 0.2*quality)),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes one headless run and returns the ticks survived
// before functional extinction, plus the collected window stats.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (int64, []telemetry.WindowStats) {
	cfg := fe.evalConfig(x)

	s, err := sim.New(cfg, seed, slog.New(slog.DiscardHandler))
	if err != nil {
		return 0, nil
	}

	windowTicks := int64(cfg.Telemetry.StatsWindow / cfg.World.DT)
	if windowTicks < 1 {
		windowTicks = 1
	}
	graceTicks := int64(extinctionGraceSec / cfg.World.DT)
	warmupTicks := int64(5.0 / cfg.World.DT)

	var windows []telemetry.WindowStats
	var belowTicks int64

	for s.Tick() < fe.maxTicks {
		s.Step()

		if s.Tick()%windowTicks == 0 {
			windows = append(windows, s.Collector().FlushWindow(s.Tick(), s.SimTime(), s.SamplePopulation()))
		}
		if s.Tick() < warmupTicks {
			continue
		}

		pop := s.Population()
		if pop == 0 {
			return s.Tick(), windows
		}
		if pop < minViablePop {
			belowTicks++
			if belowTicks >= graceTicks {
				return s.Tick(), windows
			}
		} else {
			belowTicks = 0
		}
	}
	return fe.maxTicks, windows
}

// evalConfig builds a fresh config for one run: base values, the candidate
// parameters applied, and respawning disabled.
func (fe *FitnessEvaluator) evalConfig(x []float64) *config.Config {
	cfg := *fe.baseCfg
	fe.params.ApplyToConfig(&cfg, x)
	cfg.Population.Min = 0
	cfg.ComputeDerived()
	return &cfg
}

// Quality component weights.
const (
	qualityWeightStability = 0.4
	qualityWeightEnergy    = 0.35
	qualityWeightTurnover  = 0.25

	qualityWarmupWindows = 3
)

// computeQuality scores ecosystem health in [0,1] from window stats:
// stable population, median energy near mid-range, and genuine birth/death
// turnover rather than a frozen population.
func computeQuality(windows []telemetry.WindowStats, maxEnergy float64) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	pops := make([]float64, 0, len(valid))
	var energySum, turnoverSum float64
	var energyCount, turnoverCount int

	for _, w := range valid {
		if w.Population < minViablePop {
			continue
		}
		pops = append(pops, float64(w.Population))

		e := w.EnergyP50 / maxEnergy
		energySum += math.Exp(-math.Pow((e-0.5)/0.25, 2))
		energyCount++

		births := float64(w.Births)
		deaths := float64(w.Deaths())
		perCapita := (births + deaths) / float64(w.Population)
		turnoverSum += 1 - math.Exp(-perCapita/0.1)
		turnoverCount++
	}
	if len(pops) < 2 {
		return 0
	}

	stability := math.Exp(-cv(pops) * cv(pops) * 4)

	var energy, turnover float64
	if energyCount > 0 {
		energy = energySum / float64(energyCount)
	}
	if turnoverCount > 0 {
		turnover = turnoverSum / float64(turnoverCount)
	}

	q := qualityWeightStability*stability +
		qualityWeightEnergy*energy +
		qualityWeightTurnover*turnover
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// cv computes the coefficient of variation (std/mean).
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}
