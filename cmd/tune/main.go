// Command tune searches simulation parameter space for settings that keep
// a population alive with genuine birth/death turnover. Candidates are
// scored by headless runs inside a CMA-ES loop; the search trail and the
// best configuration found are written to the output directory.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/vivarium/config"
)

type searchOptions struct {
	configPath string
	outputDir  string
	maxTicks   int64
	seeds      int
	maxEvals   int
	population int
}

func main() {
	var opts searchOptions
	flag.StringVar(&opts.configPath, "config", "", "base config YAML (empty = embedded defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "directory for the search log and best config")
	flag.Int64Var(&opts.maxTicks, "max-ticks", 180_000, "ticks per evaluation run")
	flag.IntVar(&opts.seeds, "seeds", 3, "seeds per candidate")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "evaluation budget")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.Parse()

	if opts.outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := runSearch(opts); err != nil {
		log.Fatal(err)
	}
}

func runSearch(opts searchOptions) error {
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load base config: %w", err)
	}

	params := NewParamVector()

	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.maxTicks, seeds, baseCfg)

	trail, err := newSearchTrail(filepath.Join(opts.outputDir, "tune_log.csv"), params, opts.maxEvals)
	if err != nil {
		return err
	}
	defer trail.close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	fmt.Printf("tuning %d parameters: cma population %d, budget %d evals, %d seeds x %d ticks per candidate\n",
		params.Dim(), popSize, opts.maxEvals, opts.seeds, opts.maxTicks)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(params.Denormalize(x))
			trail.record(params.Clamp(params.Denormalize(x)), fitness, evaluator.LastQuality())
			return fitness
		},
	}
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("search stopped: %v", err)
	}

	best := trail.bestParams
	if best == nil {
		best = params.Denormalize(result.X)
	}

	fmt.Printf("\ndone: %d evaluations in %s, best fitness %.0f\n",
		trail.evals, time.Since(trail.start).Round(time.Second), trail.bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %-26s %.6f\n", spec.Name, best[i])
	}

	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reload base config: %w", err)
	}
	params.ApplyToConfig(bestCfg, best)

	outPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(outPath); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	fmt.Printf("best config written to %s\n", outPath)
	return nil
}

// searchTrail appends one CSV row per evaluation and tracks the best
// candidate seen, since the optimizer only reports its final point.
type searchTrail struct {
	file   *os.File
	w      *csv.Writer
	budget int
	start  time.Time

	evals       int
	bestFitness float64
	bestParams  []float64
}

func newSearchTrail(path string, params *ParamVector, budget int) (*searchTrail, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create search log: %w", err)
	}

	w := csv.NewWriter(f)
	header := []string{"eval", "fitness", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	w.Write(header)

	return &searchTrail{
		file:        f,
		w:           w,
		budget:      budget,
		start:       time.Now(),
		bestFitness: math.Inf(1),
	}, nil
}

func (t *searchTrail) record(clamped []float64, fitness, quality float64) {
	t.evals++
	if fitness < t.bestFitness {
		t.bestFitness = fitness
		t.bestParams = append([]float64(nil), clamped...)
	}

	row := make([]string, 0, len(clamped)+3)
	row = append(row,
		strconv.Itoa(t.evals),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 4, 64))
	for _, v := range clamped {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	t.w.Write(row)
	t.w.Flush()

	elapsed := time.Since(t.start)
	eta := elapsed / time.Duration(t.evals) * time.Duration(t.budget-t.evals)
	fmt.Printf("eval %d/%d fitness=%.0f quality=%.2f best=%.0f elapsed=%s eta=%s\n",
		t.evals, t.budget, fitness, quality, t.bestFitness,
		elapsed.Round(time.Second), eta.Round(time.Second))
}

func (t *searchTrail) close() {
	t.w.Flush()
	t.file.Close()
}
