package main

import (
	"sync"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/telemetry"
)

// Result summarizes the trail network at the end of a run.
type Result struct {
	TopDecileShare float64
	Coverage       float64
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastResult returns the averaged result of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated share of trail mass held by the brightest tenth
// of cells, averaged over seeds: thin, bright networks score lowest.
// Runs that fail to start score 0.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.configFor(x)

	results := make([]Result, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.run(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var avg Result
	for _, r := range results {
		avg.TopDecileShare += r.TopDecileShare
		avg.Coverage += r.Coverage
	}
	n := float64(len(results))
	avg.TopDecileShare /= n
	avg.Coverage /= n

	fe.mu.Lock()
	fe.last = avg
	fe.mu.Unlock()

	return -avg.TopDecileShare
}

// configFor copies the base config and applies x.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	return &cfg
}

// run executes one seed and returns the statistics of its final window.
func (fe *FitnessEvaluator) run(cfg *config.Config, seed int64) Result {
	var final telemetry.WindowStats
	g, err := game.NewGameWithOptions(cfg, game.Options{
		Seed:           seed,
		StatsWindow:    fe.ticks,
		StepsPerUpdate: game.MaxStepsPerUpdate,
		StatsCallback:  func(s telemetry.WindowStats) { final = s },
	})
	if err != nil {
		return Result{}
	}
	defer g.Unload()

	for g.Tick() < int64(fe.ticks) {
		g.StepOnce()
	}
	return Result{TopDecileShare: final.TopDecileShare, Coverage: final.Coverage}
}
