package tune

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/fit"
	"github.com/okian/xg/internal/domain/model"
)

// Config is one raced configuration.
type Config struct {
	ID       int                   `json:"id"`
	Hyper    model.Hyperparameters `json:"hyper"`
	Scores   []float64             `json:"scores"`
	Summary  cv.Summary            `json:"summary"`
	Failures int                   `json:"failures"`
	// EliminatedAfter is the number of folds seen when the configuration
	// was dropped; 0 for survivors.
	EliminatedAfter int `json:"eliminated_after,omitempty"`
}

// Alive reports whether the configuration finished the race.
func (c *Config) Alive() bool { return c.EliminatedAfter == 0 }

// RaceRequest describes a racing search over one recipe.
type RaceRequest struct {
	Recipe  string
	Configs []model.Hyperparameters
	Folds   int
	BurnIn  int
	Alpha   float64
	Seed    uint64
}

// RaceResult holds every configuration and the winner.
type RaceResult struct {
	Configs []Config
	Winner  Config
	// Jobs is the number of fits run, at most len(Configs)*Folds.
	Jobs int
}

// Race evaluates configurations fold by fold. Every configuration runs the
// burn-in folds; from then on, after each fold, a configuration is dropped
// when the one-sided upper confidence bound of its paired AUC difference to
// the current leader is below zero. The winner is the best surviving
// configuration by mean AUC, then lower standard error.
func Race(ctx context.Context, req RaceRequest, runner fit.Runner) (RaceResult, error) {
	if len(req.Configs) == 0 {
		return RaceResult{}, ErrNoConfigs
	}
	if req.BurnIn < 2 || req.BurnIn > req.Folds {
		return RaceResult{}, ErrBurnIn
	}
	alpha := req.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	cfgs := make([]Config, len(req.Configs))
	for i, h := range req.Configs {
		cfgs[i] = Config{ID: i, Hyper: h}
	}
	res := RaceResult{}

	run := func(folds []int) {
		var jobs []model.FitJob
		for i := range cfgs {
			if !cfgs[i].Alive() {
				continue
			}
			for _, f := range folds {
				jobs = append(jobs, model.FitJob{
					Index:     len(jobs),
					Stage:     model.StageTune,
					Candidate: i,
					Recipe:    req.Recipe,
					Hyper:     cfgs[i].Hyper,
					Fold:      f,
					Seed:      fit.Seed(req.Seed, i, f),
				})
			}
		}
		res.Jobs += len(jobs)
		// Jobs are config-major and folds ascend, so appending keeps
		// Scores in fold order.
		for _, r := range runner.Run(ctx, jobs) {
			c := &cfgs[r.Job.Candidate]
			c.Scores = append(c.Scores, r.AUC)
			if r.Failed() {
				c.Failures++
			}
		}
		for i := range cfgs {
			if cfgs[i].Alive() {
				cfgs[i].Summary = cv.Summarize(cfgs[i].Scores)
			}
		}
	}

	burn := make([]int, req.BurnIn)
	for f := range burn {
		burn[f] = f
	}
	run(burn)
	for done := req.BurnIn; ; done++ {
		eliminate(cfgs, done, alpha)
		if done == req.Folds {
			break
		}
		run([]int{done})
	}

	survivors := make([]Config, 0, len(cfgs))
	for _, c := range cfgs {
		if c.Alive() {
			survivors = append(survivors, c)
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		return cv.Better(survivors[i].Summary, survivors[j].Summary)
	})
	res.Configs = cfgs
	res.Winner = survivors[0]
	if res.Winner.Failures == len(res.Winner.Scores) {
		return res, ErrAllFailed
	}
	return res, nil
}

// eliminate drops configurations dominated by the leader after done folds.
func eliminate(cfgs []Config, done int, alpha float64) {
	if done < 2 {
		return
	}
	leader := -1
	for i := range cfgs {
		if !cfgs[i].Alive() {
			continue
		}
		if leader < 0 || cv.Better(cfgs[i].Summary, cfgs[leader].Summary) {
			leader = i
		}
	}
	if leader < 0 {
		return
	}

	n := float64(done)
	tq := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Quantile(1 - alpha)
	diff := make([]float64, done)
	for i := range cfgs {
		if i == leader || !cfgs[i].Alive() {
			continue
		}
		for f := 0; f < done; f++ {
			diff[f] = cfgs[i].Scores[f] - cfgs[leader].Scores[f]
		}
		mean, sd := stat.MeanStdDev(diff, nil)
		if mean+tq*sd/math.Sqrt(n) < 0 {
			cfgs[i].EliminatedAfter = done
		}
	}
}
