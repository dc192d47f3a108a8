// Package selection ranks feature recipes by cross-validated AUC at default
// hyperparameters.
package selection

import (
	"context"
	"sort"

	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/internal/domain/fit"
	"github.com/okian/xg/internal/domain/model"
)

// Candidate is one recipe's cross-validation record.
type Candidate struct {
	Recipe   encode.Recipe `json:"recipe"`
	Scores   []float64     `json:"scores"`
	Summary  cv.Summary    `json:"summary"`
	Failures int           `json:"failures"`
	Errors   []string      `json:"errors,omitempty"`
}

// Result is the ranking, best first.
type Result struct {
	Ranked []Candidate
	Winner Candidate
}

// Request describes a selection run.
type Request struct {
	Recipes []encode.Recipe
	Folds   int
	Hyper   model.Hyperparameters
	Seed    uint64
}

// Jobs expands req into one job per (recipe, fold), recipe-major.
func Jobs(req Request) []model.FitJob {
	jobs := make([]model.FitJob, 0, len(req.Recipes)*req.Folds)
	for c, r := range req.Recipes {
		for f := 0; f < req.Folds; f++ {
			jobs = append(jobs, model.FitJob{
				Index:     len(jobs),
				Stage:     model.StageSelect,
				Candidate: c,
				Recipe:    r.Name,
				Hyper:     req.Hyper,
				Fold:      f,
				Seed:      fit.Seed(req.Seed, c, f),
			})
		}
	}
	return jobs
}

// Select fits every recipe on every fold through runner and ranks recipes
// by mean AUC, then by lower standard error. Failed fits score
// model.WorstAUC. Equal records keep recipe order.
func Select(ctx context.Context, req Request, runner fit.Runner) (Result, error) {
	if len(req.Recipes) == 0 {
		return Result{}, ErrNoRecipes
	}
	if req.Folds < 1 {
		return Result{}, ErrNoFolds
	}
	if req.Hyper == (model.Hyperparameters{}) {
		req.Hyper = boost.DefaultParams().Hyperparameters
	}

	results := runner.Run(ctx, Jobs(req))

	cands := make([]Candidate, len(req.Recipes))
	for i, r := range req.Recipes {
		cands[i] = Candidate{Recipe: r, Scores: make([]float64, req.Folds)}
	}
	for _, res := range results {
		c := &cands[res.Job.Candidate]
		c.Scores[res.Job.Fold] = res.AUC
		if res.Failed() {
			c.Failures++
			c.Errors = append(c.Errors, res.Err.Error())
		}
	}
	for i := range cands {
		cands[i].Summary = cv.Summarize(cands[i].Scores)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cv.Better(cands[i].Summary, cands[j].Summary)
	})
	return Result{Ranked: cands, Winner: cands[0]}, nil
}
