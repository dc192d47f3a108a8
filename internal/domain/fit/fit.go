// Package fit scores one (recipe, hyperparameters, fold) job and refits
// winners on a full partition.
package fit

import (
	"context"
	"fmt"

	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/internal/domain/model"
)

// Evaluator fits fold models over a fixed training partition. Its fields
// are read-only once built, so one Evaluator serves every worker.
type Evaluator struct {
	Rows         []model.TrainingRow
	Labels       []bool
	Folds        []cv.Fold
	LearningRate float64
	// RareThreshold overrides each recipe's rare-level share when positive.
	RareThreshold float64
}

// NewEvaluator prepares labels for rows and folds.
func NewEvaluator(rows []model.TrainingRow, folds []cv.Fold, learningRate float64) *Evaluator {
	return &Evaluator{
		Rows:         rows,
		Labels:       model.Labels(rows),
		Folds:        folds,
		LearningRate: learningRate,
	}
}

// Fit trains job's configuration on the fold's training rows and returns
// the AUC on its held-out rows. The encoder is fit on the training rows
// only.
func (e *Evaluator) Fit(ctx context.Context, job model.FitJob) (float64, error) {
	if err := ctx.Err(); err != nil {
		return model.WorstAUC, err
	}
	if job.Fold < 0 || job.Fold >= len(e.Folds) {
		return model.WorstAUC, fmt.Errorf("%w: %d of %d", ErrFoldRange, job.Fold, len(e.Folds))
	}
	recipe, err := encode.RecipeByName(job.Recipe)
	if err != nil {
		return model.WorstAUC, err
	}
	if e.RareThreshold > 0 {
		recipe.RareThreshold = e.RareThreshold
	}
	fold := e.Folds[job.Fold]
	params := boost.WithHyper(job.Hyper, e.LearningRate, job.Seed)

	enc, m, err := Refit(recipe, model.Subset(e.Rows, fold.Train), params)
	if err != nil {
		return model.WorstAUC, err
	}

	test := model.Subset(e.Rows, fold.Test)
	x, err := enc.Transform(test)
	if err != nil {
		return model.WorstAUC, err
	}
	auc, err := cv.AUC(m.PredictMatrix(x), model.Labels(test))
	if err != nil {
		return model.WorstAUC, fmt.Errorf("fold %d: %w", job.Fold, err)
	}
	return auc, nil
}

// Refit fits an encoder and a model for recipe on rows.
func Refit(recipe encode.Recipe, rows []model.TrainingRow, params boost.Params) (*encode.Encoder, *boost.Model, error) {
	enc, err := encode.Fit(recipe, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", recipe.Name, err)
	}
	x, err := enc.Transform(rows)
	if err != nil {
		return nil, nil, err
	}
	m, err := boost.Fit(x, model.Labels(rows), params)
	if err != nil {
		return nil, nil, fmt.Errorf("boost %s: %w", recipe.Name, err)
	}
	return enc, m, nil
}

// Seed derives a per-job model seed from the base seed, candidate and fold
// using a splitmix64 step, so seeds do not depend on scheduling.
func Seed(base uint64, candidate, fold int) uint64 {
	z := base + 0x9e3779b97f4a7c15*uint64(candidate+1) + 0xbf58476d1ce4e5b9*uint64(fold+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
