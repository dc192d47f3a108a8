package fit

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/xg/internal/domain/model"
)

// Fitter scores a single job.
type Fitter interface {
	Fit(ctx context.Context, job model.FitJob) (float64, error)
}

// Runner executes a batch and returns one result per job, in job order.
type Runner interface {
	Run(ctx context.Context, jobs []model.FitJob) []model.FitResult
}

// Execute runs job on f. Errors and panics become a failed result carrying
// model.WorstAUC.
func Execute(ctx context.Context, f Fitter, job model.FitJob) (res model.FitResult) {
	start := time.Now()
	res.Job = job
	defer func() {
		if r := recover(); r != nil {
			res.AUC = model.WorstAUC
			res.Err = fmt.Errorf("fit panicked: %v", r)
		}
		res.Duration = time.Since(start)
	}()

	auc, err := f.Fit(ctx, job)
	if err != nil {
		res.AUC = model.WorstAUC
		res.Err = err
		return res
	}
	res.AUC = auc
	return res
}

// Serial runs jobs one at a time on the calling goroutine.
type Serial struct {
	Fitter Fitter
}

// Run implements Runner.
func (s Serial) Run(ctx context.Context, jobs []model.FitJob) []model.FitResult {
	out := make([]model.FitResult, len(jobs))
	for i, j := range jobs {
		out[i] = Execute(ctx, s.Fitter, j)
	}
	return out
}
