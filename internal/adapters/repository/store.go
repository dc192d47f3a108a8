// Package repository persists the training table and the run ledger.
package repository

import (
	"context"
	"time"

	"github.com/okian/xg/internal/domain/evaluate"
	"github.com/okian/xg/internal/domain/model"
)

// CandidateRecord is one scored configuration of a run.
type CandidateRecord struct {
	Stage model.Stage
	// Name is the recipe for selection and the config id for tuning.
	Name     string
	Recipe   string
	Hyper    model.Hyperparameters
	Mean     float64
	StdErr   float64
	Folds    int
	Failures int
	// EliminatedAfter is the fold count at elimination; 0 if it survived.
	EliminatedAfter int
	Rank            int
}

// RunSummary is the ledger entry of a finished run.
type RunSummary struct {
	RunID     string
	CreatedAt time.Time
	Rows      int
	Recipe    string
	TrainAUC  float64
	TestAUC   float64
	// CalibrationPct is the signed predicted-vs-actual goal difference.
	CalibrationPct float64
}

// Store provides write access to the training table and read access to
// past runs.
type Store interface {
	// SaveRows replaces the training table of runID.
	SaveRows(ctx context.Context, runID string, rows []model.TrainingRow) error
	// SaveCandidates appends scored candidates to runID's ledger.
	SaveCandidates(ctx context.Context, runID string, cands []CandidateRecord) error
	// SaveDiagnostics stores the evaluation report of runID.
	SaveDiagnostics(ctx context.Context, runID, recipe string, rows int, rep evaluate.Report, at time.Time) error

	// Rows returns runID's training table in row id order.
	Rows(ctx context.Context, runID string) ([]model.TrainingRow, error)
	// Candidates returns runID's candidates ordered by stage then rank.
	Candidates(ctx context.Context, runID string) ([]CandidateRecord, error)
	// Run returns runID's summary, or ErrNotFound.
	Run(ctx context.Context, runID string) (RunSummary, error)
	// Runs returns the newest n runs first.
	Runs(ctx context.Context, n int) ([]RunSummary, error)

	Close() error
}
