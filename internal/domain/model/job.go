package model

import (
	"fmt"
	"time"
)

// Stage names the search phase a fit job belongs to.
type Stage string

// Stages.
const (
	StageSelect Stage = "select"
	StageTune   Stage = "tune"
)

// WorstAUC is the score recorded for a failed fit.
const WorstAUC = 0.0

// Hyperparameters is the tunable part of a boosted trees configuration.
type Hyperparameters struct {
	Rounds    int     `json:"rounds"`
	MaxDepth  int     `json:"max_depth"`
	ColSample float64 `json:"colsample"`
	MinLeaf   int     `json:"min_leaf"`
	Subsample float64 `json:"subsample"`
}

// String renders h for logs.
func (h Hyperparameters) String() string {
	return fmt.Sprintf("rounds=%d depth=%d colsample=%.3f min_leaf=%d subsample=%.3f",
		h.Rounds, h.MaxDepth, h.ColSample, h.MinLeaf, h.Subsample)
}

// FitJob is one (configuration, fold) unit of work.
type FitJob struct {
	// Index is the job's position in its batch; results are collected by it.
	Index     int
	Stage     Stage
	Candidate int
	Recipe    string
	Hyper     Hyperparameters
	Fold      int
	Seed      uint64
}

// FitResult is the held-out score of a FitJob.
type FitResult struct {
	Job      FitJob
	AUC      float64
	Err      error
	Duration time.Duration
}

// Failed reports whether the fit errored.
func (r FitResult) Failed() bool { return r.Err != nil }
