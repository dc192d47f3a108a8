// Package config defines the training pipeline configuration.
//
// Conventions:
// - New returns defaults; Load layers a YAML file and XG_ env vars on top.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// WorkerCount bounds the fit worker pool.
	WorkerCount int `koanf:"worker_count"`

	// Seed drives the split, fold assignment, sampling and model seeds.
	Seed int64 `koanf:"seed"`

	// TestFraction is the stratified hold-out share.
	TestFraction float64 `koanf:"test_fraction"`
	// Folds is k for stratified cross-validation.
	Folds int `koanf:"folds"`
	// RareThreshold collapses categorical levels below this share into "other".
	RareThreshold float64 `koanf:"rare_threshold"`
	// OutcomePolicy selects the modeled event set and rebound window:
	// "attempts" (with missed shots) or "on_goal".
	OutcomePolicy string `koanf:"outcome_policy"`

	// TuneCandidates is the number of Latin hypercube configurations.
	TuneCandidates int `koanf:"tune_candidates"`
	// TuneBurnIn is the number of folds every configuration sees before racing.
	TuneBurnIn int `koanf:"tune_burn_in"`
	// TuneAlpha is the one-sided significance level used for elimination.
	TuneAlpha float64 `koanf:"tune_alpha"`

	RoundsMin    int     `koanf:"rounds_min"`
	RoundsMax    int     `koanf:"rounds_max"`
	DepthMin     int     `koanf:"depth_min"`
	DepthMax     int     `koanf:"depth_max"`
	ColSampleMin float64 `koanf:"colsample_min"`
	ColSampleMax float64 `koanf:"colsample_max"`
	MinLeafMin   int     `koanf:"min_leaf_min"`
	MinLeafMax   int     `koanf:"min_leaf_max"`
	SubsampleMin float64 `koanf:"subsample_min"`
	SubsampleMax float64 `koanf:"subsample_max"`

	// LearningRate is the shrinkage applied to every tree.
	LearningRate float64 `koanf:"learning_rate"`

	// InputPath points at the raw events; InputFormat is "jsonl" or "parquet".
	InputPath   string `koanf:"input_path"`
	InputFormat string `koanf:"input_format"`

	// SQLitePath receives the training table and run ledger when set.
	SQLitePath string `koanf:"sqlite_path"`
	// ParquetPath receives a Parquet export of the training table when set.
	ParquetPath string `koanf:"parquet_path"`
	// ModelPath receives the JSON model artifact when set.
	ModelPath string `koanf:"model_path"`
	// RedisAddr enables the Redis model registry when set.
	RedisAddr string `koanf:"redis_addr"`
	// PushgatewayURL enables pushing run metrics when set.
	PushgatewayURL string `koanf:"pushgateway_url"`

	// Addr configures the ledger HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		WorkerCount:    runtime.NumCPU(),
		Seed:           42,
		TestFraction:   0.25,
		Folds:          10,
		RareThreshold:  0.05,
		OutcomePolicy:  "attempts",
		TuneCandidates: 30,
		TuneBurnIn:     3,
		TuneAlpha:      0.05,
		RoundsMin:      50,
		RoundsMax:      400,
		DepthMin:       2,
		DepthMax:       8,
		ColSampleMin:   0.3,
		ColSampleMax:   1.0,
		MinLeafMin:     5,
		MinLeafMax:     80,
		SubsampleMin:   0.5,
		SubsampleMax:   1.0,
		LearningRate:   0.1,
		InputFormat:    "jsonl",
		Addr:           ":9080",
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be >= 1", ErrInvalidConfig)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction must be in (0,1)", ErrInvalidConfig)
	case c.Folds < 2:
		return fmt.Errorf("%w: folds must be >= 2", ErrInvalidConfig)
	case c.RareThreshold < 0 || c.RareThreshold >= 1:
		return fmt.Errorf("%w: rare_threshold must be in [0,1)", ErrInvalidConfig)
	case c.OutcomePolicy != "attempts" && c.OutcomePolicy != "on_goal":
		return fmt.Errorf("%w: outcome_policy must be attempts or on_goal", ErrInvalidConfig)
	case c.TuneCandidates < 1:
		return fmt.Errorf("%w: tune_candidates must be >= 1", ErrInvalidConfig)
	case c.TuneBurnIn < 2 || c.TuneBurnIn > c.Folds:
		return fmt.Errorf("%w: tune_burn_in must be in [2, folds]", ErrInvalidConfig)
	case c.TuneAlpha <= 0 || c.TuneAlpha >= 0.5:
		return fmt.Errorf("%w: tune_alpha must be in (0,0.5)", ErrInvalidConfig)
	case c.RoundsMin < 1 || c.RoundsMax < c.RoundsMin:
		return fmt.Errorf("%w: rounds range", ErrInvalidConfig)
	case c.DepthMin < 1 || c.DepthMax < c.DepthMin:
		return fmt.Errorf("%w: depth range", ErrInvalidConfig)
	case c.ColSampleMin <= 0 || c.ColSampleMax > 1 || c.ColSampleMax < c.ColSampleMin:
		return fmt.Errorf("%w: colsample range", ErrInvalidConfig)
	case c.MinLeafMin < 1 || c.MinLeafMax < c.MinLeafMin:
		return fmt.Errorf("%w: min_leaf range", ErrInvalidConfig)
	case c.SubsampleMin <= 0 || c.SubsampleMax > 1 || c.SubsampleMax < c.SubsampleMin:
		return fmt.Errorf("%w: subsample range", ErrInvalidConfig)
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("%w: learning_rate must be in (0,1]", ErrInvalidConfig)
	case c.InputFormat != "jsonl" && c.InputFormat != "parquet":
		return fmt.Errorf("%w: input_format must be jsonl or parquet", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	return nil
}
