package tune

import "errors"

// Sentinel errors.
var (
	ErrInvalidSpace = errors.New("invalid search space")
	ErrNoConfigs    = errors.New("no configurations to race")
	ErrBurnIn       = errors.New("burn-in must cover at least two folds and at most all")
	ErrAllFailed    = errors.New("every configuration failed")
	ErrArtifact     = errors.New("invalid model artifact")
)
