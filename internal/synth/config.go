package synth

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid synth config")

// Config holds the generator settings.
type Config struct {
	Games       int    // Number of games to play
	Teams       int    // League size; team ids are 1..Teams
	Season      string // Season label, e.g. "20232024"
	StartDate   string // Date of the first game, YYYY-MM-DD
	FirstGameID int64  // Game id of the first game
	Seed        uint64 // Drives every random draw
	Workers     int    // Games generated concurrently

	EmptyNetRate     float64 // Share of games where the home goalie is pulled late
	ShootoutRate     float64 // Share of games decided in a shootout
	MissingCoordRate float64 // Share of shot attempts without coordinates
	DuplicateRate    float64 // Share of events repeated, as an overlapping pull would
}

// DefaultConfig returns a small, realistic league.
func DefaultConfig() Config {
	return Config{
		Games:            200,
		Teams:            8,
		Season:           "20232024",
		StartDate:        "2023-10-10",
		FirstGameID:      2023020001,
		Seed:             1,
		Workers:          runtime.NumCPU(),
		EmptyNetRate:     0.2,
		ShootoutRate:     0.05,
		MissingCoordRate: 0.005,
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	switch {
	case c.Games < 1:
		return fmt.Errorf("%w: games must be >= 1", ErrInvalidConfig)
	case c.Teams < 2:
		return fmt.Errorf("%w: teams must be >= 2", ErrInvalidConfig)
	case !rate(c.EmptyNetRate) || !rate(c.ShootoutRate) || !rate(c.MissingCoordRate) || !rate(c.DuplicateRate):
		return fmt.Errorf("%w: rates must be in [0,1]", ErrInvalidConfig)
	}
	return nil
}

func rate(r float64) bool { return r >= 0 && r <= 1 }
