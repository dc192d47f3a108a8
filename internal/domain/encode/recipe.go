package encode

import (
	"fmt"
	"strconv"

	"github.com/okian/xg/internal/domain/model"
)

// Predictor names.
const (
	Distance    = "distance"
	Angle       = "angle"
	ShotType    = "shot_type"
	Period      = "period"
	PowerPlay   = "power_play"
	ShortHanded = "short_handed"
	LagEvent1   = "lag_event_1"
	LagEvent2   = "lag_event_2"
	LagZone     = "lag_zone"
	Elapsed     = "elapsed"
	Lateral     = "lateral"
	Rebound     = "rebound"
	PenaltyShot = "penalty_shot"
)

// DefaultRareThreshold is the level share below which a category is
// collapsed into OtherLevel.
const DefaultRareThreshold = 0.05

// OtherLevel is the catch-all category.
const OtherLevel = "other"

// Recipe is a named predictor subset with its encoding policy.
type Recipe struct {
	Name          string      `json:"name"`
	Predictors    []string    `json:"predictors"`
	RareThreshold float64     `json:"rare_threshold"`
	Interactions  [][2]string `json:"interactions,omitempty"`
}

type predictor struct {
	categorical bool
	num         func(*model.Features) float64
	cat         func(*model.Features) string
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var predictors = map[string]predictor{
	Distance:    {num: func(f *model.Features) float64 { return f.Distance }},
	Angle:       {num: func(f *model.Features) float64 { return f.Angle }},
	Elapsed:     {num: func(f *model.Features) float64 { return f.Elapsed }},
	Lateral:     {num: func(f *model.Features) float64 { return f.Lateral }},
	PowerPlay:   {num: func(f *model.Features) float64 { return boolf(f.PowerPlay) }},
	ShortHanded: {num: func(f *model.Features) float64 { return boolf(f.ShortHanded) }},
	Rebound:     {num: func(f *model.Features) float64 { return boolf(f.Rebound) }},
	PenaltyShot: {num: func(f *model.Features) float64 { return boolf(f.PenaltyShot) }},
	ShotType:    {categorical: true, cat: func(f *model.Features) string { return f.ShotType }},
	Period:      {categorical: true, cat: func(f *model.Features) string { return strconv.Itoa(f.Period) }},
	LagEvent1:   {categorical: true, cat: func(f *model.Features) string { return f.LagEvent1 }},
	LagEvent2:   {categorical: true, cat: func(f *model.Features) string { return f.LagEvent2 }},
	LagZone:     {categorical: true, cat: func(f *model.Features) string { return f.LagZone }},
}

var (
	geometry      = []string{Distance, Angle}
	specialTeams  = []string{PowerPlay, ShortHanded, PenaltyShot}
	sequenceLags  = []string{LagEvent1, LagEvent2, LagZone, Lateral, Rebound}
	timing        = []string{Period, Elapsed}
	allPredictors = join(geometry, []string{ShotType}, specialTeams, sequenceLags, timing)
)

func join(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Recipes returns the candidate recipes in evaluation order.
func Recipes() []Recipe {
	mk := func(name string, preds []string) Recipe {
		return Recipe{Name: name, Predictors: preds, RareThreshold: DefaultRareThreshold}
	}
	inter := mk("all_interactions", allPredictors)
	inter.Interactions = [][2]string{
		{Distance, Angle},
		{Distance, Rebound},
		{Angle, Lateral},
		{Distance, PowerPlay},
	}
	return []Recipe{
		mk("geometry", geometry),
		mk("geometry_shot_type", join(geometry, []string{ShotType})),
		mk("geometry_special_teams", join(geometry, specialTeams)),
		mk("geometry_sequence", join(geometry, sequenceLags)),
		mk("geometry_timing", join(geometry, timing)),
		mk("all", allPredictors),
		inter,
	}
}

// RecipeByName looks a recipe up among Recipes.
func RecipeByName(name string) (Recipe, error) {
	for _, r := range Recipes() {
		if r.Name == name {
			return r, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w: %q", ErrUnknownRecipe, name)
}

// Validate checks every predictor and interaction term is known and
// interaction terms are numeric.
func (r Recipe) Validate() error {
	for _, p := range r.Predictors {
		if _, ok := predictors[p]; !ok {
			return fmt.Errorf("%w: %q in recipe %s", ErrUnknownPredictor, p, r.Name)
		}
	}
	for _, pair := range r.Interactions {
		for _, p := range pair {
			pr, ok := predictors[p]
			if !ok || pr.categorical {
				return fmt.Errorf("%w: interaction term %q in recipe %s", ErrUnknownPredictor, p, r.Name)
			}
		}
	}
	return nil
}
