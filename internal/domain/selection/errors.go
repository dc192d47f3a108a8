package selection

import "errors"

// Sentinel errors.
var (
	ErrNoRecipes = errors.New("no recipes to select from")
	ErrNoFolds   = errors.New("no folds")
)
