package encode

import "errors"

// Sentinel errors.
var (
	ErrUnknownRecipe    = errors.New("unknown recipe")
	ErrUnknownPredictor = errors.New("unknown predictor")
	ErrEmpty            = errors.New("no rows to encode")
)
