package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNoInput   = errors.New("no input events")
	ErrNoRows    = errors.New("no training rows")
	ErrNoRecipe  = errors.New("every recipe failed")
	ErrNoRecipes = errors.New("no recipes configured")
)
