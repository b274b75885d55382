package planner

import "errors"

var (
	// ErrInvalidParameter reports a flight or grid parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidPolygon reports a malformed area of interest or no-fly zone.
	ErrInvalidPolygon = errors.New("invalid polygon")

	// ErrUnknownDroneType reports a drone model with no camera profile.
	ErrUnknownDroneType = errors.New("unknown drone type")

	// ErrGridTooLarge is returned when a grid would exceed the configured point ceiling.
	ErrGridTooLarge = errors.New("grid too large")
)
