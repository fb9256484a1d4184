// Package analysis turns a raw price table into annualized risk statistics and runs
// compounding projections. Every function here is pure: same inputs, same outputs.
package analysis

import "errors"

var (
	// ErrDataUnavailable means the price table is empty, malformed or has no usable price field.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrInsufficientHistory means fewer than two valid prices survived normalization.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrInvalidProjectionInput is returned by the projector before any arithmetic runs.
	ErrInvalidProjectionInput = errors.New("invalid projection input")
)
