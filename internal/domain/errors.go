package domain

import "errors"

// Error kinds returned by the analytical core. Components wrap them with
// fmt.Errorf("pkg.Func: ...: %w", ...) so callers can match with errors.Is.
// None of them is transient: the same input always fails the same way.
var (
	// ErrValidation marks malformed input: unsorted or duplicate dates,
	// negative prices, gaps that cannot be interpolated.
	ErrValidation = errors.New("validation error")

	// ErrInsufficientData marks too few aligned rows for the requested operation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateVariance marks a zero or near-zero denominator
	// (futures change variance for the hedge ratio).
	ErrDegenerateVariance = errors.New("degenerate variance")

	// ErrConfiguration marks an out-of-range or unknown parameter.
	ErrConfiguration = errors.New("configuration error")
)
