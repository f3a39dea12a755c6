package domain

import "errors"

var (
	// ErrInvalidSeries marks structurally broken input: empty series,
	// non-increasing timestamps or non-finite values.
	ErrInvalidSeries = errors.New("invalid candle series")

	// ErrInvalidRequest marks a request that failed parameter validation.
	ErrInvalidRequest = errors.New("invalid request")

	ErrNotFound = errors.New("not found")
)
