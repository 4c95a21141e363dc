package pricing

import "errors"

var (
	// ErrInvalidMonth rejects a tariff update for a month outside the
	// twelve canonical names.
	ErrInvalidMonth = errors.New("pricing: invalid month label")
	// ErrNegativePrice rejects prices below zero.
	ErrNegativePrice = errors.New("pricing: price must not be negative")
)
