package types

import "errors"

var (
	// ErrIndexNotBuilt is returned when a query arrives before any
	// successful index build. Callers must see this instead of a silent
	// empty result.
	ErrIndexNotBuilt = errors.New("keyword index not built")

	// ErrInvalidWeights is returned when fusion is given a negative
	// weight or a weight set that sums to zero.
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrAdapterUnavailable is returned when the semantic adapter fails.
	// Hybrid mode degrades to keyword-only instead of surfacing it.
	ErrAdapterUnavailable = errors.New("semantic adapter unavailable")
)
